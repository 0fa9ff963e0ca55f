package transport

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"bistroPulse/internal/modules/console/application/port"
	"bistroPulse/internal/modules/console/infrastructure"
	listingport "bistroPulse/internal/modules/listing/application/port"
	listing "bistroPulse/internal/modules/listing/domain"
	"bistroPulse/internal/shared/auth"
	"bistroPulse/internal/shared/httputil"
	"bistroPulse/internal/shared/session"
)

var errorMapper = httputil.NewErrorMapper().
	WithMapping(auth.ErrMissingToken, http.StatusUnauthorized, "missing token").
	WithMapping(auth.ErrInvalidToken, http.StatusUnauthorized, "invalid token").
	WithMapping(session.ErrMissingID, http.StatusUnauthorized, "missing session").
	WithMapping(session.ErrNotFound, http.StatusUnauthorized, "session expired").
	WithMapping(port.ErrRoleNotAllowed, http.StatusForbidden, "role not allowed").
	WithMapping(port.ErrUnknownEntity, http.StatusNotFound, "unknown entity").
	WithMapping(port.ErrPageNotMounted, http.StatusNotFound, "page not mounted").
	WithMapping(port.ErrRegistryStopped, http.StatusServiceUnavailable, "shutting down").
	WithMapping(listing.ErrEntityNotFound, http.StatusNotFound, "item not found").
	WithMapping(listing.ErrConfirmationDeclined, http.StatusPreconditionRequired, "confirmation required").
	WithMapping(listing.ErrMutationInFlight, http.StatusConflict, "a change to this item is still being saved").
	WithMapping(listing.ErrNotToggleable, http.StatusUnprocessableEntity, "item has no status toggle").
	WithMapping(listing.ErrPageClosed, http.StatusGone, "page closed").
	WithMapping(infrastructure.ErrInvalidPayload, http.StatusBadRequest, "invalid payload").
	WithMapping(infrastructure.ErrUnsupportedCommand, http.StatusBadRequest, "unsupported action").
	WithMapping(listingport.ErrUnsupported, http.StatusMethodNotAllowed, "read-only list").
	WithDefault(http.StatusInternalServerError, "internal server error")

// validationBody is the 422 response of a rejected edit.
type validationBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

// respondError writes validation failures with their field errors and maps everything else.
func respondError(c echo.Context, err error) error {
	if failure := validationFailure(err); failure != nil {
		return c.JSON(http.StatusUnprocessableEntity, validationBody{Message: failure.Message, Fields: failure.Fields})
	}
	return errorMapper.HTTPError(err)
}

func validationFailure(err error) *listing.Failure {
	var failure *listing.Failure
	if errors.As(err, &failure) && failure.Kind == listing.ErrorKindValidation {
		return failure
	}
	return nil
}
