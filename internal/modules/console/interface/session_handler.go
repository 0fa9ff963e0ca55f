package transport

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"bistroPulse/internal/modules/console/application/usecase"
	"bistroPulse/internal/shared/auth"
	"bistroPulse/internal/shared/session"
)

const sessionContextKey = "console.session"

// SessionSockets closes the websocket clients of a session.
type SessionSockets interface {
	DisconnectSession(sessionID string) int
}

type SessionHandler struct {
	store         session.Store
	validator     auth.TokenValidator
	pages         *usecase.PageRegistry
	sockets       SessionSockets
	ttl           time.Duration
	secureCookies bool
	now           func() time.Time
}

func NewSessionHandler(store session.Store, validator auth.TokenValidator, pages *usecase.PageRegistry, sockets SessionSockets, ttl time.Duration, secureCookies bool) *SessionHandler {
	return &SessionHandler{
		store:         store,
		validator:     validator,
		pages:         pages,
		sockets:       sockets,
		ttl:           ttl,
		secureCookies: secureCookies,
		now:           time.Now,
	}
}

type sessionRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Role      auth.Role `json:"role"`
}

// Create validates the bearer token and opens a session. Posting again with the current
// cookie and a fresh token for the same user refreshes the token in place.
func (h *SessionHandler) Create(c echo.Context) error {
	token := auth.RequestToken(c.Request(), "")
	if token == "" {
		var body sessionRequest
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		token = strings.TrimSpace(body.Token)
	}
	claims, err := h.validator.Validate(token)
	if err != nil {
		slog.Warn("session rejected", slog.String("ip", c.RealIP()), slog.Any("error", err))
		return errorMapper.HTTPError(err)
	}
	ctx := c.Request().Context()

	var sess *session.Session
	if cookie, err := c.Cookie(session.CookieName); err == nil {
		if existing, err := h.store.Get(ctx, cookie.Value); err == nil && existing.UserID == claims.Subject {
			existing.Token = token
			existing.Role = claims.PrimaryRole()
			sess = existing
		}
	}
	if sess == nil {
		sess = session.New(token, claims, h.now())
	}
	if err := h.store.Save(ctx, sess); err != nil {
		slog.Error("session save failed", slog.Any("error", err))
		return errorMapper.HTTPError(err)
	}

	c.SetCookie(h.cookie(sess.ID, int(h.ttl.Seconds())))
	slog.Info("session opened", slog.String("sessionId", sess.ID), slog.String("userId", sess.UserID), slog.String("role", string(sess.Role)))
	return c.JSON(http.StatusOK, sessionResponse{SessionID: sess.ID, UserID: sess.UserID, Role: sess.Role})
}

// Delete logs out: pages and sockets of the session are closed.
func (h *SessionHandler) Delete(c echo.Context) error {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return c.NoContent(http.StatusNoContent)
	}
	id := cookie.Value
	pages := h.pages.UnmountSession(id)
	sockets := 0
	if h.sockets != nil {
		sockets = h.sockets.DisconnectSession(id)
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		return errorMapper.HTTPError(err)
	}
	c.SetCookie(h.cookie("", -1))
	slog.Info("session closed", slog.String("sessionId", id), slog.Int("pages", pages), slog.Int("sockets", sockets))
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// RequireSession loads the session named by the cookie and rejects the request without one.
func RequireSession(store session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err != nil {
				return errorMapper.HTTPError(session.ErrMissingID)
			}
			sess, err := store.Get(c.Request().Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrMissingID) {
					slog.Error("session lookup failed", slog.Any("error", err))
				}
				return errorMapper.HTTPError(err)
			}
			c.Set(sessionContextKey, sess)
			return next(c)
		}
	}
}

func sessionFrom(c echo.Context) (*session.Session, error) {
	sess, ok := c.Get(sessionContextKey).(*session.Session)
	if !ok || sess == nil {
		return nil, session.ErrMissingID
	}
	return sess, nil
}
