package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"bistroPulse/internal/modules/console/application/usecase"
)

type PageHandler struct {
	pages *usecase.PageRegistry
}

func NewPageHandler(pages *usecase.PageRegistry) *PageHandler {
	return &PageHandler{pages: pages}
}

// Register mounts the page routes on g. mutate wraps the routes that change rows.
func (h *PageHandler) Register(g *echo.Group, mutate ...echo.MiddlewareFunc) {
	g.GET("/:entity", h.Mount)
	g.DELETE("/:entity", h.Unmount)
	g.POST("/:entity/reload", h.Reload)
	g.PUT("/:entity/search", h.Search)
	g.PUT("/:entity/filters", h.Filter)
	g.DELETE("/:entity/filters", h.ClearFilters)
	g.PUT("/:entity/page", h.Page)
	g.DELETE("/:entity/items/:id", h.Delete, mutate...)
	g.POST("/:entity/items/:id/toggle", h.Toggle, mutate...)
	g.PUT("/:entity/items/:id", h.Update, mutate...)
}

// Mount creates and loads the page on first access and returns its view.
func (h *PageHandler) Mount(c echo.Context) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return errorMapper.HTTPError(err)
	}
	page, err := h.pages.Mount(c.Request().Context(), sess, c.Param("entity"))
	if err != nil {
		return errorMapper.HTTPError(err)
	}
	return c.JSON(http.StatusOK, page.Controller().View())
}

func (h *PageHandler) Unmount(c echo.Context) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return errorMapper.HTTPError(err)
	}
	h.pages.Unmount(sess.ID, c.Param("entity"))
	return c.NoContent(http.StatusNoContent)
}

func (h *PageHandler) Reload(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	// A failed fetch is part of the returned view.
	_ = page.Controller().Load(c.Request().Context())
	return c.JSON(http.StatusOK, page.Controller().View())
}

type searchRequest struct {
	Term string `json:"term"`
}

func (h *PageHandler) Search(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	var body searchRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.JSON(http.StatusOK, searchPage(page, body.Term))
}

func (h *PageHandler) Filter(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	body := make(map[string]string)
	if err := decodeBody(c, &body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "filters must be an object of strings")
	}
	return c.JSON(http.StatusOK, filterPage(page, body))
}

func (h *PageHandler) ClearFilters(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page.Controller().ClearFilters())
}

type pageRequest struct {
	Page int `json:"page"`
}

func (h *PageHandler) Page(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	var body pageRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.JSON(http.StatusOK, page.Controller().SetPage(body.Page))
}

// Delete requires confirm=true. The response carries the optimistic view.
func (h *PageHandler) Delete(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	confirmed, _ := strconv.ParseBool(strings.TrimSpace(c.QueryParam("confirm")))
	view, err := deleteItem(c.Request().Context(), page, c.Param("id"), confirmed)
	if err != nil {
		slog.Debug("delete rejected", slog.String("entity", page.Entity()), slog.String("id", c.Param("id")), slog.Any("error", err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, view)
}

func (h *PageHandler) Toggle(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	view, err := toggleItem(c.Request().Context(), page, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, view)
}

// Update overlays the JSON body on the row. Invalid input answers 422 with field errors.
func (h *PageHandler) Update(c echo.Context) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}
	patch := make(map[string]any)
	if err := decodeBody(c, &patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	view, err := updateItem(c.Request().Context(), page, c.Param("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, view)
}

func (h *PageHandler) page(c echo.Context) (*usecase.Page, error) {
	sess, err := sessionFrom(c)
	if err != nil {
		return nil, errorMapper.HTTPError(err)
	}
	page, err := h.pages.Get(sess.ID, c.Param("entity"))
	if err != nil {
		return nil, errorMapper.HTTPError(err)
	}
	return page, nil
}

// decodeBody reads a JSON object body. Map targets skip echo's binder, which would also
// copy path and query parameters into the map.
func decodeBody(c echo.Context, dst any) error {
	err := json.NewDecoder(io.LimitReader(c.Request().Body, 1<<20)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
