package transport

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/unrolled/secure"

	"bistroPulse/internal/modules/console/application/usecase"
	"bistroPulse/internal/modules/console/infrastructure"
	"bistroPulse/internal/shared/auth"
	"bistroPulse/internal/shared/session"
)

type RouterConfig struct {
	Sessions      session.Store
	Validator     auth.TokenValidator
	Pages         *usecase.PageRegistry
	Hub           *infrastructure.Hub
	SessionTTL    time.Duration
	SecureCookies bool
	SendBuffer    int
	// MutationRateLimit caps row mutations per session (or client IP) per minute. Zero disables it.
	MutationRateLimit int
	Metrics           http.Handler
}

// NewRouter builds the console HTTP server: session endpoints, page endpoints, the page
// websocket, health and metrics.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(echo.WrapMiddleware(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.SecureCookies,
	}).Handler))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "pages": cfg.Pages.Len(), "clients": cfg.Hub.Clients()})
	})
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics))
	}

	sessions := NewSessionHandler(cfg.Sessions, cfg.Validator, cfg.Pages, cfg.Hub, cfg.SessionTTL, cfg.SecureCookies)
	e.POST("/api/session", sessions.Create)
	e.DELETE("/api/session", sessions.Delete)

	requireSession := RequireSession(cfg.Sessions)
	var mutate []echo.MiddlewareFunc
	if cfg.MutationRateLimit > 0 {
		mutate = append(mutate, echo.WrapMiddleware(httprate.Limit(cfg.MutationRateLimit, time.Minute,
			httprate.WithKeyFuncs(rateLimitKey),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			}),
		)))
	}
	NewPageHandler(cfg.Pages).Register(e.Group("/api/pages", requireSession), mutate...)
	e.GET("/ws/pages/:entity", NewPageWebsocketHandler(cfg.Hub, cfg.Pages, cfg.SendBuffer), requireSession)
	return e
}

func rateLimitKey(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		if id := strings.TrimSpace(cookie.Value); id != "" {
			return "session:" + id, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
