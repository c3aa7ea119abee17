// Package router wires the global middleware and registers the API routes.
package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/stayhub/internal/config"
	"github.com/iliyamo/stayhub/internal/handler"
	"github.com/iliyamo/stayhub/internal/logging"
	"github.com/iliyamo/stayhub/internal/middleware"
)

// credentialPaths establish or end a session and never verify the cookie.
var credentialPaths = []string{"/register", "/login", "/logout"}

// New builds the Echo instance with the middleware every route shares:
// panic recovery, request ids, one structured log line per request, CORS
// for the configured client origin, and session resolution from the cookie.
func New(cfg config.Config, log *logging.SlogLogger, tokens middleware.TokenVerifier) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			log.Slog().LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept, echo.HeaderOrigin},
		AllowCredentials: true,
	}))
	e.Use(middleware.SessionWithConfig(middleware.SessionConfig{
		Skipper:    middleware.SkipPaths(credentialPaths...),
		CookieName: cfg.CookieName,
		Tokens:     tokens,
		Secure:     cfg.SecureCookies(),
	}))
	return e
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints.  limit guards the two
// credential endpoints against guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	e.POST("/register", a.Register, limit)
	e.POST("/login", a.Login, limit)
	e.POST("/logout", a.Logout)
	e.GET("/profile", a.Profile, middleware.RequireAuth())
}
