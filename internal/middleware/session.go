package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/stayhub/internal/utils"
)

// TokenVerifier checks a session token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (utils.SessionClaims, error)
}

// SessionConfig configures SessionWithConfig.
type SessionConfig struct {
	// Skipper bypasses token verification.  Routes that establish or end
	// a session are skipped so a stale cookie cannot lock the user out.
	Skipper echomw.Skipper

	CookieName string
	Tokens     TokenVerifier

	// Secure must match the attribute the cookie was issued with, or the
	// browser will not accept the expired replacement.
	Secure bool
}

// Session reads the session token from the named cookie with no routes
// skipped.
func Session(cookieName string, tokens TokenVerifier) echo.MiddlewareFunc {
	return SessionWithConfig(SessionConfig{CookieName: cookieName, Tokens: tokens})
}

// SessionWithConfig reads the session token from the configured cookie.
// Without a cookie the request continues unauthenticated.  With a cookie the
// token must verify: on success the identity is attached for downstream
// handlers, on failure the cookie is expired and the request ends with 401.
func SessionWithConfig(cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomw.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			ck, err := c.Cookie(cfg.CookieName)
			if err != nil || ck.Value == "" {
				return next(c)
			}
			claims, err := cfg.Tokens.Verify(ck.Value)
			if err != nil {
				c.SetCookie(expiredCookie(cfg))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session token"})
			}
			c.Set(identityKey, Identity{UserID: claims.UserID, Email: claims.Email})
			return next(c)
		}
	}
}

func expiredCookie(cfg SessionConfig) *http.Cookie {
	ck := &http.Cookie{
		Name:     cfg.CookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.Secure {
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}

// SkipPaths returns a Skipper matching the given route paths.
func SkipPaths(paths ...string) echomw.Skipper {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(c echo.Context) bool {
		_, ok := set[c.Path()]
		return ok
	}
}

// RequireAuth rejects requests that reached it without an identity.  It
// must run after Session.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentIdentity(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
