package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stayhub/internal/config"
	"github.com/iliyamo/stayhub/internal/logging"
	"github.com/iliyamo/stayhub/internal/middleware"
	"github.com/iliyamo/stayhub/internal/model"
	"github.com/iliyamo/stayhub/internal/repository"
	"github.com/iliyamo/stayhub/internal/service"
)

// AccountFlow is implemented by service.AccountService.
type AccountFlow interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Profile(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler bundles dependencies for account endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts AccountFlow
	Log      logging.Logger
}

func NewAuthHandler(cfg config.Config, accounts AccountFlow, log logging.Logger) *AuthHandler {
	if accounts == nil || log == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Accounts: accounts, Log: log}
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionCookie builds the cookie carrying the session token.  Secure
// deployments use SameSite=None so the separately hosted client can send
// it; plain HTTP development falls back to Lax, which browsers accept
// without Secure.
func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     h.Cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cfg.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	}
	if ck.Secure {
		ck.SameSite = http.SameSiteNoneMode
	}
	if !expires.IsZero() {
		ck.Expires = expires
		if expires.Before(time.Now()) {
			ck.MaxAge = -1
		}
	} else if h.Cfg.SessionTTL > 0 {
		ck.MaxAge = int(h.Cfg.SessionTTL / time.Second)
	}
	return ck
}

// Register creates an account and returns it.  Duplicate emails and
// invalid fields answer 422.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()

	u, err := h.Accounts.Register(ctx, req.Name, req.Email, req.Password)
	var ve *model.ValidationError
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, u)
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusUnprocessableEntity, "email already registered")
	case errors.As(err, &ve):
		return invalid(c, http.StatusUnprocessableEntity, ve)
	default:
		return internal(c, h.Log, "create user failed", err)
	}
}

// Login verifies the credentials and sets the session cookie.  No cookie
// is set on any failure.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()

	u, token, err := h.Accounts.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUserNotFound):
		return fail(c, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	default:
		return internal(c, h.Log, "login failed", err)
	}

	c.SetCookie(h.sessionCookie(token, time.Time{}))
	return c.JSON(http.StatusOK, u)
}

// Logout clears the session cookie.  It needs no session.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, true)
}

// Profile returns name, email and id of the signed-in user.
func (h *AuthHandler) Profile(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)

	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()

	u, err := h.Accounts.Profile(ctx, id.UserID)
	if errors.Is(err, service.ErrUnauthenticated) {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return internal(c, h.Log, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, u.Profile())
}
