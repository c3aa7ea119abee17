// Package handler exposes the HTTP handlers: accounts, listings and
// bookings.  Handlers translate layer errors into status codes and always
// answer errors as {"error": "..."}.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stayhub/internal/logging"
	"github.com/iliyamo/stayhub/internal/model"
	"github.com/iliyamo/stayhub/internal/service"
)

const defaultTimeout = 5 * time.Second

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// invalid answers a validation failure with its problem list.
func invalid(c echo.Context, status int, err error) error {
	var mve *model.ValidationError
	if errors.As(err, &mve) {
		return c.JSON(status, echo.Map{"error": "validation failed", "problems": mve.Problems})
	}
	var sve *service.ValidationError
	if errors.As(err, &sve) {
		return c.JSON(status, echo.Map{"error": "validation failed", "problems": sve.Problems})
	}
	return fail(c, status, err.Error())
}

// internal logs the cause and answers a generic 500.
func internal(c echo.Context, log logging.Logger, msg string, err error) error {
	log.Error(c.Request().Context(), msg, "err", err, "path", c.Path(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
	return fail(c, http.StatusInternalServerError, msg)
}

func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), d)
}
