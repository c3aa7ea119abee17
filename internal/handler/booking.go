package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stayhub/internal/logging"
	"github.com/iliyamo/stayhub/internal/middleware"
	"github.com/iliyamo/stayhub/internal/model"
	"github.com/iliyamo/stayhub/internal/service"
)

// BookingFlow is implemented by service.BookingService.
type BookingFlow interface {
	Create(ctx context.Context, guestID *uint64, f model.BookingFields) (*model.Booking, error)
	ListForGuest(ctx context.Context, guestID uint64) ([]*model.Booking, error)
}

// BookingHandler serves booking endpoints.
type BookingHandler struct {
	Bookings BookingFlow
	Timeout  time.Duration
	Log      logging.Logger
}

func NewBookingHandler(bookings BookingFlow, timeout time.Duration, log logging.Logger) *BookingHandler {
	if bookings == nil || log == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, Timeout: timeout, Log: log}
}

// CreateBooking stores a booking.  A session is optional; when present the
// booking is attributed to the caller.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var f model.BookingFields
	if err := c.Bind(&f); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	var guestID *uint64
	if id, ok := middleware.CurrentIdentity(c); ok {
		if n, err := id.NumericID(); err == nil {
			guestID = &n
		}
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	b, err := h.Bookings.Create(ctx, guestID, f)
	var ve *service.ValidationError
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, b)
	case errors.As(err, &ve):
		return invalid(c, http.StatusBadRequest, ve)
	default:
		return internal(c, h.Log, "create booking failed", err)
	}
}

// ListBookings returns the bookings made by the signed-in caller.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	guestID, ok := owner(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	out, err := h.Bookings.ListForGuest(ctx, guestID)
	if err != nil {
		return internal(c, h.Log, "list bookings failed", err)
	}
	return c.JSON(http.StatusOK, out)
}
