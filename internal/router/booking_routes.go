package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stayhub/internal/handler"
	"github.com/iliyamo/stayhub/internal/middleware"
)

// RegisterBookings registers the booking endpoints.  Creating a booking
// does not need a session; listing one's bookings does.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler) {
	e.POST("/booking", b.CreateBooking)
	e.GET("/bookings", b.ListBookings, middleware.RequireAuth())
}
