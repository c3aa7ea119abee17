package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stayhub/internal/handler"
	"github.com/iliyamo/stayhub/internal/middleware"
)

// RegisterPlaces registers the listing endpoints.  Public reads go
// through cache; writes and the owner's own list require a session.
func RegisterPlaces(e *echo.Echo, p *handler.PlaceHandler, cache echo.MiddlewareFunc) {
	e.GET("/places", p.ListPlaces, cache)
	e.GET("/places/:id", p.GetPlace, cache)

	auth := middleware.RequireAuth()
	e.POST("/add-place", p.AddPlace, auth)
	e.GET("/user-places", p.UserPlaces, auth)
	e.PUT("/places", p.UpdatePlace, auth)
}
