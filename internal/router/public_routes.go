package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/handler"
	"github.com/iliyamo/slot-booking/internal/service"
)

// RegisterPublic registers the unauthenticated reservation link
// endpoints.  limiter guards them against token guessing and may be a
// pass-through.
func RegisterPublic(e *echo.Echo, links *service.LinkService, limiter echo.MiddlewareFunc) {
	h := handler.NewPublicLinkHandler(links)
	g := e.Group("/v1/public", limiter)
	g.GET("/links/:token", h.Show)
	g.POST("/links/:token/redeem", h.Redeem)
}
