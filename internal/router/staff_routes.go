package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/handler"
	"github.com/iliyamo/slot-booking/internal/middleware"
	"github.com/iliyamo/slot-booking/internal/service"
	"github.com/iliyamo/slot-booking/internal/utils"
)

// StaffDeps carries what the staff API needs.
type StaffDeps struct {
	JWTSecret string
	Resolver  middleware.PrincipalResolver
	Cache     *middleware.ResponseCache // nil disables caching
	Services  *service.Services
}

// RegisterStaff registers the staff endpoints under /v1.  Every route
// requires a valid JWT with the OWNER or STAFF role and a user bound to
// a resource; per-resource permissions are enforced by the services.
func RegisterStaff(e *echo.Echo, d StaffDeps) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(utils.RoleOwner, utils.RoleStaff),
		middleware.ResolvePrincipal(d.Resolver),
	)

	avail := handler.NewAvailabilityHandler(d.Services.Availability)
	appts := handler.NewAppointmentHandler(d.Services.Booking)
	links := handler.NewLinkHandler(d.Services.Links)

	// ---- Availability ----
	g.GET("/resources/:id/availability", avail.GetWeekly, d.Cache.Middleware())
	g.PUT("/resources/:id/availability", avail.ReplaceWeekly)
	g.GET("/resources/:id/exceptions", avail.ListExceptions)
	g.POST("/resources/:id/exceptions", avail.CreateException)
	g.DELETE("/exceptions/:id", avail.DeleteException)
	g.GET("/resources/:id/free-busy", avail.FreeBusy)

	// ---- Appointments ----
	g.GET("/resources/:id/appointments", appts.List)
	g.POST("/resources/:id/appointments", appts.Create)
	g.GET("/appointments/:id", appts.Get)
	g.POST("/appointments/:id/transition", appts.Transition)
	g.POST("/appointments/:id/move", appts.Move)

	// ---- Reservation links ----
	g.GET("/resources/:id/links", links.List)
	g.POST("/resources/:id/links", links.Create)
	g.DELETE("/links/:id", links.Delete)
}
