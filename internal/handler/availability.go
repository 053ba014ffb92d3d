package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/service"
)

// AvailabilityHandler serves working hours, exceptions and free/busy
// for staff.
type AvailabilityHandler struct {
	Svc *service.AvailabilityService
}

// NewAvailabilityHandler panics when svc is nil.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	if svc == nil {
		panic("nil service passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Svc: svc}
}

// GetWeekly handles GET /v1/resources/:id/availability and returns all
// seven days, inactive ones included.
func (h *AvailabilityHandler) GetWeekly(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "resource")
	}
	week, err := h.Svc.Weekly(c.Request().Context(), p, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"resource_id": id, "days": week})
}

type weeklyDay struct {
	DayOfWeek int             `json:"day_of_week"`
	Active    bool            `json:"active"`
	Start     model.TimeOfDay `json:"start"`
	End       model.TimeOfDay `json:"end"`
}

// ReplaceWeekly handles PUT /v1/resources/:id/availability.  The body is
// {"days":[{"day_of_week":1,"active":true,"start":"09:00","end":"17:00"}, ...]};
// days left out become inactive.
func (h *AvailabilityHandler) ReplaceWeekly(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "resource")
	}
	var body struct {
		Days []weeklyDay `json:"days"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	week := make([]model.WeeklyAvailability, 0, len(body.Days))
	for _, d := range body.Days {
		week = append(week, model.WeeklyAvailability{
			ResourceID: id,
			DayOfWeek:  time.Weekday(d.DayOfWeek),
			Active:     d.Active,
			Start:      d.Start,
			End:        d.End,
		})
	}
	if err := h.Svc.ReplaceWeekly(c.Request().Context(), p, id, week); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListExceptions handles GET /v1/resources/:id/exceptions?from&to.
func (h *AvailabilityHandler) ListExceptions(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "resource")
	}
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.Svc.Exceptions(c.Request().Context(), p, id, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// CreateException handles POST /v1/resources/:id/exceptions.
func (h *AvailabilityHandler) CreateException(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "resource")
	}
	var body struct {
		Date   model.Date          `json:"date"`
		AllDay bool                `json:"all_day"`
		Start  *model.TimeOfDay    `json:"start"`
		End    *model.TimeOfDay    `json:"end"`
		Reason string              `json:"reason"`
		Kind   model.ExceptionKind `json:"kind"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	ex, err := h.Svc.AddException(c.Request().Context(), p, model.Exception{
		ResourceID: id,
		Date:       body.Date,
		AllDay:     body.AllDay,
		Start:      body.Start,
		End:        body.End,
		Reason:     body.Reason,
		Kind:       body.Kind,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ex)
}

// DeleteException handles DELETE /v1/exceptions/:id.
func (h *AvailabilityHandler) DeleteException(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "exception")
	}
	if err := h.Svc.DeleteException(c.Request().Context(), p, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// FreeBusy handles GET /v1/resources/:id/free-busy?from&to.  The result
// is keyed by date; closed days carry empty lists.
func (h *AvailabilityHandler) FreeBusy(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "resource")
	}
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, err)
	}
	days, err := h.Svc.GetFreeBusy(c.Request().Context(), p, id, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"resource_id": id, "days": days})
}
