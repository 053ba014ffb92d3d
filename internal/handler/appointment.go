package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/service"
)

// AppointmentHandler exposes the appointment lifecycle to staff.
type AppointmentHandler struct {
	Svc *service.BookingService
}

// NewAppointmentHandler panics when svc is nil.
func NewAppointmentHandler(svc *service.BookingService) *AppointmentHandler {
	if svc == nil {
		panic("nil service passed to NewAppointmentHandler")
	}
	return &AppointmentHandler{Svc: svc}
}

// List handles GET /v1/resources/:id/appointments?from&to.
func (h *AppointmentHandler) List(c echo.Context) error {
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
	list, err := h.Svc.List(c.Request().Context(), p, id, from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create handles POST /v1/resources/:id/appointments.  A taken interval
// answers 409; "quick": true books it already confirmed.
func (h *AppointmentHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "resource")
	}
	var body struct {
		Date          model.Date      `json:"date"`
		Start         model.TimeOfDay `json:"start"`
		End           model.TimeOfDay `json:"end"`
		ClientID      *uint64         `json:"client_id"`
		CustomerName  string          `json:"customer_name"`
		CustomerPhone string          `json:"customer_phone"`
		Modality      model.Modality  `json:"modality"`
		SpaceID       *uint64         `json:"space_id"`
		Quick         bool            `json:"quick"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	appt, err := h.Svc.Create(c.Request().Context(), p, service.CreateAppointmentInput{
		ResourceID:    id,
		Date:          body.Date,
		Start:         body.Start,
		End:           body.End,
		ClientID:      body.ClientID,
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		Modality:      body.Modality,
		SpaceID:       body.SpaceID,
		QuickBooking:  body.Quick,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, appt)
}

// Get handles GET /v1/appointments/:id.
func (h *AppointmentHandler) Get(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "appointment")
	}
	appt, err := h.Svc.Get(c.Request().Context(), p, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}

// Transition handles POST /v1/appointments/:id/transition with
// {"status":"confirmed"}.
func (h *AppointmentHandler) Transition(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "appointment")
	}
	var body struct {
		Status model.AppointmentStatus `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	appt, err := h.Svc.Transition(c.Request().Context(), p, id, body.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}

// Move handles POST /v1/appointments/:id/move.  resource_id may be
// omitted to stay on the current resource.
func (h *AppointmentHandler) Move(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "appointment")
	}
	var body struct {
		ResourceID uint64          `json:"resource_id"`
		Date       model.Date      `json:"date"`
		Start      model.TimeOfDay `json:"start"`
		End        model.TimeOfDay `json:"end"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	appt, err := h.Svc.Move(c.Request().Context(), p, id, service.MoveInput{
		ResourceID: body.ResourceID,
		Date:       body.Date,
		Start:      body.Start,
		End:        body.End,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, appt)
}
