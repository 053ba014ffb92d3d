package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/service"
)

// PublicLinkHandler serves the customer side of reservation links.  No
// authentication: the token is the credential.
type PublicLinkHandler struct {
	Svc *service.LinkService
}

// NewPublicLinkHandler panics when svc is nil.
func NewPublicLinkHandler(svc *service.LinkService) *PublicLinkHandler {
	if svc == nil {
		panic("nil service passed to NewPublicLinkHandler")
	}
	return &PublicLinkHandler{Svc: svc}
}

// publicLink is the customer view of a link; internal ids and the
// client reference are left out.
type publicLink struct {
	Status      model.LinkStatus   `json:"status"`
	Modality    model.Modality     `json:"modality"`
	DurationMin int                `json:"duration_min"`
	From        model.Date         `json:"from"`
	To          model.Date         `json:"to"`
	ExpiresAt   time.Time          `json:"expires_at"`
	Message     *string            `json:"message,omitempty"`
	Available   model.OfferedSlots `json:"available"`
}

// Show handles GET /v1/public/links/:token.  Expired and used links are
// still shown, with their status and nothing available.
func (h *PublicLinkHandler) Show(c echo.Context) error {
	view, err := h.Svc.Status(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeError(c, err)
	}
	l := view.Link
	return c.JSON(http.StatusOK, publicLink{
		Status:      l.Status,
		Modality:    l.Modality,
		DurationMin: l.DurationMin,
		From:        l.From,
		To:          l.To,
		ExpiresAt:   l.ExpiresAt,
		Message:     l.Message,
		Available:   view.Available,
	})
}

// Redeem handles POST /v1/public/links/:token/redeem with
// {"date":"2025-01-08","start":"09:00","name":"...","phone":"..."}.
func (h *PublicLinkHandler) Redeem(c echo.Context) error {
	var body struct {
		Date  model.Date      `json:"date"`
		Start model.TimeOfDay `json:"start"`
		Name  string          `json:"name"`
		Phone string          `json:"phone"`
		Email string          `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	appt, err := h.Svc.Redeem(c.Request().Context(), c.Param("token"),
		model.SlotRef{Date: body.Date, Start: body.Start},
		model.CustomerInfo{Name: body.Name, Phone: body.Phone, Email: body.Email})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"appointment_id": appt.ID,
		"status":         appt.Status,
		"date":           appt.Date,
		"start":          appt.Start,
		"end":            appt.End,
	})
}
