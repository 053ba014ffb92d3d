package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/service"
)

// PublicLinkPath is where customers open a link; the token is appended.
const PublicLinkPath = "/v1/public/links/"

// LinkHandler lets staff issue, list and revoke reservation links.
type LinkHandler struct {
	Svc *service.LinkService
}

// NewLinkHandler panics when svc is nil.
func NewLinkHandler(svc *service.LinkService) *LinkHandler {
	if svc == nil {
		panic("nil service passed to NewLinkHandler")
	}
	return &LinkHandler{Svc: svc}
}

// List handles GET /v1/resources/:id/links.  Status is the effective
// one, so links past their expiry show as expired.
func (h *LinkHandler) List(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "resource")
	}
	links, err := h.Svc.List(c.Request().Context(), p, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, links)
}

// Create handles POST /v1/resources/:id/links.  The raw token appears
// only in this response.
func (h *LinkHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "resource")
	}
	var body struct {
		From           model.Date         `json:"from"`
		To             model.Date         `json:"to"`
		Modality       model.Modality     `json:"modality"`
		ServiceIDs     []uint64           `json:"service_ids"`
		Slots          model.OfferedSlots `json:"slots"`
		ExpiresInHours int                `json:"expires_in_hours"`
		ClientID       *uint64            `json:"client_id"`
		Message        *string            `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	created, err := h.Svc.Create(c.Request().Context(), p, service.CreateLinkInput{
		ResourceID:     id,
		From:           body.From,
		To:             body.To,
		Modality:       body.Modality,
		ServiceIDs:     body.ServiceIDs,
		Slots:          body.Slots,
		ExpiresInHours: body.ExpiresInHours,
		ClientID:       body.ClientID,
		Message:        body.Message,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"link":  created.Link,
		"token": created.Token,
		"path":  PublicLinkPath + created.Token,
	})
}

// Delete handles DELETE /v1/links/:id.  Only owners may revoke.
func (h *LinkHandler) Delete(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "link")
	}
	if err := h.Svc.Delete(c.Request().Context(), p, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
