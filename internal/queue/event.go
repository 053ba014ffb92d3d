// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/slot-booking/internal/model"
)

// AppointmentQueueName is the durable queue every appointment event is
// routed to.
const AppointmentQueueName = "appointment.events"

// Event types.
const (
	EventCreated       = "appointment.created"
	EventRedeemed      = "appointment.redeemed"
	EventStatusChanged = "appointment.status_changed"
	EventMoved         = "appointment.moved"
)

// AppointmentEvent is published after an appointment is booked,
// redeemed through a link, moved, or changes status.  It carries enough
// for downstream consumers (notifications, analytics) to act without
// querying the primary database.
type AppointmentEvent struct {
	EventID       string  `json:"event_id"`
	Type          string  `json:"type"`
	AppointmentID uint64  `json:"appointment_id"`
	ResourceID    uint64  `json:"resource_id"`
	Date          string  `json:"date"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Status        string  `json:"status"`
	Source        string  `json:"source"`
	LinkID        *uint64 `json:"link_id,omitempty"`
	CustomerName  string  `json:"customer_name,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}

// NewAppointmentEvent snapshots a into an event of the given type.
func NewAppointmentEvent(eventType string, a model.Appointment, at time.Time) AppointmentEvent {
	return AppointmentEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		AppointmentID: a.ID,
		ResourceID:    a.ResourceID,
		Date:          a.Date.String(),
		Start:         a.Start.String(),
		End:           a.End.String(),
		Status:        string(a.Status),
		Source:        string(a.Source),
		LinkID:        a.LinkID,
		CustomerName:  a.CustomerName,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
