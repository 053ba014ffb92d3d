package model

import "time"

// AppointmentStatus is the lifecycle state of an appointment.  It is a
// tagged state rather than a soft-delete flag: free/busy computation
// depends on the exact value.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Occupies reports whether an appointment in this status blocks its
// interval.  Cancelled and no-show appointments free their slot.
func (s AppointmentStatus) Occupies() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCompleted
}

// Terminal reports whether no further transition is possible.
func (s AppointmentStatus) Terminal() bool { return len(transitions[s]) == 0 }

// Movable reports whether an appointment in this status may be
// rescheduled.
func (s AppointmentStatus) Movable() bool { return s == StatusPending || s == StatusConfirmed }

// CanTransitionTo reports whether s -> next is an allowed one-way step.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Modality describes where the appointment takes place.
type Modality string

const (
	ModalityInPlace   Modality = "in_place"
	ModalityHouseCall Modality = "house_call"
	ModalityVideo     Modality = "video"
)

// Valid reports whether m is a known modality.
func (m Modality) Valid() bool {
	return m == ModalityInPlace || m == ModalityHouseCall || m == ModalityVideo
}

// Source records which channel created an appointment.
type Source string

const (
	SourceStaff Source = "staff"
	SourceLink  Source = "link"
)

// Appointment is a booked interval on a resource.  For a given resource
// and date no two appointments whose status occupies time may overlap.
// Appointments are never deleted; they end in a terminal status.
//
// Fields:
//  ID            – primary key identifier.
//  ResourceID    – resource being booked.
//  Date          – local day of the appointment.
//  Start/End     – half-open local interval.
//  Status        – lifecycle state.
//  ClientID      – client record, when known.
//  CustomerName  – free-text name captured on self-service redemption.
//  CustomerPhone – contact captured on self-service redemption.
//  Modality      – in place, house call or video.
//  SpaceID       – optional room/space reference.
//  LinkID        – reservation link the appointment came from, if any.
//  Source        – staff or link.
type Appointment struct {
	ID            uint64            `json:"id"`                       // appointments.id
	ResourceID    uint64            `json:"resource_id"`              // appointments.resource_id
	Date          Date              `json:"date"`                     // appointments.day
	Start         TimeOfDay         `json:"start"`                    // appointments.start_min
	End           TimeOfDay         `json:"end"`                      // appointments.end_min
	Status        AppointmentStatus `json:"status"`                   // appointments.status
	ClientID      *uint64           `json:"client_id,omitempty"`      // appointments.client_id (nullable)
	CustomerName  string            `json:"customer_name,omitempty"`  // appointments.customer_name
	CustomerPhone string            `json:"customer_phone,omitempty"` // appointments.customer_phone
	Modality      Modality          `json:"modality"`                 // appointments.modality
	SpaceID       *uint64           `json:"space_id,omitempty"`       // appointments.space_id (nullable)
	LinkID        *uint64           `json:"link_id,omitempty"`        // appointments.link_id (nullable)
	Source        Source            `json:"source"`                   // appointments.source
	CreatedAt     time.Time         `json:"created_at"`               // appointments.created_at
	UpdatedAt     time.Time         `json:"updated_at"`               // appointments.updated_at
}

// Window returns the appointment interval.
func (a Appointment) Window() TimeWindow { return TimeWindow{Start: a.Start, End: a.End} }
