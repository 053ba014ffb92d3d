package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/slot-booking/internal/model"
)

var (
	// ErrSlotConflict means the requested interval is outside the open
	// windows or overlaps an occupying appointment.
	ErrSlotConflict = errors.New("slot is not available")
	// ErrLinkExpired means the link's expiry has been reached.
	ErrLinkExpired = errors.New("reservation link expired")
	// ErrLinkAlreadyUsed means the link was already consumed.
	ErrLinkAlreadyUsed = errors.New("reservation link already used")
	// ErrLinkNotFound means no link matches the presented token.
	ErrLinkNotFound = errors.New("reservation link not found")
	// ErrNotAuthorized means the principal may not act on the resource.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition means the status change is not allowed from
	// the appointment's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError collects field level problems with an input.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v.FieldErrors[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; !exists {
		v.FieldErrors[field] = message
	}
}

// err returns v as an error, or nil when nothing was recorded.
func (v *ValidationError) err() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func invalid(field, message string) error {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// ConflictError lists the slots that failed a freshness check.  It
// matches ErrSlotConflict with errors.Is.
type ConflictError struct {
	Slots []model.SlotRef
}

func (e *ConflictError) Error() string {
	if len(e.Slots) == 0 {
		return ErrSlotConflict.Error()
	}
	parts := make([]string, 0, len(e.Slots))
	for _, s := range e.Slots {
		parts = append(parts, fmt.Sprintf("%s %s", s.Date, s.Start))
	}
	return ErrSlotConflict.Error() + ": " + strings.Join(parts, ", ")
}

// Unwrap makes errors.Is(err, ErrSlotConflict) hold.
func (e *ConflictError) Unwrap() error { return ErrSlotConflict }

func conflict(slots ...model.SlotRef) error { return &ConflictError{Slots: slots} }
