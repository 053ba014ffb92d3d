package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/queue"
	"github.com/iliyamo/slot-booking/internal/repository"
	"github.com/iliyamo/slot-booking/internal/schedule"
)

// BookingService owns the appointment lifecycle.
type BookingService struct {
	*core
}

// CreateAppointmentInput is a staff booking request.
type CreateAppointmentInput struct {
	ResourceID    uint64
	Date          model.Date
	Start         model.TimeOfDay
	End           model.TimeOfDay
	ClientID      *uint64
	CustomerName  string
	CustomerPhone string
	Modality      model.Modality
	SpaceID       *uint64
	// QuickBooking creates the appointment already confirmed.
	QuickBooking bool
}

// MoveInput is a reschedule request.  A zero ResourceID keeps the
// appointment on its current resource.
type MoveInput struct {
	ResourceID uint64
	Date       model.Date
	Start      model.TimeOfDay
	End        model.TimeOfDay
}

func validateInterval(v *ValidationError, d model.Date, start, end model.TimeOfDay) {
	if d.IsZero() {
		v.add("date", "is required")
	}
	if !(model.TimeWindow{Start: start, End: end}).Valid() {
		v.add("start", "start must be before end within one day")
	}
}

// Create books an interval for a staff member.  The interval must lie in
// one open window of the day and overlap no occupying appointment; both
// are checked under the slot lock in the same transaction as the insert.
func (s *BookingService) Create(ctx context.Context, p model.Principal, in CreateAppointmentInput) (model.Appointment, error) {
	v := &ValidationError{}
	validateInterval(v, in.Date, in.Start, in.End)
	if in.Modality == "" {
		in.Modality = model.ModalityInPlace
	}
	if !in.Modality.Valid() {
		v.add("modality", "must be in_place, house_call or video")
	}
	if err := v.err(); err != nil {
		return model.Appointment{}, err
	}
	if _, err := s.authorizeManage(ctx, p, in.ResourceID); err != nil {
		return model.Appointment{}, err
	}

	avail, err := s.availability(ctx, in.ResourceID, in.Date, in.Date)
	if err != nil {
		return model.Appointment{}, err
	}
	windows := avail.Day(in.Date)

	now := s.now().UTC().Truncate(time.Second)
	status := model.StatusPending
	if in.QuickBooking {
		status = model.StatusConfirmed
	}
	appt := model.Appointment{
		ResourceID:    in.ResourceID,
		Date:          in.Date,
		Start:         in.Start,
		End:           in.End,
		Status:        status,
		ClientID:      in.ClientID,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Modality:      in.Modality,
		SpaceID:       in.SpaceID,
		Source:        model.SourceStaff,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.withSlot(ctx, in.ResourceID, in.Date, func(tx repository.SlotTx) error {
		existing, err := tx.Appointments(ctx, in.ResourceID, in.Date)
		if err != nil {
			return err
		}
		busy := schedule.BusyIntervals(existing, in.ResourceID, in.Date, 0)
		if !schedule.FitsWithin(windows, busy, in.Start, int(in.End-in.Start)) {
			return conflict(model.SlotRef{Date: in.Date, Start: in.Start})
		}
		return tx.InsertAppointment(ctx, &appt)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	s.log.InfoContext(ctx, "appointment.created",
		slog.Uint64("appointment_id", appt.ID),
		slog.Uint64("resource_id", appt.ResourceID),
		slog.String("date", appt.Date.String()),
		slog.String("start", appt.Start.String()),
		slog.String("status", string(appt.Status)))
	s.publish(ctx, queue.EventCreated, appt)
	return appt, nil
}

// Get returns one appointment.
func (s *BookingService) Get(ctx context.Context, p model.Principal, id uint64) (model.Appointment, error) {
	a, err := s.appointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if _, err := s.authorizeView(ctx, p, a.ResourceID); err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// List returns the appointments of a resource within [from, to], in
// every status.
func (s *BookingService) List(ctx context.Context, p model.Principal, resourceID uint64, from, to model.Date) ([]model.Appointment, error) {
	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}
	if _, err := s.authorizeView(ctx, p, resourceID); err != nil {
		return nil, err
	}
	out, err := s.store.AppointmentsInRange(ctx, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	return out, nil
}

// Transition applies one lifecycle step.  The update is conditional on
// the status read here, so of two concurrent transitions from the same
// status only one succeeds.
func (s *BookingService) Transition(ctx context.Context, p model.Principal, id uint64, next model.AppointmentStatus) (model.Appointment, error) {
	if !next.Valid() {
		return model.Appointment{}, invalid("status", "unknown status")
	}
	a, err := s.appointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if _, err := s.authorizeManage(ctx, p, a.ResourceID); err != nil {
		return model.Appointment{}, err
	}
	if !a.Status.CanTransitionTo(next) {
		return model.Appointment{}, fmt.Errorf("%s -> %s: %w", a.Status, next, ErrInvalidTransition)
	}
	now := s.now().UTC().Truncate(time.Second)
	if err := s.store.UpdateAppointmentStatus(ctx, id, a.Status, next, now); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return model.Appointment{}, fmt.Errorf("appointment %d changed concurrently: %w", id, ErrInvalidTransition)
		}
		return model.Appointment{}, fmt.Errorf("update status: %w", err)
	}
	prev := a.Status
	a.Status = next
	a.UpdatedAt = now
	s.log.InfoContext(ctx, "appointment.status_changed",
		slog.Uint64("appointment_id", id),
		slog.String("from", string(prev)),
		slog.String("to", string(next)),
		slog.Uint64("by_user", p.UserID))
	s.publish(ctx, queue.EventStatusChanged, a)
	return a, nil
}

// Move reschedules a pending or confirmed appointment.  Inside the lock
// for the target resource and day the appointment's own interval is
// excluded from busy, so shifting within its current slot is allowed.
// On conflict nothing changes.
func (s *BookingService) Move(ctx context.Context, p model.Principal, id uint64, in MoveInput) (model.Appointment, error) {
	v := &ValidationError{}
	validateInterval(v, in.Date, in.Start, in.End)
	if err := v.err(); err != nil {
		return model.Appointment{}, err
	}
	a, err := s.appointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if _, err := s.authorizeManage(ctx, p, a.ResourceID); err != nil {
		return model.Appointment{}, err
	}
	target := in.ResourceID
	if target == 0 {
		target = a.ResourceID
	}
	if target != a.ResourceID {
		if _, err := s.authorizeManage(ctx, p, target); err != nil {
			return model.Appointment{}, err
		}
	}
	if !a.Status.Movable() {
		return model.Appointment{}, fmt.Errorf("cannot move a %s appointment: %w", a.Status, ErrInvalidTransition)
	}

	avail, err := s.availability(ctx, target, in.Date, in.Date)
	if err != nil {
		return model.Appointment{}, err
	}
	windows := avail.Day(in.Date)
	w := model.TimeWindow{Start: in.Start, End: in.End}
	now := s.now().UTC().Truncate(time.Second)

	var moved model.Appointment
	err = s.withSlot(ctx, target, in.Date, func(tx repository.SlotTx) error {
		cur, err := tx.Appointment(ctx, id)
		if err != nil {
			return err
		}
		if !cur.Status.Movable() {
			return fmt.Errorf("cannot move a %s appointment: %w", cur.Status, ErrInvalidTransition)
		}
		existing, err := tx.Appointments(ctx, target, in.Date)
		if err != nil {
			return err
		}
		busy := schedule.BusyIntervals(existing, target, in.Date, id)
		if !schedule.FitsWithin(windows, busy, in.Start, w.Minutes()) {
			return conflict(model.SlotRef{Date: in.Date, Start: in.Start})
		}
		if err := tx.MoveAppointment(ctx, id, cur.Status, target, in.Date, w, now); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return fmt.Errorf("appointment %d changed concurrently: %w", id, ErrInvalidTransition)
			}
			return err
		}
		moved = cur
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}
	moved.ResourceID, moved.Date, moved.Start, moved.End, moved.UpdatedAt = target, in.Date, in.Start, in.End, now
	s.log.InfoContext(ctx, "appointment.moved",
		slog.Uint64("appointment_id", id),
		slog.String("from", fmt.Sprintf("%d/%s %s", a.ResourceID, a.Date, a.Window())),
		slog.String("to", fmt.Sprintf("%d/%s %s", target, in.Date, w)))
	s.publish(ctx, queue.EventMoved, moved)
	return moved, nil
}

func (s *BookingService) appointment(ctx context.Context, id uint64) (model.Appointment, error) {
	a, err := s.store.AppointmentByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Appointment{}, fmt.Errorf("appointment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("load appointment: %w", err)
	}
	return a, nil
}
