package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/repository"
	"github.com/iliyamo/slot-booking/internal/schedule"
)

// AvailabilityService manages weekly rules and date exceptions and
// answers free/busy queries.
type AvailabilityService struct {
	*core
}

// Weekly returns the resource's weekly rules, one per weekday.  Days
// without a stored row are reported as inactive.
func (s *AvailabilityService) Weekly(ctx context.Context, p model.Principal, resourceID uint64) ([]model.WeeklyAvailability, error) {
	if _, err := s.authorizeView(ctx, p, resourceID); err != nil {
		return nil, err
	}
	stored, err := s.store.WeeklyByResource(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("load weekly availability: %w", err)
	}
	week := make([]model.WeeklyAvailability, 7)
	for d := range week {
		week[d] = model.WeeklyAvailability{ResourceID: resourceID, DayOfWeek: time.Weekday(d)}
	}
	for _, w := range stored {
		if w.DayOfWeek >= time.Sunday && w.DayOfWeek <= time.Saturday {
			week[w.DayOfWeek] = w
		}
	}
	return week, nil
}

// ReplaceWeekly swaps the whole week of a resource atomically.  Each
// weekday may appear at most once and an active day needs Start < End.
func (s *AvailabilityService) ReplaceWeekly(ctx context.Context, p model.Principal, resourceID uint64, week []model.WeeklyAvailability) error {
	v := &ValidationError{}
	seen := make(map[time.Weekday]bool, len(week))
	rows := make([]model.WeeklyAvailability, 0, len(week))
	for i, w := range week {
		field := fmt.Sprintf("days[%d]", i)
		if w.DayOfWeek < time.Sunday || w.DayOfWeek > time.Saturday {
			v.add(field, "day_of_week must be 0..6")
			continue
		}
		if seen[w.DayOfWeek] {
			v.add(field, "duplicate day_of_week")
			continue
		}
		seen[w.DayOfWeek] = true
		if w.Active && !w.Window().Valid() {
			v.add(field, "start must be before end")
			continue
		}
		w.ResourceID = resourceID
		rows = append(rows, w)
	}
	if err := v.err(); err != nil {
		return err
	}
	if _, err := s.authorizeManage(ctx, p, resourceID); err != nil {
		return err
	}
	if err := s.store.ReplaceWeekly(ctx, resourceID, rows); err != nil {
		return fmt.Errorf("replace weekly availability: %w", err)
	}
	s.invalidate(ctx, resourceID)
	s.log.InfoContext(ctx, "availability.weekly.replaced",
		slog.Uint64("resource_id", resourceID),
		slog.Int("days", len(rows)),
		slog.Uint64("by_user", p.UserID))
	return nil
}

// Exceptions lists the exceptions of a resource within [from, to].
func (s *AvailabilityService) Exceptions(ctx context.Context, p model.Principal, resourceID uint64, from, to model.Date) ([]model.Exception, error) {
	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}
	if _, err := s.authorizeView(ctx, p, resourceID); err != nil {
		return nil, err
	}
	out, err := s.store.ExceptionsInRange(ctx, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load exceptions: %w", err)
	}
	return out, nil
}

// AddException records a block or extra for one date.  Existing
// appointments are left alone: a block over a booked interval only
// stops new bookings.
func (s *AvailabilityService) AddException(ctx context.Context, p model.Principal, ex model.Exception) (model.Exception, error) {
	v := &ValidationError{}
	if ex.Date.IsZero() {
		v.add("date", "is required")
	}
	if !ex.Kind.Valid() {
		v.add("kind", "must be block or extra")
	}
	if ex.AllDay {
		ex.Start, ex.End = nil, nil
	} else if ex.Start == nil || ex.End == nil {
		v.add("start", "start and end are required unless all_day")
	} else if !(model.TimeWindow{Start: *ex.Start, End: *ex.End}).Valid() {
		v.add("start", "start must be before end")
	}
	if err := v.err(); err != nil {
		return model.Exception{}, err
	}
	if _, err := s.authorizeManage(ctx, p, ex.ResourceID); err != nil {
		return model.Exception{}, err
	}
	ex.ID = 0
	ex.CreatedAt = s.now().UTC().Truncate(time.Second)
	if err := s.store.CreateException(ctx, &ex); err != nil {
		return model.Exception{}, fmt.Errorf("create exception: %w", err)
	}
	s.invalidate(ctx, ex.ResourceID)
	s.log.InfoContext(ctx, "availability.exception.created",
		slog.Uint64("resource_id", ex.ResourceID),
		slog.Uint64("exception_id", ex.ID),
		slog.String("date", ex.Date.String()),
		slog.String("kind", string(ex.Kind)))
	return ex, nil
}

// DeleteException removes an exception.
func (s *AvailabilityService) DeleteException(ctx context.Context, p model.Principal, id uint64) error {
	ex, err := s.store.ExceptionByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("exception %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load exception: %w", err)
	}
	if _, err := s.authorizeManage(ctx, p, ex.ResourceID); err != nil {
		return err
	}
	if err := s.store.DeleteException(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("exception %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete exception: %w", err)
	}
	s.invalidate(ctx, ex.ResourceID)
	return nil
}

// GetFreeBusy partitions every slot of [from, to] into free and busy for
// the resource.  It is recomputed from storage on every call.
//
// Slots that have already started are dropped from Free without being
// added to Busy: Busy lists occupying appointments only, so an unbooked
// past slot is in neither list.
func (s *AvailabilityService) GetFreeBusy(ctx context.Context, p model.Principal, resourceID uint64, from, to model.Date) (map[model.Date]schedule.DayFreeBusy, error) {
	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}
	if _, err := s.authorizeView(ctx, p, resourceID); err != nil {
		return nil, err
	}
	return s.freeBusy(ctx, resourceID, from, to)
}

func (c *core) freeBusy(ctx context.Context, resourceID uint64, from, to model.Date) (map[model.Date]schedule.DayFreeBusy, error) {
	avail, err := c.availability(ctx, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	appts, err := c.store.AppointmentsInRange(ctx, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	fb, err := schedule.FreeBusy(avail, from, to, appts, c.cfg.Granularity)
	if err != nil {
		return nil, err
	}
	for d, day := range fb {
		free := make([]model.TimeOfDay, 0, len(day.Free))
		for _, slot := range day.Free {
			if !c.isPast(d, slot) {
				free = append(free, slot)
			}
		}
		day.Free = free
		fb[d] = day
	}
	return fb, nil
}
