// Package service implements the booking engine on top of the pure
// schedule computations: availability management, free/busy queries,
// the appointment lifecycle and reservation links.  Every mutating
// operation takes the acting principal explicitly; nothing is read
// from ambient request state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/slot-booking/internal/lock"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/queue"
	"github.com/iliyamo/slot-booking/internal/repository"
	"github.com/iliyamo/slot-booking/internal/schedule"
)

// Store is the persistence the engine needs.  *repository.Store
// implements it over MySQL or SQLite.
type Store interface {
	ResourceByID(ctx context.Context, id uint64) (model.Resource, error)
	ServicesByIDs(ctx context.Context, tenantID uint64, ids []uint64) ([]model.Service, error)

	WeeklyByResource(ctx context.Context, resourceID uint64) ([]model.WeeklyAvailability, error)
	ReplaceWeekly(ctx context.Context, resourceID uint64, week []model.WeeklyAvailability) error
	ExceptionsInRange(ctx context.Context, resourceID uint64, from, to model.Date) ([]model.Exception, error)
	ExceptionByID(ctx context.Context, id uint64) (model.Exception, error)
	CreateException(ctx context.Context, e *model.Exception) error
	DeleteException(ctx context.Context, id uint64) error

	AppointmentsInRange(ctx context.Context, resourceID uint64, from, to model.Date) ([]model.Appointment, error)
	AppointmentByID(ctx context.Context, id uint64) (model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uint64, from, to model.AppointmentStatus, now time.Time) error

	CreateLink(ctx context.Context, l *model.ReservationLink) error
	LinkByTokenHash(ctx context.Context, hash string) (model.ReservationLink, error)
	LinkByID(ctx context.Context, id uint64) (model.ReservationLink, error)
	LinksByResource(ctx context.Context, resourceID uint64) ([]model.ReservationLink, error)
	DeleteLink(ctx context.Context, id uint64) error
	ExpireLinks(ctx context.Context, now time.Time) (int64, error)
	RedeemedSlots(ctx context.Context, linkID uint64) ([]model.SlotRef, error)

	WithSlotLock(ctx context.Context, resourceID uint64, day model.Date, fn func(repository.SlotTx) error) error
}

// Publisher receives appointment events after a successful write.
type Publisher interface {
	PublishAppointmentEvent(ctx context.Context, ev queue.AppointmentEvent) error
}

// CacheInvalidator drops cached reads for a resource after its
// availability changes.
type CacheInvalidator interface {
	InvalidateResource(ctx context.Context, resourceID uint64) error
}

// Options wires the engine.  Store is required; the rest default to an
// in-process lock, no events, no cache, UTC and time.Now.
type Options struct {
	Store     Store
	Locker    lock.Locker
	Publisher Publisher
	Cache     CacheInvalidator
	Config    Config
	Now       func() time.Time
	Logger    *slog.Logger
}

// Services groups the engine's entry points.
type Services struct {
	Availability *AvailabilityService
	Booking      *BookingService
	Links        *LinkService
}

// New builds the services from opts.
func New(opts Options) *Services {
	if opts.Store == nil {
		panic("service: nil store")
	}
	c := &core{
		store:  opts.Store,
		locker: opts.Locker,
		pub:    opts.Publisher,
		cache:  opts.Cache,
		cfg:    opts.Config.withDefaults(),
		now:    opts.Now,
		log:    opts.Logger,
	}
	if c.locker == nil {
		c.locker = lock.NewLocalLocker()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return &Services{
		Availability: &AvailabilityService{core: c},
		Booking:      &BookingService{core: c},
		Links:        &LinkService{core: c},
	}
}

// core holds the collaborators shared by every service.
type core struct {
	store  Store
	locker lock.Locker
	pub    Publisher
	cache  CacheInvalidator
	cfg    Config
	now    func() time.Time
	log    *slog.Logger
}

func (c *core) clock() time.Time { return c.now().In(c.cfg.Location) }

// today returns the local date and minute of now.
func (c *core) today() (model.Date, model.TimeOfDay) {
	now := c.clock()
	return model.DateOf(now), model.TimeOfDayOf(now)
}

// isPast reports whether a slot starting at start on d has begun.
func (c *core) isPast(d model.Date, start model.TimeOfDay) bool {
	today, minute := c.today()
	return d.Before(today) || (d == today && start < minute)
}

// resource loads a resource, translating a missing row.
func (c *core) resource(ctx context.Context, id uint64) (model.Resource, error) {
	r, err := c.store.ResourceByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Resource{}, fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Resource{}, fmt.Errorf("load resource %d: %w", id, err)
	}
	return r, nil
}

func (c *core) authorizeManage(ctx context.Context, p model.Principal, resourceID uint64) (model.Resource, error) {
	r, err := c.resource(ctx, resourceID)
	if err != nil {
		return model.Resource{}, err
	}
	if !p.CanManage(r) {
		return model.Resource{}, ErrNotAuthorized
	}
	return r, nil
}

func (c *core) authorizeView(ctx context.Context, p model.Principal, resourceID uint64) (model.Resource, error) {
	r, err := c.resource(ctx, resourceID)
	if err != nil {
		return model.Resource{}, err
	}
	if !p.CanView(r) {
		return model.Resource{}, ErrNotAuthorized
	}
	return r, nil
}

// checkRange validates an inclusive date range against MaxRangeDays.
func (c *core) checkRange(from, to model.Date) error {
	v := &ValidationError{}
	if from.IsZero() {
		v.add("from", "is required")
	}
	if to.IsZero() {
		v.add("to", "is required")
	}
	if v.HasErrors() {
		return v
	}
	if to.Before(from) {
		return invalid("to", "must not be before from")
	}
	if from.DaysUntil(to)+1 > c.cfg.MaxRangeDays {
		return invalid("to", fmt.Sprintf("range exceeds %d days", c.cfg.MaxRangeDays))
	}
	return nil
}

// availability loads the weekly rules and the exceptions dated within
// [from, to] for a resource.
func (c *core) availability(ctx context.Context, resourceID uint64, from, to model.Date) (schedule.Availability, error) {
	weekly, err := c.store.WeeklyByResource(ctx, resourceID)
	if err != nil {
		return schedule.Availability{}, fmt.Errorf("load weekly availability: %w", err)
	}
	exceptions, err := c.store.ExceptionsInRange(ctx, resourceID, from, to)
	if err != nil {
		return schedule.Availability{}, fmt.Errorf("load exceptions: %w", err)
	}
	return schedule.Availability{ResourceID: resourceID, Weekly: weekly, Exceptions: exceptions}, nil
}

// withSlot takes the advisory lock for (resourceID, day) and then runs
// fn inside the store's locked transaction.
func (c *core) withSlot(ctx context.Context, resourceID uint64, day model.Date, fn func(repository.SlotTx) error) error {
	release, err := c.locker.Lock(ctx, fmt.Sprintf("slot:%d:%s", resourceID, day))
	if err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}
	defer release()
	return c.store.WithSlotLock(ctx, resourceID, day, fn)
}

// publish sends an event best-effort; failures never fail the write
// that produced them.
func (c *core) publish(ctx context.Context, eventType string, a model.Appointment) {
	if c.pub == nil {
		return
	}
	ev := queue.NewAppointmentEvent(eventType, a, c.now())
	if err := c.pub.PublishAppointmentEvent(context.WithoutCancel(ctx), ev); err != nil {
		c.log.WarnContext(ctx, "appointment.event.publish_failed",
			slog.String("type", eventType),
			slog.Uint64("appointment_id", a.ID),
			slog.Any("error", err))
	}
}

func (c *core) invalidate(ctx context.Context, resourceID uint64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidateResource(ctx, resourceID); err != nil {
		c.log.WarnContext(ctx, "cache.invalidate_failed",
			slog.Uint64("resource_id", resourceID),
			slog.Any("error", err))
	}
}
