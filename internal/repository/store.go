package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/slot-booking/internal/database"
	"github.com/iliyamo/slot-booking/internal/model"
)

// SlotTx is the view of the database a booking write gets while it
// holds the lock for one resource and day.  Everything read through it
// is consistent with everything written through it.
type SlotTx interface {
	Appointments(ctx context.Context, resourceID uint64, day model.Date) ([]model.Appointment, error)
	Appointment(ctx context.Context, id uint64) (model.Appointment, error)
	InsertAppointment(ctx context.Context, a *model.Appointment) error
	MoveAppointment(ctx context.Context, id uint64, status model.AppointmentStatus, resourceID uint64, day model.Date, w model.TimeWindow, now time.Time) error
	ClaimLink(ctx context.Context, linkID uint64, now time.Time) error
	ConsumeLink(ctx context.Context, linkID uint64, now time.Time) error
	RedeemedSlots(ctx context.Context, linkID uint64) ([]model.SlotRef, error)
	RecordRedemption(ctx context.Context, linkID uint64, slot model.SlotRef, appointmentID uint64, now time.Time) error
}

// Store bundles the repositories over one database.  The embedded repos
// contribute their lookup methods directly; WithSlotLock adds the
// serialised write path.
type Store struct {
	*ResourceRepo
	*AvailabilityRepo
	*AppointmentRepo
	*LinkRepo

	db      *sql.DB
	dialect database.Dialect
}

// NewStore returns a Store for db speaking dialect.
func NewStore(db *sql.DB, dialect database.Dialect) *Store {
	return &Store{
		ResourceRepo:     NewResourceRepo(db),
		AvailabilityRepo: NewAvailabilityRepo(db),
		AppointmentRepo:  NewAppointmentRepo(db),
		LinkRepo:         NewLinkRepo(db),
		db:               db,
		dialect:          dialect,
	}
}

// DB exposes the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect reports the SQL flavour of the store.
func (s *Store) Dialect() database.Dialect { return s.dialect }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// lockQuery bumps the lock row for (resource_id, day), creating it on
// first use.  On MySQL the upsert holds an exclusive row lock until the
// transaction ends; on SQLite it takes the database write lock.
func (s *Store) lockQuery() string {
	if s.dialect == database.SQLite {
		return `INSERT INTO booking_locks (resource_id, day, version) VALUES (?, ?, 1)
			ON CONFLICT(resource_id, day) DO UPDATE SET version = version + 1`
	}
	return `INSERT INTO booking_locks (resource_id, day, version) VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE version = version + 1`
}

// WithSlotLock runs fn in a transaction that first locks the
// (resourceID, day) pair.  Writers for the same pair are serialised, so
// a read-check-write sequence inside fn cannot interleave with another.
// The transaction commits when fn returns nil and rolls back otherwise.
//
// fn must do all of its database work through the SlotTx it is given.
func (s *Store) WithSlotLock(ctx context.Context, resourceID uint64, day model.Date, fn func(SlotTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin slot transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, s.lockQuery(), resourceID, day.String()); err != nil {
		return fmt.Errorf("lock %d/%s: %w", resourceID, day, err)
	}
	if err := fn(&slotTx{tx: tx, store: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot transaction: %w", err)
	}
	committed = true
	return nil
}

type slotTx struct {
	tx    *sql.Tx
	store *Store
}

func (t *slotTx) Appointments(ctx context.Context, resourceID uint64, day model.Date) ([]model.Appointment, error) {
	return t.store.AppointmentRepo.ListForDayTx(ctx, t.tx, resourceID, day)
}

func (t *slotTx) Appointment(ctx context.Context, id uint64) (model.Appointment, error) {
	return t.store.AppointmentRepo.GetTx(ctx, t.tx, id)
}

func (t *slotTx) InsertAppointment(ctx context.Context, a *model.Appointment) error {
	return t.store.AppointmentRepo.InsertTx(ctx, t.tx, a)
}

func (t *slotTx) MoveAppointment(ctx context.Context, id uint64, status model.AppointmentStatus, resourceID uint64, day model.Date, w model.TimeWindow, now time.Time) error {
	return t.store.AppointmentRepo.MoveTx(ctx, t.tx, id, status, resourceID, day, w, now)
}

func (t *slotTx) ClaimLink(ctx context.Context, linkID uint64, now time.Time) error {
	return t.store.LinkRepo.ClaimTx(ctx, t.tx, linkID, now)
}

func (t *slotTx) ConsumeLink(ctx context.Context, linkID uint64, now time.Time) error {
	return t.store.LinkRepo.ConsumeTx(ctx, t.tx, linkID, now)
}

func (t *slotTx) RedeemedSlots(ctx context.Context, linkID uint64) ([]model.SlotRef, error) {
	// SQLite serialises writers, so a plain read is already current.
	return t.store.LinkRepo.RedeemedSlotsTx(ctx, t.tx, linkID, t.store.dialect == database.MySQL)
}

func (t *slotTx) RecordRedemption(ctx context.Context, linkID uint64, slot model.SlotRef, appointmentID uint64, now time.Time) error {
	return t.store.LinkRepo.RecordRedemptionTx(ctx, t.tx, linkID, slot, appointmentID, now)
}
