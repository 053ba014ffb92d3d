package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/slot-booking/internal/model"
)

// AppointmentRepo provides data access to the appointments table.
// Appointments are never deleted: cancellation is a status change.
// Methods with a Tx suffix run inside a caller-owned transaction; the
// caller is responsible for committing or rolling back.
type AppointmentRepo struct {
	db *sql.DB
}

// NewAppointmentRepo returns an AppointmentRepo bound to db.
func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

const appointmentColumns = `id, resource_id, day, start_min, end_min, status, client_id, customer_name,
	customer_phone, modality, space_id, link_id, source, created_at, updated_at`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanAppointment(row interface{ Scan(...any) error }) (model.Appointment, error) {
	var (
		a                     model.Appointment
		client, space, linkID sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.ResourceID, &a.Date, &a.Start, &a.End, &a.Status, &client, &a.CustomerName,
		&a.CustomerPhone, &a.Modality, &space, &linkID, &a.Source, scanTime(&a.CreatedAt), scanTime(&a.UpdatedAt))
	if err != nil {
		return model.Appointment{}, err
	}
	a.ClientID = uintPtr(client)
	a.SpaceID = uintPtr(space)
	a.LinkID = uintPtr(linkID)
	return a, nil
}

func listAppointments(ctx context.Context, q queryer, query string, args ...any) ([]model.Appointment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func getAppointment(ctx context.Context, q queryer, id uint64) (model.Appointment, error) {
	a, err := scanAppointment(q.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	return a, err
}

// AppointmentsInRange returns every appointment of a resource dated
// within [from, to] regardless of status, ordered by date and start.
func (r *AppointmentRepo) AppointmentsInRange(ctx context.Context, resourceID uint64, from, to model.Date) ([]model.Appointment, error) {
	return listAppointments(ctx, r.db,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE resource_id = ? AND day >= ? AND day <= ? ORDER BY day, start_min, id`,
		resourceID, from.String(), to.String())
}

// AppointmentByID returns one appointment or ErrNotFound.
func (r *AppointmentRepo) AppointmentByID(ctx context.Context, id uint64) (model.Appointment, error) {
	return getAppointment(ctx, r.db, id)
}

// UpdateAppointmentStatus moves an appointment from one status to the
// next only if it is still in from.  A concurrent writer that got there
// first makes this return ErrStale.
func (r *AppointmentRepo) UpdateAppointmentStatus(ctx context.Context, id uint64, from, to model.AppointmentStatus, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), ts(now), id, string(from))
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// ListForDayTx returns the appointments of one resource on one day
// within tx.
func (r *AppointmentRepo) ListForDayTx(ctx context.Context, tx *sql.Tx, resourceID uint64, day model.Date) ([]model.Appointment, error) {
	return listAppointments(ctx, tx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE resource_id = ? AND day = ? ORDER BY start_min, id`,
		resourceID, day.String())
}

// GetTx reads one appointment within tx.
func (r *AppointmentRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Appointment, error) {
	return getAppointment(ctx, tx, id)
}

// InsertTx inserts a and sets its ID.  CreatedAt and UpdatedAt must be
// set by the caller.
func (r *AppointmentRepo) InsertTx(ctx context.Context, tx *sql.Tx, a *model.Appointment) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO appointments (resource_id, day, start_min, end_min, status, client_id, customer_name,
			customer_phone, modality, space_id, link_id, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ResourceID, a.Date.String(), int(a.Start), int(a.End), string(a.Status), nullUint(a.ClientID), a.CustomerName,
		a.CustomerPhone, string(a.Modality), nullUint(a.SpaceID), nullUint(a.LinkID), string(a.Source), ts(a.CreatedAt), ts(a.UpdatedAt))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// MoveTx reschedules an appointment that is still in status.  ErrStale
// means its status changed since it was read.
func (r *AppointmentRepo) MoveTx(ctx context.Context, tx *sql.Tx, id uint64, status model.AppointmentStatus, resourceID uint64, day model.Date, w model.TimeWindow, now time.Time) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE appointments SET resource_id = ?, day = ?, start_min = ?, end_min = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		resourceID, day.String(), int(w.Start), int(w.End), ts(now), id, string(status))
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStale
	}
	return nil
}
