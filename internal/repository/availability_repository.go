package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/slot-booking/internal/model"
)

// AvailabilityRepo provides data access to the weekly_availability and
// availability_exceptions tables.
type AvailabilityRepo struct {
	db *sql.DB
}

// NewAvailabilityRepo returns an AvailabilityRepo bound to db.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// WeeklyByResource returns the stored weekly rules ordered by weekday.
// Days without a row are simply absent.
func (r *AvailabilityRepo) WeeklyByResource(ctx context.Context, resourceID uint64) ([]model.WeeklyAvailability, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT resource_id, day_of_week, active, start_min, end_min
		 FROM weekly_availability WHERE resource_id = ? ORDER BY day_of_week`, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.WeeklyAvailability{}
	for rows.Next() {
		var (
			w   model.WeeklyAvailability
			dow int
		)
		if err := rows.Scan(&w.ResourceID, &dow, &w.Active, &w.Start, &w.End); err != nil {
			return nil, err
		}
		w.DayOfWeek = time.Weekday(dow)
		out = append(out, w)
	}
	return out, rows.Err()
}

// ReplaceWeekly swaps the whole week of a resource in one transaction so
// readers never observe a half-written week.
func (r *AvailabilityRepo) ReplaceWeekly(ctx context.Context, resourceID uint64, week []model.WeeklyAvailability) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_availability WHERE resource_id = ?`, resourceID); err != nil {
		return err
	}
	for _, w := range week {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO weekly_availability (resource_id, day_of_week, active, start_min, end_min) VALUES (?, ?, ?, ?, ?)`,
			resourceID, int(w.DayOfWeek), boolInt(w.Active), int(w.Start), int(w.End)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const exceptionColumns = `id, resource_id, day, all_day, start_min, end_min, reason, kind, created_at`

func scanException(row interface{ Scan(...any) error }) (model.Exception, error) {
	var (
		e          model.Exception
		start, end sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.ResourceID, &e.Date, &e.AllDay, &start, &end, &e.Reason, &e.Kind, scanTime(&e.CreatedAt)); err != nil {
		return model.Exception{}, err
	}
	if start.Valid {
		v := model.TimeOfDay(start.Int64)
		e.Start = &v
	}
	if end.Valid {
		v := model.TimeOfDay(end.Int64)
		e.End = &v
	}
	return e, nil
}

// ExceptionsInRange returns the exceptions of a resource dated within
// [from, to], ordered by date.
func (r *AvailabilityRepo) ExceptionsInRange(ctx context.Context, resourceID uint64, from, to model.Date) ([]model.Exception, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+exceptionColumns+` FROM availability_exceptions
		 WHERE resource_id = ? AND day >= ? AND day <= ? ORDER BY day, id`,
		resourceID, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Exception{}
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExceptionByID returns one exception or ErrNotFound.
func (r *AvailabilityRepo) ExceptionByID(ctx context.Context, id uint64) (model.Exception, error) {
	e, err := scanException(r.db.QueryRowContext(ctx,
		`SELECT `+exceptionColumns+` FROM availability_exceptions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Exception{}, ErrNotFound
	}
	return e, err
}

// CreateException inserts an exception and sets its ID and CreatedAt.
func (r *AvailabilityRepo) CreateException(ctx context.Context, e *model.Exception) error {
	var start, end any
	if !e.AllDay && e.Start != nil && e.End != nil {
		start, end = int(*e.Start), int(*e.End)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO availability_exceptions (resource_id, day, all_day, start_min, end_min, reason, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ResourceID, e.Date.String(), boolInt(e.AllDay), start, end, e.Reason, string(e.Kind), ts(e.CreatedAt))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// DeleteException removes an exception; ErrNotFound when nothing matched.
func (r *AvailabilityRepo) DeleteException(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM availability_exceptions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
