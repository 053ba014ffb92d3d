package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/slot-booking/internal/model"
)

// ResourceRepo reads the resources and services tables.  Both are
// written by tenant onboarding elsewhere; the booking engine only needs
// lookups, plus Create for seeding and tests.
type ResourceRepo struct {
	db *sql.DB
}

// NewResourceRepo returns a ResourceRepo bound to db.
func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

const resourceColumns = `id, tenant_id, user_id, name, kind, is_owner, created_at`

func scanResource(row interface{ Scan(...any) error }) (model.Resource, error) {
	var (
		r    model.Resource
		user sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.TenantID, &user, &r.Name, &r.Kind, &r.IsOwner, scanTime(&r.CreatedAt)); err != nil {
		return model.Resource{}, err
	}
	r.UserID = uintPtr(user)
	return r, nil
}

// ResourceByID returns a resource or ErrNotFound.
func (r *ResourceRepo) ResourceByID(ctx context.Context, id uint64) (model.Resource, error) {
	res, err := scanResource(r.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Resource{}, ErrNotFound
	}
	return res, err
}

// ResourceByUserID returns the resource a login acts as, or ErrNotFound.
func (r *ResourceRepo) ResourceByUserID(ctx context.Context, userID uint64) (model.Resource, error) {
	res, err := scanResource(r.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Resource{}, ErrNotFound
	}
	return res, err
}

// CreateResource inserts a resource and sets its ID.
func (r *ResourceRepo) CreateResource(ctx context.Context, res *model.Resource) error {
	kind := res.Kind
	if kind == "" {
		kind = model.ResourceProfessional
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO resources (tenant_id, user_id, name, kind, is_owner) VALUES (?, ?, ?, ?, ?)`,
		res.TenantID, nullUint(res.UserID), res.Name, string(kind), boolInt(res.IsOwner))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.Kind = kind
	return nil
}

// ServicesByIDs returns the services of tenantID among ids.  Unknown or
// foreign IDs are silently absent; callers compare lengths.
func (r *ResourceRepo) ServicesByIDs(ctx context.Context, tenantID uint64, ids []uint64) ([]model.Service, error) {
	if len(ids) == 0 {
		return []model.Service{}, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, tenantID)
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, name, duration_min FROM services WHERE tenant_id = ? AND id IN (`+placeholders(len(ids))+`) ORDER BY id`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Service{}
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.DurationMin); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateService inserts a service and sets its ID.
func (r *ResourceRepo) CreateService(ctx context.Context, s *model.Service) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO services (tenant_id, name, duration_min) VALUES (?, ?, ?)`,
		s.TenantID, s.Name, s.DurationMin)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}
