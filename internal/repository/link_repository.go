package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/slot-booking/internal/model"
)

// LinkRepo provides data access to reservation_links and
// link_redemptions.  Tokens are looked up by their SHA-256 digest; the
// raw token never reaches the database.
type LinkRepo struct {
	db *sql.DB
}

// NewLinkRepo returns a LinkRepo bound to db.
func NewLinkRepo(db *sql.DB) *LinkRepo { return &LinkRepo{db: db} }

const linkColumns = `id, token_hash, resource_id, client_id, date_from, date_to, modality, service_ids,
	duration_min, offered_slots, expires_at, status, message, created_at, used_at`

func scanLink(row interface{ Scan(...any) error }) (model.ReservationLink, error) {
	var (
		l                 model.ReservationLink
		client            sql.NullInt64
		serviceIDs, slots []byte
		message           sql.NullString
		usedAt            time.Time
	)
	used := scanTime(&usedAt)
	err := row.Scan(&l.ID, &l.TokenHash, &l.ResourceID, &client, &l.From, &l.To, &l.Modality, &serviceIDs,
		&l.DurationMin, &slots, scanTime(&l.ExpiresAt), &l.Status, &message, scanTime(&l.CreatedAt), used)
	if err != nil {
		return model.ReservationLink{}, err
	}
	l.ClientID = uintPtr(client)
	if message.Valid {
		l.Message = &message.String
	}
	if used.valid {
		l.UsedAt = &usedAt
	}
	l.ServiceIDs = []uint64{}
	if len(serviceIDs) > 0 {
		if err := json.Unmarshal(serviceIDs, &l.ServiceIDs); err != nil {
			return model.ReservationLink{}, fmt.Errorf("decode service_ids of link %d: %w", l.ID, err)
		}
	}
	l.Slots = model.OfferedSlots{}
	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &l.Slots); err != nil {
			return model.ReservationLink{}, fmt.Errorf("decode offered_slots of link %d: %w", l.ID, err)
		}
	}
	return l, nil
}

// CreateLink inserts a link and sets its ID.  A colliding token hash
// yields ErrConflict.
func (r *LinkRepo) CreateLink(ctx context.Context, l *model.ReservationLink) error {
	serviceIDs := l.ServiceIDs
	if serviceIDs == nil {
		serviceIDs = []uint64{}
	}
	svcJSON, err := json.Marshal(serviceIDs)
	if err != nil {
		return err
	}
	slotsJSON, err := json.Marshal(l.Slots)
	if err != nil {
		return err
	}
	var message any
	if l.Message != nil {
		message = *l.Message
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO reservation_links (token_hash, resource_id, client_id, date_from, date_to, modality, service_ids,
			duration_min, offered_slots, expires_at, status, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.TokenHash, l.ResourceID, nullUint(l.ClientID), l.From.String(), l.To.String(), string(l.Modality), string(svcJSON),
		l.DurationMin, string(slotsJSON), ts(l.ExpiresAt), string(l.Status), message, ts(l.CreatedAt))
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
	l.ID = uint64(id)
	return nil
}

func (r *LinkRepo) getLink(ctx context.Context, where string, arg any) (model.ReservationLink, error) {
	l, err := scanLink(r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM reservation_links WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReservationLink{}, ErrNotFound
	}
	return l, err
}

// LinkByTokenHash returns the link whose token digests to hash.
func (r *LinkRepo) LinkByTokenHash(ctx context.Context, hash string) (model.ReservationLink, error) {
	return r.getLink(ctx, `token_hash = ?`, hash)
}

// LinkByID returns one link or ErrNotFound.
func (r *LinkRepo) LinkByID(ctx context.Context, id uint64) (model.ReservationLink, error) {
	return r.getLink(ctx, `id = ?`, id)
}

// LinksByResource returns the links of a resource, newest first.
func (r *LinkRepo) LinksByResource(ctx context.Context, resourceID uint64) ([]model.ReservationLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM reservation_links WHERE resource_id = ? ORDER BY created_at DESC, id DESC`, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ReservationLink{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteLink hard-deletes a link and its redemption records.
// Appointments created from it keep their link_id for history.
func (r *LinkRepo) DeleteLink(ctx context.Context, id uint64) error {
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM link_redemptions WHERE link_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM reservation_links WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ExpireLinks persists the expired status for active links whose expiry
// has passed and returns how many rows changed.  Reads never depend on
// it having run.
func (r *LinkRepo) ExpireLinks(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservation_links SET status = ? WHERE status = ? AND expires_at <= ?`,
		string(model.LinkExpired), string(model.LinkActive), ts(now))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func listRedemptions(ctx context.Context, q queryer, linkID uint64, suffix string) ([]model.SlotRef, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT day, start_min FROM link_redemptions WHERE link_id = ? ORDER BY day, start_min`+suffix, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SlotRef{}
	for rows.Next() {
		var s model.SlotRef
		if err := rows.Scan(&s.Date, &s.Start); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RedeemedSlots lists the offered slots of a link already booked.
func (r *LinkRepo) RedeemedSlots(ctx context.Context, linkID uint64) ([]model.SlotRef, error) {
	return listRedemptions(ctx, r.db, linkID, "")
}

// RedeemedSlotsTx is RedeemedSlots within tx.  With forUpdate the rows
// are read with a locking read, which on MySQL sees rows committed after
// tx took its snapshot.
func (r *LinkRepo) RedeemedSlotsTx(ctx context.Context, tx *sql.Tx, linkID uint64, forUpdate bool) ([]model.SlotRef, error) {
	if forUpdate {
		return listRedemptions(ctx, tx, linkID, " FOR UPDATE")
	}
	return listRedemptions(ctx, tx, linkID, "")
}

// ClaimTx takes the row lock of an active, unexpired link for the rest
// of tx without changing it.  A link that is no longer active yields
// ErrStale.
func (r *LinkRepo) ClaimTx(ctx context.Context, tx *sql.Tx, linkID uint64, now time.Time) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE reservation_links SET status = status WHERE id = ? AND status = ? AND expires_at > ?`,
		linkID, string(model.LinkActive), ts(now))
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// ConsumeTx marks an active, unexpired link used.  The WHERE clause is
// the single-consumption guarantee: when two redemptions race, exactly
// one UPDATE matches and the other gets ErrStale.
func (r *LinkRepo) ConsumeTx(ctx context.Context, tx *sql.Tx, linkID uint64, now time.Time) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE reservation_links SET status = ?, used_at = ? WHERE id = ? AND status = ? AND expires_at > ?`,
		string(model.LinkUsed), ts(now), linkID, string(model.LinkActive), ts(now))
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// RecordRedemptionTx remembers that slot of a link was booked as
// appointmentID.  Redeeming the same slot twice yields ErrConflict.
func (r *LinkRepo) RecordRedemptionTx(ctx context.Context, tx *sql.Tx, linkID uint64, slot model.SlotRef, appointmentID uint64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO link_redemptions (link_id, day, start_min, appointment_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		linkID, slot.Date.String(), int(slot.Start), appointmentID, ts(now))
	if err != nil && isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}
