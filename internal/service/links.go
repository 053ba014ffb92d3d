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
	"github.com/iliyamo/slot-booking/internal/utils"
)

// LinkService issues, shows and redeems reservation links.
type LinkService struct {
	*core
}

// CreateLinkInput is a staff request to offer slots to a customer.
type CreateLinkInput struct {
	ResourceID     uint64
	From           model.Date
	To             model.Date
	Modality       model.Modality
	ServiceIDs     []uint64
	Slots          model.OfferedSlots
	ExpiresInHours int
	ClientID       *uint64
	Message        *string
}

// CreatedLink is returned once at creation; Token is never stored and
// cannot be recovered later.
type CreatedLink struct {
	Link  model.ReservationLink
	Token string
}

// LinkView is what a customer sees when opening a link.  Available
// holds the offered slots that are bookable right now.
type LinkView struct {
	Link      model.ReservationLink
	Available model.OfferedSlots
}

// Create validates the selection, re-checks that every offered slot is
// still free for the link's duration, and stores the link under the
// digest of a fresh random token.
func (s *LinkService) Create(ctx context.Context, p model.Principal, in CreateLinkInput) (CreatedLink, error) {
	slots := in.Slots.Normalize()
	v := &ValidationError{}
	if in.From.IsZero() || in.To.IsZero() {
		v.add("from", "from and to are required")
	} else if in.To.Before(in.From) {
		v.add("to", "must not be before from")
	} else if in.From.DaysUntil(in.To)+1 > s.cfg.MaxRangeDays {
		v.add("to", fmt.Sprintf("range exceeds %d days", s.cfg.MaxRangeDays))
	}
	if slots.Count() == 0 {
		v.add("slots", "select at least one slot")
	}
	if !v.HasErrors() {
		for _, d := range slots.Dates() {
			if d.Before(in.From) || d.After(in.To) {
				v.add("slots", fmt.Sprintf("%s is outside the link range", d))
				break
			}
		}
	}
	for _, d := range slots.Dates() {
		for _, t := range slots[d] {
			if !t.Valid() || t >= model.MinutesPerDay {
				v.add("slots", fmt.Sprintf("%s has an invalid time", d))
			}
		}
	}
	if in.ExpiresInHours <= 0 {
		v.add("expires_in_hours", "must be positive")
	}
	if in.Modality == "" {
		in.Modality = model.ModalityInPlace
	}
	if !in.Modality.Valid() {
		v.add("modality", "must be in_place, house_call or video")
	}
	serviceIDs := uniqueIDs(in.ServiceIDs)
	if err := v.err(); err != nil {
		return CreatedLink{}, err
	}

	res, err := s.authorizeManage(ctx, p, in.ResourceID)
	if err != nil {
		return CreatedLink{}, err
	}

	duration, err := s.linkDuration(ctx, res.TenantID, serviceIDs)
	if err != nil {
		return CreatedLink{}, err
	}

	if stale, err := s.staleSlots(ctx, in.ResourceID, in.From, in.To, slots, duration); err != nil {
		return CreatedLink{}, err
	} else if len(stale) > 0 {
		return CreatedLink{}, conflict(stale...)
	}

	raw, hash, err := utils.NewLinkToken()
	if err != nil {
		return CreatedLink{}, fmt.Errorf("generate link token: %w", err)
	}
	now := s.now().UTC().Truncate(time.Second)
	if in.Message != nil {
		msg := strings.TrimSpace(*in.Message)
		in.Message = &msg
		if msg == "" {
			in.Message = nil
		}
	}
	link := model.ReservationLink{
		TokenHash:   hash,
		ResourceID:  in.ResourceID,
		ClientID:    in.ClientID,
		From:        in.From,
		To:          in.To,
		Modality:    in.Modality,
		ServiceIDs:  serviceIDs,
		DurationMin: duration,
		Slots:       slots,
		ExpiresAt:   now.Add(time.Duration(in.ExpiresInHours) * time.Hour),
		Status:      model.LinkActive,
		Message:     in.Message,
		CreatedAt:   now,
	}
	if err := s.store.CreateLink(ctx, &link); err != nil {
		return CreatedLink{}, fmt.Errorf("create link: %w", err)
	}
	s.log.InfoContext(ctx, "link.created",
		slog.Uint64("link_id", link.ID),
		slog.Uint64("resource_id", link.ResourceID),
		slog.Int("slots", slots.Count()),
		slog.Int("duration_min", duration),
		slog.Time("expires_at", link.ExpiresAt))
	return CreatedLink{Link: link, Token: raw}, nil
}

// linkDuration sums the durations of the selected services, falling
// back to one slot when none are selected.
func (s *LinkService) linkDuration(ctx context.Context, tenantID uint64, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return s.cfg.Granularity, nil
	}
	svcs, err := s.store.ServicesByIDs(ctx, tenantID, ids)
	if err != nil {
		return 0, fmt.Errorf("load services: %w", err)
	}
	if len(svcs) != len(ids) {
		return 0, invalid("service_ids", "unknown service")
	}
	total := 0
	for _, svc := range svcs {
		total += svc.DurationMin
	}
	if total <= 0 {
		return s.cfg.Granularity, nil
	}
	return total, nil
}

// slotGrid returns the slot starts the windows offer at the configured
// granularity.  Only these starts are ever reported free, so only these
// may be offered or redeemed.
func (c *core) slotGrid(windows []model.TimeWindow) (map[model.TimeOfDay]bool, error) {
	starts, err := schedule.GenerateSlots(windows, c.cfg.Granularity)
	if err != nil {
		return nil, err
	}
	grid := make(map[model.TimeOfDay]bool, len(starts))
	for _, t := range starts {
		grid[t] = true
	}
	return grid, nil
}

// staleSlots returns the offered slots that are not currently bookable
// for duration minutes: past, off the slot grid, outside every open
// window, or overlapping an occupying appointment.
func (c *core) staleSlots(ctx context.Context, resourceID uint64, from, to model.Date, slots model.OfferedSlots, duration int) ([]model.SlotRef, error) {
	avail, err := c.availability(ctx, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	appts, err := c.store.AppointmentsInRange(ctx, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	var stale []model.SlotRef
	for _, d := range slots.Dates() {
		windows := avail.Day(d)
		grid, err := c.slotGrid(windows)
		if err != nil {
			return nil, err
		}
		busy := schedule.BusyIntervals(appts, resourceID, d, 0)
		for _, t := range slots[d] {
			if c.isPast(d, t) || !grid[t] || !schedule.FitsWithin(windows, busy, t, duration) {
				stale = append(stale, model.SlotRef{Date: d, Start: t})
			}
		}
	}
	return stale, nil
}

func (s *LinkService) byToken(ctx context.Context, token string) (model.ReservationLink, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.ReservationLink{}, ErrLinkNotFound
	}
	l, err := s.store.LinkByTokenHash(ctx, utils.HashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return model.ReservationLink{}, ErrLinkNotFound
	}
	if err != nil {
		return model.ReservationLink{}, fmt.Errorf("load link: %w", err)
	}
	return l, nil
}

// Status resolves a token to its link with the effective status, and
// lists which offered slots are still bookable.  Expiry is evaluated
// here, not by a background job.
func (s *LinkService) Status(ctx context.Context, token string) (LinkView, error) {
	l, err := s.byToken(ctx, token)
	if err != nil {
		return LinkView{}, err
	}
	l.Status = l.EffectiveStatus(s.now())
	view := LinkView{Link: l, Available: model.OfferedSlots{}}
	if l.Status != model.LinkActive {
		return view, nil
	}
	redeemed, err := s.store.RedeemedSlots(ctx, l.ID)
	if err != nil {
		return LinkView{}, fmt.Errorf("load redemptions: %w", err)
	}
	stale, err := s.staleSlots(ctx, l.ResourceID, l.From, l.To, l.Slots, l.DurationMin)
	if err != nil {
		return LinkView{}, err
	}
	taken := make(map[model.SlotRef]bool, len(redeemed)+len(stale))
	for _, r := range redeemed {
		taken[r] = true
	}
	for _, r := range stale {
		taken[r] = true
	}
	for d, starts := range l.Slots {
		for _, t := range starts {
			if !taken[model.SlotRef{Date: d, Start: t}] {
				view.Available[d] = append(view.Available[d], t)
			}
		}
	}
	return view, nil
}

// Redeem books slot for an anonymous customer.  The link must exist, be
// active and unexpired, and offer slot.  Under the slot lock the slot is
// re-checked against current appointments, a pending appointment is
// inserted and the link is consumed in the same transaction; if the slot
// was taken meanwhile nothing is written and the link stays active.
func (s *LinkService) Redeem(ctx context.Context, token string, slot model.SlotRef, customer model.CustomerInfo) (model.Appointment, error) {
	l, err := s.byToken(ctx, token)
	if err != nil {
		return model.Appointment{}, err
	}
	switch l.EffectiveStatus(s.now()) {
	case model.LinkExpired:
		return model.Appointment{}, ErrLinkExpired
	case model.LinkUsed:
		return model.Appointment{}, ErrLinkAlreadyUsed
	}
	v := &ValidationError{}
	if !l.Slots.Contains(slot.Date, slot.Start) {
		v.add("slot", "not offered by this link")
	}
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	if customer.Name == "" {
		v.add("name", "is required")
	}
	if customer.Phone == "" {
		v.add("phone", "is required")
	}
	if err := v.err(); err != nil {
		return model.Appointment{}, err
	}
	if s.isPast(slot.Date, slot.Start) {
		return model.Appointment{}, conflict(slot)
	}

	avail, err := s.availability(ctx, l.ResourceID, slot.Date, slot.Date)
	if err != nil {
		return model.Appointment{}, err
	}
	windows := avail.Day(slot.Date)
	grid, err := s.slotGrid(windows)
	if err != nil {
		return model.Appointment{}, err
	}
	now := s.now().UTC().Truncate(time.Second)
	linkID := l.ID
	appt := model.Appointment{
		ResourceID:    l.ResourceID,
		Date:          slot.Date,
		Start:         slot.Start,
		End:           slot.Start.Add(l.DurationMin),
		Status:        model.StatusPending,
		ClientID:      l.ClientID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		Modality:      l.Modality,
		LinkID:        &linkID,
		Source:        model.SourceLink,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	policy := s.cfg.LinkPolicy

	err = s.withSlot(ctx, l.ResourceID, slot.Date, func(tx repository.SlotTx) error {
		if policy == LinkPerSlot {
			// Redemptions of one link on different days hold different
			// slot locks; the link row lock orders them.
			if err := tx.ClaimLink(ctx, l.ID, s.now()); err != nil {
				return s.consumeError(l, err)
			}
		}
		existing, err := tx.Appointments(ctx, l.ResourceID, slot.Date)
		if err != nil {
			return err
		}
		busy := schedule.BusyIntervals(existing, l.ResourceID, slot.Date, 0)
		if !grid[slot.Start] || !schedule.FitsWithin(windows, busy, slot.Start, l.DurationMin) {
			return conflict(slot)
		}
		if policy == LinkSingleUse {
			if err := tx.ConsumeLink(ctx, l.ID, s.now()); err != nil {
				return s.consumeError(l, err)
			}
			return tx.InsertAppointment(ctx, &appt)
		}
		return s.redeemPerSlot(ctx, tx, l, slot, &appt)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	s.log.InfoContext(ctx, "link.redeemed",
		slog.Uint64("link_id", l.ID),
		slog.Uint64("appointment_id", appt.ID),
		slog.String("date", slot.Date.String()),
		slog.String("start", slot.Start.String()),
		slog.String("policy", string(policy)))
	s.publish(ctx, queue.EventRedeemed, appt)
	return appt, nil
}

// redeemPerSlot records the redemption of one slot and consumes the link
// once every offered slot has been taken.  The caller has claimed the
// link row in tx.
func (s *LinkService) redeemPerSlot(ctx context.Context, tx repository.SlotTx, l model.ReservationLink, slot model.SlotRef, appt *model.Appointment) error {
	if err := tx.InsertAppointment(ctx, appt); err != nil {
		return err
	}
	if err := tx.RecordRedemption(ctx, l.ID, slot, appt.ID, s.now()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(slot)
		}
		return err
	}
	redeemed, err := tx.RedeemedSlots(ctx, l.ID)
	if err != nil {
		return err
	}
	if len(redeemed) < l.Slots.Count() {
		return nil
	}
	if err := tx.ConsumeLink(ctx, l.ID, s.now()); err != nil && !errors.Is(err, repository.ErrStale) {
		return err
	}
	return nil
}

// consumeError explains why a link could not be consumed.
func (s *LinkService) consumeError(l model.ReservationLink, err error) error {
	if !errors.Is(err, repository.ErrStale) {
		return err
	}
	if !s.now().Before(l.ExpiresAt) {
		return ErrLinkExpired
	}
	return ErrLinkAlreadyUsed
}

// Delete hard-deletes a link at any stage.  Whoever may manage the
// link's resource may delete it: the tenant owner or the resource's own
// staff member.
func (s *LinkService) Delete(ctx context.Context, p model.Principal, id uint64) error {
	l, err := s.link(ctx, id)
	if err != nil {
		return err
	}
	r, err := s.resource(ctx, l.ResourceID)
	if err != nil {
		return err
	}
	if !p.CanManage(r) {
		return ErrNotAuthorized
	}
	if err := s.store.DeleteLink(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("link %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete link: %w", err)
	}
	s.log.InfoContext(ctx, "link.deleted", slog.Uint64("link_id", id), slog.Uint64("by_user", p.UserID))
	return nil
}

// Get returns one link with its effective status.
func (s *LinkService) Get(ctx context.Context, p model.Principal, id uint64) (model.ReservationLink, error) {
	l, err := s.link(ctx, id)
	if err != nil {
		return model.ReservationLink{}, err
	}
	if _, err := s.authorizeView(ctx, p, l.ResourceID); err != nil {
		return model.ReservationLink{}, err
	}
	l.Status = l.EffectiveStatus(s.now())
	return l, nil
}

// List returns the links of a resource with effective statuses.
func (s *LinkService) List(ctx context.Context, p model.Principal, resourceID uint64) ([]model.ReservationLink, error) {
	if _, err := s.authorizeView(ctx, p, resourceID); err != nil {
		return nil, err
	}
	links, err := s.store.LinksByResource(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	now := s.now()
	for i := range links {
		links[i].Status = links[i].EffectiveStatus(now)
	}
	return links, nil
}

// SweepExpired persists the expired status for links past their expiry.
// It is housekeeping only; reads evaluate expiry themselves.
func (s *LinkService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.ExpireLinks(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire links: %w", err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "link.sweep.expired", slog.Int64("count", n))
	}
	return n, nil
}

func (s *LinkService) link(ctx context.Context, id uint64) (model.ReservationLink, error) {
	l, err := s.store.LinkByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.ReservationLink{}, fmt.Errorf("link %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.ReservationLink{}, fmt.Errorf("load link: %w", err)
	}
	return l, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
