package model

import (
	"sort"
	"time"
)

// LinkStatus is the stored lifecycle state of a reservation link.
type LinkStatus string

const (
	LinkActive  LinkStatus = "active"
	LinkUsed    LinkStatus = "used"
	LinkExpired LinkStatus = "expired"
)

// OfferedSlots maps each offered date to the ordered start times a
// customer may pick from on that date.
type OfferedSlots map[Date][]TimeOfDay

// Normalize returns a copy with every day sorted, de-duplicated and
// empty days dropped.
func (o OfferedSlots) Normalize() OfferedSlots {
	out := make(OfferedSlots, len(o))
	for d, starts := range o {
		if len(starts) == 0 {
			continue
		}
		cp := append([]TimeOfDay(nil), starts...)
		sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
		uniq := cp[:1]
		for _, t := range cp[1:] {
			if t != uniq[len(uniq)-1] {
				uniq = append(uniq, t)
			}
		}
		out[d] = uniq
	}
	return out
}

// Contains reports whether (d, start) is one of the offered slots.
func (o OfferedSlots) Contains(d Date, start TimeOfDay) bool {
	for _, t := range o[d] {
		if t == start {
			return true
		}
	}
	return false
}

// Count returns the total number of offered slots.
func (o OfferedSlots) Count() int {
	n := 0
	for _, starts := range o {
		n += len(starts)
	}
	return n
}

// Dates returns the offered dates in ascending order.
func (o OfferedSlots) Dates() []Date {
	dates := make([]Date, 0, len(o))
	for d := range o {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// SlotRef identifies one offered slot.
type SlotRef struct {
	Date  Date      `json:"date"`
	Start TimeOfDay `json:"start"`
}

// CustomerInfo is what an anonymous customer provides on redemption.
type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// ReservationLink is a token-gated, time-boxed, slot-constrained public
// booking offer created by staff.  Only the SHA-256 digest of the token
// is stored; the raw token is handed out once at creation.
//
// Fields:
//  ID          – primary key identifier.
//  TokenHash   – hex SHA-256 of the raw token, unique.
//  ResourceID  – resource the customer will be booked with.
//  ClientID    – client the link was issued to, if any.
//  From/To     – inclusive date range of the offer.
//  Modality    – modality of the resulting appointment.
//  ServiceIDs  – services the appointment will cover.
//  DurationMin – length of the resulting appointment.
//  Slots       – offered start times per date.
//  ExpiresAt   – instant after which the link can no longer be redeemed.
//  Status      – stored status; see EffectiveStatus.
//  Message     – optional custom text shown to the customer.
type ReservationLink struct {
	ID          uint64       `json:"id"`                  // reservation_links.id
	TokenHash   string       `json:"-"`                   // reservation_links.token_hash
	ResourceID  uint64       `json:"resource_id"`         // reservation_links.resource_id
	ClientID    *uint64      `json:"client_id,omitempty"` // reservation_links.client_id (nullable)
	From        Date         `json:"from"`                // reservation_links.date_from
	To          Date         `json:"to"`                  // reservation_links.date_to
	Modality    Modality     `json:"modality"`            // reservation_links.modality
	ServiceIDs  []uint64     `json:"service_ids"`         // reservation_links.service_ids (JSON)
	DurationMin int          `json:"duration_min"`        // reservation_links.duration_min
	Slots       OfferedSlots `json:"slots"`               // reservation_links.offered_slots (JSON)
	ExpiresAt   time.Time    `json:"expires_at"`          // reservation_links.expires_at
	Status      LinkStatus   `json:"status"`              // reservation_links.status
	Message     *string      `json:"message,omitempty"`   // reservation_links.message (nullable)
	CreatedAt   time.Time    `json:"created_at"`          // reservation_links.created_at
	UsedAt      *time.Time   `json:"used_at,omitempty"`   // reservation_links.used_at (nullable)
}

// EffectiveStatus evaluates expiry lazily: an active link whose
// ExpiresAt has been reached reports expired even though the stored
// status has not been updated.
func (l ReservationLink) EffectiveStatus(now time.Time) LinkStatus {
	if l.Status == LinkActive && !now.Before(l.ExpiresAt) {
		return LinkExpired
	}
	return l.Status
}
