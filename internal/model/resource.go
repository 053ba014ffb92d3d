package model

import "time"

// ResourceKind distinguishes people from rooms and other physical spaces.
type ResourceKind string

const (
	ResourceProfessional ResourceKind = "professional"
	ResourceSpace        ResourceKind = "space"
)

// Resource is a bookable professional or physical space belonging to a
// tenant (the business).  Resources are created by signup and staff
// onboarding outside of this service and are read-only here.
//
// Fields:
//  ID        – primary key identifier.
//  TenantID  – business that owns the resource.
//  UserID    – login of the person behind the resource (nil for spaces).
//  Name      – display name.
//  Kind      – professional or space.
//  IsOwner   – true when UserID is the tenant owner rather than delegated staff.
//  CreatedAt – creation timestamp.
type Resource struct {
	ID        uint64       `json:"id"`                // resources.id
	TenantID  uint64       `json:"tenant_id"`         // resources.tenant_id
	UserID    *uint64      `json:"user_id,omitempty"` // resources.user_id (nullable)
	Name      string       `json:"name"`              // resources.name
	Kind      ResourceKind `json:"kind"`              // resources.kind
	IsOwner   bool         `json:"is_owner"`          // resources.is_owner
	CreatedAt time.Time    `json:"created_at"`        // resources.created_at
}

// Service is an offering (haircut, consultation, ...) with a fixed
// duration.  Reservation links reference services to size the
// appointment a customer may book.
type Service struct {
	ID          uint64 `json:"id"`           // services.id
	TenantID    uint64 `json:"tenant_id"`    // services.tenant_id
	Name        string `json:"name"`         // services.name
	DurationMin int    `json:"duration_min"` // services.duration_min
}

// Principal is the acting user of a request, resolved once by the
// identity collaborator and passed explicitly to every mutating call.
// Delegated staff act for their own resource only; owners act for every
// resource of their tenant.
type Principal struct {
	UserID     uint64 `json:"user_id"`
	TenantID   uint64 `json:"tenant_id"`
	ResourceID uint64 `json:"resource_id"`
	IsOwner    bool   `json:"is_owner"`
}

// CanView reports whether p may read the schedule of r.  Any member of
// the tenant may look at a colleague's calendar.
func (p Principal) CanView(r Resource) bool {
	return p.TenantID != 0 && p.TenantID == r.TenantID
}

// CanManage reports whether p may mutate the schedule, appointments and
// links of r.
func (p Principal) CanManage(r Resource) bool {
	if p.TenantID == 0 || p.TenantID != r.TenantID {
		return false
	}
	return p.IsOwner || p.ResourceID == r.ID
}
