// Package identity turns an authenticated user ID into the principal
// the booking engine authorizes against.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/repository"
)

// ErrUnknownUser is returned when a user has no resource in any tenant.
var ErrUnknownUser = errors.New("user has no resource")

// ResourceLookup finds the resource a login acts as.
type ResourceLookup interface {
	ResourceByUserID(ctx context.Context, userID uint64) (model.Resource, error)
}

// Resolver resolves principals from the resources table.
type Resolver struct {
	resources ResourceLookup
}

// NewResolver returns a Resolver backed by lookup.
func NewResolver(lookup ResourceLookup) *Resolver { return &Resolver{resources: lookup} }

// Resolve returns the principal for userID.
func (r *Resolver) Resolve(ctx context.Context, userID uint64) (model.Principal, error) {
	res, err := r.resources.ResourceByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Principal{}, ErrUnknownUser
	}
	if err != nil {
		return model.Principal{}, fmt.Errorf("resolve user %d: %w", userID, err)
	}
	return model.Principal{
		UserID:     userID,
		TenantID:   res.TenantID,
		ResourceID: res.ID,
		IsOwner:    res.IsOwner,
	}, nil
}
