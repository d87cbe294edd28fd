package ports

import (
	"context"
	"time"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
)

// ListRequestsFilter carries the optional list filters. Empty fields are
// ignored; set fields are combined with AND.
type ListRequestsFilter struct {
	UserID string
	Status domain.RequestStatus
	// WithNames joins the owner and updater display names.
	WithNames bool
}

// StatusChange describes a status update applied to a single request.
type StatusChange struct {
	Status    domain.RequestStatus
	UpdatedBy string // empty when the caller is anonymous
	UpdatedAt time.Time
	// From, when set, restricts the update to requests currently in one of
	// these statuses.
	From []domain.RequestStatus
}

// RequestRepository defines persistence operations for pickup requests.
type RequestRepository interface {
	Create(ctx context.Context, r *domain.PickupRequest) error
	// Get returns a single request, or domain.ErrRequestNotFound.
	Get(ctx context.Context, id string, withNames bool) (*domain.PickupRequest, error)
	// List returns every match ordered by creation time, newest first.
	List(ctx context.Context, filter ListRequestsFilter) ([]*domain.PickupRequest, error)
	// UpdateStatus applies change and returns domain.ErrRequestNotFound if
	// id does not resolve or its status is not in change.From.
	UpdateStatus(ctx context.Context, id string, change StatusChange) error
	Delete(ctx context.Context, id string) error
}

// IdempotencyStore remembers which request a client-supplied key created.
type IdempotencyStore interface {
	// Claim reserves key. When it is already taken, requestID is the stored
	// request id, or "" while the owning call is still in flight.
	Claim(ctx context.Context, scope, key string) (claimed bool, requestID string, err error)
	// Complete points a claimed key at the request it produced.
	Complete(ctx context.Context, scope, key, requestID string) error
	// Release drops a claim whose insert failed.
	Release(ctx context.Context, scope, key string) error
}
