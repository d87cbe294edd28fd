package ports

import (
	"context"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
)

// CreateRequestInput carries the data for a new pickup request.
type CreateRequestInput struct {
	MaterialType  string
	Quantity      string
	PickupAddress string
	// IdempotencyKey is optional; a repeated key returns the original request.
	IdempotencyKey string
}

// CreateRequestResult is returned by Create.
type CreateRequestResult struct {
	Request *domain.PickupRequest
	// Replayed is true when the idempotency key matched an earlier request.
	Replayed bool
}

// ListRequestsInput carries the optional list filters as received.
type ListRequestsInput struct {
	UserID string
	Status string
}

// RequestService defines the pickup request lifecycle. A nil caller means
// the request arrived without authentication.
type RequestService interface {
	Create(ctx context.Context, caller *domain.Caller, input CreateRequestInput) (*CreateRequestResult, error)
	List(ctx context.Context, caller *domain.Caller, input ListRequestsInput) ([]*domain.PickupRequest, error)
	UpdateStatus(ctx context.Context, caller *domain.Caller, id, status string) (*domain.PickupRequest, error)
	Delete(ctx context.Context, caller *domain.Caller, id string) error
}
