package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
	"github.com/ecopickup/recycling-tracker/internal/core/ports"
)

// RequestPolicy collects the switches that distinguish the authenticated
// and open deployments, plus the two configurable lifecycle rules.
type RequestPolicy struct {
	RequireAuth bool
	Transitions domain.TransitionPolicy
	Deletion    domain.DeletePolicy
}

// RequestService implements the pickup request lifecycle.
type RequestService struct {
	repo   ports.RequestRepository
	idem   ports.IdempotencyStore
	policy RequestPolicy
	logger zerolog.Logger
	now    func() time.Time
}

// NewRequestService builds a RequestService. idem may be nil, in which case
// idempotency keys are ignored.
func NewRequestService(repo ports.RequestRepository, idem ports.IdempotencyStore, policy RequestPolicy, logger zerolog.Logger) *RequestService {
	if policy.Transitions == "" {
		policy.Transitions = domain.TransitionAny
	}
	if policy.Deletion == "" {
		policy.Deletion = domain.DeleteAny
	}
	return &RequestService{
		repo:   repo,
		idem:   idem,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Create validates and stores a new pending request. No duplicate detection
// is done unless an authenticated caller supplies an idempotency key.
func (s *RequestService) Create(ctx context.Context, caller *domain.Caller, in ports.CreateRequestInput) (*ports.CreateRequestResult, error) {
	if err := s.authenticated(caller); err != nil {
		return nil, err
	}

	material := domain.MaterialType(in.MaterialType)
	switch {
	case in.MaterialType == "":
		return nil, domain.Validation("materialType is required")
	case !material.Valid():
		return nil, domain.Validation(fmt.Sprintf("%s: %q", domain.ErrInvalidMaterial, in.MaterialType))
	case blank(in.Quantity):
		return nil, domain.Validation("quantity is required")
	case blank(in.PickupAddress):
		return nil, domain.Validation("pickupAddress is required")
	}

	claimed, replay, err := s.claim(ctx, caller, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return &ports.CreateRequestResult{Request: replay, Replayed: true}, nil
	}

	// Mongo keeps millisecond precision; truncating keeps the response equal
	// to what a later read returns.
	now := s.now().UTC().Truncate(time.Millisecond)
	req := &domain.PickupRequest{
		MaterialType:  material,
		Quantity:      in.Quantity,
		PickupAddress: in.PickupAddress,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if caller != nil {
		req.UserID = caller.ID
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error().Err(err).Msg("failed to create pickup request")
		if claimed {
			if relErr := s.idem.Release(ctx, caller.ID, in.IdempotencyKey); relErr != nil {
				s.logger.Warn().Err(relErr).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if claimed {
		if err := s.idem.Complete(ctx, caller.ID, in.IdempotencyKey, req.ID); err != nil {
			s.logger.Warn().Err(err).Str("request_id", req.ID).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("user_id", req.UserID).
		Str("material", string(req.MaterialType)).
		Msg("pickup request created")

	return &ports.CreateRequestResult{Request: req}, nil
}

// List returns every request matching the filter, newest first. Any
// authenticated caller may list any user's requests.
func (s *RequestService) List(ctx context.Context, caller *domain.Caller, in ports.ListRequestsInput) ([]*domain.PickupRequest, error) {
	if err := s.authenticated(caller); err != nil {
		return nil, err
	}

	status := domain.RequestStatus(in.Status)
	if in.Status != "" && !status.Valid() {
		return nil, domain.Validation(fmt.Sprintf("%s: %q", domain.ErrInvalidStatus, in.Status))
	}

	requests, err := s.repo.List(ctx, ports.ListRequestsFilter{
		UserID:    in.UserID,
		Status:    status,
		WithNames: s.policy.RequireAuth,
	})
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*domain.PickupRequest{}
	}
	return requests, nil
}

// UpdateStatus sets a new status on an existing request. When auth is
// required only admins may call it, and the caller is stamped as updater.
func (s *RequestService) UpdateStatus(ctx context.Context, caller *domain.Caller, id, status string) (*domain.PickupRequest, error) {
	if s.policy.RequireAuth {
		if err := RequireRole(caller, domain.RoleAdmin); err != nil {
			return nil, err
		}
	}

	next := domain.RequestStatus(status)
	if !next.Valid() {
		return nil, domain.Validation(fmt.Sprintf("%s: %q", domain.ErrInvalidStatus, status))
	}

	current, err := s.repo.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if s.policy.Transitions == domain.TransitionForward && !current.Status.CanAdvanceTo(next) {
		return nil, domain.Validation(fmt.Sprintf("%s from %s to %s", domain.ErrInvalidTransition, current.Status, next))
	}

	change := ports.StatusChange{
		Status:    next,
		UpdatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if s.policy.Transitions == domain.TransitionForward {
		change.From = domain.AdvanceSources(next)
	}
	if change.UpdatedAt.Before(current.CreatedAt) {
		change.UpdatedAt = current.CreatedAt
	}
	if s.policy.RequireAuth && caller != nil {
		change.UpdatedBy = caller.ID
	}

	if err := s.repo.UpdateStatus(ctx, id, change); err != nil {
		if len(change.From) > 0 && errors.Is(err, domain.ErrRequestNotFound) {
			// Either deleted or moved past next since it was read.
			if moved, getErr := s.repo.Get(ctx, id, false); getErr == nil {
				return nil, domain.Validation(fmt.Sprintf("%s from %s to %s", domain.ErrInvalidTransition, moved.Status, next))
			}
		}
		return nil, err
	}

	s.logger.Info().
		Str("request_id", id).
		Str("from", string(current.Status)).
		Str("to", string(next)).
		Str("updated_by", change.UpdatedBy).
		Msg("pickup request status updated")

	return s.repo.Get(ctx, id, s.policy.RequireAuth)
}

// Delete removes a request. Under DeleteOwnerOrAdmin a non-admin caller may
// only delete their own requests.
func (s *RequestService) Delete(ctx context.Context, caller *domain.Caller, id string) error {
	if err := s.authenticated(caller); err != nil {
		return err
	}

	if s.policy.Deletion == domain.DeleteOwnerOrAdmin && caller != nil && !caller.IsAdmin() {
		current, err := s.repo.Get(ctx, id, false)
		if err != nil {
			return err
		}
		if current.UserID != caller.ID {
			return domain.ErrNotOwner
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	callerID := ""
	if caller != nil {
		callerID = caller.ID
	}
	s.logger.Info().Str("request_id", id).Str("deleted_by", callerID).Msg("pickup request deleted")
	return nil
}

func (s *RequestService) authenticated(caller *domain.Caller) error {
	if s.policy.RequireAuth && caller == nil {
		return domain.ErrMissingToken
	}
	return nil
}

// claim reserves the caller's idempotency key before anything is inserted.
// It reports whether this call owns the key, or returns the request a
// finished earlier call created. Keys are ignored for anonymous callers and
// when the store is unset or unavailable.
func (s *RequestService) claim(ctx context.Context, caller *domain.Caller, key string) (bool, *domain.PickupRequest, error) {
	if key == "" || caller == nil || s.idem == nil {
		return false, nil, nil
	}

	claimed, id, err := s.idem.Claim(ctx, caller.ID, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("idempotency claim failed, creating anyway")
		return false, nil, nil
	}
	if claimed {
		return true, nil, nil
	}
	if id == "" {
		return false, nil, domain.ErrSubmissionInFlight
	}

	existing, err := s.repo.Get(ctx, id, false)
	if err != nil {
		if !errors.Is(err, domain.ErrRequestNotFound) {
			s.logger.Warn().Err(err).Str("request_id", id).Msg("idempotent replay lookup failed")
		}
		// The earlier request is gone; this call takes the key over.
		return true, nil, nil
	}

	s.logger.Info().Str("idempotency_key", key).Str("request_id", id).Msg("idempotent replay")
	return false, existing, nil
}
