package handler

import (
	"github.com/ecopickup/recycling-tracker/internal/core/domain"
	"github.com/ecopickup/recycling-tracker/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createRequestRequest, idempotencyKey string) ports.CreateRequestInput {
	return ports.CreateRequestInput{
		MaterialType:   req.MaterialType,
		Quantity:       string(req.Quantity),
		PickupAddress:  req.PickupAddress,
		IdempotencyKey: idempotencyKey,
	}
}

func toUpdateUserInput(req updateUserRequest) ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	}
}

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}

func toUserListResponse(users []*domain.User) []userResponse {
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

func toRequestResponse(r *domain.PickupRequest) pickupRequestResponse {
	return pickupRequestResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		UserName:      r.UserName,
		MaterialType:  string(r.MaterialType),
		Quantity:      r.Quantity,
		PickupAddress: r.PickupAddress,
		Status:        string(r.Status),
		UpdatedBy:     r.UpdatedBy,
		UpdatedByName: r.UpdatedByName,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func toRequestListResponse(items []*domain.PickupRequest) []pickupRequestResponse {
	out := make([]pickupRequestResponse, len(items))
	for i, r := range items {
		out[i] = toRequestResponse(r)
	}
	return out
}
