package ports

import (
	"context"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
)

// UpdateUserInput carries an admin's partial user update.
type UpdateUserInput struct {
	Name  *string
	Email *string
	Role  *string
}

// UserService covers admin-only account management.
type UserService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}
