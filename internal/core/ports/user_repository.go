package ports

import (
	"context"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
)

// UserChanges carries the optional fields of an admin user update.
// A nil field is left untouched.
type UserChanges struct {
	Name  *string
	Email *string
	Role  *domain.Role
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create inserts the user and returns it with its assigned ID.
	// A duplicate email yields domain.ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Update applies changes and returns the updated user, or domain.ErrUserNotFound.
	Update(ctx context.Context, id string, changes UserChanges) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
