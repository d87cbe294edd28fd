package ports

import (
	"context"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role // empty defaults to domain.RoleUser
}

// AuthService issues and verifies identity tokens.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Verify(token string) (*domain.Caller, error)
}
