package service

import "github.com/ecopickup/recycling-tracker/internal/core/domain"

// RequireRole fails with a forbidden error unless caller holds role.
// A nil caller is treated as unauthenticated.
func RequireRole(caller *domain.Caller, role domain.Role) error {
	if caller == nil {
		return domain.ErrMissingToken
	}
	if caller.Role != role {
		if role == domain.RoleAdmin {
			return domain.ErrAdminOnly
		}
		return domain.NewError(domain.ErrForbidden, "requires role "+string(role))
	}
	return nil
}
