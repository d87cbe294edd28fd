package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
	"github.com/ecopickup/recycling-tracker/internal/core/service"
)

// RequireRole rejects callers whose token does not carry role. It must run
// after Auth.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := service.RequireRole(CallerFrom(c), role); err != nil {
				return err
			}
			return next(c)
		}
	}
}
