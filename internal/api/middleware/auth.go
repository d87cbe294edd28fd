package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
)

const callerKey = "caller"

// TokenVerifier turns a bearer token into a caller identity.
type TokenVerifier interface {
	Verify(token string) (*domain.Caller, error)
}

// Auth validates the bearer token and stores the caller on the context.
// Failures are returned as domain errors for the central error handler.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.ErrMissingToken
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return domain.ErrInvalidToken
			}
			token := strings.TrimSpace(parts[1])
			if token == "" {
				return domain.ErrMissingToken
			}

			caller, err := verifier.Verify(token)
			if err != nil {
				return err
			}

			SetCaller(c, caller)
			return next(c)
		}
	}
}

// SetCaller attaches a verified identity to the request context.
func SetCaller(c echo.Context, caller *domain.Caller) {
	c.Set(callerKey, caller)
}

// CallerFrom returns the identity set by Auth, or nil when the route is
// not authenticated.
func CallerFrom(c echo.Context) *domain.Caller {
	caller, _ := c.Get(callerKey).(*domain.Caller)
	return caller
}
