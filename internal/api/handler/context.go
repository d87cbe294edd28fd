package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/ecopickup/recycling-tracker/internal/api/middleware"
	"github.com/ecopickup/recycling-tracker/internal/core/domain"
)

// bindAndValidate decodes the body into req and runs the struct tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Validation("invalid payload")
	}
	return c.Validate(req)
}

// ctxCaller returns the identity injected by the Auth middleware, or nil
// on routes mounted without it.
func ctxCaller(c echo.Context) *domain.Caller {
	return middleware.CallerFrom(c)
}
