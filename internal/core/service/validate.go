package service

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by all services; validator.Validate is safe for
// concurrent use once built.
var validate = validator.New()

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
