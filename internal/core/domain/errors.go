package domain

import "errors"

// Error kinds. Every error returned by the services wraps exactly one of
// these so the transport layer can map it to a status code.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrInvalidCredentials = NewError(ErrValidation, "Invalid credentials")
	ErrMissingToken       = NewError(ErrUnauthorized, "No token")
	ErrInvalidToken       = NewError(ErrUnauthorized, "Invalid token")
	ErrAdminOnly          = NewError(ErrForbidden, "Admin only")
	ErrNotOwner           = NewError(ErrForbidden, "Only the owner or an admin may delete this request")

	ErrUserNotFound    = NewError(ErrNotFound, "User not found")
	ErrRequestNotFound = NewError(ErrNotFound, "Request not found")

	ErrEmailTaken         = NewError(ErrValidation, "email already registered")
	ErrInvalidMaterial    = NewError(ErrValidation, "invalid material type")
	ErrInvalidStatus      = NewError(ErrValidation, "invalid status")
	ErrInvalidRole        = NewError(ErrValidation, "invalid role")
	ErrInvalidTransition  = NewError(ErrValidation, "invalid status transition")
	ErrAdminSignupBlocked = NewError(ErrValidation, "admin accounts cannot be self-registered")

	ErrSubmissionInFlight = NewError(ErrConflict, "a request with this Idempotency-Key is still being processed")
)

// kindError carries a client-facing message and unwraps to its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// NewError returns an error with the given message that satisfies
// errors.Is(err, kind).
func NewError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Validation is shorthand for a one-off ErrValidation with a custom message.
func Validation(msg string) error {
	return NewError(ErrValidation, msg)
}
