package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("invalid input")
	ErrDuplicateAccount  = errors.New("account already exists")
	ErrNotFound          = errors.New("not found")
	ErrRoleMismatch      = errors.New("role mismatch")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = fmt.Errorf("%w: file too large", ErrInvalidFile)
	ErrMissingFile       = errors.New("no file uploaded")
	ErrInvalidOrExpired  = errors.New("invalid or expired code")
	ErrDeliveryFailed    = errors.New("email delivery failed")
	ErrStorage           = errors.New("storage failure")
	ErrInvalidStatus     = errors.New("invalid booking status")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
)

// RoleMismatchError reports the role an account was actually registered with.
type RoleMismatchError struct {
	Role Role
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("Please log in via the %s tab.", e.Role)
}

func (e *RoleMismatchError) Unwrap() error { return ErrRoleMismatch }

// Invalid wraps ErrValidation with a field-level reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}
