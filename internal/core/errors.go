package core

import (
	"errors"
	"fmt"
)

// Error classes. Callers test them with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("data could not be saved")
	ErrAuthFailed  = errors.New("authentication failed")
	ErrForbidden   = errors.New("operation not allowed")
)

var (
	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)

	ErrCondominiumNotFound = fmt.Errorf("condominium %w", ErrNotFound)
	ErrMovementNotFound    = fmt.Errorf("movement %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
)

// ValidationError reports malformed or missing input. Reason is meant to be
// shown to the user verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

var (
	ErrInvalidKind          = invalid("kind", `kind must be "income" or "expense"`)
	ErrEmptyCategory        = invalid("category", "category is required")
	ErrEmptyDescription     = invalid("description", "description is required")
	ErrInvalidAmount        = invalid("amount", "amount must be a positive number")
	ErrAmountTooLarge       = invalid("amount", "amount must be at most 100000000000.00")
	ErrInvalidDate          = invalid("date", "invalid date, use the YYYY-MM-DD format")
	ErrInvalidCondominiumID = invalid("condominiumId", "condominium id is required")
	ErrEmptyEmail           = invalid("email", "email is required")
	ErrInvalidEmail         = invalid("email", "invalid email")
	ErrShortPassword        = invalid("password", "password must have at least 4 characters")
	ErrLongPassword         = invalid("password", "password must have at most 72 bytes")
	ErrEmptyName            = invalid("name", "condominium name is required")
	ErrInvalidOwnerID       = invalid("ownerUserId", "owner user id is required")
)
