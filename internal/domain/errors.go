package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the storage and auth layers. Handlers translate these
// to HTTP statuses with errors.Is.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrRoomNumberTaken  = errors.New("room number already exists")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrVersionConflict  = errors.New("room was modified concurrently")
)

// ValidationError reports a rejected request field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for a field
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
