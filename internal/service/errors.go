package service

import (
	"errors"
	"fmt"
)

// ErrAccountsUnavailable indicates the accounts database was not reachable at
// startup, so actor resolution is degraded rather than broken.
var ErrAccountsUnavailable = errors.New("accounts store unavailable")

// ValidationError reports malformed input, rejected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
