package accounts

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStore wraps backing-store failures that are neither NotFound nor
	// DuplicateEmail. Callers map it to 5xx and log it.
	ErrStore = errors.New("store error")
)

// ValidationError names the input fields that were missing or malformed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}
