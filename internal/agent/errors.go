package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPrerequisite is returned when a step runs before the step it depends on
	ErrMissingPrerequisite = errors.New("missing prerequisite")

	// ErrNotConfigured is returned when a workflow needs a provider that was not set up
	ErrNotConfigured = errors.New("provider not configured")

	// ErrNotificationFailed marks a locally saved record whose notification email failed
	ErrNotificationFailed = errors.New("notification failed")
)

// ValidationError describes unusable user input. No external call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func missing(item string) error {
	return fmt.Errorf("%w: %s", ErrMissingPrerequisite, item)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
