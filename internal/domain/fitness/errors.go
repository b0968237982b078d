package fitness

import "fmt"

// ValidationError reports a missing or out-of-range input. Actions that fail
// validation never reach the network or the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Invalid builds a ValidationError for callers outside this package.
func Invalid(field, reason string) error {
	return invalid(field, reason)
}
