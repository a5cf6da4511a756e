package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a job or user does not exist or is owned
	// by another user. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrAdmissionDenied is returned when the per-owner concurrency limit is
	// reached.
	ErrAdmissionDenied = errors.New("admission denied")
	// ErrStoreUnavailable wraps failures to reach the underlying storage.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError rejects a submission before a job is created.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a submission validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
