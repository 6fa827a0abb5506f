package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates the migration configuration is incomplete or inconsistent.
	ErrInvalidConfig = errors.New("invalid configuration")

	// Fetch Errors.

	// ErrFetch marks any failure talking to the search service: transport errors,
	// timeouts, non-2xx responses and malformed bodies. Callers resume by re-running
	// from the last recorded offset.
	ErrFetch = errors.New("fetch failed")

	// ErrPageCeiling indicates the search service kept returning non-empty pages
	// past the configured page limit. The pull is aborted rather than truncated.
	ErrPageCeiling = errors.New("page ceiling reached")

	// Authentication Errors.

	// ErrAuthRequired indicates credentials were not supplied.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the credentials or override were rejected.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Output Errors.

	// ErrOutputConflict indicates the output location already exists and reuse
	// was not requested. Raised before any network activity.
	ErrOutputConflict = errors.New("output location already exists")

	// Record Errors.

	// ErrNormalization is wrapped by every NormalizationError.
	ErrNormalization = errors.New("normalization failed")

	// ErrStructuralRejection is wrapped by every StructuralRejection.
	ErrStructuralRejection = errors.New("structural rejection")

	// ErrParentMissing indicates a reply references a parent that is not available.
	ErrParentMissing = errors.New("parent annotation missing")
)

// NormalizationError reports a record that passed the shape pre-check but could
// not be converted to canonical form.
type NormalizationError struct {
	ID     ID
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.ID, e.Reason)
}

// Unwrap allows errors.Is(err, ErrNormalization).
func (e *NormalizationError) Unwrap() error {
	return ErrNormalization
}

// StructuralRejection reports a record whose shape does not match the corpus,
// for example a missing media discriminator or a member of the wrong type.
// Reason is empty when the field is simply missing.
type StructuralRejection struct {
	ID     ID
	Field  string
	Reason string
}

func (e *StructuralRejection) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("reject %s: %s: %s", e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("reject %s: missing %s", e.ID, e.Field)
}

// Unwrap allows errors.Is(err, ErrStructuralRejection).
func (e *StructuralRejection) Unwrap() error {
	return ErrStructuralRejection
}

// IsNormalizationError reports whether err is a per-record normalization failure.
func IsNormalizationError(err error) bool {
	var ne *NormalizationError
	return errors.As(err, &ne)
}

// IsStructuralRejection reports whether err is a per-record shape rejection.
func IsStructuralRejection(err error) bool {
	var sr *StructuralRejection
	return errors.As(err, &sr)
}
