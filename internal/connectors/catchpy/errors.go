package catchpy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

// FetchError reports a failed search request. It matches domain.ErrFetch and
// wraps the underlying cause when there is one.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("catchpy: %s: HTTP %d: %s (URL: %s)", e.Op, e.StatusCode, e.Message, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("catchpy: %s: %v (URL: %s)", e.Op, e.Err, e.URL)
	default:
		return fmt.Sprintf("catchpy: %s: %s (URL: %s)", e.Op, e.Message, e.URL)
	}
}

// Unwrap exposes domain.ErrFetch, domain.ErrAuthInvalid for rejected
// credentials, and the cause.
func (e *FetchError) Unwrap() []error {
	errs := []error{domain.ErrFetch}
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		errs = append(errs, domain.ErrAuthInvalid)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsUnauthorized checks if the error indicates rejected credentials.
func IsUnauthorized(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode == http.StatusUnauthorized || fe.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound checks if the error indicates a missing endpoint.
func IsNotFound(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode == http.StatusNotFound
	}
	return false
}
