package domain

import "fmt"

// OrphanPolicy decides what happens to a reply whose parent is not in the batch.
type OrphanPolicy string

const (
	// OrphanKeep emits the reply at its identifier position, assuming the
	// parent already exists at the destination.
	OrphanKeep OrphanPolicy = "keep"

	// OrphanSeparate moves the reply to OrderResult.Orphans.
	OrphanSeparate OrphanPolicy = "separate"
)

// ParseOrphanPolicy converts a flag value into an OrphanPolicy.
// An empty string selects OrphanKeep.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch OrphanPolicy(s) {
	case "", OrphanKeep:
		return OrphanKeep, nil
	case OrphanSeparate:
		return OrphanSeparate, nil
	default:
		return "", fmt.Errorf("%w: orphan policy %q", ErrInvalidInput, s)
	}
}

// OrderResult is the output of the dependency sorter.
type OrderResult struct {
	// Ordered is safe to import left to right.
	Ordered []CanonicalAnnotation

	// Orphans holds replies with no parent in the batch (OrphanSeparate only).
	Orphans []CanonicalAnnotation

	// Cycles lists identifiers caught in reply cycles, or replying into one.
	// They are still emitted in Ordered, after everything else.
	Cycles []ID
}
