package driven

import "github.com/custodia-labs/annomigrate/internal/core/domain"

// Normaliser converts legacy records into canonical form.
type Normaliser interface {
	// Precheck rejects records whose shape does not match the corpus.
	// Returns *domain.StructuralRejection.
	Precheck(record *domain.LegacyAnnotation) error

	// Normalise converts one record. The input is not modified.
	// Returns *domain.NormalizationError on structural failure.
	Normalise(record *domain.LegacyAnnotation) (*domain.CanonicalAnnotation, error)

	// NormaliseBatch routes every record to exactly one bucket and never fails.
	NormaliseBatch(records []domain.LegacyAnnotation) *domain.BatchResult

	// Denormalise maps a canonical record back to the legacy shape the
	// destination serves, for comparison against the source.
	Denormalise(record *domain.CanonicalAnnotation) domain.LegacyAnnotation
}
