package driven

import (
	"context"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

// AnnotationStore is the destination for canonical annotations.
type AnnotationStore interface {
	// Import writes records in the given order. The override must grant
	// domain.OverrideCanImport or the call fails with domain.ErrAuthInvalid.
	// Per-record failures are collected in the result, not returned as errors.
	Import(ctx context.Context, records []domain.CanonicalAnnotation, override domain.ImportOverride) (*domain.ImportResult, error)

	// DeleteByContext removes every stored annotation in a context one at a time.
	DeleteByContext(ctx context.Context, contextID string) (*domain.DeleteResult, error)

	// List returns stored annotations for a context in import order.
	// An empty contextID lists everything.
	List(ctx context.Context, contextID string) ([]domain.CanonicalAnnotation, error)
}
