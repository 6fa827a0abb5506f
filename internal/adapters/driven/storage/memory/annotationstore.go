package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
)

// Ensure AnnotationStore implements the interface.
var _ driven.AnnotationStore = (*AnnotationStore)(nil)

// AnnotationStore is an in-memory implementation of driven.AnnotationStore.
// It keeps import order so List mirrors what was written.
type AnnotationStore struct {
	mu      sync.RWMutex
	records map[string]domain.CanonicalAnnotation
	order   []string

	// failDelete makes DeleteByContext report these ids as failures.
	failDelete map[string]struct{}
}

// NewAnnotationStore creates a new in-memory annotation store.
func NewAnnotationStore() *AnnotationStore {
	return &AnnotationStore{
		records:    make(map[string]domain.CanonicalAnnotation),
		failDelete: make(map[string]struct{}),
	}
}

// Import writes records in order. A reply whose parent has not been written
// yet, by this call or an earlier one, is refused.
func (s *AnnotationStore) Import(
	ctx context.Context,
	records []domain.CanonicalAnnotation,
	override domain.ImportOverride,
) (*domain.ImportResult, error) {
	if !override.Allows(domain.OverrideCanImport) {
		return nil, domain.ErrAuthInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := &domain.ImportResult{}
	for i := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rec := records[i]
		key := rec.ID.Key()
		if _, exists := s.records[key]; exists {
			result.Failed = append(result.Failed, domain.ImportFailure{Record: rec, Reason: domain.ReasonExists})
			continue
		}
		if parent, ok := rec.ReplyTo(); ok {
			if _, found := s.records[parent.Key()]; !found {
				result.Failed = append(result.Failed, domain.ImportFailure{Record: rec, Reason: domain.ReasonParentMissing})
				continue
			}
		}
		s.records[key] = rec
		s.order = append(s.order, key)
		result.Imported = append(result.Imported, rec.ID)
	}
	return result, nil
}

// DeleteByContext removes every annotation in a context, replies first so no
// parent is removed while a child still points at it.
func (s *AnnotationStore) DeleteByContext(ctx context.Context, contextID string) (*domain.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &domain.DeleteResult{}
	for i := len(s.order) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key := s.order[i]
		rec := s.records[key]
		if rec.Platform.ContextID != contextID {
			continue
		}
		if _, fail := s.failDelete[key]; fail {
			result.Failed = append(result.Failed, domain.DeleteFailure{ID: rec.ID, Reason: domain.ReasonNotFound})
			continue
		}
		delete(s.records, key)
		s.order = append(s.order[:i], s.order[i+1:]...)
		result.Deleted++
	}
	return result, nil
}

// List returns stored annotations in import order.
func (s *AnnotationStore) List(_ context.Context, contextID string) ([]domain.CanonicalAnnotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CanonicalAnnotation, 0, len(s.order))
	for _, key := range s.order {
		rec := s.records[key]
		if contextID != "" && rec.Platform.ContextID != contextID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Len returns the number of stored annotations.
func (s *AnnotationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// FailDeleteOf makes later deletions of id fail. Used to exercise the
// fail_to_delete artifact.
func (s *AnnotationStore) FailDeleteOf(id domain.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete[id.Key()] = struct{}{}
}
