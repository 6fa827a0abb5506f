package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
type CheckpointStore struct {
	mu     sync.RWMutex
	states map[string]domain.Checkpoint
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		states: make(map[string]domain.Checkpoint),
	}
}

// Save stores or updates the checkpoint for a context.
func (s *CheckpointStore) Save(_ context.Context, cp domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[cp.ContextID] = cp
	return nil
}

// Get retrieves the checkpoint for a context.
func (s *CheckpointStore) Get(_ context.Context, contextID string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.states[contextID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cp, nil
}

// Delete removes the checkpoint for a context.
func (s *CheckpointStore) Delete(_ context.Context, contextID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, contextID)
	return nil
}
