package driven

import (
	"context"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

// CheckpointStore persists pull progress.
type CheckpointStore interface {
	// Save stores or updates the checkpoint for a context.
	Save(ctx context.Context, cp domain.Checkpoint) error

	// Get retrieves the checkpoint for a context.
	// Returns domain.ErrNotFound when none was saved.
	Get(ctx context.Context, contextID string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a context.
	Delete(ctx context.Context, contextID string) error
}
