package driven

import (
	"context"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

// SearchClient fetches pages of legacy annotations from the search service.
// Implementations perform no automatic retry; callers resume from the last
// recorded offset.
type SearchClient interface {
	// Size returns the total reported by a one-row request. The total may be
	// approximate and must not be used to end a pull.
	Size(ctx context.Context, filter domain.SearchFilter) (int, error)

	// Page returns up to limit rows starting at offset. It never returns more
	// than limit rows.
	Page(ctx context.Context, filter domain.SearchFilter, offset, limit int) (*domain.Page, error)
}
