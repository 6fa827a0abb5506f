package driving

import (
	"context"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

// MigrationService runs the migration commands against a configured source,
// output directory and destination store.
type MigrationService interface {
	// Pull fetches the context page by page, writing a raw artifact for every
	// page and, unless skipped, its canonical conversion.
	Pull(ctx context.Context, opts PullOptions) (*domain.RunReport, error)

	// PullAll accumulates the whole context into one corpus, then converts it.
	PullAll(ctx context.Context, opts PullOptions) (*domain.RunReport, error)

	// Convert re-runs normalisation over saved page artifacts.
	Convert(ctx context.Context) (*domain.RunReport, error)

	// Push orders saved canonical artifacts and optionally imports them.
	Push(ctx context.Context, doImport bool) (*domain.RunReport, error)

	// PushFile imports a single canonical file in dependency order.
	PushFile(ctx context.Context, path string) (*domain.RunReport, error)

	// Clear deletes every stored annotation in the configured context.
	Clear(ctx context.Context) (*domain.RunReport, error)

	// Compare classifies the records of file A against file B.
	Compare(ctx context.Context, pathA, pathB string) (*domain.Comparison, error)

	// Verify compares the pulled corpus against what the destination store
	// returns for the same context.
	Verify(ctx context.Context) (*domain.Comparison, error)

	// Debug lists saved canonical records in import order.
	Debug(ctx context.Context) ([]DebugEntry, error)
}

// PullOptions tunes a single pull.
type PullOptions struct {
	// SkipCanonical writes raw page artifacts only.
	SkipCanonical bool

	// Resume continues from the saved checkpoint.
	Resume bool
}

// DebugEntry is one line of the debug listing.
type DebugEntry struct {
	File    string
	ID      domain.ID
	Created string
}
