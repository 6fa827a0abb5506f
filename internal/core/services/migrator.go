package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driving"
	"github.com/custodia-labs/annomigrate/internal/logger"
)

// Ensure Migrator implements the interface.
var _ driving.MigrationService = (*Migrator)(nil)

// Migrator coordinates pulls, conversion, import and comparison for one
// context.
type Migrator struct {
	cfg         domain.MigrationConfig
	client      driven.SearchClient
	normaliser  driven.Normaliser
	artifacts   driven.ArtifactStore
	checkpoints driven.CheckpointStore
	store       driven.AnnotationStore
	metrics     driven.MetricsRecorder

	accumulator *Accumulator
	sorter      *Sorter
	comparator  *Comparator

	now   func() time.Time
	runID func() string
}

// NewMigrator creates a migrator.
// The client is only needed for pulls and the store only for import, clear
// and verify; either may be nil for offline commands.
func NewMigrator(
	cfg domain.MigrationConfig,
	client driven.SearchClient,
	normaliser driven.Normaliser,
	artifacts driven.ArtifactStore,
	checkpoints driven.CheckpointStore,
	store driven.AnnotationStore,
	metrics driven.MetricsRecorder,
	opts ...MigratorOption,
) *Migrator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	m := &Migrator{
		cfg:         cfg,
		client:      client,
		normaliser:  normaliser,
		artifacts:   artifacts,
		checkpoints: checkpoints,
		store:       store,
		metrics:     metrics,
		accumulator: NewAccumulator(client, metrics),
		sorter:      NewSorter(cfg.Orphans),
		comparator:  NewComparator(),
		now:         time.Now,
		runID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MigratorOption configures a Migrator.
type MigratorOption func(*Migrator)

// WithRunID fixes the identifier recorded for new runs. Resumed runs keep the
// identifier from their checkpoint.
func WithRunID(id string) MigratorOption {
	return func(m *Migrator) {
		m.runID = func() string { return id }
	}
}

// Pull fetches the context page by page and writes per-page artifacts.
func (m *Migrator) Pull(ctx context.Context, opts driving.PullOptions) (*domain.RunReport, error) {
	logger.Section("Pull")
	return m.pull(ctx, opts, false)
}

// PullAll accumulates the whole context, then writes and converts the corpus.
func (m *Migrator) PullAll(ctx context.Context, opts driving.PullOptions) (*domain.RunReport, error) {
	logger.Section("Pull all")
	return m.pull(ctx, opts, true)
}

//nolint:gocognit // Orchestration function with sequential steps
func (m *Migrator) pull(ctx context.Context, opts driving.PullOptions, whole bool) (*domain.RunReport, error) {
	if m.client == nil {
		return nil, fmt.Errorf("%w: search client not configured", domain.ErrInvalidConfig)
	}

	// 1. Claim the output location before any network activity
	if err := m.artifacts.Prepare(m.cfg.ReuseOutDir || opts.Resume); err != nil {
		return nil, err
	}

	name := domain.ArtifactName(m.cfg.ContextID)
	filter := domain.SearchFilter{ContextID: m.cfg.ContextID}
	report := &domain.RunReport{}

	// 2. Work out where to start
	runID := m.runID()
	accOpts := AccumulateOptions{
		StartOffset: m.cfg.Pull.StartOffset,
		PageSize:    m.cfg.Pull.PageSize,
		MaxPages:    m.cfg.Pull.MaxPages,
		Workers:     m.cfg.Pull.Workers,
	}
	if opts.Resume {
		cp, err := m.checkpoints.Get(ctx, m.cfg.ContextID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.Info("no checkpoint for %q, starting at offset %d", m.cfg.ContextID, accOpts.StartOffset)
		case err != nil:
			return nil, fmt.Errorf("get checkpoint: %w", err)
		default:
			runID = cp.RunID
			accOpts.StartOffset = cp.Offset
			accOpts.StartPage = cp.Page + 1
			logger.Info("resuming run %s at offset %d (page %d)", runID, cp.Offset, accOpts.StartPage)
		}
	}

	// 3. Record what this run is pulling
	accOpts.OnStart = func(_ context.Context, expected int) error {
		info := domain.RunInfo{
			SourceURL:  m.cfg.Source.URL,
			APIKey:     m.cfg.Source.APIKey,
			ContextID:  m.cfg.ContextID,
			TotalRows:  expected,
			RunID:      runID,
			StartedAt:  m.now().UTC(),
			PageSize:   accOpts.PageSize,
			APIVersion: m.cfg.Source.APIVersion.String(),
		}
		if info.PageSize == 0 {
			info.PageSize = domain.DefaultPageSize
		}
		return m.artifacts.Write(infoFile(name), info)
	}

	// 4. Per page: artifacts, optional conversion, checkpoint
	accOpts.OnPage = func(ctx context.Context, event PageEvent) error {
		if !whole {
			rawFile := pageFile(prefixAnnoJS, name, event.Number)
			var content any = event.Page
			if len(event.Page.Raw) > 0 {
				content = event.Page.Raw
			}
			if err := m.artifacts.Write(rawFile, content); err != nil {
				return err
			}
			if !opts.SkipCanonical {
				catchaFile := pageFile(prefixCatcha, name, event.Number)
				if err := m.convertRows(event.Added, rawFile, catchaFile, report); err != nil {
					return err
				}
			}
		}
		return m.checkpoints.Save(ctx, domain.Checkpoint{
			ContextID: m.cfg.ContextID,
			RunID:     runID,
			Offset:    event.NextOffset,
			Page:      event.Number,
			UpdatedAt: m.now().UTC(),
		})
	}

	// 5. Pull
	corpus, stats, err := m.accumulator.Accumulate(ctx, filter, accOpts)
	if stats != nil {
		report.AddPull(stats)
	}
	if err != nil {
		return report, fmt.Errorf("pull %q: %w", m.cfg.ContextID, err)
	}

	// 6. Whole-corpus artifacts
	if whole {
		records := corpus.Records()
		rawFile := fullsetFile(prefixAnnoJS, name)
		if err := m.artifacts.Write(rawFile, nonNil(records)); err != nil {
			return report, err
		}
		if !opts.SkipCanonical {
			if err := m.convertRows(records, rawFile, fullsetFile(prefixCatcha, name), report); err != nil {
				return report, err
			}
		}
	}

	if err := m.checkpoints.Delete(ctx, m.cfg.ContextID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("delete checkpoint: %v", err)
	}
	return report, nil
}

// convertRows normalises rows and writes the canonical, error and messed
// artifacts for them.
func (m *Migrator) convertRows(rows []domain.LegacyAnnotation, sourceFile, catchaFile string, report *domain.RunReport) error {
	result := m.normaliser.NormaliseBatch(rows)
	report.AddBatch(result)
	m.metrics.BatchNormalised(len(result.Canonical), len(result.Errors), len(result.Rejected), result.Repaired)

	if err := m.artifacts.Write(catchaFile, nonNil(result.Canonical)); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		if err := m.artifacts.Write(prefixError+catchaFile, result.Errors); err != nil {
			return err
		}
	}
	if len(result.Rejected) > 0 {
		if err := m.artifacts.Write(prefixMessed+filepath.Base(sourceFile), result.Rejected); err != nil {
			return err
		}
	}
	logger.Info("%s: %d converted, %d errors, %d rejected, %d repaired",
		catchaFile, len(result.Canonical), len(result.Errors), len(result.Rejected), result.Repaired)
	return nil
}

// Convert re-runs normalisation over saved page artifacts.
func (m *Migrator) Convert(ctx context.Context) (*domain.RunReport, error) {
	logger.Section("Convert")
	name := domain.ArtifactName(m.cfg.ContextID)
	files, err := pageFiles(m.artifacts, prefixAnnoJS, name)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no page artifacts for %q in %s", domain.ErrNotFound, name, m.artifacts.Location())
	}

	report := &domain.RunReport{}
	// Raw pages overlap; a record is converted from the first page holding it.
	seen := domain.NewCorpus()
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rows, err := readLegacy(m.artifacts, file)
		if err != nil {
			return report, err
		}
		report.Fetched += len(rows)
		fresh := make([]domain.LegacyAnnotation, 0, len(rows))
		for _, row := range rows {
			if seen.Add(row) {
				fresh = append(fresh, row)
				continue
			}
			logger.Debug("%s: %s already converted from an earlier page", file, row.ID)
			report.Duplicates++
		}
		if skipped := len(rows) - len(fresh); skipped > 0 {
			logger.Warn("%s: skipped %d records seen on earlier pages", file, skipped)
		}
		report.Unique = seen.Len()
		catchaFile := fmt.Sprintf("%s_%s_%s.json", prefixCatcha, name, pageSuffix(file, prefixAnnoJS, name))
		if err := m.convertRows(fresh, file, catchaFile, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Push orders saved canonical page artifacts, writing a sorted_ copy of each.
// With doImport the union of all pages is imported in dependency order.
func (m *Migrator) Push(ctx context.Context, doImport bool) (*domain.RunReport, error) {
	logger.Section("Push")
	if doImport && m.store == nil {
		return nil, fmt.Errorf("%w: annotation store not configured", domain.ErrInvalidConfig)
	}
	name := domain.ArtifactName(m.cfg.ContextID)
	files, err := m.canonicalFiles(name)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no canonical artifacts for %q in %s", domain.ErrNotFound, name, m.artifacts.Location())
	}

	report := &domain.RunReport{}
	var all []domain.CanonicalAnnotation
	for _, file := range files {
		records, err := readCanonical(m.artifacts, file)
		if err != nil {
			return report, err
		}
		ordered := m.sorter.Order(records)
		if err := m.artifacts.Write(prefixSorted+file, nonNil(append(ordered.Ordered, ordered.Orphans...))); err != nil {
			return report, err
		}
		logger.Info("sorted %s: %d records", file, len(records))
		all = append(all, records...)
	}

	if !doImport {
		return report, nil
	}
	base := fmt.Sprintf("%s_%s.json", prefixCatcha, name)
	return report, m.importOrdered(ctx, all, prefixFailPush+base, prefixOrphans+base, report)
}

// canonicalFiles returns the canonical page artifacts, or the whole-corpus
// artifact when the context was pulled with pull-all.
func (m *Migrator) canonicalFiles(name string) ([]string, error) {
	files, err := pageFiles(m.artifacts, prefixCatcha, name)
	if err != nil || len(files) > 0 {
		return files, err
	}
	return m.artifacts.List(fullsetFile(prefixCatcha, name))
}

// PushFile imports one canonical file in dependency order.
func (m *Migrator) PushFile(ctx context.Context, path string) (*domain.RunReport, error) {
	logger.Section("Push file")
	if m.store == nil {
		return nil, fmt.Errorf("%w: annotation store not configured", domain.ErrInvalidConfig)
	}
	if err := m.artifacts.Prepare(true); err != nil {
		return nil, err
	}
	records, err := readCanonical(m.artifacts, path)
	if err != nil {
		return nil, err
	}
	replies := 0
	for i := range records {
		if records[i].IsReply() {
			replies++
		}
	}
	logger.Info("comments(%d), replies(%d)", len(records)-replies, replies)

	base := filepath.Base(path)
	report := &domain.RunReport{}
	return report, m.importOrdered(ctx, records, prefixFailPushFil+base, prefixOrphans+base, report)
}

// importOrdered sorts records, imports them and writes the failure artifact.
func (m *Migrator) importOrdered(ctx context.Context, records []domain.CanonicalAnnotation, failFile, orphanFile string, report *domain.RunReport) error {
	ordered := m.sorter.Order(records)
	if len(ordered.Orphans) > 0 {
		logger.Warn("%d replies have no parent in this batch; see %s", len(ordered.Orphans), orphanFile)
		if err := m.artifacts.Write(orphanFile, ordered.Orphans); err != nil {
			return err
		}
	}

	result, err := m.store.Import(ctx, ordered.Ordered, domain.ImportOverride{domain.OverrideCanImport})
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	report.Imported += len(result.Imported)
	report.ImportFailed += len(result.Failed)
	m.metrics.Imported(len(result.Imported), len(result.Failed))

	if len(result.Failed) > 0 {
		logger.Warn("%d records failed to import; see %s", len(result.Failed), failFile)
	}
	return m.artifacts.Write(failFile, nonNil(result.Failed))
}

// Clear deletes every stored annotation in the configured context.
func (m *Migrator) Clear(ctx context.Context) (*domain.RunReport, error) {
	logger.Section("Clear")
	if m.store == nil {
		return nil, fmt.Errorf("%w: annotation store not configured", domain.ErrInvalidConfig)
	}
	if m.cfg.ContextID == "" {
		return nil, fmt.Errorf("%w: clear needs a context id", domain.ErrInvalidInput)
	}
	if err := m.artifacts.Prepare(true); err != nil {
		return nil, err
	}

	result, err := m.store.DeleteByContext(ctx, m.cfg.ContextID)
	if err != nil {
		return nil, fmt.Errorf("delete context %q: %w", m.cfg.ContextID, err)
	}
	report := &domain.RunReport{Deleted: result.Deleted, DeleteFailed: len(result.Failed)}
	for _, f := range result.Failed {
		logger.Error("error deleting(%s): %s", f.ID, f.Reason)
	}
	failFile := prefixFailDelete + domain.ArtifactName(m.cfg.ContextID) + ".json"
	return report, m.artifacts.Write(failFile, nonNil(result.Failed))
}

// Compare classifies the records of file A against file B.
func (m *Migrator) Compare(_ context.Context, pathA, pathB string) (*domain.Comparison, error) {
	logger.Section("Compare")
	if err := m.artifacts.Prepare(true); err != nil {
		return nil, err
	}
	a, err := readLegacy(m.artifacts, pathA)
	if err != nil {
		return nil, err
	}
	b, err := readLegacy(m.artifacts, pathB)
	if err != nil {
		return nil, err
	}
	return m.record(m.comparator.Compare(a, b))
}

// Verify compares the pulled corpus against the destination store readback.
func (m *Migrator) Verify(ctx context.Context) (*domain.Comparison, error) {
	logger.Section("Verify")
	if m.store == nil {
		return nil, fmt.Errorf("%w: annotation store not configured", domain.ErrInvalidConfig)
	}
	source, err := m.pulledCorpus()
	if err != nil {
		return nil, err
	}
	stored, err := m.store.List(ctx, m.cfg.ContextID)
	if err != nil {
		return nil, fmt.Errorf("list stored annotations: %w", err)
	}
	readback := make([]domain.LegacyAnnotation, len(stored))
	for i := range stored {
		readback[i] = m.normaliser.Denormalise(&stored[i])
	}
	return m.record(m.comparator.CompareReadback(source, readback))
}

// pulledCorpus reads the whole-corpus artifact, falling back to page files.
func (m *Migrator) pulledCorpus() ([]domain.LegacyAnnotation, error) {
	name := domain.ArtifactName(m.cfg.ContextID)
	records, err := readLegacy(m.artifacts, fullsetFile(prefixAnnoJS, name))
	if err == nil {
		return records, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	files, err := pageFiles(m.artifacts, prefixAnnoJS, name)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no pulled records for %q in %s", domain.ErrNotFound, name, m.artifacts.Location())
	}
	// Raw pages overlap, keep the first copy of each record.
	corpus := domain.NewCorpus()
	for _, file := range files {
		rows, err := readLegacy(m.artifacts, file)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			corpus.Add(row)
		}
	}
	return corpus.Records(), nil
}

// record counts a comparison and writes its three buckets.
func (m *Migrator) record(result *domain.Comparison) (*domain.Comparison, error) {
	m.metrics.Compared(len(result.Matched), len(result.Mismatched), len(result.Missing))

	if err := m.artifacts.Write(fileTestNotFound, nonNil(result.Missing)); err != nil {
		return result, err
	}
	if err := m.artifacts.Write(fileTestNotSimilar, nonNil(result.Mismatched)); err != nil {
		return result, err
	}
	if err := m.artifacts.Write(fileTestPassed, nonNil(result.Matched)); err != nil {
		return result, err
	}
	return result, nil
}

// Debug lists saved canonical records in import order, file by file.
func (m *Migrator) Debug(_ context.Context) ([]driving.DebugEntry, error) {
	name := domain.ArtifactName(m.cfg.ContextID)
	files, err := m.canonicalFiles(name)
	if err != nil {
		return nil, err
	}
	var entries []driving.DebugEntry
	for _, file := range files {
		records, err := readCanonical(m.artifacts, file)
		if err != nil {
			return nil, err
		}
		ordered := m.sorter.Order(records)
		for _, c := range append(ordered.Ordered, ordered.Orphans...) {
			entries = append(entries, driving.DebugEntry{File: file, ID: c.ID, Created: c.Created})
		}
	}
	return entries, nil
}
