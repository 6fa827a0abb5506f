package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
	"github.com/custodia-labs/annomigrate/internal/logger"
)

// AccumulateOptions controls a pull.
type AccumulateOptions struct {
	// StartOffset is the offset of the first request.
	StartOffset int

	// StartPage numbers the first page. Zero means 1.
	StartPage int

	// PageSize is the limit sent with every request.
	PageSize int

	// MaxPages bounds the number of non-empty pages. Reaching it is fatal.
	MaxPages int

	// Workers bounds concurrent page requests. One means sequential.
	Workers int

	// OnStart receives the total reported by the size request.
	OnStart func(ctx context.Context, expected int) error

	// OnPage runs after every non-empty page is committed, in offset order.
	OnPage func(ctx context.Context, event PageEvent) error
}

// PageEvent describes one committed page.
type PageEvent struct {
	Number int
	Offset int
	Page   *domain.Page

	// Added holds the rows that were new to the corpus, in page order.
	Added []domain.LegacyAnnotation

	Duplicates []domain.DuplicateObservation

	// NextOffset is where the following request starts.
	NextOffset int
}

// Accumulator merges search pages into a unique-by-identifier corpus.
type Accumulator struct {
	client  driven.SearchClient
	metrics driven.MetricsRecorder
}

// NewAccumulator creates an accumulator. A nil metrics recorder disables
// metrics.
func NewAccumulator(client driven.SearchClient, metrics driven.MetricsRecorder) *Accumulator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Accumulator{client: client, metrics: metrics}
}

// fetched is one page response inside a window.
type fetched struct {
	offset int
	page   *domain.Page
}

// Accumulate pulls pages until the service returns an empty page.
//
// The offset advances by the number of rows actually returned, so a service
// that short-pages is still read completely. With more than one worker,
// pages are requested in windows and committed in offset order. A short page
// invalidates the offsets of the pages requested after it, so the rest of
// that window is discarded and the next window starts where the short page
// ended. The committed pages are therefore exactly those of a sequential pull.
// Reaching MaxPages is an error only when the page after the last one allowed
// still has rows.
func (a *Accumulator) Accumulate(ctx context.Context, filter domain.SearchFilter, opts AccumulateOptions) (*domain.Corpus, *domain.PullStats, error) {
	opts = withAccumulateDefaults(opts)

	expected, err := a.client.Size(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("size request: %w", err)
	}
	logger.Info("context %q reports %d rows", filter.ContextID, expected)
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, expected); err != nil {
			return nil, nil, err
		}
	}

	corpus := domain.NewCorpus()
	stats := &domain.PullStats{Expected: expected, NextOffset: opts.StartOffset}
	offset := opts.StartOffset
	number := opts.StartPage

	for {
		remaining := opts.MaxPages - stats.Pages
		if remaining <= 0 {
			// The ceiling is only hit if there is more to read.
			last, err := a.fetchWindow(ctx, filter, offset, opts.PageSize, 1)
			if err != nil {
				return corpus, stats, err
			}
			rows := len(last[0].page.Rows)
			a.metrics.PageFetched(rows)
			if rows > 0 {
				return corpus, stats, fmt.Errorf("%w: %d pages at offset %d", domain.ErrPageCeiling, stats.Pages, offset)
			}
			break
		}
		window := min(opts.Workers, remaining)

		pages, err := a.fetchWindow(ctx, filter, offset, opts.PageSize, window)
		if err != nil {
			return corpus, stats, err
		}

		done := false
		for k, f := range pages {
			rows := len(f.page.Rows)
			a.metrics.PageFetched(rows)
			if rows == 0 {
				done = true
				break
			}

			event := commit(corpus, f, number)
			stats.Pages++
			stats.Fetched += rows
			stats.Duplicates = append(stats.Duplicates, event.Duplicates...)
			a.metrics.DuplicatesObserved(len(event.Duplicates))

			offset += rows
			event.NextOffset = offset
			stats.NextOffset = offset
			logger.Info("page %d offset %d: %d rows, %d new", number, f.offset, rows, len(event.Added))

			if opts.OnPage != nil {
				if err := opts.OnPage(ctx, event); err != nil {
					stats.Unique = corpus.Len()
					return corpus, stats, fmt.Errorf("page %d: %w", number, err)
				}
			}
			number++

			if rows < opts.PageSize {
				if dropped := len(pages) - k - 1; dropped > 0 {
					logger.Debug("short page at %d, dropping %d prefetched pages", f.offset, dropped)
				}
				break
			}
		}
		stats.Unique = corpus.Len()
		if done {
			break
		}
	}

	logger.Info("pulled %d rows in %d pages: %d unique, %d duplicates",
		stats.Fetched, stats.Pages, stats.Unique, len(stats.Duplicates))
	return corpus, stats, nil
}

// fetchWindow requests n pages at offset, offset+limit, ... and returns them
// in offset order. Any failure cancels the rest of the window.
func (a *Accumulator) fetchWindow(ctx context.Context, filter domain.SearchFilter, offset, limit, n int) ([]fetched, error) {
	pages := make([]fetched, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for i := 0; i < n; i++ {
		pageOffset := offset + i*limit
		g.Go(func() error {
			page, err := a.client.Page(gctx, filter, pageOffset, limit)
			if err != nil {
				return fmt.Errorf("page at offset %d: %w", pageOffset, err)
			}
			pages[i] = fetched{offset: pageOffset, page: page}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// commit adds a page to the corpus. First-seen wins; later rows with the same
// identifier are reported as duplicates.
func commit(corpus *domain.Corpus, f fetched, number int) PageEvent {
	event := PageEvent{Number: number, Offset: f.offset, Page: f.page}
	for i, row := range f.page.Rows {
		if corpus.Add(row) {
			event.Added = append(event.Added, row)
			continue
		}
		dup := domain.DuplicateObservation{ID: row.ID, Page: number, Offset: f.offset + i}
		logger.Warn("duplicate id %s on page %d (offset %d)", row.ID, number, dup.Offset)
		event.Duplicates = append(event.Duplicates, dup)
	}
	return event
}

func withAccumulateDefaults(opts AccumulateOptions) AccumulateOptions {
	if opts.PageSize <= 0 {
		opts.PageSize = domain.DefaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = domain.DefaultMaxPages
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.StartPage <= 0 {
		opts.StartPage = 1
	}
	if opts.StartOffset < 0 {
		opts.StartOffset = 0
	}
	return opts
}
