package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

// fakeSearchClient serves rows from memory. Pages listed in pages take
// precedence over slicing rows.
type fakeSearchClient struct {
	mu sync.Mutex

	rows    []domain.LegacyAnnotation
	pages   map[int][]domain.LegacyAnnotation
	maxRows int
	total   int

	sizeErr error
	pageErr map[int]error

	sizeCalls int
	offsets   []int
	filters   []domain.SearchFilter
}

func newFakeSearchClient(rows []domain.LegacyAnnotation) *fakeSearchClient {
	return &fakeSearchClient{rows: rows, total: len(rows), pageErr: map[int]error{}}
}

func (f *fakeSearchClient) Size(_ context.Context, filter domain.SearchFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizeCalls++
	f.filters = append(f.filters, filter)
	if f.sizeErr != nil {
		return 0, f.sizeErr
	}
	return f.total, nil
}

func (f *fakeSearchClient) Page(ctx context.Context, _ domain.SearchFilter, offset, limit int) (*domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, offset)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.pageErr[offset]; ok {
		return nil, err
	}
	if rows, ok := f.pages[offset]; ok {
		return &domain.Page{Rows: rows, Size: len(rows), Total: f.total}, nil
	}
	n := limit
	if f.maxRows > 0 && f.maxRows < n {
		n = f.maxRows
	}
	start := min(offset, len(f.rows))
	end := min(start+n, len(f.rows))
	rows := append([]domain.LegacyAnnotation{}, f.rows[start:end]...)
	return &domain.Page{Rows: rows, Size: len(rows), Total: f.total}, nil
}

func (f *fakeSearchClient) pageCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.offsets)
}

// recordingMetrics counts what the services report.
type recordingMetrics struct {
	mu         sync.Mutex
	pages      int
	rows       int
	duplicates int
	converted  int
	imported   int
	failed     int
	matched    int
}

func (r *recordingMetrics) PageFetched(rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages++
	r.rows += rows
}

func (r *recordingMetrics) DuplicatesObserved(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duplicates += n
}

func (r *recordingMetrics) BatchNormalised(converted, _, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converted += converted
}

func (r *recordingMetrics) Imported(ok, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imported += ok
	r.failed += failed
}

func (r *recordingMetrics) Compared(matched, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matched += matched
}

func ptr[T any](v T) *T { return &v }

// idRow is a bare record used where only identifiers matter.
func idRow(id int) domain.LegacyAnnotation {
	return domain.LegacyAnnotation{ID: domain.IntID(int64(id)), Media: ptr(domain.MediaText)}
}

func idRows(from, to int) []domain.LegacyAnnotation {
	rows := make([]domain.LegacyAnnotation, 0, to-from+1)
	for i := from; i <= to; i++ {
		rows = append(rows, idRow(i))
	}
	return rows
}

// annotationRow builds a text annotation that survives conversion and
// readback unchanged. Every tenth record replies to the one before it.
func annotationRow(i int, contextID string) domain.LegacyAnnotation {
	user := strconv.Itoa(i % 7)
	uri := domain.NewFlexString(fmt.Sprintf("doc-%d", i%10))
	row := domain.LegacyAnnotation{
		ID:           domain.IntID(int64(i)),
		Created:      fmt.Sprintf("2019-01-01T00:00:%02d+00:00", i%60),
		Updated:      fmt.Sprintf("2019-02-01T00:00:%02d+00:00", i%60),
		Text:         fmt.Sprintf("<p>note %d</p>", i),
		Tags:         []string{"tag"},
		User:         &domain.LegacyUser{ID: domain.NewFlexString(user), Name: "user " + user},
		Permissions:  &domain.LegacyPermissions{Read: []string{}, Update: []string{user}, Delete: []string{user}, Admin: []string{user}},
		ContextID:    contextID,
		CollectionID: "coll-1",
		URI:          &uri,
	}
	if i%10 == 0 && i > 1 {
		parent := domain.StringID(strconv.Itoa(i - 1))
		row.Media = ptr(domain.MediaComment)
		row.Parent = &parent
		return row
	}
	row.Media = ptr(domain.MediaText)
	row.Ranges = []domain.LegacyRange{{Start: ptr("/div[1]"), End: ptr("/div[2]"), StartOffset: ptr(0), EndOffset: ptr(i % 50)}}
	row.Quote = ptr(fmt.Sprintf("quote %d", i))
	return row
}

func annotationRows(n int, contextID string) []domain.LegacyAnnotation {
	rows := make([]domain.LegacyAnnotation, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, annotationRow(i, contextID))
	}
	return rows
}

func canonical(id domain.ID, parent string) domain.CanonicalAnnotation {
	c := domain.CanonicalAnnotation{ID: id, Type: domain.AnnotationType}
	if parent != "" {
		c.Target.Items = []domain.TargetItem{{Type: domain.TargetAnnotation, Source: parent}}
		return c
	}
	c.Target.Items = []domain.TargetItem{{Type: domain.TargetText, Source: "doc"}}
	return c
}

func ids(records []domain.CanonicalAnnotation) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].ID.String()
	}
	return out
}
