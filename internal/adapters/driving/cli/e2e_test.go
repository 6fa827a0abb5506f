package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annomigrate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/annomigrate/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/annomigrate/internal/connectors/catchpy"
	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/services"
)

const e2eBaseURL = "https://catch.example.edu"

func ptr[T any](v T) *T { return &v }

// sourceRecord builds a text annotation shaped like production data:
// top-level records carry parent "0" and a reply count, and every tenth
// record replies to the one before it by numeric id.
func sourceRecord(i int) domain.LegacyAnnotation {
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
		ContextID:    "course-1",
		CollectionID: "coll-1",
		URI:          &uri,
	}
	if i%10 == 0 {
		parent := domain.IntID(int64(i - 1))
		row.Media = ptr(domain.MediaComment)
		row.Parent = &parent
		return row
	}
	top := domain.StringID("0")
	row.Parent = &top
	row.TotalComments = ptr(i % 3)
	row.Media = ptr(domain.MediaText)
	row.Ranges = []domain.LegacyRange{{Start: ptr("/div[1]"), End: ptr("/div[2]"), StartOffset: ptr(0), EndOffset: ptr(i % 50)}}
	row.Quote = ptr(fmt.Sprintf("quote %d", i))
	return row
}

// registerSearch serves n records from the search endpoint for version.
func registerSearch(t *testing.T, version domain.APIVersion, n int) {
	t.Helper()
	rows := make([]domain.LegacyAnnotation, n)
	for i := range rows {
		rows[i] = sourceRecord(i + 1)
	}

	path, param := "/catch/annotator/search", "context_id"
	if version == domain.APIVersionV2 {
		path, param = "/annos/search", "contextId"
	}
	httpmock.RegisterResponder(http.MethodGet, e2eBaseURL+path,
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			if q.Get(param) != "course-1" || req.Header.Get(catchpy.HeaderAuthToken) == "" {
				return httpmock.NewStringResponse(http.StatusBadRequest, "bad request"), nil
			}
			offset, _ := strconv.Atoi(q.Get("offset"))
			limit, _ := strconv.Atoi(q.Get("limit"))
			start := min(offset, len(rows))
			end := min(start+limit, len(rows))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"total": len(rows),
				"size":  end - start,
				"rows":  rows[start:end],
			})
		})
}

type e2eRun struct {
	outDir string
	store  string
}

func setupE2E(t *testing.T) *e2eRun {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	oldSettings := settingsService
	settingsService = services.NewSettingsService(memory.NewConfigStore())
	require.NoError(t, settingsService.Set("source.url", e2eBaseURL))
	require.NoError(t, settingsService.Set("source.api_key", "consumer-1"))
	require.NoError(t, settingsService.Set("source.secret_key", "s3cret"))
	t.Cleanup(func() {
		settingsService = oldSettings
		resetFlags(rootCmd)
	})

	dir := t.TempDir()
	return &e2eRun{outDir: filepath.Join(dir, "out"), store: filepath.Join(dir, "catch.db")}
}

func (r *e2eRun) run(t *testing.T, args ...string) string {
	t.Helper()
	args = append(args, "--outdir", r.outDir)
	out, err := execute(t, args...)
	require.NoError(t, err, out)
	return out
}

func (r *e2eRun) storedCount(t *testing.T) int {
	t.Helper()
	db, err := sqlite.NewStore(r.store)
	require.NoError(t, err)
	defer db.Close()
	records, err := db.AnnotationStore().List(t.Context(), "course-1")
	require.NoError(t, err)
	return len(records)
}

func TestEndToEnd_PagedPullImportVerify(t *testing.T) {
	r := setupE2E(t)
	registerSearch(t, domain.APIVersionV1, 1200)

	out := r.run(t, "pull", "--context-id", "course-1", "--page-size", "500", "--store", r.store)
	assert.Contains(t, out, "1200")
	// One size request, three full or short pages and the empty page.
	assert.Equal(t, 5, httpmock.GetTotalCallCount())
	for page := 1; page <= 3; page++ {
		assert.FileExists(t, filepath.Join(r.outDir, fmt.Sprintf("annojs_course_1_%06d.json", page)))
		assert.FileExists(t, filepath.Join(r.outDir, fmt.Sprintf("catcha_course_1_%06d.json", page)))
	}
	assert.FileExists(t, filepath.Join(r.outDir, "info_annojs_course_1.json"))

	r.run(t, "push", "--context-id", "course-1", "--import", "--store", r.store)
	assert.Equal(t, 1200, r.storedCount(t))
	assert.FileExists(t, filepath.Join(r.outDir, "sorted_catcha_course_1_000001.json"))

	out = r.run(t, "verify", "--context-id", "course-1", "--store", r.store)
	assert.Contains(t, out, "all records match")

	data, err := os.ReadFile(filepath.Join(r.outDir, "test_passed.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": 1200`)
}

func TestEndToEnd_WholeCorpusV2(t *testing.T) {
	r := setupE2E(t)
	registerSearch(t, domain.APIVersionV2, 1200)

	r.run(t, "pull-all", "--context-id", "course-1", "--api-version", "v2", "--workers", "3", "--store", r.store)
	assert.FileExists(t, filepath.Join(r.outDir, "fullset_annojs_course_1.json"))
	assert.FileExists(t, filepath.Join(r.outDir, "fullset_catcha_course_1.json"))

	r.run(t, "push", "--context-id", "course-1", "--import", "--store", r.store)
	assert.Equal(t, 1200, r.storedCount(t))

	out := r.run(t, "verify", "--context-id", "course-1", "--store", r.store)
	assert.Contains(t, out, "all records match")

	r.run(t, "clear", "--context-id", "course-1", "--store", r.store)
	assert.Equal(t, 0, r.storedCount(t))

	_, err := execute(t, "verify", "--context-id", "course-1", "--store", r.store, "--outdir", r.outDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1200 missing")
}

func TestEndToEnd_MistypedRowIsRejected(t *testing.T) {
	r := setupE2E(t)
	httpmock.RegisterResponder(http.MethodGet, e2eBaseURL+"/catch/annotator/search",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			if q.Get("offset") != "0" {
				return httpmock.NewStringResponse(http.StatusOK, `{"total": 3, "size": 0, "rows": []}`), nil
			}
			if q.Get("limit") == "1" {
				return httpmock.NewStringResponse(http.StatusOK, `{"total": 3, "size": 1, "rows": [{"id": 1}]}`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"total": 3, "size": 3, "rows": [
				{"id": 1, "media": "text", "text": "a"},
				{"id": 2, "media": "text", "tags": "oops"},
				{"id": 3, "media": "text", "text": "c"}
			]}`), nil
		})

	r.run(t, "pull", "--context-id", "course-1", "--store", r.store)

	var converted []domain.CanonicalAnnotation
	data, err := os.ReadFile(filepath.Join(r.outDir, "catcha_course_1_000001.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &converted))
	assert.Len(t, converted, 2)

	messed, err := os.ReadFile(filepath.Join(r.outDir, "messed_annojs_course_1_000001.json"))
	require.NoError(t, err)
	assert.Contains(t, string(messed), `"oops"`)
}

func TestEndToEnd_OutputConflict(t *testing.T) {
	r := setupE2E(t)
	registerSearch(t, domain.APIVersionV1, 10)
	require.NoError(t, os.MkdirAll(r.outDir, 0755))

	_, err := execute(t, "pull", "--context-id", "course-1", "--outdir", r.outDir, "--store", r.store)

	assert.ErrorIs(t, err, domain.ErrOutputConflict)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestEndToEnd_ResumeAfterFailure(t *testing.T) {
	r := setupE2E(t)
	registerSearch(t, domain.APIVersionV1, 1200)
	httpmock.RegisterResponderWithQuery(http.MethodGet, e2eBaseURL+"/catch/annotator/search",
		"limit=500&offset=1000&context_id=course-1", httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))

	_, err := execute(t, "pull", "--context-id", "course-1", "--outdir", r.outDir, "--store", r.store)
	require.ErrorIs(t, err, domain.ErrFetch)

	httpmock.RegisterResponderWithQuery(http.MethodGet, e2eBaseURL+"/catch/annotator/search",
		"limit=500&offset=1000&context_id=course-1", httpmock.NewStringResponder(http.StatusOK,
			`{"total": 1200, "size": 0, "rows": []}`))

	// The failing page is retried from the checkpoint; the stub now ends the pull.
	out := r.run(t, "pull", "--context-id", "course-1", "--resume", "--store", r.store)
	assert.Contains(t, out, "Pull")
	assert.NoFileExists(t, filepath.Join(r.outDir, "annojs_course_1_000003.json"))
	assert.FileExists(t, filepath.Join(r.outDir, "annojs_course_1_000002.json"))
}
