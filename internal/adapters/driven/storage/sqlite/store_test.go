package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

var canImport = domain.ImportOverride{domain.OverrideCanImport}

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func annotation(id domain.ID, contextID string) domain.CanonicalAnnotation {
	return domain.CanonicalAnnotation{
		Context:       domain.CatchContext,
		Type:          domain.AnnotationType,
		SchemaVersion: domain.CatchSchemaVersion,
		ID:            id,
		Created:       "2020-01-01T00:00:00Z",
		Modified:      "2020-01-01T00:00:00Z",
		Creator:       domain.Creator{ID: "42", Name: "ada"},
		Permissions:   domain.Permissions{CanRead: []string{}, CanUpdate: []string{"42"}, CanDelete: []string{"42"}, CanAdmin: []string{"42"}},
		Platform:      domain.Platform{PlatformName: domain.DefaultPlatformName, ContextID: contextID},
		Body: domain.Body{Type: domain.ListType, Items: []domain.BodyItem{
			{Type: "TextualBody", Purpose: domain.PurposeCommenting, Format: "text/html", Value: "note"},
		}},
		Target: domain.Target{Type: domain.ListType, Items: []domain.TargetItem{
			{Type: domain.TargetText, Source: "doc-1"},
		}},
	}
}

func reply(id domain.ID, parent, contextID string) domain.CanonicalAnnotation {
	a := annotation(id, contextID)
	a.Target.Items = []domain.TargetItem{{Type: domain.TargetAnnotation, Source: parent}}
	return a
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path/catch.db")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(home, ".annomigrate", "data", DefaultFileName), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "path")
	store, err := NewStore(filepath.Join(nested, "catch.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nested)
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"annotations", "checkpoints"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenSkipsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catch.db")
	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store := setupTestStore(t)

	var fkEnabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.Equal(t, 1, fkEnabled)
}

// ==================== AnnotationStore Tests ====================

func TestAnnotationStore_Import_RequiresOverride(t *testing.T) {
	store := setupTestStore(t).AnnotationStore()

	_, err := store.Import(context.Background(), []domain.CanonicalAnnotation{annotation(domain.IntID(1), "c")}, nil)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestAnnotationStore_ImportAndList(t *testing.T) {
	store := setupTestStore(t).AnnotationStore()
	ctx := context.Background()

	res, err := store.Import(ctx, []domain.CanonicalAnnotation{
		annotation(domain.IntID(10), "course-1"),
		reply(domain.StringID("11"), "10", "course-1"),
		reply(domain.IntID(12), "999", "course-1"),
		annotation(domain.IntID(10), "course-1"),
		annotation(domain.IntID(5), "course-2"),
	}, canImport)
	require.NoError(t, err)

	assert.Equal(t, []domain.ID{domain.IntID(10), domain.StringID("11"), domain.IntID(5)}, res.Imported)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, domain.ReasonParentMissing, res.Failed[0].Reason)
	assert.Equal(t, domain.ReasonExists, res.Failed[1].Reason)

	listed, err := store.List(ctx, "course-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, annotation(domain.IntID(10), "course-1"), listed[0])
	assert.True(t, listed[0].ID.IsNumeric())
	assert.Equal(t, "11", listed[1].ID.String())
	assert.True(t, listed[1].IsReply())

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAnnotationStore_KeepsUnknownMembers(t *testing.T) {
	store := setupTestStore(t).AnnotationStore()
	ctx := context.Background()

	a := annotation(domain.IntID(20), "course-1")
	a.Extra = map[string]json.RawMessage{"totalReplies": json.RawMessage(`2`)}
	a.Platform.Extra = map[string]json.RawMessage{"extra_flag": json.RawMessage(`true`)}
	a.Target.Items[0].Selector = &domain.Selector{Type: "Choice", Items: []domain.SelectorItem{{
		Type: "FragmentSelector",
		Extra: map[string]json.RawMessage{
			"conformsTo": json.RawMessage(`"http://www.w3.org/TR/media-frags/"`),
			"value":      json.RawMessage(`"xywh=1,2,3,4"`),
		},
	}}}

	_, err := store.Import(ctx, []domain.CanonicalAnnotation{a}, canImport)
	require.NoError(t, err)

	listed, err := store.List(ctx, "course-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.JSONEq(t, `2`, string(listed[0].Extra["totalReplies"]))
	assert.JSONEq(t, `true`, string(listed[0].Platform.Extra["extra_flag"]))
	item := listed[0].Target.Items[0].Selector.Items[0]
	assert.JSONEq(t, `"xywh=1,2,3,4"`, string(item.Extra["value"]))
}

func TestAnnotationStore_List_Empty(t *testing.T) {
	store := setupTestStore(t).AnnotationStore()

	listed, err := store.List(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, listed)
	assert.Empty(t, listed)
}

func TestAnnotationStore_DeleteByContext(t *testing.T) {
	store := setupTestStore(t).AnnotationStore()
	ctx := context.Background()

	_, err := store.Import(ctx, []domain.CanonicalAnnotation{
		annotation(domain.IntID(1), "c1"),
		reply(domain.IntID(2), "1", "c1"),
		reply(domain.IntID(3), "2", "c1"),
		annotation(domain.IntID(4), "c2"),
	}, canImport)
	require.NoError(t, err)

	res, err := store.DeleteByContext(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Deleted)
	assert.Empty(t, res.Failed)

	left, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "4", left[0].ID.String())
}

func TestAnnotationStore_DeleteByContext_ParentWithForeignReply(t *testing.T) {
	store := setupTestStore(t).AnnotationStore()
	ctx := context.Background()

	_, err := store.Import(ctx, []domain.CanonicalAnnotation{
		annotation(domain.IntID(1), "c1"),
		reply(domain.IntID(2), "1", "c2"),
	}, canImport)
	require.NoError(t, err)

	res, err := store.DeleteByContext(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "1", res.Failed[0].ID.String())
}

func TestStore_ContextCancellation(t *testing.T) {
	store := setupTestStore(t).AnnotationStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Import(ctx, []domain.CanonicalAnnotation{annotation(domain.IntID(1), "c")}, canImport)
	assert.Error(t, err)
}

// ==================== CheckpointStore Tests ====================

func TestCheckpointStore_SaveGetDelete(t *testing.T) {
	store := setupTestStore(t).CheckpointStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "course-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, domain.Checkpoint{ContextID: "course-1", RunID: "r1", Offset: 500, Page: 1, UpdatedAt: at}))
	require.NoError(t, store.Save(ctx, domain.Checkpoint{ContextID: "course-1", RunID: "r1", Offset: 1000, Page: 2, UpdatedAt: at}))

	cp, err := store.Get(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, "r1", cp.RunID)
	assert.Equal(t, 1000, cp.Offset)
	assert.Equal(t, 2, cp.Page)
	assert.True(t, at.Equal(cp.UpdatedAt))

	require.NoError(t, store.Delete(ctx, "course-1"))
	_, err = store.Get(ctx, "course-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
