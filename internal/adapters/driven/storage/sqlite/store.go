package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/annomigrate/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
)

// DefaultFileName is the database file created when no path is configured.
const DefaultFileName = "catch.db"

// Store is a unified SQLite-based storage that provides access to
// the annotation and checkpoint interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at dbPath.
// If dbPath is empty, defaults to ~/.annomigrate/data/catch.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".annomigrate", "data", DefaultFileName)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Foreign key enforcement is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// AnnotationStore returns an AnnotationStore interface backed by this store.
func (s *Store) AnnotationStore() driven.AnnotationStore {
	return &annotationStore{store: s}
}

// CheckpointStore returns a CheckpointStore interface backed by this store.
func (s *Store) CheckpointStore() driven.CheckpointStore {
	return &checkpointStore{store: s}
}

// migrate runs all pending migrations. Each up file records its own version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_annotations.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Annotation Store ====================

// annotationStore implements driven.AnnotationStore.
type annotationStore struct {
	store *Store
}

var _ driven.AnnotationStore = (*annotationStore)(nil)

// Import writes records in order inside one transaction. Records that
// already exist or whose parent is absent are collected as failures.
func (s *annotationStore) Import(
	ctx context.Context,
	records []domain.CanonicalAnnotation,
	override domain.ImportOverride,
) (*domain.ImportResult, error) {
	if !override.Allows(domain.OverrideCanImport) {
		return nil, domain.ErrAuthInvalid
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &domain.ImportResult{}
	for i := range records {
		rec := records[i]
		reason, err := importOne(ctx, tx, &rec)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			result.Failed = append(result.Failed, domain.ImportFailure{Record: rec, Reason: reason})
			continue
		}
		result.Imported = append(result.Imported, rec.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}
	return result, nil
}

// importOne inserts a record and returns a refusal reason, or an error when
// the database itself failed.
func importOne(ctx context.Context, tx *sql.Tx, rec *domain.CanonicalAnnotation) (string, error) {
	id := rec.ID.Key()
	exists, err := rowExists(ctx, tx, id)
	if err != nil {
		return "", err
	}
	if exists {
		return domain.ReasonExists, nil
	}

	var parentID sql.NullString
	if parent, ok := rec.ReplyTo(); ok {
		found, err := rowExists(ctx, tx, parent.Key())
		if err != nil {
			return "", err
		}
		if !found {
			return domain.ReasonParentMissing, nil
		}
		parentID = sql.NullString{String: parent.Key(), Valid: true}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Sprintf("marshalling record: %v", err), nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO annotations (id, context_id, parent_id, record)
		VALUES (?, ?, ?, ?)
	`, id, rec.Platform.ContextID, parentID, string(data))
	if err != nil {
		return "", fmt.Errorf("inserting annotation %s: %w", id, err)
	}
	return "", nil
}

func rowExists(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM annotations WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up annotation %s: %w", id, err)
	}
	return true, nil
}

// DeleteByContext deletes annotations one at a time, newest first, so
// replies go before the parents they reference.
func (s *annotationStore) DeleteByContext(ctx context.Context, contextID string) (*domain.DeleteResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, record FROM annotations WHERE context_id = ? ORDER BY seq DESC
	`, contextID)
	if err != nil {
		return nil, fmt.Errorf("listing annotations: %w", err)
	}

	type victim struct {
		key string
		id  domain.ID
	}
	var victims []victim
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			rows.Close()
			return nil, err
		}
		victims = append(victims, victim{key: key, id: rec.ID})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	result := &domain.DeleteResult{}
	for _, v := range victims {
		res, err := s.store.db.ExecContext(ctx, "DELETE FROM annotations WHERE id = ?", v.key)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed = append(result.Failed, domain.DeleteFailure{ID: v.id, Reason: err.Error()})
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			result.Failed = append(result.Failed, domain.DeleteFailure{ID: v.id, Reason: domain.ReasonNotFound})
			continue
		}
		result.Deleted++
	}
	return result, nil
}

// List returns stored annotations in import order.
func (s *annotationStore) List(ctx context.Context, contextID string) ([]domain.CanonicalAnnotation, error) {
	query := "SELECT record FROM annotations ORDER BY seq"
	args := []any{}
	if contextID != "" {
		query = "SELECT record FROM annotations WHERE context_id = ? ORDER BY seq"
		args = append(args, contextID)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing annotations: %w", err)
	}
	defer rows.Close()

	out := []domain.CanonicalAnnotation{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func decodeRecord(data string) (*domain.CanonicalAnnotation, error) {
	var rec domain.CanonicalAnnotation
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling annotation: %w", err)
	}
	return &rec, nil
}

// ==================== Checkpoint Store ====================

// checkpointStore implements driven.CheckpointStore.
type checkpointStore struct {
	store *Store
}

var _ driven.CheckpointStore = (*checkpointStore)(nil)

// Save stores or updates the checkpoint for a context.
func (s *checkpointStore) Save(ctx context.Context, cp domain.Checkpoint) error {
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO checkpoints (context_id, run_id, next_offset, page, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(context_id) DO UPDATE SET
			run_id = excluded.run_id,
			next_offset = excluded.next_offset,
			page = excluded.page,
			updated_at = excluded.updated_at
	`, cp.ContextID, cp.RunID, cp.Offset, cp.Page, cp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Get retrieves the checkpoint for a context.
func (s *checkpointStore) Get(ctx context.Context, contextID string) (*domain.Checkpoint, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT context_id, run_id, next_offset, page, updated_at
		FROM checkpoints WHERE context_id = ?
	`, contextID)

	var cp domain.Checkpoint
	var updatedAt sql.NullTime
	if err := row.Scan(&cp.ContextID, &cp.RunID, &cp.Offset, &cp.Page, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning checkpoint: %w", err)
	}
	if updatedAt.Valid {
		cp.UpdatedAt = updatedAt.Time
	}
	return &cp, nil
}

// Delete removes the checkpoint for a context.
func (s *checkpointStore) Delete(ctx context.Context, contextID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE context_id = ?", contextID)
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}
