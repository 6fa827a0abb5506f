// Package artifacts writes the JSON files a migration run leaves behind:
// raw pages, converted pages, error and rejection lists, import failures and
// comparison results.
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
	"github.com/custodia-labs/annomigrate/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// indent matches the layout of files produced by earlier migration tooling.
const indent = "    "

// Store keeps artifacts as files in one directory.
type Store struct {
	dir string
}

// NewStore creates an artifact store rooted at dir. Nothing is created until
// Prepare or Write is called.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Location returns the output directory.
func (s *Store) Location() string {
	return s.dir
}

// Prepare creates the output directory. An existing directory is only
// accepted when reuse is set.
func (s *Store) Prepare(reuse bool) error {
	info, err := os.Stat(s.dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", domain.ErrOutputConflict, s.dir)
	case err == nil && !reuse:
		return fmt.Errorf("%w: %s", domain.ErrOutputConflict, s.dir)
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("stat output directory: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}

// Write encodes v as indented JSON with object keys sorted and replaces the
// file in one rename.
func (s *Store) Write(name string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	logger.Debug("wrote %s (%d bytes)", target, len(data))
	return nil
}

// Read decodes an artifact into v. Names with a directory part are read as
// paths, which lets callers point at files outside the output directory.
func (s *Store) Read(name string, v any) error {
	data, err := os.ReadFile(s.resolve(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// List returns the base names of artifacts matching pattern, sorted.
func (s *Store) List(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q", domain.ErrInvalidInput, pattern)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) resolve(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		return name
	}
	return filepath.Join(s.dir, name)
}

// Encode renders v the way artifacts are stored: four-space indent, object
// keys in sorted order, HTML characters left as is and a trailing newline.
// Numbers keep their original text.
func Encode(v any) ([]byte, error) {
	first, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	// Decoding into any turns every object into a map, which the encoder
	// writes with sorted keys.
	dec := json.NewDecoder(bytes.NewReader(first))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
