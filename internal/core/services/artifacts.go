package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
)

// Artifact file name prefixes.
const (
	prefixAnnoJS      = "annojs"
	prefixCatcha      = "catcha"
	prefixInfo        = "info_annojs_"
	prefixFullset     = "fullset_"
	prefixMessed      = "messed_"
	prefixError       = "error_"
	prefixSorted      = "sorted_"
	prefixOrphans     = "orphans_"
	prefixFailPush    = "fail_to_push_"
	prefixFailPushFil = "fail_to_push_from_file_"
	prefixFailDelete  = "fail_to_delete_"

	fileTestPassed     = "test_passed.json"
	fileTestNotSimilar = "test_not_similar.json"
	fileTestNotFound   = "test_not_found.json"
)

func infoFile(name string) string {
	return prefixInfo + name + ".json"
}

func pageFile(prefix, name string, page int) string {
	return fmt.Sprintf("%s_%s_%06d.json", prefix, name, page)
}

func fullsetFile(prefix, name string) string {
	return fmt.Sprintf("%s%s_%s.json", prefixFullset, prefix, name)
}

// pageFiles lists page artifacts for a prefix, skipping names whose page
// suffix is not a number.
func pageFiles(artifacts driven.ArtifactStore, prefix, name string) ([]string, error) {
	head := prefix + "_" + name + "_"
	matches, err := artifacts.List(head + "*.json")
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		page := strings.TrimSuffix(strings.TrimPrefix(m, head), ".json")
		if _, err := strconv.Atoi(page); err != nil {
			continue
		}
		files = append(files, m)
	}
	return files, nil
}

// pageSuffix returns the page part of a page artifact name.
func pageSuffix(file, prefix, name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(file, prefix+"_"+name+"_"), ".json")
}

// readLegacy reads a list of legacy records. Both a bare JSON array and a
// saved search response with a rows member are accepted.
func readLegacy(artifacts driven.ArtifactStore, name string) ([]domain.LegacyAnnotation, error) {
	var raw json.RawMessage
	if err := artifacts.Read(name, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []domain.LegacyAnnotation
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(name), err)
		}
		return records, nil
	}
	var page domain.Page
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(name), err)
	}
	return page.Rows, nil
}

func readCanonical(artifacts driven.ArtifactStore, name string) ([]domain.CanonicalAnnotation, error) {
	var records []domain.CanonicalAnnotation
	if err := artifacts.Read(name, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// nonNil keeps empty artifacts as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
