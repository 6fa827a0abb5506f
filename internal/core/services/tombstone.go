package services

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/annomigrate/internal/core/domain"
)

// Tombstone returns copies of records with platform.deleted set to true.
// Records are handled as plain JSON objects, so members outside the Catcha
// schema pass through untouched. The input is not modified.
func Tombstone(records []json.RawMessage) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(records))
	for i, raw := range records {
		var record map[string]json.RawMessage
		if err := json.Unmarshal(raw, &record); err != nil || record == nil {
			return nil, fmt.Errorf("%w: record %d is not an object", domain.ErrInvalidInput, i)
		}

		var platform map[string]json.RawMessage
		if member, ok := record["platform"]; ok {
			if err := json.Unmarshal(member, &platform); err != nil {
				return nil, fmt.Errorf("%w: record %d: platform is not an object", domain.ErrInvalidInput, i)
			}
		}
		if platform == nil {
			platform = make(map[string]json.RawMessage, 1)
		}
		platform["deleted"] = json.RawMessage("true")

		encoded, err := json.Marshal(platform)
		if err != nil {
			return nil, err
		}
		record["platform"] = encoded
		if out[i], err = json.Marshal(record); err != nil {
			return nil, err
		}
	}
	return out, nil
}
