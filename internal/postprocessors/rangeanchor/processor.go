// Package rangeanchor repairs media records whose first range has no anchors.
//
// Some upstream records are media-tagged and carry ranges, yet the first range
// has no start key. Such a record would fail conversion. The repair sets start
// and end on that first range to the empty string. Later ranges and records
// without a media tag are never touched.
package rangeanchor

import "github.com/custodia-labs/annomigrate/internal/core/domain"

// Name is the configuration name of this repairer.
const Name = "first_range_anchor"

// Processor implements the Repairer interface.
type Processor struct{}

// New creates a new first-range anchor repairer.
func New() *Processor {
	return &Processor{}
}

// Name returns the repairer name.
func (p *Processor) Name() string {
	return Name
}

// Repair applies the fix and reports whether the record changed.
func (p *Processor) Repair(record *domain.LegacyAnnotation) bool {
	if record == nil || !record.HasMedia() || len(record.Ranges) == 0 {
		return false
	}
	first := &record.Ranges[0]
	if first.Start != nil {
		return false
	}
	empty := ""
	first.Start = &empty
	end := ""
	first.End = &end
	return true
}
