package driven

import "github.com/custodia-labs/annomigrate/internal/core/domain"

// Repairer fixes a known upstream data defect in place before conversion.
// Repairers are chained in a pipeline.
type Repairer interface {
	// Name returns the repairer name for logging and configuration.
	Name() string

	// Repair modifies the record and reports whether anything changed.
	Repair(record *domain.LegacyAnnotation) bool
}

// RepairPipeline chains multiple Repairers.
type RepairPipeline interface {
	// Repair runs the record through all repairers in order and returns the
	// names of those that changed it.
	Repair(record *domain.LegacyAnnotation) []string
}
