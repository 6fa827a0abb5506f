// Package postprocessors provides the repair steps applied to legacy records
// before they are converted to canonical form.
package postprocessors

import (
	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.RepairPipeline = (*Pipeline)(nil)

// Pipeline chains multiple Repairers and runs them in order.
type Pipeline struct {
	repairers []driven.Repairer
}

// NewPipeline creates a new repair pipeline with the given repairers.
// Repairers are executed in the order provided.
func NewPipeline(repairers ...driven.Repairer) *Pipeline {
	return &Pipeline{
		repairers: repairers,
	}
}

// Repair runs the record through all repairers in order and returns the
// names of those that changed it.
func (p *Pipeline) Repair(record *domain.LegacyAnnotation) []string {
	if record == nil {
		return nil
	}

	var applied []string
	for _, r := range p.repairers {
		if r.Repair(record) {
			applied = append(applied, r.Name())
		}
	}
	return applied
}

// Add appends a repairer to the pipeline.
func (p *Pipeline) Add(r driven.Repairer) {
	p.repairers = append(p.repairers, r)
}

// Len returns the number of repairers in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.repairers)
}

// Names returns the repairer names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.repairers))
	for i, r := range p.repairers {
		names[i] = r.Name()
	}
	return names
}
