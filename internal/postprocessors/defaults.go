package postprocessors

import (
	"github.com/custodia-labs/annomigrate/internal/core/domain"
	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
	"github.com/custodia-labs/annomigrate/internal/postprocessors/rangeanchor"
)

// RegisterDefaults registers all built-in repairers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(rangeanchor.Name, buildRangeAnchor)
}

// DefaultPipeline returns the pipeline used when nothing is configured.
func DefaultPipeline() *Pipeline {
	r := NewRegistry()
	RegisterDefaults(r)
	p, err := r.BuildPipeline([]string{domain.DefaultRepairPipeline})
	if err != nil {
		panic(err) // built-in names are always registered
	}
	return p
}

// buildRangeAnchor creates the first-range anchor repairer. It takes no config.
func buildRangeAnchor(_ map[string]any) (driven.Repairer, error) {
	return rangeanchor.New(), nil
}
