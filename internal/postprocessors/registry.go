package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/annomigrate/internal/core/ports/driven"
)

// BuilderFunc creates a Repairer from generic config.
type BuilderFunc func(cfg map[string]any) (driven.Repairer, error)

// Registry maps repairer names to their builders.
// It allows the pipeline to be assembled from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new repairer registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a repairer builder to the registry.
// Name should be unique and match the repairer's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a repairer by name with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.Repairer, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown repairer: %s", name)
	}
	return builder(cfg)
}

// BuildPipeline creates a pipeline from an ordered list of names.
func (r *Registry) BuildPipeline(names []string) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range names {
		repairer, err := r.Build(name, nil)
		if err != nil {
			return nil, err
		}
		p.Add(repairer)
	}
	return p, nil
}

// Has returns true if a repairer with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered repairer names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
