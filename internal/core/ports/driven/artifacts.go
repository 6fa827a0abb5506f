package driven

// ArtifactStore reads and writes named JSON artifacts in an output location.
type ArtifactStore interface {
	// Prepare creates the output location. When it already exists and reuse
	// is false it returns domain.ErrOutputConflict.
	Prepare(reuse bool) error

	// Write encodes v with deterministic key order.
	Write(name string, v any) error

	// Read decodes the named artifact into v.
	// Returns domain.ErrNotFound when it does not exist.
	Read(name string, v any) error

	// List returns artifact names matching a glob pattern, sorted.
	List(pattern string) ([]string, error)

	// Location returns where artifacts are written.
	Location() string
}
