package domain

// Comparison classifies every record of corpus A against corpus B.
type Comparison struct {
	// Matched holds the original A records, before drift stripping.
	Matched []LegacyAnnotation

	Mismatched []MismatchedPair

	// Missing holds A records whose identifier is absent from B.
	Missing []LegacyAnnotation
}

// MismatchedPair holds both sides after drift stripping.
type MismatchedPair struct {
	A       LegacyAnnotation `json:"a"`
	B       LegacyAnnotation `json:"b"`
	Changes []FieldChange    `json:"changes,omitempty"`
}

// FieldChange describes one difference inside a mismatched pair.
type FieldChange struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	From any    `json:"from,omitempty"`
	To   any    `json:"to,omitempty"`
}

// Clean reports whether nothing was mismatched or missing.
func (c *Comparison) Clean() bool {
	return len(c.Mismatched) == 0 && len(c.Missing) == 0
}
