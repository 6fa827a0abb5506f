package domain

import "encoding/json"

// SearchFilter scopes a search. An empty ContextID means all collections.
type SearchFilter struct {
	ContextID string
}

// Page is one response from the search service.
type Page struct {
	Rows  []LegacyAnnotation `json:"rows"`
	Size  int                `json:"size"`
	Total int                `json:"total"`

	// Raw is the response body as received, kept for page artifacts.
	Raw json.RawMessage `json:"-"`
}

// DuplicateObservation records a row discarded because its identifier was
// already in the corpus. It is reported, never raised.
type DuplicateObservation struct {
	ID     ID  `json:"id"`
	Page   int `json:"page"`
	Offset int `json:"offset"`
}

// PullStats summarises one accumulation run.
type PullStats struct {
	// Expected is the total reported by the size request. It is informational.
	Expected int

	Pages      int
	Fetched    int
	Unique     int
	Duplicates []DuplicateObservation

	// NextOffset is where a resumed pull would start.
	NextOffset int
}

// Corpus is a unique-by-identifier collection of legacy records.
// Records keep their first-seen order so artifacts are stable between runs.
type Corpus struct {
	index   map[string]int
	records []LegacyAnnotation
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{index: make(map[string]int)}
}

// Add inserts a record unless its identifier is already present.
// It returns false for duplicates. Records without an identifier are always
// kept so normalisation can report them.
func (c *Corpus) Add(a LegacyAnnotation) bool {
	if a.ID.IsZero() {
		c.records = append(c.records, a)
		return true
	}
	key := a.ID.Key()
	if _, exists := c.index[key]; exists {
		return false
	}
	c.index[key] = len(c.records)
	c.records = append(c.records, a)
	return true
}

// Has reports whether id is in the corpus.
func (c *Corpus) Has(id ID) bool {
	_, ok := c.index[id.Key()]
	return ok
}

// Get returns the record stored under id.
func (c *Corpus) Get(id ID) (LegacyAnnotation, bool) {
	i, ok := c.index[id.Key()]
	if !ok {
		return LegacyAnnotation{}, false
	}
	return c.records[i], true
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	return len(c.records)
}

// Records returns the records in first-seen order.
func (c *Corpus) Records() []LegacyAnnotation {
	out := make([]LegacyAnnotation, len(c.records))
	copy(out, c.records)
	return out
}
