package domain

// OutcomeKind classifies the result of normalising one record.
type OutcomeKind int

const (
	// OutcomeOK means the record converted to canonical form.
	OutcomeOK OutcomeKind = iota

	// OutcomeRejected means the record failed the shape pre-check.
	OutcomeRejected

	// OutcomeFailed means the record passed the pre-check but could not be converted.
	OutcomeFailed
)

// String returns the bucket name for the outcome.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-record result threaded through batch normalisation.
// Exactly one of Canonical or Err is set.
type Outcome struct {
	Kind      OutcomeKind
	Source    LegacyAnnotation
	Canonical *CanonicalAnnotation
	Err       error
	Repaired  bool
}

// FailedRecord is a record routed to the rejected or error bucket.
type FailedRecord struct {
	Record LegacyAnnotation `json:"record"`
	Reason string           `json:"reason"`
}

// BatchResult partitions a batch. Every input lands in exactly one of
// Canonical, Errors or Rejected.
type BatchResult struct {
	Canonical []CanonicalAnnotation
	Errors    []FailedRecord
	Rejected  []FailedRecord

	// Repaired counts records fixed by the repair pipeline.
	Repaired int
}

// Total returns the number of records across all buckets.
func (r *BatchResult) Total() int {
	return len(r.Canonical) + len(r.Errors) + len(r.Rejected)
}

// Add routes an outcome into its bucket.
func (r *BatchResult) Add(o Outcome) {
	if o.Repaired {
		r.Repaired++
	}
	switch o.Kind {
	case OutcomeOK:
		r.Canonical = append(r.Canonical, *o.Canonical)
	case OutcomeRejected:
		r.Rejected = append(r.Rejected, FailedRecord{Record: o.Source, Reason: errText(o.Err)})
	default:
		r.Errors = append(r.Errors, FailedRecord{Record: o.Source, Reason: errText(o.Err)})
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
