package domain

// OverrideCanImport lets an import keep the identifiers and timestamps of the
// records it writes.
const OverrideCanImport = "CAN_IMPORT"

// ImportOverride is the authorisation override sent with an import.
type ImportOverride []string

// Allows reports whether the override grants perm.
func (o ImportOverride) Allows(perm string) bool {
	for _, p := range o {
		if p == perm {
			return true
		}
	}
	return false
}

// ImportResult separates written records from failed ones.
type ImportResult struct {
	Imported []ID
	Failed   []ImportFailure
}

// ImportFailure is a record the destination refused. Failures are collected,
// never raised.
type ImportFailure struct {
	Record CanonicalAnnotation `json:"record"`
	Reason string              `json:"reason"`
}

// DeleteResult reports a context deletion.
type DeleteResult struct {
	Deleted int
	Failed  []DeleteFailure
}

// DeleteFailure is an annotation that could not be deleted.
type DeleteFailure struct {
	ID     ID     `json:"id"`
	Reason string `json:"reason"`
}

// Reasons reported by destination stores for refused records.
const (
	ReasonExists        = "annotation already exists"
	ReasonParentMissing = "parent annotation missing"
	ReasonNotFound      = "annotation not found"
)
