package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// ID is an opaque annotation identifier.
// The source may send it as a JSON string or a JSON integer; ID keeps the
// textual value and remembers which kind it was so it round-trips unchanged.
type ID struct {
	value   string
	numeric bool
}

// StringID creates an identifier that encodes as a JSON string.
func StringID(s string) ID {
	return ID{value: s}
}

// IntID creates an identifier that encodes as a JSON number.
func IntID(n int64) ID {
	return ID{value: fmt.Sprintf("%d", n), numeric: true}
}

// String returns the textual form of the identifier.
func (id ID) String() string {
	return id.value
}

// Key returns the value used for indexing and duplicate detection.
// A numeric 5 and a string "5" share the same key.
func (id ID) Key() string {
	return id.value
}

// IsZero reports whether the identifier is absent.
func (id ID) IsZero() bool {
	return id.value == ""
}

// IsNumeric reports whether the source sent the identifier as a JSON number.
func (id ID) IsNumeric() bool {
	return id.numeric
}

// integral returns the identifier as a big integer when its text is one.
func (id ID) integral() (*big.Int, bool) {
	if id.value == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(id.value, 10)
	return n, ok
}

// Less defines the total order used for import ordering.
// Integral identifiers compare numerically and sort before non-integral ones;
// everything else compares byte-wise.
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}

// Compare returns -1, 0 or +1 following the ordering described on Less.
func (id ID) Compare(other ID) int {
	a, aok := id.integral()
	b, bok := other.integral()
	switch {
	case aok && bok:
		return a.Cmp(b)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return strings.Compare(id.value, other.value)
	}
}

// MarshalJSON encodes the identifier using the kind it was decoded with.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID{value: n.String(), numeric: true}
	return nil
}
