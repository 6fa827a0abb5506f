package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexString holds a JSON scalar that the canonical schema treats as a string.
// Legacy records sometimes carry numbers or booleans where a string is expected
// (uri, user id). The original JSON is kept so raw artifacts are not rewritten;
// String returns the coerced form.
type FlexString struct {
	value string
	raw   json.RawMessage
}

// NewFlexString creates a FlexString from a plain string.
func NewFlexString(s string) FlexString {
	return FlexString{value: s}
}

// String returns the string form of the value.
func (f FlexString) String() string {
	return f.value
}

// Coerced drops the original JSON kind so the value encodes as a string.
func (f FlexString) Coerced() FlexString {
	return FlexString{value: f.value}
}

// IsString reports whether the value was (or will be encoded as) a JSON string.
func (f FlexString) IsString() bool {
	return len(f.raw) == 0
}

// MarshalJSON encodes the original JSON when it was not a string.
func (f FlexString) MarshalJSON() ([]byte, error) {
	if len(f.raw) > 0 {
		return f.raw, nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = FlexString{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString{value: s}
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("expected scalar, got %s", data[:1])
	default:
		var v any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return err
		}
		*f = FlexString{value: fmt.Sprint(v), raw: append(json.RawMessage(nil), data...)}
	}
	return nil
}
