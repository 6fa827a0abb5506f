// Package config holds the value coercions shared by the settings stores.
//
// Stored settings come back with whatever type the backend decoded: TOML
// gives int64 and []any, the memory store keeps what it was handed. The
// helpers below turn those into the types the settings service reads.
package config

// String returns v when it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int returns v as an int. Floats are truncated so a hand-edited
// page_size = 500.0 still reads as 500.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Float returns v as a float64. Integers are widened so rate_limit = 5
// and rate_limit = 5.0 both work.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

// Strings returns the string members of a list. Non-string members of a
// decoded []any are skipped; a nil result means v was not a list.
func Strings(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
