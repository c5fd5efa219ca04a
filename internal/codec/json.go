// Package codec implements the column value conversions used by the cache
// schema. All decoders are tolerant: malformed stored values degrade to a
// type-appropriate zero instead of failing the read.
package codec

import "encoding/json"

// EncodeJSON marshals v for column storage. Unmarshalable values become
// "null" rather than an error; rows are never rejected over a payload field.
func EncodeJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// DecodeJSONSlice parses a stored JSON array. Empty or malformed input yields
// a nil slice.
func DecodeJSONSlice[T any](s string) []T {
	if s == "" {
		return nil
	}
	var out []T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// DecodeJSONObject parses a stored JSON object into T. Empty or malformed
// input yields the zero value.
func DecodeJSONObject[T any](s string) T {
	var out T
	if s == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		var zero T
		return zero
	}
	return out
}
