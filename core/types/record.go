// Package types - Attribute records and encoded rows
package types

import "sort"

// Record is an immutable bag of raw, domain-specific attributes.
// It is created once per pricing request and never mutated by the pipeline.
type Record map[string]any

// Get returns the raw value for a key and whether it was present
func (r Record) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Has reports whether the key is present, even with a nil value
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Keys returns the record keys in sorted order
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy. Callers that need a modified record build it
// from a clone and leave the original untouched.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Row is a numeric-only record produced by the categorical encoder
type Row map[string]float64

// Clone returns a copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
