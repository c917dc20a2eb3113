// Package recon reconciles records coming from inconsistently shaped
// upstream sources into one canonical, deduplicated view per entity.
//
// The package is pure: it performs no I/O, holds no shared mutable state and
// never returns errors. Missing data degrades to explicit sentinels (unknown
// values, unparseable instants, the Unknown code) instead of failing a batch.
package recon

import (
	"encoding/json"
	"strings"
)

// RawRecord is one upstream row exactly as decoded from JSON.
type RawRecord map[string]any

// Resolve returns the first present value among candidates, in order.
// Single-element arrays are unwrapped. nil, blank strings and the literal
// "null" (any case) count as absent.
func Resolve(raw RawRecord, candidates []string) (any, bool) {
	for _, key := range candidates {
		v, ok := raw[key]
		if !ok {
			continue
		}
		v = unwrap(v)
		if isAbsent(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

// unwrap takes element 0 of an array-wrapped scalar. Empty arrays are nil.
func unwrap(v any) any {
	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			return nil
		}
		return t[0]
	case []string:
		if len(t) == 0 {
			return nil
		}
		return t[0]
	}
	return v
}

func isAbsent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || strings.EqualFold(s, "null")
	case json.Number:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}
