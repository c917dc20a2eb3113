package recon

import (
	"strings"
	"time"
)

// keySep joins key components; it is a control character (unit separator)
// that upstream text does not carry.
const keySep = "\x1f"

// Key namespaces. Primary and fallback keys can never be equal because
// their prefixes differ.
const (
	primaryNS  = "P"
	fallbackNS = "F"
	unkeyedNS  = "U"
)

// KeyNorm normalizes one key component. It returns "" for missing data.
type KeyNorm func(Value) string

// Digits keeps only digits; used for CPF/CNPJ, benefit and phone numbers.
func Digits(v Value) string { return DigitsOnly(v.String()) }

// Lower compares text case- and accent-insensitively.
func Lower(v Value) string { return NormalizeText(v.String()) }

// Minute truncates a date to the minute in UTC, so rows written a few
// seconds apart by the same upstream event share a key.
func Minute(v Value) string {
	if v.Kind != KindDate || !v.Known {
		return ""
	}
	return v.Instant.Time().UTC().Truncate(time.Minute).Format("200601021504")
}

// KeyPart is one component of an identity key.
type KeyPart struct {
	Field string
	Norm  KeyNorm
}

// KeySpec declares how an entity's identity key is derived. Fallback is used
// when every Primary component is empty.
type KeySpec struct {
	Primary  []KeyPart
	Fallback []KeyPart
}

// BuildKey derives the identity key of rec. It reports false when neither
// the primary nor the fallback components carry any data.
func BuildKey(rec Record, spec KeySpec) (string, bool) {
	if k, ok := composeKey(primaryNS, rec, spec.Primary); ok {
		return k, true
	}
	if k, ok := composeKey(fallbackNS, rec, spec.Fallback); ok {
		return k, true
	}
	return "", false
}

func composeKey(ns string, rec Record, parts []KeyPart) (string, bool) {
	if len(parts) == 0 {
		return "", false
	}
	comps := make([]string, 0, len(parts)+1)
	comps = append(comps, ns)
	found := false
	for _, p := range parts {
		norm := p.Norm
		if norm == nil {
			norm = Lower
		}
		c := norm(rec.Get(p.Field))
		if c != "" {
			found = true
		}
		comps = append(comps, c)
	}
	if !found {
		return "", false
	}
	return strings.Join(comps, keySep), true
}
