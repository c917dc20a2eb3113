package recon

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strings"
)

// Code is one member of a closed status/quality taxonomy.
type Code string

// Codes shared across taxonomies. A taxonomy only ever returns its own
// members plus Unknown.
const (
	Unknown Code = "unknown"

	Pending    Code = "pending"
	Sent       Code = "sent"
	Error      Code = "error"
	Working    Code = "working"
	NoTemplate Code = "no_template"

	Connected    Code = "connected"
	Disconnected Code = "disconnected"
	Connecting   Code = "connecting"
	Banned       Code = "banned"

	Verified    Code = "verified"
	NotVerified Code = "not_verified"

	High   Code = "high"
	Medium Code = "medium"
	Low    Code = "low"
)

// Stem is a substring rule of the second classification pass.
type Stem struct {
	Fragment string
	Code     Code
}

// TaxonomyConfig declares a taxonomy. Numeric maps an upstream numeric code
// (the slice index) to its member. Stems are tried in order, so a stem that
// is a substring of another must come after it.
type TaxonomyConfig struct {
	Name     string
	Numeric  []Code
	Labels   map[Code]string
	Synonyms map[Code][]string
	Stems    []Stem
}

// Taxonomy classifies raw values into a closed set of codes.
// It is immutable after construction and safe for concurrent use.
type Taxonomy struct {
	name    string
	codes   []Code
	numeric []Code
	labels  map[Code]string
	exact   map[string]Code
	stems   []Stem
}

// NewTaxonomy builds a taxonomy. Every code string and display label is
// added to the exact table, so Classify(Label(c)) == c holds for each member.
func NewTaxonomy(cfg TaxonomyConfig) *Taxonomy {
	t := &Taxonomy{
		name:    cfg.Name,
		numeric: append([]Code(nil), cfg.Numeric...),
		labels:  make(map[Code]string, len(cfg.Labels)),
		exact:   make(map[string]Code),
	}

	seen := make(map[Code]bool)
	addCode := func(c Code) {
		if !seen[c] {
			seen[c] = true
			t.codes = append(t.codes, c)
		}
		t.exact[NormalizeText(string(c))] = c
	}

	for _, c := range cfg.Numeric {
		addCode(c)
	}
	for _, c := range slices.Sorted(maps.Keys(cfg.Synonyms)) {
		addCode(c)
		for _, s := range cfg.Synonyms[c] {
			if n := NormalizeText(s); n != "" {
				t.exact[n] = c
			}
		}
	}
	for _, c := range slices.Sorted(maps.Keys(cfg.Labels)) {
		label := cfg.Labels[c]
		addCode(c)
		t.labels[c] = label
		t.exact[NormalizeText(label)] = c
	}
	addCode(Unknown)

	for _, s := range cfg.Stems {
		if f := NormalizeText(s.Fragment); f != "" {
			t.stems = append(t.stems, Stem{Fragment: f, Code: s.Code})
		}
	}
	return t
}

// Name returns the taxonomy name.
func (t *Taxonomy) Name() string { return t.name }

// Codes returns the members of the taxonomy, Unknown included.
func (t *Taxonomy) Codes() []Code { return append([]Code(nil), t.codes...) }

// Label returns the display label of c, or the code itself when none is set.
func (t *Taxonomy) Label(c Code) string {
	if l, ok := t.labels[c]; ok {
		return l
	}
	return string(c)
}

// Classify maps v to exactly one code. Numeric codes in range are
// authoritative; text goes through the exact table, then the stems.
// Anything else is Unknown.
func (t *Taxonomy) Classify(v any) Code {
	if t == nil {
		return Unknown
	}
	v = unwrap(v)
	if n, ok := integerValue(v); ok && n >= 0 && n < len(t.numeric) {
		return t.numeric[n]
	}

	text := NormalizeText(scalarText(v))
	if text == "" || text == "null" {
		return Unknown
	}
	if c, ok := t.exact[text]; ok {
		return c
	}
	for _, s := range t.stems {
		if strings.Contains(text, s.Fragment) {
			return s.Code
		}
	}
	return Unknown
}

// integerValue reports whether v is a number with an integral value.
// Numeric strings are text and do not qualify.
func integerValue(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float32:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
