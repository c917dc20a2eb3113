package recon

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FieldSpec declares one canonical field: the raw keys that may carry it,
// in priority order, and how the resolved value is transformed.
type FieldSpec struct {
	Name       string
	Candidates []string
	Kind       Kind
	// Taxonomy classifies KindStatus fields.
	Taxonomy *Taxonomy
}

// FieldTable is the static, per-entity declaration used by the mapper.
type FieldTable []FieldSpec

// Mapper canonicalizes raw records. The zero value parses dates in UTC.
type Mapper struct {
	Dates DateParser
}

// ToCanonical resolves every field of table from raw. The second result is
// false when no field resolved at all; such records are noise and dropped.
func (m Mapper) ToCanonical(raw RawRecord, table FieldTable) (Record, bool) {
	rec := Record{Fields: make(map[string]Value, len(table))}
	resolved := 0

	for _, f := range table {
		v, ok := Resolve(raw, f.Candidates)
		if ok {
			resolved++
		}
		rec.Fields[f.Name] = m.transform(f, v, ok)
	}
	return rec, resolved > 0
}

func (m Mapper) transform(f FieldSpec, v any, ok bool) Value {
	switch f.Kind {
	case KindStatus:
		if !ok {
			return StatusValue(Unknown)
		}
		return StatusValue(f.Taxonomy.Classify(v))
	case KindDate:
		if !ok {
			return DateValue(Unparseable)
		}
		return DateValue(m.Dates.Parse(v))
	case KindNumber:
		if !ok {
			return Value{Kind: KindNumber}
		}
		if n, ok := toNumber(v); ok {
			return NumberValue(n)
		}
		return Value{Kind: KindNumber}
	default:
		if !ok {
			return TextValue("")
		}
		return TextValue(scalarText(v))
	}
}

var currencyRe = regexp.MustCompile(`(?i)^(r\$|us\$|\$)\s*`)

// toNumber coerces numbers and numeric strings, including Brazilian
// formatting ("R$ 1.234,56"). NaN and infinities are not numbers.
func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, ok := parseNumberText(t)
		if !ok {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumberText(s string) (float64, bool) {
	s = strings.TrimSpace(currencyRe.ReplaceAllString(strings.TrimSpace(s), ""))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
