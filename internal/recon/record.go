package recon

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind selects how a resolved raw value is transformed.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindStatus
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindStatus:
		return "status"
	case KindNumber:
		return "number"
	default:
		return "text"
	}
}

// UnknownText is the display sentinel for unresolved text fields.
const UnknownText = "-"

// Value is a canonical field value: a known text, number, instant or code,
// or the unknown sentinel of its kind.
type Value struct {
	Kind    Kind
	Known   bool
	Text    string
	Number  float64
	Instant Instant
	Code    Code
}

// TextValue returns a known text value, or unknown when s is empty.
func TextValue(s string) Value {
	if s == "" {
		return Value{Kind: KindText}
	}
	return Value{Kind: KindText, Known: true, Text: s}
}

// NumberValue returns a known number.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Known: true, Number: f} }

// DateValue returns a date value; unparseable instants are unknown.
func DateValue(i Instant) Value { return Value{Kind: KindDate, Known: i.Valid(), Instant: i} }

// StatusValue returns a status value. Unknown is a code, not a missing value,
// but it does not count as known.
func StatusValue(c Code) Value {
	if c == "" {
		c = Unknown
	}
	return Value{Kind: KindStatus, Known: c != Unknown, Code: c}
}

// String renders the value for keys and comparisons. Unknown values are "".
func (v Value) String() string {
	if !v.Known {
		return ""
	}
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindDate:
		return v.Instant.Time().UTC().Format(time.RFC3339)
	case KindStatus:
		return string(v.Code)
	default:
		return v.Text
	}
}

// MarshalJSON projects the value for the presentation layer: unknown text is
// "-", unknown numbers and dates are null, statuses are always their code.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindStatus:
		c := v.Code
		if c == "" {
			c = Unknown
		}
		return json.Marshal(string(c))
	case KindNumber:
		if !v.Known {
			return []byte("null"), nil
		}
		return json.Marshal(v.Number)
	case KindDate:
		if !v.Known {
			return []byte("null"), nil
		}
		return json.Marshal(v.Instant.Time().Format(time.RFC3339))
	default:
		if !v.Known {
			return json.Marshal(UnknownText)
		}
		return json.Marshal(v.Text)
	}
}

// Record is a canonical record: every field declared by its table is
// present, with a concrete value or the unknown sentinel.
type Record struct {
	Entity string
	Fields map[string]Value
}

// Get returns the named field; undeclared fields read as unknown text.
func (r Record) Get(name string) Value {
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return Value{Kind: KindText}
}

// Text returns the field's string form, "" when unknown.
func (r Record) Text(name string) string { return r.Get(name).String() }

// Code returns the field's status code, Unknown for non-status fields.
func (r Record) Code(name string) Code {
	v := r.Get(name)
	if v.Kind != KindStatus || v.Code == "" {
		return Unknown
	}
	return v.Code
}

// Time returns the field's instant, Unparseable for non-date fields.
func (r Record) Time(name string) Instant {
	v := r.Get(name)
	if v.Kind != KindDate {
		return Unparseable
	}
	return v.Instant
}

// Number returns the field's number and whether it is known.
func (r Record) Number(name string) (float64, bool) {
	v := r.Get(name)
	if v.Kind != KindNumber || !v.Known {
		return 0, false
	}
	return v.Number, true
}

// MarshalJSON emits the record as a flat field -> value object.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Fields)
}
