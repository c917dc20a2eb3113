package recon

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Instant is a parsed point in time or the Unparseable outcome.
// The zero value is Unparseable.
type Instant struct {
	t     time.Time
	valid bool
}

// Unparseable is the outcome for values that are not dates.
var Unparseable = Instant{}

// At wraps t. A zero time is Unparseable.
func At(t time.Time) Instant {
	if t.IsZero() {
		return Unparseable
	}
	return Instant{t: t, valid: true}
}

// Valid reports whether the instant was parsed.
func (i Instant) Valid() bool { return i.valid }

// Time returns the parsed time, zero when unparseable.
func (i Instant) Time() time.Time { return i.t }

// Compare orders instants; Unparseable sorts as infinitely old and two
// unparseable instants compare equal.
func (i Instant) Compare(o Instant) int {
	switch {
	case !i.valid && !o.valid:
		return 0
	case !i.valid:
		return -1
	case !o.valid:
		return 1
	}
	return i.t.Compare(o.t)
}

// FormatDisplay renders the instant in loc with layout, "-" when unparseable.
// An empty layout means dd/mm/yyyy HH:MM.
func (i Instant) FormatDisplay(layout string, loc *time.Location) string {
	if !i.valid {
		return "-"
	}
	if layout == "" {
		layout = "02/01/2006 15:04"
	}
	if loc == nil {
		loc = time.UTC
	}
	return i.t.In(loc).Format(layout)
}

var (
	isoZonedRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[Tt ](\d{2}):(\d{2})(?::(\d{2})(?:[.,](\d{1,9}))?)?\s*([Zz]|[+-]\d{2}(?::?\d{2})?)$`)
	isoLocalRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[Tt ](\d{2}):(\d{2})(?::(\d{2})(?:[.,](\d{1,9}))?)?)?$`)
	compactRe  = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	brDateRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:[ ,Tt]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
	bareNumRe  = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
	"2006/01/02",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05 -0700 MST",
	"Jan 2, 2006",
	"Jan 2, 2006 15:04:05",
	"02 Jan 2006",
	"02-01-2006",
	"02.01.2006",
}

// msThreshold separates epoch seconds from epoch milliseconds.
const msThreshold = 1e11

// DateParser turns heterogeneous date encodings into Instants.
// Location applies to encodings without an offset; nil means UTC.
type DateParser struct {
	Location *time.Location
}

// ParseDate parses v with a UTC DateParser.
func ParseDate(v any) Instant { return DateParser{}.Parse(v) }

// Parse tries, in order: time values, numeric epochs, ISO with offset,
// ISO local, yyyymmdd, dd/mm/yyyy, bare numeric strings as epochs and a set
// of generic layouts. It never fails; unknown shapes are Unparseable.
func (p DateParser) Parse(v any) Instant {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	switch t := unwrap(v).(type) {
	case nil, bool:
		return Unparseable
	case time.Time:
		return At(t)
	case *time.Time:
		if t == nil {
			return Unparseable
		}
		return At(*t)
	case Instant:
		return t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return p.parseString(t.String(), loc)
		}
		return fromEpoch(f)
	case float64:
		return fromEpoch(t)
	case float32:
		return fromEpoch(float64(t))
	case int:
		return fromEpoch(float64(t))
	case int64:
		return fromEpoch(float64(t))
	case string:
		return p.parseString(t, loc)
	}
	return Unparseable
}

func (p DateParser) parseString(s string, loc *time.Location) Instant {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return Unparseable
	}

	if m := isoZonedRe.FindStringSubmatch(s); m != nil {
		zone, ok := parseOffset(m[8])
		if !ok {
			return Unparseable
		}
		return buildInstant(m[1], m[2], m[3], m[4], m[5], m[6], m[7], zone)
	}
	if m := isoLocalRe.FindStringSubmatch(s); m != nil {
		return buildInstant(m[1], m[2], m[3], m[4], m[5], m[6], m[7], loc)
	}
	if m := compactRe.FindStringSubmatch(s); m != nil {
		if i := buildInstant(m[1], m[2], m[3], "", "", "", "", loc); i.Valid() {
			return i
		}
	}
	if m := brDateRe.FindStringSubmatch(s); m != nil {
		return buildInstant(m[3], m[2], m[1], m[4], m[5], m[6], "", loc)
	}
	if bareNumRe.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Unparseable
		}
		return fromEpoch(f)
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return At(t)
		}
	}
	return Unparseable
}

// fromEpoch reads seconds, or milliseconds above msThreshold. Non-positive
// epochs are treated as missing data.
func fromEpoch(f float64) Instant {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return Unparseable
	}
	if f > msThreshold {
		return At(time.UnixMilli(int64(f)).UTC())
	}
	sec, frac := math.Modf(f)
	return At(time.Unix(int64(sec), int64(frac*1e9)).UTC())
}

func parseOffset(z string) (*time.Location, bool) {
	if z == "Z" || z == "z" {
		return time.UTC, true
	}
	sign := 1
	if z[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(z[1:], ":", "")
	h, err := strconv.Atoi(digits[:2])
	if err != nil || h > 23 {
		return nil, false
	}
	m := 0
	if len(digits) == 4 {
		if m, err = strconv.Atoi(digits[2:]); err != nil || m > 59 {
			return nil, false
		}
	}
	return time.FixedZone("", sign*(h*3600+m*60)), true
}

// buildInstant assembles a calendar time and rejects out-of-range parts
// that time.Date would otherwise normalize (month 13, 31 February).
func buildInstant(y, mo, d, h, mi, s, frac string, loc *time.Location) Instant {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(mo)
	day, _ := strconv.Atoi(d)
	hour := atoiOr(h, 0)
	minute := atoiOr(mi, 0)
	second := atoiOr(s, 0)

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 60 {
		return Unparseable
	}
	if second == 60 {
		second = 59
	}
	nanos := 0
	if frac != "" {
		nanos, _ = strconv.Atoi((frac + "000000000")[:9])
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, nanos, loc)
	if t.Day() != day || int(t.Month()) != month {
		return Unparseable
	}
	return At(t)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
