package recon

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
	}{
		{"iso zulu", "2024-03-10T14:30:00Z"},
		{"iso offset", "2024-03-10T11:30:00-03:00"},
		{"iso offset without colon", "2024-03-10T11:30:00-0300"},
		{"iso millis", "2024-03-10T14:30:00.000Z"},
		{"iso space separator", "2024-03-10 14:30:00"},
		{"iso local minutes", "2024-03-10T14:30"},
		{"br date time", "10/03/2024 14:30"},
		{"br date time seconds", "10/03/2024 14:30:00"},
		{"epoch seconds string", "1710081000"},
		{"epoch seconds number", json.Number("1710081000")},
		{"epoch millis number", json.Number("1710081000000")},
		{"epoch float", float64(1710081000)},
		{"epoch int", int64(1710081000)},
		{"rfc1123", "Sun, 10 Mar 2024 14:30:00 GMT"},
		{"time value", want},
		{"wrapped in array", []any{"2024-03-10T14:30:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.in)
			if !got.Valid() {
				t.Fatalf("ParseDate(%#v) is unparseable", tt.in)
			}
			if !got.Time().Equal(want) {
				t.Errorf("ParseDate(%#v) = %s, want %s", tt.in, got.Time().UTC(), want)
			}
		})
	}
}

func TestParseDateOnly(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-15", "20240115", "15/01/2024", "15/1/2024"} {
		got := ParseDate(in)
		if !got.Time().Equal(want) {
			t.Errorf("ParseDate(%q) = %v (valid %v), want %s", in, got.Time(), got.Valid(), want)
		}
	}
}

func TestParseDateUnparseable(t *testing.T) {
	tests := []any{
		nil,
		"",
		"   ",
		"null",
		"not a date",
		"31/02/2024",
		"2024-13-01",
		"2024-02-30T10:00:00Z",
		"25:00",
		true,
		json.Number("0"),
		-5,
		map[string]any{"date": "2024-01-15"},
		[]any{},
	}
	for _, in := range tests {
		if got := ParseDate(in); got.Valid() {
			t.Errorf("ParseDate(%#v) = %s, want unparseable", in, got.Time())
		}
	}
}

func TestDateParserLocation(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	p := DateParser{Location: brt}
	want := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

	if got := p.Parse("10/03/2024 11:30"); !got.Time().Equal(want) {
		t.Errorf("local br date = %s, want %s", got.Time().UTC(), want)
	}
	if got := p.Parse("2024-03-10 11:30:00"); !got.Time().Equal(want) {
		t.Errorf("local iso date = %s, want %s", got.Time().UTC(), want)
	}
	// Explicit offsets and epochs ignore the configured location.
	if got := p.Parse("2024-03-10T14:30:00Z"); !got.Time().Equal(want) {
		t.Errorf("zoned iso date = %s, want %s", got.Time().UTC(), want)
	}
	if got := p.Parse(json.Number("1710081000")); !got.Time().Equal(want) {
		t.Errorf("epoch = %s, want %s", got.Time().UTC(), want)
	}
}

func TestInstantCompare(t *testing.T) {
	older := ParseDate("2024-01-15T10:00:00Z")
	newer := ParseDate("2024-01-15T10:00:05Z")

	tests := []struct {
		name string
		a, b Instant
		want int
	}{
		{"older before newer", older, newer, -1},
		{"newer after older", newer, older, 1},
		{"equal", older, older, 0},
		{"unparseable oldest", Unparseable, older, -1},
		{"parsed beats unparseable", older, Unparseable, 1},
		{"two unparseable equal", Unparseable, Unparseable, 0},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%s: Compare = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestInstantFormatDisplay(t *testing.T) {
	i := ParseDate("2024-03-10T14:30:00Z")
	brt := time.FixedZone("BRT", -3*3600)

	if got := i.FormatDisplay("", brt); got != "10/03/2024 11:30" {
		t.Errorf("FormatDisplay = %q", got)
	}
	if got := i.FormatDisplay("2006-01-02", nil); got != "2024-03-10" {
		t.Errorf("FormatDisplay = %q", got)
	}
	if got := Unparseable.FormatDisplay("", nil); got != "-" {
		t.Errorf("FormatDisplay(unparseable) = %q", got)
	}
}

func TestAtZeroTime(t *testing.T) {
	if At(time.Time{}).Valid() {
		t.Error("At(zero) should be unparseable")
	}
}
