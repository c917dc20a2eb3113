package recon

import (
	"strings"
	"testing"
)

var personKey = KeySpec{
	Primary: []KeyPart{
		{Field: "document", Norm: Digits},
		{Field: "login"},
	},
	Fallback: []KeyPart{
		{Field: "updatedAt", Norm: Minute},
		{Field: "status"},
	},
}

func keyRecord(fields map[string]Value) Record { return Record{Fields: fields} }

func TestBuildKeyPrimary(t *testing.T) {
	a := keyRecord(map[string]Value{
		"document": TextValue("123.456.789-09"),
		"login":    TextValue("Maria.Silva"),
	})
	b := keyRecord(map[string]Value{
		"document": TextValue("12345678909"),
		"login":    TextValue(" maria.silva"),
	})

	ka, ok := BuildKey(a, personKey)
	if !ok {
		t.Fatal("expected primary key")
	}
	kb, _ := BuildKey(b, personKey)
	if ka != kb {
		t.Errorf("keys differ: %q vs %q", ka, kb)
	}
	if !strings.HasPrefix(ka, primaryNS+keySep) {
		t.Errorf("key %q not in primary namespace", ka)
	}
}

func TestBuildKeyPartialPrimary(t *testing.T) {
	rec := keyRecord(map[string]Value{"login": TextValue("ana")})
	k, ok := BuildKey(rec, personKey)
	if !ok {
		t.Fatal("one non-empty primary component should key the record")
	}
	if !strings.HasPrefix(k, primaryNS+keySep) {
		t.Errorf("key %q not in primary namespace", k)
	}
}

func TestBuildKeyFallback(t *testing.T) {
	rec := keyRecord(map[string]Value{
		"updatedAt": DateValue(ParseDate("2024-01-15T10:00:05Z")),
		"status":    StatusValue(Sent),
	})
	k, ok := BuildKey(rec, personKey)
	if !ok {
		t.Fatal("expected fallback key")
	}
	want := strings.Join([]string{fallbackNS, "202401151000", "sent"}, keySep)
	if k != want {
		t.Errorf("key = %q, want %q", k, want)
	}
}

func TestBuildKeyMinuteTruncation(t *testing.T) {
	a := keyRecord(map[string]Value{"updatedAt": DateValue(ParseDate("2024-01-15T10:00:05Z"))})
	b := keyRecord(map[string]Value{"updatedAt": DateValue(ParseDate("2024-01-15T07:00:59-03:00"))})
	ka, _ := BuildKey(a, personKey)
	kb, _ := BuildKey(b, personKey)
	if ka != kb {
		t.Errorf("same minute should share a key: %q vs %q", ka, kb)
	}
}

func TestBuildKeyNamespaces(t *testing.T) {
	spec := KeySpec{
		Primary:  []KeyPart{{Field: "a"}},
		Fallback: []KeyPart{{Field: "b"}},
	}
	primary := keyRecord(map[string]Value{"a": TextValue("x")})
	fallback := keyRecord(map[string]Value{"b": TextValue("x")})

	kp, _ := BuildKey(primary, spec)
	kf, _ := BuildKey(fallback, spec)
	if kp == kf {
		t.Errorf("primary and fallback keys collide: %q", kp)
	}
}

func TestBuildKeyComponentBoundaries(t *testing.T) {
	spec := KeySpec{Primary: []KeyPart{{Field: "a"}, {Field: "b"}}}
	r1 := keyRecord(map[string]Value{"a": TextValue("ab"), "b": TextValue("c")})
	r2 := keyRecord(map[string]Value{"a": TextValue("a"), "b": TextValue("bc")})
	k1, _ := BuildKey(r1, spec)
	k2, _ := BuildKey(r2, spec)
	if k1 == k2 {
		t.Errorf("different components produced the same key %q", k1)
	}
}

func TestBuildKeyUnkeyable(t *testing.T) {
	rec := keyRecord(map[string]Value{
		"status":    StatusValue(Unknown),
		"updatedAt": DateValue(Unparseable),
	})
	if k, ok := BuildKey(rec, personKey); ok {
		t.Errorf("expected no key, got %q", k)
	}
	if _, ok := BuildKey(rec, KeySpec{}); ok {
		t.Error("empty spec should never key")
	}
}
