package recon

import (
	"encoding/json"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		raw        RawRecord
		candidates []string
		want       any
		wantOK     bool
	}{
		{"first candidate wins", RawRecord{"cpf": "111", "documento": "222"}, []string{"cpf", "documento"}, "111", true},
		{"skips missing key", RawRecord{"documento": "222"}, []string{"cpf", "documento"}, "222", true},
		{"skips empty string", RawRecord{"cpf": "", "documento": "222"}, []string{"cpf", "documento"}, "222", true},
		{"skips blank string", RawRecord{"cpf": "   ", "documento": "222"}, []string{"cpf", "documento"}, "222", true},
		{"skips literal null", RawRecord{"cpf": "NULL", "documento": "222"}, []string{"cpf", "documento"}, "222", true},
		{"skips nil", RawRecord{"cpf": nil, "documento": "222"}, []string{"cpf", "documento"}, "222", true},
		{"unwraps single element array", RawRecord{"nome": []any{"Maria"}}, []string{"nome"}, "Maria", true},
		{"empty array is absent", RawRecord{"nome": []any{}, "name": "Ana"}, []string{"nome", "name"}, "Ana", true},
		{"array wrapping null is absent", RawRecord{"nome": []any{nil}, "name": "Ana"}, []string{"nome", "name"}, "Ana", true},
		{"keeps numbers", RawRecord{"margem": json.Number("10.5")}, []string{"margem"}, json.Number("10.5"), true},
		{"keeps false", RawRecord{"ativo": false}, []string{"ativo"}, false, true},
		{"all absent", RawRecord{"cpf": "null"}, []string{"cpf", "documento"}, nil, false},
		{"nil record", nil, []string{"cpf"}, nil, false},
		{"no candidates", RawRecord{"cpf": "1"}, nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.raw, tt.candidates)
			if ok != tt.wantOK {
				t.Fatalf("Resolve ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Resolve = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	tests := map[string]string{
		"  Não Enviado ":   "nao enviado",
		"NOT_VERIFIED":     "not verified",
		"Em   Análise":     "em analise",
		"pending-approval": "pending approval",
		"":                 "",
	}
	for in, want := range tests {
		if got := NormalizeText(in); got != want {
			t.Errorf("NormalizeText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("123.456.789-09"); got != "12345678909" {
		t.Errorf("DigitsOnly = %q", got)
	}
	if got := DigitsOnly("+55 (11) 98765-4321"); got != "5511987654321" {
		t.Errorf("DigitsOnly = %q", got)
	}
	if got := DigitsOnly("abc"); got != "" {
		t.Errorf("DigitsOnly = %q", got)
	}
}
