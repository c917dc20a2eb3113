package logger

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// 000.000.000-00, 00.000.000/0000-00 or their bare digit forms.
	documentRegex = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b|\b\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}\b`)
	phoneRegex    = regexp.MustCompile(`\+?\b(?:55\s?)?\(?\d{2}\)?\s?9?\d{4}[-\s]?\d{4}\b`)
)

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	switch {
	case strings.Contains(key, "email"):
		return RedactEmail(val)
	case strings.Contains(key, "cpf") || strings.Contains(key, "cnpj") || strings.Contains(key, "document"):
		return RedactDocument(val)
	case strings.Contains(key, "phone") || strings.Contains(key, "telefone"):
		return RedactPhone(val)
	}
	// Redact PII embedded in generic fields
	val = emailRegex.ReplaceAllStringFunc(val, RedactEmail)
	val = documentRegex.ReplaceAllStringFunc(val, RedactDocument)
	return phoneRegex.ReplaceAllStringFunc(val, RedactPhone)
}

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactDocument keeps the last two digits of a CPF/CNPJ.
// "123.456.789-09" → "***.***.***-09"
func RedactDocument(doc string) string {
	d := digits(doc)
	if len(d) < 2 {
		return "***"
	}
	return "***.***.***-" + d[len(d)-2:]
}

// RedactPhone keeps the last four digits of a phone number.
// "+55 11 98765-4321" → "*****4321"
func RedactPhone(phone string) string {
	d := digits(phone)
	if len(d) < 4 {
		return "***"
	}
	return "*****" + d[len(d)-4:]
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
