package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Name trims and title-cases a clinic or city display name.
func Name(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(s))
}

// State uppercases a state code ("tx" -> "TX").
func State(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Zip strips a trailing ".0" left behind by spreadsheet float coercion.
func Zip(raw string) string {
	z := strings.TrimSpace(raw)
	if idx := strings.Index(z, "."); idx > 0 {
		z = z[:idx]
	}
	return z
}

// Services splits a raw services cell on semicolons or commas and
// returns a trimmed, deduplicated list in original order.
func Services(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	sep := ","
	if strings.Contains(raw, ";") {
		sep = ";"
	}

	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, sep) {
		svc := strings.TrimSpace(part)
		if svc == "" {
			continue
		}
		key := strings.ToLower(svc)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, svc)
	}
	return out
}

// Email lowercases and strips wrapping punctuation from an email value.
func Email(raw string) string {
	e := strings.ToLower(strings.TrimSpace(raw))
	return strings.Trim(e, "\"'<>")
}
