package normalize

import (
	"net/url"
	"strings"
)

// Website converts a raw website value to a canonical absolute URL.
// Schemeless inputs get https:// prepended; an empty path becomes "/".
// Empty input yields "", and unparseable input yields the trimmed
// original — this function never fails.
func Website(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return trimmed
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
