package normalize

import (
	"fmt"
	"strings"
)

// Phone converts a raw phone string to the canonical (XXX) XXX-XXXX
// form. 11-digit numbers with a leading 1 are treated as 10-digit US
// numbers. Anything else is returned verbatim — malformed phone
// numbers are preserved for the operator to fix, never rejected.
func Phone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return raw
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}
