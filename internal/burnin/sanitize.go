package burnin

import (
	"strings"
	"unicode"
)

// SanitizeText strips control characters from overlay text and caps its
// length. Newlines and tabs collapse to single spaces so multi-line tracker
// descriptions stay on one slate line.
func SanitizeText(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}
