package textutil

import (
	"strings"
	"unicode"
)

// PathToken makes a case ID usable as a single path element. Letters and
// digits keep their case, '-', '_' and '.' survive, and each run of other
// runes becomes one underscore. Blank input, or input that reduces to dots,
// yields "case".
func PathToken(value string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	out := b.String()
	if strings.Trim(out, ".") == "" {
		return "case"
	}
	return out
}
