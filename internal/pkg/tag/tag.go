// Package tag normalizes free-form display names into payment tags.
// A tag is the short alphanumeric handle payment links are routed to.
package tag

import "strings"

// MaxLength is the maximum tag length after normalization.
const MaxLength = 20

// Normalize extracts a tag from free-form display-name text.
// It strips one leading @, removes every character outside [A-Za-z0-9_],
// and truncates the result to MaxLength runes. The second return value is
// false when nothing normalizable remains.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")

	var b strings.Builder
	for _, r := range s {
		if isTagRune(r) {
			b.WriteRune(r)
			if b.Len() == MaxLength {
				break
			}
		}
	}

	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

func isTagRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}
