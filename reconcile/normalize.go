package reconcile

import (
	"strings"
	"unicode"
)

// minTokenLength is the shortest token NormalizeEntity keeps.
const minTokenLength = 3

// NormalizeEntity produces the display form of an entity's surface text:
// lowercased, everything except ASCII letters and whitespace removed, tokens
// of two characters or fewer dropped, survivors joined by single spaces.
// Returns "" when no token survives.
func NormalizeEntity(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range strings.ToLower(word) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	kept := tokens[:0]
	for _, tok := range tokens {
		if len(tok) >= minTokenLength {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}
