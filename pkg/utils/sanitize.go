package utils

import (
	"strings"
)

// StripMarkup removes every HTML/XML tag from user input, leaving plain
// text. Entities are left escaped as-is. Ticket subjects, descriptions
// and messages pass through here before storage because both client and
// staff render this content unescaped in some contexts.
func StripMarkup(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			if inTag {
				inTag = false
			} else {
				b.WriteRune(r)
			}
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
