package core

import (
	"strings"
	"unicode"
)

// Normalize returns the canonical form of text: every character that is not
// an ASCII letter, ASCII digit or whitespace is removed, letters are
// lower-cased, and surrounding whitespace is trimmed.
//
// Normalize is the only producer of canonical text. Storage keys and
// similarity input must both come from it.
func Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			sb.WriteRune(r)
		case 'A' <= r && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		case IsSpace(r):
			sb.WriteRune(r)
		}
	}
	return TrimSpace(sb.String())
}

// IsSpace reports whether r counts as whitespace for normalization.
// This is the Unicode White_Space set plus the ASCII information
// separators U+001C through U+001F.
func IsSpace(r rune) bool {
	if r >= 0x1c && r <= 0x1f {
		return true
	}
	return unicode.IsSpace(r)
}

// TrimSpace trims leading and trailing runes for which IsSpace is true.
func TrimSpace(s string) string {
	return strings.TrimFunc(s, IsSpace)
}
