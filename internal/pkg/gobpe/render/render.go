package render

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Lossy decodes b as UTF-8, replacing ill-formed bytes with U+FFFD.
func Lossy(b []byte) string {
	s, _, _ := transform.String(runes.ReplaceIllFormed(), string(b))
	return s
}

// Token renders a byte token for display: lossy UTF-8 with control and other
// non-printing characters escaped as \uXXXX.
func Token(b []byte) string {
	return EscapeControl(Lossy(b))
}

func EscapeControl(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if isOther(r) {
			fmt.Fprintf(&sb, "\\u%04x", r)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// isOther reports whether r is in Unicode general category C: control,
// format, surrogate, private use or unassigned.
func isOther(r rune) bool {
	return !unicode.In(r, unicode.L, unicode.M, unicode.N, unicode.P, unicode.S, unicode.Z)
}
