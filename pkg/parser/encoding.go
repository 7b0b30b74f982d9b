package parser

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// fixEncoding repairs the mojibake found in Messenger and Instagram JSON
// exports, where UTF-8 bytes were decoded as latin-1 before being escaped.
// The string is re-encoded to latin-1 bytes; when those bytes form valid
// UTF-8 the repaired text is used, otherwise the input was fine as-is.
func fixEncoding(s string) string {
	if isASCII(s) {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		// Runes above U+00FF cannot come from a latin-1 mis-decode.
		return s
	}
	if raw == s || !utf8.ValidString(raw) {
		return s
	}
	return raw
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
