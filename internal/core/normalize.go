package core

import "strings"

// NormalizeKey canonicalizes an identifier cell into a comparable key:
// every character that is not an ASCII digit is dropped, then leading
// zeros are stripped. The result may be empty, and an empty key never
// matches anything.
//
//	NormalizeKey(Str(" 00-12 3A ")) == "123"
//	NormalizeKey(Str("0000"))       == ""
func NormalizeKey(c Cell) string {
	if c.IsEmpty() {
		return ""
	}
	return normalizeString(c.String())
}

func normalizeString(s string) string {
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if ch := s[i]; ch >= '0' && ch <= '9' {
			b.WriteByte(ch)
		}
	}

	return strings.TrimLeft(b.String(), "0")
}

// stripTargetPrefix removes a single leading occurrence of prefix from the
// trimmed identifier. Only the target side carries the prefix.
func stripTargetPrefix(raw, prefix string) string {
	raw = strings.TrimSpace(raw)
	if prefix == "" {
		return raw
	}
	return strings.TrimPrefix(raw, prefix)
}
