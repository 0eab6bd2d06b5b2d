package parser

import "strings"

// StripANSI removes terminal escape sequences from s. Error messages copied
// from a colored terminal carry them between the message and its location.
//
// Handled: CSI (ESC [ ... final), OSC (ESC ] ... BEL or ESC \), character set
// selection (ESC ( x, ESC ) x) and two-byte escapes.
func StripANSI(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '\x1b' {
			b.WriteByte(s[i])
			i++
			continue
		}
		i = skipEscape(s, i)
	}

	return b.String()
}

// skipEscape returns the index just past the escape sequence starting at i
func skipEscape(s string, i int) int {
	if i+1 >= len(s) {
		return i + 1
	}

	switch s[i+1] {
	case '[':
		i += 2
		for i < len(s) && s[i] >= 0x20 && s[i] <= 0x3F {
			i++
		}
		if i < len(s) && s[i] >= 0x40 && s[i] <= 0x7E {
			i++
		}
		return i
	case ']':
		i += 2
		for i < len(s) {
			if s[i] == '\x07' {
				return i + 1
			}
			if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2
			}
			i++
		}
		return i
	case '(', ')':
		return min(i+3, len(s))
	}

	if s[i+1] >= '0' && s[i+1] <= '~' {
		return i + 2
	}
	return i + 1
}
