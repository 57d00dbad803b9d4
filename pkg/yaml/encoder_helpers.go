package yaml

import (
	"strings"
	"unicode/utf8"
)

const hexDigits = "0123456789ABCDEF"

// Pre-computed runs of spaces to avoid strings.Repeat on the hot path.
const maxCachedIndent = 64

var indentTable [maxCachedIndent][]byte

func init() {
	for i := range indentTable {
		indentTable[i] = make([]byte, i)
		for j := range indentTable[i] {
			indentTable[i][j] = ' '
		}
	}
}

// appendIndent appends n spaces to buf.
func appendIndent(buf []byte, n int) []byte {
	if n <= 0 {
		return buf
	}
	if n < maxCachedIndent {
		return append(buf, indentTable[n]...)
	}
	for i := 0; i < n; i++ {
		buf = append(buf, ' ')
	}
	return buf
}

// isPrintable reports whether r may be written as is inside a scalar. Line
// breaks and tabs are not printable here; callers allow them where the
// style permits.
func isPrintable(r rune) bool {
	switch {
	case r >= 0x20 && r <= 0x7E:
		return true
	case r == 0xFEFF:
		return false
	case r >= 0xA0 && r <= 0xD7FF:
		return r != 0x2028 && r != 0x2029
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// appendEscapedYAMLString appends s escaped for a double-quoted scalar
// (without surrounding quotes). Non-ASCII characters are escaped too unless
// allowUnicode is set.
func appendEscapedYAMLString(buf []byte, s string, allowUnicode bool) []byte {
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= 0x20 && c <= 0x7E && c != '"' && c != '\\' {
			i++
			continue
		}

		r, size := rune(c), 1
		if c >= utf8.RuneSelf {
			r, size = utf8.DecodeRuneInString(s[i:])
			if r != utf8.RuneError && isPrintable(r) && allowUnicode {
				i += size
				continue
			}
		}

		buf = append(buf, s[start:i]...)
		switch r {
		case 0:
			buf = append(buf, `\0`...)
		case '\a':
			buf = append(buf, `\a`...)
		case '\b':
			buf = append(buf, `\b`...)
		case '\t':
			buf = append(buf, `\t`...)
		case '\n':
			buf = append(buf, `\n`...)
		case '\v':
			buf = append(buf, `\v`...)
		case '\f':
			buf = append(buf, `\f`...)
		case '\r':
			buf = append(buf, `\r`...)
		case 0x1B:
			buf = append(buf, `\e`...)
		case '"':
			buf = append(buf, `\"`...)
		case '\\':
			buf = append(buf, `\\`...)
		case 0x85:
			buf = append(buf, `\N`...)
		case 0xA0:
			buf = append(buf, `\_`...)
		case 0x2028:
			buf = append(buf, `\L`...)
		case 0x2029:
			buf = append(buf, `\P`...)
		default:
			switch {
			case r == utf8.RuneError && size == 1:
				buf = appendHexEscape(buf, 'x', uint32(c), 2)
			case r <= 0xFF:
				buf = appendHexEscape(buf, 'x', uint32(r), 2)
			case r <= 0xFFFF:
				buf = appendHexEscape(buf, 'u', uint32(r), 4)
			default:
				buf = appendHexEscape(buf, 'U', uint32(r), 8)
			}
		}
		i += size
		start = i
	}
	return append(buf, s[start:]...)
}

func appendHexEscape(buf []byte, kind byte, v uint32, digits int) []byte {
	buf = append(buf, '\\', kind)
	for shift := (digits - 1) * 4; shift >= 0; shift -= 4 {
		buf = append(buf, hexDigits[(v>>uint(shift))&0xF])
	}
	return buf
}

// needsQuotingFast reports whether s has a shape that cannot be read back as
// a plain scalar: indicator characters where the scanner would act on them,
// surrounding spaces or document markers. flowOrKey adds the characters that
// end a plain scalar inside flow collections and keys. Whether the text
// would resolve to another type is up to the caller.
func needsQuotingFast(s string, flowOrKey bool) bool {
	if len(s) == 0 {
		return true
	}
	if s[0] == ' ' || s[len(s)-1] == ' ' {
		return true
	}

	switch s[0] {
	case '[', ']', '{', '}', ',', '#', '&', '*', '!', '|', '>', '\'', '"', '%', '@', '`':
		return true
	case '-', '?', ':':
		if len(s) == 1 || s[1] == ' ' {
			return true
		}
	}
	if strings.HasPrefix(s, "---") || strings.HasPrefix(s, "...") {
		return true
	}
	if s[len(s)-1] == ':' {
		return true
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\n', '\r', '\t':
			return true
		case ':':
			if i+1 < len(s) && s[i+1] == ' ' {
				return true
			}
			if flowOrKey {
				return true
			}
		case '#':
			if s[i-1] == ' ' {
				return true
			}
		case ',', '[', ']', '{', '}':
			if flowOrKey {
				return true
			}
		}
		if c < 0x20 {
			return true
		}
	}
	return false
}

// sortYAMLStrings sorts a string slice in-place using insertion sort.
// For the small key counts typical in YAML maps (< 20 keys) this is
// faster than sort.Strings because it avoids the interface overhead.
func sortYAMLStrings(s []string) {
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j] > key {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}
