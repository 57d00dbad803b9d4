package yaml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeedsQuotingFast(t *testing.T) {
	tests := []struct {
		in        string
		flowOrKey bool
		want      bool
	}{
		{"plain", false, false},
		{"two words", false, false},
		{"", false, true},
		{" lead", false, true},
		{"trail ", false, true},
		{"-", false, true},
		{"- x", false, true},
		{"-x", false, false},
		{"?x", false, false},
		{"? x", false, true},
		{":x", false, false},
		{"key:", false, true},
		{"a: b", false, true},
		{"a:b", false, false},
		{"a:b", true, true},
		{"a,b", false, false},
		{"a,b", true, true},
		{"[x", false, true},
		{"x]", true, true},
		{"x #y", false, true},
		{"x#y", false, false},
		{"&a", false, true},
		{"*a", false, true},
		{"!t", false, true},
		{"%x", false, true},
		{"@x", false, true},
		{"`x", false, true},
		{"---", false, true},
		{"...x", false, true},
		{"tab\there", false, true},
		{"line\nbreak", false, true},
		{"bell\a", false, true},
	}

	for _, tt := range tests {
		if got := needsQuotingFast(tt.in, tt.flowOrKey); got != tt.want {
			t.Errorf("needsQuotingFast(%q, %v) = %v, want %v", tt.in, tt.flowOrKey, got, tt.want)
		}
	}
}

func TestAppendEscapedYAMLString(t *testing.T) {
	tests := []struct {
		in           string
		allowUnicode bool
		want         string
	}{
		{"plain", true, "plain"},
		{`q"b\`, true, `q\"b\\`},
		{"\x00\a\b\t\n\v\f\r\x1b", true, `\0\a\b\t\n\v\f\r\e`},
		{"\x01\x7f", true, `\x01\x7F`},
		{"\u0085\u00a0\u2028\u2029", false, `\N\_\L\P`},
		{"héllo", true, "héllo"},
		{"héllo", false, `h\xE9llo`},
		{"中", false, `\u4E2D`},
		{"😀", false, `\U0001F600`},
		{"\ufeff", true, `\uFEFF`},
		{"bad\xff", true, `bad\xFF`},
	}

	for _, tt := range tests {
		got := string(appendEscapedYAMLString(nil, tt.in, tt.allowUnicode))
		assert.Equal(t, tt.want, got, "escape %q", tt.in)
	}
}

func TestIsPrintable(t *testing.T) {
	for _, r := range []rune{'a', '~', 'é', '中', '😀', 0xE000} {
		assert.True(t, isPrintable(r), "%U", r)
	}
	for _, r := range []rune{'\t', '\n', 0x7F, 0x85, 0x2028, 0xFEFF, 0xFFFE} {
		assert.False(t, isPrintable(r), "%U", r)
	}
}

func TestAppendIndent(t *testing.T) {
	assert.Empty(t, appendIndent(nil, 0))
	assert.Equal(t, "x   ", string(appendIndent([]byte("x"), 3)))
	assert.Equal(t, strings.Repeat(" ", 100), string(appendIndent(nil, 100)))
}

func TestSortYAMLStrings(t *testing.T) {
	s := []string{"b", "a", "c", "a"}
	sortYAMLStrings(s)
	assert.Equal(t, []string{"a", "a", "b", "c"}, s)
}
