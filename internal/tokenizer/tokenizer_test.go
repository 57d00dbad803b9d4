package tokenizer

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func scanKinds(t *testing.T, input string) []Kind {
	t.Helper()
	tokens, err := Scan(input)
	if err != nil {
		t.Fatalf("Scan(%q) error = %v", input, err)
	}
	kinds := make([]Kind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	return kinds
}

func scanScalars(t *testing.T, input string) []string {
	t.Helper()
	tokens, err := Scan(input)
	if err != nil {
		t.Fatalf("Scan(%q) error = %v", input, err)
	}
	var values []string
	for _, tok := range tokens {
		if tok.Kind == TokenScalar {
			values = append(values, tok.Value)
		}
	}
	return values
}

func TestScanner_TokenKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Kind
	}{
		{
			name:  "block mapping with flow sequence",
			input: "a: 1\nb: [2, 3]\n",
			want: []Kind{
				TokenScalar, TokenValue, TokenScalar,
				TokenScalar, TokenValue, TokenFlowSequenceStart, TokenScalar, TokenFlowEntry, TokenScalar, TokenFlowSequenceEnd,
				TokenStreamEnd,
			},
		},
		{
			name:  "block sequence",
			input: "- a\n- b\n",
			want:  []Kind{TokenBlockEntry, TokenScalar, TokenBlockEntry, TokenScalar, TokenStreamEnd},
		},
		{
			name:  "document markers",
			input: "---\nfoo\n...\n",
			want:  []Kind{TokenDocumentStart, TokenScalar, TokenDocumentEnd, TokenStreamEnd},
		},
		{
			name:  "directive",
			input: "%YAML 1.2\n---\na\n",
			want:  []Kind{TokenDirective, TokenDocumentStart, TokenScalar, TokenStreamEnd},
		},
		{
			name:  "anchor and alias",
			input: "&x a: *x\n",
			want:  []Kind{TokenAnchor, TokenScalar, TokenValue, TokenAlias, TokenStreamEnd},
		},
		{
			name:  "tag",
			input: "!!str 5",
			want:  []Kind{TokenTag, TokenScalar, TokenStreamEnd},
		},
		{
			name:  "explicit key",
			input: "? a\n: b\n",
			want:  []Kind{TokenKey, TokenScalar, TokenValue, TokenScalar, TokenStreamEnd},
		},
		{
			name:  "json style flow mapping",
			input: `{"a":1}`,
			want:  []Kind{TokenFlowMappingStart, TokenScalar, TokenValue, TokenScalar, TokenFlowMappingEnd, TokenStreamEnd},
		},
		{
			name:  "dash without space is scalar content",
			input: "-1",
			want:  []Kind{TokenScalar, TokenStreamEnd},
		},
		{
			name:  "comments are skipped",
			input: "# leading\na: b # trailing\n# end\n",
			want:  []Kind{TokenScalar, TokenValue, TokenScalar, TokenStreamEnd},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Kind{TokenStreamEnd},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanKinds(t, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scan(%q) kinds = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestScanner_ScalarValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"url in plain scalar", "key: http://example.com/a", []string{"key", "http://example.com/a"}},
		{"hash without space is content", "a: b#c", []string{"a", "b#c"}},
		{"plain multi-line", "key: this is\n  continued\n\n  para\n", []string{"key", "this is continued\npara"}},
		{"root plain multi-line", "first line\nsecond line\n", []string{"first line second line"}},
		{"single quoted escape", "'it''s'", []string{"it's"}},
		{"single quoted folding", "'a\n  b'", []string{"a b"}},
		{"double quoted escapes", `"a\tb\u00e9\x41"`, []string{"a\tbéA"}},
		{"double quoted escaped line break", "\"ab\\\n   cd\"", []string{"abcd"}},
		{"literal", "k: |\n  line1\n  line2\n", []string{"k", "line1\nline2\n"}},
		{"literal strip", "k: |-\n  a\n", []string{"k", "a"}},
		{"literal keep", "k: |+\n  a\n\n", []string{"k", "a\n\n"}},
		{"literal at end of input", "k: |\n  a", []string{"k", "a"}},
		{"literal explicit indentation", "k: |2\n    x\n", []string{"k", "  x\n"}},
		{"folded", "k: >\n  a\n  b\n\n  c\n", []string{"k", "a b\nc\n"}},
		{"folded more indented", "k: >\n  a\n    b\n  c\n", []string{"k", "a\n  b\nc\n"}},
		{"block scalar followed by key", "a: |\n  x\nb: y\n", []string{"a", "x\n", "b", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanScalars(t, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Scan(%q) scalars = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestScanner_Styles(t *testing.T) {
	tests := []struct {
		input string
		want  ScalarStyle
	}{
		{"plain", StylePlain},
		{"'single'", StyleSingleQuoted},
		{`"double"`, StyleDoubleQuoted},
		{"|\n  literal\n", StyleLiteral},
		{">\n  folded\n", StyleFolded},
	}

	for _, tt := range tests {
		tokens, err := Scan(tt.input)
		if err != nil {
			t.Fatalf("Scan(%q) error = %v", tt.input, err)
		}
		if tokens[0].Style != tt.want {
			t.Errorf("Scan(%q) style = %v, want %v", tt.input, tokens[0].Style, tt.want)
		}
	}
}

func TestScanner_Properties(t *testing.T) {
	tokens, err := Scan("- !<tag:example.com,2000:app> &anchor !e!thing *ref\n")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []Token{
		{Kind: TokenBlockEntry},
		{Kind: TokenTag, Value: "!<tag:example.com,2000:app>"},
		{Kind: TokenAnchor, Value: "anchor"},
		{Kind: TokenTag, Value: "!e!thing"},
		{Kind: TokenAlias, Value: "ref"},
		{Kind: TokenStreamEnd},
	}
	if len(tokens) != len(want) {
		t.Fatalf("Scan() = %v, want %d tokens", tokens, len(want))
	}
	for i := range want {
		if tokens[i].Kind != want[i].Kind || tokens[i].Value != want[i].Value {
			t.Errorf("token %d = %v, want %v", i, tokens[i], want[i])
		}
	}
}

func TestScanner_Positions(t *testing.T) {
	tokens, err := Scan("a:\n  b: c\n")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	// a, :, b, :, c, end
	b := tokens[2]
	if b.Value != "b" {
		t.Fatalf("tokens[2] = %v, want scalar b", b)
	}
	if b.Pos.Line != 2 || b.Pos.Column != 3 || b.Pos.Offset != 5 {
		t.Errorf("b position = %+v, want line 2, column 3, offset 5", b.Pos)
	}
	if tokens[0].Pos.Line != 1 || tokens[0].Pos.Column != 1 || tokens[0].Pos.Offset != 0 {
		t.Errorf("a position = %+v, want line 1, column 1, offset 0", tokens[0].Pos)
	}
}

func TestScanner_Raw(t *testing.T) {
	tokens, err := Scan(`key: "a\tb"`)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := tokens[2].Raw; got != `"a\tb"` {
		t.Errorf("Raw = %q, want %q", got, `"a\tb"`)
	}
	if got := tokens[2].Value; got != "a\tb" {
		t.Errorf("Value = %q, want %q", got, "a\tb")
	}
}

func TestScanner_Reader(t *testing.T) {
	input := "a: [1, {b: c}]\n---\n- 'x'\n"
	want, err := Scan(input)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	s := NewScannerFromReader(strings.NewReader(input))
	for i := range want {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if tok.Kind != want[i].Kind || tok.Value != want[i].Value || tok.Pos.Offset != want[i].Pos.Offset || tok.Pos.Line != want[i].Pos.Line {
			t.Errorf("token %d = %v at %+v, want %v at %+v", i, tok, tok.Pos, want[i], want[i].Pos)
		}
	}
}

func TestScanner_StreamEndRepeats(t *testing.T) {
	s := NewScanner("a")
	for i := 0; i < 3; i++ {
		if _, err := s.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	tok, err := s.Next()
	if err != nil || tok.Kind != TokenStreamEnd {
		t.Errorf("Next() = %v, %v, want StreamEnd", tok, err)
	}
}

func TestScanner_Resync(t *testing.T) {
	s := NewScanner("a: \"x\n---\nb: 1\n")

	var kinds []Kind
	var lexErr *LexError
	for {
		tok, err := s.Next()
		if err != nil {
			if !errors.As(err, &lexErr) {
				t.Fatalf("Next() error = %v, want *LexError", err)
			}
			s.Resync()
			continue
		}
		kinds = append(kinds, tok.Kind)
		if tok.Kind == TokenStreamEnd {
			break
		}
	}

	if lexErr == nil {
		t.Fatal("expected a lex error for the unterminated scalar")
	}
	want := []Kind{TokenScalar, TokenValue, TokenDocumentStart, TokenScalar, TokenValue, TokenScalar, TokenStreamEnd}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
}
