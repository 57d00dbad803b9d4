package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/shapestone/safeyaml/internal/tokenizer"
)

// render writes events in a compact one-line form:
//
//	+STR +DOC +MAP =VAL :a =VAL :1 -MAP -DOC -STR
func render(events []Event) string {
	var parts []string
	for _, ev := range events {
		var b strings.Builder
		switch ev.Kind {
		case EventStreamStart:
			b.WriteString("+STR")
		case EventStreamEnd:
			b.WriteString("-STR")
		case EventDocumentStart:
			b.WriteString("+DOC")
			if !ev.Implicit {
				b.WriteString(" ---")
			}
		case EventDocumentEnd:
			b.WriteString("-DOC")
			if !ev.Implicit {
				b.WriteString(" ...")
			}
		case EventMappingStart, EventSequenceStart:
			if ev.Kind == EventMappingStart {
				b.WriteString("+MAP")
			} else {
				b.WriteString("+SEQ")
			}
			if ev.Flow && ev.Kind == EventMappingStart {
				b.WriteString(" {}")
			} else if ev.Flow {
				b.WriteString(" []")
			}
			writeProps(&b, ev)
		case EventMappingEnd:
			b.WriteString("-MAP")
		case EventSequenceEnd:
			b.WriteString("-SEQ")
		case EventScalar:
			b.WriteString("=VAL")
			writeProps(&b, ev)
			b.WriteByte(' ')
			b.WriteString(styleMark(ev.Style))
			b.WriteString(strings.ReplaceAll(ev.Value, "\n", `\n`))
		case EventAlias:
			b.WriteString("=ALI *" + ev.Anchor)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}

func writeProps(b *strings.Builder, ev Event) {
	if ev.Anchor != "" {
		b.WriteString(" &" + ev.Anchor)
	}
	if ev.Tag != "" {
		b.WriteString(" <" + ev.Tag + ">")
	}
}

func styleMark(s tokenizer.ScalarStyle) string {
	switch s {
	case tokenizer.StyleSingleQuoted:
		return "'"
	case tokenizer.StyleDoubleQuoted:
		return `"`
	case tokenizer.StyleLiteral:
		return "|"
	case tokenizer.StyleFolded:
		return ">"
	}
	return ":"
}

func mustEvents(t *testing.T, input string) string {
	t.Helper()
	events, err := Events(input)
	if err != nil {
		t.Fatalf("Events(%q) error = %v", input, err)
	}
	return render(events)
}

func TestParser_Structure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "mapping with flow sequence",
			input: "a: 1\nb: [2, 3]\n",
			want:  "+STR +DOC +MAP =VAL :a =VAL :1 =VAL :b +SEQ [] =VAL :2 =VAL :3 -SEQ -MAP -DOC -STR",
		},
		{
			name:  "sequence of mixed nodes",
			input: "- a\n- b: c\n  d: e\n- - f\n",
			want:  "+STR +DOC +SEQ =VAL :a +MAP =VAL :b =VAL :c =VAL :d =VAL :e -MAP +SEQ =VAL :f -SEQ -SEQ -DOC -STR",
		},
		{
			name:  "compact sequence under key",
			input: "key:\n- a\n- b\nnext: 1\n",
			want:  "+STR +DOC +MAP =VAL :key +SEQ =VAL :a =VAL :b -SEQ =VAL :next =VAL :1 -MAP -DOC -STR",
		},
		{
			name:  "empty value",
			input: "a:\nb: 2\n",
			want:  "+STR +DOC +MAP =VAL :a =VAL : =VAL :b =VAL :2 -MAP -DOC -STR",
		},
		{
			name:  "nested mappings",
			input: "a:\n  b:\n    c: 1\n  d: 2\n",
			want:  "+STR +DOC +MAP =VAL :a +MAP =VAL :b +MAP =VAL :c =VAL :1 -MAP =VAL :d =VAL :2 -MAP -MAP -DOC -STR",
		},
		{
			name:  "single pair mapping in flow sequence",
			input: "[a: 1, b]",
			want:  "+STR +DOC +SEQ [] +MAP {} =VAL :a =VAL :1 -MAP =VAL :b -SEQ -DOC -STR",
		},
		{
			name:  "flow mapping with missing values",
			input: "{a: 1, b, c: }",
			want:  "+STR +DOC +MAP {} =VAL :a =VAL :1 =VAL :b =VAL : =VAL :c =VAL : -MAP -DOC -STR",
		},
		{
			name:  "explicit key",
			input: "? a\n: b\n",
			want:  "+STR +DOC +MAP =VAL :a =VAL :b -MAP -DOC -STR",
		},
		{
			name:  "anchor and alias",
			input: "a: &x 1\nb: *x\n",
			want:  "+STR +DOC +MAP =VAL :a =VAL &x :1 =VAL :b =ALI *x -MAP -DOC -STR",
		},
		{
			name:  "properties on the line before a mapping",
			input: "--- &m\na: 1\n",
			want:  "+STR +DOC --- +MAP &m =VAL :a =VAL :1 -MAP -DOC -STR",
		},
		{
			name:  "properties on the key line",
			input: "&k a: 1\n",
			want:  "+STR +DOC +MAP =VAL &k :a =VAL :1 -MAP -DOC -STR",
		},
		{
			name:  "scalar styles",
			input: "a: 'x'\nb: \"y\"\nc: |\n  z\n",
			want:  `+STR +DOC +MAP =VAL :a =VAL 'x =VAL :b =VAL "y =VAL :c =VAL |z\n -MAP -DOC -STR`,
		},
		{
			name:  "multi-line plain value",
			input: "a:\n  one\n  two\nb: 1\n",
			want:  "+STR +DOC +MAP =VAL :a =VAL :one two =VAL :b =VAL :1 -MAP -DOC -STR",
		},
		{
			name:  "plain value ends at the entry indentation",
			input: "- b: c\n  d: e\n",
			want:  "+STR +DOC +SEQ +MAP =VAL :b =VAL :c =VAL :d =VAL :e -MAP -SEQ -DOC -STR",
		},
		{
			name:  "flow collection as key",
			input: "[a, b]: c\n",
			want:  "+STR +DOC +MAP +SEQ [] =VAL :a =VAL :b -SEQ =VAL :c -MAP -DOC -STR",
		},
		{
			name:  "root scalar",
			input: "hello",
			want:  "+STR +DOC =VAL :hello -DOC -STR",
		},
		{
			name:  "empty stream",
			input: "",
			want:  "+STR -STR",
		},
		{
			name:  "comments only",
			input: "# nothing here\n",
			want:  "+STR -STR",
		},
		{
			name:  "explicit empty document",
			input: "---\n",
			want:  "+STR +DOC --- =VAL : -DOC -STR",
		},
		{
			name:  "explicit end marker",
			input: "--- a\n...\n",
			want:  "+STR +DOC --- =VAL :a -DOC ... -STR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustEvents(t, tt.input); got != tt.want {
				t.Errorf("events = %s\nwant     %s", got, tt.want)
			}
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // substring of the error message
	}{
		{"unclosed flow sequence", "[a, b", "end of input"},
		{"mismatched flow delimiter", "[a}", "expected ',' or ']'"},
		{"mapping value on value line", "a: b: c", "mapping values are not allowed here"},
		{"bad mapping indentation", "a:\n  b: 1\n c: 2", "bad indentation"},
		{"continued scalar followed by value", "a: 1\n  b: 2", "mapping values are not allowed here"},
		{"content after root node", "- a\nb: c\n", "document boundary"},
		{"sequence entry on value line", "key: - a", "block sequence entries are not allowed here"},
		{"alias with anchor", "&a *b", "alias node cannot have"},
		{"unclosed flow mapping", "{a: 1", "end of input"},
		{"key without value indicator", "a: 1\nb\n", "':' after mapping key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Events(tt.input)
			if err == nil {
				t.Fatalf("Events(%q) error = nil, want parse error", tt.input)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Events(%q) error = %T (%v), want *ParseError", tt.input, err, err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.want)
			}
			if parseErr.Pos.Line == 0 {
				t.Errorf("Pos = %+v, want a source position", parseErr.Pos)
			}
		})
	}
}

func TestParser_NestingDepth(t *testing.T) {
	deep := strings.Repeat("[", MaxDepth) + strings.Repeat("]", MaxDepth)
	if _, err := Events(deep); err != nil {
		t.Fatalf("Events() at the depth limit error = %v", err)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"flow sequences", strings.Repeat("[", MaxDepth+1) + strings.Repeat("]", MaxDepth+1)},
		{"flow mappings", strings.Repeat("{a: ", MaxDepth+1) + strings.Repeat("}", MaxDepth+1)},
		{"block sequences", strings.Repeat("- ", MaxDepth+1) + "x\n"},
		{"unclosed", strings.Repeat("[", 3000000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Events(tt.input)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Events() error = %v, want *ParseError", err)
			}
			if parseErr.Message != "exceeded max nesting depth" {
				t.Errorf("Message = %q, want %q", parseErr.Message, "exceeded max nesting depth")
			}
		})
	}
}

func TestParser_LexErrorPassesThrough(t *testing.T) {
	_, err := Events("a: \"unterminated")
	var lexErr *tokenizer.LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("Events() error = %v, want *tokenizer.LexError", err)
	}
}

func TestParser_Positions(t *testing.T) {
	events, err := Events("a:\n  - b\n")
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	for _, ev := range events {
		if ev.Kind == EventScalar && ev.Value == "b" {
			if ev.Pos.Line != 2 || ev.Pos.Column != 5 {
				t.Errorf("b position = line %d, column %d, want line 2, column 5", ev.Pos.Line, ev.Pos.Column)
			}
			return
		}
	}
	t.Fatal("scalar b not found")
}
