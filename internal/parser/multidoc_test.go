package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/shapestone/safeyaml/internal/tokenizer"
)

// collect drains p, recording each document's events or error.
func collect(t *testing.T, p *Parser) (docs []string, errs []error) {
	t.Helper()
	var current []Event
	for i := 0; i < 100; i++ {
		ev, err := p.Next()
		if err != nil {
			errs = append(errs, err)
			current = nil
			continue
		}
		switch ev.Kind {
		case EventStreamStart:
			continue
		case EventStreamEnd:
			return docs, errs
		}
		current = append(current, ev)
		if ev.Kind == EventDocumentEnd {
			docs = append(docs, render(current))
			current = nil
		}
	}
	t.Fatal("stream did not end")
	return nil, nil
}

func TestMultiDoc_Documents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "separated by start markers",
			input: "a: 1\n---\nb: 2\n",
			want: []string{
				"+DOC +MAP =VAL :a =VAL :1 -MAP -DOC",
				"+DOC --- +MAP =VAL :b =VAL :2 -MAP -DOC",
			},
		},
		{
			name:  "end markers",
			input: "--- 1\n...\n--- 2\n...\n",
			want: []string{
				"+DOC --- =VAL :1 -DOC ...",
				"+DOC --- =VAL :2 -DOC ...",
			},
		},
		{
			name:  "empty documents",
			input: "---\n---\n",
			want: []string{
				"+DOC --- =VAL : -DOC",
				"+DOC --- =VAL : -DOC",
			},
		},
		{
			name:  "stray end marker",
			input: "...\n--- x\n",
			want:  []string{"+DOC --- =VAL :x -DOC"},
		},
		{
			name:  "scalar documents",
			input: "--- one\n--- two\n--- three\n",
			want: []string{
				"+DOC --- =VAL :one -DOC",
				"+DOC --- =VAL :two -DOC",
				"+DOC --- =VAL :three -DOC",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, errs := collect(t, NewParser(tt.input))
			if len(errs) > 0 {
				t.Fatalf("errors = %v", errs)
			}
			if len(docs) != len(tt.want) {
				t.Fatalf("got %d documents %q, want %d", len(docs), docs, len(tt.want))
			}
			for i := range docs {
				if docs[i] != tt.want[i] {
					t.Errorf("document %d = %s\nwant          %s", i, docs[i], tt.want[i])
				}
			}
		})
	}
}

func TestMultiDoc_RecoversAfterError(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "parse error before next document",
			input: "a: [1\n---\nb: 2\n",
			want:  []string{"+DOC --- +MAP =VAL :b =VAL :2 -MAP -DOC"},
		},
		{
			name:  "lex error before next document",
			input: "a: @\n---\nb: 2\n",
			want:  []string{"+DOC --- +MAP =VAL :b =VAL :2 -MAP -DOC"},
		},
		{
			name:  "error in the middle",
			input: "--- 1\n--- [x\n--- 3\n",
			want: []string{
				"+DOC --- =VAL :1 -DOC",
				"+DOC --- =VAL :3 -DOC",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, errs := collect(t, NewParser(tt.input))
			if len(errs) != 1 {
				t.Fatalf("errors = %v, want exactly one", errs)
			}
			if strings.Join(docs, "|") != strings.Join(tt.want, "|") {
				t.Errorf("documents = %q, want %q", docs, tt.want)
			}
		})
	}
}

func TestMultiDoc_Lazy(t *testing.T) {
	// The second document is broken; the first one is still delivered in full
	// before the error is reported.
	p := NewParser("a: 1\n---\n[unterminated\n")

	var kinds []EventKind
	for {
		ev, err := p.Next()
		if err != nil {
			break
		}
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventStreamEnd {
			t.Fatal("reached StreamEnd without an error")
		}
	}

	want := []EventKind{
		EventStreamStart, EventDocumentStart, EventMappingStart,
		EventScalar, EventScalar, EventMappingEnd, EventDocumentEnd,
	}
	if len(kinds) != len(want) {
		t.Fatalf("events before error = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestMultiDoc_StreamEndRepeats(t *testing.T) {
	p := NewParser("x")
	for i := 0; i < 5; i++ {
		if _, err := p.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		ev, err := p.Next()
		if err != nil || ev.Kind != EventStreamEnd {
			t.Fatalf("Next() = %v, %v, want StreamEnd", ev, err)
		}
	}
}

func TestMultiDoc_Reader(t *testing.T) {
	input := "a: 1\n---\n- x\n- y\n"
	want, err := Events(input)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}

	p := NewParserFromReader(strings.NewReader(input))
	var got []Event
	for {
		ev, err := p.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		got = append(got, ev)
		if ev.Kind == EventStreamEnd {
			break
		}
	}
	if render(got) != render(want) {
		t.Errorf("reader events = %s\nwant            %s", render(got), render(want))
	}
}

func TestMultiDoc_ErrorKinds(t *testing.T) {
	_, err := Events("--- [1\n")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("unterminated flow error = %T, want *ParseError", err)
	}

	_, err = Events("--- \"open\n")
	var lexErr *tokenizer.LexError
	if !errors.As(err, &lexErr) {
		t.Errorf("unterminated quote error = %T, want *tokenizer.LexError", err)
	}
}
