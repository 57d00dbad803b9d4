package yaml

import (
	"io"
	"iter"

	"github.com/shapestone/safeyaml/internal/parser"
)

// Stream loads the documents of a multi-document input one at a time. Each
// call to Next scans, parses, composes and constructs only the next
// document, so a failure in one document is reported for that document and
// the documents before it have already been handed out.
//
// A failed document does not end the stream: Next moves on to the document
// after it. Anchors never carry over from one document to the next.
//
// Example:
//
//	s := yaml.LoadStream("---\na: 1\n---\nb: 2\n", yaml.Restricted)
//	for s.Next() {
//	    if err := s.Err(); err != nil {
//	        log.Printf("skipping: %v", err)
//	        continue
//	    }
//	    fmt.Println(s.Value())
//	}
//
// A Stream is not safe for concurrent use.
type Stream struct {
	composer *composer
	trust    TrustLevel
	opts     *options

	index int
	value any
	err   error
	done  bool
}

// LoadStream returns a Stream over the documents of input.
func LoadStream(input string, trust TrustLevel, opts ...Option) *Stream {
	return newStream(parser.NewParser(input), trust, newOptions(opts))
}

// LoadStreamReader returns a Stream reading documents from r as they are
// needed.
func LoadStreamReader(r io.Reader, trust TrustLevel, opts ...Option) *Stream {
	return newStream(parser.NewParserFromReader(r), trust, newOptions(opts))
}

func newStream(p *parser.Parser, trust TrustLevel, o *options) *Stream {
	return &Stream{
		composer: newComposer(p, o.cycles),
		trust:    trust,
		opts:     o,
		index:    -1,
	}
}

// Next advances to the next document. It returns false once the input is
// exhausted; Value and Err then describe the last document.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	doc, err := s.composer.next()
	if isEOF(err) {
		s.done = true
		return false
	}
	s.index++
	s.value, s.err = nil, nil

	var v any
	if err == nil {
		v, err = newConstructor(s.trust, s.opts).Construct(doc.Root)
	}
	if err != nil {
		s.err = &DocumentError{Index: s.index, Err: err}
		s.opts.log.V(1).Info("document failed", "index", s.index, "error", err.Error())
	} else {
		s.value = v
	}
	s.opts.documentLoaded(s.index, err)
	return true
}

// Value returns the value of the current document, nil when it failed.
func (s *Stream) Value() any {
	return s.value
}

// Err returns the *DocumentError of the current document, or nil.
func (s *Stream) Err() error {
	return s.err
}

// Index returns the 0-based position of the current document, -1 before
// the first call to Next.
func (s *Stream) Index() int {
	return s.index
}

// All returns an iterator over the remaining documents, yielding each value
// with its error.
//
// Example:
//
//	for v, err := range yaml.LoadStream(input, yaml.Restricted).All() {
//	    ...
//	}
func (s *Stream) All() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for s.Next() {
			if !yield(s.value, s.err) {
				return
			}
		}
	}
}
