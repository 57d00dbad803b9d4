// Package yaml loads and dumps YAML with an explicit trust level.
//
// Loading runs text through a pipeline of stages: scanner, parser, composer
// and constructor. Dumping runs the other way: representer, then emitter.
// Every tag a document carries, and every Go type a dumped value holds, is
// dispatched through a Registry whose entries each need a minimum
// TrustLevel. Restricted loads only build nulls, booleans, numbers, strings,
// binary data, timestamps, sequences and mappings. Constructors that read
// files (!include), instantiate registered Go types (!go/struct:Name) or call
// registered functions (!go/call:Name) need Unrestricted, and a document
// asking for one under Restricted fails with a *SecurityError before any of
// its code runs.
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use by multiple
// goroutines. Each call builds its own pipeline; the only shared state is the
// Registry, which is read through immutable snapshots.
//
//	// SAFE: concurrent loads against the default registry
//	go func() { yaml.Load(input1, yaml.Restricted) }()
//	go func() { yaml.Load(input2, yaml.Restricted) }()
//
// A *Stream, a *Constructor and a *Representer belong to one goroutine.
//
// # Loading APIs
//
//   - Load(string, TrustLevel) - the value of a single-document input
//   - LoadStream(string, TrustLevel) - a lazy iterator over documents
//   - LoadStreamReader(io.Reader, TrustLevel) - the same, reading as it goes
//   - LoadAll(string, TrustLevel) - every document, failures aggregated
//   - Unmarshal([]byte, any) - Load at Restricted, then Decode into a Go value
//
// # Node APIs
//
// Parse and ParseStream stop after composition and return *Document graphs
// with styles, tags and anchors intact. Construct turns a graph into a value,
// Represent turns a value into a graph, and Serialize writes a graph back as
// text.
//
// # Example usage with Load:
//
//	v, err := yaml.Load("a: 1\nb: [2, 3]\n", yaml.Restricted)
//	if err != nil {
//	    // handle error
//	}
//	// v is map[string]any{"a": int64(1), "b": []any{int64(2), int64(3)}}
//
// # Example usage with Dump:
//
//	out, err := yaml.Dump(map[string]any{"z": 1, "a": 2}, yaml.Restricted, yaml.WithSortKeys(true))
//	// out is "a: 2\nz: 1\n"
package yaml

import (
	"io"

	"github.com/shapestone/safeyaml/internal/parser"
)

// Parse composes a single-document input into a node graph without
// constructing any value, so no tag is authorized and no trust level
// applies. An empty input yields a Document with a nil Root.
//
// Example:
//
//	doc, err := yaml.Parse("base: &b {x: 1}\nderived: *b\n")
//	root := doc.Root                  // mapping node
//	alias := root.Content[3]          // alias node
//	target := alias.Alias             // the node anchored as "b"
func Parse(input string, opts ...Option) (*Document, error) {
	return parseSingle(parser.NewParser(input), newOptions(opts))
}

// ParseReader is Parse reading from r. The scanner pulls characters from r
// as it needs them.
func ParseReader(r io.Reader, opts ...Option) (*Document, error) {
	return parseSingle(parser.NewParserFromReader(r), newOptions(opts))
}

func parseSingle(p *parser.Parser, o *options) (*Document, error) {
	c := newComposer(p, o.cycles)
	doc, err := c.next()
	if isEOF(err) {
		return &Document{Anchors: map[string]*Node{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := c.single(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseStream composes every document of input. It stops at the first
// failure, returning the documents composed before it and a *DocumentError.
//
// Example:
//
//	docs, err := yaml.ParseStream("---\nname: doc1\n---\nname: doc2\n")
//	// len(docs) == 2
func ParseStream(input string, opts ...Option) ([]*Document, error) {
	o := newOptions(opts)
	c := newComposer(parser.NewParser(input), o.cycles)
	var docs []*Document
	for i := 0; ; i++ {
		doc, err := c.next()
		if isEOF(err) {
			return docs, nil
		}
		if err != nil {
			return docs, &DocumentError{Index: i, Err: err}
		}
		docs = append(docs, doc)
	}
}
