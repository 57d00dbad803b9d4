package yaml

import (
	"errors"
	"io"

	"go.uber.org/multierr"

	"github.com/shapestone/safeyaml/internal/parser"
)

// Load parses a single-document input and constructs its value at the given
// trust level. An empty input loads as nil. Input holding more than one
// document fails with a *ComposeError of kind MultipleDocuments; use
// LoadStream or LoadAll for streams.
//
// Values are built from the core types:
//   - nil for null
//   - bool, int64, float64 and string for scalars; integers above
//     math.MaxInt64 load as uint64
//   - []byte for !!binary and time.Time for !!timestamp
//   - []any for sequences
//   - map[string]any for mappings whose keys are all strings, map[any]any
//     otherwise, or MapSlice with WithOrderedMaps
//   - MapSlice for !!omap and !!pairs, Set for !!set
//
// Example:
//
//	v, err := yaml.Load("a: 1\nb: [2, 3]\n", yaml.Restricted)
//	m := v.(map[string]any)
//	m["a"] // int64(1)
//
// A tag outside the trust level fails before anything is constructed for it:
//
//	_, err := yaml.Load("!!python/object:os.system x", yaml.Restricted)
//	yaml.IsSecurityError(err) // true
func Load(input string, trust TrustLevel, opts ...Option) (any, error) {
	o := newOptions(opts)
	v, err := loadSingle(parser.NewParser(input), trust, o)
	o.documentLoaded(0, err)
	return v, err
}

// LoadReader is Load reading from r.
func LoadReader(r io.Reader, trust TrustLevel, opts ...Option) (any, error) {
	o := newOptions(opts)
	v, err := loadSingle(parser.NewParserFromReader(r), trust, o)
	o.documentLoaded(0, err)
	return v, err
}

func loadSingle(p *parser.Parser, trust TrustLevel, o *options) (any, error) {
	doc, err := parseSingle(p, o)
	if err != nil {
		return nil, err
	}
	return newConstructor(trust, o).Construct(doc.Root)
}

// LoadAll loads every document of input. A failing document does not stop
// the others: its slot holds nil and its *DocumentError joins the returned
// error, which lists every failure (see multierr.Errors).
//
// Example:
//
//	values, err := yaml.LoadAll("a: 1\n---\n!!bad x\n---\nc: 3\n", yaml.Restricted)
//	// len(values) == 3, values[1] == nil
//	// err holds one *DocumentError with Index 1
func LoadAll(input string, trust TrustLevel, opts ...Option) ([]any, error) {
	s := LoadStream(input, trust, opts...)
	var (
		values []any
		errs   error
	)
	for s.Next() {
		values = append(values, s.Value())
		errs = multierr.Append(errs, s.Err())
	}
	return values, errs
}

// Construct builds the value of a composed document at the given trust
// level. Styles and anchors of the graph do not affect the result.
func Construct(doc *Document, trust TrustLevel, opts ...Option) (any, error) {
	if doc == nil {
		return nil, nil
	}
	return newConstructor(trust, newOptions(opts)).Construct(doc.Root)
}

// ConstructNode is Construct for a node that is not the root of a document.
func ConstructNode(n *Node, trust TrustLevel, opts ...Option) (any, error) {
	return newConstructor(trust, newOptions(opts)).Construct(n)
}

// isEOF reports the end of a stream.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
