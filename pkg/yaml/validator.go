package yaml

import (
	"go.uber.org/multierr"

	"github.com/shapestone/safeyaml/internal/parser"
)

// Validate checks that every document of input is syntactically valid: it
// scans, parses and composes each one but constructs nothing, so tags are
// not authorized and no trust level applies.
//
// Returns nil if the input is valid. Otherwise the error lists one
// *DocumentError per invalid document (see multierr.Errors); valid
// documents after an invalid one are still checked.
//
// Supports the same options as Parse; WithCycles accepts aliases to
// enclosing collections.
//
// Example:
//
//	if err := yaml.Validate("a: [1, 2\n"); err != nil {
//	    fmt.Printf("Invalid YAML: %v\n", err)
//	}
func Validate(input string, opts ...Option) error {
	o := newOptions(opts)
	c := newComposer(parser.NewParser(input), o.cycles)

	var errs error
	for i := 0; ; i++ {
		_, err := c.next()
		if isEOF(err) {
			return errs
		}
		if err != nil {
			errs = multierr.Append(errs, &DocumentError{Index: i, Err: err})
		}
	}
}
