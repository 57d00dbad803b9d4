// Package tokenizer provides the YAML scanner: it turns a character stream from
// Shape's tokenizer framework into a lazy sequence of YAML tokens.
package tokenizer

import (
	"fmt"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
)

// Kind identifies the kind of a scanned token.
type Kind string

// Token kinds produced by the Scanner.
const (
	// Stream and document structure
	TokenStreamEnd     Kind = "StreamEnd"     // end of input
	TokenDocumentStart Kind = "DocumentStart" // ---
	TokenDocumentEnd   Kind = "DocumentEnd"   // ...
	TokenDirective     Kind = "Directive"     // %YAML 1.2, %TAG ! prefix

	// Block structure
	TokenBlockEntry Kind = "BlockEntry" // - followed by a space or line end
	TokenKey        Kind = "Key"        // ? (explicit key)
	TokenValue      Kind = "Value"      // : (value indicator)

	// Flow structure
	TokenFlowSequenceStart Kind = "FlowSequenceStart" // [
	TokenFlowSequenceEnd   Kind = "FlowSequenceEnd"   // ]
	TokenFlowMappingStart  Kind = "FlowMappingStart"  // {
	TokenFlowMappingEnd    Kind = "FlowMappingEnd"    // }
	TokenFlowEntry         Kind = "FlowEntry"         // ,

	// Node properties and content
	TokenAnchor Kind = "Anchor" // &name
	TokenAlias  Kind = "Alias"  // *name
	TokenTag    Kind = "Tag"    // !local, !!str, !e!suffix, !<verbatim>
	TokenScalar Kind = "Scalar" // plain, quoted or block scalar
)

// ScalarStyle records how a scalar was written in the source.
type ScalarStyle int

const (
	StyleAny ScalarStyle = iota
	StylePlain
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
)

func (s ScalarStyle) String() string {
	switch s {
	case StylePlain:
		return "plain"
	case StyleSingleQuoted:
		return "single-quoted"
	case StyleDoubleQuoted:
		return "double-quoted"
	case StyleLiteral:
		return "literal"
	case StyleFolded:
		return "folded"
	default:
		return "any"
	}
}

// Quoted reports whether the style is one of the quoted styles.
func (s ScalarStyle) Quoted() bool {
	return s == StyleSingleQuoted || s == StyleDoubleQuoted
}

// Token is a single scanned token. Tokens are values and never change after
// the scanner returns them.
type Token struct {
	Kind Kind

	// Pos is the position of the first character of the token.
	// Line and Column are 1-based, Offset is a byte offset.
	Pos shapetokenizer.Position

	// Value is the decoded text: scalar content after escape processing and
	// folding, the anchor or alias name, the raw tag text, or the directive
	// text without the leading '%'.
	Value string

	// Raw is the source text the token was scanned from.
	Raw string

	// Style is set for scalar tokens only.
	Style ScalarStyle
}

func (t Token) String() string {
	if t.Kind == TokenScalar {
		return fmt.Sprintf("%s(%s %q)", t.Kind, t.Style, t.Value)
	}
	if t.Value != "" {
		return fmt.Sprintf("%s(%q)", t.Kind, t.Value)
	}
	return string(t.Kind)
}

// LexError reports malformed input found while scanning.
type LexError struct {
	Pos    shapetokenizer.Position
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("yaml: lex error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Reason)
}
