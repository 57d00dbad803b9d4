package parser

import (
	"fmt"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
	"github.com/shapestone/safeyaml/internal/tokenizer"
)

// EventKind identifies a structural parse event.
type EventKind int

const (
	EventStreamStart EventKind = iota
	EventStreamEnd
	EventDocumentStart
	EventDocumentEnd
	EventMappingStart
	EventMappingEnd
	EventSequenceStart
	EventSequenceEnd
	EventScalar
	EventAlias
)

var eventNames = [...]string{
	EventStreamStart:   "StreamStart",
	EventStreamEnd:     "StreamEnd",
	EventDocumentStart: "DocumentStart",
	EventDocumentEnd:   "DocumentEnd",
	EventMappingStart:  "MappingStart",
	EventMappingEnd:    "MappingEnd",
	EventSequenceStart: "SequenceStart",
	EventSequenceEnd:   "SequenceEnd",
	EventScalar:        "Scalar",
	EventAlias:         "Alias",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one structural event of a YAML stream.
type Event struct {
	Kind EventKind
	Pos  shapetokenizer.Position

	// Anchor is the anchor name defined on the node, or the referenced
	// anchor for alias events.
	Anchor string

	// Tag is the fully expanded tag ("tag:yaml.org,2002:str", "!local",
	// or "!" for the non-specific tag). Empty when the node has no tag.
	Tag string

	// Value holds the scalar content.
	Value string

	// Style is the source style of a scalar.
	Style tokenizer.ScalarStyle

	// Flow is set for collections written in flow style ([...] or {...}).
	Flow bool

	// Implicit is set on scalars without an explicit tag, and on document
	// start and end events without an explicit --- or ... marker.
	Implicit bool

	// Version and TagDirectives are set on document start events from the
	// document's %YAML and %TAG directives.
	Version       string
	TagDirectives map[string]string
}

func (e Event) String() string {
	switch e.Kind {
	case EventScalar:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Value)
	case EventAlias:
		return fmt.Sprintf("%s(*%s)", e.Kind, e.Anchor)
	default:
		return e.Kind.String()
	}
}

// ParseError reports a structural violation in the token stream.
type ParseError struct {
	Pos      shapetokenizer.Position
	Expected string
	Found    string
	Message  string
}

func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("yaml: parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
	return fmt.Sprintf("yaml: parse error at line %d, column %d: expected %s, found %s",
		e.Pos.Line, e.Pos.Column, e.Expected, e.Found)
}

// describe renders a token for error messages.
func describe(tok tokenizer.Token) string {
	switch tok.Kind {
	case tokenizer.TokenStreamEnd:
		return "end of input"
	case tokenizer.TokenDocumentStart:
		return "'---'"
	case tokenizer.TokenDocumentEnd:
		return "'...'"
	case tokenizer.TokenDirective:
		return "directive %" + tok.Value
	case tokenizer.TokenBlockEntry:
		return "'-'"
	case tokenizer.TokenKey:
		return "'?'"
	case tokenizer.TokenValue:
		return "':'"
	case tokenizer.TokenFlowSequenceStart:
		return "'['"
	case tokenizer.TokenFlowSequenceEnd:
		return "']'"
	case tokenizer.TokenFlowMappingStart:
		return "'{'"
	case tokenizer.TokenFlowMappingEnd:
		return "'}'"
	case tokenizer.TokenFlowEntry:
		return "','"
	case tokenizer.TokenAnchor:
		return "anchor &" + tok.Value
	case tokenizer.TokenAlias:
		return "alias *" + tok.Value
	case tokenizer.TokenTag:
		return "tag " + tok.Value
	case tokenizer.TokenScalar:
		return fmt.Sprintf("scalar %q", tok.Value)
	}
	return string(tok.Kind)
}
