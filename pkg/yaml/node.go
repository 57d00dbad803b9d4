package yaml

import (
	"fmt"

	"github.com/shapestone/safeyaml/internal/parser"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	DocumentNode Kind = iota + 1
	ScalarNode
	SequenceNode
	MappingNode
	AliasNode
)

func (k Kind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ScalarNode:
		return "scalar"
	case SequenceNode:
		return "sequence"
	case MappingNode:
		return "mapping"
	case AliasNode:
		return "alias"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Style is the presentation of a node in text. It never changes the value a
// node constructs to, only how the emitter writes it.
type Style int

const (
	StyleDefault Style = iota
	StylePlain
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
	StyleFlow // collections written with [ ] or { }
)

func (s Style) String() string {
	switch s {
	case StyleDefault:
		return "default"
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
	case StyleFlow:
		return "flow"
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// Node is one unit of a composed document.
//
// Collections own their children through Content; a mapping's Content
// alternates key and value nodes and may hold equal keys. An alias node does
// not own its target: Alias points at the anchored node defined earlier in the
// same document, so cyclic graphs need no ownership cycle.
type Node struct {
	Kind  Kind
	Tag   string // full tag as written, "" when the tag is resolved implicitly
	Value string // scalar text, or the anchor name of an alias
	Style Style

	Anchor  string
	Content []*Node
	Alias   *Node

	// Line and Column locate the node in its source, 1-based; zero for
	// nodes built in memory.
	Line   int
	Column int
}

// ShortTag returns the tag the node resolves to in its shortest written form.
func (n *Node) ShortTag() string {
	return shortTag(resolvedTag(n))
}

// IsZero reports whether n is the empty null node of an empty document.
func (n *Node) IsZero() bool {
	return n == nil || (n.Kind == ScalarNode && n.Tag == "" && n.Value == "" && n.Anchor == "" &&
		(n.Style == StylePlain || n.Style == StyleDefault))
}

// Document is one composed document of a stream.
type Document struct {
	// Root is nil for an empty document.
	Root *Node

	// Nodes holds every node of the document in definition order. Alias
	// targets are found here as well as in their parent's Content.
	Nodes []*Node

	// Anchors maps each anchor name to its latest definition.
	Anchors map[string]*Node

	Version       string            // from a %YAML directive
	TagDirectives map[string]string // from %TAG directives, handle -> prefix

	// ExplicitStart and ExplicitEnd record the --- and ... markers. They only
	// affect emission.
	ExplicitStart bool
	ExplicitEnd   bool
}

// NewScalar returns an implicitly tagged scalar node.
func NewScalar(value string) *Node {
	return &Node{Kind: ScalarNode, Value: value}
}

// NewSequence returns a sequence node owning items.
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: SequenceNode, Content: items}
}

// NewMapping returns a mapping node from alternating keys and values.
func NewMapping(pairs ...*Node) *Node {
	return &Node{Kind: MappingNode, Content: pairs}
}

// NewAlias returns an alias node referring to target, which must carry an anchor.
func NewAlias(target *Node) *Node {
	return &Node{Kind: AliasNode, Value: target.Anchor, Alias: target}
}

// shortTag writes a full tag with the default handles.
func shortTag(tag string) string {
	return parser.ShortTag(tag)
}
