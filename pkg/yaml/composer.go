package yaml

import (
	"io"

	"github.com/shapestone/safeyaml/internal/parser"
	"github.com/shapestone/safeyaml/internal/tokenizer"
)

// composer assembles parser events into documents, one per call to next.
type composer struct {
	parser *parser.Parser
	cycles bool

	doc     *Document
	anchors map[string]*Node
	open    map[*Node]bool // collections whose end event has not been seen
	done    bool
}

func newComposer(p *parser.Parser, cycles bool) *composer {
	return &composer{parser: p, cycles: cycles}
}

// next composes the next document of the stream. It returns io.EOF after the
// last document. After an error the composer is positioned at the following
// document, so the caller may keep calling next.
func (c *composer) next() (*Document, error) {
	if c.done {
		return nil, io.EOF
	}
	for {
		ev, err := c.parser.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case parser.EventStreamStart:
			continue
		case parser.EventStreamEnd:
			c.done = true
			return nil, io.EOF
		case parser.EventDocumentStart:
			doc, err := c.document(ev)
			if _, ok := err.(*ComposeError); ok {
				c.skipDocument()
			}
			if err != nil {
				return nil, err
			}
			return doc, nil
		}
	}
}

// more reports whether another document follows, returning the start event
// of that document. It parses the document's events without composing them.
func (c *composer) more() (parser.Event, bool, error) {
	for {
		ev, err := c.parser.Next()
		if err != nil {
			return ev, false, err
		}
		switch ev.Kind {
		case parser.EventStreamEnd:
			c.done = true
			return ev, false, nil
		case parser.EventDocumentStart:
			return ev, true, nil
		}
	}
}

// single fails with MultipleDocuments when another document follows the one
// just composed.
func (c *composer) single() error {
	ev, more, err := c.more()
	if err != nil {
		return err
	}
	if more {
		return &ComposeError{Kind: MultipleDocuments, Line: ev.Pos.Line, Column: ev.Pos.Column}
	}
	return nil
}

// document composes the events between a DocumentStart and its DocumentEnd.
//
// Grammar:
//
//	Document = DocumentStart Node DocumentEnd ;
func (c *composer) document(start parser.Event) (*Document, error) {
	c.doc = &Document{
		Anchors:       make(map[string]*Node),
		Version:       start.Version,
		TagDirectives: start.TagDirectives,
		ExplicitStart: !start.Implicit,
	}
	c.anchors = c.doc.Anchors
	c.open = make(map[*Node]bool)

	root, err := c.node()
	if err != nil {
		return nil, err
	}
	if !root.IsZero() {
		c.doc.Root = root
	}

	end, err := c.parser.Next()
	if err != nil {
		return nil, err
	}
	c.doc.ExplicitEnd = end.Kind == parser.EventDocumentEnd && !end.Implicit

	doc := c.doc
	c.doc, c.anchors, c.open = nil, nil, nil
	return doc, nil
}

// node composes one node from the next event.
//
// Grammar:
//
//	Node = Scalar | Alias | SequenceStart { Node } SequenceEnd
//	     | MappingStart { Node Node } MappingEnd ;
func (c *composer) node() (*Node, error) {
	ev, err := c.parser.Next()
	if err != nil {
		return nil, err
	}

	switch ev.Kind {
	case parser.EventAlias:
		return c.alias(ev)

	case parser.EventScalar:
		n := c.newNode(ScalarNode, ev)
		n.Value = ev.Value
		n.Style = scalarStyle(ev.Style)
		return n, nil

	case parser.EventSequenceStart, parser.EventMappingStart:
		kind := SequenceNode
		if ev.Kind == parser.EventMappingStart {
			kind = MappingNode
		}
		n := c.newNode(kind, ev)
		if ev.Flow {
			n.Style = StyleFlow
		}

		c.open[n] = true
		defer delete(c.open, n)
		for {
			child, err := c.node()
			if err != nil {
				return nil, err
			}
			if child == nil {
				break
			}
			n.Content = append(n.Content, child)
		}
		return n, nil

	case parser.EventSequenceEnd, parser.EventMappingEnd:
		// end of the enclosing collection
		return nil, nil
	}

	return nil, &ParseError{Pos: ev.Pos, Expected: "a node", Found: ev.Kind.String()}
}

// newNode creates a node for ev, records it in the document arena and
// registers its anchor. A redefined anchor replaces the earlier one for the
// aliases that follow.
func (c *composer) newNode(kind Kind, ev parser.Event) *Node {
	n := &Node{
		Kind:   kind,
		Tag:    ev.Tag,
		Anchor: ev.Anchor,
		Line:   ev.Pos.Line,
		Column: ev.Pos.Column,
	}
	c.doc.Nodes = append(c.doc.Nodes, n)
	if n.Anchor != "" {
		c.anchors[n.Anchor] = n
	}
	return n
}

func (c *composer) alias(ev parser.Event) (*Node, error) {
	target, ok := c.anchors[ev.Anchor]
	if !ok {
		return nil, &ComposeError{Kind: UndefinedAlias, Anchor: ev.Anchor, Line: ev.Pos.Line, Column: ev.Pos.Column}
	}
	if c.open[target] && !c.cycles {
		return nil, &ComposeError{Kind: CyclicReference, Anchor: ev.Anchor, Line: ev.Pos.Line, Column: ev.Pos.Column}
	}
	n := &Node{
		Kind:   AliasNode,
		Value:  ev.Anchor,
		Alias:  target,
		Line:   ev.Pos.Line,
		Column: ev.Pos.Column,
	}
	c.doc.Nodes = append(c.doc.Nodes, n)
	return n, nil
}

// skipDocument discards the rest of a document after a compose error.
func (c *composer) skipDocument() {
	c.doc, c.anchors, c.open = nil, nil, nil
	for {
		ev, err := c.parser.Next()
		if err != nil || ev.Kind == parser.EventDocumentEnd {
			return
		}
		if ev.Kind == parser.EventStreamEnd {
			c.done = true
			return
		}
	}
}

func scalarStyle(s tokenizer.ScalarStyle) Style {
	switch s {
	case tokenizer.StylePlain:
		return StylePlain
	case tokenizer.StyleSingleQuoted:
		return StyleSingleQuoted
	case tokenizer.StyleDoubleQuoted:
		return StyleDoubleQuoted
	case tokenizer.StyleLiteral:
		return StyleLiteral
	case tokenizer.StyleFolded:
		return StyleFolded
	}
	return StyleDefault
}
