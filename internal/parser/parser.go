// Package parser turns YAML tokens into structural events.
//
// The parser is a recursive descent parser over the scanner's token stream.
// Block structure is decided by token columns: a block collection owns every
// entry that starts at its column, and ends at the first token that starts to
// the left of it. Events for one document are produced together, on demand, so
// a stream is never parsed further than the documents requested.
package parser

import (
	"io"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
	"github.com/shapestone/safeyaml/internal/tokenizer"
)

// Parser produces events from a Scanner.
type Parser struct {
	scanner *tokenizer.Scanner
	tok     tokenizer.Token // one token lookahead
	hasTok  bool
	err     error // scanner failure in the current document

	events []Event // events of the current document
	next   int     // next event to hand out
	state  streamState

	version       string            // %YAML directive of the current document
	tagHandles    map[string]string // handle -> prefix, defaults included
	tagDirectives map[string]string // %TAG directives of the current document

	depth int // nodes being parsed, outermost first
}

// MaxDepth is the deepest node nesting a document may have.
const MaxDepth = 10000

// New creates a parser reading tokens from s.
func New(s *tokenizer.Scanner) *Parser {
	p := &Parser{scanner: s}
	p.resetDirectives()
	return p
}

// NewParser creates a parser for an in-memory string.
func NewParser(input string) *Parser {
	return New(tokenizer.NewScanner(input))
}

// NewParserFromReader creates a parser that reads from r as events are requested.
func NewParserFromReader(r io.Reader) *Parser {
	return New(tokenizer.NewScannerFromReader(r))
}

// nodeContext tells parseBlockNode where the node sits.
type nodeContext int

const (
	ctxRoot        nodeContext = iota
	ctxSeqEntry                // after '-'
	ctxMapValue                // after ':'
	ctxExplicitKey             // after '?'
)

// properties are the anchor and tag preceding a node.
type properties struct {
	anchor  string
	tag     string
	pos     shapetokenizer.Position
	present bool
}

// parseBlockNode parses one node in block context.
//
// Grammar:
//
//	BlockNode = [ Properties ] ( BlockSequence | BlockMapping | FlowNode | Empty ) ;
//
// parentIndent is the column of the enclosing block collection (-1 at the
// root). indicatorLine is the line of the '-', '?', ':' or '---' that
// introduced the node. A mapping value that starts on its ':' line cannot open
// a block collection; a block sequence used as a mapping value may sit at the
// mapping's own column.
func (p *Parser) parseBlockNode(parentIndent int, ctx nodeContext, indicatorLine int) error {
	p.scanner.SetBlockIndent(parentIndent)
	props, err := p.parseProperties()
	if err != nil {
		return err
	}

	tok := p.peek()
	if err := p.enter(tok); err != nil {
		return err
	}
	defer p.leave()

	col := column(tok)
	pos := tok.Pos
	if props.present {
		pos = props.pos
	}

	if isDocumentBoundary(tok) {
		p.emitEmpty(props, pos)
		return nil
	}

	inline := ctx == ctxMapValue && tok.Pos.Line == indicatorLine
	onNewLine := tok.Pos.Line != indicatorLine

	switch tok.Kind {
	case tokenizer.TokenBlockEntry:
		if inline {
			return &ParseError{Pos: tok.Pos, Message: "block sequence entries are not allowed here"}
		}
		if col > parentIndent || (ctx == ctxMapValue && col == parentIndent) {
			return p.parseBlockSequence(col, props, pos)
		}
		p.emitEmpty(props, pos)
		return nil

	case tokenizer.TokenKey, tokenizer.TokenValue:
		if inline {
			return &ParseError{Pos: tok.Pos, Message: "mapping values are not allowed here"}
		}
		if col > parentIndent {
			p.emit(Event{Kind: EventMappingStart, Anchor: props.anchor, Tag: props.tag, Pos: pos})
			return p.parseBlockMapping(col, false)
		}
		p.emitEmpty(props, pos)
		return nil

	case tokenizer.TokenFlowEntry, tokenizer.TokenFlowSequenceEnd, tokenizer.TokenFlowMappingEnd:
		if props.present {
			p.emitEmpty(props, pos)
			return nil
		}
		return &ParseError{Pos: tok.Pos, Expected: "a node", Found: describe(tok)}
	}

	if onNewLine && col <= parentIndent {
		p.emitEmpty(props, pos)
		return nil
	}

	// Scalar, alias or flow collection. It may turn out to be the first key
	// of a block mapping, which is only known once the ':' is seen.
	mark := len(p.events)
	if err := p.parseContent(props); err != nil {
		return err
	}

	next := p.peek()
	if next.Kind != tokenizer.TokenValue || next.Pos.Line != tok.Pos.Line {
		return nil
	}
	if inline {
		return &ParseError{Pos: next.Pos, Message: "mapping values are not allowed here"}
	}

	// Properties on the key's line belong to the key, properties on an
	// earlier line belong to the mapping.
	mapping := Event{Kind: EventMappingStart, Pos: tok.Pos}
	mapCol := col
	if props.present {
		if props.pos.Line == tok.Pos.Line {
			mapCol = props.pos.Column - 1
			mapping.Pos = props.pos
		} else {
			mapping.Anchor, mapping.Tag, mapping.Pos = props.anchor, props.tag, props.pos
			key := &p.events[mark]
			key.Anchor, key.Tag = "", ""
			key.Implicit = key.Kind == EventScalar
		}
	}
	p.insertAt(mark, mapping)
	return p.parseBlockMapping(mapCol, true)
}

// parseBlockSequence parses the entries of a block sequence at column col.
//
// Grammar:
//
//	BlockSequence = "-" BlockNode { "-" BlockNode } ;
func (p *Parser) parseBlockSequence(col int, props properties, pos shapetokenizer.Position) error {
	p.emit(Event{Kind: EventSequenceStart, Anchor: props.anchor, Tag: props.tag, Pos: pos})
	for {
		tok := p.peek()
		if tok.Kind != tokenizer.TokenBlockEntry || column(tok) != col {
			if !isDocumentBoundary(tok) && column(tok) > col {
				return &ParseError{Pos: tok.Pos, Expected: "'-' at the sequence indentation", Found: describe(tok)}
			}
			break
		}
		entry := p.advance()
		if err := p.parseBlockNode(col, ctxSeqEntry, entry.Pos.Line); err != nil {
			return err
		}
	}
	p.emit(Event{Kind: EventSequenceEnd, Pos: p.peek().Pos})
	return nil
}

// parseBlockMapping parses the entries of a block mapping at column col.
// The caller has emitted the mapping start event; when firstKeyDone is set the
// first key has been emitted as well and the ':' is next.
//
// Grammar:
//
//	BlockMapping = Entry { Entry } ;
//	Entry = ( "?" BlockNode [ ":" BlockNode ] ) | ( [ FlowNode ] ":" BlockNode ) ;
func (p *Parser) parseBlockMapping(col int, firstKeyDone bool) error {
	for first := true; ; first = false {
		if !first || !firstKeyDone {
			p.scanner.SetBlockIndent(col)
			tok := p.peek()
			if isDocumentBoundary(tok) || column(tok) < col {
				break
			}
			if column(tok) > col {
				return &ParseError{Pos: tok.Pos, Message: "bad indentation of a mapping entry"}
			}

			switch tok.Kind {
			case tokenizer.TokenKey:
				key := p.advance()
				if err := p.parseBlockNode(col, ctxExplicitKey, key.Pos.Line); err != nil {
					return err
				}
			case tokenizer.TokenValue:
				p.emitEmpty(properties{}, tok.Pos)
			case tokenizer.TokenBlockEntry:
				return &ParseError{Pos: tok.Pos, Expected: "a mapping key", Found: describe(tok)}
			default:
				if err := p.parseImplicitKey(); err != nil {
					return err
				}
			}
		}

		tok := p.peek()
		if tok.Kind != tokenizer.TokenValue {
			// explicit key without a value
			p.emitEmpty(properties{}, tok.Pos)
			continue
		}
		value := p.advance()
		if err := p.parseBlockNode(col, ctxMapValue, value.Pos.Line); err != nil {
			return err
		}
	}
	p.emit(Event{Kind: EventMappingEnd, Pos: p.peek().Pos})
	return nil
}

// parseImplicitKey parses a single-line key followed by ':' on the same line.
func (p *Parser) parseImplicitKey() error {
	props, err := p.parseProperties()
	if err != nil {
		return err
	}
	start := p.peek()
	if err := p.parseContent(props); err != nil {
		return err
	}
	next := p.peek()
	if next.Kind != tokenizer.TokenValue || next.Pos.Line != start.Pos.Line {
		return &ParseError{Pos: next.Pos, Expected: "':' after mapping key", Found: describe(next)}
	}
	return nil
}

// parseContent parses an alias, a scalar or a flow collection carrying the
// given properties. Properties without content make an empty scalar.
func (p *Parser) parseContent(props properties) error {
	tok := p.peek()
	pos := tok.Pos
	if props.present {
		pos = props.pos
	}

	switch tok.Kind {
	case tokenizer.TokenAlias:
		if props.present {
			return &ParseError{Pos: props.pos, Message: "an alias node cannot have an anchor or tag"}
		}
		p.advance()
		p.emit(Event{Kind: EventAlias, Anchor: tok.Value, Pos: tok.Pos})
		return nil
	case tokenizer.TokenScalar:
		p.advance()
		p.emit(Event{
			Kind:     EventScalar,
			Anchor:   props.anchor,
			Tag:      props.tag,
			Value:    tok.Value,
			Style:    tok.Style,
			Implicit: props.tag == "",
			Pos:      pos,
		})
		return nil
	case tokenizer.TokenFlowSequenceStart:
		return p.parseFlowSequence(props, pos)
	case tokenizer.TokenFlowMappingStart:
		return p.parseFlowMapping(props, pos)
	}

	if props.present {
		p.emitEmpty(props, pos)
		return nil
	}
	return &ParseError{Pos: tok.Pos, Expected: "a node", Found: describe(tok)}
}

// emitEmpty emits the null scalar that stands for a missing node.
func (p *Parser) emitEmpty(props properties, pos shapetokenizer.Position) {
	p.emit(Event{
		Kind:     EventScalar,
		Anchor:   props.anchor,
		Tag:      props.tag,
		Style:    tokenizer.StylePlain,
		Implicit: props.tag == "",
		Pos:      pos,
	})
}

// enter records one more level of nesting at tok.
func (p *Parser) enter(tok tokenizer.Token) error {
	if p.depth >= MaxDepth {
		return &ParseError{Pos: tok.Pos, Message: "exceeded max nesting depth"}
	}
	p.depth++
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) emit(ev Event) {
	p.events = append(p.events, ev)
}

// peek returns the lookahead token. A scanner failure is recorded in p.err and
// reported as the end of input so every parse loop unwinds.
func (p *Parser) peek() tokenizer.Token {
	if !p.hasTok {
		if p.err != nil {
			return tokenizer.Token{Kind: tokenizer.TokenStreamEnd}
		}
		tok, err := p.scanner.Next()
		if err != nil {
			p.err = err
			return tokenizer.Token{Kind: tokenizer.TokenStreamEnd}
		}
		p.tok = tok
		p.hasTok = true
	}
	return p.tok
}

// advance consumes and returns the lookahead token.
func (p *Parser) advance() tokenizer.Token {
	tok := p.peek()
	p.hasTok = false
	return tok
}

// column returns the 0-based column of a token.
func column(tok tokenizer.Token) int {
	return tok.Pos.Column - 1
}

// isDocumentBoundary reports whether tok ends the current document's content.
func isDocumentBoundary(tok tokenizer.Token) bool {
	switch tok.Kind {
	case tokenizer.TokenStreamEnd, tokenizer.TokenDocumentStart, tokenizer.TokenDocumentEnd, tokenizer.TokenDirective:
		return true
	}
	return false
}
