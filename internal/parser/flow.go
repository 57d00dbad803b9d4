package parser

import (
	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
	"github.com/shapestone/safeyaml/internal/tokenizer"
)

// parseFlowSequence parses a flow-style sequence: [item, item, ...]
//
// Grammar:
//
//	FlowSequence = "[" [ Entry { "," Entry } [ "," ] ] "]" ;
//	Entry = FlowNode | SinglePair ;
//	SinglePair = [ "?" ] [ FlowNode ] ":" [ FlowNode ] ;
//
// A key: value pair inside a sequence is a single-pair mapping.
func (p *Parser) parseFlowSequence(props properties, pos shapetokenizer.Position) error {
	p.advance() // [
	p.emit(Event{Kind: EventSequenceStart, Anchor: props.anchor, Tag: props.tag, Flow: true, Pos: pos})

	for first := true; ; first = false {
		tok := p.peek()
		if tok.Kind == tokenizer.TokenFlowSequenceEnd {
			p.advance()
			break
		}
		if !first {
			if tok.Kind != tokenizer.TokenFlowEntry {
				return &ParseError{Pos: tok.Pos, Expected: "',' or ']'", Found: describe(tok)}
			}
			p.advance()
			if p.peek().Kind == tokenizer.TokenFlowSequenceEnd {
				p.advance()
				break
			}
		}

		if err := p.parseFlowSequenceEntry(); err != nil {
			return err
		}
	}

	p.emit(Event{Kind: EventSequenceEnd, Flow: true, Pos: p.peek().Pos})
	return nil
}

// parseFlowSequenceEntry parses one entry, turning key: value into a
// single-pair mapping.
func (p *Parser) parseFlowSequenceEntry() error {
	tok := p.peek()
	if tok.Kind == tokenizer.TokenKey {
		p.advance()
		p.emit(Event{Kind: EventMappingStart, Flow: true, Pos: tok.Pos})
		if err := p.parseFlowPair(tokenizer.TokenFlowSequenceEnd); err != nil {
			return err
		}
		p.emit(Event{Kind: EventMappingEnd, Flow: true, Pos: p.peek().Pos})
		return nil
	}

	if tok.Kind == tokenizer.TokenValue {
		p.emit(Event{Kind: EventMappingStart, Flow: true, Pos: tok.Pos})
		if err := p.parseFlowPair(tokenizer.TokenFlowSequenceEnd); err != nil {
			return err
		}
		p.emit(Event{Kind: EventMappingEnd, Flow: true, Pos: p.peek().Pos})
		return nil
	}

	mark := len(p.events)
	if err := p.parseFlowNode(); err != nil {
		return err
	}
	if p.peek().Kind != tokenizer.TokenValue {
		return nil
	}

	p.insertAt(mark, Event{Kind: EventMappingStart, Flow: true, Pos: tok.Pos})
	if err := p.parseFlowValue(tokenizer.TokenFlowSequenceEnd); err != nil {
		return err
	}
	p.emit(Event{Kind: EventMappingEnd, Flow: true, Pos: p.peek().Pos})
	return nil
}

// parseFlowMapping parses a flow-style mapping: {key: value, ...}
//
// Grammar:
//
//	FlowMapping = "{" [ Pair { "," Pair } [ "," ] ] "}" ;
//	Pair = [ "?" ] [ FlowNode ] [ ":" [ FlowNode ] ] ;
//
// A key without ':' has a null value.
func (p *Parser) parseFlowMapping(props properties, pos shapetokenizer.Position) error {
	p.advance() // {
	p.emit(Event{Kind: EventMappingStart, Anchor: props.anchor, Tag: props.tag, Flow: true, Pos: pos})

	for first := true; ; first = false {
		tok := p.peek()
		if tok.Kind == tokenizer.TokenFlowMappingEnd {
			p.advance()
			break
		}
		if !first {
			if tok.Kind != tokenizer.TokenFlowEntry {
				return &ParseError{Pos: tok.Pos, Expected: "',' or '}'", Found: describe(tok)}
			}
			p.advance()
			if p.peek().Kind == tokenizer.TokenFlowMappingEnd {
				p.advance()
				break
			}
		}

		if p.peek().Kind == tokenizer.TokenKey {
			p.advance()
		}
		if err := p.parseFlowPair(tokenizer.TokenFlowMappingEnd); err != nil {
			return err
		}
	}

	p.emit(Event{Kind: EventMappingEnd, Flow: true, Pos: p.peek().Pos})
	return nil
}

// parseFlowPair parses [key] [: [value]] inside a flow collection closed by end.
func (p *Parser) parseFlowPair(end tokenizer.Kind) error {
	tok := p.peek()
	switch tok.Kind {
	case tokenizer.TokenValue, tokenizer.TokenFlowEntry, end:
		p.emitEmpty(properties{}, tok.Pos)
	default:
		if err := p.parseFlowNode(); err != nil {
			return err
		}
	}

	if p.peek().Kind != tokenizer.TokenValue {
		p.emitEmpty(properties{}, p.peek().Pos)
		return nil
	}
	return p.parseFlowValue(end)
}

// parseFlowValue consumes ':' and parses the value, empty if the entry ends.
func (p *Parser) parseFlowValue(end tokenizer.Kind) error {
	p.advance() // :
	tok := p.peek()
	if tok.Kind == tokenizer.TokenFlowEntry || tok.Kind == end {
		p.emitEmpty(properties{}, tok.Pos)
		return nil
	}
	return p.parseFlowNode()
}

// parseFlowNode parses a node inside a flow collection.
//
// Grammar:
//
//	FlowNode = [ Properties ] ( Alias | Scalar | FlowSequence | FlowMapping | Empty ) ;
func (p *Parser) parseFlowNode() error {
	props, err := p.parseProperties()
	if err != nil {
		return err
	}
	tok := p.peek()
	if isDocumentBoundary(tok) {
		if tok.Kind == tokenizer.TokenStreamEnd {
			return &ParseError{Pos: tok.Pos, Expected: "the end of the flow collection", Found: describe(tok)}
		}
		return &ParseError{Pos: tok.Pos, Message: "document boundary inside a flow collection"}
	}
	if err := p.enter(tok); err != nil {
		return err
	}
	defer p.leave()
	return p.parseContent(props)
}

// insertAt inserts ev before the event at index i.
func (p *Parser) insertAt(i int, ev Event) {
	p.events = append(p.events, Event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}
