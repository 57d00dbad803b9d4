package parser

import (
	"maps"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
	"github.com/shapestone/safeyaml/internal/tokenizer"
)

type streamState int

const (
	stateStart streamState = iota
	stateDocuments
	stateEnd
)

// Next returns the next event of the stream.
//
// Grammar:
//
//	Stream = StreamStart { Document } StreamEnd ;
//	Document = { Directive } [ "---" ] [ BlockNode ] [ "..." ] ;
//
// Events are produced one document at a time: the first call for a document
// parses that document completely and later calls hand out its events. When a
// document fails, Next returns the error, skips to the next document boundary
// and continues from there on the following call. After the StreamEnd event
// every call returns StreamEnd again.
func (p *Parser) Next() (Event, error) {
	for {
		if p.next < len(p.events) {
			ev := p.events[p.next]
			p.next++
			return ev, nil
		}

		switch p.state {
		case stateStart:
			p.state = stateDocuments
			return Event{Kind: EventStreamStart, Pos: shapetokenizer.Position{Line: 1, Column: 1}}, nil
		case stateEnd:
			return Event{Kind: EventStreamEnd, Pos: p.peek().Pos}, nil
		}

		p.events = p.events[:0]
		p.next = 0
		more, err := p.parseDocument()
		if err != nil {
			p.recover()
			return Event{}, err
		}
		if !more {
			p.state = stateEnd
		}
	}
}

// Events parses a complete stream and returns all of its events, stopping at
// the first error.
func Events(input string) ([]Event, error) {
	p := NewParser(input)
	var events []Event
	for {
		ev, err := p.Next()
		if err != nil {
			return events, err
		}
		events = append(events, ev)
		if ev.Kind == EventStreamEnd {
			return events, nil
		}
	}
}

// parseDocument parses the next document into p.events. It reports false
// when the stream has no more documents.
func (p *Parser) parseDocument() (bool, error) {
	p.resetDirectives()
	p.scanner.SetBlockIndent(-1)

	// "..." without a preceding document
	for p.peek().Kind == tokenizer.TokenDocumentEnd {
		p.advance()
	}

	sawDirectives, err := p.parseDirectives()
	if err != nil {
		return false, p.failure(err)
	}

	tok := p.peek()
	if tok.Kind == tokenizer.TokenStreamEnd {
		if p.err != nil {
			return false, p.err
		}
		if sawDirectives {
			return false, &ParseError{Pos: tok.Pos, Expected: "'---' after directives", Found: describe(tok)}
		}
		return false, nil
	}

	explicit := tok.Kind == tokenizer.TokenDocumentStart
	if !explicit && sawDirectives {
		return false, &ParseError{Pos: tok.Pos, Expected: "'---' after directives", Found: describe(tok)}
	}
	indicatorLine := 0
	if explicit {
		p.advance()
		indicatorLine = tok.Pos.Line
	}

	p.emit(Event{
		Kind:          EventDocumentStart,
		Implicit:      !explicit,
		Version:       p.version,
		TagDirectives: maps.Clone(p.tagDirectives),
		Pos:           tok.Pos,
	})

	// an explicit document without content holds an empty scalar
	if err := p.parseBlockNode(-1, ctxRoot, indicatorLine); err != nil {
		return false, p.failure(err)
	}

	end := p.peek()
	switch end.Kind {
	case tokenizer.TokenDocumentEnd:
		p.advance()
		p.emit(Event{Kind: EventDocumentEnd, Pos: end.Pos})
	case tokenizer.TokenDocumentStart, tokenizer.TokenStreamEnd:
		p.emit(Event{Kind: EventDocumentEnd, Implicit: true, Pos: end.Pos})
	default:
		return false, p.failure(&ParseError{
			Pos:      end.Pos,
			Expected: "a document boundary ('---' or '...') after the root node",
			Found:    describe(end),
		})
	}

	if p.err != nil {
		return false, p.err
	}
	return true, nil
}

// failure prefers a scanner error over the parse error it caused.
func (p *Parser) failure(err error) error {
	if p.err != nil {
		return p.err
	}
	return err
}

// recover drops the failed document and positions the parser at the next
// document boundary.
func (p *Parser) recover() {
	p.events = p.events[:0]
	p.next = 0

	keep := p.err == nil && p.hasTok && isDocumentBoundary(p.tok)
	p.err = nil
	if !keep {
		p.hasTok = false
		p.scanner.Resync()
	}
}
