package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shapestone/safeyaml/internal/tokenizer"
)

// tagHandlePattern matches the handles a %TAG directive may declare.
var tagHandlePattern = regexp.MustCompile(`^!([0-9A-Za-z-]*!)?$`)

// parseDirectives parses the directives in front of a document.
// Directives must appear before the document start marker (---).
//
// Grammar:
//
//	DirectiveLine = "%" DirectiveName DirectiveParameter* Newline ;
//
// Supported directives:
//
//	%YAML 1.2         - Specifies YAML version
//	%TAG ! prefix     - Defines a tag shorthand
//
// Unknown directives are ignored, as YAML 1.2 requires. It reports whether any
// directive was present.
func (p *Parser) parseDirectives() (bool, error) {
	seen := false
	for p.peek().Kind == tokenizer.TokenDirective {
		tok := p.advance()
		seen = true
		if err := p.processDirective(tok); err != nil {
			return seen, err
		}
	}
	return seen, nil
}

// processDirective processes a single directive. The token value holds the
// directive name and parameters without the % prefix.
func (p *Parser) processDirective(tok tokenizer.Token) error {
	parts := strings.Fields(tok.Value)
	if len(parts) == 0 {
		return &ParseError{Pos: tok.Pos, Message: "empty directive"}
	}

	switch parts[0] {
	case "YAML":
		return p.processYAMLDirective(tok, parts[1:])
	case "TAG":
		return p.processTAGDirective(tok, parts[1:])
	default:
		// reserved directive, ignored
		return nil
	}
}

// processYAMLDirective processes the %YAML directive.
// Format: %YAML major.minor
// Example: %YAML 1.2
//
// Any 1.x version is accepted; the engine reads all of them with the same
// schema.
func (p *Parser) processYAMLDirective(tok tokenizer.Token, params []string) error {
	if p.version != "" {
		return &ParseError{Pos: tok.Pos, Message: "duplicate %YAML directive"}
	}
	if len(params) != 1 {
		return &ParseError{Pos: tok.Pos, Message: "%YAML directive takes exactly one version"}
	}

	var major, minor int
	if _, err := fmt.Sscanf(params[0], "%d.%d", &major, &minor); err != nil {
		return &ParseError{Pos: tok.Pos, Message: fmt.Sprintf("malformed YAML version %q", params[0])}
	}
	if major != 1 {
		return &ParseError{Pos: tok.Pos, Message: fmt.Sprintf("unsupported YAML version %q", params[0])}
	}

	p.version = params[0]
	return nil
}

// processTAGDirective processes the %TAG directive.
// Format: %TAG handle prefix
// Example: %TAG ! tag:example.com,2000:
// Example: %TAG !! tag:yaml.org,2002:
// Example: %TAG !e! tag:example.com,2000:app/
func (p *Parser) processTAGDirective(tok tokenizer.Token, params []string) error {
	if len(params) != 2 {
		return &ParseError{Pos: tok.Pos, Message: "%TAG directive takes a handle and a prefix"}
	}

	handle, prefix := params[0], params[1]
	if !tagHandlePattern.MatchString(handle) {
		return &ParseError{Pos: tok.Pos, Message: fmt.Sprintf("invalid tag handle %q", handle)}
	}
	if _, dup := p.tagDirectives[handle]; dup {
		return &ParseError{Pos: tok.Pos, Message: fmt.Sprintf("duplicate %%TAG directive for handle %s", handle)}
	}

	p.tagDirectives[handle] = prefix
	p.tagHandles[handle] = prefix
	return nil
}

// resetDirectives resets directives to the default state.
// This is called at the start of each document in a multi-document stream.
func (p *Parser) resetDirectives() {
	p.version = ""

	// Default tag handles from YAML 1.2:
	// ! -> ! (local tags)
	// !! -> tag:yaml.org,2002: (core schema)
	p.tagHandles = map[string]string{
		"!":  "!",
		"!!": CoreTagPrefix,
	}
	p.tagDirectives = map[string]string{}
}
