package parser

import (
	"net/url"
	"strings"

	"github.com/shapestone/safeyaml/internal/tokenizer"
)

// CoreTagPrefix is the prefix the !! handle expands to by default.
const CoreTagPrefix = "tag:yaml.org,2002:"

// parseProperties parses the optional anchor and tag in front of a node, in
// either order.
//
// Grammar:
//
//	Properties = ( Anchor [ Tag ] ) | ( Tag [ Anchor ] ) ;
func (p *Parser) parseProperties() (properties, error) {
	var props properties
	for {
		tok := p.peek()
		switch tok.Kind {
		case tokenizer.TokenAnchor:
			if props.anchor != "" {
				return props, &ParseError{Pos: tok.Pos, Message: "a node can have only one anchor"}
			}
			props.anchor = tok.Value
		case tokenizer.TokenTag:
			if props.tag != "" {
				return props, &ParseError{Pos: tok.Pos, Message: "a node can have only one tag"}
			}
			tag, err := p.expandTag(tok)
			if err != nil {
				return props, err
			}
			props.tag = tag
		default:
			return props, nil
		}
		if !props.present {
			props.pos = tok.Pos
			props.present = true
		}
		p.advance()
	}
}

// expandTag resolves a tag as written to its full form.
//
// Tags can be:
//   - Verbatim tags: !<tag:example.com,2000:type> (used as is)
//   - The non-specific tag: ! (kept as "!")
//   - Core tags: !!str, expanded through the !! handle
//   - Named handles: !e!type, declared with %TAG
//   - Local tags: !type, expanded through the ! handle
//
// A handle without a %TAG declaration (other than ! and !!) is an error.
func (p *Parser) expandTag(tok tokenizer.Token) (string, error) {
	raw := tok.Value
	if strings.HasPrefix(raw, "!<") && strings.HasSuffix(raw, ">") {
		return raw[2 : len(raw)-1], nil
	}
	if raw == "!" {
		return "!", nil
	}

	handle, suffix := splitTag(raw)
	prefix, ok := p.tagHandles[handle]
	if !ok {
		return "", &ParseError{Pos: tok.Pos, Message: "undefined tag handle " + handle}
	}
	if suffix == "" {
		return "", &ParseError{Pos: tok.Pos, Message: "tag " + raw + " has an empty suffix"}
	}
	if strings.Contains(suffix, "%") {
		decoded, err := url.PathUnescape(suffix)
		if err != nil {
			return "", &ParseError{Pos: tok.Pos, Message: "invalid escape in tag " + raw}
		}
		suffix = decoded
	}
	return prefix + suffix, nil
}

// splitTag splits a shorthand tag into handle and suffix:
// "!!str" -> ("!!", "str"), "!e!x" -> ("!e!", "x"), "!x" -> ("!", "x").
func splitTag(raw string) (string, string) {
	if strings.HasPrefix(raw, "!!") {
		return "!!", raw[2:]
	}
	if i := strings.IndexByte(raw[1:], '!'); i >= 0 {
		return raw[:i+2], raw[i+2:]
	}
	return "!", raw[1:]
}

// ShortTag returns the shortest written form of a full tag using the default
// handles: "tag:yaml.org,2002:str" -> "!!str", "!local" -> "!local", anything
// else -> "!<tag>".
func ShortTag(tag string) string {
	switch {
	case tag == "" || tag == "!":
		return tag
	case strings.HasPrefix(tag, CoreTagPrefix) && isTagSuffix(tag[len(CoreTagPrefix):]):
		return "!!" + tag[len(CoreTagPrefix):]
	case strings.HasPrefix(tag, "!") && isTagSuffix(tag[1:]):
		return tag
	}
	return "!<" + tag + ">"
}

// isTagSuffix reports whether s can be written after a handle without escaping.
func isTagSuffix(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r <= ' ' || r > '~' || strings.ContainsRune("!,[]{}%", r) {
			return false
		}
	}
	return true
}
