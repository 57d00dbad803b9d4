package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
)

// simpleEscapes maps the single-character escapes of double-quoted scalars.
var simpleEscapes = map[rune]string{
	'0':  "\x00",
	'a':  "\a",
	'b':  "\b",
	't':  "\t",
	'\t': "\t",
	'n':  "\n",
	'v':  "\v",
	'f':  "\f",
	'r':  "\r",
	'e':  "\x1b",
	' ':  " ",
	'"':  "\"",
	'/':  "/",
	'\\': "\\",
	'N':  "\u0085",
	'_':  "\u00a0",
	'L':  "\u2028",
	'P':  "\u2029",
}

// hexEscapeLen maps the hexadecimal escape letters to their digit count.
var hexEscapeLen = map[rune]int{
	'x': 2,
	'u': 4,
	'U': 8,
}

// scanSingleQuoted scans a single-quoted scalar. The only escape is '' for a
// single quote.
//
// Grammar:
//
//	SingleQuoted = "'" { Character | "''" } "'" ;
func (s *Scanner) scanSingleQuoted(start shapetokenizer.Position) (Token, error) {
	s.advance() // opening quote
	var b strings.Builder
	for {
		if err := s.checkQuotedContinues(start, "single-quoted"); err != nil {
			return Token{}, err
		}
		r := s.peek(0)
		switch {
		case r == '\'' && s.peek(1) == '\'' && !s.eofAt(1):
			b.WriteByte('\'')
			s.advanceN(2)
		case r == '\'':
			s.advance()
			return s.finish(Token{Kind: TokenScalar, Pos: start, Value: b.String(), Style: StyleSingleQuoted}), nil
		case isBlank(r) || isBreak(r):
			if err := s.foldQuotedWhitespace(start, "single-quoted", &b); err != nil {
				return Token{}, err
			}
		default:
			b.WriteRune(r)
			s.advance()
		}
	}
}

// scanDoubleQuoted scans a double-quoted scalar, decoding escape sequences.
//
// Grammar:
//
//	DoubleQuoted = '"' { Character | EscapeSequence } '"' ;
//	EscapeSequence = "\\" ( SimpleEscape | "x" Hex{2} | "u" Hex{4} | "U" Hex{8} | Break ) ;
//
// An escaped line break joins the lines without inserting a space.
func (s *Scanner) scanDoubleQuoted(start shapetokenizer.Position) (Token, error) {
	s.advance() // opening quote
	var b strings.Builder
	for {
		if err := s.checkQuotedContinues(start, "double-quoted"); err != nil {
			return Token{}, err
		}
		r := s.peek(0)
		switch {
		case r == '"':
			s.advance()
			return s.finish(Token{Kind: TokenScalar, Pos: start, Value: b.String(), Style: StyleDoubleQuoted}), nil
		case r == '\\':
			if err := s.scanEscape(&b); err != nil {
				return Token{}, err
			}
		case isBlank(r) || isBreak(r):
			if err := s.foldQuotedWhitespace(start, "double-quoted", &b); err != nil {
				return Token{}, err
			}
		default:
			b.WriteRune(r)
			s.advance()
		}
	}
}

// scanEscape decodes one escape sequence starting at the backslash.
func (s *Scanner) scanEscape(b *strings.Builder) error {
	pos := s.mark()
	s.advance() // backslash
	if s.eofAt(0) {
		return &LexError{Pos: pos, Reason: "unterminated escape sequence"}
	}
	r := s.peek(0)

	if isBreak(r) {
		// escaped line break: join lines, drop leading blanks of the next line
		s.skipBreak()
		for isBlank(s.peek(0)) {
			s.advance()
		}
		return nil
	}

	if esc, ok := simpleEscapes[r]; ok {
		b.WriteString(esc)
		s.advance()
		return nil
	}

	n, ok := hexEscapeLen[r]
	if !ok {
		return &LexError{Pos: pos, Reason: fmt.Sprintf("invalid escape sequence \\%c", r)}
	}
	s.advance()

	code := 0
	for i := 0; i < n; i++ {
		d, ok := hexValue(s.peek(0))
		if !ok || s.eofAt(0) {
			return &LexError{Pos: pos, Reason: fmt.Sprintf("invalid escape sequence \\%c: expected %d hexadecimal digits", r, n)}
		}
		code = code<<4 | d
		s.advance()
	}
	if !utf8.ValidRune(rune(code)) {
		return &LexError{Pos: pos, Reason: fmt.Sprintf("invalid Unicode character U+%X in escape sequence", code)}
	}
	b.WriteRune(rune(code))
	return nil
}

// foldQuotedWhitespace consumes a run of blanks and line breaks inside a
// quoted scalar. Blanks inside a line are kept. A single line break folds to a
// space and each further empty line becomes a newline; blanks around line
// breaks are dropped.
func (s *Scanner) foldQuotedWhitespace(start shapetokenizer.Position, what string, b *strings.Builder) error {
	var blanks strings.Builder
	breaks := 0
	for !s.eofAt(0) {
		r := s.peek(0)
		if isBlank(r) {
			if breaks == 0 {
				blanks.WriteRune(r)
			}
			s.advance()
			continue
		}
		if !isBreak(r) {
			break
		}
		if err := s.checkQuotedContinues(start, what); err != nil {
			return err
		}
		s.skipBreak()
		breaks++
		if s.isDocumentMarker() {
			return &LexError{Pos: start, Reason: "unterminated " + what + " scalar: document marker inside scalar"}
		}
	}

	switch {
	case breaks == 0:
		b.WriteString(blanks.String())
	case breaks == 1:
		b.WriteByte(' ')
	default:
		b.WriteString(strings.Repeat("\n", breaks-1))
	}
	return nil
}

// checkQuotedContinues fails when the input ends inside a quoted scalar.
func (s *Scanner) checkQuotedContinues(start shapetokenizer.Position, what string) error {
	if s.eofAt(0) {
		return &LexError{Pos: start, Reason: "unterminated " + what + " scalar"}
	}
	return nil
}

func hexValue(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10, true
	}
	return 0, false
}
