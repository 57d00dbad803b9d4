package tokenizer

import (
	"fmt"
	"strings"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
)

// skipToContent consumes whitespace, comments and line breaks up to the next
// token. Indentation is measured by advance as a side effect.
//
// Tabs are allowed as separators inside a line and on blank or comment-only
// lines, but a tab in the leading indentation of a content line in block
// context is an error: YAML indentation is spaces only.
func (s *Scanner) skipToContent() error {
	for !s.eofAt(0) {
		r := s.peek(0)
		switch {
		case r == ' ':
			s.advance()
		case r == '\t':
			if s.atLineStart && s.flowLevel == 0 && !s.restOfLineBlank() {
				return &LexError{Pos: s.mark(), Reason: "tab character used for indentation"}
			}
			s.advance()
		case r == '#':
			for !s.eofAt(0) && !isBreak(s.peek(0)) {
				s.advance()
			}
		case isBreak(r):
			s.skipBreak()
		case r == '\uFEFF' && s.offset == 0:
			// byte order mark
			s.advance()
			s.col = 0
			s.atLineStart = true
		default:
			return nil
		}
	}
	return nil
}

// restOfLineBlank reports whether only blanks, a comment or a line break
// remain on the current line.
func (s *Scanner) restOfLineBlank() bool {
	for i := 0; ; i++ {
		if s.eofAt(i) {
			return true
		}
		r := s.peek(i)
		switch {
		case isBlank(r):
			continue
		case isBreak(r), r == '#':
			return true
		default:
			return false
		}
	}
}

// chomping mode of a block scalar
type chomping int

const (
	chompClip chomping = iota
	chompStrip
	chompKeep
)

// scanBlockScalar scans a literal (|) or folded (>) block scalar.
//
// Grammar:
//
//	BlockScalar = ( "|" | ">" ) [ Indicators ] [ Comment ] Break { Line } ;
//	Indicators  = ChompingIndicator [ IndentIndicator ] | IndentIndicator [ ChompingIndicator ] ;
//	ChompingIndicator = "-" | "+" ;
//	IndentIndicator = "1" ... "9" ;
//
// Content lines must be indented more than the enclosing block collection.
// Without an indentation indicator the content indentation is taken from the
// first non-empty line.
func (s *Scanner) scanBlockScalar(start shapetokenizer.Position, style ScalarStyle) (Token, error) {
	parentIndent := s.parentIndent()
	s.advance() // | or >

	chomp := chompClip
	explicit := 0
	sawChomp := false
	for i := 0; i < 2; i++ {
		r := s.peek(0)
		switch {
		case (r == '-' || r == '+') && !sawChomp:
			sawChomp = true
			chomp = chompStrip
			if r == '+' {
				chomp = chompKeep
			}
			s.advance()
		case r == '0':
			return Token{}, &LexError{Pos: s.mark(), Reason: "invalid indentation indicator 0 for block scalar"}
		case r >= '1' && r <= '9' && explicit == 0:
			explicit = int(r - '0')
			s.advance()
		}
	}

	for isBlank(s.peek(0)) {
		s.advance()
	}
	if s.peek(0) == '#' {
		for !s.eofAt(0) && !isBreak(s.peek(0)) {
			s.advance()
		}
	}
	if !s.eofAt(0) && !isBreak(s.peek(0)) {
		return Token{}, &LexError{
			Pos:    s.mark(),
			Reason: fmt.Sprintf("unexpected %q after block scalar header, expected a comment or line break", s.peek(0)),
		}
	}
	if !s.eofAt(0) {
		s.skipBreak()
	}

	minIndent := max(parentIndent+1, 1)
	indent := 0
	if explicit > 0 {
		indent = minIndent + explicit - 1
	}

	var lines []string // "" marks an empty line
	lastBreak := false
	for !s.eofAt(0) {
		col := 0
		for s.peek(0) == ' ' && (indent == 0 || col < indent) {
			s.advance()
			col++
		}
		if s.eofAt(0) {
			break
		}
		if isBreak(s.peek(0)) {
			lines = append(lines, "")
			s.skipBreak()
			lastBreak = true
			continue
		}
		if indent == 0 {
			indent = col
			if indent < minIndent {
				break
			}
		}
		if col < indent {
			break
		}

		var line strings.Builder
		for !s.eofAt(0) && !isBreak(s.peek(0)) {
			line.WriteRune(s.peek(0))
			s.advance()
		}
		lines = append(lines, line.String())
		lastBreak = !s.eofAt(0)
		if lastBreak {
			s.skipBreak()
		}
	}

	last := len(lines) - 1
	for last >= 0 && lines[last] == "" {
		last--
	}
	trailing := len(lines) - last - 1

	var value string
	if last < 0 {
		if chomp == chompKeep {
			value = strings.Repeat("\n", trailing)
		}
	} else {
		body := lines[:last+1]
		if style == StyleLiteral {
			value = strings.Join(body, "\n")
		} else {
			value = foldLines(body)
		}
		switch chomp {
		case chompClip:
			if lastBreak || trailing > 0 {
				value += "\n"
			}
		case chompKeep:
			if lastBreak || trailing > 0 {
				value += "\n"
			}
			value += strings.Repeat("\n", trailing)
		}
	}

	return s.finish(Token{Kind: TokenScalar, Pos: start, Value: value, Style: style}), nil
}

// foldLines joins the lines of a folded block scalar. A single line break
// between two lines of text becomes a space; empty lines are kept as line
// breaks. Lines starting with whitespace ("more indented") are never folded.
func foldLines(lines []string) string {
	var b strings.Builder
	i := 0
	for i < len(lines) && lines[i] == "" {
		b.WriteByte('\n')
		i++
	}
	for i < len(lines) {
		line := lines[i]
		b.WriteString(line)

		j := i + 1
		for j < len(lines) && lines[j] == "" {
			j++
		}
		if j >= len(lines) {
			break
		}
		empties := j - i - 1
		next := lines[j]
		moreIndented := isMoreIndented(line) || isMoreIndented(next)
		switch {
		case empties == 0 && !moreIndented:
			b.WriteByte(' ')
		case empties == 0:
			b.WriteByte('\n')
		case moreIndented:
			b.WriteString(strings.Repeat("\n", empties+1))
		default:
			b.WriteString(strings.Repeat("\n", empties))
		}
		i = j
	}
	return b.String()
}

func isMoreIndented(line string) bool {
	return line != "" && isBlank(rune(line[0]))
}
