package tokenizer

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
)

// Scanner produces YAML tokens from a character stream.
//
// Characters are pulled from a Shape tokenizer.Stream one at a time through a
// small lookahead buffer, so input read from an io.Reader is only consumed as
// far as the tokens requested so far.
//
// The scanner tracks:
//   - the current line, column and byte offset
//   - the indentation of the current line
//   - the flow nesting level ([ and { nesting)
//
// Example:
//
//	s := tokenizer.NewScanner("a: [1, 2]\n")
//	for {
//	    tok, err := s.Next()
//	    if err != nil || tok.Kind == tokenizer.TokenStreamEnd {
//	        break
//	    }
//	}
type Scanner struct {
	src shapetokenizer.Stream
	buf []rune // lookahead, buf[0] is the next character
	eof bool   // src is exhausted

	offset int
	line   int // 1-based
	col    int // 0-based

	atLineStart bool // only indentation seen on the current line so far
	lineIndent  int  // column of the first non-space character on the current line

	blockIndent int  // column of the enclosing block collection, see SetBlockIndent
	indentKnown bool

	flowLevel  int
	docContent bool // a content token was produced in the current document
	lastJSON   bool // previous token was a quoted scalar or a flow collection end
	done       bool // StreamEnd was produced

	recording bool
	raw       strings.Builder
}

// NewScanner creates a scanner over an in-memory string.
func NewScanner(input string) *Scanner {
	return newScanner(shapetokenizer.NewStream(input))
}

// NewScannerFromReader creates a scanner that reads characters from r on demand.
func NewScannerFromReader(r io.Reader) *Scanner {
	return newScanner(shapetokenizer.NewStreamFromReader(r))
}

// NewScannerFromStream creates a scanner over a pre-configured Shape stream.
func NewScannerFromStream(stream shapetokenizer.Stream) *Scanner {
	return newScanner(stream)
}

func newScanner(stream shapetokenizer.Stream) *Scanner {
	return &Scanner{
		src:         stream,
		line:        1,
		atLineStart: true,
	}
}

// Scan tokenizes the whole input. The returned slice ends with a StreamEnd token.
func Scan(input string) ([]Token, error) {
	s := NewScanner(input)
	var tokens []Token
	for {
		tok, err := s.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenStreamEnd {
			return tokens, nil
		}
	}
}

// Next returns the next token. At the end of input it returns a StreamEnd
// token, repeatedly if called again.
func (s *Scanner) Next() (Token, error) {
	if s.done {
		return Token{Kind: TokenStreamEnd, Pos: s.mark()}, nil
	}

	if err := s.skipToContent(); err != nil {
		return Token{}, err
	}

	if s.eofAt(0) {
		s.done = true
		return Token{Kind: TokenStreamEnd, Pos: s.mark()}, nil
	}

	tok, err := s.scanToken()
	if err != nil {
		s.recording = false
		return Token{}, err
	}

	switch tok.Kind {
	case TokenDocumentStart, TokenDocumentEnd:
		s.docContent = false
	case TokenDirective, TokenAnchor, TokenTag:
	default:
		s.docContent = true
	}
	s.lastJSON = (tok.Kind == TokenScalar && tok.Style.Quoted()) ||
		tok.Kind == TokenFlowSequenceEnd || tok.Kind == TokenFlowMappingEnd

	return tok, nil
}

// Resync discards input up to the next line that starts with a document
// marker (--- or ...), or to the end of input. Scanning state that belongs to
// the abandoned document is reset.
func (s *Scanner) Resync() {
	s.flowLevel = 0
	s.docContent = false
	s.lastJSON = false
	s.recording = false
	for !s.eofAt(0) {
		if s.isDocumentMarker() {
			return
		}
		s.advance()
	}
}

// SetBlockIndent tells the scanner the column of the block collection that
// encloses the next token (-1 at the root). Plain scalar continuation lines
// and block scalar content must be indented past it. Without it the scanner
// uses the indentation of the line the scalar starts on.
func (s *Scanner) SetBlockIndent(col int) {
	s.blockIndent = col
	s.indentKnown = true
}

func (s *Scanner) parentIndent() int {
	if s.indentKnown {
		return s.blockIndent
	}
	return s.lineIndent
}

// FlowLevel returns the current [ and { nesting depth.
func (s *Scanner) FlowLevel() int {
	return s.flowLevel
}

// scanToken dispatches on the first character of the next token.
// The caller guarantees the scanner is positioned at content.
func (s *Scanner) scanToken() (Token, error) {
	start := s.mark()
	s.startRaw()

	if s.col == 0 {
		if s.isDocumentMarker() {
			kind := TokenDocumentStart
			if s.peek(0) == '.' {
				kind = TokenDocumentEnd
			}
			s.advanceN(3)
			s.flowLevel = 0
			return s.finish(Token{Kind: kind, Pos: start}), nil
		}
		if s.peek(0) == '%' {
			return s.scanDirective(start), nil
		}
	}

	r := s.peek(0)
	switch r {
	case '[':
		s.advance()
		s.flowLevel++
		return s.finish(Token{Kind: TokenFlowSequenceStart, Pos: start}), nil
	case '{':
		s.advance()
		s.flowLevel++
		return s.finish(Token{Kind: TokenFlowMappingStart, Pos: start}), nil
	case ']':
		s.advance()
		if s.flowLevel > 0 {
			s.flowLevel--
		}
		return s.finish(Token{Kind: TokenFlowSequenceEnd, Pos: start}), nil
	case '}':
		s.advance()
		if s.flowLevel > 0 {
			s.flowLevel--
		}
		return s.finish(Token{Kind: TokenFlowMappingEnd, Pos: start}), nil
	case ',':
		s.advance()
		return s.finish(Token{Kind: TokenFlowEntry, Pos: start}), nil
	case '-':
		if s.flowLevel == 0 && s.blankAt(1) {
			s.advance()
			return s.finish(Token{Kind: TokenBlockEntry, Pos: start}), nil
		}
	case '?':
		if s.blankAt(1) {
			s.advance()
			return s.finish(Token{Kind: TokenKey, Pos: start}), nil
		}
	case ':':
		if s.isValueIndicator() {
			s.advance()
			return s.finish(Token{Kind: TokenValue, Pos: start}), nil
		}
	case '*':
		return s.scanAnchor(start, TokenAlias)
	case '&':
		return s.scanAnchor(start, TokenAnchor)
	case '!':
		return s.scanTag(start)
	case '|':
		if s.flowLevel == 0 {
			return s.scanBlockScalar(start, StyleLiteral)
		}
	case '>':
		if s.flowLevel == 0 {
			return s.scanBlockScalar(start, StyleFolded)
		}
	case '\'':
		return s.scanSingleQuoted(start)
	case '"':
		return s.scanDoubleQuoted(start)
	case '@', '`':
		return Token{}, &LexError{Pos: start, Reason: fmt.Sprintf("found character %q that cannot start any token", r)}
	}

	return s.scanPlain(start)
}

// isValueIndicator reports whether the ':' at the current position is a
// mapping value indicator rather than plain scalar content.
func (s *Scanner) isValueIndicator() bool {
	if s.blankAt(1) {
		return true
	}
	if s.flowLevel > 0 {
		if isFlowIndicator(s.peek(1)) {
			return true
		}
		// {"a":1} - adjacent value after a JSON-like key
		if s.lastJSON {
			return true
		}
	}
	return false
}

// scanDirective scans a directive line: %NAME parameters.
// The token value is the directive text without the '%' and trailing comment.
func (s *Scanner) scanDirective(start shapetokenizer.Position) Token {
	s.advance() // %
	var b strings.Builder
	for !s.eofAt(0) && !isBreak(s.peek(0)) {
		r := s.peek(0)
		if r == '#' && b.Len() > 0 && isBlank(lastRune(b.String())) {
			break
		}
		b.WriteRune(r)
		s.advance()
	}
	return s.finish(Token{Kind: TokenDirective, Pos: start, Value: strings.TrimSpace(b.String())})
}

// scanAnchor scans &name or *name.
func (s *Scanner) scanAnchor(start shapetokenizer.Position, kind Kind) (Token, error) {
	s.advance() // & or *
	var b strings.Builder
	for !s.eofAt(0) {
		r := s.peek(0)
		if isBlank(r) || isBreak(r) || isFlowIndicator(r) {
			break
		}
		b.WriteRune(r)
		s.advance()
	}
	if b.Len() == 0 {
		what := "anchor"
		if kind == TokenAlias {
			what = "alias"
		}
		return Token{}, &LexError{Pos: start, Reason: "expected " + what + " name"}
	}
	return s.finish(Token{Kind: kind, Pos: start, Value: b.String()}), nil
}

// scanTag scans a tag property. The token value is the tag as written:
//
//	!local   !!str   !e!suffix   !   !<tag:example.com,2000:app>
//
// Handle expansion is the parser's job since it depends on %TAG directives.
func (s *Scanner) scanTag(start shapetokenizer.Position) (Token, error) {
	s.advance() // !
	var b strings.Builder
	b.WriteRune('!')

	if s.peek(0) == '<' {
		s.advance()
		b.WriteRune('<')
		for {
			if s.eofAt(0) || isBreak(s.peek(0)) || isBlank(s.peek(0)) {
				return Token{}, &LexError{Pos: start, Reason: "unterminated verbatim tag"}
			}
			r := s.peek(0)
			s.advance()
			b.WriteRune(r)
			if r == '>' {
				break
			}
		}
		if b.Len() == 3 {
			return Token{}, &LexError{Pos: start, Reason: "empty verbatim tag"}
		}
		return s.finish(Token{Kind: TokenTag, Pos: start, Value: b.String()}), nil
	}

	for !s.eofAt(0) {
		r := s.peek(0)
		if isBlank(r) || isBreak(r) || (s.flowLevel > 0 && isFlowIndicator(r)) {
			break
		}
		b.WriteRune(r)
		s.advance()
	}
	return s.finish(Token{Kind: TokenTag, Pos: start, Value: b.String()}), nil
}

// scanPlain scans a plain (unquoted) scalar.
//
// A plain scalar ends at ": " (or ':' before a flow indicator in flow context),
// at " #", at a flow indicator in flow context, or at a line break that is not
// followed by a continuation line. In block context a continuation line must be
// indented more than the line the scalar started on. A root scalar that is the
// first content of its document may continue at any indentation.
//
// Line folding: a single line break becomes a space, each additional empty line
// becomes a newline.
func (s *Scanner) scanPlain(start shapetokenizer.Position) (Token, error) {
	startIndent := s.parentIndent()
	root := s.flowLevel == 0 && !s.docContent

	var b strings.Builder
	var whitespace strings.Builder
	leadingBreak := false
	trailingBreaks := 0

	for {
		if s.isDocumentMarker() || (s.peek(0) == '#' && !s.eofAt(0)) {
			break
		}

		for !s.eofAt(0) {
			r := s.peek(0)
			if isBlank(r) || isBreak(r) {
				break
			}
			if r == ':' && (s.blankAt(1) || (s.flowLevel > 0 && isFlowIndicator(s.peek(1)))) {
				break
			}
			if s.flowLevel > 0 && isFlowIndicator(r) {
				break
			}

			if leadingBreak {
				if trailingBreaks == 0 {
					b.WriteByte(' ')
				} else {
					b.WriteString(strings.Repeat("\n", trailingBreaks))
				}
				leadingBreak = false
				trailingBreaks = 0
			} else if whitespace.Len() > 0 {
				b.WriteString(whitespace.String())
			}
			whitespace.Reset()

			b.WriteRune(r)
			s.advance()
		}

		if s.eofAt(0) || !(isBlank(s.peek(0)) || isBreak(s.peek(0))) {
			break
		}

		// Consume separating whitespace and line breaks.
		for !s.eofAt(0) && (isBlank(s.peek(0)) || isBreak(s.peek(0))) {
			r := s.peek(0)
			if isBlank(r) {
				if r == '\t' && leadingBreak && s.atLineStart && s.flowLevel == 0 && !s.restOfLineBlank() {
					return Token{}, &LexError{Pos: s.mark(), Reason: "tab character used for indentation"}
				}
				if !leadingBreak {
					whitespace.WriteRune(r)
				}
				s.advance()
				continue
			}
			s.skipBreak()
			if !leadingBreak {
				whitespace.Reset()
				leadingBreak = true
			} else {
				trailingBreaks++
			}
		}

		if leadingBreak && s.flowLevel == 0 && !root && s.col <= startIndent {
			break
		}
	}

	tok := s.finish(Token{Kind: TokenScalar, Pos: start, Value: b.String(), Style: StylePlain})
	tok.Raw = strings.TrimRight(tok.Raw, " \t\r\n")
	if tok.Raw == "" {
		return Token{}, &LexError{Pos: start, Reason: fmt.Sprintf("unexpected character %q", s.peek(0))}
	}
	return tok, nil
}

// mark returns the current position.
func (s *Scanner) mark() shapetokenizer.Position {
	return shapetokenizer.Position{Offset: s.offset, Line: s.line, Column: s.col + 1}
}

func (s *Scanner) startRaw() {
	s.raw.Reset()
	s.recording = true
}

func (s *Scanner) finish(tok Token) Token {
	tok.Raw = s.raw.String()
	s.recording = false
	return tok
}

// fill makes sure n+1 characters are buffered, if the stream has them.
func (s *Scanner) fill(n int) {
	for len(s.buf) <= n && !s.eof {
		r, ok := s.src.NextChar()
		if !ok {
			s.eof = true
			return
		}
		s.buf = append(s.buf, r)
	}
}

// peek returns the character n positions ahead, or 0 past the end of input.
func (s *Scanner) peek(n int) rune {
	s.fill(n)
	if n < len(s.buf) {
		return s.buf[n]
	}
	return 0
}

// eofAt reports whether position n is past the end of input.
func (s *Scanner) eofAt(n int) bool {
	s.fill(n)
	return n >= len(s.buf)
}

// blankAt reports whether position n holds a space, tab, line break or end of input.
func (s *Scanner) blankAt(n int) bool {
	if s.eofAt(n) {
		return true
	}
	r := s.peek(n)
	return isBlank(r) || isBreak(r)
}

// advance consumes one character and updates the position.
func (s *Scanner) advance() {
	if s.eofAt(0) {
		return
	}
	r := s.buf[0]
	s.buf = s.buf[1:]

	if s.recording {
		s.raw.WriteRune(r)
	}
	s.offset += utf8.RuneLen(r)

	switch {
	case r == '\n' || (r == '\r' && s.peek(0) != '\n'):
		s.line++
		s.col = 0
		s.atLineStart = true
		return
	case r == '\r':
		// first half of \r\n, the \n ends the line
		s.col++
		return
	case s.atLineStart && r != ' ' && r != '\t':
		s.lineIndent = s.col
		s.atLineStart = false
	}
	s.col++
}

func (s *Scanner) advanceN(n int) {
	for i := 0; i < n; i++ {
		s.advance()
	}
}

// skipBreak consumes one line break (\n, \r or \r\n).
func (s *Scanner) skipBreak() {
	if s.peek(0) == '\r' && s.peek(1) == '\n' {
		s.advance()
	}
	s.advance()
}

// isDocumentMarker reports whether the scanner is at column 0 on "---" or
// "..." followed by a blank or end of input.
func (s *Scanner) isDocumentMarker() bool {
	if s.col != 0 {
		return false
	}
	c := s.peek(0)
	if c != '-' && c != '.' {
		return false
	}
	return s.peek(1) == c && s.peek(2) == c && !s.eofAt(2) && s.blankAt(3)
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t'
}

func isBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

func isFlowIndicator(r rune) bool {
	return r == ',' || r == '[' || r == ']' || r == '{' || r == '}'
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
