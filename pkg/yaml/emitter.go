package yaml

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// FlowStyle selects when collections are written in flow form ([...], {...}).
type FlowStyle int

const (
	// FlowAuto writes non-root leaf collections in flow form when they fit
	// the line width, and respects the flow style of parsed collections.
	FlowAuto FlowStyle = iota
	// FlowNever writes every non-empty collection in block form.
	FlowNever
	// FlowAlways writes collections in flow form unless they are nested more
	// than maxFlowDepth levels deep, hold multi-line strings or are too wide.
	FlowAlways
)

func (f FlowStyle) String() string {
	switch f {
	case FlowAuto:
		return "auto"
	case FlowNever:
		return "never"
	case FlowAlways:
		return "always"
	}
	return fmt.Sprintf("FlowStyle(%d)", int(f))
}

const maxFlowDepth = 3

// EmitterConfig controls the text produced by Dump and Serialize. It never
// changes what the text loads back to.
type EmitterConfig struct {
	FlowStyle FlowStyle
	Indent    int // spaces per nesting level, at least 1
	LineWidth int // preferred maximum line width; 0 or less disables wrapping

	// AllowUnicode writes printable non-ASCII characters as is. When false
	// they are written as escapes inside double quotes.
	AllowUnicode bool
	SortKeys     bool

	ExplicitStart bool // begin every document with ---
	ExplicitEnd   bool // end every document with ...
}

// DefaultEmitterConfig returns the configuration used when no emitter option
// is given.
func DefaultEmitterConfig() EmitterConfig {
	return EmitterConfig{
		FlowStyle:    FlowAuto,
		Indent:       2,
		LineWidth:    80,
		AllowUnicode: true,
	}
}

// Validate reports a configuration the emitter cannot honor.
func (c EmitterConfig) Validate() error {
	if c.Indent < 1 {
		return fmt.Errorf("yaml: emitter indent must be at least 1, got %d", c.Indent)
	}
	if c.FlowStyle < FlowAuto || c.FlowStyle > FlowAlways {
		return fmt.Errorf("yaml: unknown flow style %v", c.FlowStyle)
	}
	return nil
}

// docMeta is what the emitter needs to know about a document besides its root.
type docMeta struct {
	version       string
	tagDirectives map[string]string
	explicitStart bool
	explicitEnd   bool
}

func metaOf(doc *Document) docMeta {
	return docMeta{
		version:       doc.Version,
		tagDirectives: doc.TagDirectives,
		explicitStart: doc.ExplicitStart,
		explicitEnd:   doc.ExplicitEnd,
	}
}

// nodeContext tells blockNode what precedes the node on its line.
type nodeContext int

const (
	ctxRoot        nodeContext = iota // start of the document body
	ctxAfterMarker                    // after "---"
	ctxMapValue                       // after "key:"
	ctxSeqEntry                       // after "-"
	ctxExplicitKey                    // after "?"
)

// emitter writes node graphs as text, one document after another.
type emitter struct {
	cfg  EmitterConfig
	buf  []byte
	col  int
	docs int
	open bool // the last document ended without "..."

	written map[*Node]bool // anchored nodes already written in this document
}

func newEmitter(cfg EmitterConfig) (*emitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &emitter{cfg: cfg}, nil
}

func (e *emitter) bytes() []byte {
	return e.buf
}

// document writes one document: directives, markers and the root node.
func (e *emitter) document(root *Node, m docMeta) {
	handles := namedHandles(m.tagDirectives)
	directives := m.version != "" || len(handles) > 0
	if directives && e.docs > 0 && e.open {
		e.write("...\n")
	}
	if m.version != "" {
		e.write("%YAML " + m.version + "\n")
	}
	for _, h := range handles {
		e.write("%TAG " + h + " " + m.tagDirectives[h] + "\n")
	}

	e.written = make(map[*Node]bool)
	explicit := e.cfg.ExplicitStart || m.explicitStart || directives || e.docs > 0 || looksLikeMarker(root)

	ctx := ctxRoot
	if explicit {
		e.write("---")
		ctx = ctxAfterMarker
	}
	if root == nil {
		root = nullNode()
	}
	e.blockNode(root, -1, ctx)
	e.newline(0)

	e.open = true
	if e.cfg.ExplicitEnd || m.explicitEnd {
		e.write("...\n")
		e.open = false
	}
	e.docs++
}

// looksLikeMarker reports whether a root scalar's text could be read as a
// directive or document marker if written at the start of a line.
func looksLikeMarker(root *Node) bool {
	n := deref(root)
	if n == nil || n.Kind != ScalarNode {
		return false
	}
	v := n.Value
	return strings.HasPrefix(v, "%") || strings.HasPrefix(v, "---") || strings.HasPrefix(v, "...")
}

// namedHandles returns the %TAG handles worth writing. The primary and
// secondary handles are skipped because tags are written in full.
func namedHandles(tags map[string]string) []string {
	var out []string
	for h := range tags {
		if h != "!" && h != "!!" {
			out = append(out, h)
		}
	}
	sortYAMLStrings(out)
	return out
}

// ================================
// Output primitives
// ================================

func (e *emitter) write(s string) {
	e.buf = append(e.buf, s...)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		e.col = utf8.RuneCountInString(s[i+1:])
	} else {
		e.col += utf8.RuneCountInString(s)
	}
}

func (e *emitter) newline(indent int) {
	e.buf = append(e.buf, '\n')
	e.buf = appendIndent(e.buf, indent)
	e.col = max(indent, 0)
}

// padTo writes spaces up to column col.
func (e *emitter) padTo(col int) {
	if e.col < col {
		e.buf = appendIndent(e.buf, col-e.col)
		e.col = col
	}
}

// seqPad is the column offset of a compact collection after "- ".
func (e *emitter) seqPad() int {
	return max(e.cfg.Indent, 2)
}

// ================================
// Block nodes
// ================================

// blockNode writes n at the cursor. ind is the column of the collection that
// owns n (-1 at the root) and ctx what was written before it on the line.
func (e *emitter) blockNode(n *Node, ind int, ctx nodeContext) {
	sep := " "
	if ctx == ctxRoot {
		sep = ""
	}

	if alias, ok := e.aliasFor(n); ok {
		e.write(sep + alias)
		return
	}
	if n.Kind == AliasNode {
		// the target has not been written yet: write it here instead
		n = n.Alias
	}

	childCol := 0
	switch ctx {
	case ctxMapValue:
		childCol = ind + e.cfg.Indent
	case ctxSeqEntry, ctxExplicitKey:
		childCol = ind + e.seqPad()
	}

	props := e.properties(n)
	if n.Kind == ScalarNode {
		contIndent := childCol
		if ctx == ctxRoot || ctx == ctxAfterMarker {
			contIndent = e.cfg.Indent
		}
		if props != "" {
			e.write(sep + props)
			sep = " "
		}
		e.write(sep)
		e.scalar(n, contIndent, false, false)
		return
	}

	if len(n.Content) == 0 || e.useFlow(n, ctx == ctxRoot || ctx == ctxAfterMarker) {
		if props != "" {
			e.write(sep + props)
			sep = " "
		}
		e.write(sep)
		e.buf = e.flowNode(e.buf, n, true)
		e.col = len(e.buf) - lastLineStart(e.buf)
		return
	}

	switch {
	case props != "":
		e.write(sep + props)
		e.newline(childCol)
	case ctx == ctxRoot:
	case ctx == ctxSeqEntry || ctx == ctxExplicitKey:
		e.padTo(childCol)
	default:
		e.newline(childCol)
	}

	if n.Kind == SequenceNode {
		e.blockSequence(n, childCol)
	} else {
		e.blockMapping(n, childCol)
	}
}

func lastLineStart(buf []byte) int {
	for i := len(buf) - 1; i >= 0; i-- {
		if buf[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// blockSequence writes the entries of n with their "-" at column col. The
// cursor is already at col.
func (e *emitter) blockSequence(n *Node, col int) {
	for i, item := range n.Content {
		if i > 0 {
			e.newline(col)
		}
		e.write("-")
		e.blockNode(item, col, ctxSeqEntry)
	}
}

// blockMapping writes the pairs of n with keys at column col. The cursor is
// already at col.
func (e *emitter) blockMapping(n *Node, col int) {
	set := resolvedTag(n) == setTag
	for i, p := range e.pairs(n) {
		if i > 0 {
			e.newline(col)
		}
		key, value := n.Content[p], n.Content[p+1]

		if set && isNullNode(value) {
			e.write("?")
			e.blockNode(key, col, ctxExplicitKey)
			continue
		}
		if !e.simpleKey(key) {
			e.write("?")
			e.blockNode(key, col, ctxExplicitKey)
			e.newline(col)
			e.write(":")
			e.blockNode(value, col, ctxMapValue)
			continue
		}

		if alias, ok := e.aliasFor(key); ok {
			e.write(alias + " :")
		} else {
			k := deref(key)
			if props := e.properties(k); props != "" {
				e.write(props + " ")
			}
			e.scalar(k, col, true, false)
			e.write(":")
		}
		e.blockNode(value, col, ctxMapValue)
	}
}

// simpleKey reports whether key fits on one line before ':'.
func (e *emitter) simpleKey(key *Node) bool {
	if _, ok := e.aliasFor(key); ok {
		return true
	}
	k := deref(key)
	return k.Kind == ScalarNode && !strings.ContainsAny(k.Value, "\n\r") && utf8.RuneCountInString(k.Value) <= 1024
}

// pairs returns the content indexes of the keys of n, sorted when the
// configuration asks for it.
func (e *emitter) pairs(n *Node) []int {
	idx := make([]int, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		idx = append(idx, i)
	}
	if e.cfg.SortKeys {
		sort.SliceStable(idx, func(a, b int) bool {
			return nodeKeyLess(n.Content[idx[a]], n.Content[idx[b]])
		})
	}
	return idx
}

// nodeKeyLess orders scalar keys, numbers numerically and everything else by
// text. Collection keys sort last.
func nodeKeyLess(a, b *Node) bool {
	a, b = deref(a), deref(b)
	if a.Kind != ScalarNode || b.Kind != ScalarNode {
		return a.Kind == ScalarNode && b.Kind != ScalarNode
	}
	ta, tb := resolvedTag(a), resolvedTag(b)
	if (ta == intTag || ta == floatTag) && (tb == intTag || tb == floatTag) {
		x, errA := parseFloat(a.Value)
		y, errB := parseFloat(b.Value)
		if errA == nil && errB == nil && x != y {
			return x < y
		}
	}
	return a.Value < b.Value
}

func isNullNode(n *Node) bool {
	n = deref(n)
	return n != nil && n.Kind == ScalarNode && resolvedTag(n) == nullTag
}

// ================================
// Properties and aliases
// ================================

// aliasFor returns "*name" when n must be written as an alias: an alias whose
// target is already written, or an anchored node written before.
func (e *emitter) aliasFor(n *Node) (string, bool) {
	target := n
	if n.Kind == AliasNode {
		if n.Alias == nil {
			return "*" + n.Value, true
		}
		target = deref(n)
		if !e.written[target] && target.Anchor != "" {
			return "", false
		}
		name := target.Anchor
		if name == "" {
			name = n.Value
		}
		return "*" + name, true
	}
	if n.Anchor != "" && e.written[n] {
		return "*" + n.Anchor, true
	}
	return "", false
}

// properties returns the anchor and tag to write before n, and records n as
// written.
func (e *emitter) properties(n *Node) string {
	var parts []string
	if n.Anchor != "" {
		e.written[n] = true
		parts = append(parts, "&"+n.Anchor)
	}
	if tag := e.collectionTag(n); tag != "" {
		parts = append(parts, tag)
	}
	return strings.Join(parts, " ")
}

// collectionTag returns the tag to write for a collection whose tag is not
// the default for its kind.
func (e *emitter) collectionTag(n *Node) string {
	if n.Kind != SequenceNode && n.Kind != MappingNode {
		return ""
	}
	tag := resolvedTag(n)
	if (n.Kind == SequenceNode && tag == seqTag) || (n.Kind == MappingNode && tag == mapTag) {
		return ""
	}
	return shortTag(tag)
}

// ================================
// Flow nodes
// ================================

// useFlow decides between flow and block form for a non-empty collection.
func (e *emitter) useFlow(n *Node, root bool) bool {
	switch e.cfg.FlowStyle {
	case FlowNever:
		return false
	case FlowAlways:
		return height(n) <= maxFlowDepth && !hasMultiline(n) && e.fits(n)
	}
	if n.Style == StyleFlow {
		return true
	}
	return !root && isLeaf(n) && e.fits(n)
}

// fits reports whether n written in flow form ends within the line width.
func (e *emitter) fits(n *Node) bool {
	if e.cfg.LineWidth <= 0 {
		return true
	}
	saved := e.written
	e.written = make(map[*Node]bool, len(saved))
	for k, v := range saved {
		e.written[k] = v
	}
	text := e.flowNode(nil, n, true)
	e.written = saved
	return e.col+1+utf8.RuneCount(text) <= e.cfg.LineWidth
}

func isLeaf(n *Node) bool {
	for _, child := range n.Content {
		c := deref(child)
		if child.Kind != AliasNode && (c.Kind == SequenceNode || c.Kind == MappingNode) {
			return false
		}
		if c.Kind == ScalarNode && strings.Contains(c.Value, "\n") {
			return false
		}
	}
	return true
}

// height is the collection nesting depth of n, aliases not followed.
func height(n *Node) int {
	if n.Kind != SequenceNode && n.Kind != MappingNode {
		return 0
	}
	h := 0
	for _, child := range n.Content {
		h = max(h, height(child))
	}
	return h + 1
}

func hasMultiline(n *Node) bool {
	if n.Kind == ScalarNode {
		return strings.Contains(n.Value, "\n")
	}
	if n.Kind == AliasNode {
		return false
	}
	for _, child := range n.Content {
		if hasMultiline(child) {
			return true
		}
	}
	return false
}

// flowNode appends n in flow form. propsWritten tells that the caller has
// already written the anchor and tag of n.
func (e *emitter) flowNode(buf []byte, n *Node, propsWritten bool) []byte {
	if !propsWritten {
		if alias, ok := e.aliasFor(n); ok {
			return append(buf, alias...)
		}
		if n.Kind == AliasNode {
			n = n.Alias
		}
		if props := e.properties(n); props != "" {
			buf = append(buf, props...)
			buf = append(buf, ' ')
		}
	}

	switch n.Kind {
	case ScalarNode:
		return append(buf, e.scalarText(n, true, false)...)
	case SequenceNode:
		buf = append(buf, '[')
		for i, item := range n.Content {
			if i > 0 {
				buf = append(buf, ", "...)
			}
			buf = e.flowNode(buf, item, false)
		}
		return append(buf, ']')
	}

	buf = append(buf, '{')
	for i, p := range e.pairs(n) {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		key, value := n.Content[p], n.Content[p+1]
		switch k := deref(key); {
		case key.Kind == AliasNode:
			buf = e.flowNode(buf, key, false)
			buf = append(buf, ' ')
		case k.Kind == ScalarNode && !strings.ContainsAny(k.Value, "\n\r"):
			buf = e.flowNode(buf, key, false)
		default:
			buf = append(buf, "? "...)
			buf = e.flowNode(buf, key, false)
			buf = append(buf, ' ')
		}
		buf = append(buf, ": "...)
		buf = e.flowNode(buf, value, false)
	}
	return append(buf, '}')
}

// ================================
// Scalars
// ================================

// scalar writes a scalar at the cursor, in block context. contIndent is the
// column continuation lines start at.
func (e *emitter) scalar(n *Node, contIndent int, key, flow bool) {
	tag := resolvedTag(n)
	value := scalarValue(n, tag)
	style := e.scalarStyle(n, tag, value, key, flow)

	if t := impliedTag(style, value); t != tag {
		e.write(shortTag(tag) + " ")
	}

	wrap := !key && !flow && e.cfg.LineWidth > 0
	switch style {
	case StylePlain:
		e.wrapped(splitPlain(value), contIndent, wrap, func(s string) string { return s })
	case StyleSingleQuoted:
		e.write(singleQuote(value))
	case StyleLiteral:
		e.literal(value, contIndent)
	default:
		e.write(`"`)
		e.wrapped(splitQuoted(value), contIndent, wrap, func(s string) string {
			return string(appendEscapedYAMLString(nil, s, e.cfg.AllowUnicode))
		})
		e.write(`"`)
	}
}

// scalarText returns a scalar on a single line, tag included, for flow
// context and keys.
func (e *emitter) scalarText(n *Node, flow, key bool) string {
	tag := resolvedTag(n)
	value := scalarValue(n, tag)
	style := e.scalarStyle(n, tag, value, key, flow)

	var prefix string
	if t := impliedTag(style, value); t != tag {
		prefix = shortTag(tag) + " "
	}
	switch style {
	case StylePlain:
		return prefix + value
	case StyleSingleQuoted:
		return prefix + singleQuote(value)
	}
	return prefix + `"` + string(appendEscapedYAMLString(nil, value, e.cfg.AllowUnicode)) + `"`
}

// scalarValue returns the text to write: the empty null becomes "null".
func scalarValue(n *Node, tag string) string {
	if tag == nullTag && n.Value == "" {
		return "null"
	}
	return n.Value
}

// impliedTag is the tag a scalar written in style resolves to without a tag.
func impliedTag(style Style, value string) string {
	if style == StylePlain {
		return resolvePlain(value)
	}
	return strTag
}

// scalarStyle picks a style that loads back to the same tag and value. The
// style a parsed node had is kept when it is still valid.
func (e *emitter) scalarStyle(n *Node, tag, value string, key, flow bool) Style {
	block := !key && !flow
	switch n.Style {
	case StyleSingleQuoted:
		if e.singleQuotable(value) {
			return StyleSingleQuoted
		}
		return StyleDoubleQuoted
	case StyleDoubleQuoted:
		return StyleDoubleQuoted
	case StyleLiteral, StyleFolded:
		if block && e.literalOK(value) {
			return StyleLiteral
		}
	}

	if !strings.ContainsAny(value, "\n\r") && e.plainSafe(value, key || flow) {
		implied := resolvePlain(value)
		if tag != strTag || implied == strTag {
			return StylePlain
		}
	}
	if block && strings.Contains(value, "\n") && e.literalOK(value) {
		return StyleLiteral
	}
	if e.singleQuotable(value) {
		return StyleSingleQuoted
	}
	return StyleDoubleQuoted
}

// printable reports whether r can appear unescaped.
func (e *emitter) printable(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	if r > 0x7E && !e.cfg.AllowUnicode {
		return false
	}
	return isPrintable(r)
}

// plainSafe reports whether s can be written without quotes and read back
// as the same text.
func (e *emitter) plainSafe(s string, flowOrKey bool) bool {
	if !needsQuotingFast(s, flowOrKey) {
		for _, r := range s {
			if !e.printable(r) || r == '\t' {
				return false
			}
		}
		return true
	}
	return false
}

func (e *emitter) singleQuotable(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\r' || (r != '\t' && !e.printable(r)) {
			return false
		}
	}
	return true
}

// literalOK reports whether s survives a literal block scalar.
func (e *emitter) literalOK(s string) bool {
	if strings.TrimRight(s, "\n") == "" || strings.ContainsRune(s, '\r') {
		return false
	}
	first := strings.TrimLeft(s, "\n")
	if first[0] == ' ' || first[0] == '\t' {
		return false
	}
	for _, r := range s {
		if r != '\n' && r != '\t' && !e.printable(r) {
			return false
		}
	}
	return true
}

func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// literal writes s as a literal block scalar with content at column indent.
func (e *emitter) literal(s string, indent int) {
	body := strings.TrimRight(s, "\n")
	trailing := len(s) - len(body)
	header := "|"
	switch {
	case trailing == 0:
		header += "-"
	case trailing > 1:
		header += "+"
	}
	e.write(header)
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			e.buf = append(e.buf, '\n')
			e.col = 0
			continue
		}
		e.newline(indent)
		e.write(line)
	}
	for i := 1; i < trailing; i++ {
		e.buf = append(e.buf, '\n')
		e.col = 0
	}
}

// wrapped writes segments separated by single spaces, breaking the line
// before a segment that would pass the line width.
func (e *emitter) wrapped(segments []string, indent int, wrap bool, render func(string) string) {
	for i, seg := range segments {
		text := render(seg)
		if i > 0 {
			if wrap && e.col > indent && e.col+1+utf8.RuneCountInString(text) > e.cfg.LineWidth {
				e.newline(indent)
			} else {
				e.write(" ")
			}
		}
		e.write(text)
	}
}

// splitPlain splits s at the spaces a plain scalar may be folded at: single
// spaces followed by a letter or digit.
func splitPlain(s string) []string {
	return splitAt(s, func(next byte) bool {
		return next >= 'a' && next <= 'z' || next >= 'A' && next <= 'Z' || next >= '0' && next <= '9'
	})
}

// splitQuoted splits s at single spaces between two non-space characters.
func splitQuoted(s string) []string {
	return splitAt(s, func(next byte) bool { return next != ' ' && next != '\n' && next != '\t' })
}

func splitAt(s string, ok func(next byte) bool) []string {
	var out []string
	start := 0
	for i := 1; i+1 < len(s); i++ {
		if s[i] != ' ' || s[i-1] == ' ' || s[i-1] == '\n' || s[i-1] == '\t' || !ok(s[i+1]) {
			continue
		}
		out = append(out, s[start:i])
		start = i + 1
	}
	return append(out, s[start:])
}
