package yaml

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Constructor turns the nodes of one document into Go values. Every node,
// including implicitly tagged ones, is authorized by the policy before its
// constructor runs.
//
// A Constructor is handed to ConstructorFuncs so that they can construct
// child nodes through the same trust gate. It is not safe for concurrent use.
type Constructor struct {
	tables *registryTables
	trust  TrustLevel
	opts   *options

	memo     map[*Node]any  // constructed values, for aliases
	building map[*Node]bool // nodes whose constructor has not returned
}

func newConstructor(trust TrustLevel, o *options) *Constructor {
	return &Constructor{
		tables:   o.registry.snapshot(),
		trust:    trust,
		opts:     o,
		memo:     make(map[*Node]any),
		building: make(map[*Node]bool),
	}
}

// Trust returns the trust level the document is loaded at.
func (c *Constructor) Trust() TrustLevel {
	return c.trust
}

// FS returns the filesystem configured with WithFS.
func (c *Constructor) FS() afero.Fs {
	return c.opts.fs
}

// Construct builds the value of n. An alias constructs to the value of its
// target, so containers reached through several aliases are shared.
func (c *Constructor) Construct(n *Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case AliasNode:
		if n.Alias == nil {
			return nil, c.mismatch(n, "", "alias *%s has no target", n.Value)
		}
		return c.Construct(n.Alias)
	case DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.Construct(n.Content[0])
	}

	if v, ok := c.memo[n]; ok {
		return v, nil
	}
	if c.building[n] {
		return nil, c.mismatch(n, resolvedTag(n), "recursive value cannot be constructed")
	}

	tag := resolvedTag(n)
	entry, err := c.authorize(n, tag)
	if err != nil {
		return nil, err
	}

	c.building[n] = true
	v, err := entry.fn(c, n)
	delete(c.building, n)
	if err != nil {
		return nil, err
	}
	c.memo[n] = v
	return v, nil
}

// authorize looks up the constructor for tag and asks the policy about it.
func (c *Constructor) authorize(n *Node, tag string) (constructorEntry, error) {
	entry, ok := c.tables.constructor(tag)
	s := Subject{Tag: tag, Registered: ok, Level: entry.level, Origin: entry.origin, Line: n.Line, Column: n.Column}
	if err := c.opts.check(s, c.trust); err != nil {
		return constructorEntry{}, err
	}
	return entry, nil
}

// remember records a container before its children are constructed, so that
// an alias inside it resolves to the container itself.
func (c *Constructor) remember(n *Node, v any) {
	c.memo[n] = v
}

func (c *Constructor) mismatch(n *Node, tag, format string, args ...any) *ConstructError {
	return &ConstructError{
		Kind:    TypeMismatch,
		Tag:     tag,
		Message: fmt.Sprintf(format, args...),
		Line:    n.Line,
		Column:  n.Column,
	}
}

func (c *Constructor) duplicate(n *Node, key any) *ConstructError {
	return &ConstructError{
		Kind:    DuplicateKey,
		Tag:     mapTag,
		Message: fmt.Sprintf("duplicate key %v", key),
		Line:    n.Line,
		Column:  n.Column,
	}
}

// scalar returns the text of n, which must be a scalar.
func (c *Constructor) scalar(n *Node, tag string) (string, error) {
	if n.Kind != ScalarNode {
		return "", c.mismatch(n, tag, "%s cannot be used on a %s", shortTag(tag), n.Kind)
	}
	return n.Value, nil
}

// deref follows aliases to the node they name.
func deref(n *Node) *Node {
	for n != nil && n.Kind == AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// registerSafeBuiltins installs the constructors allowed for untrusted input.
func registerSafeBuiltins(t *registryTables) {
	t.constructors[nullTag] = builtin(constructNull)
	t.constructors[boolTag] = builtin(constructBool)
	t.constructors[intTag] = builtin(constructInt)
	t.constructors[floatTag] = builtin(constructFloat)
	t.constructors[strTag] = builtin(constructStr)
	t.constructors[binaryTag] = builtin(constructBinary)
	t.constructors[timestampTag] = builtin(constructTimestamp)
	t.constructors[seqTag] = builtin(constructSeq)
	t.constructors[mapTag] = builtin(constructMap)
	t.constructors[omapTag] = builtin(constructOmap)
	t.constructors[pairsTag] = builtin(constructPairs)
	t.constructors[setTag] = builtin(constructSet)
	t.constructors[mergeTag] = builtin(constructStr)
}

func constructNull(c *Constructor, n *Node) (any, error) {
	s, err := c.scalar(n, nullTag)
	if err != nil {
		return nil, err
	}
	if !isNull(s) {
		return nil, c.mismatch(n, nullTag, "invalid null %q", s)
	}
	return nil, nil
}

func constructBool(c *Constructor, n *Node) (any, error) {
	s, err := c.scalar(n, boolTag)
	if err != nil {
		return nil, err
	}
	b, ok := parseBool(s)
	if !ok {
		return nil, c.mismatch(n, boolTag, "invalid bool %q", s)
	}
	return b, nil
}

func constructInt(c *Constructor, n *Node) (any, error) {
	s, err := c.scalar(n, intTag)
	if err != nil {
		return nil, err
	}
	if !isInt(s) {
		return nil, c.mismatch(n, intTag, "invalid int %q", s)
	}
	v, err := intValue(s)
	if err != nil {
		e := c.mismatch(n, intTag, "int %s does not fit in 64 bits", s)
		e.Err = err
		return nil, e
	}
	return v, nil
}

func constructFloat(c *Constructor, n *Node) (any, error) {
	s, err := c.scalar(n, floatTag)
	if err != nil {
		return nil, err
	}
	if isNumber(s) {
		if f, err := parseFloat(s); err == nil {
			return f, nil
		}
	}
	return nil, c.mismatch(n, floatTag, "invalid float %q", s)
}

func constructStr(c *Constructor, n *Node) (any, error) {
	return c.scalar(n, strTag)
}

func constructBinary(c *Constructor, n *Node) (any, error) {
	s, err := c.scalar(n, binaryTag)
	if err != nil {
		return nil, err
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		e := c.mismatch(n, binaryTag, "invalid base64 data")
		e.Err = err
		return nil, e
	}
	return b, nil
}

// timestampLayouts are the accepted !!timestamp forms, tried in order.
var timestampLayouts = []string{
	"2006-1-2T15:4:5.999999999Z07:00",
	"2006-1-2t15:4:5.999999999Z07:00",
	"2006-1-2 15:4:5.999999999Z07:00",
	"2006-1-2 15:4:5.999999999 -07:00",
	"2006-1-2 15:4:5.999999999",
	"2006-1-2",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func constructTimestamp(c *Constructor, n *Node) (any, error) {
	s, err := c.scalar(n, timestampTag)
	if err != nil {
		return nil, err
	}
	t, ok := parseTimestamp(s)
	if !ok {
		return nil, c.mismatch(n, timestampTag, "invalid timestamp %q", s)
	}
	return t, nil
}

func constructSeq(c *Constructor, n *Node) (any, error) {
	if n.Kind != SequenceNode {
		return nil, c.mismatch(n, seqTag, "!!seq cannot be used on a %s", n.Kind)
	}
	items := make([]any, len(n.Content))
	c.remember(n, items)
	for i, child := range n.Content {
		v, err := c.Construct(child)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

// pair is a constructed key with the node of its value.
type pair struct {
	key     any
	keyNode *Node
	value   *Node
}

func constructMap(c *Constructor, n *Node) (any, error) {
	if n.Kind != MappingNode {
		return nil, c.mismatch(n, mapTag, "!!map cannot be used on a %s", n.Kind)
	}
	explicit, merged, err := c.mappingPairs(n)
	if err != nil {
		return nil, err
	}

	// Explicit keys win over merged ones; among merge sources the first wins.
	seen := make(map[string]bool, len(explicit))
	for _, p := range explicit {
		seen[canonicalKey(p.key)] = true
	}
	var extra []MapItem
	for _, item := range merged {
		k := canonicalKey(item.Key)
		if seen[k] {
			continue
		}
		seen[k] = true
		extra = append(extra, item)
	}

	if c.opts.ordered {
		return c.buildOrdered(n, explicit, extra)
	}
	return c.buildMap(n, explicit, extra)
}

// mappingPairs constructs the keys of n and checks them for duplicates. It
// returns the explicit pairs, with their values still unconstructed, and the
// items contributed by merge keys.
func (c *Constructor) mappingPairs(n *Node) ([]pair, []MapItem, error) {
	if len(n.Content)%2 != 0 {
		return nil, nil, c.mismatch(n, mapTag, "mapping has a key without a value")
	}

	var (
		explicit = make([]pair, 0, len(n.Content)/2)
		merged   []MapItem
		keys     = make(map[string]bool, len(n.Content)/2)
		merges   int
	)
	for i := 0; i < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]
		if resolvedTag(keyNode) == mergeTag {
			if _, err := c.authorize(deref(keyNode), mergeTag); err != nil {
				return nil, nil, err
			}
			if merges++; merges > 1 {
				return nil, nil, c.duplicate(keyNode, "<<")
			}
			items, err := c.mergeSources(valueNode)
			if err != nil {
				return nil, nil, err
			}
			merged = items
			continue
		}

		key, err := c.Construct(keyNode)
		if err != nil {
			return nil, nil, err
		}
		k := canonicalKey(key)
		if keys[k] {
			return nil, nil, c.duplicate(keyNode, key)
		}
		keys[k] = true
		explicit = append(explicit, pair{key: key, keyNode: keyNode, value: valueNode})
	}
	return explicit, merged, nil
}

// mergeSources constructs the value of a << key: a mapping or a sequence of
// mappings, earlier sources taking precedence.
func (c *Constructor) mergeSources(n *Node) ([]MapItem, error) {
	target := deref(n)
	var sources []*Node
	switch target.Kind {
	case MappingNode:
		sources = []*Node{n}
	case SequenceNode:
		if _, err := c.authorize(target, seqTag); err != nil {
			return nil, err
		}
		sources = target.Content
	default:
		return nil, c.mismatch(n, mergeTag, "merge value must be a mapping or a sequence of mappings")
	}

	var items []MapItem
	for _, src := range sources {
		if deref(src).Kind != MappingNode {
			return nil, c.mismatch(src, mergeTag, "merge value must be a mapping or a sequence of mappings")
		}
		v, err := c.Construct(src)
		if err != nil {
			return nil, err
		}
		switch m := v.(type) {
		case map[string]any:
			for _, k := range sortedKeys(m) {
				items = append(items, MapItem{Key: k, Value: m[k]})
			}
		case map[any]any:
			for k, val := range m {
				items = append(items, MapItem{Key: k, Value: val})
			}
		case MapSlice:
			items = append(items, m...)
		default:
			return nil, c.mismatch(src, mergeTag, "cannot merge %T", v)
		}
	}

	// first occurrence wins
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		k := canonicalKey(item.Key)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, item)
	}
	return out, nil
}

func (c *Constructor) buildMap(n *Node, explicit []pair, extra []MapItem) (any, error) {
	stringKeys := true
	for _, p := range explicit {
		if _, ok := p.key.(string); !ok {
			stringKeys = false
		}
	}
	for _, item := range extra {
		if _, ok := item.Key.(string); !ok {
			stringKeys = false
		}
	}

	if stringKeys {
		m := make(map[string]any, len(explicit)+len(extra))
		c.remember(n, m)
		for _, item := range extra {
			m[item.Key.(string)] = item.Value
		}
		for _, p := range explicit {
			v, err := c.Construct(p.value)
			if err != nil {
				return nil, err
			}
			m[p.key.(string)] = v
		}
		return m, nil
	}

	for _, p := range explicit {
		if !isHashable(p.key) {
			return nil, c.mismatch(p.keyNode, mapTag, "mapping key of type %T cannot be a Go map key", p.key)
		}
	}
	for _, item := range extra {
		if !isHashable(item.Key) {
			return nil, c.mismatch(n, mapTag, "merged key of type %T cannot be a Go map key", item.Key)
		}
	}
	m := make(map[any]any, len(explicit)+len(extra))
	c.remember(n, m)
	for _, item := range extra {
		m[item.Key] = item.Value
	}
	for _, p := range explicit {
		v, err := c.Construct(p.value)
		if err != nil {
			return nil, err
		}
		m[p.key] = v
	}
	return m, nil
}

// buildOrdered constructs the mapping as a MapSlice. The slice is allocated
// at its final length so that an alias to it sees the filled items.
func (c *Constructor) buildOrdered(n *Node, explicit []pair, extra []MapItem) (any, error) {
	m := make(MapSlice, len(explicit)+len(extra))
	c.remember(n, m)
	for i, p := range explicit {
		v, err := c.Construct(p.value)
		if err != nil {
			return nil, err
		}
		m[i] = MapItem{Key: p.key, Value: v}
	}
	copy(m[len(explicit):], extra)
	return m, nil
}

// orderedPairs constructs a sequence of single-pair mappings.
func (c *Constructor) orderedPairs(n *Node, tag string, unique bool) (MapSlice, error) {
	if n.Kind != SequenceNode {
		return nil, c.mismatch(n, tag, "%s must be a sequence of single-pair mappings", shortTag(tag))
	}
	out := make(MapSlice, len(n.Content))
	c.remember(n, out)
	seen := make(map[string]bool)
	for i, child := range n.Content {
		item := deref(child)
		if item.Kind != MappingNode || len(item.Content) != 2 {
			return nil, c.mismatch(child, tag, "%s must be a sequence of single-pair mappings", shortTag(tag))
		}
		key, err := c.Construct(item.Content[0])
		if err != nil {
			return nil, err
		}
		if unique {
			k := canonicalKey(key)
			if seen[k] {
				return nil, c.duplicate(item.Content[0], key)
			}
			seen[k] = true
		}
		v, err := c.Construct(item.Content[1])
		if err != nil {
			return nil, err
		}
		out[i] = MapItem{Key: key, Value: v}
	}
	return out, nil
}

func constructOmap(c *Constructor, n *Node) (any, error) {
	return c.orderedPairs(n, omapTag, true)
}

func constructPairs(c *Constructor, n *Node) (any, error) {
	return c.orderedPairs(n, pairsTag, false)
}

func constructSet(c *Constructor, n *Node) (any, error) {
	if n.Kind != MappingNode {
		return nil, c.mismatch(n, setTag, "!!set must be a mapping")
	}
	set := make(Set, len(n.Content)/2)
	c.remember(n, set)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, err := c.Construct(n.Content[i])
		if err != nil {
			return nil, err
		}
		if !isHashable(key) {
			return nil, c.mismatch(n.Content[i], setTag, "set member of type %T cannot be a Go map key", key)
		}
		v, err := c.Construct(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		if v != nil {
			return nil, c.mismatch(n.Content[i+1], setTag, "set member %v has a non-null value", key)
		}
		if set.Has(key) {
			return nil, c.duplicate(n.Content[i], key)
		}
		set[key] = struct{}{}
	}
	return set, nil
}

// canonicalKey identifies equal keys: same dynamic type and same value.
func canonicalKey(k any) string {
	return fmt.Sprintf("%T:%v", k, k)
}

func isHashable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}
