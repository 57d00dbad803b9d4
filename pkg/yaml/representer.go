package yaml

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// Marshaler is implemented by types that replace themselves with another
// value before they are represented. MarshalYAML runs caller code, so it is
// authorized like a user representer registered at Unrestricted.
type Marshaler interface {
	MarshalYAML() (any, error)
}

// representFunc fills n with the node for rv.
type representFunc func(r *Representer, rv reflect.Value, n *Node) error

// Representer cache: atomic.Value COW map pattern (same as shape-json encoder.go)
var representCache atomic.Value
var representMu sync.Mutex

func init() {
	representCache.Store(make(map[reflect.Type]representFunc))
}

var (
	marshalerType = reflect.TypeOf((*Marshaler)(nil)).Elem()
	nodePtrType   = reflect.TypeOf((*Node)(nil))
	documentType  = reflect.TypeOf((*Document)(nil))
	mapSliceType  = reflect.TypeOf(MapSlice(nil))
	setType       = reflect.TypeOf(Set(nil))
)

// refKey identifies a shared map, slice or pointer target.
type refKey struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

// Representer turns Go values into a node graph. Values reached twice
// through the same map, slice or pointer become one anchored node and
// aliases to it.
//
// A Representer is handed to RepresenterFuncs so that they can represent
// nested values through the same trust gate. It is not safe for concurrent use.
type Representer struct {
	tables *registryTables
	trust  TrustLevel
	opts   *options

	refs      map[refKey]*Node
	active    map[refKey]bool // references whose node is being filled
	generated map[*Node]bool  // nodes given an idNNN anchor
}

func newRepresenter(trust TrustLevel, o *options) *Representer {
	return &Representer{
		tables:    o.registry.snapshot(),
		trust:     trust,
		opts:      o,
		refs:      make(map[refKey]*Node),
		active:    make(map[refKey]bool),
		generated: make(map[*Node]bool),
	}
}

// Trust returns the trust level the value is dumped at.
func (r *Representer) Trust() TrustLevel {
	return r.trust
}

// Represent returns the node for v.
func (r *Representer) Represent(v any) (*Node, error) {
	return r.represent(reflect.ValueOf(v))
}

// Scalar is a helper for RepresenterFuncs: a scalar node with a full tag.
func (r *Representer) Scalar(tag, value string) *Node {
	return &Node{Kind: ScalarNode, Tag: normalizeTag(tag), Value: value}
}

// representRoot represents a top-level value and numbers its anchors in
// document order.
func (r *Representer) representRoot(v any) (*Node, error) {
	n, err := r.Represent(v)
	if err != nil {
		return nil, err
	}
	if len(r.generated) > 0 {
		r.renumber(n)
	}
	return n, nil
}

func (r *Representer) represent(rv reflect.Value) (*Node, error) {
	for rv.IsValid() && rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nullNode(), nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nullNode(), nil
	}

	// Nodes pass through untouched so that their aliases stay valid.
	switch rv.Type() {
	case nodePtrType:
		if rv.IsNil() {
			return nullNode(), nil
		}
		return rv.Interface().(*Node), nil
	case documentType:
		if rv.IsNil() || rv.Interface().(*Document).Root == nil {
			return nullNode(), nil
		}
		return rv.Interface().(*Document).Root, nil
	}

	n := &Node{}
	if err := r.representInto(rv, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *Representer) representInto(rv reflect.Value, n *Node) error {
	for rv.IsValid() && rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			*n = *nullNode()
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		*n = *nullNode()
		return nil
	}

	if key, ok := sharedKey(rv); ok {
		if target, seen := r.refs[key]; seen {
			if r.active[key] && !r.opts.cycles {
				return &RepresentError{Kind: CyclicValue, Type: rv.Type()}
			}
			target = deref(target)
			r.anchor(target)
			*n = Node{Kind: AliasNode, Value: target.Anchor, Alias: target}
			return nil
		}
		r.refs[key] = n
		r.active[key] = true
		defer delete(r.active, key)
	}
	return r.dispatch(rv, n)
}

// dispatch picks the representer for rv: a registered one for its exact type,
// then MarshalYAML, then the built-in one for its kind.
func (r *Representer) dispatch(rv reflect.Value, n *Node) error {
	t := rv.Type()

	if entry, ok := r.tables.representers[t]; ok {
		if err := r.check(t, "", entry.level, entry.origin); err != nil {
			return err
		}
		node, err := entry.fn(r, rv.Interface())
		if err != nil {
			return fmt.Errorf("yaml: representer for %v: %w", t, err)
		}
		if node == nil {
			node = nullNode()
		}
		*n = *node
		return nil
	}

	if m, ok := asMarshaler(rv); ok {
		if err := r.check(t, "", Unrestricted, User); err != nil {
			return err
		}
		v, err := m.MarshalYAML()
		if err != nil {
			return &RepresentError{Kind: UnrepresentableType, Type: t, Message: fmt.Sprintf("MarshalYAML of %v failed", t), Err: err}
		}
		return r.representInto(reflect.ValueOf(v), n)
	}

	if t.Kind() == reflect.Ptr {
		if rv.IsNil() {
			*n = *nullNode()
			return nil
		}
		return r.representInto(rv.Elem(), n)
	}

	if err := r.check(t, "", Restricted, BuiltIn); err != nil {
		return err
	}
	if err := representFuncFor(t)(r, rv, n); err != nil {
		return err
	}

	if name, ok := r.tables.typeNames[t]; ok && r.trust >= Unrestricted {
		tag := goStructPrefix + name
		if err := r.check(t, tag, Unrestricted, BuiltIn); err != nil {
			return err
		}
		n.Tag = tag
	}
	return nil
}

func (r *Representer) check(t reflect.Type, tag string, level TrustLevel, origin Origin) error {
	return r.opts.check(Subject{Tag: tag, Type: t, Registered: true, Level: level, Origin: origin}, r.trust)
}

func asMarshaler(rv reflect.Value) (Marshaler, bool) {
	t := rv.Type()
	if t.Implements(marshalerType) {
		if t.Kind() == reflect.Ptr && rv.IsNil() {
			return nil, false
		}
		return rv.Interface().(Marshaler), true
	}
	if t.Kind() != reflect.Ptr && rv.CanAddr() && reflect.PointerTo(t).Implements(marshalerType) {
		return rv.Addr().Interface().(Marshaler), true
	}
	return nil, false
}

// sharedKey returns the identity of a reference value. Empty maps and slices
// are not tracked.
func sharedKey(rv reflect.Value) (refKey, bool) {
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || rv.Len() == 0 {
			return refKey{}, false
		}
		return refKey{ptr: rv.Pointer(), typ: rv.Type()}, true
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return refKey{}, false
		}
		return refKey{ptr: rv.Pointer(), typ: rv.Type(), n: rv.Len()}, true
	case reflect.Ptr:
		if rv.IsNil() {
			return refKey{}, false
		}
		return refKey{ptr: rv.Pointer(), typ: rv.Type()}, true
	}
	return refKey{}, false
}

func (r *Representer) anchor(n *Node) {
	if n.Anchor == "" {
		n.Anchor = fmt.Sprintf("id%03d", len(r.generated)+1)
		r.generated[n] = true
	}
}

// renumber renames the generated anchors in the order they appear under
// root, so that output does not depend on the order aliases were found.
func (r *Representer) renumber(root *Node) {
	next := 0
	walk(root, func(n *Node) {
		if r.generated[n] {
			next++
			n.Anchor = fmt.Sprintf("id%03d", next)
		}
	})
	walk(root, func(n *Node) {
		if n.Kind == AliasNode && n.Alias != nil {
			n.Value = n.Alias.Anchor
		}
	})
}

// walk visits n and its owned descendants in document order.
func walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, child := range n.Content {
		walk(child, fn)
	}
}

func nullNode() *Node {
	return &Node{Kind: ScalarNode, Tag: nullTag, Value: "null"}
}

// representFuncFor returns a cached representer for the given type, building one if needed.
func representFuncFor(t reflect.Type) representFunc {
	// Fast path: lock-free read
	m := representCache.Load().(map[reflect.Type]representFunc)
	if fn, ok := m[t]; ok {
		return fn
	}

	// Slow path: build representer
	representMu.Lock()

	// Double-check after lock
	m = representCache.Load().(map[reflect.Type]representFunc)
	if fn, ok := m[t]; ok {
		representMu.Unlock()
		return fn
	}

	// Placeholder for recursive types
	var wg sync.WaitGroup
	wg.Add(1)
	var realFn representFunc
	placeholder := func(r *Representer, rv reflect.Value, n *Node) error {
		wg.Wait()
		return realFn(r, rv, n)
	}

	// Store placeholder and release lock before building
	newM := make(map[reflect.Type]representFunc, len(m)+1)
	for k, v := range m {
		newM[k] = v
	}
	newM[t] = placeholder
	representCache.Store(newM)
	representMu.Unlock()

	realFn = buildRepresentFunc(t)

	// Replace placeholder with real representer
	representMu.Lock()
	m = representCache.Load().(map[reflect.Type]representFunc)
	newM2 := make(map[reflect.Type]representFunc, len(m))
	for k, v := range m {
		newM2[k] = v
	}
	newM2[t] = realFn
	representCache.Store(newM2)
	representMu.Unlock()
	wg.Done()

	return realFn
}

// buildRepresentFunc creates the built-in representer for the given type.
func buildRepresentFunc(t reflect.Type) representFunc {
	switch t {
	case timeType:
		return representTime
	case mapSliceType:
		return representMapSlice
	case setType:
		return representSet
	}

	switch t.Kind() {
	case reflect.String:
		return representString
	case reflect.Bool:
		return representBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return representInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return representUint
	case reflect.Float32:
		return floatRepresenter(32)
	case reflect.Float64:
		return floatRepresenter(64)
	case reflect.Struct:
		return buildStructRepresenter(t)
	case reflect.Map:
		return representMap
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return representBinary
		}
		return representSeq
	case reflect.Array:
		return representSeq
	default:
		return unrepresentable(t)
	}
}

// ================================
// Scalars
// ================================

func scalarInto(n *Node, tag, value string) {
	*n = Node{Kind: ScalarNode, Tag: tag, Value: value}
}

// representString writes text that is not valid UTF-8 as !!binary, since no
// scalar style can carry it.
func representString(r *Representer, rv reflect.Value, n *Node) error {
	s := rv.String()
	if !utf8.ValidString(s) {
		scalarInto(n, binaryTag, base64.StdEncoding.EncodeToString([]byte(s)))
		return nil
	}
	scalarInto(n, strTag, s)
	return nil
}

func representBool(r *Representer, rv reflect.Value, n *Node) error {
	scalarInto(n, boolTag, strconv.FormatBool(rv.Bool()))
	return nil
}

func representInt(r *Representer, rv reflect.Value, n *Node) error {
	scalarInto(n, intTag, strconv.FormatInt(rv.Int(), 10))
	return nil
}

func representUint(r *Representer, rv reflect.Value, n *Node) error {
	scalarInto(n, intTag, strconv.FormatUint(rv.Uint(), 10))
	return nil
}

func floatRepresenter(bitSize int) representFunc {
	return func(r *Representer, rv reflect.Value, n *Node) error {
		scalarInto(n, floatTag, formatFloat(rv.Float(), bitSize))
		return nil
	}
}

// formatFloat writes f so that it resolves back to a float: integral values
// keep a ".0" suffix.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !isFloat(s) {
		s += ".0"
	}
	return s
}

func representBinary(r *Representer, rv reflect.Value, n *Node) error {
	scalarInto(n, binaryTag, base64.StdEncoding.EncodeToString(rv.Bytes()))
	return nil
}

func representTime(r *Representer, rv reflect.Value, n *Node) error {
	t := rv.Interface().(time.Time)
	scalarInto(n, timestampTag, t.Format(time.RFC3339Nano))
	return nil
}

// ================================
// Collections
// ================================

func representSeq(r *Representer, rv reflect.Value, n *Node) error {
	*n = Node{Kind: SequenceNode, Tag: seqTag, Content: make([]*Node, 0, rv.Len())}
	for i := 0; i < rv.Len(); i++ {
		item, err := r.represent(rv.Index(i))
		if err != nil {
			return err
		}
		n.Content = append(n.Content, item)
	}
	return nil
}

func representMap(r *Representer, rv reflect.Value, n *Node) error {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })

	*n = Node{Kind: MappingNode, Tag: mapTag, Content: make([]*Node, 0, 2*len(keys))}
	for _, k := range keys {
		key, err := r.represent(k)
		if err != nil {
			return err
		}
		value, err := r.represent(rv.MapIndex(k))
		if err != nil {
			return err
		}
		n.Content = append(n.Content, key, value)
	}
	return nil
}

func representMapSlice(r *Representer, rv reflect.Value, n *Node) error {
	items := rv.Interface().(MapSlice)
	*n = Node{Kind: MappingNode, Tag: mapTag, Content: make([]*Node, 0, 2*len(items))}
	for _, item := range items {
		key, err := r.Represent(item.Key)
		if err != nil {
			return err
		}
		value, err := r.Represent(item.Value)
		if err != nil {
			return err
		}
		n.Content = append(n.Content, key, value)
	}
	return nil
}

func representSet(r *Representer, rv reflect.Value, n *Node) error {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })

	*n = Node{Kind: MappingNode, Tag: setTag, Content: make([]*Node, 0, 2*len(keys))}
	for _, k := range keys {
		key, err := r.represent(k)
		if err != nil {
			return err
		}
		n.Content = append(n.Content, key, nullNode())
	}
	return nil
}

// buildStructRepresenter writes exported fields in declaration order.
func buildStructRepresenter(t reflect.Type) representFunc {
	fields, err := cachedFields(t)
	if err != nil {
		return func(r *Representer, rv reflect.Value, n *Node) error {
			return &RepresentError{Kind: UnrepresentableType, Type: t, Err: err}
		}
	}
	return func(r *Representer, rv reflect.Value, n *Node) error {
		*n = Node{Kind: MappingNode, Tag: mapTag, Content: make([]*Node, 0, 2*len(fields.list))}
		for i := range fields.list {
			f := &fields.list[i]
			fv, ok := fieldByIndex(rv, f.index, false)
			if !ok || (f.omitEmpty && isEmptyValue(fv)) {
				continue
			}
			value, err := r.represent(fv)
			if err != nil {
				return err
			}
			if f.flow && (value.Kind == SequenceNode || value.Kind == MappingNode) {
				value.Style = StyleFlow
			}
			n.Content = append(n.Content, &Node{Kind: ScalarNode, Tag: strTag, Value: f.name}, value)
		}
		return nil
	}
}

func unrepresentable(t reflect.Type) representFunc {
	return func(r *Representer, rv reflect.Value, n *Node) error {
		return &RepresentError{Kind: UnrepresentableType, Type: t}
	}
}

// ================================
// Key ordering
// ================================

// keyLess orders mapping keys: numbers numerically, strings and bools by
// value, and mixed kinds by kind then by text.
func keyLess(a, b reflect.Value) bool {
	for a.IsValid() && a.Kind() == reflect.Interface {
		a = a.Elem()
	}
	for b.IsValid() && b.Kind() == reflect.Interface {
		b = b.Elem()
	}
	switch {
	case !a.IsValid():
		return b.IsValid()
	case !b.IsValid():
		return false
	}

	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return x < y
		}
	}
	if a.Kind() == b.Kind() {
		switch a.Kind() {
		case reflect.String:
			return a.String() < b.String()
		case reflect.Bool:
			return !a.Bool() && b.Bool()
		}
	}
	if a.Kind() != b.Kind() {
		return a.Kind() < b.Kind()
	}
	return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
}

func numeric(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

const smallMapKeys = 20

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if len(keys) <= smallMapKeys {
		sortYAMLStrings(keys)
	} else {
		sort.Strings(keys)
	}
	return keys
}

func sortItems(items MapSlice) {
	sort.SliceStable(items, func(i, j int) bool {
		return keyLess(reflect.ValueOf(items[i].Key), reflect.ValueOf(items[j].Key))
	})
}
