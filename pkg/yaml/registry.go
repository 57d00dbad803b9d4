package yaml

import (
	"fmt"
	"maps"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shapestone/safeyaml/internal/parser"
)

// TrustLevel is the permission tier a load or dump runs at.
type TrustLevel int

const (
	// Restricted runs only the built-in scalar, sequence and mapping
	// constructors and entries explicitly registered at Restricted.
	Restricted TrustLevel = iota
	// Unrestricted runs every registered constructor and representer,
	// including those that read files, instantiate Go types or call functions.
	Unrestricted
)

func (t TrustLevel) String() string {
	switch t {
	case Restricted:
		return "restricted"
	case Unrestricted:
		return "unrestricted"
	}
	return fmt.Sprintf("TrustLevel(%d)", int(t))
}

// Origin tells built-in registry entries from caller-registered ones.
type Origin int

const (
	BuiltIn Origin = iota
	User
)

func (o Origin) String() string {
	if o == BuiltIn {
		return "built-in"
	}
	return "user"
}

// ConstructorFunc turns a node carrying the registered tag into a value.
// Children are constructed through c, which applies the same trust gate.
type ConstructorFunc func(c *Constructor, n *Node) (any, error)

// RepresenterFunc turns a value of the registered type into a node. Nested
// values are represented through r.
type RepresenterFunc func(r *Representer, v any) (*Node, error)

type constructorEntry struct {
	fn     ConstructorFunc
	level  TrustLevel
	origin Origin
}

type representerEntry struct {
	fn     RepresenterFunc
	level  TrustLevel
	origin Origin
}

// registryTables is an immutable snapshot. Writers publish a modified copy.
type registryTables struct {
	constructors map[string]constructorEntry
	prefixes     map[string]constructorEntry // tag prefix -> constructor for a tag family
	representers map[reflect.Type]representerEntry
	types        map[string]reflect.Type // !go/struct names
	typeNames    map[reflect.Type]string
	funcs        map[string]reflect.Value // !go/call names
}

func newRegistryTables() *registryTables {
	return &registryTables{
		constructors: make(map[string]constructorEntry),
		prefixes:     make(map[string]constructorEntry),
		representers: make(map[reflect.Type]representerEntry),
		types:        make(map[string]reflect.Type),
		typeNames:    make(map[reflect.Type]string),
		funcs:        make(map[string]reflect.Value),
	}
}

func (t *registryTables) clone() *registryTables {
	return &registryTables{
		constructors: maps.Clone(t.constructors),
		prefixes:     maps.Clone(t.prefixes),
		representers: maps.Clone(t.representers),
		types:        maps.Clone(t.types),
		typeNames:    maps.Clone(t.typeNames),
		funcs:        maps.Clone(t.funcs),
	}
}

// constructor finds the constructor for a full tag: an exact entry first,
// then the longest registered tag prefix.
func (t *registryTables) constructor(tag string) (constructorEntry, bool) {
	if e, ok := t.constructors[tag]; ok {
		return e, true
	}
	var (
		best    constructorEntry
		bestLen = -1
	)
	for prefix, e := range t.prefixes {
		if strings.HasPrefix(tag, prefix) && len(prefix) > bestLen {
			best, bestLen = e, len(prefix)
		}
	}
	return best, bestLen >= 0
}

// Registry maps tags to constructors and Go types to representers, each entry
// carrying the minimum trust level it needs.
//
// Reads take a lock-free snapshot; registrations serialize on a mutex and
// publish a new table, so a load in flight never sees a half-applied change.
type Registry struct {
	tables atomic.Pointer[registryTables]
	mu     sync.Mutex
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used when no
// WithRegistry option is given.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry returns a registry holding only the built-in entries.
func NewRegistry() *Registry {
	t := newRegistryTables()
	registerSafeBuiltins(t)
	registerUnsafeBuiltins(t)
	r := &Registry{}
	r.tables.Store(t)
	return r
}

// Clone returns an independent registry with the same entries, for session
// registrations that must not touch the original.
func (r *Registry) Clone() *Registry {
	c := &Registry{}
	c.tables.Store(r.snapshot().clone())
	return c
}

func (r *Registry) snapshot() *registryTables {
	return r.tables.Load()
}

func (r *Registry) update(fn func(t *registryTables) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.tables.Load().clone()
	if err := fn(next); err != nil {
		return err
	}
	r.tables.Store(next)
	return nil
}

// RegisterConstructor registers fn for tag. Shorthand tags are accepted:
// "!!x" stands for "tag:yaml.org,2002:x" and "!<uri>" for "uri". A tag ending
// in ':' registers a family: fn then handles every tag with that prefix.
//
// Built-in tags cannot be replaced. trust is the lowest level fn runs at.
// Restricted is not limited to the built-in tags: a constructor registered at
// Restricted runs for untrusted input, the way a constructor added to a safe
// loader does, so it must not have side effects. Register at Unrestricted to
// keep a tag out of restricted loads.
func (r *Registry) RegisterConstructor(tag string, trust TrustLevel, fn ConstructorFunc) error {
	if fn == nil {
		return fmt.Errorf("yaml: nil constructor for tag %q", tag)
	}
	full := normalizeTag(tag)
	if full == "" || full == "!" {
		return fmt.Errorf("yaml: invalid tag %q", tag)
	}
	return r.update(func(t *registryTables) error {
		table := t.constructors
		if strings.HasSuffix(full, ":") {
			table = t.prefixes
		}
		if e, ok := table[full]; ok && e.origin == BuiltIn {
			return fmt.Errorf("yaml: tag %s is reserved for a built-in constructor", shortTag(full))
		}
		table[full] = constructorEntry{fn: fn, level: trust, origin: User}
		return nil
	})
}

// RegisterRepresenter registers fn for values whose dynamic type is exactly t.
func (r *Registry) RegisterRepresenter(t reflect.Type, trust TrustLevel, fn RepresenterFunc) error {
	if t == nil || fn == nil {
		return fmt.Errorf("yaml: representer needs a type and a function")
	}
	return r.update(func(tables *registryTables) error {
		if e, ok := tables.representers[t]; ok && e.origin == BuiltIn {
			return fmt.Errorf("yaml: type %v is reserved for a built-in representer", t)
		}
		tables.representers[t] = representerEntry{fn: fn, level: trust, origin: User}
		return nil
	})
}

// RegisterType makes the type of sample constructible as !go/struct:name
// under Unrestricted trust. Unrestricted dumps tag values of the type the
// same way, so they load back into it.
func (r *Registry) RegisterType(name string, sample any) error {
	t := reflect.TypeOf(sample)
	if name == "" || t == nil {
		return fmt.Errorf("yaml: RegisterType needs a name and a non-nil sample")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return r.update(func(tables *registryTables) error {
		if prev, ok := tables.types[name]; ok && prev != t {
			return fmt.Errorf("yaml: type name %q is already registered for %v", name, prev)
		}
		tables.types[name] = t
		tables.typeNames[t] = name
		return nil
	})
}

// RegisterFunc makes fn callable as !go/call:name under Unrestricted trust.
// fn may return one value, or a value and an error.
func (r *Registry) RegisterFunc(name string, fn any) error {
	v := reflect.ValueOf(fn)
	if name == "" || v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("yaml: RegisterFunc needs a name and a function, got %T", fn)
	}
	if n := v.Type().NumOut(); n < 1 || n > 2 || (n == 2 && v.Type().Out(1) != errorType) {
		return fmt.Errorf("yaml: function %q must return a value and optionally an error", name)
	}
	return r.update(func(tables *registryTables) error {
		tables.funcs[name] = v
		return nil
	})
}

// RegisterConstructor registers fn on the default registry.
func RegisterConstructor(tag string, trust TrustLevel, fn ConstructorFunc) error {
	return defaultRegistry.RegisterConstructor(tag, trust, fn)
}

// RegisterRepresenter registers fn on the default registry.
func RegisterRepresenter(t reflect.Type, trust TrustLevel, fn RepresenterFunc) error {
	return defaultRegistry.RegisterRepresenter(t, trust, fn)
}

// RegisterType registers a !go/struct type on the default registry.
func RegisterType(name string, sample any) error {
	return defaultRegistry.RegisterType(name, sample)
}

// RegisterFunc registers a !go/call function on the default registry.
func RegisterFunc(name string, fn any) error {
	return defaultRegistry.RegisterFunc(name, fn)
}

// normalizeTag expands the shorthand forms accepted at registration.
func normalizeTag(tag string) string {
	switch {
	case strings.HasPrefix(tag, "!!"):
		return parser.CoreTagPrefix + tag[2:]
	case strings.HasPrefix(tag, "!<") && strings.HasSuffix(tag, ">"):
		return tag[2 : len(tag)-1]
	}
	return tag
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func builtin(fn ConstructorFunc) constructorEntry {
	return constructorEntry{fn: fn, level: Restricted, origin: BuiltIn}
}

func builtinUnsafe(fn ConstructorFunc) constructorEntry {
	return constructorEntry{fn: fn, level: Unrestricted, origin: BuiltIn}
}
