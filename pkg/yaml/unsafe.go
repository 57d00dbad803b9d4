package yaml

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shapestone/safeyaml/internal/parser"
)

// Tags of the constructors that reach outside the document. They are
// registered at Unrestricted and never run for Restricted loads.
const (
	includeTag      = "!include"
	goStructPrefix  = "!go/struct:"
	goCallPrefix    = "!go/call:"
	maxIncludeDepth = 16
)

func registerUnsafeBuiltins(t *registryTables) {
	t.constructors[includeTag] = builtinUnsafe(constructInclude)
	t.prefixes[goStructPrefix] = builtinUnsafe(constructGoStruct)
	t.prefixes[goCallPrefix] = builtinUnsafe(constructGoCall)
}

// constructInclude loads the single document stored at the path given by the
// scalar, through the configured filesystem, at the same trust level.
func constructInclude(c *Constructor, n *Node) (any, error) {
	path, err := c.scalar(n, includeTag)
	if err != nil {
		return nil, err
	}
	if c.opts.includeDepth >= maxIncludeDepth {
		return nil, c.mismatch(n, includeTag, "includes nested deeper than %d", maxIncludeDepth)
	}

	f, err := c.opts.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("yaml: include %s: %w", path, err)
	}
	defer f.Close()

	nested := *c.opts
	nested.includeDepth++
	v, err := loadSingle(parser.NewParserFromReader(f), c.trust, &nested)
	if err != nil {
		return nil, fmt.Errorf("yaml: include %s: %w", path, err)
	}
	return v, nil
}

// constructGoStruct builds a value of the type registered under the tag's
// suffix from a mapping, with the same field rules as Decode.
func constructGoStruct(c *Constructor, n *Node) (any, error) {
	tag := resolvedTag(n)
	name := strings.TrimPrefix(tag, goStructPrefix)
	t, ok := c.tables.types[name]
	if !ok {
		return nil, c.unregistered(n, tag)
	}
	if n.Kind != MappingNode {
		return nil, c.mismatch(n, tag, "%s needs a mapping", shortTag(tag))
	}

	fields, err := constructMap(c, n)
	if err != nil {
		return nil, err
	}
	out := reflect.New(t)
	if err := Decode(fields, out.Interface()); err != nil {
		e := c.mismatch(n, tag, "cannot build %v", t)
		e.Err = err
		return nil, e
	}
	return out.Elem().Interface(), nil
}

// constructGoCall calls the function registered under the tag's suffix. A
// sequence supplies the arguments in order, a mapping or scalar is the single
// argument, and an empty scalar calls with none.
func constructGoCall(c *Constructor, n *Node) (any, error) {
	tag := resolvedTag(n)
	name := strings.TrimPrefix(tag, goCallPrefix)
	fn, ok := c.tables.funcs[name]
	if !ok {
		return nil, c.unregistered(n, tag)
	}

	var args []any
	switch {
	case n.Kind == SequenceNode:
		v, err := constructSeq(c, n)
		if err != nil {
			return nil, err
		}
		args = v.([]any)
	case n.Kind == ScalarNode && n.Value == "":
	case n.Kind == MappingNode:
		v, err := constructMap(c, n)
		if err != nil {
			return nil, err
		}
		args = []any{v}
	default:
		v, err := constructScalarArg(c, n)
		if err != nil {
			return nil, err
		}
		args = []any{v}
	}

	ft := fn.Type()
	if ft.IsVariadic() || ft.NumIn() != len(args) {
		return nil, c.mismatch(n, tag, "function %s takes %d arguments, got %d", name, ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		arg := reflect.New(ft.In(i))
		if err := Decode(a, arg.Interface()); err != nil {
			e := c.mismatch(n, tag, "argument %d of %s", i+1, name)
			e.Err = err
			return nil, e
		}
		in[i] = arg.Elem()
	}

	out := fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, fmt.Errorf("yaml: call %s: %w", name, out[1].Interface().(error))
	}
	return out[0].Interface(), nil
}

// constructScalarArg resolves a scalar argument as if it carried no tag.
func constructScalarArg(c *Constructor, n *Node) (any, error) {
	plain := *n
	plain.Tag = ""
	tag := resolvedTag(&plain)
	entry, err := c.authorize(n, tag)
	if err != nil {
		return nil, err
	}
	return entry.fn(c, &plain)
}

// unregistered denies a tag family member whose name was never registered.
func (c *Constructor) unregistered(n *Node, tag string) error {
	if err := c.opts.check(Subject{Tag: tag, Line: n.Line, Column: n.Column}, c.trust); err != nil {
		return err
	}
	return c.mismatch(n, tag, "%s is not registered", shortTag(tag))
}
