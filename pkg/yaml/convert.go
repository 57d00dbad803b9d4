package yaml

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shapestone/shape-core/pkg/ast"
)

// ToAST converts a node graph into Shape's unified AST, for tools built on
// shape-core. The graph is constructed at Restricted trust first, so merge
// keys are applied and tags are checked exactly as Load does.
//
// Converts:
//   - null, bool, int, float, str → *ast.LiteralNode (nil, bool, int64
//     or uint64, float64, string)
//   - !!binary and !!timestamp → *ast.LiteralNode ([]byte, time.Time)
//   - sequences → *ast.ObjectNode with numeric keys "0", "1", ...
//   - mappings, !!omap, !!pairs and !!set → *ast.ObjectNode keyed by the
//     text of each key; a repeated key keeps its last value
//
// Shared collections are converted once per reference. A cyclic graph
// fails.
//
// Example:
//
//	doc, _ := yaml.Parse("name: Alice\ntags:\n  - go\n  - yaml")
//	node, _ := yaml.ToAST(doc.Root)
//	obj := node.(*ast.ObjectNode)
//	nameNode, _ := obj.GetProperty("name")
//	name := nameNode.(*ast.LiteralNode).Value().(string) // "Alice"
func ToAST(n *Node, opts ...Option) (ast.SchemaNode, error) {
	v, err := newConstructor(Restricted, newOptions(opts)).Construct(n)
	if err != nil {
		return nil, err
	}
	pos := ast.ZeroPosition()
	if n != nil && n.Line > 0 {
		pos = ast.NewPosition(0, n.Line, n.Column)
	}
	return valueToAST(v, pos, 0)
}

// maxASTDepth bounds the conversion of cyclic values.
const maxASTDepth = 10000

func valueToAST(v any, pos ast.Position, depth int) (ast.SchemaNode, error) {
	if depth > maxASTDepth {
		return nil, fmt.Errorf("yaml: value nested deeper than %d levels, possibly cyclic", maxASTDepth)
	}

	switch val := v.(type) {
	case nil, string, bool, int64, uint64, float64, []byte, time.Time:
		return ast.NewLiteralNode(val, pos), nil

	case []any:
		props := make(map[string]ast.SchemaNode, len(val))
		for i, item := range val {
			node, err := valueToAST(item, pos, depth+1)
			if err != nil {
				return nil, fmt.Errorf("sequence element %d: %w", i, err)
			}
			props[strconv.Itoa(i)] = node
		}
		return ast.NewObjectNode(props, pos), nil

	case Set:
		props := make(map[string]ast.SchemaNode, len(val))
		for k := range val {
			props[fmt.Sprint(k)] = ast.NewLiteralNode(nil, pos)
		}
		return ast.NewObjectNode(props, pos), nil
	}

	items, ok := mapEntries(v)
	if !ok {
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
	props := make(map[string]ast.SchemaNode, len(items))
	for _, item := range items {
		key := fmt.Sprint(item.Key)
		node, err := valueToAST(item.Value, pos, depth+1)
		if err != nil {
			return nil, fmt.Errorf("mapping property %s: %w", key, err)
		}
		props[key] = node
	}
	return ast.NewObjectNode(props, pos), nil
}

// FromAST converts a shape-core AST into a node graph. Literal values are
// represented at Restricted trust; an ObjectNode whose keys are exactly
// "0" to "n-1" becomes a sequence, any other ObjectNode a mapping with
// sorted keys.
//
// Example:
//
//	node, _ := yaml.FromAST(ast.NewObjectNode(map[string]ast.SchemaNode{
//	    "name": ast.NewLiteralNode("Alice", ast.ZeroPosition()),
//	}, ast.ZeroPosition()))
//	out, _ := yaml.Dump(node, yaml.Restricted) // "name: Alice\n"
func FromAST(node ast.SchemaNode, opts ...Option) (*Node, error) {
	v, err := astToValue(node)
	if err != nil {
		return nil, err
	}
	return newRepresenter(Restricted, newOptions(opts)).representRoot(v)
}

func astToValue(node ast.SchemaNode) (any, error) {
	switch n := node.(type) {
	case nil:
		return nil, nil

	case *ast.LiteralNode:
		return n.Value(), nil

	case *ast.ObjectNode:
		props := n.Properties()
		if isSequence(props) {
			arr := make([]any, len(props))
			for i := range arr {
				v, err := astToValue(props[strconv.Itoa(i)])
				if err != nil {
					return nil, err
				}
				arr[i] = v
			}
			return arr, nil
		}
		m := make(map[string]any, len(props))
		for key, prop := range props {
			v, err := astToValue(prop)
			if err != nil {
				return nil, err
			}
			m[key] = v
		}
		return m, nil
	}
	return nil, fmt.Errorf("yaml: unsupported AST node %T", node)
}

// isSequence checks if the object node represents a YAML sequence (numeric string keys)
func isSequence(props map[string]ast.SchemaNode) bool {
	if len(props) == 0 {
		return false
	}
	for i := 0; i < len(props); i++ {
		if _, ok := props[strconv.Itoa(i)]; !ok {
			return false
		}
	}
	return true
}

// ReleaseTree recursively releases all nodes in an AST tree back to their pools.
// This should be called when you're completely done with an AST built by
// ToAST, to enable node reuse and reduce memory pressure.
//
// Example:
//
//	node, _ := yaml.ToAST(doc.Root)
//	// ... use node
//	yaml.ReleaseTree(node)
func ReleaseTree(node ast.SchemaNode) {
	if node == nil {
		return
	}

	switch n := node.(type) {
	case *ast.LiteralNode:
		ast.ReleaseLiteralNode(n)

	case *ast.ObjectNode:
		// Release children first
		for _, child := range n.Properties() {
			ReleaseTree(child)
		}
		ast.ReleaseObjectNode(n)
	}
}
