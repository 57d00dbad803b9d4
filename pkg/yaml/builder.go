package yaml

import "errors"

// Builder provides a fluent API for building YAML documents as node graphs.
// Go values given to the builders are represented at Restricted trust.
//
// Example:
//
//	b := yaml.NewBuilder()
//	b.Mapping().
//	    Set("name", "app").
//	    SetSequence("ports", func(s *yaml.SequenceBuilder) { s.Add(80).Add(443) })
//	out, err := b.ToYAML()
//	// name: app
//	// ports: [80, 443]
type Builder struct {
	root     func() (*Node, error)
	opts     []Option
	explicit bool
}

// NewBuilder creates a new document builder. opts apply to representing
// values and to ToYAML.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{opts: opts}
}

// Mapping creates a mapping as the root.
func (b *Builder) Mapping() *MappingBuilder {
	m := NewMappingBuilder(b.opts...)
	b.root = m.Build
	return m
}

// Sequence creates a sequence as the root.
func (b *Builder) Sequence() *SequenceBuilder {
	s := NewSequenceBuilder(b.opts...)
	b.root = s.Build
	return s
}

// Value sets a represented Go value as the root.
func (b *Builder) Value(v any) *Builder {
	b.root = func() (*Node, error) {
		return newRepresenter(Restricted, newOptions(b.opts)).representRoot(v)
	}
	return b
}

// ExplicitStart marks the document to be written with "---".
func (b *Builder) ExplicitStart() *Builder {
	b.explicit = true
	return b
}

// Build returns the document, or the first error met while representing
// values.
func (b *Builder) Build() (*Document, error) {
	doc := &Document{ExplicitStart: b.explicit}
	if b.root == nil {
		return doc, nil
	}
	root, err := b.root()
	if err != nil {
		return nil, err
	}
	doc.Root = root
	return doc, nil
}

// ToYAML builds the document and serializes it.
func (b *Builder) ToYAML() (string, error) {
	doc, err := b.Build()
	if err != nil {
		return "", err
	}
	return Serialize([]*Document{doc}, b.opts...)
}

// MappingBuilder provides fluent API for building YAML mappings. Keys keep
// the order they were set in.
type MappingBuilder struct {
	node *Node
	rep  *Representer
	err  error
}

// NewMappingBuilder creates a new mapping builder.
func NewMappingBuilder(opts ...Option) *MappingBuilder {
	return &MappingBuilder{
		node: NewMapping(),
		rep:  newRepresenter(Restricted, newOptions(opts)),
	}
}

// Set adds a key-value pair to the mapping.
func (b *MappingBuilder) Set(key string, value any) *MappingBuilder {
	if b.err != nil {
		return b
	}
	n, err := b.rep.Represent(value)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetNode(key, n)
}

// SetNode adds a key with a node value, such as an alias from NewAlias.
func (b *MappingBuilder) SetNode(key string, value *Node) *MappingBuilder {
	if value == nil {
		value = nullNode()
	}
	b.node.Content = append(b.node.Content, &Node{Kind: ScalarNode, Tag: strTag, Value: key}, value)
	return b
}

// SetMapping adds a nested mapping.
func (b *MappingBuilder) SetMapping(key string, fn func(*MappingBuilder)) *MappingBuilder {
	nested := &MappingBuilder{node: NewMapping(), rep: b.rep}
	fn(nested)
	if nested.err != nil && b.err == nil {
		b.err = nested.err
	}
	return b.SetNode(key, nested.node)
}

// SetSequence adds a nested sequence.
func (b *MappingBuilder) SetSequence(key string, fn func(*SequenceBuilder)) *MappingBuilder {
	nested := &SequenceBuilder{node: NewSequence(), rep: b.rep}
	fn(nested)
	if nested.err != nil && b.err == nil {
		b.err = nested.err
	}
	return b.SetNode(key, nested.node)
}

// Anchor names the mapping so that aliases can refer to it.
func (b *MappingBuilder) Anchor(name string) *MappingBuilder {
	b.node.Anchor = name
	return b
}

// Flow asks for the mapping to be written in flow style.
func (b *MappingBuilder) Flow() *MappingBuilder {
	b.node.Style = StyleFlow
	return b
}

// Node returns the mapping node under construction.
func (b *MappingBuilder) Node() *Node {
	return b.node
}

// Build returns the mapping node.
func (b *MappingBuilder) Build() (*Node, error) {
	return b.node, b.err
}

// SequenceBuilder provides fluent API for building YAML sequences.
type SequenceBuilder struct {
	node *Node
	rep  *Representer
	err  error
}

// NewSequenceBuilder creates a new sequence builder.
func NewSequenceBuilder(opts ...Option) *SequenceBuilder {
	return &SequenceBuilder{
		node: NewSequence(),
		rep:  newRepresenter(Restricted, newOptions(opts)),
	}
}

// Add appends a value to the sequence.
func (b *SequenceBuilder) Add(value any) *SequenceBuilder {
	if b.err != nil {
		return b
	}
	n, err := b.rep.Represent(value)
	if err != nil {
		b.err = err
		return b
	}
	return b.AddNode(n)
}

// AddNode appends a node.
func (b *SequenceBuilder) AddNode(n *Node) *SequenceBuilder {
	if n == nil {
		b.err = errors.Join(b.err, errors.New("yaml: nil node added to sequence"))
		return b
	}
	b.node.Content = append(b.node.Content, n)
	return b
}

// AddMapping appends a nested mapping.
func (b *SequenceBuilder) AddMapping(fn func(*MappingBuilder)) *SequenceBuilder {
	nested := &MappingBuilder{node: NewMapping(), rep: b.rep}
	fn(nested)
	if nested.err != nil && b.err == nil {
		b.err = nested.err
	}
	return b.AddNode(nested.node)
}

// AddSequence appends a nested sequence.
func (b *SequenceBuilder) AddSequence(fn func(*SequenceBuilder)) *SequenceBuilder {
	nested := &SequenceBuilder{node: NewSequence(), rep: b.rep}
	fn(nested)
	if nested.err != nil && b.err == nil {
		b.err = nested.err
	}
	return b.AddNode(nested.node)
}

// Anchor names the sequence so that aliases can refer to it.
func (b *SequenceBuilder) Anchor(name string) *SequenceBuilder {
	b.node.Anchor = name
	return b
}

// Flow asks for the sequence to be written in flow style.
func (b *SequenceBuilder) Flow() *SequenceBuilder {
	b.node.Style = StyleFlow
	return b
}

// Node returns the sequence node under construction.
func (b *SequenceBuilder) Node() *Node {
	return b.node
}

// Build returns the sequence node.
func (b *SequenceBuilder) Build() (*Node, error) {
	return b.node, b.err
}
