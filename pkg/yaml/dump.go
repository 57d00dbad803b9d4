package yaml

import (
	"errors"
	"io"
	"sync"
)

// emitBufPool pools emitter buffers for Dump and Serialize.
var emitBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 1024)
		return &b
	},
}

const maxPooledBuffer = 64 * 1024

// withEmitter runs fn on an emitter backed by a pooled buffer and returns
// the text it wrote.
func withEmitter(cfg EmitterConfig, fn func(e *emitter) error) (string, error) {
	e, err := newEmitter(cfg)
	if err != nil {
		return "", err
	}
	bp := emitBufPool.Get().(*[]byte)
	e.buf = (*bp)[:0]
	defer func() {
		if cap(e.buf) <= maxPooledBuffer {
			*bp = e.buf[:0]
			emitBufPool.Put(bp)
		}
	}()

	if err := fn(e); err != nil {
		return "", err
	}
	return string(e.bytes()), nil
}

// Dump represents v at the given trust level and writes it as a single
// document.
//
// Values of the core types dump to their core tags. Structs dump as
// mappings with fields in declaration order, named by their yaml tag or
// their lowercased field name. Maps, slices and pointers reached more than
// once are written once with an anchor and then as aliases; a value that
// contains itself fails with a *RepresentError of kind CyclicValue unless
// WithCycles is given.
//
// A *Document or *Node is written as is.
//
// Example:
//
//	out, _ := yaml.Dump(map[string]any{"name": "app", "ports": []int{80, 443}}, yaml.Restricted)
//	// name: app
//	// ports: [80, 443]
func Dump(v any, trust TrustLevel, opts ...Option) (string, error) {
	o := newOptions(opts)
	return withEmitter(o.emitter, func(e *emitter) error {
		return dumpValue(e, v, trust, o)
	})
}

// DumpStream writes values as consecutive documents.
func DumpStream(values []any, trust TrustLevel, opts ...Option) (string, error) {
	o := newOptions(opts)
	return withEmitter(o.emitter, func(e *emitter) error {
		for _, v := range values {
			if err := dumpValue(e, v, trust, o); err != nil {
				return err
			}
		}
		return nil
	})
}

func dumpValue(e *emitter, v any, trust TrustLevel, o *options) error {
	if doc, ok := v.(*Document); ok && doc != nil {
		e.document(doc.Root, metaOf(doc))
		return nil
	}
	root, err := newRepresenter(trust, o).representRoot(v)
	if err != nil {
		return err
	}
	e.document(root, docMeta{})
	return nil
}

// Represent builds the node graph for v at the given trust level, running
// the same representers as Dump.
func Represent(v any, trust TrustLevel, opts ...Option) (*Document, error) {
	root, err := newRepresenter(trust, newOptions(opts)).representRoot(v)
	if err != nil {
		return nil, err
	}
	return &Document{Root: root}, nil
}

// Serialize writes composed documents as text. Nothing is constructed or
// represented, so no trust level applies. Styles recorded by Parse are kept
// where they still read back to the same value.
//
// Example:
//
//	doc, _ := yaml.Parse("a: 'quoted'\nb: [1, 2]\n")
//	out, _ := yaml.Serialize([]*yaml.Document{doc})
//	// a: 'quoted'
//	// b: [1, 2]
func Serialize(docs []*Document, opts ...Option) (string, error) {
	o := newOptions(opts)
	return withEmitter(o.emitter, func(e *emitter) error {
		for _, doc := range docs {
			if doc == nil {
				e.document(nil, docMeta{})
				continue
			}
			e.document(doc.Root, metaOf(doc))
		}
		return nil
	})
}

var errEncoderClosed = errors.New("yaml: encoder is closed")

// Encoder writes values to an output stream as consecutive documents.
//
// Example:
//
//	enc := yaml.NewEncoder(os.Stdout, yaml.Restricted)
//	defer enc.Close()
//	enc.Encode(map[string]int{"a": 1})
//	enc.Encode([]string{"x"})
//	// a: 1
//	// ---
//	// - x
type Encoder struct {
	w      io.Writer
	trust  TrustLevel
	opts   *options
	em     *emitter
	err    error
	closed bool
}

// NewEncoder returns an encoder writing to w. An invalid emitter
// configuration is reported by the first Encode.
func NewEncoder(w io.Writer, trust TrustLevel, opts ...Option) *Encoder {
	o := newOptions(opts)
	em, err := newEmitter(o.emitter)
	return &Encoder{w: w, trust: trust, opts: o, em: em, err: err}
}

// Encode writes v as the next document.
func (enc *Encoder) Encode(v any) error {
	if enc.closed {
		return errEncoderClosed
	}
	if enc.err != nil {
		return enc.err
	}
	enc.em.buf = enc.em.buf[:0]
	if err := dumpValue(enc.em, v, enc.trust, enc.opts); err != nil {
		return err
	}
	if _, err := enc.w.Write(enc.em.bytes()); err != nil {
		enc.err = err
		return err
	}
	return nil
}

// Close ends the stream. Later calls to Encode fail.
func (enc *Encoder) Close() error {
	if enc.closed {
		return nil
	}
	enc.closed = true
	return enc.err
}
