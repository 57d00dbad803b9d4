package yaml

import (
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
)

// Option configures a load, dump or parse call.
type Option func(*options)

type options struct {
	registry *Registry
	policy   Policy
	cycles   bool
	ordered  bool
	fs       afero.Fs
	log      logr.Logger
	observer Observer
	emitter  EmitterConfig

	includeDepth int // nesting of !include documents
}

func newOptions(opts []Option) *options {
	o := &options{
		registry: DefaultRegistry(),
		policy:   DefaultPolicy(),
		log:      logr.Discard(),
		emitter:  DefaultEmitterConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	return o
}

// WithRegistry uses r instead of the process-wide default registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithPolicy replaces the policy that authorizes constructors and representers.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithCycles allows aliases that refer to a collection containing them, and
// values that contain themselves. Both are rejected by default.
func WithCycles(enabled bool) Option {
	return func(o *options) { o.cycles = enabled }
}

// WithOrderedMaps constructs mappings as MapSlice, keeping the key order of
// the document.
func WithOrderedMaps(enabled bool) Option {
	return func(o *options) { o.ordered = enabled }
}

// WithFS sets the filesystem !include reads from. The default is the
// operating system's filesystem.
func WithFS(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithLogger receives security denials and per-document stream failures.
// Nothing is logged by default.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithObserver reports document results and denials to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithEmitter replaces the whole emitter configuration.
func WithEmitter(cfg EmitterConfig) Option {
	return func(o *options) { o.emitter = cfg }
}

// WithFlowStyle sets EmitterConfig.FlowStyle.
func WithFlowStyle(f FlowStyle) Option {
	return func(o *options) { o.emitter.FlowStyle = f }
}

// WithIndent sets EmitterConfig.Indent.
func WithIndent(n int) Option {
	return func(o *options) { o.emitter.Indent = n }
}

// WithLineWidth sets EmitterConfig.LineWidth.
func WithLineWidth(n int) Option {
	return func(o *options) { o.emitter.LineWidth = n }
}

// WithAllowUnicode sets EmitterConfig.AllowUnicode.
func WithAllowUnicode(allow bool) Option {
	return func(o *options) { o.emitter.AllowUnicode = allow }
}

// WithSortKeys sets EmitterConfig.SortKeys.
func WithSortKeys(sort bool) Option {
	return func(o *options) { o.emitter.SortKeys = sort }
}

// WithExplicitStart sets EmitterConfig.ExplicitStart.
func WithExplicitStart(explicit bool) Option {
	return func(o *options) { o.emitter.ExplicitStart = explicit }
}

// WithExplicitEnd sets EmitterConfig.ExplicitEnd.
func WithExplicitEnd(explicit bool) Option {
	return func(o *options) { o.emitter.ExplicitEnd = explicit }
}
