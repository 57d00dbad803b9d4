package yaml

import "reflect"

// Subject is what a Policy is asked about: a tag about to be constructed or
// a Go type about to be represented, with the registry entry that would run.
type Subject struct {
	Tag  string       // full tag, set when constructing
	Type reflect.Type // set when representing

	Registered bool // a constructor or representer exists
	Level      TrustLevel
	Origin     Origin

	Line   int
	Column int
}

// Policy decides whether a constructor or representer may run.
//
// The policy is consulted once for every node constructed or represented.
// Decisions are never cached, so registrations made between calls take
// effect on the next node.
type Policy interface {
	Authorize(s Subject, trust TrustLevel) error
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(s Subject, trust TrustLevel) error

func (f PolicyFunc) Authorize(s Subject, trust TrustLevel) error {
	return f(s, trust)
}

// DefaultPolicy allows a registered entry when the active trust level is at
// least the level it was registered at, and denies everything unregistered.
func DefaultPolicy() Policy {
	return PolicyFunc(authorize)
}

func authorize(s Subject, trust TrustLevel) error {
	if s.Registered && s.Level <= trust {
		return nil
	}
	return denial(s, trust)
}

// denial builds the SecurityError for a refused subject.
func denial(s Subject, trust TrustLevel) *SecurityError {
	e := &SecurityError{Kind: UnauthorizedTag, Tag: s.Tag, Trust: trust, Line: s.Line, Column: s.Column}
	if s.Tag == "" && s.Type != nil {
		e.Kind = UnauthorizedType
		e.Type = s.Type
	}
	return e
}

// Observer receives load outcomes, for metrics.
type Observer interface {
	// DocumentLoaded is called once per document with its result.
	DocumentLoaded(index int, err error)
	// Denied is called for every subject the policy refused.
	Denied(s Subject, trust TrustLevel)
}

// check asks the policy about s and reports a denial to the logger and the
// observer. A non-SecurityError from a custom policy is wrapped in one.
func (o *options) check(s Subject, trust TrustLevel) error {
	err := o.policy.Authorize(s, trust)
	if err == nil {
		return nil
	}
	if !IsSecurityError(err) {
		err = &securityWrap{SecurityError: denial(s, trust), cause: err}
	}

	keys := []any{"trust", trust.String()}
	if s.Tag != "" {
		keys = append(keys, "tag", s.Tag)
	}
	if s.Type != nil {
		keys = append(keys, "type", s.Type.String())
	}
	if s.Line > 0 {
		keys = append(keys, "line", s.Line, "column", s.Column)
	}
	o.log.Info("input rejected", keys...)
	if o.observer != nil {
		o.observer.Denied(s, trust)
	}
	return err
}

func (o *options) documentLoaded(index int, err error) {
	if o.observer != nil {
		o.observer.DocumentLoaded(index, err)
	}
}

// securityWrap keeps a custom policy's reason behind a SecurityError.
type securityWrap struct {
	*SecurityError
	cause error
}

func (w *securityWrap) Error() string {
	return w.SecurityError.Error() + ": " + w.cause.Error()
}

func (w *securityWrap) Unwrap() []error {
	return []error{w.SecurityError, w.cause}
}
