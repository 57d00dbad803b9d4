package yaml

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/shapestone/safeyaml/internal/parser"
	"github.com/shapestone/safeyaml/internal/tokenizer"
)

// LexError reports malformed characters: an unterminated quoted scalar, a tab
// used for indentation, an invalid escape sequence.
type LexError = tokenizer.LexError

// ParseError reports a structural violation such as a mismatched flow
// delimiter or content after a completed root node.
type ParseError = parser.ParseError

// ComposeErrorKind classifies a ComposeError.
type ComposeErrorKind int

const (
	// UndefinedAlias: an alias names an anchor that is not defined earlier in
	// the same document.
	UndefinedAlias ComposeErrorKind = iota + 1
	// CyclicReference: an alias refers to a collection that contains it.
	CyclicReference
	// MultipleDocuments: a single document was expected but the stream has more.
	MultipleDocuments
)

func (k ComposeErrorKind) String() string {
	switch k {
	case UndefinedAlias:
		return "UndefinedAlias"
	case CyclicReference:
		return "CyclicReference"
	case MultipleDocuments:
		return "MultipleDocuments"
	}
	return fmt.Sprintf("ComposeErrorKind(%d)", int(k))
}

// ComposeError is returned when events cannot be assembled into a node graph.
type ComposeError struct {
	Kind   ComposeErrorKind
	Anchor string
	Line   int
	Column int
}

func (e *ComposeError) Error() string {
	var msg string
	switch e.Kind {
	case UndefinedAlias:
		msg = fmt.Sprintf("undefined alias *%s", e.Anchor)
	case CyclicReference:
		msg = fmt.Sprintf("alias *%s refers to a collection that contains it", e.Anchor)
	case MultipleDocuments:
		msg = "expected a single document in the stream"
	default:
		msg = e.Kind.String()
	}
	return fmt.Sprintf("yaml: compose error at line %d, column %d: %s", e.Line, e.Column, msg)
}

// ConstructErrorKind classifies a ConstructError.
type ConstructErrorKind int

const (
	// DuplicateKey: a mapping holds the same key twice.
	DuplicateKey ConstructErrorKind = iota + 1
	// TypeMismatch: a node's content does not fit its tag or the target type.
	TypeMismatch
)

func (k ConstructErrorKind) String() string {
	switch k {
	case DuplicateKey:
		return "DuplicateKey"
	case TypeMismatch:
		return "TypeMismatch"
	}
	return fmt.Sprintf("ConstructErrorKind(%d)", int(k))
}

// ConstructError is returned when a node cannot be turned into a value.
// Line and Column are zero when the value did not come from parsed text.
type ConstructError struct {
	Kind    ConstructErrorKind
	Tag     string
	Message string
	Line    int
	Column  int
	Err     error
}

func (e *ConstructError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("yaml: construct error at line %d, column %d: %s", e.Line, e.Column, msg)
	}
	return "yaml: construct error: " + msg
}

func (e *ConstructError) Unwrap() error {
	return e.Err
}

// RepresentErrorKind classifies a RepresentError.
type RepresentErrorKind int

const (
	// UnrepresentableType: no representer exists for the runtime type.
	UnrepresentableType RepresentErrorKind = iota + 1
	// CyclicValue: the value contains itself and cycles were not enabled.
	CyclicValue
)

func (k RepresentErrorKind) String() string {
	switch k {
	case UnrepresentableType:
		return "UnrepresentableType"
	case CyclicValue:
		return "CyclicValue"
	}
	return fmt.Sprintf("RepresentErrorKind(%d)", int(k))
}

// RepresentError is returned when a Go value cannot be turned into a node.
type RepresentError struct {
	Kind    RepresentErrorKind
	Type    reflect.Type
	Message string
	Err     error
}

func (e *RepresentError) Error() string {
	msg := e.Message
	if msg == "" {
		switch e.Kind {
		case UnrepresentableType:
			msg = fmt.Sprintf("cannot represent values of type %v", e.Type)
		case CyclicValue:
			msg = fmt.Sprintf("value of type %v contains itself", e.Type)
		}
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "yaml: represent error: " + msg
}

func (e *RepresentError) Unwrap() error {
	return e.Err
}

// SecurityErrorKind classifies a SecurityError.
type SecurityErrorKind int

const (
	// UnauthorizedTag: no constructor for the tag is allowed at the trust level.
	UnauthorizedTag SecurityErrorKind = iota + 1
	// UnauthorizedType: no representer for the type is allowed at the trust level.
	UnauthorizedType
)

func (k SecurityErrorKind) String() string {
	switch k {
	case UnauthorizedTag:
		return "UnauthorizedTag"
	case UnauthorizedType:
		return "UnauthorizedType"
	}
	return fmt.Sprintf("SecurityErrorKind(%d)", int(k))
}

// SecurityError is returned when a document or value asks for a constructor
// or representer the active trust level does not allow. The input itself is
// well formed.
type SecurityError struct {
	Kind   SecurityErrorKind
	Tag    string
	Type   reflect.Type
	Trust  TrustLevel
	Line   int
	Column int
}

func (e *SecurityError) Error() string {
	subject := "tag " + shortTag(e.Tag)
	if e.Kind == UnauthorizedType {
		subject = fmt.Sprintf("type %v", e.Type)
	}
	if e.Line > 0 {
		return fmt.Sprintf("yaml: security error at line %d, column %d: %s is not authorized at trust level %s",
			e.Line, e.Column, subject, e.Trust)
	}
	return fmt.Sprintf("yaml: security error: %s is not authorized at trust level %s", subject, e.Trust)
}

// DocumentError wraps the failure of one document in a stream.
type DocumentError struct {
	Index int // 0-based position of the document in the stream
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("yaml: document %d: %v", e.Index, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// IsSecurityError reports whether err is, or wraps, a *SecurityError.
func IsSecurityError(err error) bool {
	var se *SecurityError
	return errors.As(err, &se)
}

// IsSyntaxError reports whether err is, or wraps, a lexical, structural or
// composition error, meaning the input text itself is malformed.
func IsSyntaxError(err error) bool {
	var (
		lexErr     *LexError
		parseErr   *ParseError
		composeErr *ComposeError
	)
	return errors.As(err, &lexErr) || errors.As(err, &parseErr) || errors.As(err, &composeErr)
}
