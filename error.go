package liquid

import (
	"fmt"

	"github.com/sschuldenzucker/liquidjs/lexer"
)

// ErrorKind describes the type of error.
type ErrorKind int

const (
	// ErrSyntax is a malformed tag-argument or expression grammar error,
	// raised at parse time. It aborts compilation of the template.
	ErrSyntax ErrorKind = iota

	// ErrParse is a structurally invalid tag argument list, e.g. a cycle
	// tag with no candidates. Parse time, aborts compilation.
	ErrParse

	// ErrRender is a render-time failure: empty or unresolvable partial
	// name, a filter failure, or an async operation in sync mode.
	ErrRender

	// ErrTemplateNotFound means the loader could not resolve a name.
	ErrTemplateNotFound

	// ErrUnknownFilter is raised in strict-filter mode for a filter name
	// that is not registered.
	ErrUnknownFilter

	// ErrUnknownTag is raised at parse time for an unregistered tag name.
	ErrUnknownTag
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax error"
	case ErrParse:
		return "parse error"
	case ErrRender:
		return "render error"
	case ErrTemplateNotFound:
		return "template not found"
	case ErrUnknownFilter:
		return "unknown filter"
	case ErrUnknownTag:
		return "unknown tag"
	default:
		return "error"
	}
}

// Error represents an error that occurred during template processing.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    *lexer.Span
	Name    string // template name
	Source  string // offending raw source (tag or expression)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Source != "" {
		msg += fmt.Sprintf(", source %q", e.Source)
	}
	if e.Name != "" && e.Span != nil {
		return fmt.Sprintf("%s (in %s line %d)", msg, e.Name, e.Span.StartLine)
	}
	if e.Span != nil {
		return fmt.Sprintf("%s (line %d)", msg, e.Span.StartLine)
	}
	return msg
}

// NewError creates a new error.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WithSpan adds span information to an error.
func (e *Error) WithSpan(span lexer.Span) *Error {
	e.Span = &span
	return e
}

// WithName adds the template name to an error.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithSource adds the offending raw source to an error.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// WithToken attaches a tag token's source location for diagnostics.
// Location already present on the error is preserved, so the innermost
// frame of a nested partial render wins.
func (e *Error) WithToken(tok *lexer.TagToken) *Error {
	if e.Span == nil {
		e.Span = &tok.Span
		e.Source = tok.Raw
	}
	return e
}
