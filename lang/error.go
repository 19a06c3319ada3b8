package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrReadInput    = NewError("failed to read input")
	ErrNoFile       = NewError("could not find template file")
	ErrInvalidValue = NewError("invalid context value")
	ErrDivideByZero = NewError("integer divide by zero")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel this error was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.msg == "" {
		return false
	}

	return t.msg == e.msg && t.err == nil
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
	}
}

// With adds attributes to the error for structured logging.
// The receiver is left unmodified.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseErrorKind classifies a [ParseError].
type ParseErrorKind int

const (
	// ParseSyntax is a malformed S-expression: unbalanced parentheses,
	// an unterminated string, trailing input, or no expression at all.
	ParseSyntax ParseErrorKind = iota

	// ParseNotAList is a list that is empty or whose head is not a symbol.
	ParseNotAList

	// ParseNotAnAttribute is an element of an @ block that is not a list.
	ParseNotAnAttribute

	// ParseAttributeMissingElement is an attribute with fewer than two
	// elements.
	ParseAttributeMissingElement

	// ParseDepth is nesting beyond the configured maximum depth.
	ParseDepth
)

func (k ParseErrorKind) String() string {
	switch k {
	case ParseSyntax:
		return "syntax"
	case ParseNotAList:
		return "not a list"
	case ParseNotAnAttribute:
		return "not an attribute"
	case ParseAttributeMissingElement:
		return "attribute missing element"
	case ParseDepth:
		return "depth"
	default:
		return "unknown"
	}
}

// ParseError reports a template that could not be read or built into an
// AST. It is always returned before any rendering begins.
type ParseError struct {
	Kind   ParseErrorKind
	Pos    Position
	Msg    string
	Source string
}

// Parse error sentinels, one per kind, for use with errors.Is.
var (
	ErrSyntax                  = &ParseError{Kind: ParseSyntax}
	ErrNotAList                = &ParseError{Kind: ParseNotAList}
	ErrNotAnAttribute          = &ParseError{Kind: ParseNotAnAttribute}
	ErrAttributeMissingElement = &ParseError{Kind: ParseAttributeMissingElement}
	ErrParseDepth              = &ParseError{Kind: ParseDepth}
)

func newParseError(kind ParseErrorKind, pos Position, msg string) *ParseError {
	return &ParseError{Kind: kind, Pos: pos, Msg: msg}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder

	b.WriteString("parse error")

	if e.Pos.Line > 0 {
		b.WriteString(" at line ")
		b.WriteString(strconv.Itoa(e.Pos.Line))
		b.WriteString(", column ")
		b.WriteString(strconv.Itoa(e.Pos.Column))
	}

	b.WriteString(": ")

	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.String())
	}

	if snippet := e.snippet(); snippet != "" {
		b.WriteString("\n")
		b.WriteString(snippet)
	}

	return b.String()
}

// Is matches parse errors of the same kind.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)

	return ok && t.Kind == e.Kind
}

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Msg),
		slog.String("kind", e.Kind.String()),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	)
}

// snippet renders the offending source line with a caret under the column.
func (e *ParseError) snippet() string {
	if e.Source == "" || e.Pos.Line <= 0 {
		return ""
	}

	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line > len(lines) {
		return ""
	}

	num := strconv.Itoa(e.Pos.Line)

	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(num)
	b.WriteString(" | ")
	b.WriteString(lines[e.Pos.Line-1])
	b.WriteString("\n")
	// 2 leading spaces + " | "
	b.WriteString(strings.Repeat(" ", len(num)+5))

	if e.Pos.Column > 1 {
		b.WriteString(strings.Repeat(" ", e.Pos.Column-1))
	}

	b.WriteString("^")

	return b.String()
}

// RenderErrorKind classifies a [RenderError] by the builtin or category
// that raised it.
type RenderErrorKind int

const (
	RenderIsSet RenderErrorKind = iota
	RenderCmp
	RenderIf
	RenderCase
	RenderSwitch
	RenderFor
	RenderGet
	RenderMath
	RenderUserDefined
	RenderExpandVariable
	RenderExpectedVariable
	RenderRecursion
)

func (k RenderErrorKind) String() string {
	switch k {
	case RenderIsSet:
		return "is-set"
	case RenderCmp:
		return "cmp"
	case RenderIf:
		return "if"
	case RenderCase:
		return "case"
	case RenderSwitch:
		return "switch"
	case RenderFor:
		return "for"
	case RenderGet:
		return "get"
	case RenderMath:
		return "math"
	case RenderUserDefined:
		return "user"
	case RenderExpandVariable:
		return "expand variable"
	case RenderExpectedVariable:
		return "expected variable"
	case RenderRecursion:
		return "recursion"
	default:
		return "unknown"
	}
}

// RenderError reports a failure during evaluation. It carries the
// offending AST fragment so callers can point at the template source.
type RenderError struct {
	Kind  RenderErrorKind
	Name  string // tag name; set for user-defined handlers
	Msg   string
	Nodes []Node
	Err   error
}

// Render error sentinels, one per kind, for use with errors.Is.
var (
	ErrIsSet            = &RenderError{Kind: RenderIsSet}
	ErrCmp              = &RenderError{Kind: RenderCmp}
	ErrIf               = &RenderError{Kind: RenderIf}
	ErrCase             = &RenderError{Kind: RenderCase}
	ErrSwitch           = &RenderError{Kind: RenderSwitch}
	ErrFor              = &RenderError{Kind: RenderFor}
	ErrGet              = &RenderError{Kind: RenderGet}
	ErrMath             = &RenderError{Kind: RenderMath}
	ErrUserDefined      = &RenderError{Kind: RenderUserDefined}
	ErrExpandVariable   = &RenderError{Kind: RenderExpandVariable}
	ErrExpectedVariable = &RenderError{Kind: RenderExpectedVariable}
	ErrRecursion        = &RenderError{Kind: RenderRecursion}
)

func newRenderError(kind RenderErrorKind, msg string, nodes []Node) *RenderError {
	return &RenderError{Kind: kind, Msg: msg, Nodes: nodes}
}

// UserError returns the error a handler registered under name should
// return to report msg about the given nodes.
func UserError(name, msg string, nodes []Node) *RenderError {
	return &RenderError{
		Kind:  RenderUserDefined,
		Name:  name,
		Msg:   msg,
		Nodes: nodes,
	}
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	var b strings.Builder

	switch e.Kind {
	case RenderUserDefined:
		fmt.Fprintf(&b, "error in `%s`: %s", e.Name, e.Msg)
	case RenderExpectedVariable:
		fmt.Fprintf(&b, "expected a variable, found %s", e.Msg)
	case RenderExpandVariable:
		fmt.Fprintf(&b, "error expanding variable: %s", e.Msg)
	case RenderMath:
		fmt.Fprintf(&b, "error in math operator: %s", e.Msg)
	case RenderRecursion:
		fmt.Fprintf(&b, "recursion limit: %s", e.Msg)
	default:
		fmt.Fprintf(&b, "error in `%s`: %s", e.Kind, e.Msg)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	if len(e.Nodes) > 0 {
		b.WriteString(" (")
		b.WriteString(formatNodes(e.Nodes))
		b.WriteString(")")
	}

	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *RenderError) Unwrap() error { return e.Err }

// Is matches render errors of the same kind.
func (e *RenderError) Is(target error) bool {
	t, ok := target.(*RenderError)

	return ok && t.Kind == e.Kind
}

// LogValue implements slog.LogValuer.
func (e *RenderError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("error", e.Msg),
		slog.String("kind", e.Kind.String()),
	}

	if e.Name != "" {
		attrs = append(attrs, slog.String("tag", e.Name))
	}

	if len(e.Nodes) > 0 {
		attrs = append(attrs,
			slog.String("nodes", formatNodes(e.Nodes)),
			slog.Int("line", e.Nodes[0].Pos.Line),
			slog.Int("column", e.Nodes[0].Pos.Column),
		)
	}

	if e.Err != nil {
		attrs = append(attrs, slog.Any("cause", e.Err))
	}

	return slog.GroupValue(attrs...)
}

// wrap attaches a cause to a copy of e.
func (e *RenderError) wrap(err error) *RenderError {
	c := *e
	c.Err = err

	return &c
}
