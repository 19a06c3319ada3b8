package lang

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [ContextValue] or [RenderValue].
type Kind int

const (
	KindEmpty Kind = iota
	KindInteger
	KindBoolean
	KindString
	KindList
	KindObject
	KindTemplate
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindInteger:
		return "Integer"
	case KindBoolean:
		return "Boolean"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindObject:
		return "Object"
	case KindTemplate:
		return "Template"
	default:
		return "Unknown"
	}
}

// ContextValue is caller-supplied data bound to a name in a
// [RenderContext]. Exactly one field is meaningful, according to Kind.
// The zero ContextValue is invalid; use the constructors.
type ContextValue struct {
	Kind     Kind
	Int      int64
	Bool     bool
	Str      string
	List     []ContextValue
	Object   *RenderContext
	Template *Template
}

// Int returns an Integer context value.
func Int(n int64) ContextValue { return ContextValue{Kind: KindInteger, Int: n} }

// Bool returns a Boolean context value.
func Bool(b bool) ContextValue { return ContextValue{Kind: KindBoolean, Bool: b} }

// String returns a String context value.
func String(s string) ContextValue { return ContextValue{Kind: KindString, Str: s} }

// List returns a List context value holding elems in order.
func List(elems ...ContextValue) ContextValue {
	if elems == nil {
		elems = []ContextValue{}
	}

	return ContextValue{Kind: KindList, List: elems}
}

// Strings returns a List context value of String elements.
func Strings(elems ...string) ContextValue {
	list := make([]ContextValue, len(elems))
	for i, s := range elems {
		list[i] = String(s)
	}

	return List(list...)
}

// Object returns an Object context value wrapping ctx.
func Object(ctx *RenderContext) ContextValue {
	if ctx == nil {
		ctx = NewContext()
	}

	return ContextValue{Kind: KindObject, Object: ctx}
}

// TemplateValue returns a context value carrying a nested template, which
// renders against the current context wherever its variable is expanded.
func TemplateValue(t *Template) ContextValue {
	return ContextValue{Kind: KindTemplate, Template: t}
}

// Render converts v structurally into a [RenderValue].
func (v ContextValue) Render() RenderValue {
	switch v.Kind {
	case KindInteger:
		return RenderInt(v.Int)

	case KindBoolean:
		return RenderBool(v.Bool)

	case KindString:
		return RenderString(v.Str)

	case KindList:
		list := make([]RenderValue, len(v.List))
		for i, e := range v.List {
			list[i] = e.Render()
		}

		return RenderList(list...)

	case KindObject:
		members := make([]Member, 0, v.Object.Len())
		for k, e := range v.Object.All() {
			members = append(members, Member{Name: k, Value: e.Render()})
		}

		return RenderObject(members...)

	case KindTemplate:
		return RenderValue{Kind: KindTemplate, Template: v.Template}

	default:
		return Empty()
	}
}

// Member is a named element of an Object [RenderValue].
type Member struct {
	Name  string
	Value RenderValue
}

// RenderValue is the result of evaluating a node. Objects keep the member
// order of the context they were converted from.
type RenderValue struct {
	Kind     Kind
	Int      int64
	Bool     bool
	Str      string
	List     []RenderValue
	Members  []Member
	Template *Template
}

// Empty returns the empty render value, which finalizes to "".
func Empty() RenderValue { return RenderValue{Kind: KindEmpty} }

// RenderString returns a String render value.
func RenderString(s string) RenderValue { return RenderValue{Kind: KindString, Str: s} }

// RenderInt returns an Integer render value.
func RenderInt(n int64) RenderValue { return RenderValue{Kind: KindInteger, Int: n} }

// RenderBool returns a Boolean render value.
func RenderBool(b bool) RenderValue { return RenderValue{Kind: KindBoolean, Bool: b} }

// RenderList returns a List render value holding elems in order.
func RenderList(elems ...RenderValue) RenderValue {
	if elems == nil {
		elems = []RenderValue{}
	}

	return RenderValue{Kind: KindList, List: elems}
}

// RenderObject returns an Object render value holding members in order.
func RenderObject(members ...Member) RenderValue {
	if members == nil {
		members = []Member{}
	}

	return RenderValue{Kind: KindObject, Members: members}
}

// Member returns the value of the named object member.
func (v RenderValue) Member(name string) (RenderValue, bool) {
	if v.Kind != KindObject {
		return RenderValue{}, false
	}

	for _, m := range v.Members {
		if m.Name == name {
			return m.Value, true
		}
	}

	return RenderValue{}, false
}

// Finalize reduces v to its output text.
func Finalize(v RenderValue) string {
	var b strings.Builder

	finalize(&b, v)

	return b.String()
}

// String implements fmt.Stringer using [Finalize].
func (v RenderValue) String() string { return Finalize(v) }

func finalize(b *strings.Builder, v RenderValue) {
	switch v.Kind {
	case KindString:
		b.WriteString(v.Str)

	case KindInteger:
		b.WriteString(strconv.FormatInt(v.Int, 10))

	case KindBoolean:
		b.WriteString(strconv.FormatBool(v.Bool))

	case KindList:
		for _, e := range v.List {
			finalize(b, e)
		}

	case KindObject:
		for _, m := range v.Members {
			finalize(b, m.Value)
		}
	}
}

// Context converts v back into a [ContextValue] so evaluated results can
// be bound to names. Empty becomes the empty string.
func (v RenderValue) Context() ContextValue {
	switch v.Kind {
	case KindInteger:
		return Int(v.Int)

	case KindBoolean:
		return Bool(v.Bool)

	case KindString:
		return String(v.Str)

	case KindList:
		list := make([]ContextValue, len(v.List))
		for i, e := range v.List {
			list[i] = e.Context()
		}

		return List(list...)

	case KindObject:
		obj := NewContext()
		for _, m := range v.Members {
			obj.Insert(m.Name, m.Value.Context())
		}

		return Object(obj)

	case KindTemplate:
		return TemplateValue(v.Template)

	default:
		return String("")
	}
}

// Truthy reports whether v selects the then-branch of an if: true, a
// non-empty string, or a non-zero integer. Everything else is falsy.
func Truthy(v RenderValue) bool {
	switch v.Kind {
	case KindBoolean:
		return v.Bool

	case KindString:
		return v.Str != ""

	case KindInteger:
		return v.Int != 0

	default:
		return false
	}
}

// Compare orders a and b. The order is defined only within the same kind
// for Integer, Boolean (false < true), String and List (lexicographic);
// every other pair is incomparable and ok is false.
func Compare(a, b RenderValue) (order int, ok bool) {
	if a.Kind != b.Kind {
		return 0, false
	}

	switch a.Kind {
	case KindInteger:
		return cmpOrdered(a.Int, b.Int), true

	case KindBoolean:
		return cmpOrdered(boolRank(a.Bool), boolRank(b.Bool)), true

	case KindString:
		return strings.Compare(a.Str, b.Str), true

	case KindList:
		for i := range min(len(a.List), len(b.List)) {
			order, ok := Compare(a.List[i], b.List[i])
			if !ok || order != 0 {
				return order, ok
			}
		}

		return cmpOrdered(len(a.List), len(b.List)), true

	default:
		return 0, false
	}
}

// Equal reports whether a and b compare equal.
func Equal(a, b RenderValue) bool {
	order, ok := Compare(a, b)

	return ok && order == 0
}

func cmpOrdered[T int | int64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}

	return 0
}
