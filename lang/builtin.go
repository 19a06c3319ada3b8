package lang

import (
	"strconv"
)

// Doctype is the marker the html builtin writes before the root element.
const Doctype = "<!doctype html5>"

// switchBinding is the hidden name under which switch binds its
// discriminant for the nested case tags.
const switchBinding = "__switch"

// builtins returns a fresh copy of the standard handler table.
func builtins() map[string]Handler {
	return map[string]Handler{
		"html":   HandlerFunc(doHTML),
		"is-set": HandlerFunc(doIsSet),
		"if":     HandlerFunc(doIf),
		"switch": HandlerFunc(doSwitch),
		"case":   HandlerFunc(doCase),
		"for":    HandlerFunc(doFor),
		"get":    HandlerFunc(doGet),

		"eq":  compareOp(func(o int) bool { return o == 0 }),
		"ne":  compareOp(func(o int) bool { return o != 0 }),
		"lt":  compareOp(func(o int) bool { return o < 0 }),
		"gt":  compareOp(func(o int) bool { return o > 0 }),
		"lte": compareOp(func(o int) bool { return o <= 0 }),
		"gte": compareOp(func(o int) bool { return o >= 0 }),

		"+": mathOp(add),
		"-": mathOp(sub),
		"*": mathOp(mul),
		"/": mathOp(div),
		"%": mathOp(rem),
	}
}

func doHTML(
	attrs Attributes,
	children []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	elem, err := ev.Element("html", attrs, children, data)
	if err != nil {
		return Empty(), err
	}

	return RenderList(RenderString(Doctype), elem), nil
}

func doIsSet(
	_ Attributes,
	children []Node,
	_ *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	if len(children) == 0 || children[0].Type != NodeIdentifier {
		return Empty(), newRenderError(RenderIsSet,
			"expected identifier", children)
	}

	_, ok := data.Get(children[0].Ident)

	return RenderBool(ok), nil
}

func doIf(
	_ Attributes,
	children []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	if len(children) == 0 {
		return Empty(), newRenderError(RenderIf,
			"condition not found", children)
	}

	cond, err := ev.Evaluate(children[0], data)
	if err != nil {
		return Empty(), err
	}

	if Truthy(cond) {
		if len(children) < 2 {
			return Empty(), newRenderError(RenderIf,
				"code block not found", children)
		}

		return ev.Evaluate(children[1], data)
	}

	if len(children) < 3 {
		return Empty(), nil
	}

	return ev.Evaluate(children[2], data)
}

func doSwitch(
	_ Attributes,
	children []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	if len(children) == 0 {
		return Empty(), newRenderError(RenderSwitch,
			"variable not found", children)
	}

	disc, err := ev.Evaluate(children[0], data)
	if err != nil {
		return Empty(), err
	}

	scope := data.Clone().Insert(switchBinding, String(Finalize(disc)))

	return ev.EvaluateMultiple(children[1:], scope)
}

func doCase(
	_ Attributes,
	children []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	if len(children) == 0 {
		return Empty(), newRenderError(RenderCase,
			"variant not found", children)
	}

	var label string

	switch children[0].Type {
	case NodeIdentifier:
		label = children[0].Ident

	case NodeInteger:
		label = strconv.FormatInt(children[0].Int, 10)

	default:
		return Empty(), newRenderError(RenderCase,
			"variant must be an identifier", children)
	}

	disc, ok := data.Get(switchBinding)
	if !ok {
		return Empty(), newRenderError(RenderCase,
			"builtin switch variable not found", children)
	}

	if disc.Kind != KindString || disc.Str != label {
		return Empty(), nil
	}

	return ev.EvaluateMultiple(children[1:], data)
}

func doGet(
	_ Attributes,
	children []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	if len(children) < 2 {
		return Empty(), newRenderError(RenderGet,
			"expected an indexable and an index", children)
	}

	coll, err := ev.Evaluate(children[0], data)
	if err != nil {
		return Empty(), err
	}

	index, err := ev.Evaluate(children[1], data)
	if err != nil {
		return Empty(), err
	}

	switch {
	case coll.Kind == KindList && index.Kind == KindInteger:
		if index.Int < 0 || index.Int >= int64(len(coll.List)) {
			return Empty(), newRenderError(RenderGet,
				"index "+strconv.FormatInt(index.Int, 10)+" out of bounds", children)
		}

		return coll.List[index.Int], nil

	case coll.Kind == KindObject && index.Kind == KindString:
		v, ok := coll.Member(index.Str)
		if !ok {
			return Empty(), newRenderError(RenderGet,
				"member "+strconv.Quote(index.Str)+" not found", children)
		}

		return v, nil

	default:
		return Empty(), newRenderError(RenderGet,
			"invalid index/indexable ("+index.Kind.String()+"/"+
				coll.Kind.String()+")", children)
	}
}
