package lang

import (
	"strconv"
	"strings"
)

// Names recognized by the for builtin.
const (
	forIn        = "in"
	forEnumerate = "enumerate"
	forRange     = "range"
)

// binding assigns loop variables for one iteration.
type binding func(scope *RenderContext, index int, value ContextValue)

// doFor iterates a list, an object, or an integer range, evaluating its
// body once per element in a fresh scope.
//
//	(for x in $list body...)
//	(for (enumerate i x) in $list body...)
//	(for k v in $object body...)
//	(for i in (range min max step) body...)
//
// Without the "in" keyword the loop is configured by attributes:
// var, index, iterate, key, value, min, max and step.
func doFor(
	attrs Attributes,
	children []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	pos := -1

	for i, c := range children {
		if c.IsIdent(forIn) {
			pos = i

			break
		}
	}

	if pos < 0 {
		return forAttributes(attrs, children, ev, data)
	}

	header := children[:pos]

	if pos+1 >= len(children) {
		return Empty(), newRenderError(RenderFor,
			"no iterable specified", children)
	}

	body := children[pos+2:]
	src := children[pos+1]

	if src.Type == NodeTag && src.Tag.Name == forRange {
		lo, hi, step, err := rangeBounds(src.Tag.Children, ev, data, children)
		if err != nil {
			return Empty(), err
		}

		bind, err := listBinding(header, children)
		if err != nil {
			return Empty(), err
		}

		return iterateRange(lo, hi, step, bind, body, ev, data)
	}

	iterable, err := iterableValue(src, ev, data, children)
	if err != nil {
		return Empty(), err
	}

	switch iterable.Kind {
	case KindList:
		bind, err := listBinding(header, children)
		if err != nil {
			return Empty(), err
		}

		return iterateList(iterable.List, bind, body, ev, data)

	case KindObject:
		if len(header) != 2 ||
			header[0].Type != NodeIdentifier || header[1].Type != NodeIdentifier {
			return Empty(), newRenderError(RenderFor,
				"object iteration requires key and value variables", children)
		}

		keyName, valueName := header[0].Ident, header[1].Ident

		return iterateObject(iterable.Object, keyName, valueName, body, ev, data)

	default:
		return Empty(), newRenderError(RenderFor,
			"element is not iterable: "+iterable.Kind.String(), children)
	}
}

// listBinding interprets the header of a list or range loop: either a
// single variable or (enumerate index variable).
func listBinding(header, children []Node) (binding, error) {
	if len(header) != 1 {
		return nil, newRenderError(RenderFor,
			"missing variable to iterate over", children)
	}

	h := header[0]

	switch {
	case h.Type == NodeIdentifier:
		name := h.Ident

		return func(scope *RenderContext, _ int, v ContextValue) {
			scope.Insert(name, v)
		}, nil

	case h.Type == NodeTag && h.Tag.Name == forEnumerate &&
		len(h.Tag.Children) == 2 &&
		h.Tag.Children[0].Type == NodeIdentifier &&
		h.Tag.Children[1].Type == NodeIdentifier:
		index, name := h.Tag.Children[0].Ident, h.Tag.Children[1].Ident

		return func(scope *RenderContext, i int, v ContextValue) {
			scope.Insert(index, Int(int64(i)))
			scope.Insert(name, v)
		}, nil

	default:
		return nil, newRenderError(RenderFor,
			"malformed loop header", children)
	}
}

// iterableValue resolves the iterable of a positional loop. Identifiers
// are looked up without rendering; other expressions are evaluated.
func iterableValue(
	src Node,
	ev *Evaluator,
	data *RenderContext,
	children []Node,
) (ContextValue, error) {
	if src.Type == NodeIdentifier {
		v, ok := data.Lookup(src.Ident)
		if !ok {
			return ContextValue{}, newRenderError(RenderFor,
				"iterable "+strconv.Quote(src.Ident)+" is not set", children)
		}

		return v, nil
	}

	v, err := ev.Evaluate(src, data)
	if err != nil {
		return ContextValue{}, err
	}

	return v.Context(), nil
}

// rangeBounds evaluates (range min max step?). The step defaults to 1 and
// must be positive.
func rangeBounds(
	args []Node,
	ev *Evaluator,
	data *RenderContext,
	children []Node,
) (lo, hi, step int64, err error) {
	if len(args) < 2 || len(args) > 3 {
		return 0, 0, 0, newRenderError(RenderFor,
			"range expects min, max and optional step", children)
	}

	bounds := [3]int64{0, 0, 1}

	for i, a := range args {
		v, err := ev.Evaluate(a, data)
		if err != nil {
			return 0, 0, 0, err
		}

		if v.Kind != KindInteger {
			return 0, 0, 0, newRenderError(RenderFor,
				"range bound is not an integer: "+v.Kind.String(), children)
		}

		bounds[i] = v.Int
	}

	if bounds[2] <= 0 {
		return 0, 0, 0, newRenderError(RenderFor,
			"range step must be positive", children)
	}

	return bounds[0], bounds[1], bounds[2], nil
}

func iterateRange(
	lo, hi, step int64,
	bind binding,
	body []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	var out []RenderValue

	for i, n := 0, lo; n < hi; i, n = i+1, n+step {
		if err := ev.ctx.Err(); err != nil {
			return Empty(), err
		}

		scope := data.Clone()
		bind(scope, i, Int(n))

		v, err := ev.EvaluateMultiple(body, scope)
		if err != nil {
			return Empty(), err
		}

		out = append(out, v)

		// Stop before the counter wraps past the maximum int64.
		if n > hi-step {
			break
		}
	}

	return RenderList(out...), nil
}

func iterateList(
	list []ContextValue,
	bind binding,
	body []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	out := make([]RenderValue, 0, len(list))

	for i, elem := range list {
		if err := ev.ctx.Err(); err != nil {
			return Empty(), err
		}

		scope := data.Clone()
		bind(scope, i, elem)

		v, err := ev.EvaluateMultiple(body, scope)
		if err != nil {
			return Empty(), err
		}

		out = append(out, v)
	}

	return RenderList(out...), nil
}

func iterateObject(
	obj *RenderContext,
	keyName, valueName string,
	body []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	out := make([]RenderValue, 0, obj.Len())

	for k, elem := range obj.All() {
		if err := ev.ctx.Err(); err != nil {
			return Empty(), err
		}

		scope := data.Clone()
		scope.Insert(keyName, String(k))
		scope.Insert(valueName, elem)

		v, err := ev.EvaluateMultiple(body, scope)
		if err != nil {
			return Empty(), err
		}

		out = append(out, v)
	}

	return RenderList(out...), nil
}

// forAttributes implements the attribute form of for. The whole child list
// is the body.
func forAttributes(
	attrs Attributes,
	body []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	lo, hasMin, err := intAttribute(attrs, "min", body)
	if err != nil {
		return Empty(), err
	}

	hi, hasMax, err := intAttribute(attrs, "max", body)
	if err != nil {
		return Empty(), err
	}

	if hasMin && hasMax {
		step, hasStep, err := intAttribute(attrs, "step", body)
		if err != nil {
			return Empty(), err
		}

		if !hasStep {
			step = 1
		}

		if step <= 0 {
			return Empty(), newRenderError(RenderFor,
				"range step must be positive", body)
		}

		name, ok := attrs.Get("var")
		if !ok {
			return Empty(), newRenderError(RenderFor,
				"missing var attribute for range iteration", body)
		}

		bind := func(scope *RenderContext, _ int, v ContextValue) {
			scope.Insert(name, v)
		}

		return iterateRange(lo, hi, step, bind, body, ev, data)
	}

	source, ok := attrs.Lookup("iterate")
	if !ok {
		return Empty(), newRenderError(RenderFor,
			"missing iterate attribute", body)
	}

	iterable, err := attributeIterable(source, ev, data, body)
	if err != nil {
		return Empty(), err
	}

	switch iterable.Kind {
	case KindList:
		name, ok := attrs.Get("var")
		if !ok {
			return Empty(), newRenderError(RenderFor,
				"missing var attribute for array iteration", body)
		}

		index, hasIndex := attrs.Get("index")

		bind := func(scope *RenderContext, i int, v ContextValue) {
			scope.Insert(name, v)

			if hasIndex {
				scope.Insert(index, Int(int64(i)))
			}
		}

		return iterateList(iterable.List, bind, body, ev, data)

	case KindObject:
		keyName, ok := attrs.Get("key")
		if !ok {
			return Empty(), newRenderError(RenderFor,
				"missing key attribute for object iteration", body)
		}

		valueName, ok := attrs.Get("value")
		if !ok {
			return Empty(), newRenderError(RenderFor,
				"missing value attribute for object iteration", body)
		}

		return iterateObject(iterable.Object, keyName, valueName, body, ev, data)

	default:
		return Empty(), newRenderError(RenderFor,
			"iterate attribute is not an array or object", body)
	}
}

// attributeIterable resolves the iterate attribute from its unevaluated
// value: a single variable is looked up, anything else is evaluated.
func attributeIterable(
	source Attr,
	ev *Evaluator,
	data *RenderContext,
	body []Node,
) (ContextValue, error) {
	if len(source.Raw) == 1 && source.Raw[0].Type == NodeIdentifier {
		v, ok := data.Lookup(source.Raw[0].Ident)
		if !ok {
			return ContextValue{}, newRenderError(RenderFor,
				"iterate attribute variable is not set", body)
		}

		return v, nil
	}

	if len(source.Raw) == 1 {
		v, err := ev.Evaluate(source.Raw[0], data)
		if err != nil {
			return ContextValue{}, err
		}

		return v.Context(), nil
	}

	return ContextValue{}, newRenderError(RenderFor,
		"iterate attribute must be a single expression", body)
}

// intAttribute parses the named attribute as a decimal integer.
func intAttribute(attrs Attributes, key string, body []Node) (int64, bool, error) {
	s, ok := attrs.Get(key)
	if !ok {
		return 0, false, nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false, newRenderError(RenderFor,
			key+" attribute is not an integer: "+strconv.Quote(s), body).
			wrap(err)
	}

	return n, true, nil
}
