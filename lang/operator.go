package lang

import (
	"log/slog"
)

// compareOp returns a handler that orders its two operands and reports
// whether the order satisfies accept. Incomparable operands never satisfy
// an ordering; for ne they are simply unequal.
func compareOp(accept func(order int) bool) HandlerFunc {
	notEqual := !accept(0) && accept(1) && accept(-1)

	return func(
		_ Attributes,
		children []Node,
		ev *Evaluator,
		data *RenderContext,
	) (RenderValue, error) {
		if len(children) < 2 {
			return Empty(), newRenderError(RenderCmp,
				"expected two operands", children)
		}

		a, err := operand(children[0], ev, data)
		if err != nil {
			return Empty(), err
		}

		b, err := operand(children[1], ev, data)
		if err != nil {
			return Empty(), err
		}

		order, ok := Compare(a, b)
		if !ok {
			return RenderBool(notEqual), nil
		}

		return RenderBool(accept(order)), nil
	}
}

// operand evaluates one side of a comparison. Identifiers are looked up
// directly so bound values compare with their own kind.
func operand(n Node, ev *Evaluator, data *RenderContext) (RenderValue, error) {
	if n.Type != NodeIdentifier {
		return ev.Evaluate(n, data)
	}

	if v, ok := data.Get(n.Ident); ok && isVariable(n.Ident) {
		if v.Kind == KindTemplate {
			return ev.Expand(n.Ident, data)
		}

		return v.Render(), nil
	}

	return ev.Expand(n.Ident, data)
}

// mathOp returns a handler applying fn to two integer operands.
func mathOp(fn func(a, b int64) (int64, error)) HandlerFunc {
	return func(
		_ Attributes,
		children []Node,
		ev *Evaluator,
		data *RenderContext,
	) (RenderValue, error) {
		if len(children) < 2 {
			return Empty(), newRenderError(RenderMath,
				"expected two operands", children)
		}

		a, err := integerOperand(children[0], ev, data, children)
		if err != nil {
			return Empty(), err
		}

		b, err := integerOperand(children[1], ev, data, children)
		if err != nil {
			return Empty(), err
		}

		n, err := fn(a, b)
		if err != nil {
			return Empty(), newRenderError(RenderMath, err.Error(), children).
				wrap(err)
		}

		return RenderInt(n), nil
	}
}

func integerOperand(
	n Node,
	ev *Evaluator,
	data *RenderContext,
	children []Node,
) (int64, error) {
	v, err := ev.Evaluate(n, data)
	if err != nil {
		return 0, err
	}

	if v.Kind != KindInteger {
		return 0, newRenderError(RenderMath,
			"operand is not an integer: "+v.Kind.String(), children)
	}

	return v.Int, nil
}

func add(a, b int64) (int64, error) { return a + b, nil }
func sub(a, b int64) (int64, error) { return a - b, nil }
func mul(a, b int64) (int64, error) { return a * b, nil }

func div(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivideByZero.With(slog.Int64("dividend", a))
	}

	return a / b, nil
}

func rem(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivideByZero.With(slog.Int64("dividend", a))
	}

	return a % b, nil
}
