package ext

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/sxt/lang"
	"github.com/ardnew/sxt/log"
)

// Expr is the handler behind the expr tag. Its children are finalized,
// joined with single spaces, and evaluated as an expr-lang expression.
//
//	(expr "len(items) > 2 ? 'many' : 'few'")
//	(expr price * qty)
//
// Bindings of the render context are visible by name without the '$'
// sigil, alongside the builtins of [Env]. The result is converted with
// [lang.FromNative], so maps, slices and numbers render like context data.
//
// Compiled programs are cached by source text and the shape of the
// environment, so an Expr may be shared by concurrent render calls.
type Expr struct {
	logger   log.Logger
	programs sync.Map
}

// NewExpr returns an expr handler.
func NewExpr(opts ...Option) *Expr {
	o := makeOptions(opts...)

	return &Expr{logger: o.logger}
}

// Handle implements [lang.Handler].
func (x *Expr) Handle(
	_ lang.Attributes,
	children []lang.Node,
	ev *lang.Evaluator,
	data *lang.RenderContext,
) (lang.RenderValue, error) {
	src, err := exprSource(children, ev, data)
	if err != nil {
		return lang.Empty(), err
	}

	if strings.TrimSpace(src) == "" {
		return lang.Empty(), ErrExprEmpty
	}

	env := environment(data)

	program, err := x.compile(src, env)
	if err != nil {
		return lang.Empty(), err
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return lang.Empty(), ErrExprRun.Wrap(err).
			With(slog.String("source", src))
	}

	x.logger.TraceContext(ev.Context(), "expr evaluated",
		slog.String("source", src),
		slog.String("result_type", fmt.Sprintf("%T", out)),
	)

	v, err := lang.FromNative(out)
	if err != nil {
		return lang.Empty(), err
	}

	return v.Render(), nil
}

// exprSource evaluates each child separately so that literal words keep
// their spacing in the expression text.
func exprSource(
	children []lang.Node,
	ev *lang.Evaluator,
	data *lang.RenderContext,
) (string, error) {
	parts := make([]string, 0, len(children))

	for _, c := range children {
		s, err := ev.EvaluateString([]lang.Node{c}, data)
		if err != nil {
			return "", err
		}

		parts = append(parts, s)
	}

	return strings.Join(parts, " "), nil
}

// environment layers the render context over the builtin environment.
func environment(data *lang.RenderContext) map[string]any {
	env := Env()
	maps.Copy(env, data.Native())

	return env
}

func (x *Expr) compile(src string, env map[string]any) (*vm.Program, error) {
	key := programKey(src, env)

	if p, ok := x.programs.Load(key); ok {
		x.logger.Trace("expr cache hit", slog.String("key", key))

		return p.(*vm.Program), nil
	}

	program, err := expr.Compile(src,
		expr.Env(env),
		expr.Patch(&hyphenPatcher{env: env, logger: x.logger}),
	)
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).
			With(slog.String("source", src))
	}

	x.programs.Store(key, program)

	return program, nil
}

// programKey hashes the source with the name and dynamic type of every
// environment entry, since both affect type checking and patching.
func programKey(src string, env map[string]any) string {
	h := xxh3.New()

	_, _ = h.WriteString(src)

	for _, k := range slices.Sorted(maps.Keys(env)) {
		_, _ = h.WriteString("\x00" + k + "\x00" + fmt.Sprintf("%T", env[k]))
	}

	return strconv.FormatUint(h.Sum64(), 36)
}
