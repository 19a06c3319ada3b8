package lang

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Handler renders a tag. It receives the tag's evaluated attributes, its
// unevaluated children, the evaluator of the current render call, and the
// current context. Handlers decide when and in which scope children are
// evaluated.
//
// A handler that fails should return a [*RenderError]; any other error is
// reported as a UserDefined error carrying the tag name and children.
type Handler interface {
	Handle(
		attrs Attributes,
		children []Node,
		ev *Evaluator,
		data *RenderContext,
	) (RenderValue, error)
}

// HandlerFunc adapts an ordinary function to the [Handler] interface.
type HandlerFunc func(
	attrs Attributes,
	children []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error)

// Handle calls f.
func (f HandlerFunc) Handle(
	attrs Attributes,
	children []Node,
	ev *Evaluator,
	data *RenderContext,
) (RenderValue, error) {
	return f(attrs, children, ev, data)
}

// Attr is an evaluated attribute. Raw holds the unevaluated value
// expressions.
type Attr struct {
	Key   string
	Value string
	Raw   []Node
}

// Attributes is the ordered list of a tag's evaluated attributes.
type Attributes []Attr

// Get returns the value of the first attribute named key.
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}

	return "", false
}

// Lookup returns the first attribute named key.
func (a Attributes) Lookup(key string) (Attr, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr, true
		}
	}

	return Attr{}, false
}

// String renders the attributes as markup: ` k="v"` for each, in order.
func (a Attributes) String() string {
	var b strings.Builder

	for _, attr := range a {
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteString(`="`)
		b.WriteString(attr.Value)
		b.WriteByte('"')
	}

	return b.String()
}

// Builder collects handlers for a [Renderer]. Each builder starts with its
// own copy of the builtin handler table.
type Builder struct {
	functions map[string]Handler
	opts      options
}

// NewBuilder returns a builder seeded with the builtin handlers.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{
		functions: builtins(),
		opts:      makeOptions(opts...),
	}
}

// Function registers h under name, replacing any builtin or previously
// registered handler of that name.
func (b *Builder) Function(name string, h Handler) *Builder {
	b.functions[name] = h

	return b
}

// FunctionFunc registers f under name.
func (b *Builder) FunctionFunc(name string, f HandlerFunc) *Builder {
	return b.Function(name, f)
}

// Build returns a renderer with the registered handlers. Later changes to
// the builder do not affect the returned renderer.
func (b *Builder) Build() *Renderer {
	return &Renderer{
		functions: maps.Clone(b.functions),
		opts:      b.opts,
	}
}

// Renderer evaluates templates. Its handler table is immutable, so a
// Renderer may be shared by concurrent render calls.
type Renderer struct {
	functions map[string]Handler
	opts      options
}

// Default returns a renderer with only the builtin handlers.
func Default() *Renderer {
	return NewBuilder().Build()
}

// Functions returns the names of all registered handlers in sorted order.
func (r *Renderer) Functions() []string {
	return slices.Sorted(maps.Keys(r.functions))
}

// Handler returns the handler registered under name.
func (r *Renderer) Handler(name string) (Handler, bool) {
	h, ok := r.functions[name]

	return h, ok
}

// Render evaluates tmpl against data and finalizes the result to text.
// A nil data is treated as an empty context.
func (r *Renderer) Render(
	ctx context.Context,
	tmpl *Template,
	data *RenderContext,
) (string, error) {
	ev := r.evaluator(ctx)

	r.opts.logger.TraceContext(ctx, "render start",
		slog.Int("bindings", data.Len()),
	)

	out, err := ev.Render(tmpl, data)
	if err != nil {
		r.opts.logger.TraceContext(ctx, "render failed", slog.Any("error", err))

		return "", err
	}

	r.opts.logger.TraceContext(ctx, "render complete",
		slog.Int("output_bytes", len(out)),
	)

	return out, nil
}

// Evaluate evaluates a single node against data without finalizing it.
func (r *Renderer) Evaluate(
	ctx context.Context,
	node Node,
	data *RenderContext,
) (RenderValue, error) {
	return r.evaluator(ctx).Evaluate(node, orEmpty(data))
}

func (r *Renderer) evaluator(ctx context.Context) *Evaluator {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Evaluator{renderer: r, ctx: ctx}
}

// Evaluator carries the state of one render call. Handlers use it to
// evaluate their children.
type Evaluator struct {
	renderer *Renderer
	ctx      context.Context
	depth    int
}

// Context returns the context.Context of the render call.
func (e *Evaluator) Context() context.Context { return e.ctx }

// Renderer returns the renderer that owns this evaluation.
func (e *Evaluator) Renderer() *Renderer { return e.renderer }

// Render evaluates a nested template against data within the current
// render call, so it shares the call's depth limit.
func (e *Evaluator) Render(tmpl *Template, data *RenderContext) (string, error) {
	if tmpl == nil {
		return "", nil
	}

	if err := e.enter(tmpl.Root); err != nil {
		return "", err
	}
	defer e.leave()

	v, err := e.Evaluate(tmpl.Root, orEmpty(data))
	if err != nil {
		return "", err
	}

	return Finalize(v), nil
}

// Evaluate evaluates one node against data.
func (e *Evaluator) Evaluate(node Node, data *RenderContext) (RenderValue, error) {
	switch node.Type {
	case NodeIdentifier:
		return e.Expand(node.Ident, data)

	case NodeInteger:
		return RenderInt(node.Int), nil

	case NodeTag:
		return e.evaluateTag(node, data)

	default:
		return Empty(), newRenderError(RenderExpectedVariable,
			node.Type.String(), []Node{node})
	}
}

// EvaluateMultiple evaluates nodes in order and returns their results as a
// List.
func (e *Evaluator) EvaluateMultiple(nodes []Node, data *RenderContext) (RenderValue, error) {
	list := make([]RenderValue, 0, len(nodes))

	for _, n := range nodes {
		v, err := e.Evaluate(n, data)
		if err != nil {
			return Empty(), err
		}

		list = append(list, v)
	}

	return RenderList(list...), nil
}

// EvaluateString evaluates nodes and finalizes the result.
func (e *Evaluator) EvaluateString(nodes []Node, data *RenderContext) (string, error) {
	v, err := e.EvaluateMultiple(nodes, data)
	if err != nil {
		return "", err
	}

	return Finalize(v), nil
}

// Attributes evaluates the attribute expressions of a tag.
func (e *Evaluator) Attributes(attrs []Attribute, data *RenderContext) (Attributes, error) {
	if len(attrs) == 0 {
		return nil, nil
	}

	out := make(Attributes, 0, len(attrs))

	for _, a := range attrs {
		key, err := e.EvaluateString(a.Key, data)
		if err != nil {
			return nil, err
		}

		value, err := e.EvaluateString(a.Value, data)
		if err != nil {
			return nil, err
		}

		out = append(out, Attr{Key: key, Value: value, Raw: a.Value})
	}

	return out, nil
}

// Element renders the default markup for a tag named name: an opening tag
// with attrs, the evaluated children, and a closing tag, or a single
// self-closing tag when there are no children.
func (e *Evaluator) Element(
	name string,
	attrs Attributes,
	children []Node,
	data *RenderContext,
) (RenderValue, error) {
	if len(children) == 0 {
		return RenderString("<" + name + attrs.String() + " />"), nil
	}

	body, err := e.EvaluateMultiple(children, data)
	if err != nil {
		return Empty(), err
	}

	return RenderList(
		RenderString("<"+name+attrs.String()+">"),
		body,
		RenderString("</"+name+">"),
	), nil
}

func (e *Evaluator) evaluateTag(node Node, data *RenderContext) (RenderValue, error) {
	if err := e.enter(node); err != nil {
		return Empty(), err
	}
	defer e.leave()

	tag := node.Tag

	attrs, err := e.Attributes(tag.Attrs, data)
	if err != nil {
		return Empty(), err
	}

	h, ok := e.renderer.functions[tag.Name]
	if !ok {
		return e.Element(tag.Name, attrs, tag.Children, data)
	}

	e.renderer.opts.logger.TraceContext(e.ctx, "dispatch",
		slog.String("tag", tag.Name),
		slog.Int("depth", e.depth),
	)

	v, err := h.Handle(attrs, tag.Children, e, data)
	if err != nil {
		return Empty(), handlerError(tag.Name, tag.Children, err)
	}

	return v, nil
}

// enter accounts for one level of nesting and checks for cancellation.
func (e *Evaluator) enter(node Node) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}

	e.depth++

	if limit := e.renderer.opts.maxDepth; limit > 0 && e.depth > limit {
		e.depth--

		return newRenderError(RenderRecursion,
			"depth exceeds "+strconv.Itoa(limit), []Node{node})
	}

	return nil
}

func (e *Evaluator) leave() { e.depth-- }

// Expand resolves an identifier. Names without the '$' sigil are literal
// text. A bare variable that is not bound renders as its own name; a
// dotted path whose segment is missing yields false. List elements that
// are variable references are expanded in turn, and Template values are
// rendered against data.
func (e *Evaluator) Expand(name string, data *RenderContext) (RenderValue, error) {
	if !isVariable(name) {
		return RenderString(name), nil
	}

	var (
		value ContextValue
		found bool
	)

	if strings.Contains(name, separator) {
		value, found = data.Lookup(name)
		if !found {
			return RenderBool(false), nil
		}
	} else {
		value, found = data.Get(name)
		if !found {
			return RenderString(name), nil
		}
	}

	return e.expandValue(name, value, data)
}

func (e *Evaluator) expandValue(
	name string,
	value ContextValue,
	data *RenderContext,
) (RenderValue, error) {
	switch value.Kind {
	case KindList:
		if err := e.enter(Ident(name)); err != nil {
			return Empty(), err
		}
		defer e.leave()

		list := make([]RenderValue, len(value.List))

		for i, elem := range value.List {
			if elem.Kind != KindString {
				list[i] = elem.Render()

				continue
			}

			v, err := e.Expand(elem.Str, data)
			if err != nil {
				return Empty(), expandError(name, err)
			}

			list[i] = v
		}

		return RenderList(list...), nil

	case KindTemplate:
		out, err := e.Render(value.Template, data)
		if err != nil {
			return Empty(), expandError(name, err)
		}

		return RenderString(out), nil

	default:
		return value.Render(), nil
	}
}

// expandError reports a failure while expanding name. Render errors and
// cancellation pass through unchanged.
func expandError(name string, err error) error {
	var re *RenderError
	if errors.As(err, &re) || isContextError(err) {
		return err
	}

	return newRenderError(RenderExpandVariable, name, nil).wrap(err)
}

// handlerError converts a handler failure into a render error.
func handlerError(name string, children []Node, err error) error {
	var re *RenderError
	if errors.As(err, &re) || isContextError(err) {
		return err
	}

	ue := UserError(name, err.Error(), children)
	ue.Err = err

	return ue
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func orEmpty(data *RenderContext) *RenderContext {
	if data == nil {
		return NewContext()
	}

	return data
}
