package data

import (
	"context"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/sxt/lang"
	"github.com/ardnew/sxt/log"
)

// Sources lists the inputs of a render context in application order:
// documents first, then assignments, then partials. Later sources override
// earlier ones, with objects merged key by key.
type Sources struct {
	Files    []string // documents, see [Load]
	Sets     []string // key=value assignments, see [Set]
	Partials []string // name=path templates, see [Partial]
}

// Option configures [Sources.Context].
type Option func(*options)

type options struct {
	logger log.Logger
	parse  []lang.Option
}

// WithLogger sets the logger used to report each applied source.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithParseOptions sets the options used to parse partial templates.
func WithParseOptions(opts ...lang.Option) Option {
	return func(o *options) { o.parse = append(o.parse, opts...) }
}

// Context builds a new context from s.
func (s Sources) Context(ctx context.Context, opts ...Option) (*lang.RenderContext, error) {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	c := lang.NewContext()

	for _, path := range s.Files {
		doc, err := Load(ctx, path)
		if err != nil {
			return nil, err
		}

		c.Merge(doc)

		o.logger.DebugContext(ctx, "loaded document",
			slog.String("path", path),
			slog.Int("keys", doc.Len()),
		)
	}

	for _, assignment := range s.Sets {
		if err := Set(c, assignment); err != nil {
			return nil, err
		}

		o.logger.TraceContext(ctx, "applied assignment",
			slog.String("assignment", assignment))
	}

	for _, binding := range s.Partials {
		name, tmpl, err := Partial(ctx, binding, o.parse...)
		if err != nil {
			return nil, err
		}

		Assign(c, name, tmpl)

		o.logger.DebugContext(ctx, "loaded partial",
			slog.String("name", name),
			slog.String("partial", binding),
		)
	}

	return c, nil
}

// Set applies an assignment of the form key=value to c. The key may be a
// dotted path, optionally prefixed with '$'; intermediate objects are
// created or extended as needed. See [ParseValue] for the value syntax.
func Set(c *lang.RenderContext, assignment string) error {
	key, raw, ok := strings.Cut(assignment, "=")
	if !ok {
		return ErrAssignment.With(slog.String("assignment", assignment))
	}

	if err := checkKey(key); err != nil {
		return err
	}

	Assign(c, key, ParseValue(raw))

	return nil
}

// Assign binds value at the dotted path key in c, merging into any objects
// already bound along the path.
func Assign(c *lang.RenderContext, key string, value lang.ContextValue) {
	segs := strings.Split(strings.TrimPrefix(key, "$"), ".")

	for i := len(segs) - 1; i > 0; i-- {
		value = lang.Object(lang.NewContext().Insert(segs[i], value))
	}

	c.Merge(lang.NewContext().Insert(segs[0], value))
}

// ParseValue reads raw as a YAML scalar. Booleans, integers and null are
// converted; flow sequences and mappings ("[a, b]", "{k: v}") become lists
// and objects. Anything else, including text that merely looks like YAML
// structure, is kept as a String.
func ParseValue(raw string) lang.ContextValue {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return lang.String(raw)
	}

	var v any

	if err := yaml.UnmarshalWithOptions([]byte(trimmed), &v, yaml.UseOrderedMap()); err != nil {
		return lang.String(raw)
	}

	switch t := v.(type) {
	case nil:
		switch trimmed {
		case "null", "Null", "NULL", "~":
		default:
			return lang.String(raw)
		}

	case yaml.MapSlice, map[string]any:
		if !strings.HasPrefix(trimmed, "{") {
			return lang.String(raw)
		}

	case []any:
		if !strings.HasPrefix(trimmed, "[") {
			return lang.String(raw)
		}

	case string:
		// Quoted scalars lose their quotes.
		return lang.String(t)
	}

	cv, err := lang.FromNative(v)
	if err != nil {
		return lang.String(raw)
	}

	return cv
}

// Partial parses a partial of the form name=path. The name may be a dotted
// path; the value is the parsed template.
func Partial(ctx context.Context, binding string, opts ...lang.Option) (string, lang.ContextValue, error) {
	name, path, ok := strings.Cut(binding, "=")
	if !ok || path == "" {
		return "", lang.ContextValue{}, ErrPartial.With(slog.String("partial", binding))
	}

	if err := checkKey(name); err != nil {
		return "", lang.ContextValue{}, ErrPartial.Wrap(err)
	}

	tmpl, err := lang.ParseFile(ctx, path, opts...)
	if err != nil {
		return "", lang.ContextValue{}, err
	}

	return name, lang.TemplateValue(tmpl), nil
}

func checkKey(key string) error {
	for seg := range strings.SplitSeq(strings.TrimPrefix(key, "$"), ".") {
		if strings.TrimSpace(seg) == "" {
			return ErrAssignment.With(slog.String("key", key))
		}
	}

	return nil
}
