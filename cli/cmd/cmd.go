package cmd

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/sxt/data"
	"github.com/ardnew/sxt/ext"
	"github.com/ardnew/sxt/lang"
	"github.com/ardnew/sxt/log"
)

// stdinSource names standard input in place of a template path.
const stdinSource = "-"

type (
	kongKey    struct{}
	envKey     struct{}
	streamsKey struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, kongKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(kongKey{}).(*kong.Context)

	return ktx
}

// Env holds the settings shared by every command that parses or renders
// templates.
type Env struct {
	Sources  data.Sources
	Ext      bool // install the ext handler set
	MaxDepth int  // zero keeps [lang.DefaultMaxDepth]
	Logger   log.Logger
}

// WithEnv returns a new context.Context containing env.
func WithEnv(ctx context.Context, env Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFrom returns the [Env] stored by [WithEnv], or the zero Env.
func EnvFrom(ctx context.Context) Env {
	env, _ := ctx.Value(envKey{}).(Env)

	return env
}

// Options returns the parse and render options of e.
func (e Env) Options() []lang.Option {
	opts := []lang.Option{lang.WithLogger(e.Logger)}

	if e.MaxDepth > 0 {
		opts = append(opts, lang.WithMaxDepth(e.MaxDepth))
	}

	return opts
}

// Renderer builds a renderer with the builtins and, if enabled, the ext
// handlers.
func (e Env) Renderer() *lang.Renderer {
	b := lang.NewBuilder(e.Options()...)

	if e.Ext {
		ext.Install(b, ext.WithLogger(e.Logger))
	}

	return b.Build()
}

// Context loads the render context described by e.Sources.
func (e Env) Context(ctx context.Context) (*lang.RenderContext, error) {
	return e.Sources.Context(ctx,
		data.WithLogger(e.Logger),
		data.WithParseOptions(e.Options()...),
	)
}

// Parse reads the template at path, or standard input when path is "-".
func (e Env) Parse(ctx context.Context, path string) (*lang.Template, error) {
	if path == stdinSource {
		return lang.ParseReader(ctx, streamsFrom(ctx).In, e.Options()...)
	}

	return lang.ParseFile(ctx, path, e.Options()...)
}

// Streams are the standard input and output of a command.
type Streams struct {
	In  io.Reader
	Out io.Writer
}

// WithStreams returns a new context.Context whose commands read from in
// and write to out. Nil streams fall back to os.Stdin and os.Stdout.
func WithStreams(ctx context.Context, in io.Reader, out io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey{}, Streams{In: in, Out: out})
}

func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	return s
}
