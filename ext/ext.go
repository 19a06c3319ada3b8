package ext

import (
	"github.com/ardnew/sxt/lang"
	"github.com/ardnew/sxt/log"
)

// Errors returned by the handlers of this package. The renderer reports
// them as user-defined errors naming the tag.
var (
	ErrExprEmpty   = lang.NewError("empty expression")
	ErrExprCompile = lang.NewError("failed to compile expression")
	ErrExprRun     = lang.NewError("failed to evaluate expression")
	ErrMarkdown    = lang.NewError("failed to convert markdown")
)

// Option configures the handlers created by this package.
type Option func(*options)

type options struct {
	logger log.Logger
}

// WithLogger sets the logger used for trace records.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func makeOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Handlers returns a new set of this package's handlers keyed by tag name.
func Handlers(opts ...Option) map[string]lang.Handler {
	return map[string]lang.Handler{
		"expr":     NewExpr(opts...),
		"markdown": lang.HandlerFunc(Markdown),
	}
}

// Install registers every handler of [Handlers] with b.
func Install(b *lang.Builder, opts ...Option) *lang.Builder {
	for name, h := range Handlers(opts...) {
		b.Function(name, h)
	}

	return b
}
