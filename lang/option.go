package lang

import (
	"github.com/ardnew/sxt/log"
)

// DefaultMaxDepth is the default limit on template nesting at parse time
// and on evaluation depth at render time.
// Users may modify this before parsing or building a renderer.
var DefaultMaxDepth = 1000

// options holds the configuration shared by parsing and rendering.
type options struct {
	logger   log.Logger // outside the cache key; does not affect parsing
	maxDepth int
	noCache  bool
}

// Option configures parsing ([Parse]) or rendering ([NewBuilder]).
type Option func(*options)

// WithMaxDepth sets the maximum nesting depth accepted by the parser and
// the maximum evaluation depth of a render call. Zero or negative values
// disable the limit.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCache controls whether [Parse] consults and fills the parse cache.
// Caching is enabled by default.
func WithCache(enable bool) Option {
	return func(o *options) {
		o.noCache = !enable
	}
}

func makeOptions(opts ...Option) options {
	o := options{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
