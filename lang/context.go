package lang

import (
	"iter"
	"strings"
)

// Variable sigil and dotted-path separator.
const (
	sigil     = "$"
	separator = "."
)

// isVariable reports whether name carries the variable sigil.
func isVariable(name string) bool {
	return strings.HasPrefix(name, sigil)
}

// RenderContext is an ordered mapping from variable name to [ContextValue].
//
// Keys are stored without the variable sigil; [RenderContext.Insert] and
// [RenderContext.Get] strip one leading '$', so callers may use either
// form. Builtins that introduce bindings operate on a [RenderContext.Clone]
// and never modify the context they were given.
type RenderContext struct {
	keys   []string
	values map[string]ContextValue
}

// NewContext returns an empty context.
func NewContext() *RenderContext {
	return &RenderContext{values: map[string]ContextValue{}}
}

// Insert binds key to value. Rebinding an existing key replaces its value
// and keeps its position.
func (c *RenderContext) Insert(key string, value ContextValue) *RenderContext {
	key = strings.TrimPrefix(key, sigil)

	if c.values == nil {
		c.values = map[string]ContextValue{}
	}

	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}

	c.values[key] = value

	return c
}

// Get returns the value bound to key.
func (c *RenderContext) Get(key string) (ContextValue, bool) {
	if c == nil {
		return ContextValue{}, false
	}

	v, ok := c.values[strings.TrimPrefix(key, sigil)]

	return v, ok
}

// Len returns the number of bindings.
func (c *RenderContext) Len() int {
	if c == nil {
		return 0
	}

	return len(c.keys)
}

// Keys returns the bound names in insertion order.
func (c *RenderContext) Keys() []string {
	if c == nil {
		return nil
	}

	keys := make([]string, len(c.keys))
	copy(keys, c.keys)

	return keys
}

// All iterates over the bindings in insertion order.
func (c *RenderContext) All() iter.Seq2[string, ContextValue] {
	return func(yield func(string, ContextValue) bool) {
		if c == nil {
			return
		}

		for _, k := range c.keys {
			if !yield(k, c.values[k]) {
				return
			}
		}
	}
}

// Clone returns a scope copy of c. Bindings added to the copy are not
// visible through c. Nested objects are shared.
func (c *RenderContext) Clone() *RenderContext {
	if c == nil {
		return NewContext()
	}

	d := &RenderContext{
		keys:   make([]string, len(c.keys), len(c.keys)+2),
		values: make(map[string]ContextValue, len(c.values)+2),
	}

	copy(d.keys, c.keys)

	for k, v := range c.values {
		d.values[k] = v
	}

	return d
}

// Merge inserts every binding of other into c, in other's order. Objects
// bound under the same key in both are merged recursively into a new
// object; any other value in other replaces the value in c.
func (c *RenderContext) Merge(other *RenderContext) *RenderContext {
	for k, v := range other.All() {
		if prev, ok := c.Get(k); ok &&
			prev.Kind == KindObject && v.Kind == KindObject {
			v = Object(prev.Object.Clone().Merge(v.Object))
		}

		c.Insert(k, v)
	}

	return c
}

// Lookup resolves a variable reference such as "$a" or "$a.b.c" to the
// bound value without rendering it. The walk descends through objects and
// stops at the first value that is not an object.
func (c *RenderContext) Lookup(path string) (ContextValue, bool) {
	path = strings.TrimPrefix(path, sigil)

	scope := c

	var (
		value ContextValue
		found bool
	)

	for seg := range strings.SplitSeq(path, separator) {
		if found && value.Kind != KindObject {
			break
		}

		if found {
			scope = value.Object
		}

		value, found = scope.Get(seg)
		if !found {
			return ContextValue{}, false
		}
	}

	return value, found
}

// ContextBuilder constructs a [RenderContext] fluently.
type ContextBuilder struct {
	ctx *RenderContext
}

// NewContextBuilder returns a builder for an empty context.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{ctx: NewContext()}
}

// Insert binds key to value.
func (b *ContextBuilder) Insert(key string, value ContextValue) *ContextBuilder {
	b.ctx.Insert(key, value)

	return b
}

// Build returns the constructed context. The builder must not be used
// afterward.
func (b *ContextBuilder) Build() *RenderContext {
	return b.ctx
}
