package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/ardnew/sxt/data"
	"github.com/ardnew/sxt/lang"
)

// Session evaluates expressions against a context that persists between
// inputs.
type Session struct {
	renderer *lang.Renderer
	data     *lang.RenderContext
	opts     []lang.Option
}

// NewSession returns a Session rendering with r over data. The parse
// options opts apply to every evaluated expression. A nil data starts an
// empty context.
func NewSession(r *lang.Renderer, data *lang.RenderContext, opts ...lang.Option) *Session {
	if r == nil {
		r = lang.Default()
	}

	if data == nil {
		data = lang.NewContext()
	}

	return &Session{renderer: r, data: data, opts: opts}
}

// Eval parses input as a template and renders it.
func (s *Session) Eval(ctx context.Context, input string) (string, error) {
	tmpl, err := lang.Parse(ctx, input, s.opts...)
	if err != nil {
		return "", err
	}

	return s.renderer.Render(ctx, tmpl, s.data)
}

// Let binds name to value, read as in an assignment on the command line.
func (s *Session) Let(name, value string) error {
	return data.Set(s.data, name+"="+value)
}

// Funcs returns the registered handler names.
func (s *Session) Funcs() []string { return s.renderer.Functions() }

// Vars returns one line per top-level binding: the variable and a short
// preview of its value.
func (s *Session) Vars() []string {
	lines := make([]string, 0, s.data.Len())

	for k, v := range s.data.All() {
		lines = append(lines, fmt.Sprintf("$%s %s", k, preview(v)))
	}

	return lines
}

// Members returns the variables completing path: the top-level bindings
// for "$" and the members of the object at path otherwise, each as a full
// "$a.b" reference.
func (s *Session) Members(path string) []string {
	path = strings.TrimSuffix(path, ".")

	scope := s.data
	prefix := "$"

	if path != "" && path != "$" {
		v, ok := s.data.Lookup(path)
		if !ok || v.Kind != lang.KindObject {
			return nil
		}

		scope = v.Object
		prefix = "$" + strings.TrimPrefix(path, "$") + "."
	}

	names := make([]string, 0, scope.Len())

	for _, k := range scope.Keys() {
		names = append(names, prefix+k)
	}

	return names
}

const previewWidth = 40

func preview(v lang.ContextValue) string {
	var s string

	switch v.Kind {
	case lang.KindList:
		s = fmt.Sprintf("[%d items]", len(v.List))
	case lang.KindObject:
		s = fmt.Sprintf("{%d keys}", v.Object.Len())
	case lang.KindTemplate:
		s = v.Template.String()
	default:
		s = lang.Finalize(v.Render())
	}

	if len(s) > previewWidth {
		s = s[:previewWidth-3] + "..."
	}

	return v.Kind.String() + " " + s
}
