package ext

import (
	"bytes"
	"log/slog"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ardnew/sxt/lang"
)

var (
	markdownSafe   = goldmark.New(goldmark.WithExtensions(extension.GFM))
	markdownUnsafe = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
)

// Markdown is the handler behind the markdown tag. It converts its
// finalized children from GitHub-flavored Markdown to HTML.
//
//	(markdown "# Title\n\nSome *emphasis*.")
//	(markdown (@ (unsafe true)) $body)
//
// Raw HTML in the source is omitted unless the unsafe attribute is true.
func Markdown(
	attrs lang.Attributes,
	children []lang.Node,
	ev *lang.Evaluator,
	data *lang.RenderContext,
) (lang.RenderValue, error) {
	src, err := ev.EvaluateString(children, data)
	if err != nil {
		return lang.Empty(), err
	}

	md := markdownSafe

	if s, ok := attrs.Get("unsafe"); ok {
		unsafe, err := strconv.ParseBool(s)
		if err != nil {
			return lang.Empty(), ErrMarkdown.Wrap(err).
				With(slog.String("attribute", "unsafe"))
		}

		if unsafe {
			md = markdownUnsafe
		}
	}

	var buf bytes.Buffer

	if err := md.Convert([]byte(src), &buf); err != nil {
		return lang.Empty(), ErrMarkdown.Wrap(err)
	}

	return lang.RenderString(buf.String()), nil
}
