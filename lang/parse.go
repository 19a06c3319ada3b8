package lang

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/klauspost/readahead"
)

// Parse parses template source text into a [Template].
//
// Parsed templates are cached by source and options; repeated calls with
// identical input return the same immutable *Template. See [WithCache].
func Parse(ctx context.Context, src string, opts ...Option) (*Template, error) {
	o := makeOptions(opts...)

	if o.noCache {
		return parse(ctx, src, o)
	}

	return parseCached(ctx, src, o)
}

// MustParse is like [Parse] but panics on error. It simplifies
// initialization of templates held in package variables and tests.
func MustParse(src string) *Template {
	t, err := Parse(context.Background(), src)
	if err != nil {
		panic(err)
	}

	return t
}

// ParseReader parses a template read from r.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Template, error) {
	// Wrap reader with async read-ahead so input is prefetched while the
	// previous chunk is copied.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return Parse(ctx, string(data), opts...)
}

// ParseFile parses the template stored at path.
func ParseFile(ctx context.Context, path string, opts ...Option) (*Template, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoFile.Wrap(err).With(slog.String("path", path))
		}

		return nil, ErrReadInput.Wrap(err).With(slog.String("path", path))
	}
	defer file.Close()

	return ParseReader(ctx, file, opts...)
}

// parse reads and builds a template without consulting the cache.
func parse(ctx context.Context, src string, o options) (*Template, error) {
	o.logger.TraceContext(ctx, "parse start",
		slog.Int("source_bytes", len(src)),
		slog.Int("max_depth", o.maxDepth),
	)

	expr, err := readSexp(src, o.maxDepth)
	if err != nil {
		return nil, withSource(err, src)
	}

	root, err := Build(expr)
	if err != nil {
		return nil, withSource(err, src)
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.String("root", rootName(root)),
	)

	return &Template{Root: root, Source: src}, nil
}

// withSource attaches template text to parse errors for snippet display.
func withSource(err error, src string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		c := *pe
		c.Source = src

		return &c
	}

	return err
}

func rootName(n Node) string {
	switch n.Type {
	case NodeTag:
		return n.Tag.Name
	case NodeIdentifier:
		return n.Ident
	default:
		return n.Type.String()
	}
}
