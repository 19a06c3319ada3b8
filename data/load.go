package data

import (
	"cmp"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/sxt/lang"
)

// Errors returned while loading context sources.
var (
	ErrFormat     = lang.NewError("unsupported document format")
	ErrNoFile     = lang.NewError("could not find document")
	ErrRead       = lang.NewError("failed to read document")
	ErrDecode     = lang.NewError("failed to decode document")
	ErrNotObject  = lang.NewError("document is not a mapping")
	ErrAssignment = lang.NewError("invalid assignment")
	ErrPartial    = lang.NewError("invalid partial")
)

// Load decodes the document at path into a new context. The format is
// chosen by the file extension.
func Load(ctx context.Context, path string) (*lang.RenderContext, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoFile.Wrap(err).With(slog.String("path", path))
		}

		return nil, ErrRead.Wrap(err).With(slog.String("path", path))
	}
	defer file.Close()

	c, err := LoadReader(ctx, file, format)
	if err != nil {
		var e *lang.Error
		if errors.As(err, &e) {
			return nil, e.With(slog.String("path", path))
		}

		return nil, err
	}

	return c, nil
}

// LoadReader decodes a document in the given format read from r.
func LoadReader(ctx context.Context, r io.Reader, format Format) (*lang.RenderContext, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	b, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrRead.Wrap(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Decode(b, format)
}

// Decode converts a document in the given format into a context.
// An empty document yields an empty context.
func Decode(b []byte, format Format) (*lang.RenderContext, error) {
	var (
		v   lang.ContextValue
		err error
	)

	switch format {
	case FormatYAML, FormatJSON:
		v, err = decodeYAML(b)
	case FormatTOML:
		v, err = decodeTOML(b)
	default:
		return nil, ErrFormat.With(slog.String("format", format.String()))
	}

	if err != nil {
		return nil, err
	}

	switch v.Kind {
	case lang.KindObject:
		return v.Object, nil
	case lang.KindEmpty:
		return lang.NewContext(), nil
	}

	return nil, ErrNotObject.With(
		slog.String("format", format.String()),
		slog.String("kind", v.Kind.String()),
	)
}

// decodeYAML also serves JSON, which YAML 1.2 subsumes.
func decodeYAML(b []byte) (lang.ContextValue, error) {
	var doc any

	if err := yaml.UnmarshalWithOptions(b, &doc, yaml.UseOrderedMap()); err != nil {
		return lang.ContextValue{}, ErrDecode.Wrap(err)
	}

	if doc == nil {
		return lang.ContextValue{}, nil
	}

	v, err := lang.FromNative(doc)
	if err != nil {
		return lang.ContextValue{}, ErrDecode.Wrap(err)
	}

	return v, nil
}

// decodeTOML decodes into plain maps and restores document order from the
// key list of the decoder's metadata.
func decodeTOML(b []byte) (lang.ContextValue, error) {
	var doc map[string]any

	md, err := toml.Decode(string(b), &doc)
	if err != nil {
		return lang.ContextValue{}, ErrDecode.Wrap(err)
	}

	order := make(map[string]int, len(md.Keys()))

	for i, k := range md.Keys() {
		path := strings.Join(k, "\x00")
		if _, ok := order[path]; !ok {
			order[path] = i
		}
	}

	return tomlValue(doc, nil, order)
}

func tomlValue(v any, path []string, order map[string]int) (lang.ContextValue, error) {
	switch t := v.(type) {
	case map[string]any:
		position := func(k string) int {
			if i, ok := order[strings.Join(append(slices.Clip(path), k), "\x00")]; ok {
				return i
			}

			return len(order)
		}

		keys := slices.SortedFunc(maps.Keys(t), func(a, b string) int {
			return cmp.Or(cmp.Compare(position(a), position(b)), strings.Compare(a, b))
		})

		obj := lang.NewContext()

		for _, k := range keys {
			elem, err := tomlValue(t[k], append(slices.Clip(path), k), order)
			if err != nil {
				return lang.ContextValue{}, err
			}

			obj.Insert(k, elem)
		}

		return lang.Object(obj), nil

	case []map[string]any:
		list := make([]lang.ContextValue, len(t))

		for i, m := range t {
			elem, err := tomlValue(m, path, order)
			if err != nil {
				return lang.ContextValue{}, err
			}

			list[i] = elem
		}

		return lang.List(list...), nil

	case []any:
		list := make([]lang.ContextValue, len(t))

		for i, e := range t {
			elem, err := tomlValue(e, path, order)
			if err != nil {
				return lang.ContextValue{}, err
			}

			list[i] = elem
		}

		return lang.List(list...), nil
	}

	cv, err := lang.FromNative(v)
	if err != nil {
		return lang.ContextValue{}, ErrDecode.Wrap(err).
			With(slog.String("key", strings.Join(path, ".")))
	}

	return cv, nil
}
