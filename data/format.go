package data

import (
	"iter"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
)

// Format identifies a document encoding.
type Format int

// Supported document formats.
const (
	FormatYAML Format = iota
	FormatJSON
	FormatTOML
)

var formatNames = [...]string{
	FormatYAML: "yaml",
	FormatJSON: "json",
	FormatTOML: "toml",
}

var formatExts = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
	".toml": FormatTOML,
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}

	return formatNames[f]
}

// Formats returns the names of all supported formats.
func Formats() iter.Seq[string] { return slices.Values(formatNames[:]) }

// ParseFormat returns the format named s, ignoring case.
func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if strings.EqualFold(s, name) {
			return Format(i), nil
		}
	}

	if strings.EqualFold(s, "yml") {
		return FormatYAML, nil
	}

	return 0, ErrFormat.With(slog.String("format", s))
}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if f, ok := formatExts[ext]; ok {
		return f, nil
	}

	return 0, ErrFormat.With(slog.String("path", path))
}
