package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/sxt/lang"
)

// ErrConfigSyntax reports a configuration file that is not a YAML mapping.
var ErrConfigSyntax = lang.NewError("invalid configuration file")

// resolve is a [kong.ConfigurationLoader] reading YAML configuration files.
//
// Keys name long flags without the leading dashes. Underscores may stand in
// for hyphens, and nested mappings join their keys with a hyphen, so the
// following are equivalent:
//
//	log-level: debug
//	log_level: debug
//	log:
//	  level: debug
//
// An empty file configures nothing. Command-line flags override the file.
func resolve(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return config{}, nil
		}

		return nil, ErrConfigSyntax.Wrap(err)
	}

	cfg := make(config, len(doc))
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] over flattened flag names.
type config map[string]any

func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		name := prefix + strings.ReplaceAll(k, "_", "-")

		if sub, ok := v.(map[string]any); ok {
			c.flatten(name+"-", sub)

			continue
		}

		c[name] = scalar(v)
	}
}

// scalar reduces v to a value kong's mappers accept.
func scalar(v any) any {
	switch v := v.(type) {
	case nil, bool, string, int64, uint64, float64:
		return v
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = scalar(e)
		}

		return out
	}

	return fmt.Sprint(v)
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	return nil, nil
}
