package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/sxt/lang"
)

// Fmt parses a template and writes it in the chosen format.
type Fmt struct {
	Sexp Sexp `cmd:"" default:"withargs" help:"Format as canonical S-expression source (default)."`
	JSON JSON `cmd:""                    help:"Export the syntax tree as JSON."`
	YAML YAML `cmd:""                    help:"Export the syntax tree as YAML."`
	AST  AST  `cmd:""                    help:"Print an indented syntax tree dump."`
}

func parseAs(ctx context.Context, path, format string) (*lang.Template, error) {
	tmpl, err := EnvFrom(ctx).Parse(ctx, path)
	if err != nil {
		return nil, lang.WrapError(err).With(slog.String("format", format))
	}

	return tmpl, nil
}

// Sexp formats input as canonical S-expression source.
type Sexp struct {
	Indent int `default:"2" help:"Indent width; 0 writes a single line." short:"i"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the sexp command.
func (f *Sexp) Run(ctx context.Context) error {
	tmpl, err := parseAs(ctx, f.Template, "sexp")
	if err != nil {
		return err
	}

	return tmpl.Format(ctx, streamsFrom(ctx).Out, f.Indent)
}

// JSON exports the syntax tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	tmpl, err := parseAs(ctx, j.Template, "json")
	if err != nil {
		return err
	}

	return tmpl.FormatJSON(ctx, streamsFrom(ctx).Out, j.Indent)
}

// YAML exports the syntax tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	tmpl, err := parseAs(ctx, y.Template, "yaml")
	if err != nil {
		return err
	}

	return tmpl.FormatYAML(ctx, streamsFrom(ctx).Out, y.Indent)
}

// AST prints an indented dump of the syntax tree.
type AST struct {
	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) error {
	tmpl, err := parseAs(ctx, a.Template, "ast")
	if err != nil {
		return err
	}

	tmpl.Print(ctx, streamsFrom(ctx).Out)

	return nil
}
