package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/sxt/cli/cmd"
	"github.com/ardnew/sxt/data"
	"github.com/ardnew/sxt/lang"
	"github.com/ardnew/sxt/log"
	"github.com/ardnew/sxt/pkg"
)

// CLI is the top-level command-line interface for sxt.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Data     []string `help:"Context document(s) (.yaml .yml .json .toml), merged in order." placeholder:"FILE"       short:"d" type:"path"`
	Set      []string `help:"Context assignment(s); dotted keys nest, values are YAML scalars." placeholder:"KEY=VALUE"  short:"s"`
	Partial  []string `help:"Bind template file(s) as Template values."                        placeholder:"NAME=FILE"  short:"P"`
	Ext      bool     `default:"true"        help:"Register the ext handlers (expr, markdown)." negatable:""`
	MaxDepth int      `default:"${maxDepth}" help:"Evaluation depth limit."`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render a template."`
	Fmt    cmd.Fmt    `cmd:""                    help:"Reformat or export a template."`
	Init   cmd.Init   `cmd:""                    help:"Write the configuration file from the current flags."`
	Repl   cmd.Repl   `cmd:""                    help:"Evaluate expressions interactively over the loaded context."`
}

// env returns the render settings selected by the parsed flags.
func (c *CLI) env() cmd.Env {
	return cmd.Env{
		Sources: data.Sources{
			Files:    c.Data,
			Sets:     c.Set,
			Partials: c.Partial,
		},
		Ext:      c.Ext,
		MaxDepth: c.MaxDepth,
		Logger:   log.Default(),
	}
}

// Run executes the sxt CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	return run(ctx, exit, dirs{config: configDir(), cache: cacheDir()}, args)
}

func run(ctx context.Context, exit func(code int), d dirs, args []string) error {
	var cli CLI

	if err := d.mkdirAll(); err != nil {
		return err
	}

	configFilePath := d.configFile()

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  d.cache,
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
		"version":            strings.TrimSpace(pkg.Version),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars(d.cache))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Flags such as --log-pretty take effect before kong reports errors.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(append([]kong.Group{cli.Log.group()}, cli.Pprof.groups()...)),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithEnv(ctx, cli.env())

	return ktx.Run(ctx, &cli)
}
