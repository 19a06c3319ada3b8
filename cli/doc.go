// Package cli contains the command line interface for sxt.
//
// # Usage
//
//	sxt [flags] <command>
//
// The default command renders a template read from a file or, given "-"
// or nothing, from standard input:
//
//	sxt -d site.yaml -s page.title=Home page.sxt
//	echo '(p "hi " $who)' | sxt -s who=you
//
// The context flags apply to every command:
//
//   - --data (-d): YAML, JSON or TOML documents merged in order
//   - --set (-s): KEY=VALUE assignments; dotted keys nest
//   - --partial (-P): NAME=FILE templates bound as Template values
//   - --[no-]ext: the expr and markdown handlers (default on)
//   - --max-depth: evaluation depth limit
//
// # Commands
//
//   - render [-o FILE] [-w] [<template>]: render, optionally re-rendering
//     whenever an input file changes
//   - fmt sexp|json|yaml|ast [<template>]: reformat or export the syntax tree
//   - init [-f]: write the configuration file from the current flags
//   - repl: evaluate expressions interactively
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory (for example ~/.config/sxt/config.yaml). Keys are long flag
// names; see [resolve] for the accepted forms. Command-line flags win.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: json or text
//   - --log-time-layout: timestamp layout (RFC3339, Kitchen, or a Go layout)
//   - --[no-]log-caller: include the caller's source location
//   - --[no-]log-pretty: colorize output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode (-p): cpu, mem, allocs, heap, mutex, block, trace,
//     thread, goroutine or clock
//   - --pprof-dir: output directory (default ~/.cache/sxt/pprof)
//   - --[no-]pprof-quiet: suppress the profiler's status output
package cli
