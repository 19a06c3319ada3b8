// Package log provides structured logging on top of [log/slog].
//
// A [Logger] is a small value configured once by functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("rendered", slog.String("template", path))
//
// The zero Logger discards all records, so libraries accept a Logger
// option and log unconditionally.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is reserved for per-node
// evaluation detail. Level names parse with [ParseLevel] and print in
// lowercase; record output shows them in uppercase.
//
// # Pretty Output
//
// With [WithPretty] (the default), text records are unquoted key=value
// pairs and JSON records are indented objects, both colored with lipgloss
// when the output is a terminal.
//
// # Package Functions
//
// The package-level functions write through a default logger that
// writes to standard error until reconfigured by [Config] or replaced by
// [SetDefault].
package log
