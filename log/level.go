package log

import (
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Level represents the severity of a log message.
type Level slog.Level

const (
	LevelTrace = Level(slog.LevelDebug - 4)
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// DefaultLevel is the default log level.
const DefaultLevel = LevelInfo

var levelNames = map[Level]string{
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// String returns the lowercase name of l. Levels between the named ones
// are written relative to the nearest lower level, as slog does.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	if l < LevelDebug {
		return "trace" + offset(int(l-LevelTrace))
	}

	return strings.ToLower(slog.Level(l).String())
}

func offset(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}

	if n < 0 {
		return strconv.Itoa(n)
	}

	return ""
}

// Levels returns the names of the named levels, most verbose first.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, l := range []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError} {
			if !yield(l.String()) {
				return
			}
		}
	}
}

// ParseLevel parses a level name, ignoring case, with an optional signed
// offset such as "debug+2" or "trace-1". Unknown names yield
// [DefaultLevel].
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)

	if len(s) >= 5 && strings.EqualFold(s[:5], "trace") {
		if s = s[5:]; s == "" {
			return LevelTrace
		}

		if n, err := strconv.Atoi(s); err == nil {
			return LevelTrace + Level(n)
		}

		return DefaultLevel
	}

	var l slog.Level

	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format represents the output format for log messages.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// DefaultFormat is the default log message format.
const DefaultFormat = FormatJSON

var formatNames = []string{
	FormatText: "text",
	FormatJSON: "json",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}

	return formatNames[f]
}

// Formats returns the names of all formats.
func Formats() iter.Seq[string] { return slices.Values(formatNames) }

// ParseFormat parses a format name, ignoring case. Unknown names yield
// [DefaultFormat].
func ParseFormat(s string) Format {
	s = strings.ToLower(strings.TrimSpace(s))

	if i := slices.Index(formatNames, s); i >= 0 {
		return Format(i)
	}

	return DefaultFormat
}
