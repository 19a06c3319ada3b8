package log_test

import (
	"errors"
	"log/slog"
	"os"

	"github.com/ardnew/sxt/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false))

	logger.Info("rendered", slog.String("template", "index.sxt"), slog.Int("bytes", 512))
	logger.Debug("not shown at the default level")

	// Output:
	// level=INFO msg=rendered template=index.sxt bytes=512
}

func ExampleLogger_With() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none")).
		With(slog.String("component", "data"))

	logger.Warn("key overridden", slog.String("key", "site.name"))

	// Output:
	// level=WARN msg=key overridden component=data key=site.name
}

func ExampleWithPretty_json() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none"), log.WithLevel(log.LevelTrace))

	logger.Trace("cache miss", slog.Bool("hit", false), slog.Any("error", errors.New("none")))

	// Output:
	// {
	//   "level": "TRACE",
	//   "msg": "cache miss",
	//   "hit": false,
	//   "error": "none"
	// }
}

func ExampleParseLevel() {
	for _, s := range []string{"TRACE", "debug+2", "bogus"} {
		os.Stdout.WriteString(log.ParseLevel(s).String() + "\n")
	}

	// Output:
	// trace
	// debug+2
	// info
}
