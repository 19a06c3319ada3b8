//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/sxt/log"
	"github.com/ardnew/sxt/profile"
)

type pprofConfig struct {
	Mode  string `default:""            enum:",${pprofModeEnum}" help:"Enable profiling."                placeholder:"${enum}" short:"p"`
	Dir   string `default:"${pprofDir}"                          help:"Profile output directory."                               type:"path"`
	Quiet bool   `default:"true"                                 help:"Suppress profiler status output." negatable:""`
}

func (pprofConfig) vars(cache string) kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(profile.Modes(), ","),
		"pprofDir":      filepath.Join(cache, profile.Tag),
	}
}

func (pprofConfig) groups() []kong.Group {
	return []kong.Group{{Key: "pprof", Title: "Profiling (pprof)"}}
}

// start starts profiling if a mode is selected and returns the function
// that stops it.
func (f pprofConfig) start(ctx context.Context) (stop func()) {
	if f.Mode == "" {
		return func() {}
	}

	attrs := []slog.Attr{slog.String("mode", f.Mode), slog.String("dir", f.Dir)}

	log.DebugContext(ctx, "pprof start", attrs...)

	p := profile.Profiler{Mode: f.Mode, Dir: f.Dir, Quiet: f.Quiet}.Start()

	return func() {
		p.Stop()
		log.DebugContext(ctx, "pprof stop", attrs...)
	}
}
