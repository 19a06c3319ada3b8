package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/sxt/log"
)

// watchDelay coalesces bursts of file events into one render.
var watchDelay = 50 * time.Millisecond

// Render renders a template against the loaded context.
type Render struct {
	Output string `help:"Write output to file instead of stdout." short:"o" type:"path"`
	Watch  bool   `help:"Render again whenever the template or a context file changes." short:"w"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) error {
	env := EnvFrom(ctx)

	if !r.Watch {
		return r.render(ctx, env)
	}

	if r.Template == stdinSource {
		return ErrWatchStdin
	}

	return r.watch(ctx, env)
}

func (r *Render) render(ctx context.Context, env Env) error {
	tmpl, err := env.Parse(ctx, r.Template)
	if err != nil {
		return err
	}

	data, err := env.Context(ctx)
	if err != nil {
		return err
	}

	out, err := env.Renderer().Render(ctx, tmpl, data)
	if err != nil {
		return err
	}

	return r.write(ctx, out+"\n")
}

func (r *Render) write(ctx context.Context, s string) error {
	if r.Output == "" {
		if _, err := io.WriteString(streamsFrom(ctx).Out, s); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	if err := os.WriteFile(r.Output, []byte(s), 0o644); err != nil {
		return ErrWriteOutput.
			With(slog.String("file", r.Output)).
			Wrap(err)
	}

	return nil
}

// watched returns the cleaned absolute paths that trigger a render.
func (r *Render) watched(env Env) map[string]struct{} {
	paths := make([]string, 0, 1+len(env.Sources.Files)+len(env.Sources.Partials))
	paths = append(paths, r.Template)
	paths = append(paths, env.Sources.Files...)

	for _, binding := range env.Sources.Partials {
		if _, path, ok := strings.Cut(binding, "="); ok {
			paths = append(paths, path)
		}
	}

	set := make(map[string]struct{}, len(paths))

	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			set[abs] = struct{}{}
		}
	}

	return set
}

// watch renders once and then again after each change to a watched file,
// until ctx is done. Render errors are logged rather than returned.
//
// Parent directories are watched instead of the files themselves so that
// editors replacing a file by rename keep triggering events.
func (r *Render) watch(ctx context.Context, env Env) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err)
	}
	defer w.Close()

	files := r.watched(env)
	dirs := make(map[string]struct{})

	for path := range files {
		dirs[filepath.Dir(path)] = struct{}{}
	}

	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return ErrWatch.With(slog.String("dir", dir)).Wrap(err)
		}
	}

	env.Logger.DebugContext(ctx, "watching",
		slog.Int("files", len(files)),
		slog.Int("dirs", len(dirs)),
	)

	r.renderLogged(ctx, env)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if _, ok := files[filepath.Clean(ev.Name)]; !ok {
				continue
			}

			env.Logger.TraceContext(ctx, "file changed",
				slog.String("file", ev.Name),
				slog.String("op", ev.Op.String()),
			)

			if timer == nil {
				timer = time.NewTimer(watchDelay)
			} else {
				timer.Reset(watchDelay)
			}

			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			log.WarnContext(ctx, "watch error", slog.Any("error", err))

		case <-fire:
			fire = nil

			r.renderLogged(ctx, env)
		}
	}
}

func (r *Render) renderLogged(ctx context.Context, env Env) {
	err := r.render(ctx, env)

	switch {
	case err == nil:
		env.Logger.InfoContext(ctx, "rendered", slog.String("template", r.Template))
	case errors.Is(err, context.Canceled):
	default:
		log.ErrorContext(ctx, "render failed",
			slog.String("template", r.Template),
			slog.Any("error", err),
		)
	}
}
