package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ardnew/sxt/data"
	"github.com/ardnew/sxt/lang"
)

func TestRender_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	site := writeFile(t, dir, "site.yaml", "title: Home\nprice: 4\n")
	tmpl := writeFile(t, dir, "page.sxt", "(h1 $title)")

	tests := []struct {
		name    string
		env     Env
		tmpl    string
		stdin   string
		want    string
		wantErr error
	}{
		{
			name: "file",
			env:  Env{Sources: data.Sources{Files: []string{site}}},
			tmpl: tmpl,
			want: "<h1>Home</h1>\n",
		},
		{
			name:  "stdin",
			env:   Env{Sources: data.Sources{Sets: []string{"who=you"}}},
			tmpl:  stdinSource,
			stdin: "(p hi $who)",
			want:  "<p>hiyou</p>\n",
		},
		{
			name:  "ext",
			env:   Env{Ext: true, Sources: data.Sources{Files: []string{site}}},
			tmpl:  stdinSource,
			stdin: "(p (expr price * 2))",
			want:  "<p>8</p>\n",
		},
		{
			name:    "missing template",
			tmpl:    filepath.Join(dir, "absent.sxt"),
			wantErr: lang.ErrNoFile,
		},
		{
			name:    "missing data",
			env:     Env{Sources: data.Sources{Files: []string{filepath.Join(dir, "absent.yaml")}}},
			tmpl:    tmpl,
			wantErr: data.ErrNoFile,
		},
		{
			name:    "render error",
			tmpl:    stdinSource,
			stdin:   "(p (/ 1 0))",
			wantErr: lang.ErrMath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, out := testContext(t, tt.env, tt.stdin)

			err := (&Render{Template: tt.tmpl}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_OutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dst := filepath.Join(dir, "out.html")

	ctx, stdout := testContext(t, Env{}, "(b x)")

	if err := (&Render{Template: stdinSource, Output: dst}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}

	if string(got) != "<b>x</b>\n" || stdout.Len() != 0 {
		t.Errorf("file = %q, stdout = %q", got, stdout.String())
	}

	r := &Render{Template: stdinSource, Output: filepath.Join(dir, "no", "such", "dir")}

	ctx, _ = testContext(t, Env{}, "(b x)")
	if err := r.Run(ctx); !errors.Is(err, ErrWriteOutput) {
		t.Errorf("unwritable output error = %v", err)
	}
}

func TestRender_WatchStdin(t *testing.T) {
	t.Parallel()

	ctx, _ := testContext(t, Env{}, "")

	if err := (&Render{Template: stdinSource, Watch: true}).Run(ctx); !errors.Is(err, ErrWatchStdin) {
		t.Errorf("Run() error = %v, want %v", err, ErrWatchStdin)
	}
}

func TestRender_Watched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	r := &Render{Template: filepath.Join(dir, "a.sxt")}
	env := Env{Sources: data.Sources{
		Files:    []string{filepath.Join(dir, "b.yaml")},
		Sets:     []string{"x=1"},
		Partials: []string{"p=" + filepath.Join(dir, "c.sxt"), "malformed"},
	}}

	got := r.watched(env)
	if len(got) != 3 {
		t.Fatalf("watched() = %v", got)
	}

	for _, name := range []string{"a.sxt", "b.yaml", "c.sxt"} {
		if _, ok := got[filepath.Join(dir, name)]; !ok {
			t.Errorf("watched() missing %s", name)
		}
	}
}

// waitFor polls path until its content equals want or the deadline passes.
func waitFor(t *testing.T, path, want string) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)

	var got []byte

	for time.Now().Before(deadline) {
		got, _ = os.ReadFile(path)
		if string(got) == want {
			return
		}

		time.Sleep(20 * time.Millisecond)
	}

	t.Fatalf("%s = %q, want %q", filepath.Base(path), got, want)
}

func TestRender_Watch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmpl := writeFile(t, dir, "page.sxt", "(p $who)")
	site := writeFile(t, dir, "site.yaml", "who: one\n")
	dst := filepath.Join(dir, "out.html")

	env := Env{Sources: data.Sources{Files: []string{site}}}

	ctx, cancel := context.WithCancel(WithEnv(t.Context(), env))
	done := make(chan error, 1)

	go func() {
		done <- (&Render{Template: tmpl, Output: dst, Watch: true}).Run(ctx)
	}()

	waitFor(t, dst, "<p>one</p>\n")

	writeFile(t, dir, "site.yaml", "who: two\n")
	waitFor(t, dst, "<p>two</p>\n")

	writeFile(t, dir, "page.sxt", "(b $who)")
	waitFor(t, dst, "<b>two</b>\n")

	// A broken template is logged and the last output is kept.
	writeFile(t, dir, "page.sxt", "(b $who")
	writeFile(t, dir, "unrelated.txt", "x")
	time.Sleep(4 * watchDelay)
	waitFor(t, dst, "<b>two</b>\n")

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
