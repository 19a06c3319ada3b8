package ext

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/sxt/lang"
)

func render(t *testing.T, r *lang.Renderer, src string, data *lang.RenderContext) (string, error) {
	t.Helper()

	tmpl, err := lang.Parse(t.Context(), src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}

	return r.Render(t.Context(), tmpl, data)
}

func TestExpr_Handle(t *testing.T) {
	t.Parallel()

	data := lang.NewContextBuilder().
		Insert("price", lang.Int(4)).
		Insert("qty", lang.Int(3)).
		Insert("name", lang.String("ada")).
		Insert("items", lang.Strings("a", "b", "c")).
		Insert("page-title", lang.String("Home")).
		Insert("site", lang.Object(lang.NewContextBuilder().
			Insert("base-url", lang.String("https://example.com")).
			Build())).
		Build()

	r := Install(lang.NewBuilder()).Build()

	tests := []struct {
		src      string
		expected string
	}{
		{`(p (expr price * qty))`, `<p>12</p>`},
		{`(p (expr "price + 1"))`, `<p>5</p>`},
		{`(p (expr "upper(name)"))`, `<p>ADA</p>`},
		{`(p (expr "len(items) > 2 ? 'many' : 'few'"))`, `<p>many</p>`},
		{`(p (expr "price > qty"))`, `<p>true</p>`},
		{`(p (expr "7 / 2"))`, `<p>3.5</p>`},
		{`(p (expr "8 / 2"))`, `<p>4</p>`},
		{`(p (expr "filter(items, # != 'b')"))`, `<p>ac</p>`},
		{`(p (expr page-title))`, `<p>Home</p>`},
		{`(p (expr site.base-url))`, `<p>https://example.com</p>`},
		{`(p (expr "path.cat('a', 'b')"))`, `<p>` + filepath.Join("a", "b") + `</p>`},
		{`(p (expr "platform.OS"))`, `<p>` + hostPlatform().OS + `</p>`},
		{`(ul (for x in (expr "map(items, upper(#))") (li $x)))`, `<ul><li>A</li><li>B</li><li>C</li></ul>`},
		{`(p (if (expr "qty == 3") yes no))`, `<p>yes</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			got, err := render(t, r, tt.src, data)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}

			if got != tt.expected {
				t.Errorf("Render(%s) = %s, want %s", tt.src, got, tt.expected)
			}
		})
	}
}

func TestExpr_Errors(t *testing.T) {
	t.Parallel()

	r := Install(lang.NewBuilder()).Build()
	data := lang.NewContextBuilder().Insert("n", lang.Int(1)).Build()

	tests := []struct {
		src  string
		want error
	}{
		{`(p (expr))`, ErrExprEmpty},
		{`(p (expr "n +"))`, ErrExprCompile},
		{`(p (expr "unknown_name + 1"))`, ErrExprCompile},
		{`(p (expr "[1][n]"))`, ErrExprRun},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			_, err := render(t, r, tt.src, data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Render(%s) error = %v, want %v", tt.src, err, tt.want)
			}

			var re *lang.RenderError
			if !errors.As(err, &re) || re.Name != "expr" || !errors.Is(err, lang.ErrUserDefined) {
				t.Errorf("expected a user-defined error for expr, got %#v", err)
			}
		})
	}
}

func TestExpr_ProgramCache(t *testing.T) {
	t.Parallel()

	x := NewExpr()
	r := lang.NewBuilder().Function("expr", x).Build()

	for _, n := range []int64{1, 2, 3} {
		data := lang.NewContextBuilder().Insert("n", lang.Int(n)).Build()

		got, err := render(t, r, `(expr "n * 10")`, data)
		if err != nil {
			t.Fatal(err)
		}

		if want := []string{"10", "20", "30"}[n-1]; got != want {
			t.Errorf("n=%d: got %s, want %s", n, got, want)
		}
	}

	entries := 0

	x.programs.Range(func(any, any) bool {
		entries++

		return true
	})

	if entries != 1 {
		t.Errorf("expected one cached program, got %d", entries)
	}

	// A different binding type needs a separate program.
	data := lang.NewContextBuilder().Insert("n", lang.String("x")).Build()
	if got, err := render(t, r, `(expr "n + 'y'")`, data); err != nil || got != "xy" {
		t.Errorf("string binding: %q, %v", got, err)
	}
}

func TestProgramKey(t *testing.T) {
	t.Parallel()

	a := programKey("n + 1", map[string]any{"n": int64(1)})
	b := programKey("n + 1", map[string]any{"n": int64(99)})
	c := programKey("n + 1", map[string]any{"n": "1"})
	d := programKey("n + 2", map[string]any{"n": int64(1)})
	e := programKey("n + 1", map[string]any{"n": int64(1), "m": int64(1)})

	if a != b {
		t.Error("values of the same type should share a program")
	}

	if a == c || a == d || a == e {
		t.Error("type, source and key changes should produce distinct keys")
	}
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	r := Install(lang.NewBuilder()).Build()
	data := lang.NewContextBuilder().
		Insert("body", lang.String("Some *emphasis* and <b>raw</b>.")).
		Build()

	tests := []struct {
		src      string
		contains []string
		excludes []string
	}{
		{
			src:      `(div (markdown "# Title\n\nSome *emphasis*."))`,
			contains: []string{"<div><h1>Title</h1>", "<p>Some <em>emphasis</em>.</p>"},
		},
		{
			src:      `(markdown $body)`,
			contains: []string{"<em>emphasis</em>", "raw HTML omitted"},
			excludes: []string{"<b>raw</b>"},
		},
		{
			src:      `(markdown (@ (unsafe true)) $body)`,
			contains: []string{"<b>raw</b>"},
		},
		{
			src:      `(markdown "~~gone~~")`,
			contains: []string{"<del>gone</del>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			got, err := render(t, r, tt.src, data)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}

			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("output %q does not contain %q", got, s)
				}
			}

			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("output %q contains %q", got, s)
				}
			}
		})
	}

	_, err := render(t, r, `(markdown (@ (unsafe maybe)) x)`, nil)
	if !errors.Is(err, ErrMarkdown) {
		t.Errorf("expected ErrMarkdown for invalid unsafe attribute, got %v", err)
	}
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	r := Install(lang.NewBuilder()).Build()

	for name := range Handlers() {
		if _, ok := r.Handler(name); !ok {
			t.Errorf("handler %q not installed", name)
		}
	}

	// Builtins remain available.
	if !slices.Contains(r.Functions(), "for") {
		t.Error("Install removed builtin handlers")
	}
}

func TestEnv(t *testing.T) {
	t.Parallel()

	env := Env()
	env["target"] = "changed"

	if Env()["target"] == "changed" {
		t.Error("Env() returned the shared map")
	}

	keys := EnvKeys()
	for _, want := range []string{"cwd", "env", "file", "hostname", "mung", "path", "platform", "shell", "target", "user"} {
		if !slices.Contains(keys, want) {
			t.Errorf("EnvKeys() missing %q: %v", want, keys)
		}
	}

	if got := EnvLookup("file"); !slices.Equal(got, []string{"exists", "isDir", "isRegular", "isSymlink"}) {
		t.Errorf("EnvLookup(file) = %v", got)
	}

	if got := EnvLookup("target"); got != nil {
		t.Errorf("EnvLookup(target) = %v, want nil", got)
	}

	if got := EnvLookup("file.exists.more"); got != nil {
		t.Errorf("EnvLookup of a function path = %v, want nil", got)
	}
}

func TestEnv_Functions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")

	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if !fileExists(file) || !fileIsRegular(file) || fileIsDir(file) {
		t.Error("file predicates disagree for a regular file")
	}

	if !fileIsDir(dir) || fileIsRegular(dir) {
		t.Error("file predicates disagree for a directory")
	}

	if fileExists(filepath.Join(dir, "missing")) {
		t.Error("missing file reported as existing")
	}

	link := filepath.Join(dir, "link")
	if err := os.Symlink(file, link); err == nil && !fileIsSymlink(link) {
		t.Error("symlink not detected")
	}

	if got := pathRel(dir, file); got != "f.txt" {
		t.Errorf("pathRel = %q", got)
	}

	if !filepath.IsAbs(pathAbs("x")) {
		t.Error("pathAbs did not return an absolute path")
	}

	if hostPlatform().OS == "" || hostTarget().Arch == "" {
		t.Error("empty host platform")
	}
}

func TestEnv_Target(t *testing.T) {
	tests := []struct {
		goos, goarch string
		expected     string
	}{
		{"linux", "amd64", "x86_64"},
		{"linux", "386", "i386"},
		{"linux", "arm64", "aarch64"},
		{"darwin", "arm64", "arm64"},
		{"linux", "mipsle", "mipsel"},
		{"linux", "riscv64", "riscv64"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			t.Setenv("GOHOSTOS", tt.goos)
			t.Setenv("GOHOSTARCH", tt.goarch)

			if got := hostTarget().Arch; got != tt.expected {
				t.Errorf("hostTarget().Arch = %q, want %q", got, tt.expected)
			}
		})
	}

	t.Run("armv7", func(t *testing.T) {
		t.Setenv("GOHOSTOS", "linux")
		t.Setenv("GOHOSTARCH", "arm")
		t.Setenv("GOARM", "7,softfloat")

		if got := hostTarget().Arch; got != "armv7" {
			t.Errorf("hostTarget().Arch = %q, want armv7", got)
		}
	})
}

func TestEnv_Mung(t *testing.T) {
	got := mungPrefix("PATH", "/opt/sxt/bin")
	if !strings.Contains(got, "/opt/sxt/bin") {
		t.Errorf("mungPrefix result %q does not contain the prefix", got)
	}
}
