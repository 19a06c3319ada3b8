package ext

// The builtin environment visible to every expr handler. It is built once
// per process and cloned on each access; render context bindings shadow
// builtin names of the same spelling.

import (
	"bufio"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

var builtinEnv = sync.OnceValue(func() map[string]any {
	return map[string]any{
		"target":   hostTarget(),
		"platform": hostPlatform(),
		"hostname": hostname(),
		"user":     currentUser(),
		"shell":    loginShell(),

		"cwd": workingDir,
		"env": os.Getenv,

		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": fileIsRegular,
			"isSymlink": fileIsSymlink,
		},

		"path": map[string]any{
			"abs":  pathAbs,
			"cat":  filepath.Join,
			"rel":  pathRel,
			"base": filepath.Base,
			"dir":  filepath.Dir,
			"ext":  filepath.Ext,
		},

		"mung": map[string]any{
			"prefix":   mungPrefix,
			"prefixif": mungPrefixIf,
		},
	}
})

// Env returns a copy of the builtin expression environment.
func Env() map[string]any {
	return maps.Clone(builtinEnv())
}

// EnvKeys returns the top-level names of the builtin environment in sorted
// order.
func EnvKeys() []string {
	return slices.Sorted(maps.Keys(builtinEnv()))
}

// EnvLookup returns the sorted member names of the namespace at the dotted
// path, such as "file" or "path". It returns nil for anything that is not
// a namespace.
func EnvLookup(path string) []string {
	if path == "" {
		return EnvKeys()
	}

	var current any = builtinEnv()

	for seg := range strings.SplitSeq(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		if current, ok = m[seg]; !ok {
			return nil
		}
	}

	if m, ok := current.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// Target identifies an operating system and instruction set architecture.
type Target struct {
	OS   string
	Arch string
}

// hostTarget reports the host using GNU toolchain naming.
func hostTarget() Target {
	t := hostPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		if arm, ok := os.LookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")

			switch arm = strings.TrimSpace(arm); arm {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// hostPlatform reports the host using Go naming, honoring the toolchain
// environment overrides.
func hostPlatform() Target {
	return Target{
		OS:   firstEnv(runtime.GOOS, "GOHOSTOS", "GOOS"),
		Arch: firstEnv(runtime.GOARCH, "GOHOSTARCH", "GOARCH"),
	}
}

func firstEnv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
	}

	return fallback
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}

	return name
}

func currentUser() *user.User {
	u, err := user.Current()
	if err != nil {
		return nil
	}

	return u
}

func loginShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	u := currentUser()
	if u == nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Split(s.Text(), ":")
		if len(fields) > 6 && fields[0] == u.Username {
			return fields[6]
		}
	}

	return ""
}

func workingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return filepath.Join(from, to)
	}

	return p
}

// mungPrefix prepends items to the PATH-like list named key.
func mungPrefix(key string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// mungPrefixIf is mungPrefix keeping only the items accepted by predicate.
func mungPrefixIf(key string, predicate func(string) bool, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}
