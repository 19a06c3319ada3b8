package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/sxt/pkg"
)

// baseConfig is the file name of the configuration file.
const baseConfig = "config.yaml"

var defaultDirMode os.FileMode = 0o700

// basePrefix returns the name of the per-user configuration and cache
// directories: the executable's base name without extension or leading
// dots. Debugger builds (dlv's __debug_bin) use [pkg.Name].
var basePrefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = filepath.Base(id)
		id = strings.TrimSuffix(id, filepath.Ext(id))

		if regexp.MustCompile(`^__debug_bin\d*$`).MatchString(id) {
			return pkg.Name
		}

		if id = strings.TrimLeft(id, "."); id == "" {
			return pkg.Name
		}

		return id
	},
)

// userDir joins basePrefix to the directory returned by user, falling back
// to hidden under the home directory and then the working directory.
func userDir(user func() (string, error), hidden string) string {
	dir, err := user()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, basePrefix())
}

var (
	configDir = sync.OnceValue(func() string { return userDir(os.UserConfigDir, ".config") })
	cacheDir  = sync.OnceValue(func() string { return userDir(os.UserCacheDir, ".cache") })
)

// dirs are the runtime directories of one invocation.
type dirs struct {
	config string
	cache  string
}

func (d dirs) configFile() string { return filepath.Join(d.config, baseConfig) }

// mkdirAll creates the configuration and cache directories.
func (d dirs) mkdirAll() error {
	for _, dir := range []string{d.config, d.cache} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
