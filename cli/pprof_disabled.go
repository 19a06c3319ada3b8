//go:build !pprof

package cli

import (
	"context"

	"github.com/alecthomas/kong"
)

// pprofConfig has no flags when built without the pprof tag.
type pprofConfig struct{}

func (pprofConfig) vars(string) kong.Vars { return kong.Vars{} }

func (pprofConfig) groups() []kong.Group { return nil }

func (pprofConfig) start(context.Context) (stop func()) { return func() {} }
