package cmd

import (
	"context"

	"github.com/ardnew/sxt/cli/cmd/repl"
)

// Repl starts the interactive evaluator over the loaded context.
type Repl struct {
	NoHistory bool `help:"Do not read or write the history file." name:"no-history"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	env := EnvFrom(ctx)

	data, err := env.Context(ctx)
	if err != nil {
		return err
	}

	var cache string

	if ktx := kongContextFrom(ctx); ktx != nil && !r.NoHistory {
		cache = ktx.Model.Vars()[CacheIdentifier]
	}

	session := repl.NewSession(env.Renderer(), data, env.Options()...)

	return repl.Run(ctx, session, cache, env.Logger)
}
