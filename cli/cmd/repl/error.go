package repl

import "github.com/ardnew/sxt/lang"

// Errors returned by the REPL.
var (
	ErrUnknownCommand = lang.NewError("unknown command (try 'help')")
	ErrUsage          = lang.NewError("usage")
)
