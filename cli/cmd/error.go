package cmd

import "github.com/ardnew/sxt/lang"

// Errors returned by the commands of this package.
var (
	ErrYAMLMarshal = lang.NewError("marshal YAML")
	ErrWriteConfig = lang.NewError("write configuration file")
	ErrFileExists  = lang.NewError("file exists (use --force to overwrite)")
	ErrWriteOutput = lang.NewError("write output")
	ErrWatch       = lang.NewError("watch files")
	ErrWatchStdin  = lang.NewError("cannot watch standard input")
)
