// Package cmd implements the sxt subcommands.
//
// Commands read their shared settings from the [context.Context] passed
// to Run: the parsed [kong.Context] ([WithContext]), the render [Env]
// ([WithEnv]) and the standard streams ([WithStreams]). A template
// argument of "-" reads standard input.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
