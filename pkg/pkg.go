// Package pkg holds the identity of the sxt module: its name, version and
// authors, as shown in help output and used for default paths.
package pkg

import (
	_ "embed"
)

// Version is the semantic version of the sxt module embedded at build time.
// It is printed by the CLI's --version flag.
//
//go:embed VERSION
var Version string

const (
	// Name is the canonical command and module identifier. It appears in
	// help text and names the configuration and cache directories.
	Name = "sxt"
	// Description is a short, human-readable summary of the project used in
	// help output.
	Description = "S-expression HTML template renderer"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
