// Package ext provides optional tag handlers for [lang] renderers.
//
// The handlers are kept out of the core builtin table because they pull in
// third-party libraries:
//
//	expr      evaluates an expr-lang expression over the render context
//	markdown  converts Markdown to HTML with goldmark
//
// Register them all with [Install]:
//
//	r := ext.Install(lang.NewBuilder()).Build()
//
// The expr environment also offers host and filesystem helpers (see
// [Env]), such as platform.OS, file.exists(path), path.cat(a, b) and
// env("HOME").
package ext
