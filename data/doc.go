// Package data builds render contexts for [lang] templates.
//
// A context is assembled from three kinds of source, applied in order:
//
//   - documents in YAML, JSON or TOML, whose top level must be a mapping;
//   - assignments of the form key=value, where dotted keys nest and the
//     value is read as a YAML scalar or flow collection;
//   - partials of the form name=path, which bind a parsed template file
//     as a Template value.
//
// Mappings keep the key order of their document, so iteration over an
// object in a template follows the source file.
package data
