// Package lang implements a small S-expression templating language that
// renders a data context into text, primarily HTML.
//
// # Grammar
//
// A template is a single expression:
//
//	Expr      → Symbol | Integer | '(' Tag Attrs? Expr* ')'
//	Attrs     → '(' '@' ('(' Expr Expr+ ')')* ')'
//	Symbol    → bare atom or "double-quoted string"
//	Integer   → [+-]?[0-9]+
//
// A semicolon starts a comment that runs to the end of the line.
// Symbols beginning with '$' are variable references; dotted suffixes
// ($a.b.c) address members of nested objects.
//
// # Example
//
//	(html
//	  (head (title $title))
//	  (body
//	    (for (enumerate i item) in $items
//	      (div (@ (class row)) $i ": " $item))))
//
// Rendering an unknown tag emits a markup element with the evaluated
// attributes. Known tags dispatch to a [Handler]; the builtin set covers
// html, is-set, comparisons, integer arithmetic, if, switch/case, get and
// for. Callers register additional handlers with [Builder.Function].
//
// # Scoping
//
// Builtins that bind names (loop variables, the switch discriminant) do so
// in a copy of the current [RenderContext]. Sibling branches and loop
// iterations never observe each other's bindings.
//
// # Failure policy
//
// Rendering is fail-fast: the first error aborts the call and no partial
// output is returned. The only lenient path is variable expansion, where
// an undefined $name renders as its literal text and a missing dotted
// path member yields false.
package lang
