package ext

import (
	"log/slog"

	"github.com/expr-lang/expr/ast"

	"github.com/ardnew/sxt/log"
)

// hyphenPatcher rejoins hyphenated names that expr-lang parsed as
// subtraction.
//
// Template variables commonly use hyphens (page-title), which expr reads as
// page - title. When the joined name is bound in the environment, either at
// the top level or as a member of a nested object, the subtraction is
// replaced by the identifier or member access it spells.
type hyphenPatcher struct {
	env    map[string]any
	logger log.Logger
}

// Visit implements ast.Visitor.
func (p *hyphenPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok || bin.Operator != "-" {
		return
	}

	right, ok := bin.Right.(*ast.IdentifierNode)
	if !ok {
		return
	}

	base, name, ok := hyphenChain(bin.Left)
	if !ok {
		return
	}

	joined := name + "-" + right.Value

	if base == nil {
		if _, ok := p.env[joined]; !ok {
			return
		}

		ast.Patch(node, &ast.IdentifierNode{Value: joined})
		p.logger.Trace("patch hyphenated",
			slog.String("name", joined),
			slog.String("patch_type", "identifier"))

		return
	}

	path, ok := memberPath(base)
	if !ok || !p.hasMember(path, joined) {
		return
	}

	ast.Patch(node, &ast.MemberNode{
		Node:     base,
		Property: &ast.StringNode{Value: joined},
	})
	p.logger.Trace("patch hyphenated",
		slog.String("name", joined),
		slog.String("patch_type", "member"))
}

// hyphenChain splits the left operand of a subtraction into the node the
// hyphenated name hangs off (nil at the top level) and the name so far.
// Inner subtractions that were not patched contribute their segments.
func hyphenChain(n ast.Node) (base ast.Node, name string, ok bool) {
	switch left := n.(type) {
	case *ast.IdentifierNode:
		return nil, left.Value, true

	case *ast.MemberNode:
		prop, ok := left.Property.(*ast.StringNode)
		if !ok {
			return nil, "", false
		}

		return left.Node, prop.Value, true

	case *ast.BinaryNode:
		if left.Operator != "-" {
			return nil, "", false
		}

		right, ok := left.Right.(*ast.IdentifierNode)
		if !ok {
			return nil, "", false
		}

		base, name, ok := hyphenChain(left.Left)
		if !ok {
			return nil, "", false
		}

		return base, name + "-" + right.Value, true

	default:
		return nil, "", false
	}
}

// memberPath flattens an identifier or member-access chain into names.
func memberPath(n ast.Node) ([]string, bool) {
	switch m := n.(type) {
	case *ast.IdentifierNode:
		return []string{m.Value}, true

	case *ast.MemberNode:
		prop, ok := m.Property.(*ast.StringNode)
		if !ok {
			return nil, false
		}

		base, ok := memberPath(m.Node)
		if !ok {
			return nil, false
		}

		return append(base, prop.Value), true

	default:
		return nil, false
	}
}

// hasMember reports whether the object at path has a member named name.
func (p *hyphenPatcher) hasMember(path []string, name string) bool {
	var current any = p.env

	for _, seg := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}

		if current, ok = m[seg]; !ok {
			return false
		}
	}

	m, ok := current.(map[string]any)
	if !ok {
		return false
	}

	_, ok = m[name]

	return ok
}
