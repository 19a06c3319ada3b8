package lang

import (
	"strconv"
)

// NodeType indicates the kind of a template [Node].
type NodeType int

const (
	// NodeIdentifier is a bare symbol. Symbols starting with '$' are
	// variable references; all others evaluate to their own text.
	NodeIdentifier NodeType = iota

	// NodeInteger is a 64-bit signed integer literal.
	NodeInteger

	// NodeTag is a parenthesized tag with attributes and children.
	NodeTag
)

// String returns a string representation of the node type.
func (t NodeType) String() string {
	switch t {
	case NodeIdentifier:
		return "Identifier"

	case NodeInteger:
		return "Integer"

	case NodeTag:
		return "Tag"

	default:
		return "Unknown"
	}
}

// Node is an element of the template AST. Exactly one of Ident, Int or Tag
// is meaningful, according to Type. Nodes are immutable once built.
type Node struct {
	Type  NodeType
	Ident string
	Int   int64
	Tag   *Tag
	Pos   Position
}

// Tag is a named element with attributes and unevaluated children.
type Tag struct {
	Name     string
	Attrs    []Attribute
	Children []Node
}

// Attribute is one (key value) pair of a tag's @ block. Both sides are
// expression sequences evaluated at render time.
type Attribute struct {
	Key   []Node
	Value []Node
}

// Template wraps the root node of a parsed template. A Template is
// read-only and safe to share between goroutines and render calls.
type Template struct {
	Root   Node
	Source string
}

// Ident returns an identifier node.
func Ident(name string) Node {
	return Node{Type: NodeIdentifier, Ident: name}
}

// Integer returns an integer literal node.
func Integer(n int64) Node {
	return Node{Type: NodeInteger, Int: n}
}

// NewTag returns a tag node with the given name, attributes and children.
func NewTag(name string, attrs []Attribute, children ...Node) Node {
	return Node{
		Type: NodeTag,
		Tag: &Tag{
			Name:     name,
			Attrs:    attrs,
			Children: children,
		},
	}
}

// NewTemplate wraps root as a Template.
func NewTemplate(root Node) *Template {
	return &Template{Root: root}
}

// IsIdent reports whether n is an identifier with the given name.
func (n Node) IsIdent(name string) bool {
	return n.Type == NodeIdentifier && n.Ident == name
}

// IsVariable reports whether n is an identifier carrying the '$' sigil.
func (n Node) IsVariable() bool {
	return n.Type == NodeIdentifier && isVariable(n.Ident)
}

// String returns the node in one-line S-expression form.
func (n Node) String() string {
	return formatNode(n)
}

// String returns the template in one-line S-expression form.
func (t *Template) String() string {
	if t == nil {
		return ""
	}

	return formatNode(t.Root)
}

// Equal reports whether n and m are structurally identical, ignoring
// source positions.
func (n Node) Equal(m Node) bool {
	if n.Type != m.Type {
		return false
	}

	switch n.Type {
	case NodeIdentifier:
		return n.Ident == m.Ident

	case NodeInteger:
		return n.Int == m.Int

	case NodeTag:
		return n.Tag.equal(m.Tag)
	}

	return false
}

func (t *Tag) equal(u *Tag) bool {
	if t == nil || u == nil {
		return t == u
	}

	if t.Name != u.Name ||
		len(t.Attrs) != len(u.Attrs) ||
		len(t.Children) != len(u.Children) {
		return false
	}

	for i, a := range t.Attrs {
		if !nodesEqual(a.Key, u.Attrs[i].Key) ||
			!nodesEqual(a.Value, u.Attrs[i].Value) {
			return false
		}
	}

	return nodesEqual(t.Children, u.Children)
}

func nodesEqual(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}

// attributeMarker is the head symbol of a tag's attribute block.
const attributeMarker = "@"

// Build converts a generic S-expression into a template AST node.
func Build(s Sexp) (Node, error) {
	switch s.Type {
	case SexpSymbol:
		return Node{Type: NodeIdentifier, Ident: s.Symbol, Pos: s.Pos}, nil

	case SexpInteger:
		return Node{Type: NodeInteger, Int: s.Int, Pos: s.Pos}, nil

	case SexpList:
		return buildTag(s)

	default:
		return Node{}, newParseError(ParseNotAList, s.Pos,
			"expr is not an atom or list")
	}
}

func buildTag(s Sexp) (Node, error) {
	if len(s.List) == 0 {
		return Node{}, newParseError(ParseNotAList, s.Pos,
			"expr is not a list: empty list")
	}

	head := s.List[0]
	if head.Type != SexpSymbol {
		return Node{}, newParseError(ParseNotAList, head.Pos,
			"expr is not a list: tag name must be a symbol")
	}

	tag := &Tag{Name: head.Symbol}
	rest := s.List[1:]

	if len(rest) > 0 && isAttributeBlock(rest[0]) {
		attrs, err := buildAttributes(rest[0])
		if err != nil {
			return Node{}, err
		}

		tag.Attrs = attrs
		rest = rest[1:]
	}

	tag.Children = make([]Node, 0, len(rest))

	for _, child := range rest {
		node, err := Build(child)
		if err != nil {
			return Node{}, err
		}

		tag.Children = append(tag.Children, node)
	}

	return Node{Type: NodeTag, Tag: tag, Pos: s.Pos}, nil
}

func isAttributeBlock(s Sexp) bool {
	return s.Type == SexpList &&
		len(s.List) > 0 &&
		s.List[0].Type == SexpSymbol &&
		s.List[0].Symbol == attributeMarker
}

func buildAttributes(block Sexp) ([]Attribute, error) {
	attrs := make([]Attribute, 0, len(block.List)-1)

	for _, elem := range block.List[1:] {
		if elem.Type != SexpList {
			return nil, newParseError(ParseNotAnAttribute, elem.Pos,
				"@ attribute is not a list")
		}

		if len(elem.List) < 2 {
			return nil, newParseError(ParseAttributeMissingElement, elem.Pos,
				"html attribute is missing an element ("+
					strconv.Itoa(len(elem.List))+" of 2)")
		}

		key, err := Build(elem.List[0])
		if err != nil {
			return nil, err
		}

		value := make([]Node, 0, len(elem.List)-1)

		for _, v := range elem.List[1:] {
			node, err := Build(v)
			if err != nil {
				return nil, err
			}

			value = append(value, node)
		}

		attrs = append(attrs, Attribute{Key: []Node{key}, Value: value})
	}

	return attrs, nil
}
