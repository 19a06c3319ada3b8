package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
)

// Format writes the template as canonical S-expression source. With a
// positive indent, tags containing nested tags are broken over lines; zero
// writes a single line. Parsing the output yields an equal AST.
func (t *Template) Format(_ context.Context, w io.Writer, indent int) error {
	var b strings.Builder

	writeNode(&b, t.Root, max(indent, 0), 0)
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())

	return err
}

// FormatJSON writes the template AST as JSON to the writer.
func (t *Template) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(t, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(t)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the template AST as YAML to the writer.
func (t *Template) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, t.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// Print writes an indented dump of the AST to the writer.
func (t *Template) Print(_ context.Context, w io.Writer) {
	printNode(writer(w), t.Root, 0)
}

func writer(w io.Writer) func(item ...string) {
	return func(item ...string) {
		_, err := io.WriteString(w, strings.Join(item, ": ")+"\n")
		if err != nil {
			panic(err)
		}
	}
}

func printNode(put func(...string), n Node, indent int) {
	prefix := strings.Repeat("  ", indent)

	switch n.Type {
	case NodeIdentifier:
		put(prefix+n.Type.String(), strconv.Quote(n.Ident))

	case NodeInteger:
		put(prefix+n.Type.String(), strconv.FormatInt(n.Int, 10))

	case NodeTag:
		put(prefix+n.Type.String(), n.Tag.Name)

		for _, a := range n.Tag.Attrs {
			put(prefix + "  Attribute")
			put(prefix + "    Key")

			for _, k := range a.Key {
				printNode(put, k, indent+3)
			}

			put(prefix + "    Value")

			for _, v := range a.Value {
				printNode(put, v, indent+3)
			}
		}

		for _, c := range n.Tag.Children {
			printNode(put, c, indent+1)
		}
	}
}

// formatNode returns n as single-line source text.
func formatNode(n Node) string {
	var b strings.Builder

	writeNode(&b, n, 0, 0)

	return b.String()
}

// formatNodes returns nodes as single-line source text separated by spaces.
func formatNodes(nodes []Node) string {
	var b strings.Builder

	for i, n := range nodes {
		if i > 0 {
			b.WriteByte(' ')
		}

		writeNode(&b, n, 0, 0)
	}

	return b.String()
}

func writeNode(b *strings.Builder, n Node, indent, depth int) {
	switch n.Type {
	case NodeIdentifier:
		b.WriteString(quoteSymbol(n.Ident))

	case NodeInteger:
		b.WriteString(strconv.FormatInt(n.Int, 10))

	case NodeTag:
		writeTag(b, n.Tag, indent, depth)
	}
}

func writeTag(b *strings.Builder, t *Tag, indent, depth int) {
	b.WriteByte('(')
	b.WriteString(quoteSymbol(t.Name))

	// An empty block keeps a leading (@ ...) child from reading back as
	// attributes.
	if len(t.Attrs) > 0 || leadsWithMarker(t) {
		b.WriteString(" (")
		b.WriteString(attributeMarker)

		for _, a := range t.Attrs {
			b.WriteString(" (")
			b.WriteString(formatNodes(a.Key))
			b.WriteByte(' ')
			b.WriteString(formatNodes(a.Value))
			b.WriteByte(')')
		}

		b.WriteByte(')')
	}

	broken := indent > 0 && hasTagChild(t)

	for _, c := range t.Children {
		if broken {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", (depth+1)*indent))
		} else {
			b.WriteByte(' ')
		}

		writeNode(b, c, indent, depth+1)
	}

	b.WriteByte(')')
}

func leadsWithMarker(t *Tag) bool {
	return len(t.Children) > 0 &&
		t.Children[0].Type == NodeTag &&
		t.Children[0].Tag.Name == attributeMarker
}

func hasTagChild(t *Tag) bool {
	for _, c := range t.Children {
		if c.Type == NodeTag {
			return true
		}
	}

	return false
}

// quoteSymbol returns s in a form the reader reads back as the same
// symbol: bare when possible, otherwise double-quoted.
func quoteSymbol(s string) string {
	if s != "" && !isIntegerText(s) && !strings.ContainsFunc(s, isDelimiter) {
		return s
	}

	var b strings.Builder

	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])

		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteString(s[i : i+size])
		}

		i += size
	}

	b.WriteByte('"')

	return b.String()
}
