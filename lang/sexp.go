package lang

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Position locates a byte in template source. Line and Column are 1-based.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// SexpType identifies the shape of a [Sexp].
type SexpType int

const (
	SexpSymbol SexpType = iota
	SexpInteger
	SexpList
)

// Sexp is a generic symbolic expression: an atom or a list of expressions.
type Sexp struct {
	Type   SexpType
	Symbol string
	Int    int64
	List   []Sexp
	Pos    Position
}

// ReadSexp reads exactly one S-expression from src.
func ReadSexp(src string) (Sexp, error) {
	return readSexp(src, DefaultMaxDepth)
}

func readSexp(src string, maxDepth int) (Sexp, error) {
	r := &reader{
		input:    []byte(src),
		line:     1,
		col:      1,
		maxDepth: maxDepth,
	}

	r.skipWhitespaceAndComments()

	if r.eof() {
		return Sexp{}, r.fail(ParseSyntax, "empty template")
	}

	expr, err := r.readExpr(0)
	if err != nil {
		return Sexp{}, err
	}

	r.skipWhitespaceAndComments()

	if !r.eof() {
		return Sexp{}, r.fail(ParseSyntax, "unexpected input after expression")
	}

	return expr, nil
}

// reader holds the S-expression reader state.
type reader struct {
	input    []byte
	pos      int
	line     int
	col      int
	maxDepth int
}

func (r *reader) readExpr(depth int) (Sexp, error) {
	if r.maxDepth > 0 && depth > r.maxDepth {
		return Sexp{}, r.fail(ParseDepth,
			"nesting exceeds maximum depth "+strconv.Itoa(r.maxDepth))
	}

	switch r.peek() {
	case '(':
		return r.readList(depth)

	case ')':
		return Sexp{}, r.fail(ParseSyntax, "unexpected ')'")

	case '"':
		return r.readString()

	default:
		return r.readAtom()
	}
}

func (r *reader) readList(depth int) (Sexp, error) {
	start := r.position()

	r.advance() // '('

	list := Sexp{Type: SexpList, Pos: start, List: []Sexp{}}

	for {
		r.skipWhitespaceAndComments()

		if r.eof() {
			return Sexp{}, newParseError(ParseSyntax, start, "unbalanced '('")
		}

		if r.peek() == ')' {
			r.advance()

			return list, nil
		}

		elem, err := r.readExpr(depth + 1)
		if err != nil {
			return Sexp{}, err
		}

		list.List = append(list.List, elem)
	}
}

func (r *reader) readString() (Sexp, error) {
	start := r.position()

	r.advance() // opening quote

	var b strings.Builder

	for !r.eof() {
		ch := r.peek()

		switch ch {
		case '\\':
			r.advance()

			if r.eof() {
				return Sexp{}, newParseError(ParseSyntax, start, "unterminated string")
			}

			switch r.peek() {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.Write(r.current())
			}

			r.advance()

		case '"':
			r.advance()

			return Sexp{Type: SexpSymbol, Symbol: b.String(), Pos: start}, nil

		default:
			b.Write(r.current())
			r.advance()
		}
	}

	return Sexp{}, newParseError(ParseSyntax, start, "unterminated string")
}

func (r *reader) readAtom() (Sexp, error) {
	start := r.position()
	begin := r.pos

	for !r.eof() && !isDelimiter(r.peek()) {
		r.advance()
	}

	text := string(r.input[begin:r.pos])

	if isIntegerText(text) {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Sexp{}, newParseError(ParseSyntax, start,
				"integer literal out of range: "+text)
		}

		return Sexp{Type: SexpInteger, Int: n, Pos: start}, nil
	}

	return Sexp{Type: SexpSymbol, Symbol: text, Pos: start}, nil
}

func (r *reader) fail(kind ParseErrorKind, msg string) *ParseError {
	return newParseError(kind, r.position(), msg)
}

// Helper methods

func (r *reader) peek() rune {
	if r.eof() {
		return 0
	}

	ch, _ := utf8.DecodeRune(r.input[r.pos:])

	return ch
}

// current returns the undecoded bytes of the rune at the read position.
func (r *reader) current() []byte {
	_, size := utf8.DecodeRune(r.input[r.pos:])

	return r.input[r.pos : r.pos+size]
}

func (r *reader) advance() {
	if r.eof() {
		return
	}

	ch, size := utf8.DecodeRune(r.input[r.pos:])

	r.pos += size
	if ch == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
}

func (r *reader) eof() bool {
	return r.pos >= len(r.input)
}

func (r *reader) position() Position {
	return Position{
		Offset: r.pos,
		Line:   r.line,
		Column: r.col,
	}
}

func (r *reader) skipWhitespaceAndComments() {
	for !r.eof() {
		ch := r.peek()

		switch {
		case unicode.IsSpace(ch):
			r.advance()

		case ch == ';':
			for !r.eof() && r.peek() != '\n' {
				r.advance()
			}

		default:
			return
		}
	}
}

// Character classification

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '"' || r == ';'
}

func isIntegerText(s string) bool {
	if s == "" {
		return false
	}

	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}

	if s == "" {
		return false
	}

	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
