package lang

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"
)

const fuzzRenderTimeout = 100 * time.Millisecond

// FuzzParse checks that the parser never panics and that any template it
// accepts survives a format and reparse unchanged.
func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		`(html (head (title "test title")))`,
		`(head (@ (asdf qwer) (zxc asd))(title "test title"))`,
		`(for (@ (var i) (min 0) (max 3)) (div "iter " $i))`,
		`(for (enumerate i x) in $l (li $i $x))`,
		`(p "a\"b\\c\n" ; comment` + "\n" + `)`,
		`$nested.object.path`,
		`-12`,
		`(`,
		`())`,
		`(a (@ (b)))`,
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		tmpl, err := Parse(context.Background(), input, WithCache(false), WithMaxDepth(64))
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse returned %T, want *ParseError", err)
			}

			return
		}

		var buf bytes.Buffer

		if err := tmpl.Format(context.Background(), &buf, 2); err != nil {
			t.Fatalf("Format failed: %v", err)
		}

		again, err := Parse(context.Background(), buf.String(), WithCache(false), WithMaxDepth(64))
		if err != nil {
			t.Fatalf("reparse of %q failed: %v", buf.String(), err)
		}

		if !again.Root.Equal(tmpl.Root) {
			t.Fatalf("round trip changed AST\n got: %s\nwant: %s", again, tmpl)
		}
	})
}

// FuzzRender checks that rendering any parsed template either succeeds or
// fails with a render error, without panicking or running unbounded.
func FuzzRender(f *testing.F) {
	for _, seed := range []string{
		`(html (body (for i in (range 0 3) (div $i))))`,
		`(p (switch $s (case a x) (case b y)))`,
		`(p (get $l 1) (/ 4 0) (+ $n 1))`,
		`(p (if (eq $n 3) $o.k "no"))`,
	} {
		f.Add(seed)
	}

	data := NewContextBuilder().
		Insert("s", String("a")).
		Insert("l", Strings("x", "y")).
		Insert("n", Int(3)).
		Insert("o", object("k", String("v"))).
		Build()

	r := NewBuilder(WithMaxDepth(64)).Build()

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		tmpl, err := Parse(context.Background(), input, WithCache(false), WithMaxDepth(64))
		if err != nil {
			return
		}

		// Bound loops so arbitrary ranges finish quickly.
		ctx, cancel := context.WithTimeout(context.Background(), fuzzRenderTimeout)
		defer cancel()

		_, err = r.Render(ctx, tmpl, data)
		if err == nil {
			return
		}

		var re *RenderError
		if !errors.As(err, &re) && !isContextError(err) {
			t.Fatalf("Render returned %T: %v", err, err)
		}
	})
}
