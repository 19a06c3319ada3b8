package lang

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
)

// token generates identifiers that are plain text when rendered.
func token(s *string, c fuzz.Continue) {
	*s = "w" + strconv.Itoa(c.Intn(1_000_000))
}

func TestProperty_GetList(t *testing.T) {
	t.Parallel()

	f := fuzz.NewWithSeed(1).NilChance(0).NumElements(1, 20).Funcs(token)
	r := Default()

	for range 200 {
		var elems []string

		f.Fuzz(&elems)

		data := NewContextBuilder().Insert("l", Strings(elems...)).Build()

		for i, want := range elems {
			got := mustRender(t, r, fmt.Sprintf("(get $l %d)", i), data)
			if got != want {
				t.Fatalf("(get $l %d) on %v = %q, want %q", i, elems, got, want)
			}
		}

		for _, i := range []int{len(elems), -1, len(elems) + 7} {
			err := renderErr(t, r, fmt.Sprintf("(get $l %d)", i), data)
			if !errors.Is(err, ErrGet) {
				t.Fatalf("(get $l %d) on %d elements: error = %v", i, len(elems), err)
			}
		}
	}
}

func TestProperty_RangeCount(t *testing.T) {
	t.Parallel()

	f := fuzz.NewWithSeed(2)
	r := Default()

	for range 300 {
		var lo, span, step int8

		f.Fuzz(&lo)
		f.Fuzz(&span)
		f.Fuzz(&step)

		minimum := int64(lo)
		maximum := minimum + int64(span)%64
		stride := int64(step)%8 + 8 // 1 through 15

		if stride <= 0 {
			stride = 1
		}

		src := fmt.Sprintf("(for i in (range %d %d %d) $i \",\")", minimum, maximum, stride)
		out := mustRender(t, r, src, nil)

		var got []int64

		for field := range strings.SplitSeq(out, ",") {
			if field == "" {
				continue
			}

			n, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				t.Fatalf("%s: bad element %q", src, field)
			}

			got = append(got, n)
		}

		var want int64
		if maximum > minimum {
			want = (maximum - minimum + stride - 1) / stride
		}

		if int64(len(got)) != want {
			t.Fatalf("%s: %d iterations, want %d", src, len(got), want)
		}

		for i, n := range got {
			if n != minimum+int64(i)*stride || n >= maximum {
				t.Fatalf("%s: element %d = %d", src, i, n)
			}
		}
	}
}

func TestProperty_UnboundVariable(t *testing.T) {
	t.Parallel()

	f := fuzz.NewWithSeed(3).Funcs(token)
	r := Default()

	for range 100 {
		var name string

		f.Fuzz(&name)

		got := mustRender(t, r, "(p $"+name+")", nil)
		if want := "<p>$" + name + "</p>"; got != want {
			t.Fatalf("unbound $%s rendered %q, want %q", name, got, want)
		}
	}
}

func TestProperty_ObjectIteration(t *testing.T) {
	t.Parallel()

	f := fuzz.NewWithSeed(4).NilChance(0).NumElements(0, 12).Funcs(token)
	r := Default()

	for range 100 {
		var keys []string

		f.Fuzz(&keys)

		b := NewContextBuilder()
		for i, k := range keys {
			b.Insert(k, Int(int64(i)))
		}

		obj := b.Build()
		data := NewContextBuilder().Insert("o", Object(obj)).Build()

		var want strings.Builder
		for k, v := range obj.All() {
			fmt.Fprintf(&want, "%s=%d;", k, v.Int)
		}

		got := mustRender(t, r, `(for k v in $o $k = $v ";")`, data)
		if got != want.String() {
			t.Fatalf("object iteration = %q, want %q", got, want.String())
		}

		if _, ok := data.Get("k"); ok {
			t.Fatal("loop variable leaked into caller context")
		}
	}
}

func TestProperty_ScopeIsolation(t *testing.T) {
	t.Parallel()

	f := fuzz.NewWithSeed(5).NilChance(0).NumElements(1, 8).Funcs(token)
	r := Default()

	for range 100 {
		var names []string

		f.Fuzz(&names)

		data := NewContextBuilder().
			Insert("l", Strings(names...)).
			Insert("x", String("outer")).
			Build()

		got := mustRender(t, r, `(p (for x in $l $x) "|" $x)`, data)
		want := "<p>" + strings.Join(names, "") + "|outer</p>"

		if got != want {
			t.Fatalf("scope isolation: %q, want %q", got, want)
		}
	}
}
