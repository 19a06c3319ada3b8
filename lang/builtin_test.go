package lang

import (
	"errors"
	"strings"
	"testing"
)

func builtinData() *RenderContext {
	return NewContextBuilder().
		Insert("t", Bool(true)).
		Insert("f", Bool(false)).
		Insert("zero", Int(0)).
		Insert("one", Int(1)).
		Insert("empty", String("")).
		Insert("name", String("Ada")).
		Insert("l", Strings("x", "y", "z")).
		Insert("m", Strings("x", "y")).
		Insert("nested", List(Strings("a", "b"))).
		Insert("none", List()).
		Insert("o", object("as", String("df"), "qw", String("er"))).
		Insert("n", Int(2)).
		Insert("cfg", object("items", Strings("p", "q"))).
		Build()
}

func TestBuiltins_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		expected string
	}{
		// truthiness
		{"if true string", `(p (if yes a b))`, `<p>a</p>`},
		{"if false", `(p (if $f a b))`, `<p>b</p>`},
		{"if true", `(p (if $t a b))`, `<p>a</p>`},
		{"if zero", `(p (if 0 a b))`, `<p>b</p>`},
		{"if nonzero", `(p (if -3 a b))`, `<p>a</p>`},
		{"if empty string", `(p (if "" a b))`, `<p>b</p>`},
		{"if empty list", `(p (if $none a b))`, `<p>b</p>`},
		{"if list", `(p (if $l a b))`, `<p>b</p>`},
		{"if object", `(p (if $o a b))`, `<p>b</p>`},
		{"if unset variable", `(p (if $unset a b))`, `<p>a</p>`},
		{"if dotted miss", `(p (if $o.missing a b))`, `<p>b</p>`},
		{"if no else", `(p (if $f a))`, `<p></p>`},
		{"if tag condition", `(p (if (eq 1 1) (b yes) (b no)))`, `<p><b>yes</b></p>`},

		// is-set
		{"is-set bound", `(p (is-set $name))`, `<p>true</p>`},
		{"is-set bare name", `(p (is-set name))`, `<p>true</p>`},
		{"is-set false value", `(p (is-set $f))`, `<p>true</p>`},
		{"is-set zero value", `(p (is-set $zero))`, `<p>true</p>`},
		{"is-set unbound", `(p (is-set $nope))`, `<p>false</p>`},

		// comparison
		{"eq int", `(p (eq 1 1))`, `<p>true</p>`},
		{"eq var int", `(p (eq $one 1))`, `<p>true</p>`},
		{"ne int", `(p (ne 1 2))`, `<p>true</p>`},
		{"lt int", `(p (lt 1 2))`, `<p>true</p>`},
		{"gt int", `(p (gt 1 2))`, `<p>false</p>`},
		{"lte equal", `(p (lte 2 2))`, `<p>true</p>`},
		{"gte less", `(p (gte 1 2))`, `<p>false</p>`},
		{"lt strings", `(p (lt apple banana))`, `<p>true</p>`},
		{"eq string var", `(p (eq $name Ada))`, `<p>true</p>`},
		{"lt bool", `(p (lt $f $t))`, `<p>true</p>`},
		{"gt lists", `(p (gt $l $m))`, `<p>true</p>`},
		{"eq lists", `(p (eq $m $m))`, `<p>true</p>`},
		{"eq cross kind", `(p (eq 1 "1"))`, `<p>false</p>`},
		{"ne cross kind", `(p (ne 1 "1"))`, `<p>true</p>`},
		{"lt cross kind", `(p (lt 1 $name))`, `<p>false</p>`},
		{"gte cross kind", `(p (gte 1 $name))`, `<p>false</p>`},
		{"eq objects", `(p (eq $o $o))`, `<p>false</p>`},
		{"ne objects", `(p (ne $o $o))`, `<p>true</p>`},
		{"eq unbound literal", `(p (eq $missing "$missing"))`, `<p>true</p>`},
		{"eq nested math", `(p (eq (+ 1 1) $n))`, `<p>true</p>`},

		// math
		{"add", `(p (+ 2 3))`, `<p>5</p>`},
		{"sub negative", `(p (- 2 3))`, `<p>-1</p>`},
		{"mul", `(p (* 3 4))`, `<p>12</p>`},
		{"div truncates", `(p (/ 7 2))`, `<p>3</p>`},
		{"div negative truncates", `(p (/ -7 2))`, `<p>-3</p>`},
		{"rem", `(p (% 7 2))`, `<p>1</p>`},
		{"rem negative", `(p (% -7 2))`, `<p>-1</p>`},
		{"add variables", `(p (+ $n $one))`, `<p>3</p>`},
		{"add wraps", `(p (+ 9223372036854775807 1))`, `<p>-9223372036854775808</p>`},

		// get
		{"get list", `(p (get $l 1))`, `<p>y</p>`},
		{"get list first", `(p (get $l 0))`, `<p>x</p>`},
		{"get list computed", `(p (get $l (- $n 1)))`, `<p>y</p>`},
		{"get object", `(p (get $o qw))`, `<p>er</p>`},
		{"get nested", `(p (get (get $nested 0) 1))`, `<p>b</p>`},

		// switch and case
		{"switch first", `(p (switch $name (case Ada one) (case Bob two)))`, `<p>one</p>`},
		{"switch none", `(p (switch $name (case Bob two)))`, `<p></p>`},
		{"switch integer label", `(p (switch $n (case 1 one) (case 2 two)))`, `<p>two</p>`},
		{"switch duplicate labels", `(p (switch a (case a x) (case a y)))`, `<p>xy</p>`},
		{"switch non-case children", `(p (switch a (b c) (case a x)))`, `<p><b>c</b>x</p>`},
		{"switch scope", `(p (switch a (case a x)) (is-set __switch))`, `<p>xfalse</p>`},
		{"switch nested", `(p (switch a (case a (switch b (case b in)) out)))`, `<p>inout</p>`},

		// for
		{"for list", `(p (for x in $l $x))`, `<p>xyz</p>`},
		{"for enumerate", `(p (for (enumerate i x) in $l $i $x))`, `<p>0x1y2z</p>`},
		{"for object", `(p (for k v in $o $k = $v))`, `<p>as=dfqw=er</p>`},
		{"for range", `(p (for i in (range 0 3) $i))`, `<p>012</p>`},
		{"for range step", `(p (for i in (range 0 10 3) $i))`, `<p>0369</p>`},
		{"for range empty", `(p (for i in (range 3 3) $i))`, `<p></p>`},
		{"for range reversed", `(p (for i in (range 5 1) $i))`, `<p></p>`},
		{"for range integer binding", `(p (for i in (range 0 3) (+ $i 1)))`, `<p>123</p>`},
		{"for range computed", `(p (for i in (range $one (+ $n 2)) $i))`, `<p>123</p>`},
		{"for empty list", `(p (for x in $none $x))`, `<p></p>`},
		{"for evaluated iterable", `(p (for x in (get $nested 0) $x))`, `<p>ab</p>`},
		{"for dotted iterable", `(p (for v in $cfg.items $v))`, `<p>pq</p>`},
		{"for scope", `(p (for x in $m $x) $x)`, `<p>xy$x</p>`},
		{"for shadowing", `(p (for name in $m $name) $name)`, `<p>xyAda</p>`},
		{"for nested", `(p (for a in $m (for b in $m $a $b)))`, `<p>xxxyyxyy</p>`},
		{"for attribute step", `(p (for (@ (var i) (min 0) (max 10) (step 4)) $i))`, `<p>048</p>`},
		{"for attribute index", `(p (for (@ (var x) (index i) (iterate $m)) $i $x))`, `<p>0x1y</p>`},
		{"for attribute evaluated", `(p (for (@ (var x) (iterate (get $nested 0))) $x))`, `<p>ab</p>`},
	}

	r := Default()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := mustRender(t, r, tt.src, builtinData())
			if got != tt.expected {
				t.Errorf("Render(%s) = %s, want %s", tt.src, got, tt.expected)
			}
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		kind error
	}{
		{"if without condition", `(p (if))`, ErrIf},
		{"if without block", `(p (if $t))`, ErrIf},

		{"is-set without operand", `(p (is-set))`, ErrIsSet},
		{"is-set integer", `(p (is-set 5))`, ErrIsSet},
		{"is-set tag", `(p (is-set (b)))`, ErrIsSet},

		{"eq one operand", `(p (eq 1))`, ErrCmp},

		{"add one operand", `(p (+ 1))`, ErrMath},
		{"add string", `(p (+ a 1))`, ErrMath},
		{"add bool", `(p (+ $t 1))`, ErrMath},
		{"div zero", `(p (/ 1 0))`, ErrMath},
		{"rem zero", `(p (% 1 (- 1 1)))`, ErrMath},

		{"get one operand", `(p (get $l))`, ErrGet},
		{"get out of bounds", `(p (get $l 3))`, ErrGet},
		{"get negative", `(p (get $l -1))`, ErrGet},
		{"get missing member", `(p (get $o zz))`, ErrGet},
		{"get string index of list", `(p (get $l x))`, ErrGet},
		{"get scalar", `(p (get $name 0))`, ErrGet},

		{"switch without discriminant", `(p (switch))`, ErrSwitch},
		{"case outside switch", `(p (case a b))`, ErrCase},
		{"case tag label", `(p (switch a (case (b) x)))`, ErrCase},
		{"case without label", `(p (switch a (case)))`, ErrCase},

		{"for no iterable", `(p (for x in))`, ErrFor},
		{"for unbound iterable", `(p (for x in $nope $x))`, ErrFor},
		{"for scalar iterable", `(p (for x in $name $x))`, ErrFor},
		{"for dotted scalar iterable", `(p (for x in $o.as $x))`, ErrFor},
		{"for missing variable", `(p (for in $l x))`, ErrFor},
		{"for too many variables", `(p (for a b in $l x))`, ErrFor},
		{"for object single variable", `(p (for k in $o $k))`, ErrFor},
		{"for range zero step", `(p (for i in (range 0 3 0) $i))`, ErrFor},
		{"for range negative step", `(p (for i in (range 0 3 -1) $i))`, ErrFor},
		{"for range one bound", `(p (for i in (range 3) $i))`, ErrFor},
		{"for range string bound", `(p (for i in (range a 3) $i))`, ErrFor},
		{"for attribute no var", `(p (for (@ (min 0) (max 3)) x))`, ErrFor},
		{"for attribute zero step", `(p (for (@ (var i) (min 0) (max 3) (step 0)) x))`, ErrFor},
		{"for attribute bad min", `(p (for (@ (var i) (min a) (max 3)) x))`, ErrFor},
		{"for attribute no iterate", `(p (for (@ (var i)) x))`, ErrFor},
		{"for attribute unset iterate", `(p (for (@ (var i) (iterate $nope)) x))`, ErrFor},
		{"for attribute scalar iterate", `(p (for (@ (var i) (iterate $name)) x))`, ErrFor},
		{"for attribute object without key", `(p (for (@ (value v) (iterate $o)) x))`, ErrFor},
		{"for attribute list without var", `(p (for (@ (index i) (iterate $l)) x))`, ErrFor},
	}

	r := Default()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := renderErr(t, r, tt.src, builtinData())
			if !errors.Is(err, tt.kind) {
				t.Errorf("Render(%s) error = %v, want kind %v", tt.src, err, tt.kind)
			}
		})
	}
}

func TestBuiltins_DivideByZero(t *testing.T) {
	t.Parallel()

	err := renderErr(t, Default(), `(/ 7 0)`, nil)

	if !errors.Is(err, ErrMath) || !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected math error caused by divide by zero, got %v", err)
	}

	if !strings.HasPrefix(err.Error(), "error in math operator: ") {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestBuiltins_ErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src      string
		expected string
	}{
		{`(get $l 5)`, "error in `get`: index 5 out of bounds ($l 5)"},
		{`(if)`, "error in `if`: condition not found"},
		{`(case a)`, "error in `case`: builtin switch variable not found (a)"},
		{`(+ x 1)`, "error in math operator: operand is not an integer: String (x 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			err := renderErr(t, Default(), tt.src, builtinData())
			if got := err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuiltins_ErrorNodes(t *testing.T) {
	t.Parallel()

	err := renderErr(t, Default(), "(p\n  (get $l 9))", builtinData())

	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RenderError, got %T", err)
	}

	if len(re.Nodes) != 2 || re.Nodes[0].Pos.Line != 2 {
		t.Errorf("expected nodes at line 2, got %+v", re.Nodes)
	}
}
