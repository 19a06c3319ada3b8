package lang

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
)

type label string

func (l label) String() string { return "label:" + string(l) }

type opaque struct{ n int }

type named struct{ s string }

func (n named) String() string { return n.s }

func TestFromNative(t *testing.T) {
	t.Parallel()

	stamp := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	ptr := 7

	tests := []struct {
		name     string
		in       any
		expected any
	}{
		{"nil", nil, false},
		{"bool", true, true},
		{"string", "x", "x"},
		{"int", 3, int64(3)},
		{"int8", int8(-3), int64(-3)},
		{"uint16", uint16(9), int64(9)},
		{"uint64", uint64(10), int64(10)},
		{"integral float", 2.0, int64(2)},
		{"fractional float", 2.5, "2.5"},
		{"float32", float32(4), int64(4)},
		{"huge float", 1e300, "1e+300"},
		{"time", stamp, "2024-03-01T12:30:00Z"},
		{"named string", label("x"), "x"},
		{"pointer", &ptr, int64(7)},
		{"nil pointer", (*int)(nil), false},
		{"stringer", named{"hi"}, "hi"},
		{"any slice", []any{1, "a", true}, []any{int64(1), "a", true}},
		{"string slice", []string{"a", "b"}, []any{"a", "b"}},
		{"array", [2]int{1, 2}, []any{int64(1), int64(2)}},
		{"map", map[string]any{"b": 1, "a": "x"}, map[string]any{"a": "x", "b": int64(1)}},
		{"typed map", map[string]int{"k": 1}, map[string]any{"k": int64(1)}},
		{"int keyed map", map[int]string{1: "one"}, map[string]any{"1": "one"}},
		{"context value", Int(5), int64(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := FromNative(tt.in)
			if err != nil {
				t.Fatalf("FromNative(%v) failed: %v", tt.in, err)
			}

			if got := v.Native(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("FromNative(%v).Native() = %#v, want %#v", tt.in, got, tt.expected)
			}
		})
	}
}

func TestFromNative_Order(t *testing.T) {
	t.Parallel()

	ordered := yaml.MapSlice{
		{Key: "zeta", Value: 1},
		{Key: "alpha", Value: yaml.MapSlice{{Key: "y", Value: "1"}, {Key: "x", Value: "2"}}},
		{Key: "mid", Value: nil},
	}

	v, err := FromNative(ordered)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := v.Object.Keys(), []string{"zeta", "alpha", "mid"}; !reflect.DeepEqual(got, want) {
		t.Errorf("MapSlice order = %v, want %v", got, want)
	}

	inner, _ := v.Object.Get("alpha")
	if got, want := inner.Object.Keys(), []string{"y", "x"}; !reflect.DeepEqual(got, want) {
		t.Errorf("nested MapSlice order = %v, want %v", got, want)
	}

	m, err := FromNative(map[string]any{"c": 1, "a": 2, "b": 3})
	if err != nil {
		t.Fatal(err)
	}

	if got, want := m.Object.Keys(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("map order = %v, want %v", got, want)
	}
}

func TestFromNative_Errors(t *testing.T) {
	t.Parallel()

	for _, in := range []any{
		uint64(math.MaxInt64) + 1,
		opaque{1},
		[]any{opaque{2}},
		map[string]any{"x": func() {}},
		make(chan int),
	} {
		if _, err := FromNative(in); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("FromNative(%T) error = %v, want ErrInvalidValue", in, err)
		}
	}
}

func TestFromNative_Passthrough(t *testing.T) {
	t.Parallel()

	ctx := NewContext().Insert("k", String("v"))
	tmpl := MustParse(`(p $k)`)

	v, err := FromNative(ctx)
	if err != nil || v.Kind != KindObject || v.Object != ctx {
		t.Errorf("FromNative(*RenderContext) = %v, %v", v, err)
	}

	v, err = FromNative(tmpl)
	if err != nil || v.Kind != KindTemplate || v.Template != tmpl {
		t.Errorf("FromNative(*Template) = %v, %v", v, err)
	}
}

func TestNative(t *testing.T) {
	t.Parallel()

	c := NewContextBuilder().
		Insert("n", Int(1)).
		Insert("list", List(Bool(true), String("s"))).
		Insert("obj", object("k", String("v"))).
		Insert("tmpl", TemplateValue(MustParse(`(p "a b")`))).
		Build()

	want := map[string]any{
		"n":    int64(1),
		"list": []any{true, "s"},
		"obj":  map[string]any{"k": "v"},
		"tmpl": `(p "a b")`,
	}

	if got := c.Native(); !reflect.DeepEqual(got, want) {
		t.Errorf("Native() = %#v, want %#v", got, want)
	}

	r := Object(c).Render()
	if got := r.Native(); !reflect.DeepEqual(got, want) {
		t.Errorf("RenderValue.Native() = %#v, want %#v", got, want)
	}

	if Empty().Native() != nil {
		t.Error("Empty().Native() should be nil")
	}
}

func TestTemplate_ToMap(t *testing.T) {
	t.Parallel()

	got := MustParse(`(a (@ (k v)) 1 b)`).ToMap()
	want := map[string]any{
		"tag": "a",
		"attributes": []any{
			map[string]any{"key": []any{"k"}, "value": []any{"v"}},
		},
		"children": []any{int64(1), "b"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToMap() = %#v, want %#v", got, want)
	}

	if got := MustParse(`$x`).ToMap(); got["value"] != "$x" {
		t.Errorf("ToMap() of identifier root = %#v", got)
	}
}
