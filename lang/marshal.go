package lang

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// MarshalJSON implements json.Marshaler for Template.
func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToMap())
}

// ToMap converts the template AST to a native Go map structure.
func (t *Template) ToMap() map[string]any {
	if t == nil {
		return map[string]any{}
	}

	if m, ok := t.Root.ToNative().(map[string]any); ok {
		return m
	}

	return map[string]any{"value": t.Root.ToNative()}
}

// ToNative converts a node to its native Go representation: identifiers
// become strings, integers int64, and tags maps with "tag", "attributes"
// and "children" entries.
func (n Node) ToNative() any {
	switch n.Type {
	case NodeIdentifier:
		return n.Ident

	case NodeInteger:
		return n.Int

	case NodeTag:
		m := map[string]any{"tag": n.Tag.Name}

		if len(n.Tag.Attrs) > 0 {
			attrs := make([]any, len(n.Tag.Attrs))
			for i, a := range n.Tag.Attrs {
				attrs[i] = map[string]any{
					"key":   nativeNodes(a.Key),
					"value": nativeNodes(a.Value),
				}
			}

			m["attributes"] = attrs
		}

		if len(n.Tag.Children) > 0 {
			m["children"] = nativeNodes(n.Tag.Children)
		}

		return m

	default:
		return nil
	}
}

func nativeNodes(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n.ToNative()
	}

	return out
}

// Native converts v to plain Go values: int64, bool, string, []any and
// map[string]any. Templates become their source text.
func (v ContextValue) Native() any {
	switch v.Kind {
	case KindInteger:
		return v.Int

	case KindBoolean:
		return v.Bool

	case KindString:
		return v.Str

	case KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = e.Native()
		}

		return out

	case KindObject:
		return v.Object.Native()

	case KindTemplate:
		return v.Template.String()

	default:
		return nil
	}
}

// Native converts the context to a map of plain Go values.
func (c *RenderContext) Native() map[string]any {
	m := make(map[string]any, c.Len())
	for k, v := range c.All() {
		m[k] = v.Native()
	}

	return m
}

// Native converts v to plain Go values. Empty becomes nil.
func (v RenderValue) Native() any {
	switch v.Kind {
	case KindInteger:
		return v.Int

	case KindBoolean:
		return v.Bool

	case KindString:
		return v.Str

	case KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = e.Native()
		}

		return out

	case KindObject:
		m := make(map[string]any, len(v.Members))
		for _, e := range v.Members {
			m[e.Name] = e.Value.Native()
		}

		return m

	case KindTemplate:
		return v.Template.String()

	default:
		return nil
	}
}

// FromNative converts a Go value into a [ContextValue].
//
// Integers, booleans and strings map to their kinds; floats with an
// integral value become integers and all others strings; slices and arrays
// become lists; maps become objects with keys in sorted order, except
// yaml.MapSlice which keeps document order; time.Time becomes an RFC 3339
// string and nil becomes false.
func FromNative(value any) (ContextValue, error) {
	switch v := value.(type) {
	case nil:
		return Bool(false), nil

	case ContextValue:
		return v, nil

	case *RenderContext:
		return Object(v), nil

	case *Template:
		return TemplateValue(v), nil

	case bool:
		return Bool(v), nil

	case string:
		return String(v), nil

	case int:
		return Int(int64(v)), nil

	case int64:
		return Int(v), nil

	case uint64:
		if v > math.MaxInt64 {
			return ContextValue{}, ErrInvalidValue.
				With(slog.String("reason", "integer overflow"),
					slog.Uint64("value", v))
		}

		return Int(int64(v)), nil

	case float64:
		return fromFloat(v), nil

	case time.Time:
		return String(v.Format(time.RFC3339)), nil

	case yaml.MapSlice:
		obj := NewContext()

		for _, item := range v {
			elem, err := FromNative(item.Value)
			if err != nil {
				return ContextValue{}, err
			}

			obj.Insert(fmt.Sprint(item.Key), elem)
		}

		return Object(obj), nil

	case map[string]any:
		obj := NewContext()

		for _, k := range slices.Sorted(maps.Keys(v)) {
			elem, err := FromNative(v[k])
			if err != nil {
				return ContextValue{}, err
			}

			obj.Insert(k, elem)
		}

		return Object(obj), nil

	case []any:
		list := make([]ContextValue, len(v))

		for i, e := range v {
			elem, err := FromNative(e)
			if err != nil {
				return ContextValue{}, err
			}

			list[i] = elem
		}

		return List(list...), nil
	}

	return fromReflect(reflect.ValueOf(value))
}

func fromFloat(f float64) ContextValue {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return Int(int64(f))
	}

	return String(strconv.FormatFloat(f, 'g', -1, 64))
}

func fromReflect(rv reflect.Value) (ContextValue, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return FromNative(rv.Uint())

	case reflect.Float32, reflect.Float64:
		return fromFloat(rv.Float()), nil

	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.String:
		return String(rv.String()), nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Bool(false), nil
		}

		return FromNative(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		list := make([]ContextValue, rv.Len())

		for i := range rv.Len() {
			elem, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return ContextValue{}, err
			}

			list[i] = elem
		}

		return List(list...), nil

	case reflect.Map:
		type entry struct {
			key   string
			value reflect.Value
		}

		entries := make([]entry, 0, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			entries = append(entries,
				entry{fmt.Sprint(iter.Key().Interface()), iter.Value()})
		}

		slices.SortFunc(entries, func(a, b entry) int {
			return strings.Compare(a.key, b.key)
		})

		obj := NewContext()

		for _, e := range entries {
			elem, err := FromNative(e.value.Interface())
			if err != nil {
				return ContextValue{}, err
			}

			obj.Insert(e.key, elem)
		}

		return Object(obj), nil
	}

	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return String(s.String()), nil
	}

	return ContextValue{}, ErrInvalidValue.
		With(slog.String("type", rv.Type().String()))
}
