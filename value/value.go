// Package value provides the dynamic value type for the template engine.
//
// Templates work with values of different types (strings, numbers, arrays,
// maps) without compile-time type information. The Value type is the central
// type of this package: it can hold any Go value and provides methods for
// type checking, conversion and the handful of operations the engine needs.
//
// Liquid distinguishes two "absent" values: Nil is an explicit null, and
// Undefined is what a lookup of a missing variable or attribute produces.
// Both render as the empty string and both are falsy; they differ only for
// diagnostics.
package value

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind describes the type of a Value.
type Kind int

const (
	// KindUndefined represents a missing variable or attribute.
	KindUndefined Kind = iota

	// KindNil represents an explicit null value.
	KindNil

	// KindBool represents true or false.
	KindBool

	// KindNumber represents an integer or floating-point number.
	KindNumber

	// KindString represents UTF-8 text.
	KindString

	// KindSeq represents an ordered sequence (array/slice).
	KindSeq

	// KindMap represents a string-keyed mapping.
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value represents a dynamically typed value in the template engine.
//
// Values are immutable for primitive types; sequences and maps are
// referenced, so mutations of the underlying Go data are visible through
// the Value.
type Value struct {
	data any
}

type undefinedType struct{}
type nilType struct{}

var (
	undefinedVal = undefinedType{}
	nilVal       = nilType{}
)

// Undefined returns the undefined value.
func Undefined() Value {
	return Value{data: undefinedVal}
}

// Nil returns the explicit null value.
func Nil() Value {
	return Value{data: nilVal}
}

// FromBool creates a Value from a boolean.
func FromBool(v bool) Value {
	return Value{data: v}
}

// FromInt creates a Value from an int64.
func FromInt(v int64) Value {
	return Value{data: v}
}

// FromFloat creates a Value from a float64.
func FromFloat(v float64) Value {
	return Value{data: v}
}

// FromString creates a Value from a string.
func FromString(v string) Value {
	return Value{data: v}
}

// FromSlice creates a sequence Value.
func FromSlice(v []Value) Value {
	return Value{data: v}
}

// FromMap creates a map Value.
func FromMap(v map[string]Value) Value {
	return Value{data: v}
}

// FromAny converts an arbitrary Go value into a Value using reflection.
// Maps must be string-keyed; structs expose their exported fields, honoring
// a `liquid:"name"` tag when present.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Nil()
	case Value:
		return t
	case bool:
		return FromBool(t)
	case int:
		return FromInt(int64(t))
	case int8:
		return FromInt(int64(t))
	case int16:
		return FromInt(int64(t))
	case int32:
		return FromInt(int64(t))
	case int64:
		return FromInt(t)
	case uint:
		return FromInt(int64(t))
	case uint8:
		return FromInt(int64(t))
	case uint16:
		return FromInt(int64(t))
	case uint32:
		return FromInt(int64(t))
	case uint64:
		return FromInt(int64(t))
	case float32:
		return FromFloat(float64(t))
	case float64:
		return FromFloat(t)
	case string:
		return FromString(t)
	case []Value:
		return FromSlice(t)
	case map[string]Value:
		return FromMap(t)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = FromAny(item)
		}
		return FromMap(m)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return FromSlice(items)
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Nil()
		}
		return fromReflect(rv.Elem())
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = FromAny(rv.Index(i).Interface())
		}
		return FromSlice(items)
	case reflect.Map:
		m := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key()
			if key.Kind() != reflect.String {
				key = reflect.ValueOf(fmt.Sprint(key.Interface()))
			}
			m[key.String()] = FromAny(iter.Value().Interface())
		}
		return FromMap(m)
	case reflect.Struct:
		return fromStruct(rv)
	case reflect.Bool:
		return FromBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FromInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FromInt(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return FromFloat(rv.Float())
	case reflect.String:
		return FromString(rv.String())
	default:
		return Undefined()
	}
}

func fromStruct(rv reflect.Value) Value {
	t := rv.Type()
	m := make(map[string]Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("liquid"); ok {
			if tag == "-" {
				continue
			}
			name = tag
		}
		m[name] = FromAny(rv.Field(i).Interface())
	}
	return FromMap(m)
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	switch v.data.(type) {
	case undefinedType, nil:
		return KindUndefined
	case nilType:
		return KindNil
	case bool:
		return KindBool
	case int64, float64:
		return KindNumber
	case string:
		return KindString
	case []Value:
		return KindSeq
	case map[string]Value:
		return KindMap
	default:
		return KindUndefined
	}
}

// IsUndefined reports whether the value is undefined.
func (v Value) IsUndefined() bool {
	return v.Kind() == KindUndefined
}

// IsNil reports whether the value is the explicit null.
func (v Value) IsNil() bool {
	return v.Kind() == KindNil
}

// IsTrue reports Liquid truthiness: everything is truthy except false,
// nil and undefined. Empty strings and zero are truthy.
func (v Value) IsTrue() bool {
	switch t := v.data.(type) {
	case undefinedType, nilType, nil:
		return false
	case bool:
		return t
	default:
		return true
	}
}

// AsString returns the string content, if the value is a string.
func (v Value) AsString() (string, bool) {
	s, ok := v.data.(string)
	return s, ok
}

// AsInt returns the value as an int64. Floats convert when integral.
func (v Value) AsInt() (int64, bool) {
	switch t := v.data.(type) {
	case int64:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	}
	return 0, false
}

// AsFloat returns the value as a float64, coercing integers.
func (v Value) AsFloat() (float64, bool) {
	switch t := v.data.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

// AsBool returns the boolean content, if the value is a bool.
func (v Value) AsBool() (bool, bool) {
	b, ok := v.data.(bool)
	return b, ok
}

// AsSlice returns the sequence content, if the value is a sequence.
func (v Value) AsSlice() ([]Value, bool) {
	s, ok := v.data.([]Value)
	return s, ok
}

// AsMap returns the map content, if the value is a map.
func (v Value) AsMap() (map[string]Value, bool) {
	m, ok := v.data.(map[string]Value)
	return m, ok
}

// Len returns the length of strings, sequences and maps.
func (v Value) Len() (int, bool) {
	switch t := v.data.(type) {
	case string:
		return len(t), true
	case []Value:
		return len(t), true
	case map[string]Value:
		return len(t), true
	}
	return 0, false
}

// GetAttr returns the named attribute of a map value, or the built-in
// "size" / "first" / "last" properties Liquid exposes on collections.
// Missing attributes yield Undefined.
func (v Value) GetAttr(name string) Value {
	if m, ok := v.data.(map[string]Value); ok {
		if item, ok := m[name]; ok {
			return item
		}
	}
	switch name {
	case "size":
		if n, ok := v.Len(); ok {
			return FromInt(int64(n))
		}
	case "first":
		if s, ok := v.AsSlice(); ok && len(s) > 0 {
			return s[0]
		}
	case "last":
		if s, ok := v.AsSlice(); ok && len(s) > 0 {
			return s[len(s)-1]
		}
	}
	return Undefined()
}

// GetIndex returns the i-th element of a sequence. Negative indexes count
// from the end.
func (v Value) GetIndex(i int64) Value {
	s, ok := v.data.([]Value)
	if !ok {
		return Undefined()
	}
	if i < 0 {
		i += int64(len(s))
	}
	if i < 0 || i >= int64(len(s)) {
		return Undefined()
	}
	return s[i]
}

// Iter returns the elements of the value for iteration. Maps iterate as
// [key, value] pairs in sorted key order; non-iterables return nil.
func (v Value) Iter() []Value {
	switch t := v.data.(type) {
	case []Value:
		return t
	case map[string]Value:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]Value, len(keys))
		for i, k := range keys {
			items[i] = FromSlice([]Value{FromString(k), t[k]})
		}
		return items
	}
	return nil
}

// String renders the value as template output. Undefined and nil render
// as the empty string; sequences concatenate their elements.
func (v Value) String() string {
	switch t := v.data.(type) {
	case undefinedType, nilType, nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	case []Value:
		var b strings.Builder
		for _, item := range t {
			b.WriteString(item.String())
		}
		return b.String()
	case map[string]Value:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q: %s", k, t[k].Repr())
		}
		b.WriteByte('}')
		return b.String()
	default:
		return fmt.Sprint(t)
	}
}

// Repr returns a debug representation, quoting strings.
func (v Value) Repr() string {
	if s, ok := v.data.(string); ok {
		return strconv.Quote(s)
	}
	if v.IsUndefined() {
		return "undefined"
	}
	if v.IsNil() {
		return "nil"
	}
	return v.String()
}

// Raw returns the underlying Go value.
func (v Value) Raw() any {
	switch v.data.(type) {
	case undefinedType, nilType:
		return nil
	}
	return v.data
}
