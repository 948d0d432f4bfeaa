// Package types defines the attribute values the engine reads from and writes
// to a character record: null, bool, int, double, string and list.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ValueType is the dynamic type of an attribute value.
type ValueType int

const (
	TypeNull   ValueType = iota
	TypeBool             // bool
	TypeInt              // int64
	TypeDouble           // float64
	TypeString           // string
	TypeList             // []Value
)

var typeNames = [...]string{
	TypeNull:   "null",
	TypeBool:   "bool",
	TypeInt:    "int",
	TypeDouble: "double",
	TypeString: "string",
	TypeList:   "list",
}

// String returns the type name.
func (t ValueType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "unknown"
	}
	return typeNames[t]
}

// Value is one attribute value. Bools and ints share the integer slot; the
// zero Value is null.
type Value struct {
	kind  ValueType
	n     int64
	f     float64
	s     string
	items []Value
}

// Null is the null value.
var Null = Value{}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	v := Value{kind: TypeBool}
	if b {
		v.n = 1
	}
	return v
}

// NewInt creates an integer value.
func NewInt(n int64) Value { return Value{kind: TypeInt, n: n} }

// NewDouble creates a double value.
func NewDouble(f float64) Value { return Value{kind: TypeDouble, f: f} }

// NewString creates a string value.
func NewString(s string) Value { return Value{kind: TypeString, s: s} }

// NewList creates a list value. The slice is not copied.
func NewList(items []Value) Value { return Value{kind: TypeList, items: items} }

// NewNumber stores a calculation result: an int when f is integral and fits,
// a double otherwise.
func NewNumber(f float64) Value {
	if integral(f) && InInt64Range(f) {
		return NewInt(int64(f))
	}
	return NewDouble(f)
}

// InInt64Range reports whether f lies in [-2^63, 2^63). float64(math.MaxInt64)
// rounds up to 2^63, so the upper bound is exclusive.
func InInt64Range(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

func integral(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0)
}

// Type returns the value's type.
func (v Value) Type() ValueType { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == TypeNull }

// AsInt returns the integer of an int value, and 0 for any other type.
func (v Value) AsInt() int64 {
	if v.kind != TypeInt {
		return 0
	}
	return v.n
}

// AsString returns the text of a string value, and "" for any other type.
func (v Value) AsString() string {
	if v.kind != TypeString {
		return ""
	}
	return v.s
}

// AsList returns the items of a list value, and nil for any other type.
func (v Value) AsList() []Value {
	if v.kind != TypeList {
		return nil
	}
	return v.items
}

// AsNumber returns v as a float64. Ints, doubles and bools (as 1 or 0) are
// numbers; other types report false.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case TypeInt, TypeBool:
		return float64(v.n), true
	case TypeDouble:
		return v.f, true
	}
	return 0, false
}

// Truthy reports whether the value counts as set when used as a condition.
// Null, false, zero, the empty string and the empty list are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case TypeBool, TypeInt:
		return v.n != 0
	case TypeDouble:
		return v.f != 0
	case TypeString:
		return v.s != ""
	case TypeList:
		return len(v.items) > 0
	}
	return false
}

// MinimalString renders the value the way formulas consume it: integral
// doubles print without a fractional part, booleans print as 1 or 0 and null
// prints as 0.
func (v Value) MinimalString() string {
	switch v.kind {
	case TypeNull:
		return "0"
	case TypeBool, TypeInt:
		return strconv.FormatInt(v.n, 10)
	case TypeDouble:
		if integral(v.f) && math.Abs(v.f) < 1e18 {
			return strconv.FormatInt(int64(v.f), 10)
		}
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	}
	return v.String()
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	if v.kind != TypeList {
		return v
	}
	items := make([]Value, len(v.items))
	for i, item := range v.items {
		items[i] = item.Clone()
	}
	return NewList(items)
}

// Equal reports deep equality. Ints and doubles compare by numeric value.
func (v Value) Equal(other Value) bool {
	if v.isNumeric() && other.isNumeric() {
		a, _ := v.AsNumber()
		b, _ := other.AsNumber()
		return a == b
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case TypeBool:
		return v.n == other.n
	case TypeString:
		return v.s == other.s
	case TypeList:
		return slices.EqualFunc(v.items, other.items, Value.Equal)
	}
	return true
}

func (v Value) isNumeric() bool {
	return v.kind == TypeInt || v.kind == TypeDouble
}

// String returns a readable rendering: text as-is, lists bracketed.
func (v Value) String() string {
	switch v.kind {
	case TypeNull:
		return "null"
	case TypeBool:
		return strconv.FormatBool(v.n != 0)
	case TypeInt:
		return strconv.FormatInt(v.n, 10)
	case TypeDouble:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case TypeString:
		return v.s
	case TypeList:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "<unknown>"
}

// MarshalJSON encodes v as the matching JSON value. Non-finite doubles
// encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case TypeNull:
		return []byte("null"), nil
	case TypeBool:
		return json.Marshal(v.n != 0)
	case TypeInt:
		return json.Marshal(v.n)
	case TypeDouble:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.f)
	case TypeString:
		return json.Marshal(v.s)
	case TypeList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	}
	return nil, fmt.Errorf("cannot marshal value of type %s", v.kind)
}

// UnmarshalJSON decodes any JSON scalar or array into a Value. Objects are
// rejected; attribute values are never nested maps.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if _, ok := raw.(map[string]interface{}); ok {
		return fmt.Errorf("attribute value cannot be an object")
	}
	*v = FromGo(raw)
	return nil
}

// FromGo converts a decoded JSON or YAML value into a Value. Whole floats
// become ints; anything unrecognised is kept as its %v text.
func FromGo(raw interface{}) Value {
	switch x := raw.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return NewBool(x)
	case string:
		return NewString(x)
	case int:
		return NewInt(int64(x))
	case int64:
		return NewInt(x)
	case float64:
		return NewNumber(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return NewInt(n)
		}
		if f, err := x.Float64(); err == nil {
			return NewNumber(f)
		}
		return NewString(x.String())
	case []interface{}:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			items = append(items, FromGo(item))
		}
		return NewList(items)
	}
	return NewString(fmt.Sprintf("%v", raw))
}

// Interface returns v as a plain Go value: nil, bool, int64, float64, string
// or []interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case TypeBool:
		return v.n != 0
	case TypeInt:
		return v.n
	case TypeDouble:
		return v.f
	case TypeString:
		return v.s
	case TypeList:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	}
	return nil
}
