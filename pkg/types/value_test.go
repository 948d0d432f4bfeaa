package types

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMinimalString(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{NewInt(14), "14"},
		{NewDouble(14.0), "14"},
		{NewDouble(-3.0), "-3"},
		{NewDouble(2.5), "2.5"},
		{Null, "0"},
		{NewBool(true), "1"},
		{NewBool(false), "0"},
		{NewString("abc"), "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.in.MinimalString(); got != tt.want {
				t.Errorf("MinimalString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		in   Value
		want bool
	}{
		{Null, false},
		{NewBool(false), false},
		{NewBool(true), true},
		{NewInt(0), false},
		{NewInt(3), true},
		{NewDouble(0), false},
		{NewString(""), false},
		{NewString("yes"), true},
		{NewList(nil), false},
		{NewList([]Value{NewInt(1)}), true},
	}

	for _, tt := range tests {
		if got := tt.in.Truthy(); got != tt.want {
			t.Errorf("Truthy(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewNumberCollapsesIntegral(t *testing.T) {
	if v := NewNumber(4.0); v.Type() != TypeInt || v.AsInt() != 4 {
		t.Errorf("NewNumber(4.0) = %v (%s), want int 4", v, v.Type())
	}
	if v := NewNumber(4.5); v.Type() != TypeDouble {
		t.Errorf("NewNumber(4.5) type = %s, want double", v.Type())
	}
	if v := NewNumber(math.Pow(2, 63)); v.Type() != TypeDouble {
		t.Errorf("NewNumber(2^63) = %v (%s), want double", v, v.Type())
	}
	if v := NewNumber(math.MinInt64); v.Type() != TypeInt || v.AsInt() != math.MinInt64 {
		t.Errorf("NewNumber(-2^63) = %v (%s), want int", v, v.Type())
	}
}

func TestAttributesJSONKeepsOrder(t *testing.T) {
	src := `{"zeta": 1, "alpha": "a", "mid": [0, 1, 2], "flag": true, "none": null, "ratio": 0.5}`

	var attrs Attributes
	if err := json.Unmarshal([]byte(src), &attrs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	wantKeys := []string{"zeta", "alpha", "mid", "flag", "none", "ratio"}
	keys := attrs.Keys()
	if len(keys) != len(wantKeys) {
		t.Fatalf("got %d keys, want %d", len(keys), len(wantKeys))
	}
	for i := range wantKeys {
		if keys[i] != wantKeys[i] {
			t.Errorf("key[%d] = %q, want %q", i, keys[i], wantKeys[i])
		}
	}

	if v, _ := attrs.Get("zeta"); !v.Equal(NewInt(1)) {
		t.Errorf("zeta = %v, want 1", v)
	}
	if v, _ := attrs.Get("mid"); v.Type() != TypeList || len(v.AsList()) != 3 {
		t.Errorf("mid = %v, want list of 3", v)
	}
	if v, ok := attrs.Get("none"); !ok || !v.IsNull() {
		t.Errorf("none = %v (present=%v), want null present", v, ok)
	}

	out, err := json.Marshal(attrs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"zeta":1,"alpha":"a","mid":[0,1,2],"flag":true,"none":null,"ratio":0.5}`
	if string(out) != want {
		t.Errorf("marshal = %s, want %s", out, want)
	}
}

func TestAttributesRejectObjectValues(t *testing.T) {
	var attrs Attributes
	if err := json.Unmarshal([]byte(`{"a": {"b": 1}}`), &attrs); err == nil {
		t.Fatal("expected error for nested object")
	}
}

func TestAttributesCloneIsIndependent(t *testing.T) {
	a := NewAttributes()
	a.Set("ids", NewList([]Value{NewInt(0)}))
	c := a.Clone()
	c.Set("ids", NewList([]Value{NewInt(0), NewInt(1)}))
	c.Set("extra", NewInt(1))

	if v, _ := a.Get("ids"); len(v.AsList()) != 1 {
		t.Errorf("original ids changed: %v", v)
	}
	if a.Has("extra") {
		t.Error("original gained key from clone")
	}
}

func TestCalculationErrorTags(t *testing.T) {
	err := NewZeroDivisionError()
	if !err.HasTag(TagZeroDivision) {
		t.Errorf("expected %s tag", TagZeroDivision)
	}
	if err.HasTag(TagNotANumber) {
		t.Errorf("unexpected %s tag", TagNotANumber)
	}
}

func TestAccessorsOnOtherTypes(t *testing.T) {
	if NewString("7").AsInt() != 0 || NewInt(7).AsString() != "" || NewInt(1).AsList() != nil {
		t.Error("accessors on mismatched types should return zero values")
	}
	if n, ok := NewBool(true).AsNumber(); !ok || n != 1 {
		t.Errorf("AsNumber(true) = %v, %v", n, ok)
	}
	if _, ok := NewString("x").AsNumber(); ok {
		t.Error("string should not be a number")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{NewInt(2), NewDouble(2), true},
		{NewInt(2), NewString("2"), false},
		{NewBool(true), NewInt(1), false},
		{Null, Null, true},
		{NewList([]Value{NewInt(1), NewString("a")}), NewList([]Value{NewDouble(1), NewString("a")}), true},
		{NewList([]Value{NewInt(1)}), NewList(nil), false},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestInterface(t *testing.T) {
	v := NewList([]Value{NewInt(1), NewDouble(0.5), NewBool(true), NewString("s"), Null})
	got := v.Interface().([]interface{})
	want := []interface{}{int64(1), 0.5, true, "s", nil}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}
