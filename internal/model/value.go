package model

import (
	"encoding/json"
	"fmt"
)

// ValueKind discriminates the variant held by a Value.
type ValueKind int

const (
	// KindNull represents an absent/null value.
	KindNull ValueKind = iota
	// KindString represents a string scalar.
	KindString
	// KindNumber represents a numeric scalar (stored as float64, the JSON
	// numeric representation, to preserve both int and float inputs).
	KindNumber
	// KindBool represents a boolean scalar.
	KindBool
	// KindArray represents an ordered sequence of Values.
	KindArray
	// KindObject represents a string-keyed mapping of Values.
	KindObject
)

// Value is the tagged union used for layout `variables` entries and for the
// variable resolver's return type (spec §9: "avoid coercing everything to
// strings before substitution, or numeric fields will break").
type Value struct {
	Kind   ValueKind
	Str    string
	Num    float64
	Bool   bool
	Array  []Value
	Object map[string]Value
}

// NewString builds a string Value.
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }

// NewNumber builds a numeric Value.
func NewNumber(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// NewBool builds a boolean Value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewArray builds an array Value.
func NewArray(v []Value) Value { return Value{Kind: KindArray, Array: v} }

// NewObject builds an object Value.
func NewObject(v map[string]Value) Value { return Value{Kind: KindObject, Object: v} }

// IsScalar reports whether the Value is a string, number, bool, or null.
func (v Value) IsScalar() bool {
	switch v.Kind {
	case KindString, KindNumber, KindBool, KindNull:
		return true
	default:
		return false
	}
}

// String renders the Value's natural string representation, used when a
// reference is interpolated inside a larger string (spec §4.2).
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindString:
		return v.Str
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		if v.Num == float64(int64(v.Num)) {
			return fmt.Sprintf("%d", int64(v.Num))
		}
		return fmt.Sprintf("%g", v.Num)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// ValueFromAny converts a decoded JSON/YAML interface{} tree (map[string]any,
// []any, string, float64/int, bool, nil) into a Value tree.
func ValueFromAny(in interface{}) Value {
	switch t := in.(type) {
	case nil:
		return Value{Kind: KindNull}
	case string:
		return NewString(t)
	case bool:
		return NewBool(t)
	case float64:
		return NewNumber(t)
	case int:
		return NewNumber(float64(t))
	case int64:
		return NewNumber(float64(t))
	case []interface{}:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = ValueFromAny(e)
		}
		return NewArray(arr)
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			obj[k] = ValueFromAny(e)
		}
		return NewObject(obj)
	default:
		return NewString(fmt.Sprintf("%v", t))
	}
}

// Any converts the Value back into a plain interface{} tree suitable for
// json.Marshal.
func (v Value) Any() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindArray:
		out := make([]interface{}, len(v.Array))
		for i, e := range v.Array {
			out[i] = e.Any()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.Object))
		for k, e := range v.Object {
			out[k] = e.Any()
		}
		return out
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueFromAny(raw)
	return nil
}

// Equal reports deep structural equality between two Values, used by the
// diff engine's leaf comparisons.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindString:
		return a.Str == b.Str
	case KindNumber:
		return a.Num == b.Num
	case KindBool:
		return a.Bool == b.Bool
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.Object) != len(b.Object) {
			return false
		}
		for k, av := range a.Object {
			bv, ok := b.Object[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}
