package types

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the concrete type held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindMap
)

// Value is a closed variant for tag, metadata, and extra-field values.
// Restricting the payload to a small set of kinds keeps JSON serialization
// deterministic across spans, log entries, and SLA measurements.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	b    bool
	m    Attributes
}

// Attributes is an open map of string keys to closed variant values.
type Attributes map[string]Value

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int creates an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float creates a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Map creates a nested map value.
func Map(m Attributes) Value { return Value{kind: KindMap, m: m} }

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether the value is unset.
func (v Value) IsNil() bool { return v.kind == KindNil }

// Str returns the string payload, or "" for non-string kinds.
func (v Value) Str() string { return v.str }

// Int64 returns the integer payload, or 0 for non-int kinds.
func (v Value) Int64() int64 { return v.i }

// Float64 returns the numeric payload for int and float kinds.
func (v Value) Float64() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Boolean returns the bool payload, or false for non-bool kinds.
func (v Value) Boolean() bool { return v.b }

// MapVal returns the nested map payload, or nil for non-map kinds.
func (v Value) MapVal() Attributes { return v.m }

// Any converts the value to its natural Go representation.
func (v Value) Any() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindMap:
		return v.m.ToMap()
	default:
		return nil
	}
}

// FromAny converts an arbitrary JSON-shaped value into a Value. Unknown
// types are stringified so that nothing is silently dropped.
func FromAny(val interface{}) Value {
	switch t := val.(type) {
	case nil:
		return Value{}
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint32:
		return Int(int64(t))
	case uint64:
		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case map[string]interface{}:
		return Map(FromMap(t))
	case Attributes:
		return Map(t)
	case Value:
		return t
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// MarshalJSON encodes the value as its natural JSON representation.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes arbitrary JSON into the closed variant.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// FromMap converts a plain JSON-shaped map into Attributes.
func FromMap(m map[string]interface{}) Attributes {
	if m == nil {
		return Attributes{}
	}
	attrs := make(Attributes, len(m))
	for k, val := range m {
		attrs[k] = FromAny(val)
	}
	return attrs
}

// ToMap converts Attributes back to a plain map for JSON consumers.
func (a Attributes) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(a))
	for k, v := range a {
		out[k] = v.Any()
	}
	return out
}

// Clone returns a copy of the attribute map. Nested maps are copied too.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		if v.kind == KindMap {
			out[k] = Map(v.m.Clone())
			continue
		}
		out[k] = v
	}
	return out
}

// Merge copies entries from other into a, overwriting existing keys.
func (a Attributes) Merge(other Attributes) {
	for k, v := range other {
		a[k] = v
	}
}
