// Package model holds the in-memory representation of a protocol schema
// and its per-instance runtime values: nodes, groups, protocols, and the
// flattened final tree the rest of the pipeline operates on.
package model

import "fmt"

// ValueKind tags the variant carried by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt
	KindUInt
	KindFloat
	KindBytes
	KindStr
	KindBool
)

// Value is the runtime value variant used throughout the expression engine
// and node instances: Int | UInt | Float | Bytes | Str | Bool | Null.
type Value struct {
	Kind  ValueKind
	Int   int64
	UInt  uint64
	Float float64
	Bytes []byte
	Str   string
	Bool  bool
}

func Null() Value                { return Value{Kind: KindNull} }
func IntVal(v int64) Value       { return Value{Kind: KindInt, Int: v} }
func UIntVal(v uint64) Value     { return Value{Kind: KindUInt, UInt: v} }
func FloatVal(v float64) Value   { return Value{Kind: KindFloat, Float: v} }
func BytesVal(v []byte) Value    { return Value{Kind: KindBytes, Bytes: v} }
func StrVal(v string) Value      { return Value{Kind: KindStr, Str: v} }
func BoolVal(v bool) Value       { return Value{Kind: KindBool, Bool: v} }

// IsNull reports whether v carries no value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsUint coerces v to an unsigned integer, following the implicit
// coercions spec.md §4.3 allows: Bool<->Int, Str<->Int (numeric), Bytes<->Int
// (big-endian unsigned read).
func (v Value) AsUint() (uint64, error) {
	switch v.Kind {
	case KindUInt:
		return v.UInt, nil
	case KindInt:
		return uint64(v.Int), nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindFloat:
		return uint64(v.Float), nil
	case KindBytes:
		var out uint64
		for _, b := range v.Bytes {
			out = (out << 8) | uint64(b)
		}
		return out, nil
	case KindStr:
		var n uint64
		if _, err := fmt.Sscanf(v.Str, "%d", &n); err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v.Str)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot coerce null to uint")
	}
}

// AsInt coerces v to a signed integer.
func (v Value) AsInt() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindUInt:
		return int64(v.UInt), nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindFloat:
		return int64(v.Float), nil
	case KindStr:
		var n int64
		if _, err := fmt.Sscanf(v.Str, "%d", &n); err != nil {
			return 0, fmt.Errorf("value %q is not numeric", v.Str)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot coerce %v to int", v.Kind)
	}
}

// AsFloat coerces v to a float64.
func (v Value) AsFloat() (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.Float, nil
	case KindInt:
		return float64(v.Int), nil
	case KindUInt:
		return float64(v.UInt), nil
	default:
		return 0, fmt.Errorf("cannot coerce %v to float", v.Kind)
	}
}

// AsBool coerces v to a boolean (Bool<->Int coercion).
func (v Value) AsBool() (bool, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int != 0, nil
	case KindUInt:
		return v.UInt != 0, nil
	default:
		return false, fmt.Errorf("cannot coerce %v to bool", v.Kind)
	}
}

// AsString renders v as text.
func (v Value) AsString() string {
	switch v.Kind {
	case KindStr:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindUInt:
		return fmt.Sprintf("%d", v.UInt)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindBytes:
		return string(v.Bytes)
	default:
		return ""
	}
}

// AsBytes renders v as raw bytes.
func (v Value) AsBytes() []byte {
	if v.Kind == KindBytes {
		return v.Bytes
	}
	return []byte(v.AsString())
}
