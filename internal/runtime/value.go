// Package runtime implements Kiln's value model and the garbage
// collected heap that owns every dynamically allocated runtime object,
// including the value stack the VM executes against.
package runtime

import (
	"fmt"
	"strconv"
)

// Handle names one heap object. Handles are monotonically increasing
// and never reused within a run.
type Handle uint32

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	// VKNone represents the none value.
	VKNone ValueKind = iota
	// VKBool represents a boolean value.
	VKBool
	// VKNumber represents an IEEE-754 double.
	VKNumber
	// VKHeapRef references a heap object by handle.
	VKHeapRef
	// VKRawString is a borrowed string slice that has not been
	// heap-allocated yet; it exists transiently during literal
	// compilation and in the constant pool.
	VKRawString
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case VKNone:
		return "none"
	case VKBool:
		return "bool"
	case VKNumber:
		return "number"
	case VKHeapRef:
		return "object"
	case VKRawString:
		return "string"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a tagged runtime value.
type Value struct {
	Kind ValueKind
	Bool bool    // VKBool
	Num  float64 // VKNumber
	H    Handle  // VKHeapRef
	Raw  string  // VKRawString
}

func MakeNone() Value {
	return Value{Kind: VKNone}
}

func MakeBool(b bool) Value {
	return Value{Kind: VKBool, Bool: b}
}

func MakeNumber(f float64) Value {
	return Value{Kind: VKNumber, Num: f}
}

func MakeHeapRef(h Handle) Value {
	return Value{Kind: VKHeapRef, H: h}
}

func MakeRawString(s string) Value {
	return Value{Kind: VKRawString, Raw: s}
}

func (v Value) IsNone() bool      { return v.Kind == VKNone }
func (v Value) IsBool() bool      { return v.Kind == VKBool }
func (v Value) IsNumber() bool    { return v.Kind == VKNumber }
func (v Value) IsHeapRef() bool   { return v.Kind == VKHeapRef }
func (v Value) IsRawString() bool { return v.Kind == VKRawString }

// As* narrowing requires the caller to have established the tag first;
// misuse is a programming error, not a recoverable fault.

func (v Value) AsBool() bool {
	if v.Kind != VKBool {
		panic(fmt.Sprintf("AsBool on %s value", v.Kind))
	}
	return v.Bool
}

func (v Value) AsNumber() float64 {
	if v.Kind != VKNumber {
		panic(fmt.Sprintf("AsNumber on %s value", v.Kind))
	}
	return v.Num
}

func (v Value) AsHeapRef() Handle {
	if v.Kind != VKHeapRef {
		panic(fmt.Sprintf("AsHeapRef on %s value", v.Kind))
	}
	return v.H
}

func (v Value) AsRawString() string {
	if v.Kind != VKRawString {
		panic(fmt.Sprintf("AsRawString on %s value", v.Kind))
	}
	return v.Raw
}

// Truthy reports the value's boolean interpretation: none and false are
// falsy, zero is falsy, a raw string is falsy only when empty, and
// every heap object is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case VKNone:
		return false
	case VKBool:
		return v.Bool
	case VKNumber:
		return v.Num != 0
	case VKRawString:
		return v.Raw != ""
	case VKHeapRef:
		return true
	default:
		return false
	}
}

// Equal compares same-tag values structurally for primitives and by
// reference identity for heap objects. Mixed tags are never equal.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case VKNone:
		return true
	case VKBool:
		return a.Bool == b.Bool
	case VKNumber:
		return a.Num == b.Num
	case VKRawString:
		return a.Raw == b.Raw
	case VKHeapRef:
		return a.H == b.H
	default:
		return false
	}
}

// FormatNumber renders a double with default decimal formatting, the
// same formatting used for string coercion in the add operator.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
