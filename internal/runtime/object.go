package runtime

import "fmt"

// ObjectKind identifies the concrete type of a heap object.
type ObjectKind uint8

const (
	// OKString is an immutable heap-owned byte buffer.
	OKString ObjectKind = iota
	// OKArray is a mutable buffer of Values with logical count and
	// physical capacity.
	OKArray
	// OKFunction is reserved; no constructor exists yet.
	OKFunction
	// OKClass is reserved; no constructor exists yet.
	OKClass
	// OKInstance is reserved; no constructor exists yet.
	OKInstance
)

func (k ObjectKind) String() string {
	switch k {
	case OKString:
		return "string"
	case OKArray:
		return "array"
	case OKFunction:
		return "function"
	case OKClass:
		return "class"
	case OKInstance:
		return "instance"
	default:
		return fmt.Sprintf("ObjectKind(%d)", k)
	}
}

// Object is the common header every heap object embeds, followed by the
// payload for its kind. A Handle always resolves to the header first;
// the Kind tag gates the downcast to the payload fields.
type Object struct {
	Kind   ObjectKind
	Marked bool

	Str   string  // OKString: owned copy of the contents
	Elems []Value // OKArray: physical buffer, len(Elems) is the capacity
	Count int     // OKArray: logical length
}

// Approximate per-object costs for allocation accounting. The exact
// numbers only need to be symmetric between alloc and free.
const (
	objectHeaderBytes = 48
	valueSlotBytes    = 40
)

func (o *Object) size() int {
	switch o.Kind {
	case OKString:
		return objectHeaderBytes + len(o.Str)
	case OKArray:
		return objectHeaderBytes + len(o.Elems)*valueSlotBytes
	default:
		return objectHeaderBytes
	}
}
