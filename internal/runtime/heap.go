package runtime

import (
	"fmt"
	"strings"
)

const (
	// DefaultStackCapacity bounds the value stack.
	DefaultStackCapacity = 256
	// DefaultGCThreshold is the initial nextGC in bytes.
	DefaultGCThreshold = 1 << 20

	arrayFirstCapacity = 8
)

// RootSource enumerates extra GC roots beyond the value stack. The VM
// registers its global table and the chunk constant pool this way.
type RootSource interface {
	EachRoot(visit func(Value))
}

// Config tunes a Heap. Zero fields fall back to defaults.
type Config struct {
	StackCapacity int
	GCThreshold   int
}

// Heap owns every runtime object, the value stack, and the mark-sweep
// collector. One Heap serves one compile+execute run.
type Heap struct {
	objs  map[Handle]*Object
	order []Handle // insertion order, drives the sweep
	next  Handle

	bytesAllocated int
	nextGC         int

	stack []Value
	top   int

	roots []RootSource

	cycles int
	freed  int
}

func New(cfg Config) *Heap {
	if cfg.StackCapacity <= 0 {
		cfg.StackCapacity = DefaultStackCapacity
	}
	if cfg.GCThreshold <= 0 {
		cfg.GCThreshold = DefaultGCThreshold
	}
	return &Heap{
		objs:   make(map[Handle]*Object, 128),
		next:   1,
		nextGC: cfg.GCThreshold,
		stack:  make([]Value, cfg.StackCapacity),
	}
}

// ---- allocation ----

// maybeCollect runs a cycle when the next allocation would cross the
// threshold. It runs before the new object is registered, so a cycle
// never observes an in-flight object; callers must have every value
// they still care about reachable from a root.
func (h *Heap) maybeCollect(incoming int) {
	if h.bytesAllocated+incoming > h.nextGC {
		h.Collect()
	}
}

func (h *Heap) register(obj *Object) Handle {
	handle := h.next
	h.next++
	h.objs[handle] = obj
	h.order = append(h.order, handle)
	h.bytesAllocated += obj.size()
	return handle
}

// AllocString copies s into heap-owned memory; the heap never aliases
// caller memory for string contents.
func (h *Heap) AllocString(s string) Handle {
	h.maybeCollect(objectHeaderBytes + len(s))
	owned := string(append([]byte(nil), s...))
	return h.register(&Object{Kind: OKString, Str: owned})
}

// AllocArray returns a zero-length array with the given initial
// capacity; zero capacity yields an empty backing buffer.
func (h *Heap) AllocArray(capacity int) Handle {
	h.maybeCollect(objectHeaderBytes + capacity*valueSlotBytes)
	return h.register(&Object{Kind: OKArray, Elems: make([]Value, capacity)})
}

// Get resolves a handle to its object header. An unknown handle means
// corrupted GC state and is a programming error, not a fault.
func (h *Heap) Get(handle Handle) *Object {
	obj, ok := h.objs[handle]
	if !ok {
		panic(fmt.Sprintf("invalid handle %d", handle))
	}
	return obj
}

// GetString returns the contents of a string object.
func (h *Heap) GetString(handle Handle) string {
	obj := h.Get(handle)
	if obj.Kind != OKString {
		panic(fmt.Sprintf("GetString on %s object", obj.Kind))
	}
	return obj.Str
}

// ---- arrays ----

func (h *Heap) arrayObject(handle Handle) *Object {
	obj := h.Get(handle)
	if obj.Kind != OKArray {
		panic(fmt.Sprintf("array operation on %s object", obj.Kind))
	}
	return obj
}

// ArrayGet reads an element, bounds-checked against the logical count.
func (h *Heap) ArrayGet(handle Handle, index int) (Value, *Fault) {
	obj := h.arrayObject(handle)
	if index < 0 || index >= obj.Count {
		return Value{}, indexFault(index, obj.Count)
	}
	return obj.Elems[index], nil
}

// ArraySet writes an element, bounds-checked against the logical count.
func (h *Heap) ArraySet(handle Handle, index int, v Value) *Fault {
	obj := h.arrayObject(handle)
	if index < 0 || index >= obj.Count {
		return indexFault(index, obj.Count)
	}
	obj.Elems[index] = v
	return nil
}

// ArrayAppend grows the backing buffer geometrically: first growth to
// 8 slots, then doubling. Growth may trigger a cycle, so both the
// array and v must already be reachable from a root.
func (h *Heap) ArrayAppend(handle Handle, v Value) {
	obj := h.arrayObject(handle)
	if obj.Count == len(obj.Elems) {
		newCap := arrayFirstCapacity
		if len(obj.Elems) >= arrayFirstCapacity {
			newCap = len(obj.Elems) * 2
		}
		h.maybeCollect((newCap - len(obj.Elems)) * valueSlotBytes)
		grown := make([]Value, newCap)
		copy(grown, obj.Elems)
		h.bytesAllocated += (newCap - len(obj.Elems)) * valueSlotBytes
		obj.Elems = grown
	}
	obj.Elems[obj.Count] = v
	obj.Count++
}

// ArrayLen returns the logical element count.
func (h *Heap) ArrayLen(handle Handle) int {
	return h.arrayObject(handle).Count
}

// ---- value stack ----

// Push appends a value; exceeding capacity is a stack-overflow fault.
func (h *Heap) Push(v Value) *Fault {
	if h.top == len(h.stack) {
		return overflowFault(len(h.stack))
	}
	h.stack[h.top] = v
	h.top++
	return nil
}

// Pop removes and returns the top value.
func (h *Heap) Pop() (Value, *Fault) {
	if h.top == 0 {
		return Value{}, underflowFault()
	}
	h.top--
	return h.stack[h.top], nil
}

// Peek returns the value distance slots below the top without
// removing it; Peek(0) is the top of stack.
func (h *Heap) Peek(distance int) (Value, *Fault) {
	idx := h.top - 1 - distance
	if idx < 0 {
		return Value{}, underflowFault()
	}
	return h.stack[idx], nil
}

// StackLen returns the live stack depth.
func (h *Heap) StackLen() int {
	return h.top
}

// StackCapacity returns the fixed maximum depth.
func (h *Heap) StackCapacity() int {
	return len(h.stack)
}

// ---- roots ----

// AddRootSource registers an extra root enumerator for future cycles.
func (h *Heap) AddRootSource(rs RootSource) {
	h.roots = append(h.roots, rs)
}

// RemoveRootSource unregisters a previously added root source.
func (h *Heap) RemoveRootSource(rs RootSource) {
	for i, existing := range h.roots {
		if existing == rs {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// ---- collection ----

// Collect runs one full mark-sweep cycle and doubles the threshold
// from the surviving byte count.
func (h *Heap) Collect() {
	h.mark()
	h.sweep()
	h.nextGC = h.bytesAllocated * 2
	h.cycles++
}

// mark walks the object graph from the live stack and every registered
// root source, using an explicit worklist so call depth stays bounded
// regardless of container nesting.
func (h *Heap) mark() {
	work := make([]Handle, 0, 64)
	visit := func(v Value) {
		if v.Kind == VKHeapRef {
			work = append(work, v.H)
		}
	}

	for i := 0; i < h.top; i++ {
		visit(h.stack[i])
	}
	for _, rs := range h.roots {
		rs.EachRoot(visit)
	}

	for len(work) > 0 {
		handle := work[len(work)-1]
		work = work[:len(work)-1]
		obj, ok := h.objs[handle]
		if !ok || obj.Marked {
			continue
		}
		obj.Marked = true
		if obj.Kind == OKArray {
			for i := 0; i < obj.Count; i++ {
				visit(obj.Elems[i])
			}
		}
	}
}

// sweep frees every unmarked object exactly once and clears mark bits
// on the survivors.
func (h *Heap) sweep() {
	live := h.order[:0]
	for _, handle := range h.order {
		obj := h.objs[handle]
		if obj.Marked {
			obj.Marked = false
			live = append(live, handle)
			continue
		}
		h.bytesAllocated -= obj.size()
		h.freed++
		obj.Str = ""
		obj.Elems = nil
		obj.Count = 0
		delete(h.objs, handle)
	}
	h.order = live
}

// ---- stats ----

func (h *Heap) BytesAllocated() int { return h.bytesAllocated }
func (h *Heap) NextGC() int         { return h.nextGC }
func (h *Heap) ObjectCount() int    { return len(h.order) }
func (h *Heap) Cycles() int         { return h.cycles }
func (h *Heap) FreedCount() int     { return h.freed }

// Contains reports whether the handle is still registered. Useful for
// reachability assertions.
func (h *Heap) Contains(handle Handle) bool {
	_, ok := h.objs[handle]
	return ok
}

// ---- display ----

// FormatValue renders a value's display form. Pure with respect to
// heap state; nothing is allocated.
func (h *Heap) FormatValue(v Value) string {
	switch v.Kind {
	case VKNone:
		return "none"
	case VKBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case VKNumber:
		return FormatNumber(v.Num)
	case VKRawString:
		return v.Raw
	case VKHeapRef:
		return h.formatObject(v.H)
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

func (h *Heap) formatObject(handle Handle) string {
	obj := h.Get(handle)
	switch obj.Kind {
	case OKString:
		return obj.Str
	case OKArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i := 0; i < obj.Count; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(h.FormatValue(obj.Elems[i]))
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return fmt.Sprintf("<%s>", obj.Kind)
	}
}
