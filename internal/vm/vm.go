// Package vm implements the bytecode interpreter: a fetch-decode-execute
// loop over one chunk, pushing and popping values on the heap-owned
// stack. Every fault is returned as a *runtime.Fault so an embedding
// host can catch and report it without terminating.
package vm

import (
	"fmt"
	"io"

	"kiln/internal/bytecode"
	"kiln/internal/runtime"
)

type VM struct {
	chunk *bytecode.Chunk
	ip    int
	heap  *runtime.Heap
	out   io.Writer

	// Globals are keyed by string content: two distinct string
	// allocations with identical bytes resolve to the same slot.
	globals map[string]runtime.Value
}

func New(chunk *bytecode.Chunk, heap *runtime.Heap, out io.Writer) *VM {
	return &VM{
		chunk:   chunk,
		heap:    heap,
		out:     out,
		globals: make(map[string]runtime.Value),
	}
}

// Global reads a global by name; used by embedders and tests.
func (vm *VM) Global(name string) (runtime.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// EachRoot enumerates the global table for the collector. A heap
// object referenced only by a global must survive a cycle.
func (vm *VM) EachRoot(visit func(runtime.Value)) {
	for _, v := range vm.globals {
		visit(v)
	}
}

// Run executes from ip 0 until op_return or the end of code. The
// globals table and the chunk's constant pool are GC roots for the
// duration of the run.
func (vm *VM) Run() *runtime.Fault {
	vm.heap.AddRootSource(vm)
	vm.heap.AddRootSource(vm.chunk)
	defer vm.heap.RemoveRootSource(vm.chunk)
	defer vm.heap.RemoveRootSource(vm)

	for vm.ip < len(vm.chunk.Code) {
		opByte := vm.chunk.Code[vm.ip]
		at := vm.ip
		vm.ip++

		op := bytecode.Opcode(opByte)
		if !op.Valid() {
			return runtime.UnknownOpcodeFault(opByte, at)
		}

		var fault *runtime.Fault
		switch op {
		case bytecode.OpConstant:
			fault = vm.opConstant()
		case bytecode.OpNone:
			fault = vm.heap.Push(runtime.MakeNone())
		case bytecode.OpTrue:
			fault = vm.heap.Push(runtime.MakeBool(true))
		case bytecode.OpFalse:
			fault = vm.heap.Push(runtime.MakeBool(false))
		case bytecode.OpNegate:
			fault = vm.opNegate()
		case bytecode.OpNot:
			fault = vm.opNot()
		case bytecode.OpAdd:
			fault = vm.opAdd()
		case bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide:
			fault = vm.opArithmetic(op)
		case bytecode.OpEqual, bytecode.OpNotEqual:
			fault = vm.opEquality(op)
		case bytecode.OpGreater, bytecode.OpGreaterEqual, bytecode.OpLess, bytecode.OpLessEqual:
			fault = vm.opComparison(op)
		case bytecode.OpPop:
			_, fault = vm.heap.Pop()
		case bytecode.OpPrint:
			fault = vm.opPrint()
		case bytecode.OpJump:
			off, f := vm.readU16()
			if f != nil {
				return f
			}
			fault = vm.jumpTo(vm.ip + int(off))
		case bytecode.OpJumpIfFalse:
			fault = vm.opJumpIfFalse()
		case bytecode.OpLoop:
			off, f := vm.readU16()
			if f != nil {
				return f
			}
			fault = vm.jumpTo(vm.ip - int(off))
		case bytecode.OpGetGlobal:
			fault = vm.opGetGlobal()
		case bytecode.OpSetGlobal:
			fault = vm.opSetGlobal()
		case bytecode.OpDefineGlobal:
			fault = vm.opDefineGlobal()
		case bytecode.OpReturn:
			return nil
		}
		if fault != nil {
			return fault
		}
	}
	return nil
}

// ---- operand decoding ----

func (vm *VM) readByte() (byte, *runtime.Fault) {
	if vm.ip >= len(vm.chunk.Code) {
		return 0, runtime.TruncatedStreamFault(vm.ip)
	}
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b, nil
}

func (vm *VM) readU16() (uint16, *runtime.Fault) {
	if vm.ip+1 >= len(vm.chunk.Code) {
		return 0, runtime.TruncatedStreamFault(vm.ip)
	}
	v := vm.chunk.ReadU16(vm.ip)
	vm.ip += 2
	return v, nil
}

func (vm *VM) readConstant() (runtime.Value, *runtime.Fault) {
	idx, fault := vm.readByte()
	if fault != nil {
		return runtime.Value{}, fault
	}
	if int(idx) >= len(vm.chunk.Constants) {
		return runtime.Value{}, runtime.BadConstantFault(int(idx), len(vm.chunk.Constants))
	}
	return vm.chunk.Constants[idx], nil
}

// ---- instruction handlers ----

func (vm *VM) opConstant() *runtime.Fault {
	v, fault := vm.readConstant()
	if fault != nil {
		return fault
	}
	return vm.heap.Push(v)
}

func (vm *VM) opNegate() *runtime.Fault {
	v, fault := vm.heap.Pop()
	if fault != nil {
		return fault
	}
	if !v.IsNumber() {
		return runtime.UnsupportedOperandFault("negate", v.Kind)
	}
	return vm.heap.Push(runtime.MakeNumber(-v.Num))
}

func (vm *VM) opNot() *runtime.Fault {
	v, fault := vm.heap.Pop()
	if fault != nil {
		return fault
	}
	return vm.heap.Push(runtime.MakeBool(!v.Truthy()))
}

// stringContents extracts byte contents from either string form: a raw
// constant or a heap string object.
func (vm *VM) stringContents(v runtime.Value) (string, bool) {
	switch v.Kind {
	case runtime.VKRawString:
		return v.Raw, true
	case runtime.VKHeapRef:
		obj := vm.heap.Get(v.H)
		if obj.Kind == runtime.OKString {
			return obj.Str, true
		}
	}
	return "", false
}

// opAdd applies the coercion matrix; a is the value pushed first.
//
//	number  + number -> sum
//	string  + string -> concat
//	number  + string -> concat(format(a), b)
//	string  + number -> concat(a, format(b))
//	boolean + string -> concat("true"/"false", b)
//	anything else    -> unsupported-operand fault
func (vm *VM) opAdd() *runtime.Fault {
	b, fault := vm.heap.Pop()
	if fault != nil {
		return fault
	}
	a, fault := vm.heap.Pop()
	if fault != nil {
		return fault
	}

	if a.IsNumber() && b.IsNumber() {
		return vm.heap.Push(runtime.MakeNumber(a.Num + b.Num))
	}

	aStr, aIsStr := vm.stringContents(a)
	bStr, bIsStr := vm.stringContents(b)
	switch {
	case aIsStr && bIsStr:
		return vm.pushConcat(aStr, bStr)
	case a.IsNumber() && bIsStr:
		return vm.pushConcat(runtime.FormatNumber(a.Num), bStr)
	case aIsStr && b.IsNumber():
		return vm.pushConcat(aStr, runtime.FormatNumber(b.Num))
	case a.IsBool() && bIsStr:
		if a.Bool {
			return vm.pushConcat("true", bStr)
		}
		return vm.pushConcat("false", bStr)
	default:
		return runtime.UnsupportedOperandsFault("add", a.Kind, b.Kind)
	}
}

// pushConcat allocates the concatenation as a new heap string. The
// operands are plain Go strings by now, so a cycle triggered by the
// allocation cannot invalidate them.
func (vm *VM) pushConcat(a, b string) *runtime.Fault {
	h := vm.heap.AllocString(a + b)
	return vm.heap.Push(runtime.MakeHeapRef(h))
}

func (vm *VM) popNumericPair(op bytecode.Opcode) (a, b runtime.Value, fault *runtime.Fault) {
	b, fault = vm.heap.Pop()
	if fault != nil {
		return
	}
	a, fault = vm.heap.Pop()
	if fault != nil {
		return
	}
	if !a.IsNumber() || !b.IsNumber() {
		fault = runtime.UnsupportedOperandsFault(op.String(), a.Kind, b.Kind)
	}
	return
}

func (vm *VM) opArithmetic(op bytecode.Opcode) *runtime.Fault {
	a, b, fault := vm.popNumericPair(op)
	if fault != nil {
		return fault
	}
	var result float64
	switch op {
	case bytecode.OpSubtract:
		result = a.Num - b.Num
	case bytecode.OpMultiply:
		result = a.Num * b.Num
	case bytecode.OpDivide:
		// IEEE-754 semantics: division by zero yields an infinity.
		result = a.Num / b.Num
	}
	return vm.heap.Push(runtime.MakeNumber(result))
}

func (vm *VM) opEquality(op bytecode.Opcode) *runtime.Fault {
	b, fault := vm.heap.Pop()
	if fault != nil {
		return fault
	}
	a, fault := vm.heap.Pop()
	if fault != nil {
		return fault
	}
	eq := runtime.Equal(a, b)
	if op == bytecode.OpNotEqual {
		eq = !eq
	}
	return vm.heap.Push(runtime.MakeBool(eq))
}

func (vm *VM) opComparison(op bytecode.Opcode) *runtime.Fault {
	a, b, fault := vm.popNumericPair(op)
	if fault != nil {
		return fault
	}
	var result bool
	switch op {
	case bytecode.OpGreater:
		result = a.Num > b.Num
	case bytecode.OpGreaterEqual:
		result = a.Num >= b.Num
	case bytecode.OpLess:
		result = a.Num < b.Num
	case bytecode.OpLessEqual:
		result = a.Num <= b.Num
	}
	return vm.heap.Push(runtime.MakeBool(result))
}

func (vm *VM) opPrint() *runtime.Fault {
	v, fault := vm.heap.Pop()
	if fault != nil {
		return fault
	}
	fmt.Fprintln(vm.out, vm.heap.FormatValue(v))
	return nil
}

func (vm *VM) opJumpIfFalse() *runtime.Fault {
	off, fault := vm.readU16()
	if fault != nil {
		return fault
	}
	cond, fault := vm.heap.Pop()
	if fault != nil {
		return fault
	}
	if !cond.Truthy() {
		return vm.jumpTo(vm.ip + int(off))
	}
	return nil
}

// jumpTo validates a branch target before moving ip. Chunks loaded
// from disk can carry arbitrary offsets; landing exactly on
// len(code) is a normal halt, anything outside is a fault.
func (vm *VM) jumpTo(target int) *runtime.Fault {
	if target < 0 || target > len(vm.chunk.Code) {
		return runtime.BadJumpFault(target, len(vm.chunk.Code))
	}
	vm.ip = target
	return nil
}

// globalName resolves the operand constant to the global's key.
func (vm *VM) globalName() (string, *runtime.Fault) {
	idx, fault := vm.readByte()
	if fault != nil {
		return "", fault
	}
	if int(idx) >= len(vm.chunk.Constants) {
		return "", runtime.BadConstantFault(int(idx), len(vm.chunk.Constants))
	}
	v := vm.chunk.Constants[idx]
	name, ok := vm.stringContents(v)
	if !ok {
		return "", runtime.NotANameFault(int(idx), v.Kind)
	}
	return name, nil
}

func (vm *VM) opGetGlobal() *runtime.Fault {
	name, fault := vm.globalName()
	if fault != nil {
		return fault
	}
	v, ok := vm.globals[name]
	if !ok {
		return runtime.UndefinedGlobalFault(name)
	}
	return vm.heap.Push(v)
}

// opSetGlobal peeks rather than pops: assignment is an expression and
// its value stays on the stack.
func (vm *VM) opSetGlobal() *runtime.Fault {
	name, fault := vm.globalName()
	if fault != nil {
		return fault
	}
	v, fault := vm.heap.Peek(0)
	if fault != nil {
		return fault
	}
	vm.globals[name] = v
	return nil
}

func (vm *VM) opDefineGlobal() *runtime.Fault {
	name, fault := vm.globalName()
	if fault != nil {
		return fault
	}
	v, fault := vm.heap.Pop()
	if fault != nil {
		return fault
	}
	vm.globals[name] = v
	return nil
}
