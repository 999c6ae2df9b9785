package runtime

import "fmt"

// FaultCode identifies the kind of runtime fault.
type FaultCode int

// Stable fault codes - do not change values.
const (
	FaultStackOverflow       FaultCode = 2001 // RT2001: value stack overflow
	FaultStackUnderflow      FaultCode = 2002 // RT2002: value stack underflow
	FaultUnsupportedOperands FaultCode = 2003 // RT2003: unsupported operand types
	FaultUndefinedGlobal     FaultCode = 2004 // RT2004: undefined global variable
	FaultUnknownOpcode       FaultCode = 2005 // RT2005: unknown opcode in stream
	FaultBadConstant         FaultCode = 2006 // RT2006: constant index out of range
	FaultIndexOutOfBounds    FaultCode = 2007 // RT2007: array index out of bounds
	FaultTruncatedStream     FaultCode = 2008 // RT2008: operand missing at end of code
	FaultBadJump             FaultCode = 2009 // RT2009: jump target outside the code
)

// String returns the code as "RT2001" format.
func (c FaultCode) String() string {
	return fmt.Sprintf("RT%d", c)
}

// Fault is a recoverable runtime error. Execution unwinds to the caller
// of the VM run; the process keeps going.
type Fault struct {
	Code    FaultCode
	Message string
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("fault %s: %s", f.Code, f.Message)
}

func newFault(code FaultCode, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}

func overflowFault(capacity int) *Fault {
	return newFault(FaultStackOverflow, "value stack overflow (capacity %d)", capacity)
}

func underflowFault() *Fault {
	return newFault(FaultStackUnderflow, "value stack underflow")
}

// UnsupportedOperandsFault reports an operator applied to value kinds
// outside its coercion matrix.
func UnsupportedOperandsFault(op string, a, b ValueKind) *Fault {
	return newFault(FaultUnsupportedOperands, "unsupported operand types for %q: %s and %s", op, a, b)
}

// UnsupportedOperandFault is the unary form.
func UnsupportedOperandFault(op string, a ValueKind) *Fault {
	return newFault(FaultUnsupportedOperands, "unsupported operand type for %q: %s", op, a)
}

// UndefinedGlobalFault reports a read of a name never assigned.
func UndefinedGlobalFault(name string) *Fault {
	return newFault(FaultUndefinedGlobal, "undefined variable %q", name)
}

// UnknownOpcodeFault reports an undecodable byte in the instruction
// stream.
func UnknownOpcodeFault(b byte, offset int) *Fault {
	return newFault(FaultUnknownOpcode, "unknown opcode 0x%02x at offset %d", b, offset)
}

// BadConstantFault reports a constant-pool index past the pool.
func BadConstantFault(index, poolLen int) *Fault {
	return newFault(FaultBadConstant, "constant index %d out of range (pool size %d)", index, poolLen)
}

// NotANameFault reports a global-name operand whose constant is not a
// string.
func NotANameFault(index int, kind ValueKind) *Fault {
	return newFault(FaultBadConstant, "constant %d is not a name (%s)", index, kind)
}

// BadJumpFault reports a branch whose target lies outside the code.
func BadJumpFault(target, codeLen int) *Fault {
	return newFault(FaultBadJump, "jump target %d outside code of length %d", target, codeLen)
}

// TruncatedStreamFault reports an operand byte missing at end of code.
func TruncatedStreamFault(offset int) *Fault {
	return newFault(FaultTruncatedStream, "instruction stream truncated at offset %d", offset)
}

func indexFault(index, count int) *Fault {
	return newFault(FaultIndexOutOfBounds, "index %d out of bounds for length %d", index, count)
}
