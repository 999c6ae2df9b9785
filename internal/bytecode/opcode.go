// Package bytecode defines the instruction encoding shared by the
// compiler and the VM: one opcode byte, followed by one operand byte
// for constant/global indexes or a big-endian two-byte offset for
// control flow.
package bytecode

import "fmt"

// Opcode is a single instruction tag.
type Opcode byte

const (
	OpConstant Opcode = iota // operand: 1-byte constant-pool index
	OpNone
	OpTrue
	OpFalse
	OpNegate
	OpNot
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpPop
	OpPrint
	OpJump        // operand: 2-byte forward offset
	OpJumpIfFalse // operand: 2-byte forward offset
	OpLoop        // operand: 2-byte backward offset
	OpGetGlobal   // operand: 1-byte constant-pool index (name)
	OpSetGlobal   // operand: 1-byte constant-pool index (name)
	OpDefineGlobal
	OpReturn
)

var opcodeNames = [...]string{
	OpConstant:     "constant",
	OpNone:         "none",
	OpTrue:         "true",
	OpFalse:        "false",
	OpNegate:       "negate",
	OpNot:          "not",
	OpAdd:          "add",
	OpSubtract:     "subtract",
	OpMultiply:     "multiply",
	OpDivide:       "divide",
	OpEqual:        "equal",
	OpNotEqual:     "not_equal",
	OpGreater:      "greater",
	OpGreaterEqual: "greater_equal",
	OpLess:         "less",
	OpLessEqual:    "less_equal",
	OpPop:          "pop",
	OpPrint:        "print",
	OpJump:         "jump",
	OpJumpIfFalse:  "jump_if_false",
	OpLoop:         "loop",
	OpGetGlobal:    "get_global",
	OpSetGlobal:    "set_global",
	OpDefineGlobal: "define_global",
	OpReturn:       "return",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// Valid reports whether the byte decodes to a known opcode.
func (op Opcode) Valid() bool {
	return int(op) < len(opcodeNames)
}
