package bytecode

import (
	"fmt"
	"strings"

	"kiln/internal/runtime"
)

// Disassemble renders a human-readable listing of the chunk. Heap
// access is needed to show the contents of heap-string constants.
func Disassemble(c *Chunk, name string, h *runtime.Heap) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = disassembleInstruction(&sb, c, offset, h)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, c *Chunk, offset int, h *runtime.Heap) int {
	fmt.Fprintf(sb, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", c.Lines[offset])
	}

	op := Opcode(c.Code[offset])
	if !op.Valid() {
		fmt.Fprintf(sb, "unknown 0x%02x\n", c.Code[offset])
		return offset + 1
	}

	switch op {
	case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal:
		if offset+1 >= len(c.Code) {
			fmt.Fprintf(sb, "%-16s <truncated>\n", op)
			return len(c.Code)
		}
		idx := int(c.Code[offset+1])
		fmt.Fprintf(sb, "%-16s %3d", op, idx)
		if idx < len(c.Constants) {
			fmt.Fprintf(sb, " '%s'", h.FormatValue(c.Constants[idx]))
		}
		sb.WriteByte('\n')
		return offset + 2
	case OpJump, OpJumpIfFalse, OpLoop:
		if offset+2 >= len(c.Code) {
			fmt.Fprintf(sb, "%-16s <truncated>\n", op)
			return len(c.Code)
		}
		delta := int(c.ReadU16(offset + 1))
		target := offset + 3 + delta
		if op == OpLoop {
			target = offset + 3 - delta
		}
		fmt.Fprintf(sb, "%-16s %4d -> %d\n", op, delta, target)
		return offset + 3
	default:
		fmt.Fprintf(sb, "%s\n", op)
		return offset + 1
	}
}
