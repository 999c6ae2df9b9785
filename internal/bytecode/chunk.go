package bytecode

import (
	"errors"

	"fortio.org/safecast"

	"kiln/internal/runtime"
)

// MaxConstants bounds the constant pool; indexes are one byte wide.
const MaxConstants = 256

// ErrConstantPoolFull is returned when a 257th constant is added. The
// compiler reports it as a structured compile error; the index is never
// silently truncated or wrapped.
var ErrConstantPoolFull = errors.New("too many constants in one chunk (max 256)")

// Chunk is one compilation unit: an append-only instruction stream, a
// constant pool, and a line table parallel to the code, one entry per
// emitted byte.
type Chunk struct {
	Code      []byte
	Constants []runtime.Value
	Lines     []uint32
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:  make([]byte, 0, 64),
		Lines: make([]uint32, 0, 64),
	}
}

// WriteByte appends one byte and its source line. Code and Lines grow
// in lockstep, never independently.
func (c *Chunk) WriteByte(b byte, line uint32) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOpcode appends an opcode byte.
func (c *Chunk) WriteOpcode(op Opcode, line uint32) {
	c.WriteByte(byte(op), line)
}

// WriteU16 appends a big-endian two-byte operand.
func (c *Chunk) WriteU16(v uint16, line uint32) {
	c.WriteByte(byte(v>>8), line)
	c.WriteByte(byte(v), line)
}

// ReadU16 decodes the big-endian operand at offset.
func (c *Chunk) ReadU16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

// PatchU16 overwrites a previously written two-byte operand.
func (c *Chunk) PatchU16(offset int, v uint16) {
	c.Code[offset] = byte(v >> 8)
	c.Code[offset+1] = byte(v)
}

// AddConstant appends a value to the pool and returns its index.
func (c *Chunk) AddConstant(v runtime.Value) (byte, error) {
	if len(c.Constants) >= MaxConstants {
		return 0, ErrConstantPoolFull
	}
	idx, err := safecast.Conv[byte](len(c.Constants))
	if err != nil {
		return 0, ErrConstantPoolFull
	}
	c.Constants = append(c.Constants, v)
	return idx, nil
}

// WriteConstant registers the constant and emits op_constant with its
// index. Compilers must never emit a bare op_constant another way.
func (c *Chunk) WriteConstant(v runtime.Value, line uint32) error {
	idx, err := c.AddConstant(v)
	if err != nil {
		return err
	}
	c.WriteOpcode(OpConstant, line)
	c.WriteByte(idx, line)
	return nil
}

// Len returns the number of code bytes.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// EachRoot enumerates heap references held by the constant pool, so a
// chunk can be registered as a GC root source while it is alive.
func (c *Chunk) EachRoot(visit func(runtime.Value)) {
	for _, v := range c.Constants {
		visit(v)
	}
}
