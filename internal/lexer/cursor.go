package lexer

import (
	"kiln/internal/source"
)

// Cursor is a byte-oriented reader over one source file.
type Cursor struct {
	file *source.File
	off  uint32
}

func NewCursor(file *source.File) Cursor {
	return Cursor{file: file}
}

func (c *Cursor) EOF() bool {
	return int(c.off) >= len(c.file.Content)
}

// Peek returns the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.file.Content[c.off]
}

// PeekAt returns the byte n positions ahead, or 0 past EOF.
func (c *Cursor) PeekAt(n uint32) byte {
	if int(c.off+n) >= len(c.file.Content) {
		return 0
	}
	return c.file.Content[c.off+n]
}

func (c *Cursor) Advance() {
	if !c.EOF() {
		c.off++
	}
}

func (c *Cursor) Offset() uint32 {
	return c.off
}

// Slice returns source text between two offsets.
func (c *Cursor) Slice(start, end uint32) string {
	return string(c.file.Content[start:end])
}

// SpanFrom builds a span from start to the current offset.
func (c *Cursor) SpanFrom(start uint32) source.Span {
	return source.Span{File: c.file.ID, Start: start, End: c.off}
}
