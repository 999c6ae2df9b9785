package bytecode

import (
	"errors"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"kiln/internal/runtime"
)

func TestWritePairsCodeAndLines(t *testing.T) {
	c := NewChunk()
	c.WriteOpcode(OpNone, 1)
	c.WriteByte(0x42, 2)
	c.WriteU16(0x0102, 3)

	if len(c.Code) != len(c.Lines) {
		t.Fatalf("parallel arrays diverged: %d code, %d lines", len(c.Code), len(c.Lines))
	}
	if c.Lines[0] != 1 || c.Lines[1] != 2 || c.Lines[2] != 3 || c.Lines[3] != 3 {
		t.Fatalf("lines: %v", c.Lines)
	}
	if c.ReadU16(2) != 0x0102 {
		t.Fatalf("u16 roundtrip: got %#x", c.ReadU16(2))
	}
	c.PatchU16(2, 0xBEEF)
	if c.ReadU16(2) != 0xBEEF {
		t.Fatalf("patch: got %#x", c.ReadU16(2))
	}
}

func TestWriteConstantEmitsPairedIndex(t *testing.T) {
	c := NewChunk()
	if err := c.WriteConstant(runtime.MakeNumber(1.2), 7); err != nil {
		t.Fatalf("write constant: %v", err)
	}
	if len(c.Code) != 2 || Opcode(c.Code[0]) != OpConstant || c.Code[1] != 0 {
		t.Fatalf("encoding: %v", c.Code)
	}
	if len(c.Constants) != 1 {
		t.Fatalf("pool: %d entries", len(c.Constants))
	}
}

func TestConstantPoolCap(t *testing.T) {
	c := NewChunk()
	for i := 0; i < MaxConstants; i++ {
		if _, err := c.AddConstant(runtime.MakeNumber(float64(i))); err != nil {
			t.Fatalf("constant %d rejected: %v", i, err)
		}
	}
	_, err := c.AddConstant(runtime.MakeNumber(256))
	if !errors.Is(err, ErrConstantPoolFull) {
		t.Fatalf("257th constant: got %v, want ErrConstantPoolFull", err)
	}
	if len(c.Constants) != MaxConstants {
		t.Fatalf("pool must not grow past the cap: %d", len(c.Constants))
	}
}

func TestCodecRoundTrip(t *testing.T) {
	h := runtime.New(runtime.Config{})

	c := NewChunk()
	if err := c.WriteConstant(runtime.MakeNumber(4.5), 1); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteConstant(runtime.MakeHeapRef(h.AllocString("greeting")), 1); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteConstant(runtime.MakeRawString("name"), 2); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteConstant(runtime.MakeBool(true), 2); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteConstant(runtime.MakeNone(), 3); err != nil {
		t.Fatal(err)
	}
	c.WriteOpcode(OpReturn, 3)

	data, err := Encode(c, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	h2 := runtime.New(runtime.Config{})
	c2, err := Decode(data, h2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if string(c2.Code) != string(c.Code) {
		t.Fatal("code bytes changed")
	}
	if len(c2.Lines) != len(c.Lines) {
		t.Fatal("line table changed")
	}
	if len(c2.Constants) != 5 {
		t.Fatalf("constants: %d", len(c2.Constants))
	}
	if c2.Constants[0].AsNumber() != 4.5 {
		t.Fatal("number constant")
	}
	if got := h2.GetString(c2.Constants[1].AsHeapRef()); got != "greeting" {
		t.Fatalf("heap string constant: %q", got)
	}
	if c2.Constants[2].AsRawString() != "name" {
		t.Fatal("raw string constant")
	}
	if !c2.Constants[3].AsBool() {
		t.Fatal("bool constant")
	}
	if !c2.Constants[4].IsNone() {
		t.Fatal("none constant")
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	h := runtime.New(runtime.Config{})
	if _, err := Decode([]byte("not msgpack at all"), h); err == nil {
		t.Fatal("garbage must not decode")
	}

	data, err := Encode(NewChunk(), h)
	if err != nil {
		t.Fatal(err)
	}
	// Flip the schema by re-encoding a mismatched payload.
	var payload diskChunk
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		t.Fatal(err)
	}
	payload.Schema = 99
	bad, err := msgpack.Marshal(&payload)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(bad, h); err == nil {
		t.Fatal("wrong schema must not decode")
	}
}

func TestDisassembleListing(t *testing.T) {
	h := runtime.New(runtime.Config{})
	c := NewChunk()
	if err := c.WriteConstant(runtime.MakeNumber(1), 1); err != nil {
		t.Fatal(err)
	}
	c.WriteOpcode(OpJumpIfFalse, 1)
	c.WriteU16(3, 1)
	c.WriteOpcode(OpPrint, 2)
	c.WriteOpcode(OpReturn, 2)

	out := Disassemble(c, "test", h)
	for _, want := range []string{"== test ==", "constant", "'1'", "jump_if_false", "print", "return"} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing missing %q:\n%s", want, out)
		}
	}
}
