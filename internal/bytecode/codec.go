package bytecode

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"kiln/internal/runtime"
)

// Schema version of the on-disk chunk format - increment when the
// payload layout changes.
const codecSchemaVersion uint16 = 1

// Constant tags in the serialized pool.
const (
	diskConstNone uint8 = iota
	diskConstBool
	diskConstNumber
	diskConstRawString
	diskConstHeapString
)

type diskConstant struct {
	Tag  uint8
	Bool bool
	Num  float64
	Str  string
}

type diskChunk struct {
	Schema    uint16
	Code      []byte
	Lines     []uint32
	Constants []diskConstant
}

// Encode serializes a chunk to the .knc payload. Heap-string constants
// are flattened to their contents; other heap kinds never appear in a
// constant pool.
func Encode(c *Chunk, h *runtime.Heap) ([]byte, error) {
	payload := diskChunk{
		Schema: codecSchemaVersion,
		Code:   c.Code,
		Lines:  c.Lines,
	}
	for i, v := range c.Constants {
		dc := diskConstant{}
		switch v.Kind {
		case runtime.VKNone:
			dc.Tag = diskConstNone
		case runtime.VKBool:
			dc.Tag = diskConstBool
			dc.Bool = v.Bool
		case runtime.VKNumber:
			dc.Tag = diskConstNumber
			dc.Num = v.Num
		case runtime.VKRawString:
			dc.Tag = diskConstRawString
			dc.Str = v.Raw
		case runtime.VKHeapRef:
			obj := h.Get(v.H)
			if obj.Kind != runtime.OKString {
				return nil, fmt.Errorf("constant %d: cannot serialize %s object", i, obj.Kind)
			}
			dc.Tag = diskConstHeapString
			dc.Str = obj.Str
		default:
			return nil, fmt.Errorf("constant %d: cannot serialize %s value", i, v.Kind)
		}
		payload.Constants = append(payload.Constants, dc)
	}
	return msgpack.Marshal(&payload)
}

// Decode rebuilds a chunk from a .knc payload, re-allocating
// heap-string constants through the heap. The chunk is registered as a
// root source for the duration of decoding, so a cycle triggered by one
// constant allocation cannot sweep an earlier one.
func Decode(data []byte, h *runtime.Heap) (*Chunk, error) {
	var payload diskChunk
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("corrupt chunk payload: %w", err)
	}
	if payload.Schema != codecSchemaVersion {
		return nil, fmt.Errorf("chunk schema %d not supported (want %d)", payload.Schema, codecSchemaVersion)
	}
	if len(payload.Code) != len(payload.Lines) {
		return nil, fmt.Errorf("line table length %d does not match code length %d", len(payload.Lines), len(payload.Code))
	}
	if len(payload.Constants) > MaxConstants {
		return nil, fmt.Errorf("constant pool size %d exceeds %d", len(payload.Constants), MaxConstants)
	}

	c := &Chunk{Code: payload.Code, Lines: payload.Lines}
	h.AddRootSource(c)
	defer h.RemoveRootSource(c)

	for i, dc := range payload.Constants {
		var v runtime.Value
		switch dc.Tag {
		case diskConstNone:
			v = runtime.MakeNone()
		case diskConstBool:
			v = runtime.MakeBool(dc.Bool)
		case diskConstNumber:
			v = runtime.MakeNumber(dc.Num)
		case diskConstRawString:
			v = runtime.MakeRawString(dc.Str)
		case diskConstHeapString:
			v = runtime.MakeHeapRef(h.AllocString(dc.Str))
		default:
			return nil, fmt.Errorf("constant %d: unknown tag %d", i, dc.Tag)
		}
		c.Constants = append(c.Constants, v)
	}
	return c, nil
}
