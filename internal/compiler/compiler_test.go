package compiler

import (
	"fmt"
	"strings"
	"testing"

	"kiln/internal/bytecode"
	"kiln/internal/diag"
	"kiln/internal/parser"
	"kiln/internal/runtime"
	"kiln/internal/source"
)

func compileSrc(t *testing.T, src string) (*bytecode.Chunk, *runtime.Heap, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kn", []byte(src))
	bag := diag.NewBag()
	heap := runtime.New(runtime.Config{})
	stmts := parser.Parse(fs.Get(id), bag)
	chunk := Compile(stmts, heap, fs, bag)
	return chunk, heap, bag
}

func mustCompile(t *testing.T, src string) (*bytecode.Chunk, *runtime.Heap) {
	t.Helper()
	chunk, heap, bag := compileSrc(t, src)
	if chunk == nil {
		t.Fatalf("compile failed: %d errors", bag.TotalErrorCount())
	}
	return chunk, heap
}

func TestCompileArithmetic(t *testing.T) {
	chunk, _ := mustCompile(t, "1 + 2;")
	want := []byte{
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpAdd),
		byte(bytecode.OpReturn),
	}
	if string(chunk.Code) != string(want) {
		t.Fatalf("code: got %v, want %v", chunk.Code, want)
	}
	// Left operand registered first: evaluation order is left to right.
	if chunk.Constants[0].AsNumber() != 1 || chunk.Constants[1].AsNumber() != 2 {
		t.Fatalf("constants: %v", chunk.Constants)
	}
	if len(chunk.Lines) != len(chunk.Code) {
		t.Fatalf("line table length %d != code length %d", len(chunk.Lines), len(chunk.Code))
	}
}

func TestCompileChunkEndsWithReturn(t *testing.T) {
	chunk, _ := mustCompile(t, "")
	if len(chunk.Code) != 1 || bytecode.Opcode(chunk.Code[0]) != bytecode.OpReturn {
		t.Fatalf("empty unit: got %v", chunk.Code)
	}
}

func TestCompileLiterals(t *testing.T) {
	chunk, heap := mustCompile(t, `"hi"; true; false; none;`)
	want := []byte{
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpTrue),
		byte(bytecode.OpFalse),
		byte(bytecode.OpNone),
		byte(bytecode.OpReturn),
	}
	if string(chunk.Code) != string(want) {
		t.Fatalf("code: got %v, want %v", chunk.Code, want)
	}
	s := chunk.Constants[0]
	if !s.IsHeapRef() {
		t.Fatalf("string literal must be a heap constant: %v", s.Kind)
	}
	if heap.GetString(s.AsHeapRef()) != "hi" {
		t.Fatalf("string contents: %q", heap.GetString(s.AsHeapRef()))
	}
}

func TestCompileGlobalNameDedup(t *testing.T) {
	chunk, _ := mustCompile(t, "a; a; a = 1;")
	// One raw-string name constant serves every site.
	names := 0
	for _, c := range chunk.Constants {
		if c.IsRawString() && c.AsRawString() == "a" {
			names++
		}
	}
	if names != 1 {
		t.Fatalf("name constants: got %d, want 1", names)
	}
}

func TestCompileAssignment(t *testing.T) {
	chunk, _ := mustCompile(t, "x = 10;")
	want := []byte{
		byte(bytecode.OpConstant), 0, // value first
		byte(bytecode.OpSetGlobal), 1, // then the target name
		byte(bytecode.OpReturn),
	}
	if string(chunk.Code) != string(want) {
		t.Fatalf("code: got %v, want %v", chunk.Code, want)
	}
	if chunk.Constants[1].AsRawString() != "x" {
		t.Fatalf("name constant: %v", chunk.Constants[1])
	}
}

func TestCompileInvalidAssignTarget(t *testing.T) {
	chunk, _, bag := compileSrc(t, "1 = 2;")
	if chunk != nil {
		t.Fatal("invalid target must fail compilation")
	}
	if !strings.Contains(bag.Items()[0].Message, "invalid assignment target") {
		t.Fatalf("message: %q", bag.Items()[0].Message)
	}
}

func TestCompileJumpPatch(t *testing.T) {
	chunk, _ := mustCompile(t, "if (false) { print 1; }")
	// false, jump_if_false hi lo, constant idx, print, return
	if bytecode.Opcode(chunk.Code[0]) != bytecode.OpFalse {
		t.Fatalf("code: %v", chunk.Code)
	}
	if bytecode.Opcode(chunk.Code[1]) != bytecode.OpJumpIfFalse {
		t.Fatalf("code: %v", chunk.Code)
	}
	// Branch body is constant(2) + print(1) = 3 bytes.
	if off := chunk.ReadU16(2); off != 3 {
		t.Fatalf("patched offset: got %d, want 3", off)
	}
}

func TestCompilePrintCallForm(t *testing.T) {
	chunk, _ := mustCompile(t, "print(1, 2);")
	want := []byte{
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpPrint),
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpPrint),
		byte(bytecode.OpReturn),
	}
	if string(chunk.Code) != string(want) {
		t.Fatalf("code: got %v, want %v", chunk.Code, want)
	}
}

func TestCompileUnimplementedConstructs(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"while (true) { 1; }", "while loop"},
		{"for (;;) 1;", "for loop"},
		{"return 1;", "return statement"},
		{"class C { }", "class declaration"},
		{"if (true) 1; else 2;", "else branch"},
		{"f(1);", "function call"},
		{"this.x;", "property access"},
		{"fn (a) { 1; };", "function expression"},
	}
	for _, tc := range cases {
		chunk, _, bag := compileSrc(t, tc.src)
		if chunk != nil {
			t.Fatalf("%q must not compile", tc.src)
		}
		found := false
		for _, d := range bag.Items() {
			if strings.Contains(d.Message, "unimplemented construct") && strings.Contains(d.Message, tc.want) {
				found = true
			}
		}
		if !found {
			t.Fatalf("%q: expected %q error, got %v", tc.src, tc.want, bag.Items())
		}
	}
}

func TestCompileTooManyConstants(t *testing.T) {
	var sb strings.Builder
	for i := 0; i <= bytecode.MaxConstants; i++ {
		fmt.Fprintf(&sb, "%d;\n", i)
	}
	chunk, _, bag := compileSrc(t, sb.String())
	if chunk != nil {
		t.Fatal("overfull pool must fail compilation")
	}
	found := false
	for _, d := range bag.Items() {
		if strings.Contains(d.Message, "too many constants") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected pool-overflow error, got %v", bag.Items())
	}
}

func TestCompileGrouping(t *testing.T) {
	grouped, _ := mustCompile(t, "(1 + 2) * 3;")
	plain, _ := mustCompile(t, "1 + 2;")
	// Grouping itself emits nothing: the first five bytes match the
	// ungrouped sum.
	if string(grouped.Code[:5]) != string(plain.Code[:5]) {
		t.Fatalf("grouping must be transparent:\n%v\n%v", grouped.Code, plain.Code)
	}
	if bytecode.Opcode(grouped.Code[7]) != bytecode.OpMultiply {
		t.Fatalf("code: %v", grouped.Code)
	}
}
