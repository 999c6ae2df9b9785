// Package compiler lowers the AST into bytecode in a single recursive
// pass; there is no separate optimization stage. Semantic errors
// (invalid assignment targets, pool overflow, constructs the emitter
// does not lower yet) are reported through the diagnostic bag and the
// whole compilation fails if any were recorded.
package compiler

import (
	"strconv"

	"fortio.org/safecast"

	"kiln/internal/ast"
	"kiln/internal/bytecode"
	"kiln/internal/diag"
	"kiln/internal/runtime"
	"kiln/internal/source"
)

type Compiler struct {
	chunk *bytecode.Chunk
	heap  *runtime.Heap
	fs    *source.FileSet
	bag   *diag.Bag

	names map[string]byte // identifier text -> constant index
}

// Compile emits one chunk for the statement list. It returns nil when
// any compile error was recorded, in the bag passed here or earlier
// (a unit that failed to parse never produces a runnable chunk).
func Compile(stmts []ast.Stmt, heap *runtime.Heap, fs *source.FileSet, bag *diag.Bag) *bytecode.Chunk {
	c := &Compiler{
		chunk: bytecode.NewChunk(),
		heap:  heap,
		fs:    fs,
		bag:   bag,
		names: make(map[string]byte),
	}

	// String constants are heap objects; a cycle triggered by an
	// allocation mid-compile must see the pool as live.
	heap.AddRootSource(c.chunk)
	defer heap.RemoveRootSource(c.chunk)

	var last uint32 = 1
	for _, stmt := range stmts {
		c.statement(stmt)
		last = c.line(stmt)
	}
	c.chunk.WriteOpcode(bytecode.OpReturn, last)

	if bag.HasErrors() {
		return nil
	}
	return c.chunk
}

// line resolves a node's source line for the chunk's line table.
func (c *Compiler) line(n ast.Node) uint32 {
	start, _ := c.fs.Resolve(n.Span())
	return start.Line
}

func (c *Compiler) emit(op bytecode.Opcode, n ast.Node) {
	c.chunk.WriteOpcode(op, c.line(n))
}

func (c *Compiler) constant(v runtime.Value, n ast.Node) {
	if err := c.chunk.WriteConstant(v, c.line(n)); err != nil {
		c.bag.Report(n.Span(), "%v", err)
	}
}

// nameConstant registers an identifier in the pool once per spelling.
func (c *Compiler) nameConstant(name string, n ast.Node) (byte, bool) {
	if idx, ok := c.names[name]; ok {
		return idx, true
	}
	idx, err := c.chunk.AddConstant(runtime.MakeRawString(name))
	if err != nil {
		c.bag.Report(n.Span(), "%v", err)
		return 0, false
	}
	c.names[name] = idx
	return idx, true
}

func (c *Compiler) unimplemented(n ast.Node, what string) {
	c.bag.Report(n.Span(), "unimplemented construct: %s", what)
}

// ---- statements ----

func (c *Compiler) statement(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		c.expression(s.X)
	case *ast.PrintStmt:
		c.expression(s.X)
		c.emit(bytecode.OpPrint, s)
	case *ast.BlockStmt:
		for _, child := range s.Stmts {
			c.statement(child)
		}
	case *ast.IfStmt:
		c.ifStatement(s)
	case *ast.WhileStmt:
		c.unimplemented(s, "while loop")
	case *ast.ForStmt:
		c.unimplemented(s, "for loop")
	case *ast.ReturnStmt:
		c.unimplemented(s, "return statement")
	case *ast.ClassDecl:
		c.unimplemented(s, "class declaration")
	default:
		c.unimplemented(stmt, "statement")
	}
}

// ifStatement compiles the condition, emits jump_if_false with a
// placeholder offset, compiles the then branch, and patches the
// placeholder with the number of bytes the branch emitted.
func (c *Compiler) ifStatement(s *ast.IfStmt) {
	c.expression(s.Cond)
	operandAt := c.emitJump(bytecode.OpJumpIfFalse, s)
	c.statement(s.Then)
	c.patchJump(operandAt, s)

	if s.Else != nil {
		c.unimplemented(s.Else, "else branch")
	}
}

// emitJump writes the opcode and a two-byte placeholder, returning the
// operand's offset for patching.
func (c *Compiler) emitJump(op bytecode.Opcode, n ast.Node) int {
	c.emit(op, n)
	at := c.chunk.Len()
	c.chunk.WriteU16(0xFFFF, c.line(n))
	return at
}

// patchJump overwrites the placeholder with the forward distance from
// the byte after the operand to the current end of code.
func (c *Compiler) patchJump(operandAt int, n ast.Node) {
	delta := c.chunk.Len() - (operandAt + 2)
	off, err := safecast.Conv[uint16](delta)
	if err != nil {
		c.bag.Report(n.Span(), "branch body too large to jump over (%d bytes)", delta)
		return
	}
	c.chunk.PatchU16(operandAt, off)
}

// ---- expressions ----

func (c *Compiler) expression(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Lit:
		c.literal(e)
	case *ast.Ident:
		if idx, ok := c.nameConstant(e.Name, e); ok {
			c.emit(bytecode.OpGetGlobal, e)
			c.chunk.WriteByte(idx, c.line(e))
		}
	case *ast.Binary:
		c.binary(e)
	case *ast.Unary:
		c.unary(e)
	case *ast.Assign:
		c.assign(e)
	case *ast.Grouping:
		// Transparent: only the inner expression compiles.
		c.expression(e.X)
	case *ast.Call:
		c.call(e)
	case *ast.Property:
		c.unimplemented(e, "property access")
	case *ast.FnExpr:
		c.unimplemented(e, "function expression")
	default:
		c.unimplemented(expr, "expression")
	}
}

func (c *Compiler) literal(e *ast.Lit) {
	switch e.Kind {
	case ast.LitNumber:
		f, err := strconv.ParseFloat(e.Text, 64)
		if err != nil {
			c.bag.Report(e.Span(), "invalid number literal %q", e.Text)
			return
		}
		c.constant(runtime.MakeNumber(f), e)
	case ast.LitString:
		c.constant(runtime.MakeHeapRef(c.heap.AllocString(e.Text)), e)
	case ast.LitBool:
		if e.Bool {
			c.emit(bytecode.OpTrue, e)
		} else {
			c.emit(bytecode.OpFalse, e)
		}
	case ast.LitNone:
		c.emit(bytecode.OpNone, e)
	}
}

var binaryOps = map[string]bytecode.Opcode{
	"+":  bytecode.OpAdd,
	"-":  bytecode.OpSubtract,
	"*":  bytecode.OpMultiply,
	"/":  bytecode.OpDivide,
	"==": bytecode.OpEqual,
	"!=": bytecode.OpNotEqual,
	">":  bytecode.OpGreater,
	">=": bytecode.OpGreaterEqual,
	"<":  bytecode.OpLess,
	"<=": bytecode.OpLessEqual,
}

// binary compiles both operands left to right, then the opcode.
func (c *Compiler) binary(e *ast.Binary) {
	op, ok := binaryOps[e.Op]
	if !ok {
		c.unimplemented(e, "operator "+e.Op)
		return
	}
	c.expression(e.Left)
	c.expression(e.Right)
	c.emit(op, e)
}

func (c *Compiler) unary(e *ast.Unary) {
	c.expression(e.X)
	switch e.Op {
	case "-":
		c.emit(bytecode.OpNegate, e)
	case "!":
		c.emit(bytecode.OpNot, e)
	default:
		c.unimplemented(e, "operator "+e.Op)
	}
}

// assign compiles the value first, then set_global; assignment is an
// expression and the value stays on the stack. Only a bare identifier
// is a legal target.
func (c *Compiler) assign(e *ast.Assign) {
	target, ok := e.Target.(*ast.Ident)
	if !ok {
		c.bag.Report(e.Target.Span(), "invalid assignment target")
		return
	}
	c.expression(e.Value)
	if idx, ok := c.nameConstant(target.Name, target); ok {
		c.emit(bytecode.OpSetGlobal, e)
		c.chunk.WriteByte(idx, c.line(e))
	}
}

// call recognizes only the print builtin: each argument compiles
// followed by its own op_print. Anything else is not lowered yet.
func (c *Compiler) call(e *ast.Call) {
	callee, ok := e.Callee.(*ast.Ident)
	if !ok || callee.Name != "print" {
		c.unimplemented(e, "function call")
		return
	}
	for _, arg := range e.Args {
		c.expression(arg)
		c.emit(bytecode.OpPrint, e)
	}
}
