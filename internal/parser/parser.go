// Package parser builds the AST consumed by the bytecode compiler.
// It is a hand-written recursive-descent parser with statement-level
// error recovery: a malformed statement is reported and skipped, then
// parsing resumes at the next statement boundary.
package parser

import (
	"kiln/internal/ast"
	"kiln/internal/diag"
	"kiln/internal/lexer"
	"kiln/internal/source"
	"kiln/internal/token"
)

type Parser struct {
	toks []token.Token
	pos  int
	bag  *diag.Bag
}

// Parse lexes and parses one source file.
func Parse(file *source.File, bag *diag.Bag) []ast.Stmt {
	lx := lexer.New(file, bag)
	p := &Parser{toks: lx.Tokens(), bag: bag}
	return p.program()
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) at(kind token.Kind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) accept(kind token.Kind) (token.Token, bool) {
	if p.at(kind) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) expect(kind token.Kind) token.Token {
	if p.at(kind) {
		return p.advance()
	}
	got := p.peek()
	p.bag.Report(got.Span, "expected %q, found %q", kind.String(), got.Kind.String())
	return got
}

// synchronize skips tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	for !p.at(token.EOF) {
		if p.advance().Kind == token.Semicolon {
			return
		}
		switch p.peek().Kind {
		case token.KwIf, token.KwWhile, token.KwFor, token.KwClass,
			token.KwReturn, token.KwPrint, token.LBrace:
			return
		}
	}
}

func (p *Parser) program() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.at(token.EOF) {
		before := p.pos
		stmt := p.statement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.pos == before {
			// Nothing consumed; bail out of the malformed region.
			p.synchronize()
		}
	}
	return stmts
}

func (p *Parser) statement() ast.Stmt {
	switch p.peek().Kind {
	case token.KwPrint:
		// `print(...)` is a call expression, `print expr;` a statement.
		if p.toks[p.pos+1].Kind == token.LParen {
			return p.exprStatement()
		}
		return p.printStatement()
	case token.KwIf:
		return p.ifStatement()
	case token.KwWhile:
		return p.whileStatement()
	case token.KwFor:
		return p.forStatement()
	case token.KwReturn:
		return p.returnStatement()
	case token.KwClass:
		return p.classDecl()
	case token.LBrace:
		return p.block()
	default:
		return p.exprStatement()
	}
}

func (p *Parser) printStatement() ast.Stmt {
	kw := p.advance()
	x := p.expression()
	end := p.expect(token.Semicolon)
	return &ast.PrintStmt{X: x, Loc: kw.Span.Cover(end.Span)}
}

func (p *Parser) ifStatement() ast.Stmt {
	kw := p.advance()
	p.expect(token.LParen)
	cond := p.expression()
	p.expect(token.RParen)
	then := p.statement()

	stmt := &ast.IfStmt{Cond: cond, Then: then, Loc: kw.Span}
	if _, ok := p.accept(token.KwElse); ok {
		stmt.Else = p.statement()
	}
	if stmt.Then != nil {
		stmt.Loc = stmt.Loc.Cover(stmt.Then.Span())
	}
	return stmt
}

func (p *Parser) whileStatement() ast.Stmt {
	kw := p.advance()
	p.expect(token.LParen)
	cond := p.expression()
	p.expect(token.RParen)
	body := p.statement()
	return &ast.WhileStmt{Cond: cond, Body: body, Loc: kw.Span}
}

func (p *Parser) forStatement() ast.Stmt {
	kw := p.advance()
	p.expect(token.LParen)

	stmt := &ast.ForStmt{Loc: kw.Span}
	if _, ok := p.accept(token.Semicolon); !ok {
		x := p.expression()
		end := p.expect(token.Semicolon)
		stmt.Init = &ast.ExprStmt{X: x, Loc: x.Span().Cover(end.Span)}
	}
	if !p.at(token.Semicolon) {
		stmt.Cond = p.expression()
	}
	p.expect(token.Semicolon)
	if !p.at(token.RParen) {
		stmt.Incr = p.expression()
	}
	p.expect(token.RParen)
	stmt.Body = p.statement()
	return stmt
}

func (p *Parser) returnStatement() ast.Stmt {
	kw := p.advance()
	stmt := &ast.ReturnStmt{Loc: kw.Span}
	if !p.at(token.Semicolon) {
		stmt.X = p.expression()
	}
	end := p.expect(token.Semicolon)
	stmt.Loc = kw.Span.Cover(end.Span)
	return stmt
}

func (p *Parser) classDecl() ast.Stmt {
	kw := p.advance()
	name := p.expect(token.Ident)
	decl := &ast.ClassDecl{Name: name.Text, Loc: kw.Span.Cover(name.Span)}

	p.expect(token.LBrace)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		decl.Methods = append(decl.Methods, p.method())
	}
	p.expect(token.RBrace)
	return decl
}

func (p *Parser) method() *ast.FnExpr {
	name := p.expect(token.Ident)
	fn := &ast.FnExpr{Name: name.Text, Loc: name.Span}
	fn.Params = p.paramList()
	fn.Body = p.blockOnly()
	return fn
}

func (p *Parser) paramList() []string {
	p.expect(token.LParen)
	var params []string
	for !p.at(token.RParen) && !p.at(token.EOF) {
		params = append(params, p.expect(token.Ident).Text)
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) block() ast.Stmt {
	return p.blockOnly()
}

func (p *Parser) blockOnly() *ast.BlockStmt {
	open := p.expect(token.LBrace)
	blk := &ast.BlockStmt{Loc: open.Span}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		if stmt := p.statement(); stmt != nil {
			blk.Stmts = append(blk.Stmts, stmt)
		}
		if p.pos == before {
			p.synchronize()
		}
	}
	closing := p.expect(token.RBrace)
	blk.Loc = open.Span.Cover(closing.Span)
	return blk
}

func (p *Parser) exprStatement() ast.Stmt {
	x := p.expression()
	if x == nil {
		return nil
	}
	end := p.expect(token.Semicolon)
	return &ast.ExprStmt{X: x, Loc: x.Span().Cover(end.Span)}
}

// ---- expressions, lowest precedence first ----

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

// assignment is right-associative; the target is validated by the
// compiler, not here.
func (p *Parser) assignment() ast.Expr {
	target := p.equality()
	if target == nil {
		return nil
	}
	if _, ok := p.accept(token.Assign); ok {
		value := p.assignment()
		if value == nil {
			return nil
		}
		return &ast.Assign{
			Target: target,
			Value:  value,
			Loc:    target.Span().Cover(value.Span()),
		}
	}
	return target
}

func (p *Parser) equality() ast.Expr {
	return p.binaryLevel(p.comparison, token.EqEq, token.BangEq)
}

func (p *Parser) comparison() ast.Expr {
	return p.binaryLevel(p.term, token.Lt, token.LtEq, token.Gt, token.GtEq)
}

func (p *Parser) term() ast.Expr {
	return p.binaryLevel(p.factor, token.Plus, token.Minus)
}

func (p *Parser) factor() ast.Expr {
	return p.binaryLevel(p.unary, token.Star, token.Slash)
}

// binaryLevel parses one left-associative precedence level.
func (p *Parser) binaryLevel(next func() ast.Expr, ops ...token.Kind) ast.Expr {
	left := next()
	for left != nil {
		matched := false
		for _, op := range ops {
			if tok, ok := p.accept(op); ok {
				right := next()
				if right == nil {
					return left
				}
				left = &ast.Binary{
					Op:    tok.Text,
					Left:  left,
					Right: right,
					Loc:   left.Span().Cover(right.Span()),
				}
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
	}
	return left
}

func (p *Parser) unary() ast.Expr {
	if tok, ok := p.accept(token.Bang); ok {
		x := p.unary()
		if x == nil {
			return nil
		}
		return &ast.Unary{Op: tok.Text, X: x, Loc: tok.Span.Cover(x.Span())}
	}
	if tok, ok := p.accept(token.Minus); ok {
		x := p.unary()
		if x == nil {
			return nil
		}
		return &ast.Unary{Op: tok.Text, X: x, Loc: tok.Span.Cover(x.Span())}
	}
	return p.postfix()
}

// postfix parses call and property-access chains.
func (p *Parser) postfix() ast.Expr {
	x := p.primary()
	for x != nil {
		switch {
		case p.at(token.LParen):
			p.advance()
			call := &ast.Call{Callee: x, Loc: x.Span()}
			for !p.at(token.RParen) && !p.at(token.EOF) {
				arg := p.expression()
				if arg == nil {
					break
				}
				call.Args = append(call.Args, arg)
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			closing := p.expect(token.RParen)
			call.Loc = call.Loc.Cover(closing.Span)
			x = call
		case p.at(token.Dot):
			p.advance()
			name := p.expect(token.Ident)
			x = &ast.Property{Target: x, Name: name.Text, Loc: x.Span().Cover(name.Span)}
		default:
			return x
		}
	}
	return x
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Number:
		p.advance()
		return &ast.Lit{Kind: ast.LitNumber, Text: tok.Text, Loc: tok.Span}
	case token.String:
		p.advance()
		return &ast.Lit{Kind: ast.LitString, Text: tok.Text, Loc: tok.Span}
	case token.KwTrue:
		p.advance()
		return &ast.Lit{Kind: ast.LitBool, Bool: true, Loc: tok.Span}
	case token.KwFalse:
		p.advance()
		return &ast.Lit{Kind: ast.LitBool, Bool: false, Loc: tok.Span}
	case token.KwNone:
		p.advance()
		return &ast.Lit{Kind: ast.LitNone, Loc: tok.Span}
	case token.Ident:
		p.advance()
		return &ast.Ident{Name: tok.Text, Loc: tok.Span}
	case token.KwPrint:
		// `print` in expression position names the builtin.
		p.advance()
		return &ast.Ident{Name: "print", Loc: tok.Span}
	case token.KwThis:
		p.advance()
		return &ast.Ident{Name: "this", Loc: tok.Span}
	case token.KwFn:
		return p.fnExpr()
	case token.LParen:
		p.advance()
		inner := p.expression()
		if inner == nil {
			return nil
		}
		closing := p.expect(token.RParen)
		return &ast.Grouping{X: inner, Loc: tok.Span.Cover(closing.Span)}
	default:
		p.bag.Report(tok.Span, "expected expression, found %q", tok.Kind.String())
		return nil
	}
}

func (p *Parser) fnExpr() ast.Expr {
	kw := p.advance()
	fn := &ast.FnExpr{Loc: kw.Span}
	fn.Params = p.paramList()
	fn.Body = p.blockOnly()
	fn.Loc = kw.Span.Cover(fn.Body.Loc)
	return fn
}
