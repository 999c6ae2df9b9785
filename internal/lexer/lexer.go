// Package lexer turns Kiln source text into a token stream.
package lexer

import (
	"kiln/internal/diag"
	"kiln/internal/source"
	"kiln/internal/token"
)

type Lexer struct {
	cursor Cursor
	bag    *diag.Bag
	look   *token.Token // 1-token lookahead buffer
}

func New(file *source.File, bag *diag.Bag) *Lexer {
	return &Lexer{
		cursor: NewCursor(file),
		bag:    bag,
	}
}

// Next returns the next significant token. After EOF it keeps
// returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.cursor.SpanFrom(lx.cursor.Offset())}
	}

	ch := lx.cursor.Peek()
	switch {
	case isDigit(ch):
		return lx.scanNumber()
	case isIdentStart(ch):
		return lx.scanIdent()
	case ch == '"':
		return lx.scanString()
	default:
		return lx.scanOperator()
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		tok := lx.Next()
		lx.look = &tok
	}
	return *lx.look
}

// Tokens drains the stream, EOF token included.
func (lx *Lexer) Tokens() []token.Token {
	var out []token.Token
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// skipTrivia consumes whitespace and // line comments.
func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		switch ch := lx.cursor.Peek(); {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			lx.cursor.Advance()
		case ch == '/' && lx.cursor.PeekAt(1) == '/':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Advance()
			}
		default:
			return
		}
	}
}

func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Offset()
	for isDigit(lx.cursor.Peek()) {
		lx.cursor.Advance()
	}
	if lx.cursor.Peek() == '.' && isDigit(lx.cursor.PeekAt(1)) {
		lx.cursor.Advance()
		for isDigit(lx.cursor.Peek()) {
			lx.cursor.Advance()
		}
	}
	return token.Token{
		Kind: token.Number,
		Span: lx.cursor.SpanFrom(start),
		Text: lx.cursor.Slice(start, lx.cursor.Offset()),
	}
}

func (lx *Lexer) scanIdent() token.Token {
	start := lx.cursor.Offset()
	for isIdentPart(lx.cursor.Peek()) {
		lx.cursor.Advance()
	}
	text := lx.cursor.Slice(start, lx.cursor.Offset())
	return token.Token{
		Kind: token.LookupIdent(text),
		Span: lx.cursor.SpanFrom(start),
		Text: text,
	}
}

// scanString consumes a double-quoted literal. Text carries the
// contents with quotes stripped and escapes resolved.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Offset()
	lx.cursor.Advance() // opening quote

	var buf []byte
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			span := lx.cursor.SpanFrom(start)
			lx.bag.Report(span, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: span, Text: string(buf)}
		}
		ch := lx.cursor.Peek()
		lx.cursor.Advance()
		if ch == '"' {
			break
		}
		if ch == '\\' && !lx.cursor.EOF() {
			esc := lx.cursor.Peek()
			lx.cursor.Advance()
			switch esc {
			case 'n':
				buf = append(buf, '\n')
			case 't':
				buf = append(buf, '\t')
			case 'r':
				buf = append(buf, '\r')
			case '"':
				buf = append(buf, '"')
			case '\\':
				buf = append(buf, '\\')
			default:
				buf = append(buf, esc)
			}
			continue
		}
		buf = append(buf, ch)
	}
	return token.Token{
		Kind: token.String,
		Span: lx.cursor.SpanFrom(start),
		Text: string(buf),
	}
}

func (lx *Lexer) scanOperator() token.Token {
	start := lx.cursor.Offset()
	ch := lx.cursor.Peek()
	lx.cursor.Advance()

	kind := token.Invalid
	switch ch {
	case '+':
		kind = token.Plus
	case '-':
		kind = token.Minus
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case ',':
		kind = token.Comma
	case '.':
		kind = token.Dot
	case ';':
		kind = token.Semicolon
	case '!':
		kind = lx.withEq(token.Bang, token.BangEq)
	case '=':
		kind = lx.withEq(token.Assign, token.EqEq)
	case '<':
		kind = lx.withEq(token.Lt, token.LtEq)
	case '>':
		kind = lx.withEq(token.Gt, token.GtEq)
	}

	span := lx.cursor.SpanFrom(start)
	text := lx.cursor.Slice(start, lx.cursor.Offset())
	if kind == token.Invalid {
		lx.bag.Report(span, "unexpected character %q", text)
	}
	return token.Token{Kind: kind, Span: span, Text: text}
}

// withEq picks the two-character form when '=' follows.
func (lx *Lexer) withEq(plain, withEq token.Kind) token.Kind {
	if lx.cursor.Peek() == '=' {
		lx.cursor.Advance()
		return withEq
	}
	return plain
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
