// Package token defines the lexical vocabulary of Kiln source files.
package token

import (
	"kiln/internal/source"
)

// Kind identifies the lexical class of a token.
type Kind uint8

const (
	EOF Kind = iota
	Invalid

	Ident
	Number
	String

	Plus
	Minus
	Star
	Slash
	Bang
	Assign
	EqEq
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	LParen
	RParen
	LBrace
	RBrace
	Comma
	Dot
	Semicolon

	KwIf
	KwElse
	KwWhile
	KwFor
	KwClass
	KwFn
	KwReturn
	KwPrint
	KwThis
	KwTrue
	KwFalse
	KwNone
)

var kindNames = map[Kind]string{
	EOF:       "EOF",
	Invalid:   "invalid",
	Ident:     "identifier",
	Number:    "number",
	String:    "string",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Bang:      "!",
	Assign:    "=",
	EqEq:      "==",
	BangEq:    "!=",
	Lt:        "<",
	LtEq:      "<=",
	Gt:        ">",
	GtEq:      ">=",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	Comma:     ",",
	Dot:       ".",
	Semicolon: ";",
	KwIf:      "if",
	KwElse:    "else",
	KwWhile:   "while",
	KwFor:     "for",
	KwClass:   "class",
	KwFn:      "fn",
	KwReturn:  "return",
	KwPrint:   "print",
	KwThis:    "this",
	KwTrue:    "true",
	KwFalse:   "false",
	KwNone:    "none",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

var keywords = map[string]Kind{
	"if":     KwIf,
	"else":   KwElse,
	"while":  KwWhile,
	"for":    KwFor,
	"class":  KwClass,
	"fn":     KwFn,
	"return": KwReturn,
	"print":  KwPrint,
	"this":   KwThis,
	"true":   KwTrue,
	"false":  KwFalse,
	"none":   KwNone,
}

// LookupIdent maps an identifier spelling to its keyword kind, or Ident.
func LookupIdent(text string) Kind {
	if k, ok := keywords[text]; ok {
		return k
	}
	return Ident
}

// Token is a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a numeric, boolean, string, or
// none literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case Number, String, KwTrue, KwFalse, KwNone:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	switch t.Kind {
	case KwIf, KwElse, KwWhile, KwFor, KwClass, KwFn, KwReturn, KwPrint, KwThis, KwTrue, KwFalse, KwNone:
		return true
	default:
		return false
	}
}
