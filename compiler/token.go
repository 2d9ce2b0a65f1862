package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenLine // newline, the statement terminator

	// Literals
	TokenNumber // 42, 3.14
	TokenString // "hello"
	TokenName   // foo, Bar
	TokenField  // _count

	// Delimiters
	TokenLParen   // (
	TokenRParen   // )
	TokenLBracket // [
	TokenRBracket // ]
	TokenLBrace   // {
	TokenRBrace   // }
	TokenComma    // ,
	TokenDot      // .
	TokenDotDot   // ..
	TokenEllipsis // ...

	// Operators
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenPercent   // %
	TokenLess      // <
	TokenGreater   // >
	TokenLessEq    // <=
	TokenGreaterEq // >=
	TokenEqEq      // ==
	TokenBangEq    // !=
	TokenBang      // !
	TokenTilde     // ~
	TokenAmp       // &
	TokenAmpAmp    // &&
	TokenPipe      // |
	TokenPipePipe  // ||
	TokenEq        // =

	// Keywords
	TokenBreak
	TokenClass
	TokenElse
	TokenFalse
	TokenFor
	TokenIf
	TokenIn
	TokenIs
	TokenNew
	TokenNull
	TokenReturn
	TokenStatic
	TokenThis
	TokenTrue
	TokenVar
	TokenWhile
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenError:     "ERROR",
	TokenLine:      "NEWLINE",
	TokenNumber:    "NUMBER",
	TokenString:    "STRING",
	TokenName:      "NAME",
	TokenField:     "FIELD",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenLBracket:  "[",
	TokenRBracket:  "]",
	TokenLBrace:    "{",
	TokenRBrace:    "}",
	TokenComma:     ",",
	TokenDot:       ".",
	TokenDotDot:    "..",
	TokenEllipsis:  "...",
	TokenPlus:      "+",
	TokenMinus:     "-",
	TokenStar:      "*",
	TokenSlash:     "/",
	TokenPercent:   "%",
	TokenLess:      "<",
	TokenGreater:   ">",
	TokenLessEq:    "<=",
	TokenGreaterEq: ">=",
	TokenEqEq:      "==",
	TokenBangEq:    "!=",
	TokenBang:      "!",
	TokenTilde:     "~",
	TokenAmp:       "&",
	TokenAmpAmp:    "&&",
	TokenPipe:      "|",
	TokenPipePipe:  "||",
	TokenEq:        "=",
	TokenBreak:     "break",
	TokenClass:     "class",
	TokenElse:      "else",
	TokenFalse:     "false",
	TokenFor:       "for",
	TokenIf:        "if",
	TokenIn:        "in",
	TokenIs:        "is",
	TokenNew:       "new",
	TokenNull:      "null",
	TokenReturn:    "return",
	TokenStatic:    "static",
	TokenThis:      "this",
	TokenTrue:      "true",
	TokenVar:       "var",
	TokenWhile:     "while",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text, or the decoded value for strings
	Pos     Position // start position
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenLine:
		return "NEWLINE"
	case TokenError:
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"break":  TokenBreak,
	"class":  TokenClass,
	"else":   TokenElse,
	"false":  TokenFalse,
	"for":    TokenFor,
	"if":     TokenIf,
	"in":     TokenIn,
	"is":     TokenIs,
	"new":    TokenNew,
	"null":   TokenNull,
	"return": TokenReturn,
	"static": TokenStatic,
	"this":   TokenThis,
	"true":   TokenTrue,
	"var":    TokenVar,
	"while":  TokenWhile,
}
