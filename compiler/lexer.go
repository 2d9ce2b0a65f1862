package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer
// ---------------------------------------------------------------------------

// Lexer turns source text into a stream of tokens. Newlines are significant
// and produced as TokenLine tokens; the parser decides which of them
// terminate statements.
type Lexer struct {
	input   string
	pos     int  // offset of ch
	readPos int  // reading position (after current char)
	ch      rune // current character, 0 at end of input
	line    int  // 1-based line of ch
	col     int  // 1-based column of ch
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, col: 0}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	l.pos = l.readPos
	if l.readPos >= len(l.input) {
		l.ch = 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.readPos += size
	l.col++
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// NextToken returns the next token. Once TokenEOF is returned it is
// returned forever after.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Pos: pos}
	case l.ch == '\n':
		l.readChar()
		return Token{Type: TokenLine, Literal: "\n", Pos: pos}
	case l.ch == '"':
		return l.readString(pos)
	case isDigit(l.ch):
		return l.readNumber(pos)
	case isNameStart(l.ch):
		return l.readName(pos)
	}

	switch l.ch {
	case '(':
		return l.makeToken(TokenLParen, pos)
	case ')':
		return l.makeToken(TokenRParen, pos)
	case '[':
		return l.makeToken(TokenLBracket, pos)
	case ']':
		return l.makeToken(TokenRBracket, pos)
	case '{':
		return l.makeToken(TokenLBrace, pos)
	case '}':
		return l.makeToken(TokenRBrace, pos)
	case ',':
		return l.makeToken(TokenComma, pos)
	case '+':
		return l.makeToken(TokenPlus, pos)
	case '-':
		return l.makeToken(TokenMinus, pos)
	case '*':
		return l.makeToken(TokenStar, pos)
	case '%':
		return l.makeToken(TokenPercent, pos)
	case '~':
		return l.makeToken(TokenTilde, pos)
	case '.':
		// A run of dots: ".", "..", or "...".
		if l.peekChar() == '.' {
			l.readChar()
			if l.peekChar() == '.' {
				l.readChar()
				return l.makeToken(TokenEllipsis, pos)
			}
			return l.makeToken(TokenDotDot, pos)
		}
		return l.makeToken(TokenDot, pos)
	case '/':
		if l.peekChar() == '/' {
			l.skipLineComment()
			return l.NextToken()
		}
		if l.peekChar() == '*' {
			if !l.skipBlockComment() {
				return l.errorToken(pos, "Unterminated block comment.")
			}
			return l.NextToken()
		}
		return l.makeToken(TokenSlash, pos)
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			return l.makeToken(TokenLessEq, pos)
		}
		return l.makeToken(TokenLess, pos)
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			return l.makeToken(TokenGreaterEq, pos)
		}
		return l.makeToken(TokenGreater, pos)
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			return l.makeToken(TokenEqEq, pos)
		}
		return l.makeToken(TokenEq, pos)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			return l.makeToken(TokenBangEq, pos)
		}
		return l.makeToken(TokenBang, pos)
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			return l.makeToken(TokenAmpAmp, pos)
		}
		return l.makeToken(TokenAmp, pos)
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			return l.makeToken(TokenPipePipe, pos)
		}
		return l.makeToken(TokenPipe, pos)
	}

	ch := l.ch
	l.readChar()
	return l.errorToken(pos, fmt.Sprintf("Invalid character '%c'.", ch))
}

// makeToken consumes the current character and returns a token whose
// literal is the token type's fixed spelling.
func (l *Lexer) makeToken(t TokenType, pos Position) Token {
	l.readChar()
	return Token{Type: t, Literal: tokenNames[t], Pos: pos}
}

func (l *Lexer) errorToken(pos Position, message string) Token {
	return Token{Type: TokenError, Literal: message, Pos: pos}
}

// skipWhitespace skips spaces and tabs. Newlines are tokens, so they are
// left alone here.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

// skipLineComment skips a // comment up to, but not including, the newline
// so that the newline still terminates the statement.
func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipBlockComment skips a /* */ comment, honoring nesting. It reports
// whether the comment was terminated before the end of input.
func (l *Lexer) skipBlockComment() bool {
	l.readChar() // consume '/'
	l.readChar() // consume '*'
	depth := 1
	for depth > 0 {
		switch {
		case l.ch == 0:
			return false
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			depth++
		case l.ch == '*' && l.peekChar() == '/':
			l.readChar()
			l.readChar()
			depth--
		default:
			l.readChar()
		}
	}
	return true
}

// readString scans a double-quoted string literal, decoding escapes. The
// returned token's literal is the decoded value.
func (l *Lexer) readString(pos Position) Token {
	var sb strings.Builder
	l.readChar() // consume opening quote
	for {
		switch l.ch {
		case '"':
			l.readChar()
			return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
		case 0:
			return l.errorToken(pos, "Unterminated string.")
		case '\\':
			l.readChar()
			switch l.ch {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '0':
				sb.WriteByte(0)
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				return l.errorToken(pos, fmt.Sprintf("Invalid escape character '%c'.", l.ch))
			}
			l.readChar()
		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// readNumber scans a numeric literal: decimal digits with an optional
// fraction and exponent, or a 0x hex literal. A '.' only begins a fraction
// when a digit follows it, so range expressions like "0..count" lex as a
// number followed by a range operator.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: pos}
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: pos}
}

// readName scans an identifier, keyword, or field name. Names starting
// with an underscore are instance fields.
func (l *Lexer) readName(pos Position) Token {
	start := l.pos
	for isNameChar(l.ch) {
		l.readChar()
	}
	name := l.input[start:l.pos]
	if tok, ok := reservedWords[name]; ok {
		return Token{Type: tok, Literal: name, Pos: pos}
	}
	if name[0] == '_' {
		return Token{Type: TokenField, Literal: name, Pos: pos}
	}
	return Token{Type: TokenName, Literal: name, Pos: pos}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isNameStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isNameChar(ch rune) bool {
	return isNameStart(ch) || unicode.IsDigit(ch)
}

// Tokenize scans the entire input and returns every token, ending with
// either the EOF token or the first error token.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return tokens
		}
	}
}
