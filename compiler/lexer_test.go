package compiler

import (
	"testing"
)

func TestLexerOperators(t *testing.T) {
	input := `( ) [ ] { } , + - * / % < > <= >= == != ! ~ & && | || =`
	expected := []TokenType{
		TokenLParen, TokenRParen,
		TokenLBracket, TokenRBracket,
		TokenLBrace, TokenRBrace,
		TokenComma,
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenLess, TokenGreater, TokenLessEq, TokenGreaterEq,
		TokenEqEq, TokenBangEq,
		TokenBang, TokenTilde,
		TokenAmp, TokenAmpAmp, TokenPipe, TokenPipePipe,
		TokenEq,
		TokenEOF,
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, want)
		}
	}
}

func TestLexerDotRuns(t *testing.T) {
	input := `a.b 1..2 0...n`
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenName, "a"},
		{TokenDot, "."},
		{TokenName, "b"},
		{TokenNumber, "1"},
		{TokenDotDot, ".."},
		{TokenNumber, "2"},
		{TokenNumber, "0"},
		{TokenEllipsis, "..."},
		{TokenName, "n"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, exp.typ)
		}
		if tok.Literal != exp.lit {
			t.Errorf("token[%d] literal = %q, want %q", i, tok.Literal, exp.lit)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"42", "42"},
		{"3.14", "3.14"},
		{"1e10", "1e10"},
		{"1.5e-3", "1.5e-3"},
		{"2E+5", "2E+5"},
		{"0xFF", "0xFF"},
		{"0xcafe", "0xcafe"},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenNumber {
			t.Errorf("Lexer(%q): type = %v, want NUMBER", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

// A dot only begins a fraction when a digit follows it, so a method call
// on a number literal lexes as number, dot, name.
func TestLexerNumberThenMethod(t *testing.T) {
	tokens := Tokenize("1.floor")
	types := []TokenType{TokenNumber, TokenDot, TokenName, TokenEOF}
	if len(tokens) != len(types) {
		t.Fatalf("Tokenize(1.floor) = %d tokens, want %d", len(tokens), len(types))
	}
	for i, want := range types {
		if tokens[i].Type != want {
			t.Errorf("token[%d] type = %v, want %v", i, tokens[i].Type, want)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"say \"hi\""`, `say "hi"`},
		{`"back\\slash"`, `back\slash`},
		{`"nul\0byte"`, "nul\x00byte"},
		{"\"line1\nline2\"", "line1\nline2"},
		{`"héllo"`, "héllo"},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenString {
			t.Errorf("Lexer(%q): type = %v, want STRING", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerStringErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"abc`, "Unterminated string."},
		{`"bad\qescape"`, "Invalid escape character 'q'."},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenError {
			t.Errorf("Lexer(%q): type = %v, want ERROR", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): message = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{"break", TokenBreak},
		{"class", TokenClass},
		{"else", TokenElse},
		{"false", TokenFalse},
		{"for", TokenFor},
		{"if", TokenIf},
		{"in", TokenIn},
		{"is", TokenIs},
		{"new", TokenNew},
		{"null", TokenNull},
		{"return", TokenReturn},
		{"static", TokenStatic},
		{"this", TokenThis},
		{"true", TokenTrue},
		{"var", TokenVar},
		{"while", TokenWhile},
		// Names that merely start with a keyword stay names.
		{"classy", TokenName},
		{"iff", TokenName},
		{"newt", TokenName},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != tc.want {
			t.Errorf("Lexer(%q): type = %v, want %v", tc.input, tok.Type, tc.want)
		}
	}
}

func TestLexerFields(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"_count", TokenField},
		{"_", TokenField},
		{"__private", TokenField},
		{"count", TokenName},
		{"café", TokenName},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != tc.typ {
			t.Errorf("Lexer(%q): type = %v, want %v", tc.input, tok.Type, tc.typ)
		}
		if tok.Literal != tc.input {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.input)
		}
	}
}

func TestLexerNewlines(t *testing.T) {
	tokens := Tokenize("a\nb\r\nc")
	types := []TokenType{
		TokenName, TokenLine, TokenName, TokenLine, TokenName, TokenEOF,
	}
	if len(tokens) != len(types) {
		t.Fatalf("Tokenize = %d tokens, want %d", len(tokens), len(types))
	}
	for i, want := range types {
		if tokens[i].Type != want {
			t.Errorf("token[%d] type = %v, want %v", i, tokens[i].Type, want)
		}
	}
}

func TestLexerLineComment(t *testing.T) {
	// The comment is skipped but the newline that ends it is not, so
	// the statement before the comment is still terminated.
	tokens := Tokenize("a // ignored\nb")
	types := []TokenType{TokenName, TokenLine, TokenName, TokenEOF}
	if len(tokens) != len(types) {
		t.Fatalf("Tokenize = %d tokens, want %d", len(tokens), len(types))
	}
	for i, want := range types {
		if tokens[i].Type != want {
			t.Errorf("token[%d] type = %v, want %v", i, tokens[i].Type, want)
		}
	}
}

func TestLexerBlockComment(t *testing.T) {
	tests := []struct {
		input string
		types []TokenType
	}{
		{"1 /* skip */ 2", []TokenType{TokenNumber, TokenNumber, TokenEOF}},
		{"1 /* outer /* inner */ after */ 2", []TokenType{TokenNumber, TokenNumber, TokenEOF}},
		// A newline inside a block comment does not produce a line token.
		{"1 /* a\nb */ 2", []TokenType{TokenNumber, TokenNumber, TokenEOF}},
	}

	for _, tc := range tests {
		tokens := Tokenize(tc.input)
		if len(tokens) != len(tc.types) {
			t.Errorf("Tokenize(%q) = %d tokens, want %d", tc.input, len(tokens), len(tc.types))
			continue
		}
		for i, want := range tc.types {
			if tokens[i].Type != want {
				t.Errorf("Tokenize(%q): token[%d] type = %v, want %v", tc.input, i, tokens[i].Type, want)
			}
		}
	}
}

func TestLexerUnterminatedBlockComment(t *testing.T) {
	l := NewLexer("1 /* never closed")
	l.NextToken() // the number
	tok := l.NextToken()
	if tok.Type != TokenError {
		t.Fatalf("type = %v, want ERROR", tok.Type)
	}
	if tok.Literal != "Unterminated block comment." {
		t.Errorf("message = %q, want %q", tok.Literal, "Unterminated block comment.")
	}
}

func TestLexerInvalidCharacter(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"@", "Invalid character '@'."},
		{"a $ b", "Invalid character '$'."},
	}

	for _, tc := range tests {
		tokens := Tokenize(tc.input)
		last := tokens[len(tokens)-1]
		if last.Type != TokenError {
			t.Errorf("Tokenize(%q): last type = %v, want ERROR", tc.input, last.Type)
			continue
		}
		if last.Literal != tc.want {
			t.Errorf("Tokenize(%q): message = %q, want %q", tc.input, last.Literal, tc.want)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	l := NewLexer("x\n  y")

	tok := l.NextToken()
	if tok.Pos.Line != 1 || tok.Pos.Column != 1 {
		t.Errorf("x at line %d col %d, want 1:1", tok.Pos.Line, tok.Pos.Column)
	}

	tok = l.NextToken()
	if tok.Type != TokenLine || tok.Pos.Line != 1 {
		t.Errorf("newline at line %d, want 1", tok.Pos.Line)
	}

	tok = l.NextToken()
	if tok.Pos.Line != 2 || tok.Pos.Column != 3 {
		t.Errorf("y at line %d col %d, want 2:3", tok.Pos.Line, tok.Pos.Column)
	}
}

func TestLexerEOFIsSticky(t *testing.T) {
	l := NewLexer("")
	for i := 0; i < 3; i++ {
		tok := l.NextToken()
		if tok.Type != TokenEOF {
			t.Fatalf("call %d: type = %v, want EOF", i, tok.Type)
		}
	}
}
