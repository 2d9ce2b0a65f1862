package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// CompileError is a single compile diagnostic with its source position.
type CompileError struct {
	Pos     Position
	Message string
	atEOF   bool
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Pos.Line, e.Message)
}

// ErrorList is the set of diagnostics produced by one compile. It is
// returned as the error value when any were recorded.
type ErrorList []*CompileError

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// IsIncomplete reports whether err indicates source that ended in the
// middle of a construct. A REPL uses this to keep reading lines instead of
// reporting the error.
func IsIncomplete(err error) bool {
	var list ErrorList
	if !errors.As(err, &list) || len(list) == 0 {
		return false
	}
	for _, e := range list {
		if !e.atEOF {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Operator precedence, lowest to highest. An infix rule binds its right
// operand one level higher, so operators on the same level associate left.
const (
	precNone = iota
	precLowest
	precOr         // ||
	precAnd        // &&
	precEquality   // == !=
	precIs         // is
	precComparison // < > <= >=
	precBitwise    // | &
	precRange      // .. ...
	precTerm       // + -
	precFactor     // * / %
	precUnary      // ! ~ -
	precCall       // . () []
)

type (
	prefixFn func(p *Parser, canAssign bool) Expr
	infixFn  func(p *Parser, lhs Expr, canAssign bool) Expr
)

type parseRule struct {
	prefix prefixFn
	infix  infixFn
	prec   int
}

// rules is populated in init to break the initialization cycle between the
// table and the parse functions that consult it.
var rules map[TokenType]parseRule

func init() {
	rules = map[TokenType]parseRule{
		TokenNumber:    {prefix: parseNumberLit},
		TokenString:    {prefix: parseStringLit},
		TokenName:      {prefix: parseNameExpr},
		TokenField:     {prefix: parseFieldExpr},
		TokenTrue:      {prefix: parseBoolLit},
		TokenFalse:     {prefix: parseBoolLit},
		TokenNull:      {prefix: parseNullLit},
		TokenThis:      {prefix: parseThisExpr},
		TokenNew:       {prefix: parseNewExpr},
		TokenLParen:    {prefix: parseGrouping},
		TokenLBracket:  {prefix: parseListLit, infix: parseSubscript, prec: precCall},
		TokenLBrace:    {prefix: parseFnLit},
		TokenBang:      {prefix: parsePrefixOp},
		TokenTilde:     {prefix: parsePrefixOp},
		TokenMinus:     {prefix: parsePrefixOp, infix: parseInfixOp, prec: precTerm},
		TokenPlus:      {infix: parseInfixOp, prec: precTerm},
		TokenStar:      {infix: parseInfixOp, prec: precFactor},
		TokenSlash:     {infix: parseInfixOp, prec: precFactor},
		TokenPercent:   {infix: parseInfixOp, prec: precFactor},
		TokenDotDot:    {infix: parseInfixOp, prec: precRange},
		TokenEllipsis:  {infix: parseInfixOp, prec: precRange},
		TokenAmp:       {infix: parseInfixOp, prec: precBitwise},
		TokenPipe:      {infix: parseInfixOp, prec: precBitwise},
		TokenLess:      {infix: parseInfixOp, prec: precComparison},
		TokenGreater:   {infix: parseInfixOp, prec: precComparison},
		TokenLessEq:    {infix: parseInfixOp, prec: precComparison},
		TokenGreaterEq: {infix: parseInfixOp, prec: precComparison},
		TokenEqEq:      {infix: parseInfixOp, prec: precEquality},
		TokenBangEq:    {infix: parseInfixOp, prec: precEquality},
		TokenIs:        {infix: parseIsExpr, prec: precIs},
		TokenAmpAmp:    {infix: parseAndExpr, prec: precAnd},
		TokenPipePipe:  {infix: parseOrExpr, prec: precOr},
		TokenDot:       {infix: parseDotExpr, prec: precCall},
	}
}

// Parser parses source code into an AST, accumulating diagnostics rather
// than stopping at the first error.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	errors    ErrorList
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to fill curToken and peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses an entire module. The returned error, if non-nil, is an
// ErrorList holding every diagnostic.
func Parse(source string) (*Program, error) {
	p := NewParser(source)
	prog := p.parseProgram()
	return prog, p.err()
}

func (p *Parser) err() error {
	if len(p.errors) == 0 {
		return nil
	}
	return p.errors
}

// nextToken advances to the next token. Lexer errors are recorded here and
// replaced with EOF so parsing stops cleanly.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
	if p.peekToken.Type == TokenError {
		p.errors = append(p.errors, &CompileError{Pos: p.peekToken.Pos, Message: p.peekToken.Literal})
		p.peekToken = Token{Type: TokenEOF, Pos: p.peekToken.Pos}
	}
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// peekTokenIs checks if the peek token is of the given type.
func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

// match advances past the current token if it has the given type.
func (p *Parser) match(t TokenType) bool {
	if !p.curTokenIs(t) {
		return false
	}
	p.nextToken()
	return true
}

// expect advances if the current token matches, otherwise records an error.
func (p *Parser) expect(t TokenType, message string) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorAtCur(message)
	return false
}

// skipLines consumes any run of newline tokens.
func (p *Parser) skipLines() {
	for p.curTokenIs(TokenLine) {
		p.nextToken()
	}
}

func (p *Parser) errorAt(tok Token, message string) {
	p.errors = append(p.errors, &CompileError{
		Pos:     tok.Pos,
		Message: message,
		atEOF:   tok.Type == TokenEOF,
	})
}

func (p *Parser) errorAtCur(message string) {
	p.errorAt(p.curToken, message)
}

// synchronize skips ahead to the next statement boundary after a parse
// error so later diagnostics are still useful.
func (p *Parser) synchronize() {
	for !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(TokenLine) {
			p.skipLines()
			return
		}
		p.nextToken()
	}
}

// terminator consumes the end of a statement: a newline run. EOF and a
// closing brace are left for the caller to see.
func (p *Parser) terminator() {
	switch p.curToken.Type {
	case TokenLine:
		p.skipLines()
	case TokenEOF, TokenRBrace:
	default:
		p.errorAtCur("Expect newline after statement.")
		p.synchronize()
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseProgram() *Program {
	prog := &Program{}
	p.skipLines()
	for !p.curTokenIs(TokenEOF) {
		stmt := p.parseStatement()
		if stmt == nil {
			p.synchronize()
			continue
		}
		prog.Statements = append(prog.Statements, stmt)
		p.terminator()
	}
	return prog
}

func (p *Parser) parseStatement() Stmt {
	switch p.curToken.Type {
	case TokenVar:
		return p.parseVar()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenFor:
		return p.parseFor()
	case TokenReturn:
		return p.parseReturn()
	case TokenBreak:
		stmt := &BreakStmt{PosVal: p.curToken.Pos}
		p.nextToken()
		return stmt
	case TokenClass:
		return p.parseClass()
	case TokenLBrace:
		return p.parseBlock()
	}
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	return &ExprStmt{Expr: expr}
}

func (p *Parser) parseVar() Stmt {
	stmt := &VarStmt{PosVal: p.curToken.Pos}
	p.nextToken() // consume 'var'
	if !p.curTokenIs(TokenName) {
		p.errorAtCur("Expect variable name.")
		return nil
	}
	stmt.Name = p.curToken.Literal
	p.nextToken()
	if p.match(TokenEq) {
		p.skipLines()
		stmt.Init = p.parseExpression()
		if stmt.Init == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseIf() Stmt {
	stmt := &IfStmt{PosVal: p.curToken.Pos}
	p.nextToken() // consume 'if'
	if !p.expect(TokenLParen, "Expect '(' after 'if'.") {
		return nil
	}
	p.skipLines()
	stmt.Cond = p.parseExpression()
	if stmt.Cond == nil {
		return nil
	}
	p.skipLines()
	if !p.expect(TokenRParen, "Expect ')' after if condition.") {
		return nil
	}
	stmt.Then = p.parseStatement()
	if stmt.Then == nil {
		return nil
	}
	// Allow 'else' on the line after the then branch.
	if p.curTokenIs(TokenLine) && p.peekTokenIs(TokenElse) {
		p.nextToken()
	}
	if p.match(TokenElse) {
		stmt.Else = p.parseStatement()
		if stmt.Else == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseWhile() Stmt {
	stmt := &WhileStmt{PosVal: p.curToken.Pos}
	p.nextToken() // consume 'while'
	if !p.expect(TokenLParen, "Expect '(' after 'while'.") {
		return nil
	}
	p.skipLines()
	stmt.Cond = p.parseExpression()
	if stmt.Cond == nil {
		return nil
	}
	p.skipLines()
	if !p.expect(TokenRParen, "Expect ')' after while condition.") {
		return nil
	}
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseFor() Stmt {
	stmt := &ForStmt{PosVal: p.curToken.Pos}
	p.nextToken() // consume 'for'
	if !p.expect(TokenLParen, "Expect '(' after 'for'.") {
		return nil
	}
	if !p.curTokenIs(TokenName) {
		p.errorAtCur("Expect for loop variable name.")
		return nil
	}
	stmt.Variable = p.curToken.Literal
	p.nextToken()
	if !p.expect(TokenIn, "Expect 'in' after loop variable.") {
		return nil
	}
	p.skipLines()
	stmt.Sequence = p.parseExpression()
	if stmt.Sequence == nil {
		return nil
	}
	p.skipLines()
	if !p.expect(TokenRParen, "Expect ')' after loop expression.") {
		return nil
	}
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseReturn() Stmt {
	stmt := &ReturnStmt{PosVal: p.curToken.Pos}
	p.nextToken() // consume 'return'
	switch p.curToken.Type {
	case TokenLine, TokenEOF, TokenRBrace:
	default:
		stmt.Value = p.parseExpression()
		if stmt.Value == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseBlock() Stmt {
	block := &BlockStmt{PosVal: p.curToken.Pos}
	p.nextToken() // consume '{'
	p.skipLines()
	for !p.curTokenIs(TokenRBrace) && !p.curTokenIs(TokenEOF) {
		stmt := p.parseStatement()
		if stmt == nil {
			p.synchronize()
			continue
		}
		block.Statements = append(block.Statements, stmt)
		p.terminator()
	}
	p.expect(TokenRBrace, "Expect '}' after block.")
	return block
}

// ---------------------------------------------------------------------------
// Classes
// ---------------------------------------------------------------------------

func (p *Parser) parseClass() Stmt {
	cls := &ClassStmt{PosVal: p.curToken.Pos}
	p.nextToken() // consume 'class'
	if !p.curTokenIs(TokenName) {
		p.errorAtCur("Expect class name.")
		return nil
	}
	cls.Name = p.curToken.Literal
	p.nextToken()
	if p.match(TokenIs) {
		if !p.curTokenIs(TokenName) {
			p.errorAtCur("Expect superclass name.")
			return nil
		}
		cls.Superclass = &NameExpr{PosVal: p.curToken.Pos, Name: p.curToken.Literal}
		p.nextToken()
	}
	if !p.expect(TokenLBrace, "Expect '{' before class body.") {
		return nil
	}
	p.skipLines()
	for !p.curTokenIs(TokenRBrace) && !p.curTokenIs(TokenEOF) {
		def := p.parseMethod()
		if def == nil {
			p.synchronize()
			continue
		}
		cls.Methods = append(cls.Methods, def)
		p.terminator()
	}
	p.expect(TokenRBrace, "Expect '}' after class body.")
	return cls
}

// isOperatorToken reports whether t can name an operator method.
func isOperatorToken(t TokenType) bool {
	switch t {
	case TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenLess, TokenGreater, TokenLessEq, TokenGreaterEq,
		TokenEqEq, TokenBangEq, TokenAmp, TokenPipe,
		TokenTilde, TokenBang, TokenDotDot, TokenEllipsis:
		return true
	}
	return false
}

// parseMethod parses one method inside a class body: a named method or
// getter, an operator method, a subscript method, or a constructor.
func (p *Parser) parseMethod() *MethodDef {
	def := &MethodDef{PosVal: p.curToken.Pos}
	if p.curTokenIs(TokenStatic) {
		def.IsStatic = true
		p.nextToken()
	}
	switch {
	case p.curTokenIs(TokenLBracket):
		def.IsSubscript = true
		p.nextToken()
		def.Params = p.parseParams(TokenRBracket, "Expect ']' after subscript parameters.")
		if len(def.Params) == 0 {
			p.errorAtCur("Expect at least one subscript parameter.")
		}
		if p.match(TokenEq) {
			def.IsSetter = true
			if p.expect(TokenLParen, "Expect '(' after '='.") {
				if p.curTokenIs(TokenName) {
					def.Params = append(def.Params, p.curToken.Literal)
					p.nextToken()
				} else {
					p.errorAtCur("Expect value parameter name.")
				}
				p.expect(TokenRParen, "Expect ')' after value parameter.")
			}
		}
	case p.curTokenIs(TokenName), p.curTokenIs(TokenNew):
		def.Name = p.curToken.Literal
		p.nextToken()
		if p.match(TokenLParen) {
			def.Params = p.parseParams(TokenRParen, "Expect ')' after parameters.")
		}
	case isOperatorToken(p.curToken.Type):
		def.Name = p.curToken.Literal
		p.nextToken()
		if p.match(TokenLParen) {
			def.Params = p.parseParams(TokenRParen, "Expect ')' after parameters.")
			if len(def.Params) != 1 {
				p.errorAtCur("An operator method takes exactly one parameter.")
			}
		}
	default:
		p.errorAtCur("Expect method definition.")
		return nil
	}
	if !p.expect(TokenLBrace, "Expect '{' to begin method body.") {
		return nil
	}
	def.Body = p.parseBody()
	return def
}

// parseParams parses a parameter name list. The current token is the first
// token after the opening delimiter.
func (p *Parser) parseParams(end TokenType, endMessage string) []string {
	var params []string
	p.skipLines()
	if p.curTokenIs(end) {
		p.nextToken()
		return params
	}
	for {
		if !p.curTokenIs(TokenName) {
			p.errorAtCur("Expect parameter name.")
			return params
		}
		params = append(params, p.curToken.Literal)
		p.nextToken()
		p.skipLines()
		if !p.match(TokenComma) {
			break
		}
		p.skipLines()
	}
	p.expect(end, endMessage)
	return params
}

// parseBody parses a method or function body after its '{'. A body that
// opens with a newline is a statement body; otherwise it holds a single
// expression whose value is the result.
func (p *Parser) parseBody() *Body {
	body := &Body{}
	if p.curTokenIs(TokenLine) {
		p.skipLines()
		for !p.curTokenIs(TokenRBrace) && !p.curTokenIs(TokenEOF) {
			stmt := p.parseStatement()
			if stmt == nil {
				p.synchronize()
				continue
			}
			body.Statements = append(body.Statements, stmt)
			p.terminator()
		}
		p.expect(TokenRBrace, "Expect '}' at end of body.")
		return body
	}
	if p.curTokenIs(TokenRBrace) {
		p.nextToken()
		return body
	}
	body.Expr = p.parseExpression()
	p.expect(TokenRBrace, "Expect '}' at end of body.")
	return body
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *Parser) parseExpression() Expr {
	return p.parsePrecedence(precLowest)
}

// parsePrecedence parses an expression at the given precedence or higher.
// Assignment is only allowed when parsing at the lowest level.
func (p *Parser) parsePrecedence(prec int) Expr {
	rule := rules[p.curToken.Type]
	if rule.prefix == nil {
		p.errorAtCur("Expect expression.")
		return nil
	}
	canAssign := prec <= precLowest
	left := rule.prefix(p, canAssign)
	if left == nil {
		return nil
	}
	for {
		rule := rules[p.curToken.Type]
		if rule.infix == nil || rule.prec < prec {
			return left
		}
		left = rule.infix(p, left, canAssign)
		if left == nil {
			return nil
		}
	}
}

func parseNumberLit(p *Parser, canAssign bool) Expr {
	tok := p.curToken
	p.nextToken()
	var value float64
	if strings.HasPrefix(tok.Literal, "0x") || strings.HasPrefix(tok.Literal, "0X") {
		n, err := strconv.ParseUint(tok.Literal[2:], 16, 64)
		if err != nil {
			p.errorAt(tok, "Invalid number literal.")
			return nil
		}
		value = float64(n)
	} else {
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorAt(tok, "Invalid number literal.")
			return nil
		}
		value = f
	}
	return &NumberLit{PosVal: tok.Pos, Value: value}
}

func parseStringLit(p *Parser, canAssign bool) Expr {
	tok := p.curToken
	p.nextToken()
	return &StringLit{PosVal: tok.Pos, Value: tok.Literal}
}

func parseBoolLit(p *Parser, canAssign bool) Expr {
	tok := p.curToken
	p.nextToken()
	return &BoolLit{PosVal: tok.Pos, Value: tok.Type == TokenTrue}
}

func parseNullLit(p *Parser, canAssign bool) Expr {
	tok := p.curToken
	p.nextToken()
	return &NullLit{PosVal: tok.Pos}
}

func parseThisExpr(p *Parser, canAssign bool) Expr {
	tok := p.curToken
	p.nextToken()
	return &ThisExpr{PosVal: tok.Pos}
}

// parseNameExpr parses a bare name: a variable reference, an assignment
// to one, or a call with arguments whose receiver is the enclosing this.
func parseNameExpr(p *Parser, canAssign bool) Expr {
	tok := p.curToken
	p.nextToken()
	if canAssign && p.curTokenIs(TokenEq) {
		p.nextToken()
		p.skipLines()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &AssignExpr{
			PosVal: tok.Pos,
			Target: &NameExpr{PosVal: tok.Pos, Name: tok.Literal},
			Value:  value,
		}
	}
	if p.curTokenIs(TokenLParen) {
		call := &CallExpr{PosVal: tok.Pos, Name: tok.Literal}
		call.Args = p.parseArgList()
		call.BlockArg = p.parseBlockArg()
		return call
	}
	return &NameExpr{PosVal: tok.Pos, Name: tok.Literal}
}

func parseFieldExpr(p *Parser, canAssign bool) Expr {
	tok := p.curToken
	p.nextToken()
	if canAssign && p.curTokenIs(TokenEq) {
		p.nextToken()
		p.skipLines()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &AssignExpr{
			PosVal: tok.Pos,
			Target: &FieldExpr{PosVal: tok.Pos, Name: tok.Literal},
			Value:  value,
		}
	}
	return &FieldExpr{PosVal: tok.Pos, Name: tok.Literal}
}

func parseGrouping(p *Parser, canAssign bool) Expr {
	p.nextToken() // consume '('
	p.skipLines()
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	p.skipLines()
	p.expect(TokenRParen, "Expect ')' after expression.")
	return expr
}

func parseListLit(p *Parser, canAssign bool) Expr {
	lit := &ListLit{PosVal: p.curToken.Pos}
	p.nextToken() // consume '['
	p.skipLines()
	if p.match(TokenRBracket) {
		return lit
	}
	for {
		elem := p.parseExpression()
		if elem == nil {
			return nil
		}
		lit.Elements = append(lit.Elements, elem)
		p.skipLines()
		if !p.match(TokenComma) {
			break
		}
		p.skipLines()
	}
	p.expect(TokenRBracket, "Expect ']' after list elements.")
	return lit
}

// parseFnLit parses a function literal: { body } or {|a, b| body }.
func parseFnLit(p *Parser, canAssign bool) Expr {
	return p.parseFnLiteral()
}

func (p *Parser) parseFnLiteral() *FnExpr {
	fn := &FnExpr{PosVal: p.curToken.Pos}
	p.nextToken() // consume '{'
	if p.match(TokenPipe) {
		fn.Params = p.parseParams(TokenPipe, "Expect '|' after function parameters.")
	}
	fn.Body = p.parseBody()
	return fn
}

// parseBlockArg parses a trailing block argument when the next token is a
// '{' on the same line as the call.
func (p *Parser) parseBlockArg() *FnExpr {
	if !p.curTokenIs(TokenLBrace) {
		return nil
	}
	return p.parseFnLiteral()
}

func parsePrefixOp(p *Parser, canAssign bool) Expr {
	tok := p.curToken
	p.nextToken()
	operand := p.parsePrecedence(precUnary)
	if operand == nil {
		return nil
	}
	return &PrefixExpr{PosVal: tok.Pos, Op: tok.Literal, Operand: operand}
}

// parseNewExpr parses object construction: new Name(args), where the class
// may be named through a chain of getters (new foo.Bar). The first
// parenthesized list is the constructor argument list.
func parseNewExpr(p *Parser, canAssign bool) Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume 'new'
	if !p.curTokenIs(TokenName) {
		p.errorAtCur("Expect a class name after 'new'.")
		return nil
	}
	var class Expr = &NameExpr{PosVal: p.curToken.Pos, Name: p.curToken.Literal}
	p.nextToken()
	for p.curTokenIs(TokenDot) && p.peekTokenIs(TokenName) {
		p.nextToken()
		class = &CallExpr{PosVal: p.curToken.Pos, Receiver: class, Name: p.curToken.Literal}
		p.nextToken()
	}
	expr := &NewExpr{PosVal: pos, Class: class}
	if p.curTokenIs(TokenLParen) {
		expr.HasArgs = true
		expr.Args = p.parseArgList()
	}
	expr.BlockArg = p.parseBlockArg()
	return expr
}

func parseInfixOp(p *Parser, lhs Expr, canAssign bool) Expr {
	tok := p.curToken
	prec := rules[tok.Type].prec
	p.nextToken()
	p.skipLines()
	rhs := p.parsePrecedence(prec + 1)
	if rhs == nil {
		return nil
	}
	return &InfixExpr{PosVal: tok.Pos, Op: tok.Literal, LHS: lhs, RHS: rhs}
}

func parseAndExpr(p *Parser, lhs Expr, canAssign bool) Expr {
	pos := p.curToken.Pos
	p.nextToken()
	p.skipLines()
	rhs := p.parsePrecedence(precAnd + 1)
	if rhs == nil {
		return nil
	}
	return &AndExpr{PosVal: pos, LHS: lhs, RHS: rhs}
}

func parseOrExpr(p *Parser, lhs Expr, canAssign bool) Expr {
	pos := p.curToken.Pos
	p.nextToken()
	p.skipLines()
	rhs := p.parsePrecedence(precOr + 1)
	if rhs == nil {
		return nil
	}
	return &OrExpr{PosVal: pos, LHS: lhs, RHS: rhs}
}

func parseIsExpr(p *Parser, lhs Expr, canAssign bool) Expr {
	pos := p.curToken.Pos
	p.nextToken()
	p.skipLines()
	rhs := p.parsePrecedence(precIs + 1)
	if rhs == nil {
		return nil
	}
	return &IsExpr{PosVal: pos, Value: lhs, Type: rhs}
}

// parseDotExpr parses a method call on an explicit receiver, with optional
// arguments and an optional trailing block argument.
func parseDotExpr(p *Parser, lhs Expr, canAssign bool) Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume '.'
	p.skipLines()
	if !p.curTokenIs(TokenName) && !p.curTokenIs(TokenNew) {
		p.errorAtCur("Expect method name after '.'.")
		return nil
	}
	call := &CallExpr{PosVal: pos, Receiver: lhs, Name: p.curToken.Literal}
	p.nextToken()
	if p.curTokenIs(TokenLParen) {
		call.Args = p.parseArgList()
	}
	call.BlockArg = p.parseBlockArg()
	if canAssign && p.curTokenIs(TokenEq) {
		p.errorAtCur("Cannot assign to a method call.")
		return nil
	}
	return call
}

func parseSubscript(p *Parser, lhs Expr, canAssign bool) Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume '['
	p.skipLines()
	var args []Expr
	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		p.skipLines()
		if !p.match(TokenComma) {
			break
		}
		p.skipLines()
	}
	p.expect(TokenRBracket, "Expect ']' after subscript arguments.")
	sub := &SubscriptExpr{PosVal: pos, Receiver: lhs, Args: args}
	if canAssign && p.match(TokenEq) {
		p.skipLines()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &AssignExpr{PosVal: pos, Target: sub, Value: value}
	}
	return sub
}

// parseArgList parses a parenthesized argument list. The current token is
// the opening paren.
func (p *Parser) parseArgList() []Expr {
	p.nextToken() // consume '('
	p.skipLines()
	var args []Expr
	if p.match(TokenRParen) {
		return args
	}
	for {
		arg := p.parseExpression()
		if arg == nil {
			return args
		}
		args = append(args, arg)
		p.skipLines()
		if !p.match(TokenComma) {
			break
		}
		p.skipLines()
	}
	p.expect(TokenRParen, "Expect ')' after arguments.")
	return args
}
