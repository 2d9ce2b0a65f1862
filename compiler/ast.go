package compiler

import "github.com/pwoolcoc/wren/vm"

// ---------------------------------------------------------------------------
// AST
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
	node() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// Program is the root of a parsed module: the statements at the top level
// of the source.
type Program struct {
	Statements []Stmt
}

// Body is the body of a method or function literal. Either Expr is set
// (a single-expression body whose value is returned) or Statements holds
// a statement body.
type Body struct {
	Statements []Stmt
	Expr       Expr
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// NumberLit represents a numeric literal.
type NumberLit struct {
	PosVal Position
	Value  float64
}

func (n *NumberLit) Pos() Position { return n.PosVal }
func (n *NumberLit) node()         {}
func (n *NumberLit) expr()         {}

// StringLit represents a string literal. Value holds the decoded text.
type StringLit struct {
	PosVal Position
	Value  string
}

func (n *StringLit) Pos() Position { return n.PosVal }
func (n *StringLit) node()         {}
func (n *StringLit) expr()         {}

// BoolLit represents true or false.
type BoolLit struct {
	PosVal Position
	Value  bool
}

func (n *BoolLit) Pos() Position { return n.PosVal }
func (n *BoolLit) node()         {}
func (n *BoolLit) expr()         {}

// NullLit represents the null literal.
type NullLit struct {
	PosVal Position
}

func (n *NullLit) Pos() Position { return n.PosVal }
func (n *NullLit) node()         {}
func (n *NullLit) expr()         {}

// ListLit represents a list literal [a, b, c].
type ListLit struct {
	PosVal   Position
	Elements []Expr
}

func (n *ListLit) Pos() Position { return n.PosVal }
func (n *ListLit) node()         {}
func (n *ListLit) expr()         {}

// ThisExpr represents the receiver of the enclosing method.
type ThisExpr struct {
	PosVal Position
}

func (n *ThisExpr) Pos() Position { return n.PosVal }
func (n *ThisExpr) node()         {}
func (n *ThisExpr) expr()         {}

// NameExpr represents a bare name: a local, an upvalue, a global, or an
// implicit send to this, resolved during code generation.
type NameExpr struct {
	PosVal Position
	Name   string
}

func (n *NameExpr) Pos() Position { return n.PosVal }
func (n *NameExpr) node()         {}
func (n *NameExpr) expr()         {}

// FieldExpr represents an instance field reference (_name).
type FieldExpr struct {
	PosVal Position
	Name   string
}

func (n *FieldExpr) Pos() Position { return n.PosVal }
func (n *FieldExpr) node()         {}
func (n *FieldExpr) expr()         {}

// PrefixExpr represents a prefix operator application: -a, !a, ~a.
type PrefixExpr struct {
	PosVal  Position
	Op      string
	Operand Expr
}

func (n *PrefixExpr) Pos() Position { return n.PosVal }
func (n *PrefixExpr) node()         {}
func (n *PrefixExpr) expr()         {}

// InfixExpr represents a binary operator application: a + b, a .. b.
// Logical && and || have their own nodes since they short-circuit.
type InfixExpr struct {
	PosVal Position
	Op     string
	LHS    Expr
	RHS    Expr
}

func (n *InfixExpr) Pos() Position { return n.PosVal }
func (n *InfixExpr) node()         {}
func (n *InfixExpr) expr()         {}

// AndExpr represents a short-circuiting a && b.
type AndExpr struct {
	PosVal Position
	LHS    Expr
	RHS    Expr
}

func (n *AndExpr) Pos() Position { return n.PosVal }
func (n *AndExpr) node()         {}
func (n *AndExpr) expr()         {}

// OrExpr represents a short-circuiting a || b.
type OrExpr struct {
	PosVal Position
	LHS    Expr
	RHS    Expr
}

func (n *OrExpr) Pos() Position { return n.PosVal }
func (n *OrExpr) node()         {}
func (n *OrExpr) expr()         {}

// IsExpr represents a type test: value is Type.
type IsExpr struct {
	PosVal Position
	Value  Expr
	Type   Expr
}

func (n *IsExpr) Pos() Position { return n.PosVal }
func (n *IsExpr) node()         {}
func (n *IsExpr) expr()         {}

// CallExpr represents a method call. A nil Receiver means an implicit send
// to this: a bare name with an argument list inside a method body. A
// trailing block argument is passed as one more function argument.
type CallExpr struct {
	PosVal   Position
	Receiver Expr
	Name     string
	Args     []Expr
	BlockArg *FnExpr
}

func (n *CallExpr) Pos() Position { return n.PosVal }
func (n *CallExpr) node()         {}
func (n *CallExpr) expr()         {}

// SubscriptExpr represents recv[a, b].
type SubscriptExpr struct {
	PosVal   Position
	Receiver Expr
	Args     []Expr
}

func (n *SubscriptExpr) Pos() Position { return n.PosVal }
func (n *SubscriptExpr) node()         {}
func (n *SubscriptExpr) expr()         {}

// AssignExpr represents an assignment. Target is a NameExpr, FieldExpr,
// or SubscriptExpr.
type AssignExpr struct {
	PosVal Position
	Target Expr
	Value  Expr
}

func (n *AssignExpr) Pos() Position { return n.PosVal }
func (n *AssignExpr) node()         {}
func (n *AssignExpr) expr()         {}

// FnExpr represents a function literal: { body } or {|a, b| body }.
type FnExpr struct {
	PosVal Position
	Params []string
	Body   *Body
}

func (n *FnExpr) Pos() Position { return n.PosVal }
func (n *FnExpr) node()         {}
func (n *FnExpr) expr()         {}

// NewExpr represents object construction: new Class(args). HasArgs
// distinguishes "new Foo()" from "new Foo"; both call the zero-argument
// constructor. A trailing block becomes one more constructor argument.
type NewExpr struct {
	PosVal   Position
	Class    Expr
	Args     []Expr
	HasArgs  bool
	BlockArg *FnExpr
}

func (n *NewExpr) Pos() Position { return n.PosVal }
func (n *NewExpr) node()         {}
func (n *NewExpr) expr()         {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	Expr Expr
}

func (n *ExprStmt) Pos() Position { return n.Expr.Pos() }
func (n *ExprStmt) node()         {}
func (n *ExprStmt) stmt()         {}

// VarStmt represents a variable declaration. A nil Init defaults to null.
type VarStmt struct {
	PosVal Position
	Name   string
	Init   Expr
}

func (n *VarStmt) Pos() Position { return n.PosVal }
func (n *VarStmt) node()         {}
func (n *VarStmt) stmt()         {}

// IfStmt represents if (cond) then else. Else may be nil.
type IfStmt struct {
	PosVal Position
	Cond   Expr
	Then   Stmt
	Else   Stmt
}

func (n *IfStmt) Pos() Position { return n.PosVal }
func (n *IfStmt) node()         {}
func (n *IfStmt) stmt()         {}

// WhileStmt represents while (cond) body.
type WhileStmt struct {
	PosVal Position
	Cond   Expr
	Body   Stmt
}

func (n *WhileStmt) Pos() Position { return n.PosVal }
func (n *WhileStmt) node()         {}
func (n *WhileStmt) stmt()         {}

// ForStmt represents for (variable in sequence) body, driven by the
// sequence's iterate and iteratorValue methods.
type ForStmt struct {
	PosVal   Position
	Variable string
	Sequence Expr
	Body     Stmt
}

func (n *ForStmt) Pos() Position { return n.PosVal }
func (n *ForStmt) node()         {}
func (n *ForStmt) stmt()         {}

// ReturnStmt represents return, with an optional value.
type ReturnStmt struct {
	PosVal Position
	Value  Expr
}

func (n *ReturnStmt) Pos() Position { return n.PosVal }
func (n *ReturnStmt) node()         {}
func (n *ReturnStmt) stmt()         {}

// BreakStmt represents break inside a loop.
type BreakStmt struct {
	PosVal Position
}

func (n *BreakStmt) Pos() Position { return n.PosVal }
func (n *BreakStmt) node()         {}
func (n *BreakStmt) stmt()         {}

// BlockStmt represents a braced block of statements with its own scope.
type BlockStmt struct {
	PosVal     Position
	Statements []Stmt
}

func (n *BlockStmt) Pos() Position { return n.PosVal }
func (n *BlockStmt) node()         {}
func (n *BlockStmt) stmt()         {}

// ClassStmt represents a class declaration. A nil Superclass inherits
// from Object.
type ClassStmt struct {
	PosVal     Position
	Name       string
	Superclass Expr
	Methods    []*MethodDef
}

func (n *ClassStmt) Pos() Position { return n.PosVal }
func (n *ClassStmt) node()         {}
func (n *ClassStmt) stmt()         {}

// MethodDef is one method inside a class declaration. Name holds the bare
// method or operator name; for subscript forms it is empty and IsSubscript
// is set. Setter forms append the value parameter last.
type MethodDef struct {
	PosVal      Position
	Name        string
	Params      []string
	IsStatic    bool
	IsSubscript bool
	IsSetter    bool
	Body        *Body
}

func (n *MethodDef) Pos() Position { return n.PosVal }

// Signature returns the method's dispatch signature.
func (n *MethodDef) Signature() string {
	if n.IsSubscript {
		numIndices := len(n.Params)
		if n.IsSetter {
			numIndices--
		}
		return vm.SubscriptSignature(numIndices, n.IsSetter)
	}
	return vm.Signature(n.Name, len(n.Params))
}
