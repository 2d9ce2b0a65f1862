package compiler

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Semantic Analyzer: post-parse lint checks
// ---------------------------------------------------------------------------

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is a positioned message produced by analysis. Unlike a
// CompileError it does not stop compilation; callers decide what to do
// with warnings.
type Diagnostic struct {
	Pos      Position
	Message  string
	Severity Severity
}

func (d *Diagnostic) String() string {
	if d.Severity == SeverityWarning {
		return fmt.Sprintf("warning: line %d: %s", d.Pos.Line, d.Message)
	}
	return fmt.Sprintf("line %d: %s", d.Pos.Line, d.Message)
}

// Analyzer walks a parsed program looking for likely mistakes that are
// still legal code: locals that are never read, statements that can
// never run, and methods that silently replace an earlier definition.
type Analyzer struct {
	diagnostics []*Diagnostic

	// Stack of lexical scopes. The bottom frame holds top-level
	// variables, which are globals and never reported as unused.
	scopes []*analyzerScope
}

type analyzerScope struct {
	vars map[string]*varUse
}

type varUse struct {
	name string
	pos  Position
	read bool
}

// NewAnalyzer creates an analyzer with an empty top-level scope.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		scopes: []*analyzerScope{{vars: map[string]*varUse{}}},
	}
}

// Analyze checks a parsed program and returns any warnings found.
func Analyze(program *Program) []*Diagnostic {
	a := NewAnalyzer()
	a.statements(program.Statements)
	return a.diagnostics
}

// Diagnostics returns the accumulated diagnostics.
func (a *Analyzer) Diagnostics() []*Diagnostic {
	return a.diagnostics
}

func (a *Analyzer) warnAt(pos Position, format string, args ...interface{}) {
	a.diagnostics = append(a.diagnostics, &Diagnostic{
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

func (a *Analyzer) pushScope() {
	a.scopes = append(a.scopes, &analyzerScope{vars: map[string]*varUse{}})
}

// popScope reports locals that were declared but never read. The
// top-level frame is exempt since its variables are globals and may be
// read by a later interpret call.
func (a *Analyzer) popScope() {
	scope := a.scopes[len(a.scopes)-1]
	a.scopes = a.scopes[:len(a.scopes)-1]
	if len(a.scopes) == 0 {
		return
	}
	for _, v := range scope.vars {
		if !v.read {
			a.warnAt(v.pos, "Variable '%s' is never used.", v.name)
		}
	}
}

func (a *Analyzer) declare(name string, pos Position) {
	scope := a.scopes[len(a.scopes)-1]
	scope.vars[name] = &varUse{name: name, pos: pos}
}

func (a *Analyzer) markRead(name string) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if v, ok := a.scopes[i].vars[name]; ok {
			v.read = true
			return
		}
	}
}

func (a *Analyzer) statements(stmts []Stmt) {
	for i, stmt := range stmts {
		a.stmt(stmt)
		if i < len(stmts)-1 && terminatesFlow(stmt) {
			a.warnAt(stmts[i+1].Pos(), "Unreachable code.")
			// Keep analyzing so later scopes still get checked, but
			// only report once per statement list.
			for _, rest := range stmts[i+1:] {
				a.stmt(rest)
			}
			return
		}
	}
}

// terminatesFlow reports whether control never falls through stmt.
func terminatesFlow(stmt Stmt) bool {
	switch stmt.(type) {
	case *ReturnStmt, *BreakStmt:
		return true
	}
	return false
}

func (a *Analyzer) stmt(stmt Stmt) {
	switch st := stmt.(type) {
	case *ExprStmt:
		a.expr(st.Expr)
	case *VarStmt:
		if st.Init != nil {
			a.expr(st.Init)
		}
		a.declare(st.Name, st.Pos())
	case *IfStmt:
		a.expr(st.Cond)
		a.stmt(st.Then)
		if st.Else != nil {
			a.stmt(st.Else)
		}
	case *WhileStmt:
		a.expr(st.Cond)
		a.stmt(st.Body)
	case *ForStmt:
		a.expr(st.Sequence)
		a.pushScope()
		a.declare(st.Variable, st.Pos())
		// Loop variables are exempt: iterating for the side effect
		// alone is a normal way to repeat a body n times.
		a.markRead(st.Variable)
		a.stmt(st.Body)
		a.popScope()
	case *ReturnStmt:
		if st.Value != nil {
			a.expr(st.Value)
		}
	case *BreakStmt:
		// Nothing to check.
	case *BlockStmt:
		a.pushScope()
		a.statements(st.Statements)
		a.popScope()
	case *ClassStmt:
		a.classStmt(st)
	}
}

func (a *Analyzer) classStmt(stmt *ClassStmt) {
	if stmt.Superclass != nil {
		a.expr(stmt.Superclass)
	}
	a.declare(stmt.Name, stmt.Pos())
	a.markRead(stmt.Name)

	// A method with the same signature as an earlier one silently
	// replaces it, which is almost always a copy-paste mistake.
	type methodKey struct {
		signature string
		static    bool
	}
	seen := map[methodKey]bool{}
	for _, method := range stmt.Methods {
		key := methodKey{signature: method.Signature(), static: method.IsStatic}
		if seen[key] {
			a.warnAt(method.Pos(), "Class '%s' already defines method '%s'.",
				stmt.Name, method.Signature())
		}
		seen[key] = true
		a.method(method)
	}
}

func (a *Analyzer) method(def *MethodDef) {
	a.pushScope()
	for _, param := range def.Params {
		a.declare(param, def.Pos())
		// Parameters are part of the signature, so an unused one is
		// not worth reporting.
		a.markRead(param)
	}
	a.body(def.Body)
	a.popScope()
}

func (a *Analyzer) body(body *Body) {
	if body.Expr != nil {
		a.expr(body.Expr)
		return
	}
	a.statements(body.Statements)
}

func (a *Analyzer) expr(expr Expr) {
	switch e := expr.(type) {
	case *NameExpr:
		a.markRead(e.Name)
	case *PrefixExpr:
		a.expr(e.Operand)
	case *InfixExpr:
		a.expr(e.LHS)
		a.expr(e.RHS)
	case *AndExpr:
		a.expr(e.LHS)
		a.expr(e.RHS)
	case *OrExpr:
		a.expr(e.LHS)
		a.expr(e.RHS)
	case *IsExpr:
		a.expr(e.Value)
		a.expr(e.Type)
	case *CallExpr:
		if e.Receiver != nil {
			a.expr(e.Receiver)
		} else {
			a.markRead(e.Name)
		}
		for _, arg := range e.Args {
			a.expr(arg)
		}
		if e.BlockArg != nil {
			a.fnExpr(e.BlockArg)
		}
	case *SubscriptExpr:
		a.expr(e.Receiver)
		for _, arg := range e.Args {
			a.expr(arg)
		}
	case *AssignExpr:
		a.expr(e.Value)
		a.assignTarget(e.Target)
	case *ListLit:
		for _, elem := range e.Elements {
			a.expr(elem)
		}
	case *FnExpr:
		a.fnExpr(e)
	case *NewExpr:
		a.expr(e.Class)
		for _, arg := range e.Args {
			a.expr(arg)
		}
		if e.BlockArg != nil {
			a.fnExpr(e.BlockArg)
		}
	}
}

// assignTarget marks a write. Writing alone does not count as a read,
// but subscript targets evaluate their receivers normally.
func (a *Analyzer) assignTarget(target Expr) {
	if sub, ok := target.(*SubscriptExpr); ok {
		a.expr(sub.Receiver)
		for _, arg := range sub.Args {
			a.expr(arg)
		}
	}
}

func (a *Analyzer) fnExpr(fn *FnExpr) {
	a.pushScope()
	for _, param := range fn.Params {
		a.declare(param, fn.Pos())
		a.markRead(param)
	}
	a.body(fn.Body)
	a.popScope()
}
