package compiler

import (
	"fmt"

	"github.com/pwoolcoc/wren/vm"
)

// ---------------------------------------------------------------------------
// Codegen: compile the AST to bytecode
// ---------------------------------------------------------------------------

const (
	// maxArgs is the widest call instruction the opcode set carries.
	maxArgs = 16

	// maxLocals is the range of a one-byte local slot operand.
	maxLocals = 256

	// maxFields is the range of a one-byte field index operand.
	maxFields = 255
)

// local is a named stack slot in the current fn.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef describes one captured variable: a local slot in the
// enclosing fn, or an upvalue index of the enclosing fn.
type upvalueRef struct {
	isLocal bool
	index   int
}

// loopScope tracks the innermost enclosing loop for break statements.
type loopScope struct {
	enclosing  *loopScope
	start      int   // bytecode position the loop jumps back to
	scopeDepth int   // scope depth surrounding the loop body
	breaks     []int // forward jumps to patch to the loop end
}

// fnScope is the compilation state of one fn. Locals mirror the runtime
// stack: slot 0 holds the receiver, parameters follow, then declared
// variables.
type fnScope struct {
	parent     *fnScope
	builder    *vm.FnBuilder
	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
	loop       *loopScope
	isMethod   bool
	isStatic   bool
}

// classScope tracks the class declaration being compiled. Fields are
// numbered in order of first use.
type classScope struct {
	name   string
	fields []string
}

func (cs *classScope) fieldIndex(name string) int {
	for i, f := range cs.fields {
		if f == name {
			return i
		}
	}
	cs.fields = append(cs.fields, name)
	return len(cs.fields) - 1
}

// codegen compiles a parsed program against a VM, which supplies the
// method and global symbol tables.
type codegen struct {
	vm     *vm.VM
	fn     *fnScope
	class  *classScope
	errors ErrorList
}

// Compile parses source and compiles it into a fn that runs the module's
// top level code. The value of a trailing expression statement becomes the
// fn's result, which read-eval loops print. The signature matches
// vm.CompileFn.
func Compile(v *vm.VM, name, source string) (*vm.ObjFn, error) {
	prog, err := Parse(source)
	if err != nil {
		return nil, err
	}

	c := &codegen{vm: v}
	fs := &fnScope{builder: vm.NewFnBuilder(name, 0)}
	fs.locals = append(fs.locals, local{})
	c.fn = fs

	stmts := prog.Statements
	returned := false
	for i, s := range stmts {
		if i == len(stmts)-1 {
			if es, ok := s.(*ExprStmt); ok {
				c.expr(es.Expr)
				fs.builder.Emit(vm.OpReturn)
				fs.builder.Adjust(-1)
				returned = true
				break
			}
		}
		c.stmt(s)
	}
	if !returned {
		fs.builder.Emit(vm.OpNull)
		fs.builder.Adjust(1)
		fs.builder.Emit(vm.OpReturn)
		fs.builder.Adjust(-1)
	}

	if len(c.errors) > 0 {
		return nil, c.errors
	}
	return fs.builder.Build(), nil
}

func (c *codegen) errorAt(pos Position, message string) {
	c.errors = append(c.errors, &CompileError{Pos: pos, Message: message})
}

// ---------------------------------------------------------------------------
// Scopes and variables
// ---------------------------------------------------------------------------

func (c *codegen) beginScope() {
	c.fn.scopeDepth++
}

// endScope pops the locals declared in the scope being left. Captured
// locals are moved to the heap instead of discarded.
func (c *codegen) endScope() {
	c.fn.scopeDepth--
	b := c.fn.builder
	for len(c.fn.locals) > 0 {
		l := c.fn.locals[len(c.fn.locals)-1]
		if l.depth <= c.fn.scopeDepth {
			break
		}
		if l.isCaptured {
			b.Emit(vm.OpCloseUpvalue)
		} else {
			b.Emit(vm.OpPop)
		}
		b.Adjust(-1)
		c.fn.locals = c.fn.locals[:len(c.fn.locals)-1]
	}
}

// discardLocals emits pops for locals deeper than depth without ending
// their scope, for jumps that leave a loop early. The stack accounting is
// untouched since the fall-through path keeps those slots.
func (c *codegen) discardLocals(depth int) {
	b := c.fn.builder
	for i := len(c.fn.locals) - 1; i >= 0 && c.fn.locals[i].depth > depth; i-- {
		if c.fn.locals[i].isCaptured {
			b.Emit(vm.OpCloseUpvalue)
		} else {
			b.Emit(vm.OpPop)
		}
	}
}

// declareLocal names the value on top of the stack as a new local in the
// current scope.
func (c *codegen) declareLocal(name string, pos Position) {
	if len(c.fn.locals) >= maxLocals {
		c.errorAt(pos, "Too many local variables.")
		return
	}
	for i := len(c.fn.locals) - 1; i >= 0; i-- {
		l := c.fn.locals[i]
		if l.depth < c.fn.scopeDepth {
			break
		}
		if l.name == name {
			c.errorAt(pos, fmt.Sprintf("Variable '%s' is already declared in this scope.", name))
			break
		}
	}
	c.fn.locals = append(c.fn.locals, local{name: name, depth: c.fn.scopeDepth})
}

// defineVariable consumes the value on top of the stack as a variable's
// initial value: stored into a module global at the top level, or left in
// place as a new local otherwise. Redefining a global is allowed, which
// read-eval loops rely on.
func (c *codegen) defineVariable(name string, pos Position) {
	if c.fn.parent == nil && c.fn.scopeDepth == 0 {
		slot := c.vm.DeclareGlobal(name)
		c.fn.builder.EmitShort(vm.OpStoreGlobal, uint16(slot))
		c.fn.builder.Emit(vm.OpPop)
		c.fn.builder.Adjust(-1)
		return
	}
	c.declareLocal(name, pos)
}

func resolveLocal(fs *fnScope, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i
		}
	}
	return -1
}

// resolveUpvalue finds name in an enclosing fn and threads it through the
// scopes in between, marking the defining local as captured.
func resolveUpvalue(fs *fnScope, name string) int {
	if fs.parent == nil {
		return -1
	}
	if idx := resolveLocal(fs.parent, name); idx != -1 {
		fs.parent.locals[idx].isCaptured = true
		return addUpvalue(fs, true, idx)
	}
	if idx := resolveUpvalue(fs.parent, name); idx != -1 {
		return addUpvalue(fs, false, idx)
	}
	return -1
}

func addUpvalue(fs *fnScope, isLocal bool, index int) int {
	for i, uv := range fs.upvalues {
		if uv.isLocal == isLocal && uv.index == index {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{isLocal: isLocal, index: index})
	return len(fs.upvalues) - 1
}

// loadVariable emits a load for a local or captured variable and reports
// whether the name resolved.
func (c *codegen) loadVariable(name string) bool {
	b := c.fn.builder
	if slot := resolveLocal(c.fn, name); slot != -1 {
		b.EmitByte(vm.OpLoadLocal, byte(slot))
		b.Adjust(1)
		return true
	}
	if idx := resolveUpvalue(c.fn, name); idx != -1 {
		b.EmitByte(vm.OpLoadUpvalue, byte(idx))
		b.Adjust(1)
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// emitCallSignature emits a call instruction for an already formed
// signature.
func (c *codegen) emitCallSignature(signature string, numArgs int, pos Position) {
	if numArgs > maxArgs {
		c.errorAt(pos, fmt.Sprintf("Cannot pass more than %d arguments to a method.", maxArgs))
		return
	}
	symbol := c.vm.MethodSymbol(signature)
	c.fn.builder.EmitShort(vm.CallOp(numArgs), uint16(symbol))
	c.fn.builder.Adjust(-numArgs)
}

func (c *codegen) emitCall(name string, numArgs int, pos Position) {
	c.emitCallSignature(vm.Signature(name, numArgs), numArgs, pos)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *codegen) stmt(s Stmt) {
	switch s := s.(type) {
	case *ExprStmt:
		c.expr(s.Expr)
		c.fn.builder.Emit(vm.OpPop)
		c.fn.builder.Adjust(-1)
	case *VarStmt:
		c.varStmt(s)
	case *IfStmt:
		c.ifStmt(s)
	case *WhileStmt:
		c.whileStmt(s)
	case *ForStmt:
		c.forStmt(s)
	case *ReturnStmt:
		c.returnStmt(s)
	case *BreakStmt:
		c.breakStmt(s)
	case *BlockStmt:
		c.beginScope()
		for _, st := range s.Statements {
			c.stmt(st)
		}
		c.endScope()
	case *ClassStmt:
		c.classStmt(s)
	default:
		panic(fmt.Sprintf("codegen: unexpected statement %T", s))
	}
}

func (c *codegen) varStmt(s *VarStmt) {
	if s.Init != nil {
		c.expr(s.Init)
	} else {
		c.fn.builder.Emit(vm.OpNull)
		c.fn.builder.Adjust(1)
	}
	c.defineVariable(s.Name, s.PosVal)
}

func (c *codegen) ifStmt(s *IfStmt) {
	b := c.fn.builder
	c.expr(s.Cond)
	elseJump := b.EmitJump(vm.OpJumpIf)
	b.Adjust(-1)
	c.stmt(s.Then)
	if s.Else != nil {
		endJump := b.EmitJump(vm.OpJump)
		b.PatchJump(elseJump)
		c.stmt(s.Else)
		b.PatchJump(endJump)
		return
	}
	b.PatchJump(elseJump)
}

func (c *codegen) whileStmt(s *WhileStmt) {
	b := c.fn.builder
	loop := &loopScope{enclosing: c.fn.loop, start: b.Pos(), scopeDepth: c.fn.scopeDepth}
	c.fn.loop = loop

	c.expr(s.Cond)
	exitJump := b.EmitJump(vm.OpJumpIf)
	b.Adjust(-1)
	c.stmt(s.Body)
	b.EmitLoop(loop.start)

	b.PatchJump(exitJump)
	for _, pos := range loop.breaks {
		b.PatchJump(pos)
	}
	c.fn.loop = loop.enclosing
}

// forStmt drives the loop through the sequence protocol: iterate advances
// a hidden iterator and is falsy when done, iteratorValue produces the
// value for the loop variable.
func (c *codegen) forStmt(s *ForStmt) {
	b := c.fn.builder
	c.beginScope()

	c.expr(s.Sequence)
	c.declareLocal("seq ", s.PosVal)
	seqSlot := len(c.fn.locals) - 1
	b.Emit(vm.OpNull)
	b.Adjust(1)
	c.declareLocal("iter ", s.PosVal)
	iterSlot := len(c.fn.locals) - 1

	loop := &loopScope{enclosing: c.fn.loop, start: b.Pos(), scopeDepth: c.fn.scopeDepth}
	c.fn.loop = loop

	b.EmitByte(vm.OpLoadLocal, byte(seqSlot))
	b.Adjust(1)
	b.EmitByte(vm.OpLoadLocal, byte(iterSlot))
	b.Adjust(1)
	c.emitCall("iterate", 1, s.PosVal)
	b.EmitByte(vm.OpStoreLocal, byte(iterSlot))
	exitJump := b.EmitJump(vm.OpJumpIf)
	b.Adjust(-1)

	c.beginScope()
	b.EmitByte(vm.OpLoadLocal, byte(seqSlot))
	b.Adjust(1)
	b.EmitByte(vm.OpLoadLocal, byte(iterSlot))
	b.Adjust(1)
	c.emitCall("iteratorValue", 1, s.PosVal)
	c.declareLocal(s.Variable, s.PosVal)
	c.stmt(s.Body)
	c.endScope()

	b.EmitLoop(loop.start)
	b.PatchJump(exitJump)
	for _, pos := range loop.breaks {
		b.PatchJump(pos)
	}
	c.fn.loop = loop.enclosing
	c.endScope()
}

// returnStmt compiles return. A bare return produces this in a method and
// null in a function, mirroring how bodies end implicitly.
func (c *codegen) returnStmt(s *ReturnStmt) {
	b := c.fn.builder
	if s.Value != nil {
		c.expr(s.Value)
	} else if c.fn.isMethod {
		b.EmitByte(vm.OpLoadLocal, 0)
		b.Adjust(1)
	} else {
		b.Emit(vm.OpNull)
		b.Adjust(1)
	}
	b.Emit(vm.OpReturn)
	b.Adjust(-1)
}

func (c *codegen) breakStmt(s *BreakStmt) {
	if c.fn.loop == nil {
		c.errorAt(s.PosVal, "Cannot use 'break' outside of a loop.")
		return
	}
	c.discardLocals(c.fn.loop.scopeDepth)
	pos := c.fn.builder.EmitJump(vm.OpJump)
	c.fn.loop.breaks = append(c.fn.loop.breaks, pos)
}

// ---------------------------------------------------------------------------
// Classes
// ---------------------------------------------------------------------------

func (c *codegen) classStmt(s *ClassStmt) {
	b := c.fn.builder

	// The class instruction pops the superclass, then the name.
	b.EmitConstant(c.vm.NewString(s.Name))
	if s.Superclass != nil {
		c.expr(s.Superclass)
	} else if slot := c.vm.GlobalSlot("Object"); slot != -1 {
		b.EmitShort(vm.OpLoadGlobal, uint16(slot))
		b.Adjust(1)
	} else {
		c.errorAt(s.PosVal, "Object is not defined.")
		b.Emit(vm.OpNull)
		b.Adjust(1)
	}

	// The field count is known once every method body has been compiled.
	numFieldsPos := b.Pos() + 1
	b.EmitByte(vm.OpClass, 0)
	b.Adjust(-1)

	enclosing := c.class
	c.class = &classScope{name: s.Name}
	for _, def := range s.Methods {
		c.method(def)
	}
	if len(c.class.fields) > maxFields {
		c.errorAt(s.PosVal, fmt.Sprintf("A class can only have %d fields.", maxFields))
	}
	b.PatchByte(numFieldsPos, byte(len(c.class.fields)))
	c.class = enclosing

	// The class object on the stack becomes a variable named after it.
	c.defineVariable(s.Name, s.PosVal)
}

func (c *codegen) method(def *MethodDef) {
	name := def.Name
	if def.IsSubscript {
		name = "[]"
	}
	fn, upvalues := c.compileFn(c.class.name+"."+name, def.Params, def.Body, true, def.IsStatic, def.PosVal)

	if len(upvalues) == 0 {
		c.fn.builder.EmitConstant(vm.ObjVal(fn))
	} else {
		c.emitClosure(fn, upvalues)
	}
	op := vm.OpMethodInstance
	if def.IsStatic {
		op = vm.OpMethodStatic
	}
	c.fn.builder.EmitShort(op, uint16(c.vm.MethodSymbol(def.Signature())))
	c.fn.builder.Adjust(-1)
}

// ---------------------------------------------------------------------------
// Fns and bodies
// ---------------------------------------------------------------------------

// compileFn compiles a parameter list and body in a child scope and
// returns the built fn along with the variables it captures.
func (c *codegen) compileFn(name string, params []string, body *Body, isMethod, isStatic bool, pos Position) (*vm.ObjFn, []upvalueRef) {
	if len(params) > maxArgs {
		c.errorAt(pos, fmt.Sprintf("Cannot have more than %d parameters.", maxArgs))
	}
	fs := &fnScope{
		parent:   c.fn,
		builder:  vm.NewFnBuilder(name, len(params)),
		isMethod: isMethod,
		isStatic: isStatic,
	}
	receiver := ""
	if isMethod {
		// Naming slot 0 lets this resolve like a variable, so fns nested
		// in the method capture it as an upvalue.
		receiver = "this"
	}
	fs.locals = append(fs.locals, local{name: receiver})
	for _, p := range params {
		fs.locals = append(fs.locals, local{name: p})
	}

	c.fn = fs
	c.body(body)
	c.fn = fs.parent

	fs.builder.SetNumUpvalues(len(fs.upvalues))
	return fs.builder.Build(), fs.upvalues
}

// body compiles a fn or method body, ending with an implicit return: the
// expression's value for expression bodies, otherwise this in a method and
// null in a function.
func (c *codegen) body(body *Body) {
	b := c.fn.builder
	if body.Expr != nil {
		c.expr(body.Expr)
		b.Emit(vm.OpReturn)
		b.Adjust(-1)
		return
	}
	for _, s := range body.Statements {
		c.stmt(s)
	}
	if c.fn.isMethod {
		b.EmitByte(vm.OpLoadLocal, 0)
	} else {
		b.Emit(vm.OpNull)
	}
	b.Adjust(1)
	b.Emit(vm.OpReturn)
	b.Adjust(-1)
}

func (c *codegen) fnLiteral(e *FnExpr) {
	fn, upvalues := c.compileFn("(fn)", e.Params, e.Body, false, false, e.PosVal)
	if len(upvalues) == 0 {
		c.fn.builder.EmitConstant(vm.ObjVal(fn))
		return
	}
	c.emitClosure(fn, upvalues)
}

func (c *codegen) emitClosure(fn *vm.ObjFn, upvalues []upvalueRef) {
	b := c.fn.builder
	b.EmitShort(vm.OpClosure, uint16(b.AddConstant(vm.ObjVal(fn))))
	for _, uv := range upvalues {
		if uv.isLocal {
			b.EmitRawByte(1)
		} else {
			b.EmitRawByte(0)
		}
		b.EmitRawByte(byte(uv.index))
	}
	b.Adjust(1)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *codegen) expr(e Expr) {
	b := c.fn.builder
	switch e := e.(type) {
	case *NumberLit:
		b.EmitConstant(vm.NumVal(e.Value))
	case *StringLit:
		b.EmitConstant(c.vm.NewString(e.Value))
	case *BoolLit:
		if e.Value {
			b.Emit(vm.OpTrue)
		} else {
			b.Emit(vm.OpFalse)
		}
		b.Adjust(1)
	case *NullLit:
		b.Emit(vm.OpNull)
		b.Adjust(1)
	case *ListLit:
		for _, elem := range e.Elements {
			c.expr(elem)
		}
		b.EmitShort(vm.OpList, uint16(len(e.Elements)))
		b.Adjust(-len(e.Elements) + 1)
	case *ThisExpr:
		if !c.loadVariable("this") {
			c.errorAt(e.PosVal, "Cannot use 'this' outside of a method.")
			b.Emit(vm.OpNull)
			b.Adjust(1)
		}
	case *NameExpr:
		c.name(e)
	case *FieldExpr:
		if idx, ok := c.fieldIndex(e); ok {
			b.EmitByte(vm.OpLoadField, byte(idx))
		} else {
			b.Emit(vm.OpNull)
		}
		b.Adjust(1)
	case *PrefixExpr:
		c.expr(e.Operand)
		c.emitCall(e.Op, 0, e.PosVal)
	case *InfixExpr:
		c.expr(e.LHS)
		c.expr(e.RHS)
		c.emitCall(e.Op, 1, e.PosVal)
	case *AndExpr:
		c.expr(e.LHS)
		jump := b.EmitJump(vm.OpAnd)
		b.Adjust(-1)
		c.expr(e.RHS)
		b.PatchJump(jump)
	case *OrExpr:
		c.expr(e.LHS)
		jump := b.EmitJump(vm.OpOr)
		b.Adjust(-1)
		c.expr(e.RHS)
		b.PatchJump(jump)
	case *IsExpr:
		c.expr(e.Value)
		c.expr(e.Type)
		b.Emit(vm.OpIs)
		b.Adjust(-1)
	case *CallExpr:
		c.call(e)
	case *SubscriptExpr:
		c.expr(e.Receiver)
		for _, a := range e.Args {
			c.expr(a)
		}
		c.emitCallSignature(vm.SubscriptSignature(len(e.Args), false), len(e.Args), e.PosVal)
	case *AssignExpr:
		c.assign(e)
	case *FnExpr:
		c.fnLiteral(e)
	case *NewExpr:
		c.newExpr(e)
	default:
		panic(fmt.Sprintf("codegen: unexpected expression %T", e))
	}
}

// name resolves a bare name: a local, a captured variable, a module
// global, or a getter sent to this.
func (c *codegen) name(e *NameExpr) {
	if c.loadVariable(e.Name) {
		return
	}
	if slot := c.vm.GlobalSlot(e.Name); slot != -1 {
		c.fn.builder.EmitShort(vm.OpLoadGlobal, uint16(slot))
		c.fn.builder.Adjust(1)
		return
	}
	if c.loadVariable("this") {
		c.emitCall(e.Name, 0, e.PosVal)
		return
	}
	c.errorAt(e.PosVal, fmt.Sprintf("Undeclared variable '%s'.", e.Name))
	c.fn.builder.Emit(vm.OpNull)
	c.fn.builder.Adjust(1)
}

func (c *codegen) call(e *CallExpr) {
	if e.Receiver != nil {
		c.expr(e.Receiver)
	} else if !c.loadVariable("this") {
		c.errorAt(e.PosVal, fmt.Sprintf("Cannot call '%s' outside of a method.", e.Name))
		c.fn.builder.Emit(vm.OpNull)
		c.fn.builder.Adjust(1)
	}
	numArgs := len(e.Args)
	for _, a := range e.Args {
		c.expr(a)
	}
	if e.BlockArg != nil {
		c.fnLiteral(e.BlockArg)
		numArgs++
	}
	c.emitCall(e.Name, numArgs, e.PosVal)
}

// newExpr compiles construction in two steps: the class allocates a fresh
// instance, then the constructor runs on it.
func (c *codegen) newExpr(e *NewExpr) {
	c.expr(e.Class)
	c.emitCall(" instantiate", 0, e.PosVal)
	numArgs := len(e.Args)
	for _, a := range e.Args {
		c.expr(a)
	}
	if e.BlockArg != nil {
		c.fnLiteral(e.BlockArg)
		numArgs++
	}
	c.emitCall("new", numArgs, e.PosVal)
}

func (c *codegen) assign(e *AssignExpr) {
	b := c.fn.builder
	switch t := e.Target.(type) {
	case *NameExpr:
		c.expr(e.Value)
		if slot := resolveLocal(c.fn, t.Name); slot != -1 {
			b.EmitByte(vm.OpStoreLocal, byte(slot))
			return
		}
		if idx := resolveUpvalue(c.fn, t.Name); idx != -1 {
			b.EmitByte(vm.OpStoreUpvalue, byte(idx))
			return
		}
		if slot := c.vm.GlobalSlot(t.Name); slot != -1 {
			b.EmitShort(vm.OpStoreGlobal, uint16(slot))
			return
		}
		c.errorAt(t.PosVal, fmt.Sprintf("Undeclared variable '%s'.", t.Name))
	case *FieldExpr:
		c.expr(e.Value)
		if idx, ok := c.fieldIndex(t); ok {
			b.EmitByte(vm.OpStoreField, byte(idx))
		}
	case *SubscriptExpr:
		c.expr(t.Receiver)
		for _, a := range t.Args {
			c.expr(a)
		}
		c.expr(e.Value)
		c.emitCallSignature(vm.SubscriptSignature(len(t.Args), true), len(t.Args)+1, e.PosVal)
	default:
		c.errorAt(e.PosVal, "Invalid assignment target.")
	}
}

// fieldIndex validates that a field reference is legal here and returns
// its slot in the class being compiled.
func (c *codegen) fieldIndex(e *FieldExpr) (int, bool) {
	switch {
	case c.class == nil:
		c.errorAt(e.PosVal, "Cannot use a field outside of a method.")
		return 0, false
	case !c.fn.isMethod:
		c.errorAt(e.PosVal, "Cannot use a field in a function.")
		return 0, false
	case c.fn.isStatic:
		c.errorAt(e.PosVal, "Cannot use a field in a static method.")
		return 0, false
	}
	return c.class.fieldIndex(e.Name), true
}
