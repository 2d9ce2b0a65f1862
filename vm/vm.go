package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// VM: the virtual machine
// ---------------------------------------------------------------------------

// CompileFn turns source text into a function ready to run on a fresh
// fiber. The VM takes it as a parameter so the compiler can live in its
// own package while still being reachable from Interpret, which the core
// bootstrap needs for the class definitions written in the language
// itself.
type CompileFn func(vm *VM, name, source string) (*ObjFn, error)

// VM holds the class graph, the symbol and global tables, and the fiber
// currently running. It is not safe for concurrent use; one goroutine
// drives one VM.
type VM struct {
	// Well-known classes, wired up by initializeCore.
	objectClass *ObjClass
	classClass  *ObjClass
	boolClass   *ObjClass
	fiberClass  *ObjClass
	fnClass     *ObjClass
	nullClass   *ObjClass
	numClass    *ObjClass
	stringClass *ObjClass
	listClass   *ObjClass
	rangeClass  *ObjClass

	// methodNames maps method signatures to the symbols call instructions
	// carry. globalNames maps global variable names to slots in globals.
	// Both only ever grow.
	methodNames *SymbolTable
	globalNames *SymbolTable
	globals     []Value

	// coreGlobals is how many globals initializeCore declared. Image
	// capture encodes those bindings by name instead of by structure.
	coreGlobals int

	// fiber is the one currently executing.
	fiber *ObjFiber

	compile CompileFn
}

// NewVM creates a VM and bootstraps the core classes.
func NewVM(compile CompileFn) (*VM, error) {
	if compile == nil {
		return nil, errors.New("vm: compile function is required")
	}
	vm := &VM{
		methodNames: NewSymbolTable(),
		globalNames: NewSymbolTable(),
		compile:     compile,
	}
	if err := vm.initializeCore(); err != nil {
		return nil, fmt.Errorf("vm: bootstrapping core classes: %w", err)
	}
	return vm, nil
}

// ---------------------------------------------------------------------------
// Public execution API
// ---------------------------------------------------------------------------

// Interpret compiles source and runs it in a fresh fiber, returning the
// value of the last expression. The name only shows up in diagnostics.
func (vm *VM) Interpret(name, source string) (Value, error) {
	fn, err := vm.compile(vm, name, source)
	if err != nil {
		return NullVal(), err
	}
	return vm.runFiber(vm.NewFiber(ObjVal(fn)))
}

// RunFiber runs a fresh fiber until the root of its caller chain returns
// or aborts.
func (vm *VM) RunFiber(fiber *ObjFiber) (Value, error) {
	return vm.runFiber(fiber)
}

// Call invokes a method on a receiver from Go. The signature follows the
// method table convention: the bare name for getters, one trailing space
// per argument otherwise, so "add " takes one argument and "+ " is the
// plus operator.
func (vm *VM) Call(receiver Value, signature string, args ...Value) (Value, error) {
	if len(args) > maxCallArgs {
		return NullVal(), fmt.Errorf("vm: call passes %d arguments, the most is %d",
			len(args), maxCallArgs)
	}
	symbol := vm.methodNames.Ensure(signature)

	// Synthesize a little function that performs the call. The receiver
	// and arguments travel as constants.
	b := NewFnBuilder("(call)", 0)
	b.EmitConstant(receiver)
	for _, arg := range args {
		b.EmitConstant(arg)
	}
	b.EmitShort(CallOp(len(args)), uint16(symbol))
	b.Adjust(-len(args))
	b.Emit(OpReturn)

	return vm.runFiber(vm.NewFiber(ObjVal(b.Build())))
}

// ---------------------------------------------------------------------------
// Symbols and globals
// ---------------------------------------------------------------------------

// MethodSymbol returns the symbol for a method signature, interning it if
// needed. Call instructions index the method table with it.
func (vm *VM) MethodSymbol(signature string) int {
	return vm.methodNames.Ensure(signature)
}

// MethodSignatures returns every interned method signature in symbol
// order. Tooling uses this for completion; interning a signature does not
// mean any class implements it.
func (vm *VM) MethodSignatures() []string {
	return vm.methodNames.Names()
}

// GlobalNames returns the declared global variable names in slot order.
func (vm *VM) GlobalNames() []string {
	return vm.globalNames.Names()
}

// DeclareGlobal ensures a global variable exists and returns its slot.
// A newly declared global starts out null.
func (vm *VM) DeclareGlobal(name string) int {
	symbol := vm.globalNames.Ensure(name)
	for symbol >= len(vm.globals) {
		vm.globals = append(vm.globals, NullVal())
	}
	return symbol
}

// GlobalSlot returns the slot of a declared global, or -1.
func (vm *VM) GlobalSlot(name string) int {
	return vm.globalNames.Find(name)
}

// LookupGlobal returns a global value by name.
func (vm *VM) LookupGlobal(name string) (Value, bool) {
	symbol := vm.globalNames.Find(name)
	if symbol < 0 {
		return NullVal(), false
	}
	return vm.globals[symbol], true
}

// SetGlobal sets a global value, declaring the name if needed.
func (vm *VM) SetGlobal(name string, value Value) {
	vm.storeGlobal(name, value)
}

func (vm *VM) storeGlobal(name string, value Value) int {
	symbol := vm.DeclareGlobal(name)
	vm.globals[symbol] = value
	return symbol
}

// ---------------------------------------------------------------------------
// Class lookup for values
// ---------------------------------------------------------------------------

// classOf returns the class of a value. Objects carry their class pointer;
// the fallback by kind covers strings and functions created before their
// classes existed during bootstrap.
func (vm *VM) classOf(v Value) *ObjClass {
	switch {
	case v.IsNull():
		return vm.nullClass
	case v.IsBool():
		return vm.boolClass
	case v.IsNum():
		return vm.numClass
	}

	if c := v.obj.Class(); c != nil {
		return c
	}

	switch v.obj.(type) {
	case *ObjString:
		return vm.stringClass
	case *ObjList:
		return vm.listClass
	case *ObjRange:
		return vm.rangeClass
	case *ObjFn, *ObjClosure:
		return vm.fnClass
	case *ObjClass:
		return vm.classClass
	case *ObjFiber:
		return vm.fiberClass
	}
	return vm.objectClass
}
