package vm

// ---------------------------------------------------------------------------
// Fn primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerFnMetaclassPrimitives(c *ObjClass) {
	vm.primitive(c, " instantiate", fnInstantiate)
	vm.primitive(c, "new ", fnNew)
}

func (vm *VM) registerFnPrimitives(c *ObjClass) {
	for numArgs := 0; numArgs <= maxCallArgs; numArgs++ {
		vm.primitive(c, Signature("call", numArgs), fnCall(numArgs))
	}
	vm.primitive(c, "toString", fnToString)
}

// maxCallArgs is the most arguments a method call can take, matching the
// widest call opcode.
const maxCallArgs = 16

// fnInstantiate returns the Fn class itself. When "new" is then called on
// it, that returns the block.
func fnInstantiate(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	return PrimValue
}

func fnNew(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateFn(args, 1, "Argument") {
		return PrimError
	}

	// The block argument is already a function, so just return it.
	args[0] = args[1]
	return PrimValue
}

// fnCall builds the primitive backing "call" with the given number of
// arguments.
func fnCall(numArgs int) Primitive {
	return func(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
		return callFunction(vm, args, numArgs)
	}
}

// callFunction checks the arity of the callable in args[0] and hands it
// to the interpreter to invoke on the argument window. Extra arguments
// are ignored; too few is an error.
func callFunction(vm *VM, args []Value, numArgs int) PrimitiveResult {
	fn := fnOf(args[0])
	if numArgs < fn.numParams {
		args[0] = vm.NewString("Function expects more arguments.")
		return PrimError
	}

	return PrimCall
}

func fnToString(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = vm.NewString("<fn>")
	return PrimValue
}
