package vm

// ---------------------------------------------------------------------------
// Bool primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerBoolPrimitives(c *ObjClass) {
	vm.primitive(c, "toString", boolToString)
	vm.primitive(c, "!", boolNot)
}

func boolToString(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if args[0].AsBool() {
		args[0] = vm.NewString("true")
	} else {
		args[0] = vm.NewString("false")
	}
	return PrimValue
}

func boolNot(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = BoolVal(!args[0].AsBool())
	return PrimValue
}

// ---------------------------------------------------------------------------
// Null primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerNullPrimitives(c *ObjClass) {
	vm.primitive(c, "toString", nullToString)
}

func nullToString(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = vm.NewString("null")
	return PrimValue
}
