package vm

// ---------------------------------------------------------------------------
// Object primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerObjectPrimitives(c *ObjClass) {
	vm.primitive(c, "== ", objectEqeq)
	vm.primitive(c, "!= ", objectBangeq)
	vm.primitive(c, "new", objectNew)
	vm.primitive(c, "toString", objectToString)
	vm.primitive(c, "type", objectType)
	vm.primitive(c, " instantiate", objectInstantiate)
}

func objectEqeq(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = BoolVal(ValuesEqual(args[0], args[1]))
	return PrimValue
}

func objectBangeq(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = BoolVal(!ValuesEqual(args[0], args[1]))
	return PrimValue
}

// objectNew is the default argument-less constructor that all objects
// inherit. It just returns "this".
func objectNew(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	return PrimValue
}

func objectToString(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	switch obj := args[0].obj.(type) {
	case *ObjClass:
		args[0] = ObjVal(obj.name)
	case *ObjInstance:
		args[0] = vm.NewString("instance of " + obj.Class().Name())
	default:
		args[0] = vm.NewString("<object>")
	}
	return PrimValue
}

func objectType(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = ObjVal(vm.classOf(args[0]))
	return PrimValue
}

// objectInstantiate is reached when "new" is invoked on something that is
// not a class.
func objectInstantiate(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = vm.NewString("Must provide a class to 'new' to construct.")
	return PrimError
}

// ---------------------------------------------------------------------------
// Class primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerClassPrimitives(c *ObjClass) {
	vm.primitive(c, " instantiate", classInstantiate)
	vm.primitive(c, "name", className)
}

func classInstantiate(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = vm.NewInstance(args[0].AsClass())
	return PrimValue
}

func className(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = ObjVal(args[0].AsClass().name)
	return PrimValue
}
