package vm

// ---------------------------------------------------------------------------
// Fiber primitives
// ---------------------------------------------------------------------------

// The static methods new, abort and yield live on the metaclass; the
// transfer methods call, run and try live on the instances. A transfer
// primitive returns PrimRunFiber with the fiber to resume in args[0] and
// the interpreter performs the switch.

func (vm *VM) registerFiberMetaclassPrimitives(c *ObjClass) {
	vm.primitive(c, " instantiate", fiberInstantiate)
	vm.primitive(c, "new ", fiberNew)
	vm.primitive(c, "abort ", fiberAbort)
	vm.primitive(c, "yield", fiberYield)
	vm.primitive(c, "yield ", fiberYield1)
}

func (vm *VM) registerFiberPrimitives(c *ObjClass) {
	vm.primitive(c, "call", fiberCall)
	vm.primitive(c, "call ", fiberCall1)
	vm.primitive(c, "error", fiberError)
	vm.primitive(c, "isDone", fiberIsDone)
	vm.primitive(c, "run", fiberRun)
	vm.primitive(c, "run ", fiberRun1)
	vm.primitive(c, "try", fiberTry)
}

// fiberInstantiate returns the Fiber class itself. When "new" is then
// called on it, that creates the fiber.
func fiberInstantiate(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	return PrimValue
}

func fiberNew(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateFn(args, 1, "Argument") {
		return PrimError
	}

	args[0] = ObjVal(vm.NewFiber(args[1]))
	return PrimValue
}

// fiberAbort moves the error message to the return position, where the
// interpreter picks it up as the abort payload for the current fiber.
func fiberAbort(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateString(args, 1, "Error message") {
		return PrimError
	}

	args[0] = args[1]
	return PrimError
}

func fiberCall(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	runFiber := args[0].AsFiber()

	if runFiber.IsDone() {
		args[0] = vm.NewString("Cannot call a finished fiber.")
		return PrimError
	}
	if runFiber.caller != nil {
		args[0] = vm.NewString("Fiber has already been called.")
		return PrimError
	}

	// Remember who ran it.
	runFiber.caller = fiber

	// If the fiber was yielded, make the yield call return null.
	if runFiber.state == FiberSuspended {
		runFiber.setReceiveSlot(NullVal())
	}

	return PrimRunFiber
}

func fiberCall1(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	runFiber := args[0].AsFiber()

	if runFiber.IsDone() {
		args[0] = vm.NewString("Cannot call a finished fiber.")
		return PrimError
	}
	if runFiber.caller != nil {
		args[0] = vm.NewString("Fiber has already been called.")
		return PrimError
	}

	// Remember who ran it.
	runFiber.caller = fiber

	// If the fiber was yielded, make the yield call return the value
	// passed to call.
	if runFiber.state == FiberSuspended {
		runFiber.setReceiveSlot(args[1])
	}

	// When the calling fiber resumes, the result of the call lands in its
	// stack. The call had two slots, the fiber and the value, and only one
	// is needed for the result, so discard the other now.
	fiber.stackTop--

	return PrimRunFiber
}

func fiberError(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = args[0].AsFiber().Error()
	return PrimValue
}

func fiberIsDone(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = BoolVal(args[0].AsFiber().IsDone())
	return PrimValue
}

func fiberRun(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	runFiber := args[0].AsFiber()

	if runFiber.IsDone() {
		args[0] = vm.NewString("Cannot run a finished fiber.")
		return PrimError
	}

	// If the fiber was yielded, make the yield call return null.
	if runFiber.state == FiberSuspended {
		runFiber.setReceiveSlot(NullVal())
	}

	// Unlike call, this does not remember the running fiber. Instead, it
	// takes over that fiber's caller, like a tail call. The switched-from
	// fiber is discarded and when the switched-to fiber completes or
	// yields, control passes to the switched-from fiber's caller.
	runFiber.caller = fiber.caller

	return PrimRunFiber
}

func fiberRun1(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	runFiber := args[0].AsFiber()

	if runFiber.IsDone() {
		args[0] = vm.NewString("Cannot run a finished fiber.")
		return PrimError
	}

	// If the fiber was yielded, make the yield call return the value
	// passed to run.
	if runFiber.state == FiberSuspended {
		runFiber.setReceiveSlot(args[1])
	}

	// Take over the switched-from fiber's caller, like a tail call.
	runFiber.caller = fiber.caller

	return PrimRunFiber
}

func fiberTry(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	runFiber := args[0].AsFiber()

	if runFiber.IsDone() {
		args[0] = vm.NewString("Cannot try a finished fiber.")
		return PrimError
	}
	if runFiber.caller != nil {
		args[0] = vm.NewString("Fiber has already been called.")
		return PrimError
	}

	// Remember who ran it, and that it wants errors delivered back.
	runFiber.caller = fiber
	runFiber.callerIsTrying = true

	// If the fiber was yielded, make the yield call return null.
	if runFiber.state == FiberSuspended {
		runFiber.setReceiveSlot(NullVal())
	}

	return PrimRunFiber
}

func fiberYield(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if fiber.caller == nil {
		args[0] = vm.NewString("No fiber to yield to.")
		return PrimError
	}

	caller := fiber.caller
	fiber.caller = nil
	fiber.callerIsTrying = false
	fiber.state = FiberSuspended

	// Make the caller's call method return null.
	caller.setReceiveSlot(NullVal())

	// Return the fiber to resume.
	args[0] = ObjVal(caller)
	return PrimRunFiber
}

func fiberYield1(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if fiber.caller == nil {
		args[0] = vm.NewString("No fiber to yield to.")
		return PrimError
	}

	caller := fiber.caller
	fiber.caller = nil
	fiber.callerIsTrying = false
	fiber.state = FiberSuspended

	// Make the caller's call method return the argument passed to yield.
	caller.setReceiveSlot(args[1])

	// When the yielding fiber resumes, the result of the yield lands in
	// its stack. The yield had two slots, the Fiber class and the value,
	// and only one is needed for the result, so discard the other now.
	fiber.stackTop--

	// Return the fiber to resume.
	args[0] = ObjVal(caller)
	return PrimRunFiber
}
