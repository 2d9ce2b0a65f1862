package vm

import (
	"encoding/binary"
	"fmt"
)

// ---------------------------------------------------------------------------
// Runtime errors
// ---------------------------------------------------------------------------

// RuntimeError is returned when a fiber aborts and no fiber in its caller
// chain is trying it.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// bindMethodFields shifts the fn's field operands past the fields the
// class inherits, so a subclass method addresses its own slice of the
// instance. The compiler numbers fields from zero within each class body;
// the real offset is only known here, when the superclass is. The shift
// happens once, at first bind.
func bindMethodFields(classObj *ObjClass, fnValue Value) {
	fn := fnOf(fnValue)
	if fn.boundFields {
		return
	}
	fn.boundFields = true

	super := classObj.Superclass()
	if super == nil || super.NumFields() == 0 {
		return
	}
	offset := byte(super.NumFields())
	for ip := 0; ip < len(fn.code); {
		op := Opcode(fn.code[ip])
		if op == OpLoadField || op == OpStoreField {
			fn.code[ip+1] += offset
		}
		ip += instructionLength(fn.code, fn.constants, ip)
	}
}

// abortFiber aborts the fiber with the given error, unwinding through its
// callers. Every fiber along the way fails with the same error. It
// returns the trying caller to resume with null, or nil if the error
// reached the root of the chain.
func abortFiber(fiber *ObjFiber, err *ObjString) *ObjFiber {
	current := fiber
	for {
		caller := current.caller
		trying := current.callerIsTrying
		current.caller = nil
		current.callerIsTrying = false
		current.abort(err)

		if caller == nil {
			return nil
		}
		if trying {
			caller.setReceiveSlot(NullVal())
			return caller
		}
		current = caller
	}
}

// ---------------------------------------------------------------------------
// Main interpreter loop
// ---------------------------------------------------------------------------

// runFiber executes the fiber until the root of its caller chain returns
// a value or aborts. The returned value is the result of the last frame
// of whichever fiber ends the interpretation.
func (vm *VM) runFiber(fiber *ObjFiber) (Value, error) {
	vm.fiber = fiber
	fiber.state = FiberRunning

	// Hot fields of the current frame, mirrored into locals. storeFrame
	// must be called before anything that switches frames or fibers, and
	// loadFrame after.
	var (
		frame      *CallFrame
		fn         *ObjFn
		code       []byte
		ip         int
		stackStart int
	)

	loadFrame := func() {
		frame = &fiber.frames[len(fiber.frames)-1]
		fn = frame.fn
		code = fn.code
		ip = frame.ip
		stackStart = frame.stackStart
	}
	storeFrame := func() {
		frame.ip = ip
	}

	// raise aborts the current fiber chain with a runtime error. It
	// reports whether a trying caller took over; if none did, the caller
	// of runFiber gets the error.
	var raised *RuntimeError
	raise := func(message string) bool {
		payload := vm.NewString(message).AsString()
		next := abortFiber(fiber, payload)
		if next == nil {
			raised = &RuntimeError{Message: message}
			return false
		}
		fiber = next
		vm.fiber = next
		fiber.state = FiberRunning
		loadFrame()
		return true
	}

	loadFrame()

	for {
		op := Opcode(code[ip])
		ip++

		switch op {
		case OpConstant:
			constant := binary.LittleEndian.Uint16(code[ip:])
			ip += 2
			fiber.push(fn.constants[constant])

		case OpNull:
			fiber.push(NullVal())

		case OpFalse:
			fiber.push(BoolVal(false))

		case OpTrue:
			fiber.push(BoolVal(true))

		case OpLoadLocal:
			index := int(code[ip])
			ip++
			fiber.push(fiber.stack[stackStart+index])

		case OpStoreLocal:
			index := int(code[ip])
			ip++
			fiber.stack[stackStart+index] = fiber.peek()

		case OpLoadUpvalue:
			index := int(code[ip])
			ip++
			fiber.push(frame.closure.upvalues[index].get())

		case OpStoreUpvalue:
			index := int(code[ip])
			ip++
			frame.closure.upvalues[index].set(fiber.peek())

		case OpLoadGlobal:
			index := binary.LittleEndian.Uint16(code[ip:])
			ip += 2
			fiber.push(vm.globals[index])

		case OpStoreGlobal:
			index := binary.LittleEndian.Uint16(code[ip:])
			ip += 2
			vm.globals[index] = fiber.peek()

		case OpLoadField:
			index := int(code[ip])
			ip++
			instance := fiber.stack[stackStart].AsInstance()
			fiber.push(instance.Fields[index])

		case OpStoreField:
			index := int(code[ip])
			ip++
			instance := fiber.stack[stackStart].AsInstance()
			instance.Fields[index] = fiber.peek()

		case OpPop:
			fiber.pop()

		case OpDup:
			fiber.push(fiber.peek())

		case OpCall0, OpCall1, OpCall2, OpCall3, OpCall4, OpCall5, OpCall6,
			OpCall7, OpCall8, OpCall9, OpCall10, OpCall11, OpCall12,
			OpCall13, OpCall14, OpCall15, OpCall16:
			numArgs := int(op - OpCall0)
			symbol := int(binary.LittleEndian.Uint16(code[ip:]))
			ip += 2

			// The receiver and arguments are the top slots.
			numSlots := numArgs + 1
			args := fiber.stack[fiber.stackTop-numSlots : fiber.stackTop]

			classObj := vm.classOf(args[0])
			method := classObj.lookupMethod(symbol)

			switch method.Type {
			case MethodNone:
				message := fmt.Sprintf("%s does not implement '%s'.",
					classObj.Name(), vm.methodNames.Name(symbol))
				storeFrame()
				if !raise(message) {
					return NullVal(), raised
				}

			case MethodPrimitive:
				switch method.Primitive(vm, fiber, args) {
				case PrimValue:
					// The result is in the receiver slot. Discard the
					// arguments above it.
					fiber.stackTop -= numArgs

				case PrimError:
					if !raise(args[0].AsString().Value) {
						return NullVal(), raised
					}

				case PrimCall:
					storeFrame()
					fiber.pushCallFrame(args[0], numSlots)
					loadFrame()

				case PrimRunFiber:
					storeFrame()
					next := args[0].AsFiber()
					fiber = next
					vm.fiber = next
					fiber.state = FiberRunning
					loadFrame()
				}

			case MethodBlock:
				storeFrame()
				fiber.pushCallFrame(method.Fn, numSlots)
				loadFrame()
			}

		case OpJump:
			offset := int(binary.LittleEndian.Uint16(code[ip:]))
			ip += 2 + offset

		case OpLoop:
			offset := int(binary.LittleEndian.Uint16(code[ip:]))
			ip += 2
			ip -= offset

		case OpJumpIf:
			offset := int(binary.LittleEndian.Uint16(code[ip:]))
			ip += 2
			if fiber.pop().IsFalsy() {
				ip += offset
			}

		case OpAnd:
			offset := int(binary.LittleEndian.Uint16(code[ip:]))
			ip += 2
			if fiber.peek().IsFalsy() {
				ip += offset
			} else {
				fiber.pop()
			}

		case OpOr:
			offset := int(binary.LittleEndian.Uint16(code[ip:]))
			ip += 2
			if fiber.peek().IsFalsy() {
				fiber.pop()
			} else {
				ip += offset
			}

		case OpIs:
			expected := fiber.pop()
			if !expected.IsClass() {
				storeFrame()
				if !raise("Right operand must be a class.") {
					return NullVal(), raised
				}
				continue
			}
			actual := vm.classOf(fiber.pop())
			fiber.push(BoolVal(actual.IsSubclassOf(expected.AsClass())))

		case OpList:
			count := int(binary.LittleEndian.Uint16(code[ip:]))
			ip += 2
			list := vm.NewList(count)
			copy(list.Elements, fiber.stack[fiber.stackTop-count:fiber.stackTop])
			fiber.stackTop -= count
			fiber.push(ObjVal(list))

		case OpClosure:
			constant := binary.LittleEndian.Uint16(code[ip:])
			ip += 2
			closureFn := fn.constants[constant].AsFn()
			closure := vm.newClosure(closureFn)
			for i := 0; i < closureFn.numUpvalues; i++ {
				isLocal := code[ip]
				index := int(code[ip+1])
				ip += 2
				if isLocal != 0 {
					closure.upvalues[i] = fiber.captureUpvalue(stackStart + index)
				} else {
					closure.upvalues[i] = frame.closure.upvalues[index]
				}
			}
			fiber.push(ObjVal(closure))

		case OpCloseUpvalue:
			fiber.closeUpvalues(fiber.stackTop - 1)
			fiber.pop()

		case OpClass:
			numFields := int(code[ip])
			ip++
			superclass := fiber.pop()
			name := fiber.pop()
			if !superclass.IsClass() {
				storeFrame()
				if !raise("Must inherit from a class.") {
					return NullVal(), raised
				}
				continue
			}
			classObj := vm.NewClass(superclass.AsClass(), numFields, name.AsString())
			fiber.push(ObjVal(classObj))

		case OpMethodInstance, OpMethodStatic:
			symbol := int(binary.LittleEndian.Uint16(code[ip:]))
			ip += 2
			body := fiber.pop()
			classObj := fiber.peek().AsClass()
			if op == OpMethodStatic {
				classObj = classObj.Class()
			} else {
				bindMethodFields(classObj, body)
			}
			classObj.bindMethod(symbol, blockMethod(body))

		case OpReturn:
			result := fiber.pop()
			fiber.closeUpvalues(stackStart)
			fiber.frames = fiber.frames[:len(fiber.frames)-1]

			if len(fiber.frames) == 0 {
				// The fiber is complete. Hand the result to whoever ran
				// it, or finish the interpretation.
				caller := fiber.caller
				fiber.caller = nil
				fiber.callerIsTrying = false
				fiber.finish()

				if caller == nil {
					return result, nil
				}

				caller.setReceiveSlot(result)
				fiber = caller
				vm.fiber = caller
				fiber.state = FiberRunning
				loadFrame()
				continue
			}

			// Store the result where the calling frame expects it and
			// discard the slots of the returning frame.
			fiber.stack[stackStart] = result
			fiber.stackTop = stackStart + 1
			loadFrame()

		case OpEnd:
			// The compiler always emits a return before this.
			panic("execution reached the end of a fn")

		default:
			panic(fmt.Sprintf("unknown opcode %02x", byte(op)))
		}
	}
}
