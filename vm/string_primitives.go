package vm

import "strings"

// ---------------------------------------------------------------------------
// String primitives
// ---------------------------------------------------------------------------

// Strings are byte-oriented: count, indexOf and subscript all work in
// bytes, and subscript produces a one-byte string.

func (vm *VM) registerStringPrimitives(c *ObjClass) {
	vm.primitive(c, "contains ", stringContains)
	vm.primitive(c, "count", stringCount)
	vm.primitive(c, "endsWith ", stringEndsWith)
	vm.primitive(c, "indexOf ", stringIndexOf)
	vm.primitive(c, "startsWith ", stringStartsWith)
	vm.primitive(c, "toString", stringToString)
	vm.primitive(c, "strip ", stringStrip)
	vm.primitive(c, "strip", stringStrip)
	vm.primitive(c, "+ ", stringPlus)
	vm.primitive(c, "== ", stringEqeq)
	vm.primitive(c, "!= ", stringBangeq)
	vm.primitive(c, "[ ]", stringSubscript)
}

func stringContains(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateString(args, 1, "Argument") {
		return PrimError
	}
	haystack := args[0].AsString().Value
	needle := args[1].AsString().Value
	args[0] = BoolVal(strings.Contains(haystack, needle))
	return PrimValue
}

func stringCount(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(float64(len(args[0].AsString().Value)))
	return PrimValue
}

func stringEndsWith(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateString(args, 1, "Argument") {
		return PrimError
	}
	args[0] = BoolVal(strings.HasSuffix(args[0].AsString().Value, args[1].AsString().Value))
	return PrimValue
}

func stringIndexOf(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateString(args, 1, "Argument") {
		return PrimError
	}
	index := strings.Index(args[0].AsString().Value, args[1].AsString().Value)
	args[0] = NumVal(float64(index))
	return PrimValue
}

func stringStartsWith(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateString(args, 1, "Argument") {
		return PrimError
	}
	args[0] = BoolVal(strings.HasPrefix(args[0].AsString().Value, args[1].AsString().Value))
	return PrimValue
}

func stringToString(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	return PrimValue
}

// stringStrip backs both "strip" and "strip ". Without an argument it
// trims spaces, newlines and tabs; with one it trims the characters of
// the given string. All leading and trailing cutset characters are
// removed.
func stringStrip(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	cutset := " \n\t"
	if len(args) > 1 {
		if !vm.validateString(args, 1, "Argument") {
			return PrimError
		}
		cutset = args[1].AsString().Value
	}
	args[0] = vm.NewString(strings.Trim(args[0].AsString().Value, cutset))
	return PrimValue
}

func stringPlus(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateString(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = vm.NewString(args[0].AsString().Value + args[1].AsString().Value)
	return PrimValue
}

func stringEqeq(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !args[1].IsString() {
		args[0] = BoolVal(false)
		return PrimValue
	}
	args[0] = BoolVal(args[0].AsString().Value == args[1].AsString().Value)
	return PrimValue
}

func stringBangeq(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !args[1].IsString() {
		args[0] = BoolVal(true)
		return PrimValue
	}
	args[0] = BoolVal(args[0].AsString().Value != args[1].AsString().Value)
	return PrimValue
}

func stringSubscript(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	s := args[0].AsString().Value
	index := vm.validateIndex(args, len(s), 1, "Subscript")
	if index == -1 {
		return PrimError
	}
	args[0] = vm.NewString(s[index : index+1])
	return PrimValue
}
