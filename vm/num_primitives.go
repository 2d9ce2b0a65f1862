package vm

import "math"

// ---------------------------------------------------------------------------
// Num primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerNumPrimitives(c *ObjClass) {
	vm.primitive(c, "abs", numAbs)
	vm.primitive(c, "ceil", numCeil)
	vm.primitive(c, "cos", numCos)
	vm.primitive(c, "floor", numFloor)
	vm.primitive(c, "isNan", numIsNan)
	vm.primitive(c, "sin", numSin)
	vm.primitive(c, "sqrt", numSqrt)
	vm.primitive(c, "toString", numToString)
	vm.primitive(c, "-", numNegate)
	vm.primitive(c, "- ", numMinus)
	vm.primitive(c, "+ ", numPlus)
	vm.primitive(c, "* ", numMultiply)
	vm.primitive(c, "/ ", numDivide)
	vm.primitive(c, "% ", numMod)
	vm.primitive(c, "< ", numLt)
	vm.primitive(c, "> ", numGt)
	vm.primitive(c, "<= ", numLte)
	vm.primitive(c, ">= ", numGte)
	vm.primitive(c, "~", numBitwiseNot)
	vm.primitive(c, "& ", numBitwiseAnd)
	vm.primitive(c, "| ", numBitwiseOr)
	vm.primitive(c, ".. ", numDotDot)
	vm.primitive(c, "... ", numDotDotDot)
}

// registerNumEqualityPrimitives binds == and != on Num. These exist so
// that 0 and -0 compare equal, which IEEE 754 specifies even though they
// have different bit representations.
func (vm *VM) registerNumEqualityPrimitives(c *ObjClass) {
	vm.primitive(c, "== ", numEqeq)
	vm.primitive(c, "!= ", numBangeq)
}

func numAbs(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(math.Abs(args[0].AsNum()))
	return PrimValue
}

func numCeil(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(math.Ceil(args[0].AsNum()))
	return PrimValue
}

func numCos(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(math.Cos(args[0].AsNum()))
	return PrimValue
}

func numFloor(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(math.Floor(args[0].AsNum()))
	return PrimValue
}

func numIsNan(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = BoolVal(math.IsNaN(args[0].AsNum()))
	return PrimValue
}

func numSin(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(math.Sin(args[0].AsNum()))
	return PrimValue
}

func numSqrt(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(math.Sqrt(args[0].AsNum()))
	return PrimValue
}

func numToString(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = vm.NewString(NumToString(args[0].AsNum()))
	return PrimValue
}

func numNegate(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(-args[0].AsNum())
	return PrimValue
}

func numMinus(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = NumVal(args[0].AsNum() - args[1].AsNum())
	return PrimValue
}

func numPlus(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = NumVal(args[0].AsNum() + args[1].AsNum())
	return PrimValue
}

func numMultiply(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = NumVal(args[0].AsNum() * args[1].AsNum())
	return PrimValue
}

func numDivide(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = NumVal(args[0].AsNum() / args[1].AsNum())
	return PrimValue
}

func numMod(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = NumVal(math.Mod(args[0].AsNum(), args[1].AsNum()))
	return PrimValue
}

func numLt(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = BoolVal(args[0].AsNum() < args[1].AsNum())
	return PrimValue
}

func numGt(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = BoolVal(args[0].AsNum() > args[1].AsNum())
	return PrimValue
}

func numLte(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = BoolVal(args[0].AsNum() <= args[1].AsNum())
	return PrimValue
}

func numGte(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = BoolVal(args[0].AsNum() >= args[1].AsNum())
	return PrimValue
}

func numEqeq(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !args[1].IsNum() {
		args[0] = BoolVal(false)
		return PrimValue
	}
	args[0] = BoolVal(args[0].AsNum() == args[1].AsNum())
	return PrimValue
}

func numBangeq(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !args[1].IsNum() {
		args[0] = BoolVal(true)
		return PrimValue
	}
	args[0] = BoolVal(args[0].AsNum() != args[1].AsNum())
	return PrimValue
}

// bitwiseOperand truncates a num for the bitwise operators, which always
// work on 32-bit unsigned ints.
func bitwiseOperand(v float64) uint32 {
	return uint32(int64(v))
}

func numBitwiseNot(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(float64(^bitwiseOperand(args[0].AsNum())))
	return PrimValue
}

func numBitwiseAnd(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = NumVal(float64(bitwiseOperand(args[0].AsNum()) & bitwiseOperand(args[1].AsNum())))
	return PrimValue
}

func numBitwiseOr(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right operand") {
		return PrimError
	}
	args[0] = NumVal(float64(bitwiseOperand(args[0].AsNum()) | bitwiseOperand(args[1].AsNum())))
	return PrimValue
}

func numDotDot(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right hand side of range") {
		return PrimError
	}
	args[0] = vm.NewRange(args[0].AsNum(), args[1].AsNum(), true)
	return PrimValue
}

func numDotDotDot(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	if !vm.validateNum(args, 1, "Right hand side of range") {
		return PrimError
	}
	args[0] = vm.NewRange(args[0].AsNum(), args[1].AsNum(), false)
	return PrimValue
}
