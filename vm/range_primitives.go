package vm

import "math"

// ---------------------------------------------------------------------------
// Range primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerRangePrimitives(c *ObjClass) {
	vm.primitive(c, "from", rangeFrom)
	vm.primitive(c, "to", rangeTo)
	vm.primitive(c, "min", rangeMin)
	vm.primitive(c, "max", rangeMax)
	vm.primitive(c, "isInclusive", rangeIsInclusive)
	vm.primitive(c, "iterate ", rangeIterate)
	vm.primitive(c, "iteratorValue ", rangeIteratorValue)
	vm.primitive(c, "toString", rangeToString)
}

func rangeFrom(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(args[0].AsRange().From)
	return PrimValue
}

func rangeTo(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(args[0].AsRange().To)
	return PrimValue
}

func rangeMin(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	r := args[0].AsRange()
	args[0] = NumVal(math.Min(r.From, r.To))
	return PrimValue
}

func rangeMax(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	r := args[0].AsRange()
	args[0] = NumVal(math.Max(r.From, r.To))
	return PrimValue
}

func rangeIsInclusive(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = BoolVal(args[0].AsRange().IsInclusive)
	return PrimValue
}

func rangeIterate(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	r := args[0].AsRange()

	// Special case: empty range.
	if r.From == r.To && !r.IsInclusive {
		args[0] = BoolVal(false)
		return PrimValue
	}

	// Start the iteration.
	if args[1].IsNull() {
		args[0] = NumVal(r.From)
		return PrimValue
	}

	if !vm.validateNum(args, 1, "Iterator") {
		return PrimError
	}

	iterator := args[1].AsNum()

	// Iterate towards [to] from [from].
	if r.From < r.To {
		iterator++
		if iterator > r.To {
			args[0] = BoolVal(false)
			return PrimValue
		}
	} else {
		iterator--
		if iterator < r.To {
			args[0] = BoolVal(false)
			return PrimValue
		}
	}

	if !r.IsInclusive && iterator == r.To {
		args[0] = BoolVal(false)
		return PrimValue
	}

	args[0] = NumVal(iterator)
	return PrimValue
}

// rangeIteratorValue assumes the iterator is a number, so it is also the
// value of the range at that point.
func rangeIteratorValue(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = args[1]
	return PrimValue
}

func rangeToString(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	r := args[0].AsRange()
	op := "..."
	if r.IsInclusive {
		op = ".."
	}
	args[0] = vm.NewString(NumToString(r.From) + op + NumToString(r.To))
	return PrimValue
}
