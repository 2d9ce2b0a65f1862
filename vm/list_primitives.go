package vm

// ---------------------------------------------------------------------------
// List primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerListPrimitives(c *ObjClass) {
	vm.primitive(c, "add ", listAdd)
	vm.primitive(c, "clear", listClear)
	vm.primitive(c, "count", listCount)
	vm.primitive(c, "insert  ", listInsert)
	vm.primitive(c, "iterate ", listIterate)
	vm.primitive(c, "iteratorValue ", listIteratorValue)
	vm.primitive(c, "removeAt ", listRemoveAt)
	vm.primitive(c, "[ ]", listSubscript)
	vm.primitive(c, "[ ]=", listSubscriptSetter)
}

func listInstantiate(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = ObjVal(vm.NewList(0))
	return PrimValue
}

func listAdd(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0].AsList().Add(args[1])
	args[0] = args[1]
	return PrimValue
}

func listClear(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0].AsList().Elements = nil
	args[0] = NullVal()
	return PrimValue
}

func listCount(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	args[0] = NumVal(float64(len(args[0].AsList().Elements)))
	return PrimValue
}

func listInsert(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	list := args[0].AsList()

	// count + 1 here so you can "insert" at the very end.
	index := vm.validateIndex(args, len(list.Elements)+1, 2, "Index")
	if index == -1 {
		return PrimError
	}

	list.Insert(args[1], index)
	args[0] = args[1]
	return PrimValue
}

func listIterate(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	list := args[0].AsList()

	// If we're starting the iteration, return the first index.
	if args[1].IsNull() {
		if len(list.Elements) == 0 {
			args[0] = BoolVal(false)
			return PrimValue
		}
		args[0] = NumVal(0)
		return PrimValue
	}

	if !vm.validateInt(args, 1, "Iterator") {
		return PrimError
	}

	index := int(args[1].AsNum())

	// Stop if we're out of bounds.
	if index < 0 || index >= len(list.Elements)-1 {
		args[0] = BoolVal(false)
		return PrimValue
	}

	args[0] = NumVal(float64(index + 1))
	return PrimValue
}

func listIteratorValue(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	list := args[0].AsList()
	index := vm.validateIndex(args, len(list.Elements), 1, "Iterator")
	if index == -1 {
		return PrimError
	}

	args[0] = list.Elements[index]
	return PrimValue
}

func listRemoveAt(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	list := args[0].AsList()
	index := vm.validateIndex(args, len(list.Elements), 1, "Index")
	if index == -1 {
		return PrimError
	}

	args[0] = list.RemoveAt(index)
	return PrimValue
}

func listSubscript(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	list := args[0].AsList()

	if args[1].IsNum() {
		index := vm.validateIndex(args, len(list.Elements), 1, "Subscript")
		if index == -1 {
			return PrimError
		}

		args[0] = list.Elements[index]
		return PrimValue
	}

	if !args[1].IsRange() {
		args[0] = vm.NewString("Subscript must be a number or a range.")
		return PrimError
	}

	r := args[1].AsRange()

	// Corner case: an empty range at zero is allowed on an empty list.
	// This way, list[0..-1] and list[0...list.count] can be used to copy a
	// list even when empty.
	emptyTo := 0.0
	if r.IsInclusive {
		emptyTo = -1.0
	}
	if len(list.Elements) == 0 && r.From == 0 && r.To == emptyTo {
		args[0] = ObjVal(vm.NewList(0))
		return PrimValue
	}

	from := vm.validateIndexValue(args, len(list.Elements), r.From, "Range start")
	if from == -1 {
		return PrimError
	}

	var to, count int
	if r.IsInclusive {
		to = vm.validateIndexValue(args, len(list.Elements), r.To, "Range end")
		if to == -1 {
			return PrimError
		}

		count = absInt(from-to) + 1
	} else {
		if !vm.validateIntValue(args, r.To, "Range end") {
			return PrimError
		}

		// Bounds check it manually here since the exclusive range can hang
		// over the edge.
		to = int(r.To)
		if to < 0 {
			to += len(list.Elements)
		}
		if to < -1 || to > len(list.Elements) {
			args[0] = vm.NewString("Range end out of bounds.")
			return PrimError
		}

		count = absInt(from - to)
	}

	step := -1
	if from < to {
		step = 1
	}
	result := vm.NewList(count)
	for i := 0; i < count; i++ {
		result.Elements[i] = list.Elements[from+i*step]
	}

	args[0] = ObjVal(result)
	return PrimValue
}

func listSubscriptSetter(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult {
	list := args[0].AsList()
	index := vm.validateIndex(args, len(list.Elements), 1, "Subscript")
	if index == -1 {
		return PrimError
	}

	list.Elements[index] = args[2]
	args[0] = args[2]
	return PrimValue
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
