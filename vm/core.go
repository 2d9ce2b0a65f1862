package vm

// libSource is the part of the core library written in the language
// itself. Sequence is the base class for everything iterable. List and
// Range are defined here so they can inherit it, and pick up their native
// methods once this has been interpreted.
const libSource = `class Sequence {
  map(f) {
    var result = []
    for (element in this) {
      result.add(f.call(element))
    }
    return result
  }

  where(f) {
    var result = []
    for (element in this) {
      if (f.call(element)) result.add(element)
    }
    return result
  }
}

class List is Sequence {
  addAll(other) {
    for (element in other) {
      add(element)
    }
    return other
  }

  toString {
    var result = "["
    for (i in 0...count) {
      if (i > 0) result = result + ", "
      result = result + this[i].toString
    }
    result = result + "]"
    return result
  }

  +(other) {
    var result = this[0..-1]
    for (element in other) {
      result.add(element)
    }
    return result
  }

  contains(element) {
    for (item in this) {
      if (element == item) {
        return true
      }
    }
    return false
  }
}

class Range is Sequence {}
`

// primitive binds a native method on the class under the given signature.
func (vm *VM) primitive(classObj *ObjClass, signature string, fn Primitive) {
	symbol := vm.methodNames.Ensure(signature)
	classObj.bindMethod(symbol, primitiveMethod(fn))
}

// defineSingleClass defines a bare class with no superclass or metaclass
// wiring and stores it in a global named after it.
func (vm *VM) defineSingleClass(name string) *ObjClass {
	nameString := vm.NewString(name).AsString()
	classObj := newSingleClass(0, nameString)
	vm.storeGlobal(name, ObjVal(classObj))
	return classObj
}

// defineClass defines a new subclass of Object and stores it in a global
// named after it.
func (vm *VM) defineClass(name string) *ObjClass {
	nameString := vm.NewString(name).AsString()
	classObj := vm.NewClass(vm.objectClass, 0, nameString)
	vm.storeGlobal(name, ObjVal(classObj))
	return classObj
}

// findGlobal returns the global variable named [name].
func (vm *VM) findGlobal(name string) Value {
	return vm.globals[vm.globalNames.Find(name)]
}

// initializeCore builds the built-in class hierarchy, binds the native
// methods to it and interprets libSource. The order is load-bearing:
// binding a superclass copies its method table down, so each class gets
// its own methods only after its superclass has all of its own.
func (vm *VM) initializeCore() error {
	// Define the root Object class. This has to be done a little specially
	// because it has no superclass and an unusual metaclass (Class).
	vm.objectClass = vm.defineSingleClass("Object")
	vm.registerObjectPrimitives(vm.objectClass)

	// Now we can define Class, which is a subclass of Object.
	vm.classClass = vm.defineSingleClass("Class")
	vm.classClass.bindSuperclass(vm.objectClass)

	// Now that Object and Class are defined, wire them up to each other.
	vm.objectClass.setClass(vm.classClass)
	vm.classClass.setClass(vm.classClass)

	// Define the methods specific to Class after wiring up its superclass
	// to prevent the inherited ones from overwriting them.
	vm.registerClassPrimitives(vm.classClass)

	vm.boolClass = vm.defineClass("Bool")
	vm.registerBoolPrimitives(vm.boolClass)

	vm.fiberClass = vm.defineClass("Fiber")
	vm.registerFiberMetaclassPrimitives(vm.fiberClass.Class())
	vm.registerFiberPrimitives(vm.fiberClass)

	vm.fnClass = vm.defineClass("Fn")
	vm.registerFnMetaclassPrimitives(vm.fnClass.Class())
	vm.registerFnPrimitives(vm.fnClass)

	vm.nullClass = vm.defineClass("Null")
	vm.registerNullPrimitives(vm.nullClass)

	vm.numClass = vm.defineClass("Num")
	vm.registerNumPrimitives(vm.numClass)

	vm.stringClass = vm.defineClass("String")
	vm.registerStringPrimitives(vm.stringClass)

	// The classes above allocated string objects for their names before
	// the string class itself existed, leaving those strings classless.
	// Now that we have a string class, go back and fix them up.
	for _, classObj := range []*ObjClass{
		vm.objectClass, vm.classClass, vm.boolClass, vm.fiberClass,
		vm.fnClass, vm.nullClass, vm.numClass, vm.stringClass,
	} {
		classObj.name.setClass(vm.stringClass)
		if meta := classObj.Class(); meta != vm.classClass {
			meta.name.setClass(vm.stringClass)
		}
	}

	if _, err := vm.Interpret("", libSource); err != nil {
		return err
	}

	vm.listClass = vm.findGlobal("List").AsClass()
	vm.primitive(vm.listClass.Class(), " instantiate", listInstantiate)
	vm.registerListPrimitives(vm.listClass)

	vm.rangeClass = vm.findGlobal("Range").AsClass()
	vm.registerRangePrimitives(vm.rangeClass)

	// These are bound last, and just so that 0 and -0 are equal, which
	// IEEE 754 specifies even though they have different bit
	// representations.
	vm.registerNumEqualityPrimitives(vm.numClass)

	// Globals declared up to here are the built-in bindings.
	vm.coreGlobals = len(vm.globals)

	return nil
}
