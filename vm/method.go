package vm

import "strings"

// PrimitiveResult is the discriminator a native method hands back to the
// interpreter loop. Natives cannot switch stacks themselves; the codes for
// control transfer are requests the loop carries out.
type PrimitiveResult uint8

const (
	// PrimValue: the call produced a value, left in args[0].
	PrimValue PrimitiveResult = iota

	// PrimError: the call failed; the error string is in args[0] and
	// propagates along the fiber chain.
	PrimError

	// PrimCall: tail-invoke the callable now in args[0] with the same
	// argument window.
	PrimCall

	// PrimRunFiber: make the fiber in args[0] the executing one.
	PrimRunFiber
)

// Primitive is a native method implementation. It receives the VM, the
// fiber it is executing on, and a mutable argument window whose slot 0 is
// both the receiver and the return slot.
type Primitive func(vm *VM, fiber *ObjFiber, args []Value) PrimitiveResult

// MethodType tags an entry in a class's method table.
type MethodType uint8

const (
	// MethodNone marks an empty table slot.
	MethodNone MethodType = iota

	// MethodPrimitive is a native implementation.
	MethodPrimitive

	// MethodBlock is compiled bytecode.
	MethodBlock
)

// Method is one entry in a class's method table.
type Method struct {
	Type      MethodType
	Primitive Primitive
	// Fn holds the callable for block methods.
	Fn Value
}

func primitiveMethod(p Primitive) Method {
	return Method{Type: MethodPrimitive, Primitive: p}
}

func blockMethod(fn Value) Method {
	return Method{Type: MethodBlock, Fn: fn}
}

// Signature builds the symbol name for a method call: the bare name
// followed by one space per argument. "call" takes none, "call " takes
// one, and so on. Getters are just the name.
func Signature(name string, numArgs int) string {
	if numArgs == 0 {
		return name
	}
	return name + strings.Repeat(" ", numArgs)
}

// SubscriptSignature builds the symbol for subscript access with the
// given number of indices, e.g. "[ ]". The setter form appends "=" with
// no space for the stored value.
func SubscriptSignature(numIndices int, setter bool) string {
	sig := "[" + strings.Repeat(" ", numIndices) + "]"
	if setter {
		sig += "="
	}
	return sig
}

// SignatureArity reports how many arguments a symbol name encodes, and the
// bare name. It is the inverse of Signature for ordinary names and also
// understands the subscript forms.
func SignatureArity(signature string) (string, int) {
	if strings.HasPrefix(signature, "[") {
		setter := 0
		body := signature
		if strings.HasSuffix(body, "=") {
			setter = 1
			body = body[:len(body)-1]
		}
		return signature, strings.Count(body, " ") + setter
	}
	trimmed := strings.TrimRight(signature, " ")
	return trimmed, len(signature) - len(trimmed)
}
