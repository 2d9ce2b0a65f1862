package vm

import (
	"fmt"
	"math"
)

// Validators for native method arguments. Each one checks a slot in the
// argument window and, on failure, writes the error message into args[0]
// where the interpreter picks it up as the abort payload.

// validateFn checks that the argument is a fn or a closure.
func (vm *VM) validateFn(args []Value, index int, argName string) bool {
	if args[index].IsCallable() {
		return true
	}
	args[0] = vm.NewString(fmt.Sprintf("%s must be a function.", argName))
	return false
}

// validateNum checks that the argument is a number.
func (vm *VM) validateNum(args []Value, index int, argName string) bool {
	if args[index].IsNum() {
		return true
	}
	args[0] = vm.NewString(fmt.Sprintf("%s must be a number.", argName))
	return false
}

// validateIntValue checks that the number has no fractional part.
func (vm *VM) validateIntValue(args []Value, value float64, argName string) bool {
	if math.Trunc(value) == value {
		return true
	}
	args[0] = vm.NewString(fmt.Sprintf("%s must be an integer.", argName))
	return false
}

// validateInt checks that the argument is an integer-valued number.
func (vm *VM) validateInt(args []Value, index int, argName string) bool {
	if !vm.validateNum(args, index, argName) {
		return false
	}
	return vm.validateIntValue(args, args[index].AsNum(), argName)
}

// validateIndexValue checks that value is an integer within [0, count).
// A negative value counts back from the end. Returns the resolved index,
// or -1 with the error written into args[0].
func (vm *VM) validateIndexValue(args []Value, count int, value float64, argName string) int {
	if !vm.validateIntValue(args, value, argName) {
		return -1
	}

	index := int(value)
	if index < 0 {
		index += count
	}
	if index >= 0 && index < count {
		return index
	}

	args[0] = vm.NewString(fmt.Sprintf("%s out of bounds.", argName))
	return -1
}

// validateIndex checks that the argument is an integer index within
// [0, count), resolving negative values from the end. Returns the
// resolved index or -1.
func (vm *VM) validateIndex(args []Value, count, argIndex int, argName string) int {
	if !vm.validateNum(args, argIndex, argName) {
		return -1
	}
	return vm.validateIndexValue(args, count, args[argIndex].AsNum(), argName)
}

// validateString checks that the argument is a string.
func (vm *VM) validateString(args []Value, index int, argName string) bool {
	if args[index].IsString() {
		return true
	}
	args[0] = vm.NewString(fmt.Sprintf("%s must be a string.", argName))
	return false
}
