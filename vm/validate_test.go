package vm

import "testing"

func abortMessage(t *testing.T, args []Value) string {
	t.Helper()
	if !args[0].IsString() {
		t.Fatalf("args[0] = %s, want an error string", args[0].Debug())
	}
	return args[0].AsString().Value
}

func TestValidateNum(t *testing.T) {
	vm := &VM{}
	args := []Value{NullVal(), NumVal(3)}
	if !vm.validateNum(args, 1, "Index") {
		t.Error("validateNum rejected a number")
	}

	args = []Value{NullVal(), ObjVal(&ObjString{Value: "x"})}
	if vm.validateNum(args, 1, "Index") {
		t.Error("validateNum accepted a string")
	}
	if got := abortMessage(t, args); got != "Index must be a number." {
		t.Errorf("error = %q, want %q", got, "Index must be a number.")
	}
}

func TestValidateInt(t *testing.T) {
	vm := &VM{}
	args := []Value{NullVal(), NumVal(-2)}
	if !vm.validateInt(args, 1, "Count") {
		t.Error("validateInt rejected -2")
	}

	args = []Value{NullVal(), NumVal(3.5)}
	if vm.validateInt(args, 1, "Count") {
		t.Error("validateInt accepted 3.5")
	}
	if got := abortMessage(t, args); got != "Count must be an integer." {
		t.Errorf("error = %q, want %q", got, "Count must be an integer.")
	}

	args = []Value{NullVal(), BoolVal(true)}
	if vm.validateInt(args, 1, "Count") {
		t.Error("validateInt accepted a bool")
	}
	if got := abortMessage(t, args); got != "Count must be a number." {
		t.Errorf("error = %q, want %q", got, "Count must be a number.")
	}
}

func TestValidateIndex(t *testing.T) {
	vm := &VM{}
	tests := []struct {
		value float64
		count int
		want  int
	}{
		{0, 3, 0},
		{2, 3, 2},
		{-1, 3, 2},
		{-3, 3, 0},
		{3, 3, -1},
		{-4, 3, -1},
		{0, 0, -1},
	}
	for _, tt := range tests {
		args := []Value{NullVal(), NumVal(tt.value)}
		got := vm.validateIndex(args, tt.count, 1, "Index")
		if got != tt.want {
			t.Errorf("validateIndex(%v, count %d) = %d, want %d", tt.value, tt.count, got, tt.want)
			continue
		}
		if tt.want == -1 {
			if msg := abortMessage(t, args); msg != "Index out of bounds." {
				t.Errorf("error = %q, want %q", msg, "Index out of bounds.")
			}
		}
	}
}

func TestValidateIndexFraction(t *testing.T) {
	vm := &VM{}
	args := []Value{NullVal(), NumVal(1.5)}
	if got := vm.validateIndex(args, 3, 1, "Index"); got != -1 {
		t.Errorf("validateIndex(1.5) = %d, want -1", got)
	}
	if got := abortMessage(t, args); got != "Index must be an integer." {
		t.Errorf("error = %q, want %q", got, "Index must be an integer.")
	}
}

func TestValidateString(t *testing.T) {
	vm := &VM{}
	args := []Value{NullVal(), ObjVal(&ObjString{Value: "ok"})}
	if !vm.validateString(args, 1, "Right operand") {
		t.Error("validateString rejected a string")
	}

	args = []Value{NullVal(), NumVal(1)}
	if vm.validateString(args, 1, "Right operand") {
		t.Error("validateString accepted a number")
	}
	if got := abortMessage(t, args); got != "Right operand must be a string." {
		t.Errorf("error = %q, want %q", got, "Right operand must be a string.")
	}
}

func TestValidateFn(t *testing.T) {
	vm := &VM{}
	args := []Value{NullVal(), ObjVal(&ObjFn{})}
	if !vm.validateFn(args, 1, "Block") {
		t.Error("validateFn rejected a fn")
	}

	args = []Value{NullVal(), ObjVal(&ObjClosure{Fn: &ObjFn{}})}
	if !vm.validateFn(args, 1, "Block") {
		t.Error("validateFn rejected a closure")
	}

	args = []Value{NullVal(), NumVal(4)}
	if vm.validateFn(args, 1, "Block") {
		t.Error("validateFn accepted a number")
	}
	if got := abortMessage(t, args); got != "Block must be a function." {
		t.Errorf("error = %q, want %q", got, "Block must be a function.")
	}
}
