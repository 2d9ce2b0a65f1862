package compiler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pwoolcoc/wren/vm"
)

func testVM(t *testing.T) *vm.VM {
	t.Helper()
	v, err := vm.NewVM(Compile)
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	return v
}

// Bootstrapping a VM compiles the core library with this compiler, so a
// successful NewVM already exercises classes, methods, loops and implicit
// sends end to end.
func TestCompileBootstrap(t *testing.T) {
	v := testVM(t)

	for _, name := range []string{
		"Object", "Class", "Bool", "Fiber", "Fn", "Null", "Num",
		"String", "List", "Range", "Sequence",
	} {
		value, ok := v.LookupGlobal(name)
		if !ok {
			t.Errorf("global %q not defined", name)
			continue
		}
		if !value.IsClass() {
			t.Errorf("global %q = %s, want a class", name, value.Debug())
		}
	}
}

func TestCompileReturnsFn(t *testing.T) {
	v := testVM(t)
	fn, err := Compile(v, "main", "1 + 2")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if fn == nil {
		t.Fatalf("Compile returned nil fn")
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"q + 1", "Undeclared variable 'q'."},
		{"x = 5", "Undeclared variable 'x'."},
		{"this", "Cannot use 'this' outside of a method."},
		{"_x", "Cannot use a field outside of a method."},
		{"break", "Cannot use 'break' outside of a loop."},
		{"foo(1)", "Cannot call 'foo' outside of a method."},
		{"{\nvar a = 1\nvar a = 2\n}", "Variable 'a' is already declared in this scope."},
		{"class T {\nm { { _x }.call }\n}", "Cannot use a field in a function."},
		{"class T {\nstatic m { _x }\n}", "Cannot use a field in a static method."},
	}

	v := testVM(t)
	for _, tc := range tests {
		_, err := Compile(v, "main", tc.source)
		if err == nil {
			t.Errorf("Compile(%q): no error, want %q", tc.source, tc.want)
			continue
		}
		var list ErrorList
		if !errors.As(err, &list) {
			t.Errorf("Compile(%q): error is %T, want ErrorList", tc.source, err)
			continue
		}
		if list[0].Message != tc.want {
			t.Errorf("Compile(%q) = %q, want %q", tc.source, list[0].Message, tc.want)
		}
	}
}

// Codegen errors come from complete source, so they must not be taken for
// a construct the REPL should keep reading.
func TestCompileErrorsAreNotIncomplete(t *testing.T) {
	v := testVM(t)
	_, err := Compile(v, "main", "this")
	if err == nil {
		t.Fatalf("no error")
	}
	if IsIncomplete(err) {
		t.Errorf("IsIncomplete = true for a codegen error")
	}
}

func TestCompileTooManyArguments(t *testing.T) {
	args := make([]string, 17)
	for i := range args {
		args[i] = "1"
	}
	source := fmt.Sprintf("1.m(%s)", strings.Join(args, ", "))

	v := testVM(t)
	_, err := Compile(v, "main", source)
	if err == nil {
		t.Fatalf("no error")
	}
	want := "Cannot pass more than 16 arguments to a method."
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want %q", err, want)
	}
}

func TestCompileShadowingInNestedScope(t *testing.T) {
	// Shadowing an outer scope's variable is fine; only a duplicate in
	// the same scope is an error.
	v := testVM(t)
	_, err := Compile(v, "main", "{\nvar a = 1\n{\nvar a = 2\n}\n}")
	if err != nil {
		t.Errorf("Compile: %v", err)
	}
}
