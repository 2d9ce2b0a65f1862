package vm_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/pwoolcoc/wren/compiler"
	"github.com/pwoolcoc/wren/vm"
)

func newTestVM(t *testing.T) *vm.VM {
	t.Helper()
	v, err := vm.NewVM(compiler.Compile)
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	return v
}

func interpret(t *testing.T, v *vm.VM, source string) vm.Value {
	t.Helper()
	result, err := v.Interpret("test", source)
	if err != nil {
		t.Fatalf("Interpret(%q): %v", source, err)
	}
	return result
}

func wantNum(t *testing.T, v *vm.VM, source string, want float64) {
	t.Helper()
	result := interpret(t, v, source)
	if !result.IsNum() || result.AsNum() != want {
		t.Errorf("Interpret(%q) = %s, want %v", source, result.Debug(), want)
	}
}

func wantString(t *testing.T, v *vm.VM, source string, want string) {
	t.Helper()
	result := interpret(t, v, source)
	if !result.IsString() || result.AsString().Value != want {
		t.Errorf("Interpret(%q) = %s, want %q", source, result.Debug(), want)
	}
}

func wantBool(t *testing.T, v *vm.VM, source string, want bool) {
	t.Helper()
	result := interpret(t, v, source)
	if !result.IsBool() || result.AsBool() != want {
		t.Errorf("Interpret(%q) = %s, want %v", source, result.Debug(), want)
	}
}

// roundTrip captures v1's state, marshals it, and loads it into a fresh
// VM that has already interned extra symbols and globals, so the loader
// has to actually remap ids rather than copy them through.
func roundTrip(t *testing.T, v1 *vm.VM) *vm.VM {
	t.Helper()
	img, err := v1.CaptureImage()
	if err != nil {
		t.Fatalf("CaptureImage: %v", err)
	}
	data, err := img.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	loaded, err := vm.UnmarshalImage(data)
	if err != nil {
		t.Fatalf("UnmarshalImage: %v", err)
	}

	v2 := newTestVM(t)
	interpret(t, v2, "class Warmup {\nzigzag { 1 }\n}\nvar warmup = new Warmup")
	if err := v2.RestoreImage(loaded); err != nil {
		t.Fatalf("RestoreImage: %v", err)
	}
	return v2
}

func TestImageRoundTripGlobals(t *testing.T) {
	v1 := newTestVM(t)
	interpret(t, v1, `var x = 42
var s = "hello"
var flag = true
var nothing = null
var nums = [1, 2, 3]
var r = 1..5
var bare = {|v| v * 2 }
var wrapped = Fn.new {|v| v + 1 }`)

	v2 := roundTrip(t, v1)
	wantNum(t, v2, "x", 42)
	wantString(t, v2, "s + \"!\"", "hello!")
	wantBool(t, v2, "flag", true)
	wantBool(t, v2, "nothing == null", true)
	wantNum(t, v2, "nums[1]", 2)
	wantNum(t, v2, "r.max", 5)
	wantNum(t, v2, "bare.call(3)", 6)
	wantNum(t, v2, "wrapped.call(3)", 4)

	// Restored lists are live objects, not frozen copies.
	wantNum(t, v2, "nums.add(4)\nnums.count", 4)
}

func TestImageRoundTripClasses(t *testing.T) {
	v1 := newTestVM(t)
	interpret(t, v1, `class Point {
  new(x, y) {
    _x = x
    _y = y
  }
  x { _x }
  y { _y }
  moveBy(dx, dy) {
    _x = _x + dx
    _y = _y + dy
  }
}
var p = new Point(3, 4)`)

	v2 := roundTrip(t, v1)

	// Instance state survives.
	wantNum(t, v2, "p.x", 3)
	wantNum(t, v2, "p.y", 4)

	// Restored methods still run.
	wantNum(t, v2, "p.moveBy(1, 1)\np.x", 4)

	// The restored class can make new instances.
	wantNum(t, v2, "var q = new Point(10, 20)\nq.y", 20)
}

func TestImageRoundTripInheritance(t *testing.T) {
	v1 := newTestVM(t)
	interpret(t, v1, `class Animal {
  speak { "..." }
}
class Dog is Animal {
  speak { "woof" }
}
var d = new Dog`)

	v2 := roundTrip(t, v1)
	wantString(t, v2, "d.speak", "woof")
	wantString(t, v2, "(new Animal).speak", "...")
	wantBool(t, v2, "d is Animal", true)
	wantBool(t, v2, "d is Dog", true)
}

func TestImageRemapsGlobalOperands(t *testing.T) {
	v1 := newTestVM(t)
	interpret(t, v1, `var base = 100
class Adder {
  plus(v) { return v + base }
}
var a = new Adder`)

	// The fresh VM's warmup classes shift every global slot and method
	// symbol, so the method's global load only works if it was rewritten.
	v2 := roundTrip(t, v1)
	wantNum(t, v2, "a.plus(5)", 105)
	wantNum(t, v2, "base = 200\na.plus(5)", 205)
}

func TestImageRoundTripStatics(t *testing.T) {
	v1 := newTestVM(t)
	interpret(t, v1, `class MathUtil {
  static square(n) { return n * n }
}
var unused = 1`)

	v2 := roundTrip(t, v1)
	wantNum(t, v2, "MathUtil.square(7)", 49)
}

func TestImageCoreClassReferences(t *testing.T) {
	v1 := newTestVM(t)
	interpret(t, v1, "var S = String\nvar M = Num.type")

	v2 := roundTrip(t, v1)
	wantBool(t, v2, "S == String", true)
	wantBool(t, v2, "M == Num.type", true)
}

func TestImageSharedListIdentity(t *testing.T) {
	v1 := newTestVM(t)
	interpret(t, v1, "var a = [1, 2]\nvar b = a")

	v2 := roundTrip(t, v1)
	wantNum(t, v2, "a.add(3)\nb.count", 3)
}

func TestImageRefusesFibers(t *testing.T) {
	v1 := newTestVM(t)
	interpret(t, v1, "var f = Fiber.new { Fiber.yield(1) }\nf.call")

	_, err := v1.CaptureImage()
	if err == nil {
		t.Fatal("CaptureImage: expected error for a fiber global")
	}
	if !strings.Contains(err.Error(), "fiber") {
		t.Errorf("CaptureImage error = %q, want mention of fiber", err)
	}
}

func TestImageRefusesClosuresOverLocals(t *testing.T) {
	v1 := newTestVM(t)
	interpret(t, v1, `var counter = null
{
  var n = 0
  counter = Fn.new {
    n = n + 1
    return n
  }
}
counter.call`)

	_, err := v1.CaptureImage()
	if err == nil {
		t.Fatal("CaptureImage: expected error for a capturing closure")
	}
	if !strings.Contains(err.Error(), "closure") {
		t.Errorf("CaptureImage error = %q, want mention of closure", err)
	}
}

func TestImageVersionCheck(t *testing.T) {
	v := newTestVM(t)
	err := v.RestoreImage(&vm.Image{Version: 99})
	if err == nil {
		t.Fatal("RestoreImage: expected error for unknown version")
	}
	if !strings.Contains(err.Error(), "version") {
		t.Errorf("RestoreImage error = %q, want mention of version", err)
	}
}

func TestImageMarshalDeterministic(t *testing.T) {
	v := newTestVM(t)
	interpret(t, v, "var x = 1\nvar words = [\"a\", \"b\"]")

	img, err := v.CaptureImage()
	if err != nil {
		t.Fatalf("CaptureImage: %v", err)
	}
	first, err := img.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := img.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Marshal is not deterministic")
	}

	loaded, err := vm.UnmarshalImage(first)
	if err != nil {
		t.Fatalf("UnmarshalImage: %v", err)
	}
	if !reflect.DeepEqual(img, loaded) {
		t.Error("image did not survive a marshal round trip")
	}
}
