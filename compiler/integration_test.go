package compiler

import (
	"strings"
	"testing"

	"github.com/pwoolcoc/wren/vm"
)

// Integration tests: compile real source and run it on the VM.

func run(t *testing.T, v *vm.VM, source string) vm.Value {
	t.Helper()
	result, err := v.Interpret("test", source)
	if err != nil {
		t.Fatalf("Interpret(%q): %v", source, err)
	}
	return result
}

func runNum(t *testing.T, source string) float64 {
	t.Helper()
	result := run(t, testVM(t), source)
	if !result.IsNum() {
		t.Fatalf("Interpret(%q) = %s, want a number", source, result.Debug())
	}
	return result.AsNum()
}

func runBool(t *testing.T, source string) bool {
	t.Helper()
	result := run(t, testVM(t), source)
	if !result.IsBool() {
		t.Fatalf("Interpret(%q) = %s, want a bool", source, result.Debug())
	}
	return result.AsBool()
}

func runString(t *testing.T, source string) string {
	t.Helper()
	result := run(t, testVM(t), source)
	if !result.IsString() {
		t.Fatalf("Interpret(%q) = %s, want a string", source, result.Debug())
	}
	return result.AsString().Value
}

func TestIntegrationArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"7 % 3", 1},
		{"10 / 4", 2.5},
		{"1 - 2 - 3", -4},
		{"(-3).abs", 3},
		{"3.7.floor", 3},
		{"0x10 + 1", 17},
		{"1e2", 100},
		{"5 & 3", 1},
		{"5 | 3", 7},
		{"~0", 4294967295},
	}

	for _, tc := range tests {
		if got := runNum(t, tc.source); got != tc.want {
			t.Errorf("Interpret(%q) = %v, want %v", tc.source, got, tc.want)
		}
	}
}

func TestIntegrationComparisons(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"1 == 1", true},
		{"1 != 1", false},
		{"0 == -0", true},
		{`"a" == "a"`, true},
		{`"a" != "b"`, true},
		{"null == null", true},
		{"true && false", false},
		{"true || false", true},
		{"!true", false},
		{"1 < 2 == true", true},
		{"5 & 3 == 1", true},
	}

	for _, tc := range tests {
		if got := runBool(t, tc.source); got != tc.want {
			t.Errorf("Interpret(%q) = %v, want %v", tc.source, got, tc.want)
		}
	}
}

func TestIntegrationLogicalShortCircuit(t *testing.T) {
	// The right side must not run when the left side decides. A send to
	// null would abort the fiber if evaluated.
	source := `false && null.boom`
	if got := runBool(t, source); got {
		t.Errorf("Interpret(%q) = true, want false", source)
	}

	source = `true || null.boom`
	if got := runBool(t, source); !got {
		t.Errorf("Interpret(%q) = false, want true", source)
	}
}

func TestIntegrationVariables(t *testing.T) {
	source := `var x = 3
var y = x * 2
y`
	if got := runNum(t, source); got != 6 {
		t.Errorf("got %v, want 6", got)
	}

	// A block scope shadows without touching the outer variable.
	source = `var x = 1
{
var x = 2
}
x`
	if got := runNum(t, source); got != 1 {
		t.Errorf("got %v, want 1", got)
	}
}

func TestIntegrationGlobalRedefinition(t *testing.T) {
	source := `var x = 1
var x = 2
x`
	if got := runNum(t, source); got != 2 {
		t.Errorf("got %v, want 2", got)
	}
}

func TestIntegrationSessionState(t *testing.T) {
	// Globals persist across interprets on the same VM, which is what a
	// read-eval loop needs.
	v := testVM(t)
	run(t, v, "var count = 10")
	result := run(t, v, "count * 2")
	if !result.IsNum() || result.AsNum() != 20 {
		t.Errorf("got %s, want 20", result.Debug())
	}
}

func TestIntegrationStrings(t *testing.T) {
	if got := runString(t, `"foo" + "bar"`); got != "foobar" {
		t.Errorf("concat = %q, want foobar", got)
	}
	if got := runNum(t, `"hello".count`); got != 5 {
		t.Errorf("count = %v, want 5", got)
	}
	if got := runString(t, `"hello"[1]`); got != "e" {
		t.Errorf("subscript = %q, want e", got)
	}
	if got := runString(t, `"hello"[-1]`); got != "o" {
		t.Errorf("negative subscript = %q, want o", got)
	}
	if got := runNum(t, `"hello".indexOf("ll")`); got != 2 {
		t.Errorf("indexOf = %v, want 2", got)
	}
	if !runBool(t, `"hello".startsWith("he")`) {
		t.Errorf("startsWith = false, want true")
	}
	if !runBool(t, `"hello".endsWith("lo")`) {
		t.Errorf("endsWith = false, want true")
	}
	if !runBool(t, `"hello".contains("ell")`) {
		t.Errorf("contains = false, want true")
	}
	if got := runString(t, `"  x ".strip`); got != "x" {
		t.Errorf("strip = %q, want x", got)
	}
}

func TestIntegrationNumToString(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"3.toString", "3"},
		{"3.5.toString", "3.5"},
		{"(-1).toString", "-1"},
		{"(0/0).toString", "nan"},
		{"(1/0).toString", "infinity"},
		{"true.toString", "true"},
		{"null.toString", "null"},
		{"(1..5).toString", "1..5"},
		{"(1...5).toString", "1...5"},
	}

	for _, tc := range tests {
		if got := runString(t, tc.source); got != tc.want {
			t.Errorf("Interpret(%q) = %q, want %q", tc.source, got, tc.want)
		}
	}
}

func TestIntegrationConditionals(t *testing.T) {
	source := `var r = 0
if (1 < 2) r = 1 else r = 2
r`
	if got := runNum(t, source); got != 1 {
		t.Errorf("then branch: got %v, want 1", got)
	}

	source = `var r = 0
if (1 > 2) r = 1 else r = 2
r`
	if got := runNum(t, source); got != 2 {
		t.Errorf("else branch: got %v, want 2", got)
	}

	source = `var r = 0
if (false) r = 1 else if (true) r = 2 else r = 3
r`
	if got := runNum(t, source); got != 2 {
		t.Errorf("else-if chain: got %v, want 2", got)
	}
}

func TestIntegrationWhile(t *testing.T) {
	source := `var i = 0
var sum = 0
while (i < 10) {
i = i + 1
sum = sum + i
}
sum`
	if got := runNum(t, source); got != 55 {
		t.Errorf("got %v, want 55", got)
	}
}

func TestIntegrationBreak(t *testing.T) {
	source := `var i = 0
var sum = 0
while (true) {
i = i + 1
if (i > 10) break
sum = sum + i
}
sum`
	if got := runNum(t, source); got != 55 {
		t.Errorf("got %v, want 55", got)
	}
}

func TestIntegrationForLoops(t *testing.T) {
	source := `var sum = 0
for (i in 1..5) sum = sum + i
sum`
	if got := runNum(t, source); got != 15 {
		t.Errorf("inclusive range: got %v, want 15", got)
	}

	source = `var sum = 0
for (i in 0...5) sum = sum + i
sum`
	if got := runNum(t, source); got != 10 {
		t.Errorf("exclusive range: got %v, want 10", got)
	}

	source = `var sum = 0
for (i in 5..1) sum = sum + i
sum`
	if got := runNum(t, source); got != 15 {
		t.Errorf("backward range: got %v, want 15", got)
	}

	source = `var sum = 0
for (x in [2, 4, 6]) sum = sum + x
sum`
	if got := runNum(t, source); got != 12 {
		t.Errorf("list: got %v, want 12", got)
	}

	source = `var count = 0
for (i in 1..3) {
for (j in 1..4) count = count + 1
}
count`
	if got := runNum(t, source); got != 12 {
		t.Errorf("nested: got %v, want 12", got)
	}
}

func TestIntegrationLists(t *testing.T) {
	if got := runNum(t, "[1, 2, 3].count"); got != 3 {
		t.Errorf("count = %v, want 3", got)
	}
	if got := runNum(t, "[1, 2, 3][1]"); got != 2 {
		t.Errorf("subscript = %v, want 2", got)
	}
	if got := runNum(t, "[1, 2, 3][-1]"); got != 3 {
		t.Errorf("negative subscript = %v, want 3", got)
	}

	source := `var l = [1, 2]
l[0] = 9
l[0]`
	if got := runNum(t, source); got != 9 {
		t.Errorf("setter = %v, want 9", got)
	}

	// Subscripting with a range copies.
	source = `var l = [1, 2, 3]
var c = l[0..-1]
l.add(4)
c.count`
	if got := runNum(t, source); got != 3 {
		t.Errorf("range copy count = %v, want 3", got)
	}
	if got := runNum(t, "[][0..-1].count"); got != 0 {
		t.Errorf("empty range copy count = %v, want 0", got)
	}

	source = `var l = [1, 3]
l.insert(2, 1)
l.toString`
	if got := runString(t, source); got != "[1, 2, 3]" {
		t.Errorf("insert = %q, want [1, 2, 3]", got)
	}

	source = `var l = [1, 2, 3]
var removed = l.removeAt(1)
removed + l.count`
	if got := runNum(t, source); got != 4 {
		t.Errorf("removeAt = %v, want 4", got)
	}
}

func TestIntegrationListToString(t *testing.T) {
	if got := runString(t, "[1, 2, 3].toString"); got != "[1, 2, 3]" {
		t.Errorf("got %q, want [1, 2, 3]", got)
	}
	if got := runString(t, "[].toString"); got != "[]" {
		t.Errorf("got %q, want []", got)
	}
}

func TestIntegrationSequenceMethods(t *testing.T) {
	if got := runString(t, "[1, 2, 3].map {|x| x * 2 }.toString"); got != "[2, 4, 6]" {
		t.Errorf("map = %q, want [2, 4, 6]", got)
	}
	if got := runString(t, "(1..6).where {|x| x % 2 == 0 }.toString"); got != "[2, 4, 6]" {
		t.Errorf("where = %q, want [2, 4, 6]", got)
	}
	if !runBool(t, "[1, 2, 3].contains(2)") {
		t.Errorf("contains(2) = false, want true")
	}
	if runBool(t, "[1, 2].contains(5)") {
		t.Errorf("contains(5) = true, want false")
	}

	source := `var a = [1]
a.addAll([2, 3])
a.count`
	if got := runNum(t, source); got != 3 {
		t.Errorf("addAll count = %v, want 3", got)
	}

	if got := runNum(t, "([1] + [2, 3]).count"); got != 3 {
		t.Errorf("list + list count = %v, want 3", got)
	}
}

func TestIntegrationRanges(t *testing.T) {
	if got := runNum(t, "(1..5).from"); got != 1 {
		t.Errorf("from = %v, want 1", got)
	}
	if got := runNum(t, "(1..5).to"); got != 5 {
		t.Errorf("to = %v, want 5", got)
	}
	if got := runNum(t, "(5..1).min"); got != 1 {
		t.Errorf("min = %v, want 1", got)
	}
	if got := runNum(t, "(5..1).max"); got != 5 {
		t.Errorf("max = %v, want 5", got)
	}
	if !runBool(t, "(1..5).isInclusive") {
		t.Errorf("(1..5).isInclusive = false, want true")
	}
	if runBool(t, "(1...5).isInclusive") {
		t.Errorf("(1...5).isInclusive = true, want false")
	}
}

func TestIntegrationClasses(t *testing.T) {
	source := `class Point {
new(x, y) {
_x = x
_y = y
}
x { _x }
y { _y }
sum { _x + _y }
moveBy(dx, dy) {
_x = _x + dx
_y = _y + dy
}
}
var p = new Point(3, 4)
p.moveBy(1, 1)
p.sum`
	if got := runNum(t, source); got != 9 {
		t.Errorf("got %v, want 9", got)
	}
}

func TestIntegrationInheritance(t *testing.T) {
	source := `class Animal {
speak { "..." }
describe { "I say " + speak }
}
class Dog is Animal {
speak { "woof" }
}
(new Dog).describe`
	if got := runString(t, source); got != "I say woof" {
		t.Errorf("got %q, want %q", got, "I say woof")
	}
}

func TestIntegrationStaticMethods(t *testing.T) {
	source := `class MathUtil {
static square(n) { n * n }
}
MathUtil.square(7)`
	if got := runNum(t, source); got != 49 {
		t.Errorf("got %v, want 49", got)
	}
}

func TestIntegrationImplicitSelfSend(t *testing.T) {
	source := `class Counter {
new { _n = 0 }
increment { _n = _n + 1 }
bump(times) {
for (i in 1..times) increment
return _n
}
}
(new Counter).bump(3)`
	if got := runNum(t, source); got != 3 {
		t.Errorf("got %v, want 3", got)
	}
}

func TestIntegrationSubscriptMethods(t *testing.T) {
	source := `class Pair {
new(a, b) {
_a = a
_b = b
}
[index] {
if (index == 0) return _a
return _b
}
[index]=(value) {
if (index == 0) {
_a = value
} else {
_b = value
}
}
}
var p = new Pair(1, 2)
p[1] = 20
p[0] + p[1]`
	if got := runNum(t, source); got != 21 {
		t.Errorf("got %v, want 21", got)
	}
}

func TestIntegrationOperatorMethods(t *testing.T) {
	source := `class Vec {
new(x) { _x = x }
x { _x }
+(other) { new Vec(_x + other.x) }
}
(new Vec(1) + new Vec(2)).x`
	if got := runNum(t, source); got != 3 {
		t.Errorf("got %v, want 3", got)
	}
}

func TestIntegrationIsOperator(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"3 is Num", true},
		{`"a" is String`, true},
		{"3 is String", false},
		{"[] is List", true},
		{"[] is Sequence", true},
		{"[] is Object", true},
		{"(1..2) is Range", true},
		{"null is Null", true},
		{"Num is Class", true},
	}

	for _, tc := range tests {
		if got := runBool(t, tc.source); got != tc.want {
			t.Errorf("Interpret(%q) = %v, want %v", tc.source, got, tc.want)
		}
	}
}

func TestIntegrationTypeReflection(t *testing.T) {
	source := `class Foo {}
(new Foo).type.name`
	if got := runString(t, source); got != "Foo" {
		t.Errorf("got %q, want Foo", got)
	}

	if got := runString(t, "3.type.name"); got != "Num" {
		t.Errorf("got %q, want Num", got)
	}
}

func TestIntegrationClosures(t *testing.T) {
	source := `var counter = 0
var increment = { counter = counter + 1 }
increment.call
increment.call
counter`
	if got := runNum(t, source); got != 2 {
		t.Errorf("captured global: got %v, want 2", got)
	}

	// A closure keeps its captured variable alive after the enclosing
	// function returns.
	source = `var makeCounter = {
var count = 0
return { count = count + 1 }
}
var c = makeCounter.call
c.call
c.call`
	if got := runNum(t, source); got != 2 {
		t.Errorf("escaping closure: got %v, want 2", got)
	}
}

func TestIntegrationLoopVariableCapture(t *testing.T) {
	// Each iteration gets its own loop variable, so closures made in the
	// body see the value from their own iteration.
	source := `var fns = []
for (i in 1..3) {
fns.add { i }
}
fns[0].call + fns[1].call + fns[2].call`
	if got := runNum(t, source); got != 6 {
		t.Errorf("got %v, want 6", got)
	}
}

func TestIntegrationFnArguments(t *testing.T) {
	source := `var add = {|a, b| a + b }
add.call(3, 4)`
	if got := runNum(t, source); got != 7 {
		t.Errorf("got %v, want 7", got)
	}
}

func TestIntegrationFiberYield(t *testing.T) {
	source := `var f = new Fiber {
Fiber.yield(1)
Fiber.yield(2)
}
var a = f.call
var b = f.call
f.call
a + b`
	v := testVM(t)
	result := run(t, v, source)
	if !result.IsNum() || result.AsNum() != 3 {
		t.Fatalf("got %s, want 3", result.Debug())
	}

	done := run(t, v, "f.isDone")
	if !done.IsBool() || !done.AsBool() {
		t.Errorf("isDone = %s, want true", done.Debug())
	}
}

func TestIntegrationFiberResumeValue(t *testing.T) {
	source := `var f = new Fiber {
var got = Fiber.yield(1)
Fiber.yield(got + 10)
}
var a = f.call
var b = f.call(5)
a + b`
	if got := runNum(t, source); got != 16 {
		t.Errorf("got %v, want 16", got)
	}
}

func TestIntegrationFiberTry(t *testing.T) {
	source := `var f = new Fiber { Fiber.abort("boom") }
f.try`
	v := testVM(t)
	result := run(t, v, source)
	if !result.IsString() || result.AsString().Value != "boom" {
		t.Fatalf("try = %s, want \"boom\"", result.Debug())
	}

	errValue := run(t, v, "f.error")
	if !errValue.IsString() || errValue.AsString().Value != "boom" {
		t.Errorf("error = %s, want \"boom\"", errValue.Debug())
	}
}

func TestIntegrationFiberReentry(t *testing.T) {
	source := `var a = null
var b = new Fiber { a.call }
a = new Fiber { b.call }
a.call`
	v := testVM(t)
	_, err := v.Interpret("test", source)
	if err == nil {
		t.Fatalf("no error")
	}
	if !strings.Contains(err.Error(), "Fiber has already been called.") {
		t.Errorf("error = %q, want fiber reentry message", err)
	}
}

func TestIntegrationRuntimeErrors(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`1 + "a"`, "Right operand must be a number."},
		{"[1][5]", "Subscript out of bounds."},
		{"1.badMethod", "Num does not implement 'badMethod'."},
		{"3 is 4", "Right operand must be a class."},
		{"var NotAClass = 3\nclass Foo is NotAClass {\n}", "Must inherit from a class."},
	}

	for _, tc := range tests {
		v := testVM(t)
		_, err := v.Interpret("test", tc.source)
		if err == nil {
			t.Errorf("Interpret(%q): no error, want %q", tc.source, tc.want)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("Interpret(%q) = %q, want %q", tc.source, err, tc.want)
		}
	}
}

func TestIntegrationLastExpressionValue(t *testing.T) {
	// The trailing expression statement is the module's result, which
	// the read-eval loop prints.
	source := `var x = 1
x + 1
x + 2`
	if got := runNum(t, source); got != 3 {
		t.Errorf("got %v, want 3", got)
	}

	// A trailing declaration leaves null.
	result := run(t, testVM(t), "var x = 1")
	if !result.IsNull() {
		t.Errorf("got %s, want null", result.Debug())
	}
}
