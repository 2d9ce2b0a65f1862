package vm

import (
	"fmt"
	"math"
)

// ValueType identifies which variant a Value holds.
type ValueType uint8

const (
	ValueNull ValueType = iota
	ValueBool
	ValueNum
	ValueObj
)

// Value is a single Wren value: null, a boolean, an IEEE 754 double, or a
// reference to a heap object. The zero Value is null.
type Value struct {
	vtype ValueType
	num   float64
	obj   Obj
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NullVal returns the null value.
func NullVal() Value {
	return Value{}
}

// BoolVal wraps a Go bool.
func BoolVal(b bool) Value {
	n := 0.0
	if b {
		n = 1.0
	}
	return Value{vtype: ValueBool, num: n}
}

// NumVal wraps a double.
func NumVal(n float64) Value {
	return Value{vtype: ValueNum, num: n}
}

// ObjVal wraps a heap object.
func ObjVal(o Obj) Value {
	if o == nil {
		panic("ObjVal called with nil object")
	}
	return Value{vtype: ValueObj, obj: o}
}

// ---------------------------------------------------------------------------
// Type tests
// ---------------------------------------------------------------------------

// Type reports which variant this value holds.
func (v Value) Type() ValueType { return v.vtype }

func (v Value) IsNull() bool { return v.vtype == ValueNull }
func (v Value) IsBool() bool { return v.vtype == ValueBool }
func (v Value) IsNum() bool  { return v.vtype == ValueNum }
func (v Value) IsObj() bool  { return v.vtype == ValueObj }

// IsFalsy reports whether the value is false or null. Everything else,
// including zero and the empty string, is truthy.
func (v Value) IsFalsy() bool {
	return v.vtype == ValueNull || (v.vtype == ValueBool && v.num == 0)
}

func (v Value) IsString() bool {
	_, ok := v.obj.(*ObjString)
	return v.vtype == ValueObj && ok
}

func (v Value) IsList() bool {
	_, ok := v.obj.(*ObjList)
	return v.vtype == ValueObj && ok
}

func (v Value) IsRange() bool {
	_, ok := v.obj.(*ObjRange)
	return v.vtype == ValueObj && ok
}

func (v Value) IsFn() bool {
	_, ok := v.obj.(*ObjFn)
	return v.vtype == ValueObj && ok
}

func (v Value) IsClosure() bool {
	_, ok := v.obj.(*ObjClosure)
	return v.vtype == ValueObj && ok
}

// IsCallable reports whether the value is a bare function or a closure.
func (v Value) IsCallable() bool {
	return v.IsFn() || v.IsClosure()
}

func (v Value) IsClass() bool {
	_, ok := v.obj.(*ObjClass)
	return v.vtype == ValueObj && ok
}

func (v Value) IsInstance() bool {
	_, ok := v.obj.(*ObjInstance)
	return v.vtype == ValueObj && ok
}

func (v Value) IsFiber() bool {
	_, ok := v.obj.(*ObjFiber)
	return v.vtype == ValueObj && ok
}

// ---------------------------------------------------------------------------
// Accessors
//
// These are precondition-checked, not validated: native methods only apply
// them to receivers whose class is known from the method binding, or to
// arguments that already went through validate*. Misuse is a bug in the VM,
// so they panic.
// ---------------------------------------------------------------------------

// AsBool extracts a bool. Panics if the value is not a Bool.
func (v Value) AsBool() bool {
	if v.vtype != ValueBool {
		panic(fmt.Sprintf("value is not a Bool: %s", v.Debug()))
	}
	return v.num != 0
}

// AsNum extracts a double. Panics if the value is not a Num.
func (v Value) AsNum() float64 {
	if v.vtype != ValueNum {
		panic(fmt.Sprintf("value is not a Num: %s", v.Debug()))
	}
	return v.num
}

// AsObj extracts the heap object. Panics if the value is not an object.
func (v Value) AsObj() Obj {
	if v.vtype != ValueObj {
		panic(fmt.Sprintf("value is not an object: %s", v.Debug()))
	}
	return v.obj
}

func (v Value) AsString() *ObjString {
	if s, ok := v.obj.(*ObjString); ok && v.vtype == ValueObj {
		return s
	}
	panic(fmt.Sprintf("value is not a String: %s", v.Debug()))
}

func (v Value) AsList() *ObjList {
	if l, ok := v.obj.(*ObjList); ok && v.vtype == ValueObj {
		return l
	}
	panic(fmt.Sprintf("value is not a List: %s", v.Debug()))
}

func (v Value) AsRange() *ObjRange {
	if r, ok := v.obj.(*ObjRange); ok && v.vtype == ValueObj {
		return r
	}
	panic(fmt.Sprintf("value is not a Range: %s", v.Debug()))
}

func (v Value) AsFn() *ObjFn {
	if f, ok := v.obj.(*ObjFn); ok && v.vtype == ValueObj {
		return f
	}
	panic(fmt.Sprintf("value is not a Fn: %s", v.Debug()))
}

func (v Value) AsClosure() *ObjClosure {
	if c, ok := v.obj.(*ObjClosure); ok && v.vtype == ValueObj {
		return c
	}
	panic(fmt.Sprintf("value is not a closure: %s", v.Debug()))
}

func (v Value) AsClass() *ObjClass {
	if c, ok := v.obj.(*ObjClass); ok && v.vtype == ValueObj {
		return c
	}
	panic(fmt.Sprintf("value is not a Class: %s", v.Debug()))
}

func (v Value) AsInstance() *ObjInstance {
	if i, ok := v.obj.(*ObjInstance); ok && v.vtype == ValueObj {
		return i
	}
	panic(fmt.Sprintf("value is not an instance: %s", v.Debug()))
}

func (v Value) AsFiber() *ObjFiber {
	if f, ok := v.obj.(*ObjFiber); ok && v.vtype == ValueObj {
		return f
	}
	panic(fmt.Sprintf("value is not a Fiber: %s", v.Debug()))
}

// ---------------------------------------------------------------------------
// Equality
// ---------------------------------------------------------------------------

// ValuesSame implements identity equality: numbers compare by ==, so 0 and
// -0 are the same and NaN is not the same as itself; objects compare by
// reference.
func ValuesSame(a, b Value) bool {
	if a.vtype != b.vtype {
		return false
	}
	switch a.vtype {
	case ValueNull:
		return true
	case ValueBool:
		return (a.num != 0) == (b.num != 0)
	case ValueNum:
		return a.num == b.num
	default:
		return a.obj == b.obj
	}
}

// ValuesEqual implements the built-in == semantics: identity, except that
// strings compare by content.
func ValuesEqual(a, b Value) bool {
	if ValuesSame(a, b) {
		return true
	}
	as, ok := a.obj.(*ObjString)
	if !ok || a.vtype != ValueObj {
		return false
	}
	bs, ok := b.obj.(*ObjString)
	if !ok || b.vtype != ValueObj {
		return false
	}
	return as.Value == bs.Value
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

// NumToString converts a double to its Wren string form. NaN and the
// infinities are handled here so the output does not depend on the
// platform's formatting of them; everything else uses 14 significant
// digits.
func NumToString(n float64) string {
	if math.IsNaN(n) {
		return "nan"
	}
	if math.IsInf(n, 1) {
		return "infinity"
	}
	if math.IsInf(n, -1) {
		return "-infinity"
	}
	return fmt.Sprintf("%.14g", n)
}

// Debug renders a value for diagnostics and test failures. For the
// user-visible form, send "toString" instead.
func (v Value) Debug() string {
	switch v.vtype {
	case ValueNull:
		return "null"
	case ValueBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case ValueNum:
		return NumToString(v.num)
	}
	switch o := v.obj.(type) {
	case *ObjString:
		return o.Value
	case *ObjClass:
		return o.Name()
	case *ObjRange:
		op := "..."
		if o.IsInclusive {
			op = ".."
		}
		return NumToString(o.From) + op + NumToString(o.To)
	case *ObjList:
		return fmt.Sprintf("<list %d>", len(o.Elements))
	case *ObjFn, *ObjClosure:
		return "<fn>"
	case *ObjFiber:
		return "<fiber>"
	case *ObjInstance:
		return "instance of " + o.class.Name()
	default:
		return "<object>"
	}
}

// String implements fmt.Stringer with the debug form.
func (v Value) String() string { return v.Debug() }
