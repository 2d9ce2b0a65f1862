package vm

// Obj is the interface shared by every heap object kind. The set of
// implementations is closed: String, List, Range, Fn, Closure, Class,
// Instance and Fiber, each embedding the object base. The class
// back-reference is a relation, not ownership; reachability is the
// collector's business.
type Obj interface {
	// Class returns the object's class. It is nil only transiently during
	// bootstrap, before the class graph is wired up.
	Class() *ObjClass
	setClass(*ObjClass)
}

// object is the embedded base carrying the class back-reference.
type object struct {
	class *ObjClass
}

func (o *object) Class() *ObjClass      { return o.class }
func (o *object) setClass(c *ObjClass) { o.class = c }

// ---------------------------------------------------------------------------
// String
// ---------------------------------------------------------------------------

// ObjString is an immutable byte string. Equality is byte-exact and
// indexing is byte-based, not code-point-based.
type ObjString struct {
	object
	Value string
}

// NewString allocates a string. During bootstrap the String class does not
// exist yet when class names are interned; those early strings get their
// class pointer fixed up once String is defined.
func (vm *VM) NewString(s string) Value {
	str := &ObjString{Value: s}
	str.class = vm.stringClass
	return ObjVal(str)
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

// ObjList is a growable ordered sequence of values. It owns its backing
// storage exclusively.
type ObjList struct {
	object
	Elements []Value
}

// NewList allocates a list with the given element count, all null.
func (vm *VM) NewList(count int) *ObjList {
	list := &ObjList{}
	list.class = vm.listClass
	if count > 0 {
		list.Elements = make([]Value, count)
	}
	return list
}

// Add appends a value.
func (l *ObjList) Add(v Value) {
	l.Elements = append(l.Elements, v)
}

// Insert places a value at index, shifting later elements up. The index
// must already be validated to lie in [0, count].
func (l *ObjList) Insert(v Value, index int) {
	l.Elements = append(l.Elements, NullVal())
	copy(l.Elements[index+1:], l.Elements[index:])
	l.Elements[index] = v
}

// RemoveAt removes and returns the element at a validated index.
func (l *ObjList) RemoveAt(index int) Value {
	removed := l.Elements[index]
	copy(l.Elements[index:], l.Elements[index+1:])
	l.Elements = l.Elements[:len(l.Elements)-1]
	return removed
}

// ---------------------------------------------------------------------------
// Range
// ---------------------------------------------------------------------------

// ObjRange is an immutable numeric interval. It is iterated lazily, never
// materialized.
type ObjRange struct {
	object
	From        float64
	To          float64
	IsInclusive bool
}

// NewRange allocates a range.
func (vm *VM) NewRange(from, to float64, isInclusive bool) Value {
	r := &ObjRange{From: from, To: to, IsInclusive: isInclusive}
	r.class = vm.rangeClass
	return ObjVal(r)
}

// ---------------------------------------------------------------------------
// Fn and Closure
// ---------------------------------------------------------------------------

// ObjFn is a unit of compiled code: the bytecode, its constants, and the
// shape of its stack frame. Fns are created by the compiler through
// FnBuilder and are immutable afterward.
type ObjFn struct {
	object
	name        string
	code        []byte
	constants   []Value
	numParams   int
	numUpvalues int
	maxSlots    int

	// boundFields is set once the field operands have been shifted for the
	// class the fn was bound to as a method.
	boundFields bool
}

// Name returns the function's diagnostic name.
func (f *ObjFn) Name() string { return f.name }

// NumParams returns the declared parameter count.
func (f *ObjFn) NumParams() int { return f.numParams }

// ObjClosure pairs a function with the variables it captured.
type ObjClosure struct {
	object
	Fn       *ObjFn
	upvalues []*upvalue
}

// upvalue is a captured variable. While the variable still lives on its
// owning fiber's stack the upvalue points at that slot; when the slot goes
// away the value moves into the upvalue itself. Upvalues are internal
// plumbing, not language-visible objects.
type upvalue struct {
	owner  *ObjFiber
	index  int
	closed bool
	value  Value
}

func (u *upvalue) get() Value {
	if u.closed {
		return u.value
	}
	return u.owner.stack[u.index]
}

func (u *upvalue) set(v Value) {
	if u.closed {
		u.value = v
		return
	}
	u.owner.stack[u.index] = v
}

func (u *upvalue) close() {
	u.value = u.owner.stack[u.index]
	u.closed = true
	u.owner = nil
}

func (vm *VM) newClosure(fn *ObjFn) *ObjClosure {
	c := &ObjClosure{Fn: fn, upvalues: make([]*upvalue, fn.numUpvalues)}
	c.class = vm.fnClass
	return c
}

// fnOf returns the code behind a callable value.
func fnOf(callable Value) *ObjFn {
	if c, ok := callable.obj.(*ObjClosure); ok {
		return c.Fn
	}
	return callable.AsFn()
}

// ---------------------------------------------------------------------------
// Class
// ---------------------------------------------------------------------------

// ObjClass is a class: a name, an optional superclass, and a method table
// indexed by method symbol. A class's own class is its metaclass; the
// metaclass chain closes at Class, which is its own metaclass.
type ObjClass struct {
	object
	name       *ObjString
	superclass *ObjClass
	numFields  int
	methods    []Method
}

// Name returns the class name.
func (c *ObjClass) Name() string {
	if c.name == nil {
		return ""
	}
	return c.name.Value
}

// NameString returns the interned name object itself.
func (c *ObjClass) NameString() *ObjString { return c.name }

// Superclass returns the parent class, nil only for Object.
func (c *ObjClass) Superclass() *ObjClass { return c.superclass }

// NumFields returns how many field slots instances of this class carry.
func (c *ObjClass) NumFields() int { return c.numFields }

// newSingleClass allocates a bare class with no superclass wiring and no
// metaclass. Only the bootstrap and NewClass use it.
func newSingleClass(numFields int, name *ObjString) *ObjClass {
	return &ObjClass{name: name, numFields: numFields}
}

// bindSuperclass wires up the superclass and copies its method table down.
// Copying means later additions to the superclass do not propagate, which
// is why the bootstrap binds methods in a strict order.
func (c *ObjClass) bindSuperclass(superclass *ObjClass) {
	c.superclass = superclass
	c.numFields += superclass.numFields
	if len(superclass.methods) > 0 {
		c.methods = make([]Method, len(superclass.methods))
		copy(c.methods, superclass.methods)
	}
}

// bindMethod installs a method under the given symbol.
func (c *ObjClass) bindMethod(symbol int, m Method) {
	for symbol >= len(c.methods) {
		c.methods = append(c.methods, Method{})
	}
	c.methods[symbol] = m
}

// lookupMethod returns the method bound to symbol, or a none method.
func (c *ObjClass) lookupMethod(symbol int) Method {
	if symbol >= len(c.methods) {
		return Method{}
	}
	return c.methods[symbol]
}

// NewClass creates a class along with its metaclass. The metaclass is an
// instance of Class and inherits from the superclass's metaclass, so the
// metaclass hierarchy parallels the class hierarchy:
//
//	     .------------.    .========.
//	     |            |    ||      ||
//	     v            |    v       ||
//	.---------.   .--------------.  ||
//	| Object  |==>|    Class     |==='
//	'---------'   '--------------'
//	     ^               ^
//	     |               |
//	.---------.   .--------------.
//	|  Base   |==>|  Base.type   |
//	'---------'   '--------------'
//	     ^               ^
//	     |               |
//	.---------.   .--------------.
//	| Derived |==>| Derived.type |
//	'---------'   '--------------'
//
// Single lines point at a superclass, double lines at a metaclass.
func (vm *VM) NewClass(superclass *ObjClass, numFields int, name *ObjString) *ObjClass {
	metaclassName := vm.NewString(name.Value + " metaclass").AsString()
	metaclass := newSingleClass(0, metaclassName)
	metaclass.class = vm.classClass
	metaclass.bindSuperclass(superclass.Class())

	classObj := newSingleClass(numFields, name)
	classObj.class = metaclass
	classObj.bindSuperclass(superclass)
	return classObj
}

// IsSubclassOf walks the superclass chain.
func (c *ObjClass) IsSubclassOf(other *ObjClass) bool {
	for cls := c; cls != nil; cls = cls.superclass {
		if cls == other {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Instance
// ---------------------------------------------------------------------------

// ObjInstance is a user-defined object: a class reference plus a field
// vector whose size was fixed when the class was defined.
type ObjInstance struct {
	object
	Fields []Value
}

// NewInstance allocates an instance of a class with all fields null.
func (vm *VM) NewInstance(class *ObjClass) Value {
	inst := &ObjInstance{Fields: make([]Value, class.numFields)}
	inst.class = class
	return ObjVal(inst)
}
