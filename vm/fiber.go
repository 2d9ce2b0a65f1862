package vm

// FiberState tracks where a fiber is in its lifecycle. Fresh is a real
// state, not something inferred from frame counts, so a never-invoked
// fiber is never mistaken for a completed one.
type FiberState uint8

const (
	// FiberFresh: created, never invoked.
	FiberFresh FiberState = iota

	// FiberRunning: currently executing, or parked inside an active caller
	// chain waiting for a callee to hand control back.
	FiberRunning

	// FiberSuspended: yielded its frames are intact and it has no caller,
	// so it is eligible to be invoked again.
	FiberSuspended

	// FiberCompleted: ran out of frames with no error.
	FiberCompleted

	// FiberFailed: aborted; the error field holds the payload.
	FiberFailed
)

func (s FiberState) String() string {
	switch s {
	case FiberFresh:
		return "fresh"
	case FiberRunning:
		return "running"
	case FiberSuspended:
		return "suspended"
	case FiberCompleted:
		return "completed"
	case FiberFailed:
		return "failed"
	}
	return "unknown"
}

// CallFrame is one invocation on a fiber's stack: the code being run, the
// instruction pointer, and where the frame's slots begin. Slot zero of the
// window is the receiver.
type CallFrame struct {
	fn         *ObjFn
	closure    *ObjClosure // nil when running a bare fn
	ip         int
	stackStart int
}

// ObjFiber is an independently stacked thread of control. The caller link
// identifies who to resume when this fiber yields or completes; it is set
// only while the fiber is logically running under another one and cleared
// exactly when control goes back.
type ObjFiber struct {
	object
	stack        []Value
	stackTop     int
	frames       []CallFrame
	openUpvalues []*upvalue
	caller       *ObjFiber
	// callerIsTrying means the caller invoked this fiber with try and
	// wants errors delivered instead of propagated.
	callerIsTrying bool
	err            *ObjString
	state          FiberState
}

// NewFiber creates a fresh fiber that will run the given callable. Slot
// zero holds the null receiver the compiled code expects.
func (vm *VM) NewFiber(callable Value) *ObjFiber {
	fiber := &ObjFiber{state: FiberFresh}
	fiber.class = vm.fiberClass
	fiber.push(NullVal())
	fiber.pushCallFrame(callable, 1)
	return fiber
}

// State reports the fiber's lifecycle state.
func (f *ObjFiber) State() FiberState { return f.state }

// IsDone reports whether the fiber completed or failed.
func (f *ObjFiber) IsDone() bool {
	return f.state == FiberCompleted || f.state == FiberFailed
}

// Error returns the stored error payload, or null.
func (f *ObjFiber) Error() Value {
	if f.err == nil {
		return NullVal()
	}
	return ObjVal(f.err)
}

// Caller returns the fiber this one is running under, or nil.
func (f *ObjFiber) Caller() *ObjFiber { return f.caller }

// NumFrames returns how many call frames are pending.
func (f *ObjFiber) NumFrames() int { return len(f.frames) }

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

func (f *ObjFiber) ensureStack(needed int) {
	if needed <= len(f.stack) {
		return
	}
	capacity := len(f.stack)
	if capacity < 64 {
		capacity = 64
	}
	for capacity < needed {
		capacity *= 2
	}
	grown := make([]Value, capacity)
	copy(grown, f.stack[:f.stackTop])
	f.stack = grown
}

func (f *ObjFiber) push(v Value) {
	f.ensureStack(f.stackTop + 1)
	f.stack[f.stackTop] = v
	f.stackTop++
}

func (f *ObjFiber) pop() Value {
	f.stackTop--
	return f.stack[f.stackTop]
}

func (f *ObjFiber) peek() Value {
	return f.stack[f.stackTop-1]
}

// setReceiveSlot writes into the pending receive slot, the top stack slot
// of a parked fiber. When the fiber resumes, the call or yield expression
// it stopped in evaluates to this value.
func (f *ObjFiber) setReceiveSlot(v Value) {
	if f.stackTop > 0 {
		f.stack[f.stackTop-1] = v
	}
}

// ---------------------------------------------------------------------------
// Frames
// ---------------------------------------------------------------------------

// pushCallFrame starts a frame for the callable whose argument window,
// numSlots wide and beginning with the receiver, is already on the stack.
func (f *ObjFiber) pushCallFrame(callable Value, numSlots int) {
	var fn *ObjFn
	var closure *ObjClosure
	if c, ok := callable.obj.(*ObjClosure); ok {
		closure = c
		fn = c.Fn
	} else {
		fn = callable.AsFn()
	}
	stackStart := f.stackTop - numSlots
	f.ensureStack(stackStart + fn.maxSlots)
	f.frames = append(f.frames, CallFrame{
		fn:         fn,
		closure:    closure,
		stackStart: stackStart,
	})
}

// ---------------------------------------------------------------------------
// Upvalues
// ---------------------------------------------------------------------------

// captureUpvalue returns an upvalue for the stack slot, reusing an open
// one so every closure over the same variable shares it. The open list is
// kept sorted by slot index.
func (f *ObjFiber) captureUpvalue(index int) *upvalue {
	i := len(f.openUpvalues) - 1
	for ; i >= 0; i-- {
		uv := f.openUpvalues[i]
		if uv.index == index {
			return uv
		}
		if uv.index < index {
			break
		}
	}
	uv := &upvalue{owner: f, index: index}
	f.openUpvalues = append(f.openUpvalues, nil)
	copy(f.openUpvalues[i+2:], f.openUpvalues[i+1:])
	f.openUpvalues[i+1] = uv
	return uv
}

// closeUpvalues closes every open upvalue at or above the given slot.
func (f *ObjFiber) closeUpvalues(from int) {
	for len(f.openUpvalues) > 0 {
		uv := f.openUpvalues[len(f.openUpvalues)-1]
		if uv.index < from {
			break
		}
		uv.close()
		f.openUpvalues = f.openUpvalues[:len(f.openUpvalues)-1]
	}
}

// ---------------------------------------------------------------------------
// Termination
// ---------------------------------------------------------------------------

// finish marks the fiber completed and releases its stack.
func (f *ObjFiber) finish() {
	f.closeUpvalues(0)
	f.frames = nil
	f.stackTop = 0
	f.state = FiberCompleted
}

// abort records the error and drops all frames, so a failed fiber is
// terminal: it can never be invoked again.
func (f *ObjFiber) abort(err *ObjString) {
	f.closeUpvalues(0)
	f.frames = nil
	f.stackTop = 0
	f.err = err
	f.state = FiberFailed
}
