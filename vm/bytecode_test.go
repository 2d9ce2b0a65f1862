package vm

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestCallOp(t *testing.T) {
	if got := CallOp(0); got != OpCall0 {
		t.Errorf("CallOp(0) = %v, want %v", got, OpCall0)
	}
	if got := CallOp(5); got != OpCall5 {
		t.Errorf("CallOp(5) = %v, want %v", got, OpCall5)
	}
	if got := CallOp(16); got != OpCall16 {
		t.Errorf("CallOp(16) = %v, want %v", got, OpCall16)
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpConstant, "CONSTANT"},
		{OpLoadGlobal, "LOAD_GLOBAL"},
		{OpCall2, "CALL_2"},
		{OpReturn, "RETURN"},
		{Opcode(0xEE), "UNKNOWN_EE"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Opcode(%#x).String() = %q, want %q", byte(tt.op), got, tt.want)
		}
	}
}

func TestFnBuilderConstants(t *testing.T) {
	b := NewFnBuilder("test", 0)
	first := b.AddConstant(NumVal(1))
	second := b.AddConstant(NumVal(2))
	again := b.AddConstant(NumVal(1))
	if first != 0 || second != 1 {
		t.Errorf("constant indices = %d, %d, want 0, 1", first, second)
	}
	if again != first {
		t.Errorf("AddConstant(1) again = %d, want %d", again, first)
	}
	str := b.AddConstant(ObjVal(&ObjString{Value: "x"}))
	dup := b.AddConstant(ObjVal(&ObjString{Value: "x"}))
	if dup != str {
		t.Errorf("equal strings got constant slots %d and %d", str, dup)
	}
}

func TestFnBuilderBuild(t *testing.T) {
	b := NewFnBuilder("sum", 2)
	b.EmitByte(OpLoadLocal, 1)
	b.Adjust(1)
	b.EmitByte(OpLoadLocal, 2)
	b.Adjust(1)
	b.EmitShort(CallOp(1), 0)
	b.Adjust(-1)
	b.Emit(OpReturn)
	fn := b.Build()

	if fn.Name() != "sum" {
		t.Errorf("Name = %q, want %q", fn.Name(), "sum")
	}
	if fn.NumParams() != 2 {
		t.Errorf("NumParams = %d, want 2", fn.NumParams())
	}
	want := []byte{
		byte(OpLoadLocal), 1,
		byte(OpLoadLocal), 2,
		byte(OpCall1), 0, 0,
		byte(OpReturn),
		byte(OpEnd),
	}
	if !bytes.Equal(fn.code, want) {
		t.Errorf("code = %v, want %v", fn.code, want)
	}
	// Receiver plus two params is three slots, and two pushes peak at
	// five before the call consumes one.
	if fn.maxSlots != 5 {
		t.Errorf("maxSlots = %d, want 5", fn.maxSlots)
	}
}

func TestFnBuilderPatchJump(t *testing.T) {
	b := NewFnBuilder("jump", 0)
	pos := b.EmitJump(OpJumpIf)
	b.Emit(OpPop)
	b.PatchJump(pos)
	b.Emit(OpReturn)
	fn := b.Build()

	if got := binary.LittleEndian.Uint16(fn.code[pos:]); got != 1 {
		t.Errorf("patched offset = %d, want 1", got)
	}
}

func TestFnBuilderEmitLoop(t *testing.T) {
	b := NewFnBuilder("loop", 0)
	target := b.Pos()
	b.Emit(OpPop)
	b.EmitLoop(target)
	fn := b.Build()

	// The loop offset rewinds from the end of the OpLoop instruction
	// back to target.
	if got := binary.LittleEndian.Uint16(fn.code[2:]); got != 4 {
		t.Errorf("loop offset = %d, want 4", got)
	}
}

func TestInstructionLength(t *testing.T) {
	simple := []byte{byte(OpConstant), 0, 0, byte(OpLoadLocal), 1, byte(OpNull)}
	if got := instructionLength(simple, nil, 0); got != 3 {
		t.Errorf("OpConstant length = %d, want 3", got)
	}
	if got := instructionLength(simple, nil, 3); got != 2 {
		t.Errorf("OpLoadLocal length = %d, want 2", got)
	}
	if got := instructionLength(simple, nil, 5); got != 1 {
		t.Errorf("OpNull length = %d, want 1", got)
	}
}

func TestDisassemble(t *testing.T) {
	b := NewFnBuilder("demo", 0)
	b.EmitConstant(NumVal(7))
	pos := b.EmitJump(OpJumpIf)
	b.Adjust(-1)
	b.Emit(OpPop)
	b.PatchJump(pos)
	b.Emit(OpReturn)
	fn := b.Build()

	listing := Disassemble(fn)
	lines := strings.Split(strings.TrimRight(listing, "\n"), "\n")
	want := []string{
		"0000  CONSTANT 0 (7)",
		"0003  JUMP_IF 1 (-> 0007)",
		"0006  POP",
		"0007  RETURN",
		"0008  END",
	}
	if len(lines) != len(want) {
		t.Fatalf("listing has %d lines, want %d:\n%s", len(lines), len(want), listing)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestInstructionLengthClosure(t *testing.T) {
	inner := NewFnBuilder("inner", 0)
	inner.SetNumUpvalues(2)
	innerFn := inner.Build()

	b := NewFnBuilder("outer", 0)
	idx := b.AddConstant(ObjVal(innerFn))
	b.EmitShort(OpClosure, uint16(idx))
	b.EmitRawByte(1)
	b.EmitRawByte(0)
	b.EmitRawByte(0)
	b.EmitRawByte(1)
	b.Emit(OpReturn)
	fn := b.Build()

	// Opcode, constant index, and two bytes per captured variable.
	if got := instructionLength(fn.code, fn.constants, 0); got != 7 {
		t.Errorf("OpClosure length = %d, want 7", got)
	}
	if got := instructionLength(fn.code, fn.constants, 7); got != 1 {
		t.Errorf("OpReturn length = %d, want 1", got)
	}
}
