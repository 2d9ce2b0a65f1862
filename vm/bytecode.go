package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction. Multi-byte operands are
// little-endian.
type Opcode byte

// Literals
const (
	OpConstant Opcode = 0x01 // push constant (16-bit index)
	OpNull     Opcode = 0x02 // push null
	OpFalse    Opcode = 0x03 // push false
	OpTrue     Opcode = 0x04 // push true
)

// Variable Operations
const (
	OpLoadLocal    Opcode = 0x10 // push local slot (8-bit index, relative to frame)
	OpStoreLocal   Opcode = 0x11 // store top of stack into local slot (8-bit index)
	OpLoadUpvalue  Opcode = 0x12 // push upvalue (8-bit index)
	OpStoreUpvalue Opcode = 0x13 // store top of stack into upvalue (8-bit index)
	OpLoadGlobal   Opcode = 0x14 // push global (16-bit index)
	OpStoreGlobal  Opcode = 0x15 // store top of stack into global (16-bit index)
	OpLoadField    Opcode = 0x16 // push field of the receiver (8-bit index)
	OpStoreField   Opcode = 0x17 // store top of stack into field (8-bit index)
)

// Stack Operations
const (
	OpPop Opcode = 0x20 // discard top of stack
	OpDup Opcode = 0x21 // duplicate top of stack
)

// Method Calls. The argument count is encoded in the opcode; the operand is
// the 16-bit method symbol. The receiver and arguments are on the stack,
// receiver deepest.
const (
	OpCall0 Opcode = 0x30 + iota
	OpCall1
	OpCall2
	OpCall3
	OpCall4
	OpCall5
	OpCall6
	OpCall7
	OpCall8
	OpCall9
	OpCall10
	OpCall11
	OpCall12
	OpCall13
	OpCall14
	OpCall15
	OpCall16
)

// Control Flow. Jump offsets are unsigned and relative to the instruction
// after the operand. OpJump and friends jump forward, OpLoop backward.
const (
	OpJump   Opcode = 0x50 // unconditional forward jump (16-bit offset)
	OpLoop   Opcode = 0x51 // unconditional backward jump (16-bit offset)
	OpJumpIf Opcode = 0x52 // pop, jump forward if falsy (16-bit offset)
	OpAnd    Opcode = 0x53 // peek, jump if falsy, otherwise pop (16-bit offset)
	OpOr     Opcode = 0x54 // peek, jump if truthy, otherwise pop (16-bit offset)
)

// Object Operations
const (
	OpIs             Opcode = 0x60 // pop class and value, push whether value is an instance
	OpList           Opcode = 0x61 // pop elements into a new list (16-bit count)
	OpClosure        Opcode = 0x62 // push closure (16-bit fn constant, then 2 bytes per upvalue)
	OpCloseUpvalue   Opcode = 0x63 // close upvalues for the top slot, then pop it
	OpClass          Opcode = 0x64 // pop superclass and name, push new class (8-bit field count)
	OpMethodInstance Opcode = 0x65 // pop method body, bind to the class on top (16-bit symbol)
	OpMethodStatic   Opcode = 0x66 // pop method body, bind to the metaclass (16-bit symbol)
)

// Returns
const (
	OpReturn Opcode = 0x70 // return top of stack from the current fn
	OpEnd    Opcode = 0x71 // terminates the code, never executed
)

// CallOp returns the call opcode for the given argument count, which does
// not include the receiver.
func CallOp(numArgs int) Opcode {
	return OpCall0 + Opcode(numArgs)
}

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OperandsVariable flags an opcode whose operand width depends on its
// operands. Only OpClosure, which carries two bytes per captured upvalue.
const OperandsVariable = -1

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name     string // human-readable name
	Operands int    // number of operand bytes, or OperandsVariable
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpConstant: {"CONSTANT", 2},
	OpNull:     {"NULL", 0},
	OpFalse:    {"FALSE", 0},
	OpTrue:     {"TRUE", 0},

	OpLoadLocal:    {"LOAD_LOCAL", 1},
	OpStoreLocal:   {"STORE_LOCAL", 1},
	OpLoadUpvalue:  {"LOAD_UPVALUE", 1},
	OpStoreUpvalue: {"STORE_UPVALUE", 1},
	OpLoadGlobal:   {"LOAD_GLOBAL", 2},
	OpStoreGlobal:  {"STORE_GLOBAL", 2},
	OpLoadField:    {"LOAD_FIELD", 1},
	OpStoreField:   {"STORE_FIELD", 1},

	OpPop: {"POP", 0},
	OpDup: {"DUP", 0},

	OpCall0:  {"CALL_0", 2},
	OpCall1:  {"CALL_1", 2},
	OpCall2:  {"CALL_2", 2},
	OpCall3:  {"CALL_3", 2},
	OpCall4:  {"CALL_4", 2},
	OpCall5:  {"CALL_5", 2},
	OpCall6:  {"CALL_6", 2},
	OpCall7:  {"CALL_7", 2},
	OpCall8:  {"CALL_8", 2},
	OpCall9:  {"CALL_9", 2},
	OpCall10: {"CALL_10", 2},
	OpCall11: {"CALL_11", 2},
	OpCall12: {"CALL_12", 2},
	OpCall13: {"CALL_13", 2},
	OpCall14: {"CALL_14", 2},
	OpCall15: {"CALL_15", 2},
	OpCall16: {"CALL_16", 2},

	OpJump:   {"JUMP", 2},
	OpLoop:   {"LOOP", 2},
	OpJumpIf: {"JUMP_IF", 2},
	OpAnd:    {"AND", 2},
	OpOr:     {"OR", 2},

	OpIs:             {"IS", 0},
	OpList:           {"LIST", 2},
	OpClosure:        {"CLOSURE", OperandsVariable},
	OpCloseUpvalue:   {"CLOSE_UPVALUE", 0},
	OpClass:          {"CLASS", 1},
	OpMethodInstance: {"METHOD_INSTANCE", 2},
	OpMethodStatic:   {"METHOD_STATIC", 2},

	OpReturn: {"RETURN", 0},
	OpEnd:    {"END", 0},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op)), Operands: 0}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// instructionLength returns the full width in bytes of the instruction at
// ip, opcode included. OpClosure needs the constant pool to find the
// upvalue count of the fn it references.
func instructionLength(code []byte, constants []Value, ip int) int {
	op := Opcode(code[ip])
	if op == OpClosure {
		constant := int(binary.LittleEndian.Uint16(code[ip+1:]))
		fn := constants[constant].AsFn()
		return 3 + 2*fn.numUpvalues
	}
	return 1 + op.Info().Operands
}

// ---------------------------------------------------------------------------
// FnBuilder: helper for constructing fns
// ---------------------------------------------------------------------------

// FnBuilder assembles the bytecode and constant pool for one fn. The
// caller reports stack movement through Adjust so the built fn knows how
// many slots its frame needs.
type FnBuilder struct {
	name        string
	code        []byte
	constants   []Value
	numParams   int
	numUpvalues int
	curStack    int
	maxStack    int
}

// NewFnBuilder creates a builder for a fn with the given parameter count.
// The frame starts with the receiver and the parameters on the stack.
func NewFnBuilder(name string, numParams int) *FnBuilder {
	return &FnBuilder{
		name:      name,
		code:      make([]byte, 0, 64),
		numParams: numParams,
		curStack:  numParams + 1,
		maxStack:  numParams + 1,
	}
}

// AddConstant adds a value to the constant pool and returns its index,
// reusing an existing slot for an equal value.
func (b *FnBuilder) AddConstant(v Value) int {
	for i, existing := range b.constants {
		if ValuesEqual(existing, v) {
			return i
		}
	}
	b.constants = append(b.constants, v)
	return len(b.constants) - 1
}

// Adjust records a net change in stack depth.
func (b *FnBuilder) Adjust(delta int) {
	b.curStack += delta
	if b.curStack > b.maxStack {
		b.maxStack = b.curStack
	}
}

// Pos returns the current length of the code, where the next instruction
// will be emitted.
func (b *FnBuilder) Pos() int {
	return len(b.code)
}

// Emit appends an opcode with no operands.
func (b *FnBuilder) Emit(op Opcode) {
	b.code = append(b.code, byte(op))
}

// EmitByte appends an opcode with a single byte operand.
func (b *FnBuilder) EmitByte(op Opcode, operand byte) {
	b.code = append(b.code, byte(op), operand)
}

// EmitShort appends an opcode with a 16-bit operand.
func (b *FnBuilder) EmitShort(op Opcode, operand uint16) {
	b.code = append(b.code, byte(op), byte(operand), byte(operand>>8))
}

// EmitRawByte appends a bare byte, for variable-width operands.
func (b *FnBuilder) EmitRawByte(operand byte) {
	b.code = append(b.code, operand)
}

// EmitConstant adds the value to the constant pool and emits code to push
// it.
func (b *FnBuilder) EmitConstant(v Value) {
	b.EmitShort(OpConstant, uint16(b.AddConstant(v)))
	b.Adjust(1)
}

// EmitJump emits a forward jump with a placeholder offset and returns the
// position to pass to PatchJump once the target is known.
func (b *FnBuilder) EmitJump(op Opcode) int {
	b.Emit(op)
	pos := len(b.code)
	b.code = append(b.code, 0xFF, 0xFF)
	return pos
}

// PatchJump resolves a forward jump to land on the next instruction
// emitted.
func (b *FnBuilder) PatchJump(pos int) {
	offset := len(b.code) - pos - 2
	b.PatchShort(pos, uint16(offset))
}

// PatchShort overwrites the 16-bit operand at pos.
func (b *FnBuilder) PatchShort(pos int, operand uint16) {
	binary.LittleEndian.PutUint16(b.code[pos:], operand)
}

// PatchByte overwrites the byte at pos.
func (b *FnBuilder) PatchByte(pos int, operand byte) {
	b.code[pos] = operand
}

// EmitLoop emits a backward jump to target, a position already emitted.
func (b *FnBuilder) EmitLoop(target int) {
	offset := len(b.code) + 3 - target
	b.EmitShort(OpLoop, uint16(offset))
}

// SetNumUpvalues records how many upvalues the fn captures.
func (b *FnBuilder) SetNumUpvalues(n int) {
	b.numUpvalues = n
}

// Build finalizes the fn. The code is terminated so the interpreter can
// never run off the end.
func (b *FnBuilder) Build() *ObjFn {
	b.Emit(OpEnd)
	return &ObjFn{
		name:        b.name,
		code:        b.code,
		constants:   b.constants,
		numParams:   b.numParams,
		numUpvalues: b.numUpvalues,
		maxSlots:    b.maxStack,
	}
}

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// DisassembleInstruction renders the instruction at ip and returns the
// position of the next one.
func DisassembleInstruction(fn *ObjFn, ip int) (string, int) {
	op := Opcode(fn.code[ip])
	info := op.Info()

	switch op {
	case OpConstant:
		constant := int(binary.LittleEndian.Uint16(fn.code[ip+1:]))
		return fmt.Sprintf("%04d  %s %d (%s)", ip, info.Name, constant, fn.constants[constant].Debug()), ip + 3

	case OpClosure:
		constant := int(binary.LittleEndian.Uint16(fn.code[ip+1:]))
		inner := fn.constants[constant].AsFn()
		text := fmt.Sprintf("%04d  %s %d (%s)", ip, info.Name, constant, inner.name)
		next := ip + 3
		for i := 0; i < inner.numUpvalues; i++ {
			kind := "upvalue"
			if fn.code[next] != 0 {
				kind = "local"
			}
			text += fmt.Sprintf(" %s %d", kind, fn.code[next+1])
			next += 2
		}
		return text, next

	case OpJump, OpJumpIf, OpAnd, OpOr:
		offset := int(binary.LittleEndian.Uint16(fn.code[ip+1:]))
		return fmt.Sprintf("%04d  %s %d (-> %04d)", ip, info.Name, offset, ip+3+offset), ip + 3

	case OpLoop:
		offset := int(binary.LittleEndian.Uint16(fn.code[ip+1:]))
		return fmt.Sprintf("%04d  %s %d (-> %04d)", ip, info.Name, offset, ip+3-offset), ip + 3
	}

	switch info.Operands {
	case 0:
		return fmt.Sprintf("%04d  %s", ip, info.Name), ip + 1
	case 1:
		return fmt.Sprintf("%04d  %s %d", ip, info.Name, fn.code[ip+1]), ip + 2
	default:
		operand := binary.LittleEndian.Uint16(fn.code[ip+1:])
		return fmt.Sprintf("%04d  %s %d", ip, info.Name, operand), ip + 3
	}
}

// Disassemble returns a full listing of the fn's code.
func Disassemble(fn *ObjFn) string {
	var sb strings.Builder
	for ip := 0; ip < len(fn.code); {
		line, next := DisassembleInstruction(fn, ip)
		sb.WriteString(line)
		sb.WriteByte('\n')
		ip = next
	}
	return sb.String()
}
