// Package hash computes stable content fingerprints of parsed programs.
//
// A fingerprint is the SHA-256 digest of a deterministic serialization of
// the program's AST. Locals, parameters, and fields are reduced to
// positional indices, so consistently renaming them does not change the
// fingerprint. Globals, class names, and method selectors keep their
// names, because renaming those changes which binding or method is
// reached. The image store records a fingerprint alongside each saved
// image to tie it back to the source that produced it.
package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/pwoolcoc/wren/compiler"
	"github.com/pwoolcoc/wren/vm"
)

// Fingerprint is the SHA-256 content hash of a program.
type Fingerprint [sha256.Size]byte

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// HashProgram computes the fingerprint of a parsed program.
func HashProgram(program *compiler.Program) Fingerprint {
	return sha256.Sum256(Serialize(program))
}

// HashSource parses source and computes its fingerprint.
func HashSource(source string) (Fingerprint, error) {
	program, err := compiler.Parse(source)
	if err != nil {
		return Fingerprint{}, err
	}
	return HashProgram(program), nil
}

// Serialize produces a deterministic byte serialization of a program,
// suitable for hashing with SHA-256.
//
// Encoding conventions:
//   - First byte: HashVersion (0x01)
//   - Numbers: IEEE 754 big-endian 8B
//   - Counts and indices: big-endian fixed-width (uint16 or uint32)
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Child nodes: serialized inline (flat)
func Serialize(program *compiler.Program) []byte {
	f := &fingerprinter{buf: make([]byte, 0, 256)}
	f.writeByte(HashVersion)
	f.writeUint32(uint32(len(program.Statements)))
	for _, s := range program.Statements {
		f.stmt(s)
	}
	return f.buf
}

// scope tracks the locals declared at one nesting level.
type scope struct {
	vars map[string]uint16
	next uint16
}

// fingerprinter walks the AST and appends the serialized form to buf.
// The scope stack is empty at module level: a var statement there
// declares a named global, not an indexed local.
type fingerprinter struct {
	buf      []byte
	scopes   []*scope
	fields   map[string]uint16
	inMethod bool
}

func (f *fingerprinter) writeByte(b byte) {
	f.buf = append(f.buf, b)
}

func (f *fingerprinter) writeBool(v bool) {
	if v {
		f.buf = append(f.buf, 1)
	} else {
		f.buf = append(f.buf, 0)
	}
}

func (f *fingerprinter) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	f.buf = append(f.buf, b[:]...)
}

func (f *fingerprinter) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	f.buf = append(f.buf, b[:]...)
}

func (f *fingerprinter) writeFloat64(v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	f.buf = append(f.buf, b[:]...)
}

func (f *fingerprinter) writeString(v string) {
	f.writeUint32(uint32(len(v)))
	f.buf = append(f.buf, v...)
}

func (f *fingerprinter) pushScope() {
	f.scopes = append(f.scopes, &scope{vars: make(map[string]uint16)})
}

func (f *fingerprinter) popScope() {
	f.scopes = f.scopes[:len(f.scopes)-1]
}

// declare assigns the next slot in the innermost scope to name.
func (f *fingerprinter) declare(name string) {
	s := f.scopes[len(f.scopes)-1]
	s.vars[name] = s.next
	s.next++
}

// resolve looks name up through the scope stack. depth counts outward
// from the innermost scope at the point of use.
func (f *fingerprinter) resolve(name string) (depth, slot uint16, ok bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if s, found := f.scopes[i].vars[name]; found {
			return uint16(len(f.scopes) - 1 - i), s, true
		}
	}
	return 0, 0, false
}

// fieldIndex assigns per-class field indices in order of first appearance.
func (f *fingerprinter) fieldIndex(name string) uint16 {
	if idx, ok := f.fields[name]; ok {
		return idx
	}
	idx := uint16(len(f.fields))
	f.fields[name] = idx
	return idx
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (f *fingerprinter) stmt(stmt compiler.Stmt) {
	switch s := stmt.(type) {
	case *compiler.ExprStmt:
		f.writeByte(TagExprStmt)
		f.expr(s.Expr)

	case *compiler.VarStmt:
		// The initializer is serialized before the name is declared, so
		// a shadowing "var x = x" reads the enclosing binding.
		if len(f.scopes) == 0 {
			f.writeByte(TagGlobalDecl)
			f.writeString(s.Name)
			f.writeBool(s.Init != nil)
			if s.Init != nil {
				f.expr(s.Init)
			}
			return
		}
		f.writeByte(TagVarDecl)
		f.writeBool(s.Init != nil)
		if s.Init != nil {
			f.expr(s.Init)
		}
		f.declare(s.Name)

	case *compiler.IfStmt:
		f.writeByte(TagIf)
		f.expr(s.Cond)
		f.stmt(s.Then)
		f.writeBool(s.Else != nil)
		if s.Else != nil {
			f.stmt(s.Else)
		}

	case *compiler.WhileStmt:
		f.writeByte(TagWhile)
		f.expr(s.Cond)
		f.stmt(s.Body)

	case *compiler.ForStmt:
		f.writeByte(TagFor)
		f.expr(s.Sequence)
		f.pushScope()
		f.declare(s.Variable)
		f.stmt(s.Body)
		f.popScope()

	case *compiler.ReturnStmt:
		f.writeByte(TagReturn)
		f.writeBool(s.Value != nil)
		if s.Value != nil {
			f.expr(s.Value)
		}

	case *compiler.BreakStmt:
		f.writeByte(TagBreak)

	case *compiler.BlockStmt:
		f.writeByte(TagBlock)
		f.writeUint32(uint32(len(s.Statements)))
		f.pushScope()
		for _, inner := range s.Statements {
			f.stmt(inner)
		}
		f.popScope()

	case *compiler.ClassStmt:
		f.class(s)
	}
}

func (f *fingerprinter) class(s *compiler.ClassStmt) {
	f.writeByte(TagClass)
	f.writeString(s.Name)
	f.writeBool(s.Superclass != nil)
	if s.Superclass != nil {
		f.expr(s.Superclass)
	}
	outer := f.fields
	f.fields = make(map[string]uint16)
	f.writeUint32(uint32(len(s.Methods)))
	for _, m := range s.Methods {
		f.method(m)
	}
	f.fields = outer
}

func (f *fingerprinter) method(m *compiler.MethodDef) {
	f.writeByte(TagMethod)
	f.writeString(m.Signature())
	f.writeBool(m.IsStatic)
	f.writeUint16(uint16(len(m.Params)))
	wasInMethod := f.inMethod
	f.inMethod = true
	f.pushScope()
	for _, p := range m.Params {
		f.declare(p)
	}
	f.body(m.Body)
	f.popScope()
	f.inMethod = wasInMethod
}

func (f *fingerprinter) body(b *compiler.Body) {
	if b.Expr != nil {
		f.writeBool(true)
		f.expr(b.Expr)
		return
	}
	f.writeBool(false)
	f.writeUint32(uint32(len(b.Statements)))
	for _, s := range b.Statements {
		f.stmt(s)
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (f *fingerprinter) expr(expr compiler.Expr) {
	switch e := expr.(type) {
	case *compiler.NumberLit:
		f.writeByte(TagNum)
		f.writeFloat64(e.Value)

	case *compiler.StringLit:
		f.writeByte(TagString)
		f.writeString(e.Value)

	case *compiler.BoolLit:
		f.writeByte(TagBool)
		f.writeBool(e.Value)

	case *compiler.NullLit:
		f.writeByte(TagNull)

	case *compiler.ListLit:
		f.writeByte(TagList)
		f.writeUint32(uint32(len(e.Elements)))
		for _, el := range e.Elements {
			f.expr(el)
		}

	case *compiler.ThisExpr:
		f.writeByte(TagThis)

	case *compiler.NameExpr:
		f.name(e.Name)

	case *compiler.FieldExpr:
		f.writeByte(TagFieldRef)
		f.writeUint16(f.fieldIndex(e.Name))

	case *compiler.PrefixExpr:
		f.writeByte(TagPrefix)
		f.writeString(e.Op)
		f.expr(e.Operand)

	case *compiler.InfixExpr:
		f.writeByte(TagInfix)
		f.writeString(e.Op)
		f.expr(e.LHS)
		f.expr(e.RHS)

	case *compiler.AndExpr:
		f.writeByte(TagAnd)
		f.expr(e.LHS)
		f.expr(e.RHS)

	case *compiler.OrExpr:
		f.writeByte(TagOr)
		f.expr(e.LHS)
		f.expr(e.RHS)

	case *compiler.IsExpr:
		f.writeByte(TagIs)
		f.expr(e.Value)
		f.expr(e.Type)

	case *compiler.CallExpr:
		numArgs := len(e.Args)
		if e.BlockArg != nil {
			numArgs++
		}
		f.writeByte(TagCall)
		f.writeString(vm.Signature(e.Name, numArgs))
		if e.Receiver != nil {
			f.expr(e.Receiver)
		} else {
			f.writeByte(TagThis)
		}
		for _, a := range e.Args {
			f.expr(a)
		}
		if e.BlockArg != nil {
			f.expr(e.BlockArg)
		}

	case *compiler.SubscriptExpr:
		f.writeByte(TagSubscript)
		f.writeUint16(uint16(len(e.Args)))
		f.expr(e.Receiver)
		for _, a := range e.Args {
			f.expr(a)
		}

	case *compiler.AssignExpr:
		f.writeByte(TagAssign)
		f.expr(e.Target)
		f.expr(e.Value)

	case *compiler.FnExpr:
		f.writeByte(TagFn)
		f.writeUint16(uint16(len(e.Params)))
		f.pushScope()
		for _, p := range e.Params {
			f.declare(p)
		}
		f.body(e.Body)
		f.popScope()

	case *compiler.NewExpr:
		// "new Foo()" and "new Foo" fingerprint identically; both invoke
		// the zero-argument constructor.
		numArgs := len(e.Args)
		if e.BlockArg != nil {
			numArgs++
		}
		f.writeByte(TagNew)
		f.writeUint16(uint16(numArgs))
		f.expr(e.Class)
		for _, a := range e.Args {
			f.expr(a)
		}
		if e.BlockArg != nil {
			f.expr(e.BlockArg)
		}
	}
}

// name serializes a bare name reference. A resolved local becomes a
// (depth, slot) coordinate. An unresolved name inside a method is an
// implicit send to this; elsewhere it is a global reference. Both keep
// the name.
func (f *fingerprinter) name(n string) {
	if depth, slot, ok := f.resolve(n); ok {
		f.writeByte(TagLocalRef)
		f.writeUint16(depth)
		f.writeUint16(slot)
		return
	}
	if f.inMethod {
		f.writeByte(TagImplicitSend)
		f.writeString(n)
		return
	}
	f.writeByte(TagGlobalRef)
	f.writeString(n)
}
