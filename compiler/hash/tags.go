package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the fingerprint serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// all previously computed fingerprints.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing fingerprints.
const HashVersion byte = 1

// AST node type tags. Each tag uniquely identifies a node kind in the
// serialized byte stream.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Literal values
	TagNum    byte = 0x01
	TagString byte = 0x02
	TagBool   byte = 0x03
	TagNull   byte = 0x04
	TagList   byte = 0x05

	// Reserved 0x06-0x07

	// References. Locals are serialized as (depth, slot) coordinates so
	// renaming a local or parameter does not change the fingerprint.
	// Fields are serialized as per-class appearance indices. Globals and
	// implicit sends keep their names, because renaming those changes
	// which binding or method is reached.
	TagThis         byte = 0x08
	TagLocalRef     byte = 0x09
	TagFieldRef     byte = 0x0A
	TagGlobalRef    byte = 0x0B
	TagImplicitSend byte = 0x0C

	// Reserved 0x0D-0x0F

	// Expressions
	TagPrefix    byte = 0x10
	TagInfix     byte = 0x11
	TagAnd       byte = 0x12
	TagOr        byte = 0x13
	TagIs        byte = 0x14
	TagCall      byte = 0x15
	TagSubscript byte = 0x16
	TagAssign    byte = 0x17
	TagFn        byte = 0x18
	TagNew       byte = 0x19

	// Statements / structure
	TagExprStmt   byte = 0x20
	TagVarDecl    byte = 0x21
	TagGlobalDecl byte = 0x22
	TagIf         byte = 0x23
	TagWhile      byte = 0x24
	TagFor        byte = 0x25
	TagReturn     byte = 0x26
	TagBreak      byte = 0x27
	TagBlock      byte = 0x28
	TagClass      byte = 0x29
	TagMethod     byte = 0x2A
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagNum, TagString, TagBool, TagNull, TagList,
	TagThis, TagLocalRef, TagFieldRef, TagGlobalRef, TagImplicitSend,
	TagPrefix, TagInfix, TagAnd, TagOr, TagIs,
	TagCall, TagSubscript, TagAssign, TagFn, TagNew,
	TagExprStmt, TagVarDecl, TagGlobalDecl, TagIf, TagWhile,
	TagFor, TagReturn, TagBreak, TagBlock, TagClass, TagMethod,
}
