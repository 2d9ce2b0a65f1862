package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Image: a serializable snapshot of a session
//
// An image holds the user-visible state of a VM: the global variables, the
// user-defined classes with their compiled methods, and the symbol tables
// the bytecode indexes into. The built-in classes are not serialized; a
// restored image is loaded into a freshly bootstrapped VM, which already
// has them, and references them by name.
// ---------------------------------------------------------------------------

// ImageVersion is the snapshot format version. RestoreImage refuses any
// other version.
const ImageVersion uint32 = 1

// Value tags. The tag decides which other ImageValue fields are meaningful.
const (
	imageTagNull      byte = 0 // no payload
	imageTagFalse     byte = 1 // no payload
	imageTagTrue      byte = 2 // no payload
	imageTagNum       byte = 3 // Num
	imageTagObject    byte = 4 // Index into Objects
	imageTagClass     byte = 5 // Index into Classes
	imageTagCoreClass byte = 6 // Str names a built-in class
	imageTagCoreMeta  byte = 7 // Str names a built-in class; the metaclass
	imageTagFn        byte = 8 // Index into Fns
)

// Object kinds for ImageObject.
const (
	imageKindString   byte = 1
	imageKindList     byte = 2
	imageKindRange    byte = 3
	imageKindInstance byte = 4
	imageKindClosure  byte = 5
)

// Image is the CBOR-serializable snapshot of a VM's user state.
//
// MethodNames and GlobalNames record what the capture-time symbol ids
// meant. A restoring VM has interned its own ids in its own order, so the
// loader re-interns every name and rewrites the bytecode operands through
// the resulting mapping.
type Image struct {
	Version     uint32        `cbor:"1,keyasint"`
	MethodNames []string      `cbor:"2,keyasint"`
	GlobalNames []string      `cbor:"3,keyasint"`
	Globals     []ImageValue  `cbor:"4,keyasint"`
	Objects     []ImageObject `cbor:"5,keyasint,omitempty"`
	Classes     []ImageClass  `cbor:"6,keyasint,omitempty"`
	Fns         []ImageFn     `cbor:"7,keyasint,omitempty"`
}

// ImageValue is one serialized value.
type ImageValue struct {
	Tag   byte    `cbor:"1,keyasint"`
	Num   float64 `cbor:"2,keyasint,omitempty"`
	Str   string  `cbor:"3,keyasint,omitempty"`
	Index uint32  `cbor:"4,keyasint,omitempty"`
}

// ImageObject is one serialized heap object. Kind decides which fields
// are meaningful: Str for strings, Items for list elements, From/To/
// Inclusive for ranges, Class and Items for instance fields, Fn for the
// code behind a closure.
type ImageObject struct {
	Kind      byte         `cbor:"1,keyasint"`
	Str       string       `cbor:"2,keyasint,omitempty"`
	Items     []ImageValue `cbor:"3,keyasint,omitempty"`
	From      float64      `cbor:"4,keyasint,omitempty"`
	To        float64      `cbor:"5,keyasint,omitempty"`
	Inclusive bool         `cbor:"6,keyasint,omitempty"`
	Class     ImageValue   `cbor:"7,keyasint"`
	Fn        uint32       `cbor:"8,keyasint,omitempty"`
}

// ImageClass is one serialized user class: only its own method bindings
// and its own field count. Inherited state is rebuilt by binding the
// superclass on restore. Classes appear parents-first, so a superclass
// reference by index is always to an earlier entry.
type ImageClass struct {
	Name       string        `cbor:"1,keyasint"`
	Superclass ImageValue    `cbor:"2,keyasint"`
	NumFields  uint32        `cbor:"3,keyasint"`
	Methods    []ImageMethod `cbor:"4,keyasint,omitempty"`
	Statics    []ImageMethod `cbor:"5,keyasint,omitempty"`
}

// ImageMethod binds a signature to a compiled fn.
type ImageMethod struct {
	Signature string `cbor:"1,keyasint"`
	Fn        uint32 `cbor:"2,keyasint"`
}

// ImageFn is one serialized unit of compiled code. Code still carries the
// capture-time symbol and global operands; the loader rewrites them.
type ImageFn struct {
	Name        string       `cbor:"1,keyasint,omitempty"`
	NumParams   uint32       `cbor:"2,keyasint"`
	NumUpvalues uint32       `cbor:"3,keyasint,omitempty"`
	MaxSlots    uint32       `cbor:"4,keyasint"`
	BoundFields bool         `cbor:"5,keyasint,omitempty"`
	Code        []byte       `cbor:"6,keyasint"`
	Constants   []ImageValue `cbor:"7,keyasint,omitempty"`
}

// cborEncMode uses canonical mode so the same snapshot always encodes to
// the same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes the image to CBOR bytes.
func (img *Image) Marshal() ([]byte, error) {
	return cborEncMode.Marshal(img)
}

// UnmarshalImage deserializes an image from CBOR bytes.
func UnmarshalImage(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("vm: unmarshal image: %w", err)
	}
	return &img, nil
}
