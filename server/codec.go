package server

import (
	"github.com/fxamacker/cbor/v2"
)

// cborCodec lets connect handlers and clients speak CBOR instead of
// protobuf. The service messages are plain structs with keyasint tags, so
// no generated stubs are involved; the codec name maps to the
// application/cbor content type on the wire.
type cborCodec struct{}

var codecEncMode cbor.EncMode

func init() {
	var err error
	codecEncMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Marshal(message interface{}) ([]byte, error) {
	return codecEncMode.Marshal(message)
}

func (cborCodec) Unmarshal(data []byte, message interface{}) error {
	return cbor.Unmarshal(data, message)
}
