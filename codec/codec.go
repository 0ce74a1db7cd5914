// Package codec turns cached values into payload bytes and back.
//
// A payload is opaque to the variation cache: it is stored inside an entry
// frame next to the entry's tags and contexts. Redirects carry no payload and
// never reach a codec.
package codec

import "errors"

// ErrTrailingData is returned when a payload holds more than one value.
var ErrTrailingData = errors.New("codec: trailing data after value")

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
