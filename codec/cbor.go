package codec

import (
	"errors"
	"reflect"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var errCBORModes = errors.New("codec: CBOR codec not built with NewCBOR")

// cborModes are immutable and shared by every codec with the same setting.
var cborModes [2]struct {
	once sync.Once
	enc  cbor.EncMode
	dec  cbor.DecMode
	err  error
}

func modesFor(deterministic bool) (cbor.EncMode, cbor.DecMode, error) {
	i := 0
	if deterministic {
		i = 1
	}
	m := &cborModes[i]
	m.once.Do(func() {
		eo := cbor.PreferredUnsortedEncOptions()
		if deterministic {
			eo = cbor.CoreDetEncOptions()
		}
		eo.Time = cbor.TimeRFC3339Nano
		if m.enc, m.err = eo.EncMode(); m.err != nil {
			return
		}
		m.dec, m.err = cbor.DecOptions{
			DupMapKey:       cbor.DupMapKeyEnforcedAPF,
			MaxNestedLevels: 64,
			// untyped maps come back keyed by string, as encoding/json gives them
			DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		}.DecMode()
	})
	return m.enc, m.dec, m.err
}

// CBOR serializes values with fxamacker/cbor. Build it with NewCBOR or
// MustCBOR; a zero value reports an error on use.
//
// deterministic=true selects RFC 8949 core deterministic encoding, so equal
// values produce equal payloads across processes. Times are RFC3339Nano.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	em, dm, err := modesFor(deterministic)
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error. Meant for package-level vars.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	if c.enc == nil {
		return nil, errCBORModes
	}
	return c.enc.Marshal(v)
}

// Decode rejects trailing bytes after the first data item.
func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	if c.dec == nil {
		return v, errCBORModes
	}
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
