package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack serializes values with vmihailenco/msgpack/v5. The zero value is
// ready to use. Map keys are sorted, so equal values give equal payloads.
// Struct fields follow `msgpack` tags, or `json` tags when JSONTags is set.
type Msgpack[V any] struct {
	JSONTags bool
}

var _ Codec[struct{}] = Msgpack[struct{}]{}

func (c Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if c.JSONTags {
		enc.SetCustomStructTag("json")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	r := bytes.NewReader(b)
	dec := msgpack.NewDecoder(r)
	if c.JSONTags {
		dec.SetCustomStructTag("json")
	}
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	if n := r.Len(); n > 0 {
		return v, fmt.Errorf("%w (msgpack, %d bytes)", ErrTrailingData, n)
	}
	return v, nil
}
