package codec

// Bytes stores []byte values unchanged, e.g. pre-rendered fragments.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) {
	// the payload aliases the provider's buffer
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// String stores string values as their UTF-8 bytes, without validation.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
