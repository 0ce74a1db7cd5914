package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	version      byte = 1
	kindRedirect byte = 1
	kindEntry    byte = 2

	flagInvalid byte = 1 << 0

	maxString = 0xFFFF
	maxList   = 0xFFFF
)

// Kind identifies what a frame carries.
type Kind byte

const (
	KindRedirect = Kind(kindRedirect)
	KindEntry    = Kind(kindEntry)
)

var (
	ErrCorrupt = errors.New("varcache: corrupt frame")
	magic4     = [...]byte{'V', 'A', 'R', 'C'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// KindOf validates the common header and returns the frame kind.
func KindOf(b []byte) (Kind, error) {
	if len(b) < 6 || !hasMagic(b) || b[4] != version {
		return 0, ErrCorrupt
	}
	switch b[5] {
	case kindRedirect, kindEntry:
		return Kind(b[5]), nil
	default:
		return 0, ErrCorrupt
	}
}

// Redirect:
//
//	magic(4) | ver(1) | kind(1=redirect) | n(u16 be) | (len(u16 be) | context)*n
func EncodeRedirect(contexts []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + listSize(contexts))
	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindRedirect)
	if err := writeList(&buf, contexts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeRedirect(b []byte) ([]string, error) {
	if k, err := KindOf(b); err != nil || k != KindRedirect {
		return nil, ErrCorrupt
	}
	r := reader{b: b, off: 6}
	contexts, ok := r.list()
	if !ok || r.off != len(b) {
		return nil, ErrCorrupt
	}
	return contexts, nil
}

// Entry is the decoded form of an entry frame. Payload aliases the input buffer.
type Entry struct {
	Invalid  bool
	Expire   int64 // unix nanoseconds; 0 => permanent
	Checksum uint64
	Tags     []string
	Contexts []string
	Payload  []byte
}

// Entry:
//
//	magic(4) | ver(1) | kind(1=entry) | flags(1) | expire(i64 be) | checksum(u64 be)
//	tags list | contexts list | vlen(u32 be) | payload(vlen)
func EncodeEntry(e Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 1 + 8 + 8 + listSize(e.Tags) + listSize(e.Contexts) + 4 + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var flags byte
	if e.Invalid {
		flags |= flagInvalid
	}
	buf.WriteByte(flags)

	var u8 [8]byte
	binary.BigEndian.PutUint64(u8[:], uint64(e.Expire))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], e.Checksum)
	buf.Write(u8[:])

	if err := writeList(&buf, e.Tags); err != nil {
		return nil, err
	}
	if err := writeList(&buf, e.Contexts); err != nil {
		return nil, err
	}

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])
	buf.Write(e.Payload)
	return buf.Bytes(), nil
}

func DecodeEntry(b []byte) (Entry, error) {
	if k, err := KindOf(b); err != nil || k != KindEntry {
		return Entry{}, ErrCorrupt
	}
	r := reader{b: b, off: 6}

	flags, ok := r.byte()
	if !ok || flags&^flagInvalid != 0 {
		return Entry{}, ErrCorrupt
	}
	expire, ok := r.u64()
	if !ok {
		return Entry{}, ErrCorrupt
	}
	sum, ok := r.u64()
	if !ok {
		return Entry{}, ErrCorrupt
	}
	tags, ok := r.list()
	if !ok {
		return Entry{}, ErrCorrupt
	}
	contexts, ok := r.list()
	if !ok {
		return Entry{}, ErrCorrupt
	}
	vlen, ok := r.u32()
	if !ok || int(vlen) != len(b)-r.off { // strict: payload runs to the end
		return Entry{}, ErrCorrupt
	}

	return Entry{
		Invalid:  flags&flagInvalid != 0,
		Expire:   int64(expire),
		Checksum: sum,
		Tags:     tags,
		Contexts: contexts,
		Payload:  b[r.off:],
	}, nil
}

func listSize(ss []string) int {
	n := 2
	for _, s := range ss {
		n += 2 + len(s)
	}
	return n
}

func writeList(buf *bytes.Buffer, ss []string) error {
	if len(ss) > maxList {
		return fmt.Errorf("varcache: too many strings in frame: %d", len(ss))
	}
	var u2 [2]byte
	binary.BigEndian.PutUint16(u2[:], uint16(len(ss)))
	buf.Write(u2[:])
	for _, s := range ss {
		if l := len(s); l == 0 || l > maxString {
			return fmt.Errorf("varcache: invalid string length in frame: %d", l)
		}
		binary.BigEndian.PutUint16(u2[:], uint16(len(s)))
		buf.Write(u2[:])
		buf.WriteString(s)
	}
	return nil
}

type reader struct {
	b   []byte
	off int
}

func (r *reader) byte() (byte, bool) {
	if r.off+1 > len(r.b) {
		return 0, false
	}
	v := r.b[r.off]
	r.off++
	return v, true
}

func (r *reader) u16() (uint16, bool) {
	if r.off+2 > len(r.b) {
		return 0, false
	}
	v := binary.BigEndian.Uint16(r.b[r.off : r.off+2])
	r.off += 2
	return v, true
}

func (r *reader) u32() (uint32, bool) {
	if r.off+4 > len(r.b) {
		return 0, false
	}
	v := binary.BigEndian.Uint32(r.b[r.off : r.off+4])
	r.off += 4
	return v, true
}

func (r *reader) u64() (uint64, bool) {
	if r.off+8 > len(r.b) {
		return 0, false
	}
	v := binary.BigEndian.Uint64(r.b[r.off : r.off+8])
	r.off += 8
	return v, true
}

func (r *reader) list() ([]string, bool) {
	n, ok := r.u16()
	if !ok {
		return nil, false
	}
	if n == 0 {
		return nil, true
	}
	// every element needs at least 3 bytes; reject bogus counts before allocating
	if int(n)*3 > len(r.b)-r.off {
		return nil, false
	}
	out := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		l, ok := r.u16()
		if !ok || l == 0 || int(l) > len(r.b)-r.off {
			return nil, false
		}
		out = append(out, string(r.b[r.off:r.off+int(l)]))
		r.off += int(l)
	}
	return out, true
}
