package message

import (
	"encoding/binary"
	"errors"
)

// ErrTruncated is returned when a payload ends before its last field.
var ErrTruncated = errors.New("payload is truncated")

// payloadReader reads big-endian fields from a payload. The first failure
// sticks: later reads return zero values and err keeps the first error.
type payloadReader struct {
	b   []byte
	err error
}

func (r *payloadReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *payloadReader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.b) < n {
		r.fail(ErrTruncated)
		r.b = nil
		return nil
	}

	out := r.b[:n]
	r.b = r.b[n:]
	return out
}

func (r *payloadReader) u8() uint8 {
	if b := r.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *payloadReader) u16() uint16 {
	if b := r.next(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *payloadReader) u32() uint32 {
	if b := r.next(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *payloadReader) u64() uint64 {
	if b := r.next(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *payloadReader) raw(n int) []byte {
	return r.next(n)
}

func (r *payloadReader) remaining() int {
	return len(r.b)
}

// bits runs read over a bit reader placed on the remaining bytes, then
// skips the bytes it touched.
func (r *payloadReader) bits(read func(*BitReader) error) {
	if r.err != nil {
		return
	}

	br := NewBitReader(r.b)
	if err := read(br); err != nil {
		r.fail(err)
		return
	}

	r.b = r.b[br.Consumed():]
}
