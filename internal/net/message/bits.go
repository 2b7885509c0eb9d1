package message

import "errors"

// ErrNotEnoughBits is returned when a BitReader runs out of input.
var ErrNotEnoughBits = errors.New("not enough bits")

// BitWriter appends values of arbitrary bit width to a byte slice. Bits are
// filled from the least significant bit of each byte.
type BitWriter struct {
	buf     []byte
	current byte
	used    uint
}

// NewBitWriter creates a writer appending to buf.
func NewBitWriter(buf []byte) *BitWriter {
	return &BitWriter{buf: buf}
}

// Write appends the n low bits of v, least significant first. n is at most
// 64.
func (w *BitWriter) Write(v uint64, n uint) {
	for n != 0 {
		free := 8 - w.used
		take := min(free, n)

		w.current |= byte(v&(1<<take-1)) << w.used
		w.used += take
		v >>= take
		n -= take

		if w.used == 8 {
			w.buf = append(w.buf, w.current)
			w.current = 0
			w.used = 0
		}
	}
}

// Flush pads the pending bits with zeros and returns the buffer.
func (w *BitWriter) Flush() []byte {
	if w.used != 0 {
		w.buf = append(w.buf, w.current)
		w.current = 0
		w.used = 0
	}
	return w.buf
}

// BitReader reads the values written by a BitWriter.
type BitReader struct {
	src     []byte
	pos     int
	current byte
	left    uint
}

// NewBitReader creates a reader over src.
func NewBitReader(src []byte) *BitReader {
	return &BitReader{src: src}
}

// Read returns the next n bits. n is at most 64.
func (r *BitReader) Read(n uint) (uint64, error) {
	var (
		v     uint64
		shift uint
	)

	for n != 0 {
		if r.left == 0 {
			if r.pos == len(r.src) {
				return 0, ErrNotEnoughBits
			}
			r.current = r.src[r.pos]
			r.pos++
			r.left = 8
		}

		take := min(r.left, n)
		used := 8 - r.left

		v |= uint64((r.current>>used)&(1<<take-1)) << shift
		shift += take
		r.left -= take
		n -= take
	}

	return v, nil
}

// Consumed returns the number of bytes the reader has started to read.
func (r *BitReader) Consumed() int {
	return r.pos
}
