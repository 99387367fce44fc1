// Package bits implements an MSB-first bit reader over an in-memory buffer
// together with the Exp-Golomb codes used by H.264 headers.
package bits

import (
	"errors"
	"fmt"
)

// MaxFieldWidth is the widest fixed-length field ReadBits can return.
const MaxFieldWidth = 32

const byteSize = 8

var (
	// ErrBitstreamExhausted is returned when a read needs more bits than the buffer holds.
	ErrBitstreamExhausted = errors.New("bits: bitstream exhausted")
	// ErrInvalidFieldWidth is returned for negative widths or widths above MaxFieldWidth.
	ErrInvalidFieldWidth = errors.New("bits: invalid field width")
)

// Reader is a cursor over buf. pos counts bits from the MSB of buf[0] and
// always stays within [0, 8*len(buf)].
//
// Every read advances the cursor by exactly the number of bits it consumed.
// After a failed read the position is unspecified and the reader must not be
// used for further parsing.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the first bit of b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Pos returns the current bit offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the total number of bits in the buffer.
func (r *Reader) Len() int {
	return len(r.buf) * byteSize
}

// Left returns the number of unread bits.
func (r *Reader) Left() int {
	return r.Len() - r.pos
}

func (r *Reader) need(n int) error {
	if n < 0 || n > MaxFieldWidth {
		return fmt.Errorf("%w: %d", ErrInvalidFieldWidth, n)
	}
	if n > r.Left() {
		return fmt.Errorf("%w: need %d bits at offset %d, have %d", ErrBitstreamExhausted, n, r.pos, r.Left())
	}
	return nil
}

// ReadBits reads an n-bit unsigned field, 0 <= n <= MaxFieldWidth.
func (r *Reader) ReadBits(n int) (v uint32, err error) {
	if err = r.need(n); err != nil {
		return
	}
	for range n {
		v <<= 1
		if r.buf[r.pos/byteSize]&(0x80>>(r.pos%byteSize)) != 0 {
			v |= 1
		}
		r.pos++
	}
	return
}

// ReadFlag reads a single bit.
func (r *Reader) ReadFlag() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// Skip advances the cursor by n bits without decoding them.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFieldWidth, n)
	}
	if n > r.Left() {
		return fmt.Errorf("%w: skip %d bits at offset %d, have %d", ErrBitstreamExhausted, n, r.pos, r.Left())
	}
	r.pos += n
	return nil
}
