package bits

import (
	"errors"
	"fmt"
)

// maxLeadingZeroBits keeps 2^lz - 1 + suffix inside a uint32.
const maxLeadingZeroBits = 31

// ErrGolombOverflow is returned when an Exp-Golomb prefix is longer than a uint32 can hold.
var ErrGolombOverflow = errors.New("bits: exp-golomb code overflows 32 bits")

// ReadUE decodes an unsigned Exp-Golomb code, ue(v).
//
// The prefix is a run of zero bits closed by a single one bit; the same number
// of bits follow as an MSB-first suffix. The code is 2^leadingZeroBits - 1 + suffix.
func (r *Reader) ReadUE() (uint32, error) {
	leadingZeroBits := 0
	for {
		b, err := r.ReadBits(1)
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		leadingZeroBits++
		if leadingZeroBits > maxLeadingZeroBits {
			return 0, fmt.Errorf("%w: at offset %d", ErrGolombOverflow, r.pos)
		}
	}

	if leadingZeroBits == 0 {
		return 0, nil
	}

	suffix, err := r.ReadBits(leadingZeroBits)
	if err != nil {
		return 0, err
	}
	return uint32(1)<<leadingZeroBits - 1 + suffix, nil
}

// ReadSE decodes a signed Exp-Golomb code, se(v).
// Code numbers map 0, 1, 2, 3, 4 ... to 0, 1, -1, 2, -2 ...
func (r *Reader) ReadSE() (int32, error) {
	codeNum, err := r.ReadUE()
	if err != nil {
		return 0, err
	}
	return MapSigned(codeNum), nil
}

// MapSigned applies the se(v) mapping (-1)^(k+1) * ceil(k/2) to a code number.
func MapSigned(codeNum uint32) int32 {
	k := int64(codeNum)
	if k%2 == 1 {
		return int32((k + 1) / 2) //nolint:gosec // at most 2^31-1
	}
	return int32(-(k / 2)) //nolint:gosec // at least -(2^31-1)
}
