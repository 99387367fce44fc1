package bits

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// packBits turns a string of '0'/'1' into bytes, zero padding the last byte.
func packBits(s string) []byte {
	out := make([]byte, (len(s)+7)/8)
	for i, c := range s {
		if c == '1' {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

func TestReadBitsNibbles(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{0xB4})
	v, err := r.ReadBits(4)
	require.NoError(t, err)
	require.Equal(t, uint32(11), v)
	v, err = r.ReadBits(4)
	require.NoError(t, err)
	require.Equal(t, uint32(4), v)
	require.Equal(t, 8, r.Pos())
	require.Zero(t, r.Left())
}

func TestReadBitsAcrossBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		skip int
		n    int
		want uint32
	}{
		{name: "zero_width", data: []byte{0xff}, n: 0, want: 0},
		{name: "single_msb", data: []byte{0x80}, n: 1, want: 1},
		{name: "straddle", data: []byte{0x0f, 0xf0}, skip: 4, n: 8, want: 0xff},
		{name: "u16", data: []byte{0x12, 0x34}, n: 16, want: 0x1234},
		{name: "u32", data: []byte{0xde, 0xad, 0xbe, 0xef}, n: 32, want: 0xdeadbeef},
		{name: "odd_offset", data: []byte{0x67, 0x42}, skip: 3, n: 5, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewReader(tt.data)
			require.NoError(t, r.Skip(tt.skip))
			v, err := r.ReadBits(tt.n)
			require.NoError(t, err)
			require.Equal(t, tt.want, v)
			require.Equal(t, tt.skip+tt.n, r.Pos())
		})
	}
}

func TestReadBitsDeterministic(t *testing.T) {
	t.Parallel()

	data := []byte{0x67, 0x42, 0x80, 0x1f, 0xe9, 0x03, 0xc0, 0xd7, 0x40, 0x36}
	for start := 0; start < 24; start++ {
		for n := 1; n <= 16; n++ {
			first := NewReader(data)
			require.NoError(t, first.Skip(start))
			a, err := first.ReadBits(n)
			require.NoError(t, err)

			second := NewReader(data)
			require.NoError(t, second.Skip(start))
			b, err := second.ReadBits(n)
			require.NoError(t, err)

			require.Equal(t, a, b, "start=%d n=%d", start, n)
			require.Equal(t, start+n, first.Pos())
		}
	}
}

func TestReadBitsExhausted(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{0xff})
	_, err := r.ReadBits(9)
	require.ErrorIs(t, err, ErrBitstreamExhausted)

	r = NewReader([]byte{0xff})
	_, err = r.ReadBits(5)
	require.NoError(t, err)
	_, err = r.ReadBits(4)
	require.ErrorIs(t, err, ErrBitstreamExhausted)

	_, err = NewReader(nil).ReadFlag()
	require.ErrorIs(t, err, ErrBitstreamExhausted)
}

func TestReadBitsInvalidWidth(t *testing.T) {
	t.Parallel()

	r := NewReader(make([]byte, 8))
	_, err := r.ReadBits(33)
	require.ErrorIs(t, err, ErrInvalidFieldWidth)
	_, err = r.ReadBits(-1)
	require.ErrorIs(t, err, ErrInvalidFieldWidth)
	require.ErrorIs(t, r.Skip(-1), ErrInvalidFieldWidth)
}

func TestSkip(t *testing.T) {
	t.Parallel()

	r := NewReader([]byte{0x00, 0x01})
	require.NoError(t, r.Skip(15))
	ok, err := r.ReadFlag()
	require.NoError(t, err)
	require.True(t, ok)
	require.ErrorIs(t, r.Skip(1), ErrBitstreamExhausted)
}

func TestPackBits(t *testing.T) {
	t.Parallel()

	require.Equal(t, []byte{0xb4}, packBits("10110100"))
	require.Equal(t, []byte{0x20}, packBits("001"))
	require.Equal(t, []byte{0xff, 0x80}, packBits("111111111"))
}
