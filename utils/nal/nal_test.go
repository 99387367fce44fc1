package nal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testSPS = []byte{0x67, 0x42, 0x80, 0x1f, 0xe9, 0x03, 0xc0, 0xd7, 0x40, 0x36, 0x85, 0x09, 0xa8}
	testPPS = []byte{0x68, 0xce, 0x06, 0xe2}
	testIDR = []byte{0x65, 0x88, 0x81, 0x00, 0x05}
)

func TestSplitNALUs(t *testing.T) {
	t.Parallel()

	annexB := append([]byte{0, 0, 0, 1}, testSPS...)
	annexB = append(annexB, 0, 0, 1)
	annexB = append(annexB, testPPS...)
	annexB = append(annexB, 0, 0, 0, 1)
	annexB = append(annexB, testIDR...)

	avcc := append([]byte{0, 0, 0, byte(len(testSPS))}, testSPS...)
	avcc = append(avcc, 0, 0, 0, byte(len(testPPS)))
	avcc = append(avcc, testPPS...)

	tests := []struct {
		name   string
		data   []byte
		format Format
		nalus  [][]byte
	}{
		{
			name:   "annexb_mixed_start_codes",
			data:   annexB,
			format: FormatANNEXB,
			nalus:  [][]byte{testSPS, testPPS, testIDR},
		},
		{
			name:   "avcc",
			data:   avcc,
			format: FormatAVCC,
			nalus:  [][]byte{testSPS, testPPS},
		},
		{
			name:   "raw",
			data:   testSPS,
			format: FormatRaw,
			nalus:  [][]byte{testSPS},
		},
		{
			name:   "short",
			data:   []byte{0x68, 0xce},
			format: FormatRaw,
			nalus:  [][]byte{{0x68, 0xce}},
		},
		{
			name:   "avcc_truncated_tail",
			data:   append([]byte{0, 0, 0, 2, 0x68, 0xce, 0, 0, 0, 9}, testIDR...),
			format: FormatAVCC,
			nalus:  [][]byte{{0x68, 0xce}, testIDR},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			nalus, format := SplitNALUs(tt.data)
			require.Equal(t, tt.format, format)
			require.Equal(t, tt.nalus, nalus)
		})
	}
}

func TestFormatString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ANNEXB", FormatANNEXB.String())
	require.Equal(t, "AVCC", FormatAVCC.String())
	require.Equal(t, "RAW", FormatRaw.String())
}

func TestRemoveEmulationPrevention(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{name: "none", in: []byte{0x67, 0x42, 0x00, 0x1f}, want: []byte{0x67, 0x42, 0x00, 0x1f}},
		{name: "single", in: []byte{0x00, 0x00, 0x03, 0x01}, want: []byte{0x00, 0x00, 0x01}},
		{name: "back_to_back", in: []byte{0x00, 0x00, 0x03, 0x00, 0x00, 0x03}, want: []byte{0x00, 0x00, 0x00, 0x00}},
		{name: "literal_after_escape", in: []byte{0x00, 0x00, 0x03, 0x03}, want: []byte{0x00, 0x00, 0x03}},
		{name: "one_zero", in: []byte{0x00, 0x03, 0x00}, want: []byte{0x00, 0x03, 0x00}},
		{
			name: "sps",
			in:   []byte{0x67, 0x64, 0x00, 0x0a, 0xac, 0x72, 0x84, 0x44, 0x26, 0x84, 0x00, 0x00, 0x03, 0x00, 0x04, 0x00, 0x00, 0x03, 0x00, 0xca, 0x3c, 0x48, 0x96, 0x11, 0x80},
			want: []byte{0x67, 0x64, 0x00, 0x0a, 0xac, 0x72, 0x84, 0x44, 0x26, 0x84, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0xca, 0x3c, 0x48, 0x96, 0x11, 0x80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, RemoveEmulationPrevention(tt.in))
		})
	}
}

func TestRemoveEmulationPreventionKeepsInput(t *testing.T) {
	t.Parallel()

	in := []byte{0x67, 0x42, 0x00, 0x1f}
	out := RemoveEmulationPrevention(in)
	require.Same(t, &in[0], &out[0])
}
