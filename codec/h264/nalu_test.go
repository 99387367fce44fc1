package h264

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNaluType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nalu  []byte
		typ   int
		label string
		key   bool
	}{
		{name: "sps", nalu: []byte{0x67}, typ: NaluSPS, label: "SPS", key: true},
		{name: "sps_low_nri", nalu: []byte{0x27}, typ: NaluSPS, label: "SPS", key: true},
		{name: "pps", nalu: []byte{0x68}, typ: NaluPPS, label: "PPS"},
		{name: "idr", nalu: []byte{0x65}, typ: NaluCodedIDR, label: "I", key: true},
		{name: "non_idr", nalu: []byte{0x41}, typ: NaluNonIDR, label: "B/P"},
		{name: "sei", nalu: []byte{0x06}, typ: 6, label: "Unknown"},
		{name: "empty", nalu: nil, typ: -1, label: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.typ, NaluType(tt.nalu))
			require.Equal(t, tt.label, NaluTypeName(NaluType(tt.nalu)))
			require.Equal(t, tt.key, IsKeyFrame(tt.nalu))
		})
	}

	require.True(t, IsSPS([]byte{0x67}))
	require.True(t, IsPPS([]byte{0x68}))
	require.True(t, IsIDR([]byte{0x25}))
	require.False(t, IsSPS(nil))
}
