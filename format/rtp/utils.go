package rtp

import "github.com/ugparu/avcprobe/utils/bits/pio"

// binSize returns the 4-byte AVCC length prefix for a NALU of val bytes.
func binSize(val int) []byte {
	buf := make([]byte, headerSize)
	pio.PutU32BE(buf, uint32(val)) //nolint:gosec
	return buf
}
