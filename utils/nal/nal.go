package nal

import (
	"github.com/ugparu/avcprobe/utils/bits/pio"
)

// Format is the framing a buffer of NALUs was found in.
type Format int

// Constants for different NALU (Network Abstraction Layer Unit) formats.
const (
	FormatRaw    Format = iota // Raw NALU format.
	FormatAVCC                 // AVCC NALU format.
	FormatANNEXB               // ANNEXB NALU format.
)

func (f Format) String() string {
	switch f {
	case FormatAVCC:
		return "AVCC"
	case FormatANNEXB:
		return "ANNEXB"
	default:
		return "RAW"
	}
}

// MinNaluSize is the minimum size of a Network Abstraction Layer Unit (NALU).
const MinNaluSize = 4

const emulationPreventionByte = 0x03

// isStartCode checks if there's a NALU start code (0x000001 or 0x00000001) at the given position
// and returns the type of start code found (3-byte or 4-byte) and whether a start code was found.
func isStartCode(b []byte, pos int) (startCodeLength int, found bool) {
	if pos+2 >= len(b) || b[pos] != 0 {
		return 0, false
	}

	val3 := pio.U24BE(b[pos:])
	if val3 == 1 {
		return 3, true //nolint:mnd
	}

	if val3 == 0 && pos+3 < len(b) && b[pos+3] == 1 {
		return 4, true //nolint:mnd
	}

	return 0, false
}

// parseANNEXB parses a byte slice in ANNEXB format and returns the NALUs.
func parseANNEXB(b []byte, val3, val4 uint32) [][]byte {
	var nalus [][]byte
	_val3 := val3
	_val4 := val4
	start := 0
	pos := 0
	for {
		if start != pos {
			nalus = append(nalus, b[start:pos])
		}
		if _val3 == 1 {
			pos += 3
		} else if _val4 == 1 {
			pos += 4
		}
		start = pos
		if start == len(b) {
			break
		}
		_val3 = 0
		_val4 = 0
		for pos < len(b) {
			startCodeLength, found := isStartCode(b, pos)
			if found {
				if startCodeLength == 3 { //nolint:mnd
					_val3 = 1
				} else {
					_val4 = 1
				}
				break
			}
			pos++
		}
	}
	return nalus
}

// SplitNALUs splits a byte slice into Network Abstraction Layer Units (NALUs)
// based on different formats (Raw, AVCC, or ANNEXB) and returns the NALUs and the format type.
// A leading start code always selects ANNEXB.
func SplitNALUs(b []byte) (nalus [][]byte, typ Format) {
	// If the byte slice is smaller than the minimum NALU size, consider it as a single raw NALU.
	if len(b) < MinNaluSize {
		return [][]byte{b}, FormatRaw
	}

	// Check for ANNEXB format.
	val3 := pio.U24BE(b)
	val4 := pio.U32BE(b)
	if val3 == 1 || val4 == 1 {
		nalus = parseANNEXB(b, val3, val4)
		return nalus, FormatANNEXB
	}

	// Check for AVCC format.
	if val4 <= uint32(len(b)-MinNaluSize) { //nolint:gosec
		if nalus = parseAVCC(b[MinNaluSize:], val4); len(nalus) > 0 {
			return nalus, FormatAVCC
		}
	}

	// If none of the formats match, consider it as a single raw NALU.
	return [][]byte{b}, FormatRaw
}

// parseAVCC walks 4-byte length prefixed NALUs. b starts after the first prefix.
func parseAVCC(b []byte, size uint32) (nalus [][]byte) {
	for {
		if size > uint32(len(b)) { //nolint:gosec
			// For corrupted streams, try to salvage partial NALUs
			if len(b) > 0 {
				nalus = append(nalus, b)
			}
			return
		}
		if size > 0 {
			nalus = append(nalus, b[:size])
		}
		b = b[size:]
		if len(b) < MinNaluSize {
			return
		}
		size = pio.U32BE(b)
		b = b[MinNaluSize:]
	}
}

// RemoveEmulationPrevention returns the RBSP of a NAL unit: every 0x03 that
// follows two zero bytes is dropped. b is returned as is when it holds no
// emulation prevention byte.
func RemoveEmulationPrevention(b []byte) []byte {
	zeros := 0
	var out []byte
	for i, c := range b {
		if zeros >= 2 && c == emulationPreventionByte {
			if out == nil {
				out = make([]byte, i, len(b))
				copy(out, b[:i])
			}
			zeros = 0
			continue
		}
		if out != nil {
			out = append(out, c)
		}
		if c == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	if out == nil {
		return b
	}
	return out
}
