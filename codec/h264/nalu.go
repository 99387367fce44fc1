package h264

// NAL header layout, MSB first:
//
//	+---------------+
//	|0|1|2|3|4|5|6|7|
//	+-+-+-+-+-+-+-+-+
//	|F|NRI|  Type   |
//	+---------------+
//
// 0x67 is an SPS, 0x68 a PPS, 0x65 an IDR slice, 0x41 a non-IDR slice.

// NaluType returns the nal_unit_type of a NAL unit, or -1 when nalu is empty.
func NaluType(nalu []byte) int {
	if len(nalu) == 0 {
		return -1
	}
	return int(nalu[0] & maskNaluType)
}

func IsSPS(nalu []byte) bool {
	return NaluType(nalu) == NaluSPS
}

func IsPPS(nalu []byte) bool {
	return NaluType(nalu) == NaluPPS
}

func IsIDR(nalu []byte) bool {
	return NaluType(nalu) == NaluCodedIDR
}

// IsKeyFrame reports whether nalu starts a random access point: an IDR slice or an SPS.
func IsKeyFrame(nalu []byte) bool {
	return IsIDR(nalu) || IsSPS(nalu)
}

// NaluTypeName returns a short label for a NALU type.
func NaluTypeName(typ int) string {
	switch typ {
	case NaluSPS:
		return "SPS"
	case NaluPPS:
		return "PPS"
	case NaluCodedIDR:
		return "I"
	case NaluNonIDR:
		return "B/P"
	default:
		return "Unknown"
	}
}
