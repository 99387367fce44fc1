package avcprobe

// CodecType represents the type of a codec.
type CodecType uint32

// avCodecTypeMagic is a magic number used to create unique codec types.
const avCodecTypeMagic = 233333

// codecTypeOtherBits leaves the low bit free, as audio codec types used to set it.
const codecTypeOtherBits = 1

// makeVideoCodecType creates a video CodecType based on the provided base.
func makeVideoCodecType(base uint32) (c CodecType) {
	c = CodecType(base) << codecTypeOtherBits
	return
}

// variables representing specific codec types.
var (
	H264  = makeVideoCodecType(avCodecTypeMagic + 1) //nolint:mnd
	H265  = makeVideoCodecType(avCodecTypeMagic + 2) //nolint:mnd
	JPEG  = makeVideoCodecType(avCodecTypeMagic + 3) //nolint:mnd
	VP8   = makeVideoCodecType(avCodecTypeMagic + 4) //nolint:mnd
	VP9   = makeVideoCodecType(avCodecTypeMagic + 5) //nolint:mnd
	AV1   = makeVideoCodecType(avCodecTypeMagic + 6) //nolint:mnd
	MJPEG = makeVideoCodecType(avCodecTypeMagic + 7) //nolint:mnd
)

// String returns the human-readable string representation of a CodecType.
func (ct CodecType) String() string {
	switch ct {
	case H264:
		return "H264"
	case H265:
		return "H265"
	case JPEG:
		return "JPEG"
	case VP8:
		return "VP8"
	case VP9:
		return "VP9"
	case AV1:
		return "AV1"
	case MJPEG:
		return "MJPEG"
	}
	return "UNKNOWN"
}
