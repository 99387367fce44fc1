package h264

// NaluNonIDR is the NALU type of a coded slice of a non-IDR picture.
const NaluNonIDR = 1

// NaluCodedIDR represents the Network Abstraction Layer Unit (NALU) type for
// Coded IDR (Instantaneous Decoding Refresh).
const NaluCodedIDR = 5

// NaluSPS represents the Network Abstraction Layer Unit (NALU) type for Sequence Parameter Set.
const NaluSPS = 7

// NaluPPS represents the Network Abstraction Layer Unit (NALU) type for Picture Parameter Set.
const NaluPPS = 8

// minAVCRecordSize is the number of SPS bytes the AVC record copies into its header.
const minAVCRecordSize = 4

// Common magic numbers used in the package
const (
	// Bit masks
	maskNaluType              = 0x1f
	maskLengthSizeMinusOne    = 0x03
	maskSPSCount              = 0x1f
	maskLengthSizeMinusOneInv = 0xfc
	maskSPSCountInv           = 0xe0

	// Bit sizes
	bits8 = 8

	// Profiles carrying chroma_format_idc and the scaling matrix flags
	profileHigh    = 100
	profileHigh10  = 110
	profileHigh422 = 122
	profileHigh444 = 144

	// Chroma format values
	chromaFormatMonochrome = 0
	chromaFormat420        = 1
	chromaFormat422        = 2
	chromaFormat444        = 3

	// Number of seq_scaling_list_present_flag entries
	scalingListCount = 8

	// Macroblock size
	mbSize = 16

	// Frame height calculation constant
	frameHeightBase = 2

	// Crop multiplier for subsampled chroma
	cropMultiplier = 2

	// Length field size in AVCDecoderConfRecord
	lengthFieldSize = 2

	// Fixed part of AVCDecoderConfRecord
	avcRecordHeaderSize = 7
)
