package h264

import (
	"fmt"

	"github.com/ugparu/avcprobe/utils/bits"
)

// HighProfileInfo holds the chroma and scaling fields that are present only for
// the High family of profiles (profile_idc 100, 110, 122 and 144).
type HighProfileInfo struct {
	ChromaFormatIDC                 uint32
	ResidualColourTransformFlag     bool // read only when ChromaFormatIDC == 3
	BitDepthLumaMinus8              uint32
	BitDepthChromaMinus8            uint32
	QpprimeYZeroTransformBypassFlag bool
	SeqScalingMatrixPresentFlag     bool
	// Presence flags of the eight scaling lists. The lists themselves are not decoded.
	SeqScalingListPresentFlag [scalingListCount]bool
}

// PicOrderCntType0Info is present when pic_order_cnt_type == 0.
type PicOrderCntType0Info struct {
	Log2MaxPicOrderCntLsbMinus4 uint32
}

// PicOrderCntType1Info is present when pic_order_cnt_type == 1.
type PicOrderCntType1Info struct {
	DeltaPicOrderAlwaysZeroFlag    bool
	OffsetForNonRefPic             int32
	OffsetForTopToBottomField      int32
	NumRefFramesInPicOrderCntCycle uint32
	OffsetForRefFrame              []int32
}

// FrameCrop holds the frame cropping offsets in crop units. All zero when
// frame_cropping_flag is clear.
type FrameCrop struct {
	Left   uint32
	Right  uint32
	Top    uint32
	Bottom uint32
}

// SPS is a decoded H.264 sequence parameter set.
//
// Blocks that the bitstream carries only under some condition are pointers and
// stay nil when absent. Single conditional fields keep their zero value when absent.
type SPS struct {
	ForbiddenZeroBit uint8
	NalRefIDC        uint8
	NalUnitType      uint8

	ProfileIDC         uint8
	ConstraintSet0Flag bool
	ConstraintSet1Flag bool
	ConstraintSet2Flag bool
	ConstraintSet3Flag bool
	ReservedZero4Bits  uint8
	LevelIDC           uint8

	SeqParameterSetID uint32

	HighProfile *HighProfileInfo

	Log2MaxFrameNumMinus4 uint32
	PicOrderCntType       uint32
	PicOrderCnt0          *PicOrderCntType0Info
	PicOrderCnt1          *PicOrderCntType1Info

	NumRefFrames                   uint32
	GapsInFrameNumValueAllowedFlag bool
	PicWidthInMbsMinus1            uint32
	PicHeightInMapUnitsMinus1      uint32
	FrameMbsOnlyFlag               bool
	MbAdaptiveFrameFieldFlag       bool
	Direct8x8InferenceFlag         bool

	FrameCroppingFlag bool
	Crop              FrameCrop

	VUIParametersPresentFlag bool
	// VUIParameters is the first bit of vui_parameters(). The rest of the VUI is
	// not decoded, so fields read after it may be misaligned when VUI is present.
	VUIParameters  uint8
	RBSPStopOneBit uint8
}

// ChromaFormatIDC returns chroma_format_idc, or 0 when the High profile block is
// absent from the bitstream.
func (s *SPS) ChromaFormatIDC() uint32 {
	if s.HighProfile == nil {
		return 0
	}
	return s.HighProfile.ChromaFormatIDC
}

// hasHighProfileBlock reports whether profile_idc carries the chroma block.
func hasHighProfileBlock(profileIDC uint8) bool {
	switch profileIDC {
	case profileHigh, profileHigh10, profileHigh422, profileHigh444:
		return true
	}
	return false
}

// spsParser walks the SPS grammar. The first error sticks and turns every later
// read into a no-op, so the grammar can be written top to bottom.
type spsParser struct {
	r   *bits.Reader
	err error
}

func (p *spsParser) u(n int) uint32 {
	if p.err != nil {
		return 0
	}
	var v uint32
	v, p.err = p.r.ReadBits(n)
	return v
}

func (p *spsParser) u8(n int) uint8 {
	return uint8(p.u(n)) //nolint:gosec // n <= 8
}

func (p *spsParser) flag() bool {
	return p.u(1) == 1
}

func (p *spsParser) ue() uint32 {
	if p.err != nil {
		return 0
	}
	var v uint32
	v, p.err = p.r.ReadUE()
	return v
}

func (p *spsParser) se() int32 {
	if p.err != nil {
		return 0
	}
	var v int32
	v, p.err = p.r.ReadSE()
	return v
}

// ParseSPS decodes an SPS NAL unit starting at the NAL header byte. The input
// must already have its emulation prevention bytes removed.
//
// Values are not validated: nal_unit_type, profile and sizes are taken as read.
// On error the returned SPS is the zero value.
func ParseSPS(data []byte) (SPS, error) {
	p := &spsParser{r: bits.NewReader(data)}
	var s SPS

	s.ForbiddenZeroBit = p.u8(1)
	s.NalRefIDC = p.u8(2)
	s.NalUnitType = p.u8(5)

	s.ProfileIDC = p.u8(bits8)
	s.ConstraintSet0Flag = p.flag()
	s.ConstraintSet1Flag = p.flag()
	s.ConstraintSet2Flag = p.flag()
	s.ConstraintSet3Flag = p.flag()
	s.ReservedZero4Bits = p.u8(4)
	s.LevelIDC = p.u8(bits8)

	s.SeqParameterSetID = p.ue()

	if hasHighProfileBlock(s.ProfileIDC) {
		s.HighProfile = p.highProfile()
	}

	s.Log2MaxFrameNumMinus4 = p.ue()
	s.PicOrderCntType = p.ue()
	switch s.PicOrderCntType {
	case 0:
		s.PicOrderCnt0 = &PicOrderCntType0Info{Log2MaxPicOrderCntLsbMinus4: p.ue()}
	case 1:
		s.PicOrderCnt1 = p.picOrderCntType1()
	}

	s.NumRefFrames = p.ue()
	s.GapsInFrameNumValueAllowedFlag = p.flag()
	s.PicWidthInMbsMinus1 = p.ue()
	s.PicHeightInMapUnitsMinus1 = p.ue()
	s.FrameMbsOnlyFlag = p.flag()
	if !s.FrameMbsOnlyFlag {
		s.MbAdaptiveFrameFieldFlag = p.flag()
	}
	s.Direct8x8InferenceFlag = p.flag()

	s.FrameCroppingFlag = p.flag()
	if s.FrameCroppingFlag {
		s.Crop.Left = p.ue()
		s.Crop.Right = p.ue()
		s.Crop.Top = p.ue()
		s.Crop.Bottom = p.ue()
	}

	s.VUIParametersPresentFlag = p.flag()
	if s.VUIParametersPresentFlag {
		s.VUIParameters = p.u8(1)
	}
	s.RBSPStopOneBit = p.u8(1)

	if p.err != nil {
		return SPS{}, fmt.Errorf("h264parser: parse SPS failed at bit %d(%w)", p.r.Pos(), p.err)
	}
	return s, nil
}

func (p *spsParser) highProfile() *HighProfileInfo {
	hp := &HighProfileInfo{}
	hp.ChromaFormatIDC = p.ue()
	if hp.ChromaFormatIDC == chromaFormat444 {
		hp.ResidualColourTransformFlag = p.flag()
	}
	hp.BitDepthLumaMinus8 = p.ue()
	hp.BitDepthChromaMinus8 = p.ue()
	hp.QpprimeYZeroTransformBypassFlag = p.flag()
	hp.SeqScalingMatrixPresentFlag = p.flag()
	if hp.SeqScalingMatrixPresentFlag {
		for i := range hp.SeqScalingListPresentFlag {
			hp.SeqScalingListPresentFlag[i] = p.flag()
		}
	}
	return hp
}

func (p *spsParser) picOrderCntType1() *PicOrderCntType1Info {
	poc := &PicOrderCntType1Info{}
	poc.DeltaPicOrderAlwaysZeroFlag = p.flag()
	poc.OffsetForNonRefPic = p.se()
	poc.OffsetForTopToBottomField = p.se()
	poc.NumRefFramesInPicOrderCntCycle = p.ue()
	// Every se(v) entry takes at least one bit.
	if p.err == nil && int64(poc.NumRefFramesInPicOrderCntCycle) > int64(p.r.Left()) {
		p.err = fmt.Errorf("%w: %d offsets announced, %d bits left",
			bits.ErrBitstreamExhausted, poc.NumRefFramesInPicOrderCntCycle, p.r.Left())
		return poc
	}
	if poc.NumRefFramesInPicOrderCntCycle > 0 {
		poc.OffsetForRefFrame = make([]int32, poc.NumRefFramesInPicOrderCntCycle)
		for i := range poc.OffsetForRefFrame {
			poc.OffsetForRefFrame[i] = p.se()
		}
	}
	return poc
}
