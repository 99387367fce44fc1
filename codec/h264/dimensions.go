package h264

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDimensions is returned when cropping would leave a negative frame
// size or the size does not fit in 32 bits.
var ErrInvalidDimensions = errors.New("h264parser: invalid frame dimensions")

// cropUnitX returns the horizontal crop unit for the chroma format.
//
// chroma_format_idc = 0, monochrome
// chroma_format_idc = 1, YUV 4:2:0
// chroma_format_idc = 2, YUV 4:2:2
// chroma_format_idc = 3, YUV 4:4:4
func cropUnitX(chromaFormatIDC uint32) int64 {
	switch chromaFormatIDC {
	case chromaFormatMonochrome, chromaFormat444:
		return 1
	case chromaFormat420, chromaFormat422:
		return cropMultiplier
	}
	return 1
}

// cropUnitY returns the vertical crop unit for the chroma format and frame coding.
func cropUnitY(chromaFormatIDC uint32, frameMbsOnly bool) int64 {
	unit := fieldFactor(frameMbsOnly)
	if chromaFormatIDC == chromaFormat420 {
		unit *= cropMultiplier
	}
	return unit
}

// fieldFactor is 2 - frame_mbs_only_flag.
func fieldFactor(frameMbsOnly bool) int64 {
	if frameMbsOnly {
		return frameHeightBase - 1
	}
	return frameHeightBase
}

// Dimensions derives the frame size in pixels, after cropping.
func (s *SPS) Dimensions() (width, height uint32, err error) {
	chroma := s.ChromaFormatIDC()

	w := (int64(s.PicWidthInMbsMinus1) + 1) * mbSize
	h := fieldFactor(s.FrameMbsOnlyFlag) * (int64(s.PicHeightInMapUnitsMinus1) + 1) * mbSize

	if s.FrameCroppingFlag {
		w -= cropUnitX(chroma) * (int64(s.Crop.Left) + int64(s.Crop.Right))
		h -= cropUnitY(chroma, s.FrameMbsOnlyFlag) * (int64(s.Crop.Top) + int64(s.Crop.Bottom))
	}

	if w < 0 || h < 0 || w > math.MaxUint32 || h > math.MaxUint32 {
		err = fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
		return
	}
	return uint32(w), uint32(h), nil //nolint:gosec // range checked above
}

// Parse decodes an SPS NAL unit and derives the frame size from it.
func Parse(data []byte) (sps SPS, width, height uint32, err error) {
	if sps, err = ParseSPS(data); err != nil {
		return
	}
	if width, height, err = sps.Dimensions(); err != nil {
		return SPS{}, 0, 0, err
	}
	return
}
