// Package codec holds what every codec's parameters share.
package codec

import (
	"fmt"
	"math"

	"github.com/ugparu/avcprobe"
)

// BaseParameters carries the stream index and codec type.
type BaseParameters struct {
	Index uint8
	avcprobe.CodecType
}

func (par *BaseParameters) SetStreamIndex(idx uint8) {
	par.Index = idx
}

func (par *BaseParameters) StreamIndex() uint8 {
	if par == nil {
		return math.MaxUint8
	}
	return par.Index
}

func (par *BaseParameters) Type() avcprobe.CodecType {
	if par == nil {
		return math.MaxUint32
	}
	return par.CodecType
}

func (par *BaseParameters) String() string {
	if par == nil {
		return "EMPTY_CODEC_PARAMETERS"
	}
	return fmt.Sprintf("CODEC_PARAMETERS codec=%v", par.CodecType)
}
