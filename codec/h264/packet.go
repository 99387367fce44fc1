package h264

import (
	"time"

	"github.com/ugparu/avcprobe/codec"
)

// Packet is one access unit NALU in AVCC framing.
type Packet struct {
	codec.VideoPacket[*CodecParameters]
}

// NewPacket copies data into a packet bound to param.
func NewPacket(key bool, timestamp time.Duration, absTime time.Time, data []byte, param *CodecParameters) *Packet {
	buf := make([]byte, len(data))
	copy(buf, data)
	var idx uint8
	if param != nil {
		idx = param.StreamIndex()
	}
	return &Packet{
		VideoPacket: codec.VideoPacket[*CodecParameters]{
			BasePacket: codec.BasePacket[*CodecParameters]{
				Idx:          idx,
				RelativeTime: timestamp,
				AbsoluteTime: absTime,
				Buf:          buf,
				CodecPar:     param,
			},
			IsKeyFrm: key,
		},
	}
}
