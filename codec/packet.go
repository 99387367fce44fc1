package codec

import (
	"fmt"
	"time"

	"github.com/ugparu/avcprobe"
)

type BasePacket[T avcprobe.CodecParameters] struct {
	Idx          uint8
	RelativeTime time.Duration
	AbsoluteTime time.Time
	Buf          []byte
	CodecPar     T
}

func (pkt *BasePacket[T]) StreamIndex() uint8 {
	return pkt.Idx
}

func (pkt *BasePacket[T]) Timestamp() time.Duration {
	return pkt.RelativeTime
}

func (pkt *BasePacket[T]) StartTime() time.Time {
	return pkt.AbsoluteTime
}

func (pkt *BasePacket[T]) Data() []byte {
	return pkt.Buf
}

func (pkt *BasePacket[T]) Len() int {
	return len(pkt.Buf)
}

func (pkt *BasePacket[T]) String() string {
	if pkt == nil {
		return "EMPTY_PACKET"
	}
	return fmt.Sprintf("PACKET sz=%d", len(pkt.Buf))
}

type VideoPacket[T avcprobe.VideoCodecParameters] struct {
	BasePacket[T]
	IsKeyFrm bool
}

func (pkt *VideoPacket[T]) CodecParameters() avcprobe.VideoCodecParameters {
	return pkt.CodecPar
}

func (pkt *VideoPacket[T]) IsKeyFrame() bool {
	return pkt.IsKeyFrm
}
