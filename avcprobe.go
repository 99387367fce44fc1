// Package avcprobe extracts H.264 stream metadata (profile, level and frame
// size) from sequence parameter sets carried in raw NAL units, AnnexB or AVCC
// buffers, SDP descriptions and RTP streams.
package avcprobe

import "time"

// CodecParameters defines the interface for codec configuration.
type CodecParameters interface {
	Type() CodecType      // Returns the codec type.
	Tag() string          // Returns the codec identifier string.
	StreamIndex() uint8   // Returns the index of the stream in a container.
	SetStreamIndex(uint8) // Sets the stream index value.
}

// VideoCodecParameters extends CodecParameters with video-specific properties.
type VideoCodecParameters interface {
	CodecParameters // Inherits all CodecParameters methods.
	Width() uint    // Returns the video frame width in pixels.
	Height() uint   // Returns the video frame height in pixels.
}

// Packet defines a unit of demuxed media data.
type Packet interface {
	StreamIndex() uint8       // Returns the stream index this packet belongs to.
	Timestamp() time.Duration // Returns the presentation timestamp.
	StartTime() time.Time     // Returns the wall-clock time the packet was received.
	Data() []byte             // Returns the packet payload.
}

// VideoPacket extends Packet with video-specific functionality.
type VideoPacket interface {
	Packet                                 // Inherits all Packet methods.
	IsKeyFrame() bool                      // Indicates if this packet contains a keyframe.
	CodecParameters() VideoCodecParameters // Returns the codec configuration in force for the packet.
}

// Demuxer defines the interface for extracting packets from a transport stream.
type Demuxer interface {
	Demux() (VideoCodecParameters, error) // Initializes and returns detected stream parameters.
	ReadPacket() (pkt Packet, err error)  // Reads the next packet from the stream.
	Close()                               // Releases resources used by the demuxer.
}
