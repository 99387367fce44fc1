package rtsp

import "time"

// rtspMethod represents the RTSP methods used in the protocol.
type rtspMethod string

// Constants representing RTSP methods.
const (
	video = "video"

	describe rtspMethod = "DESCRIBE"
	options  rtspMethod = "OPTIONS"
	teardown rtspMethod = "TEARDOWN"
	play     rtspMethod = "PLAY"
	setup    rtspMethod = "SETUP"

	dialTimeout      = time.Second * 10
	readWriteTimeout = time.Second * 10

	headerSize = 4

	rtpPacket  = 0x24
	rtspPacket = 0x52

	RTSP     = "rtsp"
	RTSPS    = "rtsps"
	RTSPPort = "554"

	pingTimeout       = 15 * time.Second
	minPacketInterval = 30 * time.Second

	maxRTSPHeadersMessageSize = 2 << 10
	maxRTSPBodySize           = 64 << 10

	tcpBufSize = 8192 * (10 * 10) // nolint:mnd
)
