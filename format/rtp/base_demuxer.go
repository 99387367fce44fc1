// Package rtp depacketizes H.264 carried over RTSP-interleaved RTP.
package rtp

import (
	"errors"
	"fmt"
	"io"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/ugparu/avcprobe/utils/bits/pio"
	"github.com/ugparu/avcprobe/utils/logger"
	"github.com/ugparu/avcprobe/utils/sdp"
)

const (
	headerSize         = 4
	interleavedMagic   = '$'
	rtpHeaderSize      = 12
	rtcpSenderReport   = 200
	rtcpReceiverReport = 201
	control1           = 0x1f
	nalnoIDR           = 1
	nalIDR             = 5
	nalSPS             = 7
	nalPPS             = 8
	nalUnitDel         = 9
	nalReserved        = 23
	nalSTAPA           = 24
	nalLFUA            = 28
	clockrate          = 90
)

var ErrInvalidFraming = errors.New("rtp: invalid interleaved frame")

type baseDemuxer struct {
	rdr       io.Reader
	sdp       sdp.Media
	header    [headerSize]byte
	frame     []byte
	packet    rtp.Packet
	timestamp uint32
	index     uint8
}

func newBaseDemuxer(rdr io.Reader, sdp sdp.Media, index uint8) *baseDemuxer {
	return &baseDemuxer{
		rdr:   rdr,
		sdp:   sdp,
		index: index,
	}
}

// readPacket reads interleaved frames until one carries an RTP packet for this
// stream and unmarshals it into d.packet.
func (d *baseDemuxer) readPacket() (err error) {
	for {
		if _, err = io.ReadFull(d.rdr, d.header[:]); err != nil {
			return
		}
		if d.header[0] != interleavedMagic {
			return fmt.Errorf("%w: magic 0x%02x", ErrInvalidFraming, d.header[0])
		}

		length := int(pio.U16BE(d.header[2:]))
		if length < rtpHeaderSize {
			return fmt.Errorf("%w: RTP incorrect packet size %d", ErrInvalidFraming, length)
		}

		if cap(d.frame) < length {
			d.frame = make([]byte, length)
		}
		d.frame = d.frame[:length]
		if _, err = io.ReadFull(d.rdr, d.frame); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return
		}

		if d.isRTCPPacket() {
			d.logRTCP()
			continue
		}

		if err = d.packet.Unmarshal(d.frame); err != nil {
			return fmt.Errorf("rtp: unmarshal failed(%w)", err)
		}

		if d.sdp.PayloadType != 0 && int(d.packet.PayloadType) != d.sdp.PayloadType {
			logger.Tracef(d, "Skipping payload type %d", d.packet.PayloadType)
			continue
		}

		d.timestamp = d.packet.Timestamp
		return nil
	}
}

func (d *baseDemuxer) isRTCPPacket() bool {
	rtcpPacketType := d.frame[1]
	return rtcpPacketType == rtcpSenderReport || rtcpPacketType == rtcpReceiverReport
}

func (d *baseDemuxer) logRTCP() {
	pkts, err := rtcp.Unmarshal(d.frame)
	if err != nil {
		logger.Tracef(d, "Skipping malformed RTCP on channel %d: %s", d.header[1], err.Error())
		return
	}
	for _, pkt := range pkts {
		if sr, ok := pkt.(*rtcp.SenderReport); ok {
			logger.Tracef(d, "Sender report ssrc=%d rtp=%d packets=%d", sr.SSRC, sr.RTPTime, sr.PacketCount)
		}
	}
}

func (d *baseDemuxer) String() string {
	return fmt.Sprintf("RTP_DEMUXER idx=%d", d.index)
}
