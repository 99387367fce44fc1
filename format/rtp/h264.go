package rtp

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/ugparu/avcprobe"
	"github.com/ugparu/avcprobe/codec/h264"
	"github.com/ugparu/avcprobe/utils"
	"github.com/ugparu/avcprobe/utils/logger"
	"github.com/ugparu/avcprobe/utils/nal"
	"github.com/ugparu/avcprobe/utils/sdp"
)

var errEmptyNALU = errors.New("rtp: empty nal unit")

// H264Demuxer turns interleaved RTP packets into AVCC framed NALUs and keeps
// the stream's codec parameters current as SPS and PPS arrive in band.
type H264Demuxer struct {
	*baseDemuxer
	sps       []byte
	pps       []byte
	codec     *h264.CodecParameters
	packets   []*h264.Packet
	fuStarted bool
	fuBuffer  bytes.Buffer
}

func NewH264Demuxer(rdr io.Reader, sdp sdp.Media, index uint8) *H264Demuxer {
	return &H264Demuxer{
		baseDemuxer: newBaseDemuxer(rdr, sdp, index),
		sps:         []byte{},
		pps:         []byte{},
		codec:       nil,
		packets:     []*h264.Packet{},
		fuStarted:   false,
	}
}

// Demux initialises the codec from sprop-parameter-sets. A stream without
// them gets its parameters from the first in-band SPS and PPS instead.
func (d *H264Demuxer) Demux() (avcprobe.VideoCodecParameters, error) {
	if len(d.sdp.SpropParameterSets) <= 1 {
		return nil, utils.NoSPSError{Source: "sprop-parameter-sets"}
	}
	if err := d.updatePPS(d.sdp.SpropParameterSets[1]); err != nil {
		return nil, err
	}
	if err := d.updateSPS(d.sdp.SpropParameterSets[0]); err != nil {
		return nil, err
	}
	if d.codec == nil {
		return nil, utils.NoSPSError{Source: "sprop-parameter-sets"}
	}
	return d.codec, nil
}

// CodecParameters returns the parameters built from the latest SPS and PPS,
// or nil before both have been seen.
func (d *H264Demuxer) CodecParameters() *h264.CodecParameters {
	return d.codec
}

func (d *H264Demuxer) ReadPacket() (pkt avcprobe.Packet, err error) {
	for len(d.packets) == 0 {
		if err = d.readPacket(); err != nil {
			return nil, err
		}

		nals, _ := nal.SplitNALUs(d.packet.Payload)
		if len(nals) == 0 || len(nals[0]) == 0 {
			return nil, errEmptyNALU
		}

		for _, nalU := range nals {
			if len(nalU) == 0 {
				continue
			}
			if err = d.processNALUnit(nalU); err != nil {
				return nil, err
			}
		}
	}

	pkt = d.packets[0]
	d.packets = d.packets[1:]
	return pkt, nil
}

func (d *H264Demuxer) Close() {
	d.packets = nil
	d.fuBuffer.Reset()
}

// processNALUnit handles a single NAL unit based on its type
func (d *H264Demuxer) processNALUnit(nalU []byte) error {
	naluType := nalU[0] & control1
	switch {
	case naluType >= nalnoIDR && naluType <= nalIDR:
		d.addPacket(nalU, naluType == nalIDR)
	case naluType == nalSPS:
		return d.updateSPS(nalU)
	case naluType == nalPPS:
		return d.updatePPS(nalU)
	case naluType == nalUnitDel:
	case naluType <= nalReserved:
		logger.Tracef(d, "Unimplemented non-VCL nal type %d", naluType)
	case naluType == nalSTAPA:
		return d.processSTAPA(nalU)
	case naluType == nalLFUA:
		return d.processFUA(nalU)
	default:
		logger.Debugf(d, "Currently unsupported NAL type %v", naluType)
	}
	return nil
}

// processSTAPA handles STAP-A aggregation packets
func (d *H264Demuxer) processSTAPA(nalU []byte) error {
	packet := nalU[1:]
	for len(packet) >= 2 {
		size := int(packet[0])<<8 | int(packet[1]) //nolint:mnd
		if size == 0 || size+2 > len(packet) {
			break
		}
		if err := d.processNALUnit(packet[2 : size+2]); err != nil {
			return err
		}
		packet = packet[size+2:]
	}
	return nil
}

// processFUA handles FU-A fragmentation units
func (d *H264Demuxer) processFUA(nalU []byte) error {
	if len(nalU) < 2 { //nolint:mnd
		return errEmptyNALU
	}
	fuIndicator := nalU[0]
	fuHeader := nalU[1]
	isStart := fuHeader&0x80 != 0 //nolint:mnd
	isEnd := fuHeader&0x40 != 0   //nolint:mnd

	if isStart {
		d.fuStarted = true
		d.fuBuffer.Reset()
		d.fuBuffer.WriteByte(fuIndicator&0xe0 | fuHeader&control1)
	}

	if !d.fuStarted {
		logger.Tracef(d, "Dropping FU-A fragment without a start")
		return nil
	}

	d.fuBuffer.Write(nalU[2:])
	if isEnd {
		d.fuStarted = false
		return d.processNALUnit(d.fuBuffer.Bytes())
	}
	return nil
}

// addPacket queues a slice NALU once codec parameters are known
func (d *H264Demuxer) addPacket(nalU []byte, isKeyFrame bool) {
	if d.codec == nil {
		logger.Tracef(d, "Dropping slice before SPS and PPS")
		return
	}
	data := append(binSize(len(nalU)), nalU...)
	pkt := h264.NewPacket(isKeyFrame,
		time.Duration(d.timestamp)*time.Millisecond/time.Duration(clockrate), time.Now(),
		data, d.codec)
	d.packets = append(d.packets, pkt)
}

func (d *H264Demuxer) updateSPS(val []byte) error {
	if bytes.Equal(val, d.sps) {
		return nil
	}
	d.sps = append(d.sps[:0], val...)
	return d.rebuildCodec()
}

func (d *H264Demuxer) updatePPS(val []byte) error {
	if bytes.Equal(val, d.pps) {
		return nil
	}
	d.pps = append(d.pps[:0], val...)
	return d.rebuildCodec()
}

func (d *H264Demuxer) rebuildCodec() error {
	if len(d.sps) == 0 || len(d.pps) == 0 {
		return nil
	}

	codec, err := h264.NewCodecDataFromSPSAndPPS(bytes.Clone(d.sps), bytes.Clone(d.pps))
	if err != nil {
		return err
	}
	codec.SetStreamIndex(d.index)

	if d.codec == nil || d.codec.Width() != codec.Width() || d.codec.Height() != codec.Height() {
		logger.Debugf(d, "Codec %s", codec.String())
	}
	d.codec = &codec
	return nil
}
