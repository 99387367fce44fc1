package rtp

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
	"github.com/ugparu/avcprobe"
	"github.com/ugparu/avcprobe/codec/h264"
	"github.com/ugparu/avcprobe/utils"
	"github.com/ugparu/avcprobe/utils/sdp"
)

var (
	// Baseline 480x848.
	testSPS = []byte{0x67, 0x42, 0x80, 0x1f, 0xe9, 0x03, 0xc0, 0xd7, 0x40, 0x36, 0x85, 0x09, 0xa8}
	// High 64x64 with emulation prevention bytes.
	testSPSSmall = []byte{
		0x67, 0x64, 0x00, 0x0a, 0xac, 0x72, 0x84, 0x44, 0x26, 0x84, 0x00, 0x00, 0x03,
		0x00, 0x04, 0x00, 0x00, 0x03, 0x00, 0xca, 0x3c, 0x48, 0x96, 0x11, 0x80,
	}
	testPPS    = []byte{0x68, 0xce, 0x06, 0xe2}
	testIDR    = []byte{0x65, 0x88, 0x81, 0x00, 0x05, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	testNonIDR = []byte{0x41, 0x9a, 0x02, 0x04}
)

const testPayloadType = 96

func interleaved(t *testing.T, channel byte, pt uint8, ts uint32, payload []byte) []byte {
	t.Helper()

	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    pt,
			SequenceNumber: 1,
			Timestamp:      ts,
			SSRC:           0x1234,
		},
		Payload: payload,
	}
	raw, err := pkt.Marshal()
	require.NoError(t, err)

	return append([]byte{'$', channel, byte(len(raw) >> 8), byte(len(raw))}, raw...)
}

func stapA(nalus ...[]byte) []byte {
	out := []byte{0x78}
	for _, n := range nalus {
		out = append(out, byte(len(n)>>8), byte(len(n)))
		out = append(out, n...)
	}
	return out
}

func fuA(nalu []byte, parts int) [][]byte {
	indicator := nalu[0]&0xe0 | nalLFUA
	body := nalu[1:]
	step := (len(body) + parts - 1) / parts

	var out [][]byte
	for i := 0; i < len(body); i += step {
		end := min(i+step, len(body))
		header := nalu[0] & control1
		if i == 0 {
			header |= 0x80
		}
		if end == len(body) {
			header |= 0x40
		}
		out = append(out, append([]byte{indicator, header}, body[i:end]...))
	}
	return out
}

func TestH264DemuxerDemux(t *testing.T) {
	t.Parallel()

	media := sdp.Media{PayloadType: testPayloadType, SpropParameterSets: [][]byte{testSPS, testPPS}}
	dmx := NewH264Demuxer(bytes.NewReader(nil), media, 3)
	defer dmx.Close()

	par, err := dmx.Demux()
	require.NoError(t, err)
	require.Equal(t, avcprobe.H264, par.Type())
	require.Equal(t, uint(480), par.Width())
	require.Equal(t, uint(848), par.Height())
	require.Equal(t, uint8(3), par.StreamIndex())

	_, err = dmx.ReadPacket()
	require.ErrorIs(t, err, io.EOF)
}

func TestH264DemuxerDemuxWithoutSprop(t *testing.T) {
	t.Parallel()

	dmx := NewH264Demuxer(bytes.NewReader(nil), sdp.Media{}, 0)
	_, err := dmx.Demux()
	require.ErrorAs(t, err, &utils.NoSPSError{})
}

func TestH264DemuxerInBand(t *testing.T) {
	t.Parallel()

	var stream []byte
	rtcp := append([]byte{'$', 1, 0, 28, 0x80, rtcpSenderReport, 0, 6}, make([]byte, 24)...)
	stream = append(stream, rtcp...)
	stream = append(stream, interleaved(t, 0, testPayloadType, 0, testNonIDR)...)
	stream = append(stream, interleaved(t, 0, testPayloadType, 0, stapA(testSPS, testPPS))...)
	for _, frag := range fuA(testIDR, 3) {
		stream = append(stream, interleaved(t, 0, testPayloadType, 90000, frag)...)
	}
	stream = append(stream, interleaved(t, 0, 97, 90000, testNonIDR)...)
	stream = append(stream, interleaved(t, 0, testPayloadType, 93600, testNonIDR)...)
	stream = append(stream, interleaved(t, 0, testPayloadType, 180000, testSPSSmall)...)
	stream = append(stream, interleaved(t, 0, testPayloadType, 180000, testIDR)...)

	dmx := NewH264Demuxer(bytes.NewReader(stream), sdp.Media{PayloadType: testPayloadType}, 1)
	defer dmx.Close()

	pkt, err := dmx.ReadPacket()
	require.NoError(t, err)
	idr, ok := pkt.(*h264.Packet)
	require.True(t, ok)
	require.True(t, idr.IsKeyFrame())
	require.Equal(t, time.Second, idr.Timestamp())
	require.Equal(t, uint8(1), idr.StreamIndex())
	require.Equal(t, append([]byte{0, 0, 0, byte(len(testIDR))}, testIDR...), idr.Data())
	require.Equal(t, uint(480), idr.CodecParameters().Width())

	pkt, err = dmx.ReadPacket()
	require.NoError(t, err)
	slice, ok := pkt.(*h264.Packet)
	require.True(t, ok)
	require.False(t, slice.IsKeyFrame())
	require.Equal(t, 1040*time.Millisecond, slice.Timestamp())
	require.Equal(t, uint(848), slice.CodecParameters().Height())

	pkt, err = dmx.ReadPacket()
	require.NoError(t, err)
	resized, ok := pkt.(*h264.Packet)
	require.True(t, ok)
	require.True(t, resized.IsKeyFrame())
	require.Equal(t, uint(64), resized.CodecParameters().Width())
	require.Equal(t, uint(64), resized.CodecParameters().Height())
	require.Equal(t, uint(64), dmx.CodecParameters().Width())

	_, err = dmx.ReadPacket()
	require.ErrorIs(t, err, io.EOF)
}

func TestH264DemuxerFramingErrors(t *testing.T) {
	t.Parallel()

	valid := interleaved(t, 0, testPayloadType, 0, testIDR)

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{name: "bad_magic", data: append([]byte{'#'}, valid[1:]...), err: ErrInvalidFraming},
		{name: "short_length", data: []byte{'$', 0, 0, 4, 0x80, 96, 0, 1}, err: ErrInvalidFraming},
		{name: "truncated_body", data: valid[:len(valid)-3], err: io.ErrUnexpectedEOF},
		{name: "truncated_header", data: valid[:2], err: io.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dmx := NewH264Demuxer(bytes.NewReader(tt.data), sdp.Media{}, 0)
			_, err := dmx.ReadPacket()
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestH264DemuxerBadInBandSPS(t *testing.T) {
	t.Parallel()

	stream := interleaved(t, 0, testPayloadType, 0, stapA(testPPS, testSPS[:6]))
	dmx := NewH264Demuxer(bytes.NewReader(stream), sdp.Media{}, 0)
	_, err := dmx.ReadPacket()
	require.Error(t, err)
	require.Nil(t, dmx.CodecParameters())
}

func TestFUAWithoutStartIsDropped(t *testing.T) {
	t.Parallel()

	frags := fuA(testIDR, 2)
	var stream []byte
	stream = append(stream, interleaved(t, 0, testPayloadType, 0, stapA(testSPS, testPPS))...)
	stream = append(stream, interleaved(t, 0, testPayloadType, 0, frags[1])...)

	dmx := NewH264Demuxer(bytes.NewReader(stream), sdp.Media{}, 0)
	_, err := dmx.ReadPacket()
	require.ErrorIs(t, err, io.EOF)
	require.NotNil(t, dmx.CodecParameters())
}
