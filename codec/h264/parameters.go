package h264

import (
	"errors"
	"fmt"

	"github.com/ugparu/avcprobe"
	"github.com/ugparu/avcprobe/codec"
	"github.com/ugparu/avcprobe/utils/nal"
)

// CodecParameters describes an H.264 stream: its decoder configuration record
// and the SPS decoded from it.
type CodecParameters struct {
	codec.BaseParameters
	Record     []byte
	RecordInfo AVCDecoderConfRecord
	SPSInfo    SPS
	width      uint32
	height     uint32
}

// NewCodecDataFromSPSAndPPS builds parameters from escaped SPS and PPS NALUs,
// as found in a stream or in sprop-parameter-sets.
func NewCodecDataFromSPSAndPPS(sps, pps []byte) (codecPar CodecParameters, err error) {
	recordinfo, err := NewAVCDecoderConfRecord(sps, pps, nal.MinNaluSize)
	if err != nil {
		return
	}

	buf := make([]byte, recordinfo.Len())
	recordinfo.Marshal(buf)

	codecPar.RecordInfo = recordinfo
	codecPar.Record = buf
	codecPar.CodecType = avcprobe.H264

	err = codecPar.parseSPS(sps)
	return
}

// NewCodecDataFromAVCDecoderConfRecord builds parameters from an avcC payload.
func NewCodecDataFromAVCDecoderConfRecord(record []byte) (codecPar CodecParameters, err error) {
	codecPar.Record = record
	if _, err = (&codecPar.RecordInfo).Unmarshal(record); err != nil {
		return
	}
	if len(codecPar.RecordInfo.SPS) == 0 {
		err = errors.New("h264parser: no SPS found in AVCDecoderConfRecord")
		return
	}
	if len(codecPar.RecordInfo.PPS) == 0 {
		err = errors.New("h264parser: no PPS found in AVCDecoderConfRecord")
		return
	}

	codecPar.CodecType = avcprobe.H264
	err = codecPar.parseSPS(codecPar.RecordInfo.SPS[0])
	return
}

func (par *CodecParameters) parseSPS(escaped []byte) (err error) {
	if par.SPSInfo, par.width, par.height, err = Parse(nal.RemoveEmulationPrevention(escaped)); err != nil {
		err = fmt.Errorf("h264parser: parse SPS failed(%w)", err)
	}
	return
}

func (par *CodecParameters) AVCDecoderConfRecordBytes() []byte {
	return par.Record
}

// SPS returns the first SPS of the record, or nil for a value not built by a constructor.
func (par *CodecParameters) SPS() []byte {
	if len(par.RecordInfo.SPS) == 0 {
		return nil
	}
	return par.RecordInfo.SPS[0]
}

// PPS returns the first PPS of the record, or nil when there is none.
func (par *CodecParameters) PPS() []byte {
	if len(par.RecordInfo.PPS) == 0 {
		return nil
	}
	return par.RecordInfo.PPS[0]
}

func (par *CodecParameters) Width() uint {
	return uint(par.width)
}

func (par *CodecParameters) Height() uint {
	return uint(par.height)
}

// Tag returns the RFC 6381 codec string, e.g. avc1.42801F.
func (par *CodecParameters) Tag() string {
	return fmt.Sprintf("avc1.%02X%02X%02X",
		par.RecordInfo.AVCProfileIndication, par.RecordInfo.ProfileCompatibility, par.RecordInfo.AVCLevelIndication)
}

func (par *CodecParameters) String() string {
	return fmt.Sprintf("H264 %s %dx%d", par.Tag(), par.width, par.height)
}
