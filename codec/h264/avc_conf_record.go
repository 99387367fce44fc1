package h264

import (
	"errors"

	"github.com/ugparu/avcprobe/utils/bits/pio"
)

var ErrDecconfInvalid = errors.New("h264parser: AVCDecoderConfRecord invalid")

// AVCDecoderConfRecord is the avcC box payload (ISO/IEC 14496-15) carrying the
// parameter sets of an AVC stream.
type AVCDecoderConfRecord struct {
	AVCProfileIndication uint8    // profile_idc copied from the first SPS.
	ProfileCompatibility uint8    // Constraint flags byte copied from the first SPS.
	AVCLevelIndication   uint8    // level_idc copied from the first SPS.
	LengthSizeMinusOne   uint8    // Size of the NALU length prefix in bytes, minus one.
	SPS                  [][]byte // Sequence Parameter Set NALUs.
	PPS                  [][]byte // Picture Parameter Set NALUs.
}

// NewAVCDecoderConfRecord builds a record around one SPS and one PPS. The
// profile and level bytes are copied from the SPS header.
func NewAVCDecoderConfRecord(sps, pps []byte, lengthSize uint8) (AVCDecoderConfRecord, error) {
	if len(sps) < minAVCRecordSize || lengthSize == 0 {
		return AVCDecoderConfRecord{}, ErrDecconfInvalid
	}
	return AVCDecoderConfRecord{
		AVCProfileIndication: sps[1],
		ProfileCompatibility: sps[2],
		AVCLevelIndication:   sps[3],
		LengthSizeMinusOne:   lengthSize - 1,
		SPS:                  [][]byte{sps},
		PPS:                  [][]byte{pps},
	}, nil
}

// Unmarshal decodes the binary representation of AVCDecoderConfRecord from the given byte slice.
// It returns the number of bytes read and any decoding error encountered.
func (avc *AVCDecoderConfRecord) Unmarshal(b []byte) (n int, err error) {
	if len(b) < avcRecordHeaderSize {
		err = ErrDecconfInvalid
		return
	}

	avc.AVCProfileIndication = b[1]
	avc.ProfileCompatibility = b[2]
	avc.AVCLevelIndication = b[3]
	avc.LengthSizeMinusOne = b[4] & maskLengthSizeMinusOne
	spscount := int(b[5] & maskSPSCount)
	n += 6

	if avc.SPS, n, err = readParameterSets(b, n, spscount); err != nil {
		return
	}

	if len(b) < n+1 {
		err = ErrDecconfInvalid
		return
	}
	ppscount := int(b[n])
	n++

	avc.PPS, n, err = readParameterSets(b, n, ppscount)
	return
}

// readParameterSets reads count length-prefixed NALUs starting at b[n].
func readParameterSets(b []byte, n, count int) (sets [][]byte, next int, err error) {
	for range count {
		if len(b) < n+lengthFieldSize {
			return nil, n, ErrDecconfInvalid
		}
		setlen := int(pio.U16BE(b[n:]))
		n += lengthFieldSize

		if len(b) < n+setlen {
			return nil, n, ErrDecconfInvalid
		}
		sets = append(sets, b[n:n+setlen])
		n += setlen
	}
	return sets, n, nil
}

// Len calculates and returns the length of the binary representation of AVCDecoderConfRecord.
func (avc *AVCDecoderConfRecord) Len() (n int) {
	n = avcRecordHeaderSize
	for _, sps := range avc.SPS {
		n += lengthFieldSize + len(sps)
	}
	for _, pps := range avc.PPS {
		n += lengthFieldSize + len(pps)
	}
	return
}

// Marshal serializes the AVCDecoderConfRecord into b, which must be at least Len() bytes.
// It returns the number of bytes written.
func (avc *AVCDecoderConfRecord) Marshal(b []byte) (n int) {
	b[0] = 1
	b[1] = avc.AVCProfileIndication
	b[2] = avc.ProfileCompatibility
	b[3] = avc.AVCLevelIndication
	b[4] = avc.LengthSizeMinusOne | maskLengthSizeMinusOneInv
	b[5] = uint8(len(avc.SPS)) | maskSPSCountInv //nolint:gosec // integer overflow for sps count is not possible
	n += 6

	for _, sps := range avc.SPS {
		pio.PutU16BE(b[n:], uint16(len(sps))) //nolint:gosec // integer overflow for sps length is not possible
		n += lengthFieldSize
		copy(b[n:], sps)
		n += len(sps)
	}

	b[n] = uint8(len(avc.PPS)) //nolint:gosec // integer overflow for pps count is not possible
	n++

	for _, pps := range avc.PPS {
		pio.PutU16BE(b[n:], uint16(len(pps))) //nolint:gosec // integer overflow for pps length is not possible
		n += lengthFieldSize
		copy(b[n:], pps)
		n += len(pps)
	}

	return
}
