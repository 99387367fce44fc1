// Package probe finds the sequence parameter set in whatever container the
// caller has and reports the stream's profile, level and frame size.
package probe

import (
	"errors"
	"fmt"
	"io"

	"github.com/ugparu/avcprobe"
	"github.com/ugparu/avcprobe/codec/h264"
	"github.com/ugparu/avcprobe/format/mp4"
	"github.com/ugparu/avcprobe/utils"
	"github.com/ugparu/avcprobe/utils/logger"
	"github.com/ugparu/avcprobe/utils/nal"
	"github.com/ugparu/avcprobe/utils/sdp"
)

const name = "PROBE"

// Info is what a probe reports about one SPS.
type Info struct {
	Tag             string   `json:"codec"`
	ProfileIDC      uint8    `json:"profile_idc"`
	LevelIDC        uint8    `json:"level_idc"`
	ChromaFormatIDC uint32   `json:"chroma_format_idc"`
	FrameMbsOnly    bool     `json:"frame_mbs_only"`
	Width           uint32   `json:"width"`
	Height          uint32   `json:"height"`
	SPS             h264.SPS `json:"-"`
}

func (i Info) String() string {
	return fmt.Sprintf("%s %dx%d", i.Tag, i.Width, i.Height)
}

// FromSPS probes one SPS NAL unit. Emulation prevention bytes are removed
// before parsing, so both escaped NALUs and plain RBSP are accepted.
func FromSPS(nalu []byte) (Info, error) {
	if !h264.IsSPS(nalu) {
		return Info{}, utils.NoSPSError{Source: "NAL unit"}
	}

	sps, width, height, err := h264.Parse(nal.RemoveEmulationPrevention(nalu))
	if err != nil {
		return Info{}, err
	}

	return Info{
		Tag:             fmt.Sprintf("avc1.%02X%02X%02X", nalu[1], nalu[2], nalu[3]),
		ProfileIDC:      sps.ProfileIDC,
		LevelIDC:        sps.LevelIDC,
		ChromaFormatIDC: sps.ChromaFormatIDC(),
		FrameMbsOnly:    sps.FrameMbsOnlyFlag,
		Width:           width,
		Height:          height,
		SPS:             sps,
	}, nil
}

// fromCandidates returns the first NALU that probes as an SPS. When SPS NALUs
// were found but none parsed, the last parse error is returned.
func fromCandidates(source string, nalus [][]byte) (Info, error) {
	var lastErr error
	for _, nalu := range nalus {
		if !h264.IsSPS(nalu) {
			continue
		}
		info, err := FromSPS(nalu)
		if err == nil {
			logger.Debugf(name, "Found %s in %s", info.String(), source)
			return info, nil
		}
		logger.Debugf(name, "Skipping SPS candidate in %s: %s", source, err.Error())
		lastErr = err
	}
	if lastErr != nil {
		return Info{}, lastErr
	}
	return Info{}, utils.NoSPSError{Source: source}
}

// FromStream probes an AnnexB, AVCC or single raw NALU buffer.
func FromStream(b []byte) (Info, error) {
	nalus, format := nal.SplitNALUs(b)
	logger.Tracef(name, "Split %d NALUs from %s buffer", len(nalus), format.String())
	return fromCandidates(format.String()+" stream", nalus)
}

// FromAVCC probes the SPS list of an avcC decoder configuration record.
func FromAVCC(record []byte) (Info, error) {
	var conf h264.AVCDecoderConfRecord
	if _, err := conf.Unmarshal(record); err != nil {
		return Info{}, err
	}
	return fromCandidates("AVCDecoderConfRecord", conf.SPS)
}

// FromMP4 probes the avcC record of the first avc1 track of an MP4 file.
func FromMP4(r io.ReadSeeker) (Info, error) {
	record, err := mp4.ReadAVCC(r)
	if err != nil {
		return Info{}, fmt.Errorf("probe: mp4 read failed(%w)", err)
	}
	return FromAVCC(record)
}

// FromSDP probes the sprop-parameter-sets of the first H.264 video media in
// an SDP description that carries a usable SPS.
func FromSDP(content string) (Info, error) {
	_, medias := sdp.Parse(content)

	var lastErr error = utils.NoSPSError{Source: "SDP"}
	for _, media := range medias {
		if media.AVType != "video" || media.Type != avcprobe.H264 {
			continue
		}
		info, err := fromCandidates("sprop-parameter-sets", media.SpropParameterSets)
		if err == nil {
			return info, nil
		}
		var noSPS utils.NoSPSError
		if !errors.As(err, &noSPS) {
			lastErr = err
		}
	}
	return Info{}, lastErr
}
