// Package sdp reads the parts of an SDP description needed to find H.264
// parameter sets.
package sdp

import (
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"
	"github.com/ugparu/avcprobe"
	"github.com/ugparu/avcprobe/utils/logger"
)

// Session represents the information related to an SDP session.
type Session struct {
	URI string
}

// Media represents the information related to a media stream in an SDP session.
type Media struct {
	AVType             string
	Type               avcprobe.CodecType
	FPS                int
	TimeScale          int
	Control            string
	Rtpmap             int
	PayloadType        int
	PacketizationMode  int
	ProfileLevelID     []byte
	SpropParameterSets [][]byte
}

// parseMediaDescription parses the media description line
func parseMediaDescription(fields []string) (*Media, bool) {
	if len(fields) < 2 { //nolint:mnd
		return nil, false
	}

	switch fields[0] {
	case "audio", "video":
		media := Media{
			AVType:             fields[0],
			SpropParameterSets: [][]byte{},
		}

		mfields := strings.Split(fields[1], " ")
		if len(mfields) >= 3 { //nolint:mnd
			media.PayloadType, _ = strconv.Atoi(mfields[2])
		}

		return &media, true
	default:
		return nil, false
	}
}

// parseCodecType sets the codec type based on the rtpmap encoding name
func parseCodecType(media *Media, key string, keyval []string) {
	switch strings.ToUpper(key) {
	case "H264":
		media.Type = avcprobe.H264
	case "H265", "HEVC":
		media.Type = avcprobe.H265
	case "JPEG":
		media.Type = avcprobe.JPEG
	case "VP8":
		media.Type = avcprobe.VP8
	case "VP9":
		media.Type = avcprobe.VP9
	case "AV1":
		media.Type = avcprobe.AV1
	}

	// Parse time scale
	if len(keyval) > 1 {
		if i, err := strconv.Atoi(keyval[1]); err == nil {
			media.TimeScale = i
		}
	}
}

// parseAttributeKeyValue processes fmtp key-value pairs
func parseAttributeKeyValue(media *Media, key, val string) {
	switch key {
	case "packetization-mode":
		media.PacketizationMode, _ = strconv.Atoi(val)
	case "profile-level-id":
		media.ProfileLevelID, _ = hex.DecodeString(val)
	case "sprop-parameter-sets":
		// Split by "," and decode base64 for each field
		for _, field := range strings.Split(val, ",") {
			if field == "" {
				continue
			}
			decoded, err := base64.StdEncoding.DecodeString(field)
			if err != nil {
				// Some cameras drop the padding.
				if decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(field, "=")); err != nil {
					continue
				}
			}
			media.SpropParameterSets = append(media.SpropParameterSets, decoded)
		}
	}
}

// parseAttribute processes attribute lines
func parseAttribute(media *Media, fields []string) {
	for _, field := range fields {
		// Process key:value format
		keyval := strings.SplitN(field, ":", 2) //nolint:mnd
		if len(keyval) >= 2 {                   //nolint:mnd
			key := keyval[0]
			val := keyval[1]
			switch key {
			case "control":
				media.Control = val
			case "rtpmap":
				media.Rtpmap, _ = strconv.Atoi(val)
			case "x-framerate":
				media.FPS, _ = strconv.Atoi(val)
			}
		}

		// Process key/value format
		keyval = strings.Split(field, "/")
		if len(keyval) >= 2 { //nolint:mnd
			parseCodecType(media, keyval[0], keyval)
		}

		// Process key=value format in semicolon-separated list
		for _, subfield := range strings.Split(field, ";") {
			subKeyVal := strings.SplitN(subfield, "=", 2) //nolint:mnd
			if len(subKeyVal) == 2 {                      //nolint:mnd
				key := strings.TrimSpace(subKeyVal[0])
				val := strings.TrimSpace(subKeyVal[1])
				parseAttributeKeyValue(media, key, val)
			}
		}
	}
}

type parser struct {
	sess   Session
	medias []Media
	media  *Media
}

func (p *parser) line(line string) {
	line = strings.TrimSpace(line)
	// Handle special case for x-framerate
	if strings.Contains(line, "x-framerate") {
		line = strings.ReplaceAll(line, " ", "")
	}

	// Split line into key and value
	typeval := strings.SplitN(line, "=", 2) //nolint:mnd
	if len(typeval) != 2 {                  //nolint:mnd
		return
	}

	fields := strings.SplitN(typeval[1], " ", 2) //nolint:mnd

	switch typeval[0] {
	case "m":
		// Start of a new media description
		newMedia, valid := parseMediaDescription(fields)
		if valid {
			p.medias = append(p.medias, *newMedia)
			p.media = &p.medias[len(p.medias)-1]
		} else {
			p.media = nil
		}

	case "u":
		// Session URI
		p.sess.URI = typeval[1]

	case "a":
		// Attribute information
		if p.media != nil {
			parseAttribute(p.media, fields)
		}
	}
}

// fromDescription feeds a validated description through the line parser.
func fromDescription(desc *psdp.SessionDescription) (Session, []Media) {
	var p parser
	if desc.URI != nil {
		p.line("u=" + desc.URI.String())
	}
	for _, md := range desc.MediaDescriptions {
		p.line("m=" + md.MediaName.String())
		for _, attr := range md.Attributes {
			if attr.Value == "" {
				p.line("a=" + attr.Key)
			} else {
				p.line("a=" + attr.Key + ":" + attr.Value)
			}
		}
	}
	return p.sess, p.medias
}

// Parse parses the SDP content and returns Session and Media information.
// Descriptions that fail strict parsing, as some cameras send, are scanned
// line by line instead.
func Parse(content string) (sess Session, medias []Media) {
	var desc psdp.SessionDescription
	err := desc.Unmarshal([]byte(content))
	if err == nil {
		return fromDescription(&desc)
	}
	logger.Debugf("SDP", "Strict parse failed, scanning lines: %s", err.Error())

	var p parser
	for _, line := range strings.Split(content, "\n") {
		p.line(line)
	}
	return p.sess, p.medias
}
