// Package mp4 walks ISO BMFF boxes far enough to find the avcC record of the
// first avc1 sample entry.
package mp4

import (
	"errors"
	"fmt"
	"io"

	"github.com/ugparu/avcprobe/utils/bits/pio"
)

// Tag is a four character box type.
type Tag uint32

const (
	FTYP = Tag(0x66747970)
	MOOV = Tag(0x6d6f6f76)
	TRAK = Tag(0x7472616b)
	MDIA = Tag(0x6d646961)
	MINF = Tag(0x6d696e66)
	STBL = Tag(0x7374626c)
	STSD = Tag(0x73747364)
	AVC1 = Tag(0x61766331)
	AVCC = Tag(0x61766343)
	MDAT = Tag(0x6d646174)
)

const (
	boxHeaderSize     = 8
	largeSizeLen      = 8
	fullBoxHeaderLen  = 4
	entryCountLen     = 4
	visualSampleEntry = 78
	maxMovieSize      = 64 << 20
)

var ErrNoAVCC = errors.New("mp4: no avc1 sample entry with avcC")

func (t Tag) String() string {
	var b [4]byte
	pio.PutU32BE(b[:], uint32(t))
	for i := range b {
		if b[i] == 0 {
			b[i] = ' '
		}
	}
	return string(b[:])
}

// ParseError names the box and file offset where the layout stopped making sense.
type ParseError struct {
	Box    Tag
	Offset int64
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mp4: parse error: %s:%d", e.Box.String(), e.Offset)
}

// ReadAVCC scans the top-level boxes of r, loads moov and returns the payload
// of the first avcC box under an avc1 sample entry. Other top-level boxes,
// mdat included, are skipped with Seek.
func ReadAVCC(r io.ReadSeeker) ([]byte, error) {
	for {
		offset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}

		hdr := make([]byte, boxHeaderSize)
		if _, err = io.ReadFull(r, hdr); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrNoAVCC
			}
			return nil, err
		}
		size := int64(pio.U32BE(hdr[0:]))
		tag := Tag(pio.U32BE(hdr[4:]))
		headerLen := int64(boxHeaderSize)

		switch size {
		case 0:
			// The box runs to the end of the file.
			if tag != MOOV {
				return nil, ErrNoAVCC
			}
			end, err := r.Seek(0, io.SeekEnd)
			if err != nil {
				return nil, err
			}
			size = end - offset
			if _, err = r.Seek(offset+headerLen, io.SeekStart); err != nil {
				return nil, err
			}
		case 1:
			ext := make([]byte, largeSizeLen)
			if _, err = io.ReadFull(r, ext); err != nil {
				return nil, err
			}
			size = int64(pio.U64BE(ext)) //nolint:gosec
			headerLen += largeSizeLen
		}
		if size < headerLen {
			return nil, &ParseError{Box: tag, Offset: offset}
		}

		if tag != MOOV {
			if _, err = r.Seek(offset+size, io.SeekStart); err != nil {
				return nil, err
			}
			continue
		}
		if size > maxMovieSize {
			return nil, &ParseError{Box: tag, Offset: offset}
		}

		body := make([]byte, size-headerLen)
		if _, err = io.ReadFull(r, body); err != nil {
			return nil, err
		}
		conf, err := findAVCC(body, offset+headerLen, []Tag{TRAK, MDIA, MINF, STBL, STSD})
		if err != nil {
			return nil, err
		}
		if conf != nil {
			return conf, nil
		}
	}
}

// findAVCC descends through the boxes named by path, then through the sample
// entries of stsd.
func findAVCC(b []byte, offset int64, path []Tag) ([]byte, error) {
	for n := 0; n+boxHeaderSize <= len(b); {
		size := int(pio.U32BE(b[n:]))
		tag := Tag(pio.U32BE(b[n+4:]))
		if size < boxHeaderSize || n+size > len(b) {
			return nil, &ParseError{Box: tag, Offset: offset + int64(n)}
		}
		body := b[n+boxHeaderSize : n+size]
		bodyOffset := offset + int64(n+boxHeaderSize)

		switch {
		case len(path) > 0 && tag == path[0]:
			inner, innerOffset := body, bodyOffset
			if tag == STSD {
				skip := fullBoxHeaderLen + entryCountLen
				if len(inner) < skip {
					return nil, &ParseError{Box: tag, Offset: bodyOffset}
				}
				inner, innerOffset = inner[skip:], innerOffset+int64(skip)
			}
			conf, err := findAVCC(inner, innerOffset, path[1:])
			if conf != nil || err != nil {
				return conf, err
			}
		case len(path) == 0 && tag == AVC1:
			if len(body) < visualSampleEntry {
				return nil, &ParseError{Box: tag, Offset: bodyOffset}
			}
			conf, err := findAVCC(body[visualSampleEntry:], bodyOffset+visualSampleEntry, nil)
			if conf != nil || err != nil {
				return conf, err
			}
		case len(path) == 0 && tag == AVCC:
			return append([]byte{}, body...), nil
		}
		n += size
	}
	return nil, nil
}
