package mp4

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/avcprobe/utils/bits/pio"
)

func box(tag Tag, children ...[]byte) []byte {
	body := bytes.Join(children, nil)
	b := make([]byte, boxHeaderSize, boxHeaderSize+len(body))
	pio.PutU32BE(b[0:], uint32(boxHeaderSize+len(body)))
	pio.PutU32BE(b[4:], uint32(tag))
	return append(b, body...)
}

func movie(conf []byte) []byte {
	avc1 := box(AVC1, make([]byte, visualSampleEntry), box(Tag(0x62747274), make([]byte, 12)), box(AVCC, conf))
	stsd := box(STSD, []byte{0, 0, 0, 0, 0, 0, 0, 1}, avc1)
	return box(MOOV,
		box(Tag(0x6d766864), make([]byte, 100)),
		box(TRAK, box(MDIA, box(MINF, box(STBL, stsd)))),
	)
}

func TestReadAVCC(t *testing.T) {
	t.Parallel()

	conf := []byte{1, 0x42, 0x80, 0x1f, 0xff}
	ftyp := box(FTYP, []byte("isom\x00\x00\x02\x00"))

	largeMdat := make([]byte, 16)
	pio.PutU32BE(largeMdat[0:], 1)
	pio.PutU32BE(largeMdat[4:], uint32(MDAT))
	pio.PutU64BE(largeMdat[8:], 20)
	largeMdat = append(largeMdat, 1, 2, 3, 4)

	moovLast := make([]byte, 0)
	moovLast = append(moovLast, movie(conf)...)
	pio.PutU32BE(moovLast, 0)

	tests := []struct {
		name string
		file []byte
	}{
		{name: "moov_first", file: bytes.Join([][]byte{ftyp, movie(conf), box(MDAT, make([]byte, 64))}, nil)},
		{name: "moov_after_large_mdat", file: bytes.Join([][]byte{ftyp, largeMdat, movie(conf)}, nil)},
		{name: "moov_to_eof", file: bytes.Join([][]byte{ftyp, moovLast}, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ReadAVCC(bytes.NewReader(tt.file))
			require.NoError(t, err)
			require.Equal(t, conf, got)
		})
	}
}

func TestReadAVCCErrors(t *testing.T) {
	t.Parallel()

	ftyp := box(FTYP, []byte("isom"))

	_, err := ReadAVCC(bytes.NewReader(ftyp))
	require.ErrorIs(t, err, ErrNoAVCC)

	noVideo := box(MOOV, box(TRAK, box(MDIA, box(MINF, box(STBL, box(STSD, make([]byte, 8)))))))
	_, err = ReadAVCC(bytes.NewReader(append(ftyp, noVideo...)))
	require.ErrorIs(t, err, ErrNoAVCC)

	broken := movie([]byte{1})
	pio.PutU32BE(broken[8:], 4)
	_, err = ReadAVCC(bytes.NewReader(broken))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, int64(8), perr.Offset)
	require.Equal(t, "mp4: parse error: mvhd:8", perr.Error())

	shortEntry := box(MOOV, box(TRAK, box(MDIA, box(MINF, box(STBL, box(STSD, make([]byte, 8), box(AVC1, make([]byte, 10))))))))
	_, err = ReadAVCC(bytes.NewReader(shortEntry))
	require.ErrorAs(t, err, &perr)
	require.Equal(t, AVC1, perr.Box)
}

func TestTagString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "avcC", AVCC.String())
	require.Equal(t, "moov", MOOV.String())
}
