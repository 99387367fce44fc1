package probe

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/avcprobe/format/rtsp"
	"github.com/ugparu/avcprobe/format/rtsp/rtsptest"
	"github.com/ugparu/avcprobe/utils"
)

func describeSDP(fmtp string) string {
	return "v=0\r\n" +
		"o=- 0 0 IN IP4 127.0.0.1\r\n" +
		"s=camera\r\n" +
		"t=0 0\r\n" +
		"m=video 0 RTP/AVP 96\r\n" +
		"a=control:trackID=1\r\n" +
		"a=rtpmap:96 H264/90000\r\n" +
		"a=fmtp:96 packetization-mode=1" + fmtp + "\r\n"
}

func TestFromRTSPSprop(t *testing.T) {
	t.Parallel()

	sprop := ";sprop-parameter-sets=" + base64.StdEncoding.EncodeToString(testSPSSmall) +
		"," + base64.StdEncoding.EncodeToString(testPPS)
	cam := rtsptest.NewCamera(t, describeSDP(sprop), nil)

	info, err := FromRTSP(cam.URL(), time.Second)
	require.NoError(t, err)
	require.Equal(t, "avc1.64000A 64x64", info.String())
	require.Equal(t, []string{"OPTIONS", "DESCRIBE", "TEARDOWN"}, waitRequests(t, cam, 3))
}

func TestFromRTSPInBand(t *testing.T) {
	t.Parallel()

	var stream []byte
	stream = append(stream, interleaved(t, 0, stapA(testSPS, testPPS))...)
	stream = append(stream, interleaved(t, 0, testIDR)...)
	cam := rtsptest.NewCamera(t, describeSDP(""), stream)

	info, err := FromRTSP(cam.URL(), time.Second)
	require.NoError(t, err)
	require.Equal(t, "avc1.42801F 480x848", info.String())
	require.Equal(t, uint8(66), info.ProfileIDC)
}

func TestFromRTSPBrokenSpropFallsBack(t *testing.T) {
	t.Parallel()

	sprop := ";sprop-parameter-sets=Z0KAH+kD,aM4G4g=="
	cam := rtsptest.NewCamera(t, describeSDP(sprop), interleaved(t, 0, stapA(testSPSSmall, testPPS)))

	info, err := FromRTSP(cam.URL(), time.Second)
	require.NoError(t, err)
	require.Equal(t, uint32(64), info.Width)
}

func TestFromRTSPErrors(t *testing.T) {
	t.Parallel()

	t.Run("stream_ends", func(t *testing.T) {
		t.Parallel()
		cam := rtsptest.NewCamera(t, describeSDP(""), interleaved(t, 0, testIDR))
		_, err := FromRTSP(cam.URL(), time.Second)
		var noSPS utils.NoSPSError
		require.ErrorAs(t, err, &noSPS)
		require.Equal(t, "RTSP stream", noSPS.Source)
	})

	t.Run("no_video", func(t *testing.T) {
		t.Parallel()
		audio := "v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\ns=mic\r\nt=0 0\r\nm=audio 0 RTP/AVP 0\r\n"
		cam := rtsptest.NewCamera(t, audio, nil)
		_, err := FromRTSP(cam.URL(), time.Second)
		require.ErrorIs(t, err, rtsp.ErrNoVideo)
	})

	t.Run("refused", func(t *testing.T) {
		t.Parallel()
		_, err := FromRTSP("rtsp://127.0.0.1:1/stream", time.Second)
		require.ErrorContains(t, err, "rtsp dial failed")
	})
}

func waitRequests(t *testing.T, cam *rtsptest.Camera, n int) []string {
	t.Helper()

	require.Eventually(t, func() bool { return len(cam.Requests()) >= n }, time.Second, 10*time.Millisecond)
	return cam.Requests()
}
