// Package rtsp opens an RTSP session over TCP and exposes the interleaved
// frames of its H.264 track as a byte stream.
package rtsp

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ugparu/avcprobe"
	"github.com/ugparu/avcprobe/utils/logger"
	"github.com/ugparu/avcprobe/utils/sdp"
)

var (
	ErrNoVideo       = errors.New("rtsp: no H264 video track")
	ErrPacketTimeout = errors.New("rtsp: packet timeout expired")
)

// Session is a described RTSP presentation. After Play, Read returns the
// '$' framed RTP and RTCP of the H.264 track and drops everything else.
type Session struct {
	client     *client
	content    string
	medias     []sdp.Media
	video      sdp.Media
	hasVideo   bool
	channel    int
	header     [headerSize]byte
	pending    []byte
	ticker     *time.Ticker
	lastPktRcv time.Time
	closeOnce  sync.Once
}

// Dial connects to rawURL and runs OPTIONS and DESCRIBE.
func Dial(rawURL string) (*Session, error) {
	c := newClient()
	if err := c.establishConnection(rawURL); err != nil {
		c.Close()
		return nil, err
	}
	s, err := newSession(c)
	if err != nil {
		c.Close()
		return nil, err
	}
	return s, nil
}

func newSession(c *client) (*Session, error) {
	content, medias, err := c.describe()
	if err != nil {
		return nil, err
	}

	s := &Session{
		client:  c,
		content: content,
		medias:  medias,
		channel: -1,
	}
	for _, m := range medias {
		if m.AVType == video && m.Type == avcprobe.H264 {
			s.video = m
			s.hasVideo = true
			break
		}
	}
	return s, nil
}

// SDP returns the DESCRIBE body.
func (s *Session) SDP() string {
	return s.content
}

// Video returns the first H.264 video media of the description.
func (s *Session) Video() (sdp.Media, bool) {
	return s.video, s.hasVideo
}

// Play sets up the video track on interleaved channels 0-1 and starts playback.
func (s *Session) Play() (err error) {
	if !s.hasVideo {
		return ErrNoVideo
	}
	if s.channel, err = s.client.setup(0, controlTrack(s.client.control, s.video.Control)); err != nil {
		return err
	}
	if err = s.client.play(); err != nil {
		return err
	}
	s.ticker = time.NewTicker(pingTimeout)
	s.lastPktRcv = time.Now()
	return nil
}

func (s *Session) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if err := s.readFrame(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *Session) readFrame() (err error) {
	if s.ticker == nil {
		return errors.New("rtsp: session is not playing")
	}
	if time.Since(s.lastPktRcv) >= minPacketInterval {
		return ErrPacketTimeout
	}

	select {
	case <-s.ticker.C:
		if err = s.client.ping(); err != nil {
			return err
		}
	default:
	}

	if err = s.client.Read(s.header[:]); err != nil {
		return err
	}

	switch s.header[0] {
	case rtspPacket:
		return s.skipRTSPMessage()
	case rtpPacket:
		length := int(s.header[2])<<8 | int(s.header[3])
		body := make([]byte, length)
		if err = s.client.Read(body); err != nil {
			return err
		}
		s.lastPktRcv = time.Now()

		channel := int(s.header[1])
		if channel != s.channel && channel != s.channel+1 {
			logger.Debugf(s, "Unknown stream index %d", channel)
			return nil
		}
		s.pending = append(append(make([]byte, 0, headerSize+length), s.header[:]...), body...)
		return nil
	default:
		return fmt.Errorf("rtp packet reading desync: first symbol is %s", string(s.header[0]))
	}
}

// skipRTSPMessage consumes a server message that arrived between frames,
// such as the reply to a keepalive.
func (s *Session) skipRTSPMessage() (err error) {
	msg := append([]byte{}, s.header[:]...)
	oneb := make([]byte, 1)

	for !bytes.HasSuffix(msg, []byte("\r\n\r\n")) {
		if err = s.client.Read(oneb); err != nil {
			return err
		}
		msg = append(msg, oneb[0])
		if len(msg) > maxRTSPHeadersMessageSize {
			return fmt.Errorf("failed to parse RTSP headers after %d bytes", maxRTSPHeadersMessageSize)
		}
	}
	logger.Debug(s, "Consumed rtsp message")

	if !strings.Contains(string(msg), "Content-Length:") {
		return nil
	}
	size, err := contentLength(stringInBetween(string(msg), "Content-Length:", "\r\n"))
	if err != nil {
		return err
	}
	return s.client.Read(make([]byte, size))
}

// Close sends TEARDOWN and closes the connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		s.client.Close()
	})
	return nil
}

func (s *Session) String() string {
	return fmt.Sprintf("RTSP_SESSION url=%s", s.client.pURL.String())
}
