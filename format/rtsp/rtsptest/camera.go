// Package rtsptest runs a scripted single-connection RTSP server for tests.
package rtsptest

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
)

// Camera answers OPTIONS, DESCRIBE, SETUP and PLAY on one TCP connection.
// After PLAY it writes Frames verbatim and closes the connection.
type Camera struct {
	ln       net.Listener
	sdp      string
	frames   []byte
	mu       sync.Mutex
	requests []string
	done     chan struct{}
}

// NewCamera starts a camera on a loopback port. It is closed when the test ends.
func NewCamera(t testing.TB, sdp string, frames []byte) *Camera {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("rtsptest: listen: %v", err)
	}
	c := &Camera{ln: ln, sdp: sdp, frames: frames, done: make(chan struct{})}
	go c.serve()
	t.Cleanup(func() {
		_ = ln.Close()
		<-c.done
	})
	return c
}

// URL returns the stream URL clients should dial.
func (c *Camera) URL() string {
	return "rtsp://" + c.ln.Addr().String() + "/stream"
}

// Requests returns the request lines received so far.
func (c *Camera) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.requests...)
}

func (c *Camera) serve() {
	defer close(c.done)

	conn, err := c.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		method, cseq, ok := readRequest(r)
		if !ok {
			return
		}
		c.mu.Lock()
		c.requests = append(c.requests, method)
		c.mu.Unlock()

		var resp string
		switch method {
		case "OPTIONS":
			resp = fmt.Sprintf("RTSP/1.0 200 OK\r\nCSeq: %s\r\nPublic: OPTIONS, DESCRIBE, SETUP, PLAY, TEARDOWN\r\n\r\n", cseq)
		case "DESCRIBE":
			resp = fmt.Sprintf("RTSP/1.0 200 OK\r\nCSeq: %s\r\nContent-Base: %s/\r\n"+
				"Content-Type: application/sdp\r\nContent-Length: %d\r\n\r\n%s", cseq, c.URL(), len(c.sdp), c.sdp)
		case "SETUP":
			resp = fmt.Sprintf("RTSP/1.0 200 OK\r\nCSeq: %s\r\n"+
				"Transport: RTP/AVP/TCP;unicast;interleaved=0-1\r\nSession: 12345678;timeout=60\r\n\r\n", cseq)
		case "PLAY":
			resp = fmt.Sprintf("RTSP/1.0 200 OK\r\nCSeq: %s\r\nSession: 12345678\r\n\r\n", cseq)
			_, _ = conn.Write([]byte(resp))
			_, _ = conn.Write(c.frames)
			return
		default:
			return
		}
		if _, err = conn.Write([]byte(resp)); err != nil {
			return
		}
	}
}

// readRequest reads one request head and returns its method and CSeq.
func readRequest(r *bufio.Reader) (method, cseq string, ok bool) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", "", false
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return method, cseq, method != ""
		}
		if method == "" {
			method, _, _ = strings.Cut(line, " ")
			continue
		}
		if key, val, found := strings.Cut(line, ":"); found && key == "CSeq" {
			cseq = strings.TrimSpace(val)
		}
	}
}
