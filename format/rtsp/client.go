//nolint:gosec,mnd // rtsps cameras use self-signed certificates
package rtsp

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ugparu/avcprobe/utils/logger"
	"github.com/ugparu/avcprobe/utils/sdp"
)

// client speaks RTSP over one TCP or TLS connection. Requests are sequential.
type client struct {
	conn     net.Conn
	connRW   *bufio.ReadWriter
	pURL     *url.URL
	seq      uint
	control  string
	session  string
	realm    string
	nonce    string
	username string
	password string
	headers  map[string]string
	methods  map[rtspMethod]bool
}

func newClient() *client {
	return &client{
		conn:     nil,
		connRW:   nil,
		pURL:     &url.URL{},
		seq:      0,
		control:  "",
		session:  "",
		realm:    "",
		nonce:    "",
		username: "",
		password: "",
		headers:  map[string]string{"User-Agent": "avcprobe"},
		methods:  map[rtspMethod]bool{},
	}
}

// establishConnection dials rawURL, strips its credentials into the client and
// sends OPTIONS.
func (c *client) establishConnection(rawURL string) (err error) {
	l, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	c.username = l.User.Username()
	c.password, _ = l.User.Password()
	l.User = nil

	if l.Port() == "" {
		l.Host = net.JoinHostPort(l.Hostname(), RTSPPort)
	}
	if l.Scheme != RTSP && l.Scheme != RTSPS {
		l.Scheme = RTSP
	}
	c.pURL = l
	c.control = l.String()

	if c.conn, err = net.DialTimeout("tcp", l.Host, dialTimeout); err != nil {
		return err
	}
	if err = c.conn.SetDeadline(time.Now().Add(readWriteTimeout)); err != nil {
		return err
	}

	if l.Scheme == RTSPS {
		tlsConn := tls.Client(c.conn, &tls.Config{InsecureSkipVerify: true, ServerName: l.Hostname()}) //nolint: exhaustruct
		if err = tlsConn.Handshake(); err != nil {
			return err
		}
		c.conn = tlsConn
	}

	c.connRW = bufio.NewReadWriter(bufio.NewReaderSize(c.conn, tcpBufSize), bufio.NewWriterSize(c.conn, tcpBufSize))
	if err = c.options(); err != nil {
		return err
	}
	logger.Debug(c, "RTSP session set up")
	return nil
}

// digest computes the RFC 2069 Authorization value for method and uri.
func (c *client) digest(method rtspMethod, uri string) string {
	ha1 := fmt.Sprintf("%x", md5.Sum(fmt.Appendf(nil, "%s:%s:%s", c.username, c.realm, c.password)))
	ha2 := fmt.Sprintf("%x", md5.Sum(fmt.Appendf(nil, "%s:%s", method, uri)))
	response := fmt.Sprintf("%x", md5.Sum(fmt.Appendf(nil, "%s:%s:%s", ha1, c.nonce, ha2)))
	return fmt.Sprintf("Digest username=\"%s\", realm=\"%s\", nonce=\"%s\", uri=\"%s\", response=\"%s\"",
		c.username, c.realm, c.nonce, uri, response)
}

func (c *client) writeRequest(method rtspMethod, seq uint, headers map[string]string, uri string) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s RTSP/1.0\r\n", method, uri)
	fmt.Fprintf(&b, "CSeq: %d\r\n", seq)
	if c.realm != "" {
		fmt.Fprintf(&b, "Authorization: %s\r\n", c.digest(method, uri))
	}
	for k, v := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	for k, v := range c.headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")

	if err := c.conn.SetWriteDeadline(time.Now().Add(readWriteTimeout)); err != nil {
		return err
	}
	if _, err := c.connRW.Write(b.Bytes()); err != nil {
		return err
	}
	return c.connRW.Flush()
}

// readResponse reads a status line and headers up to the blank line. The body,
// if any, is left in the reader.
func (c *client) readResponse() (status string, headers map[string]string, err error) {
	headers = make(map[string]string)
	for {
		if err = c.conn.SetReadDeadline(time.Now().Add(readWriteTimeout)); err != nil {
			return "", nil, err
		}
		var line []byte
		if line, _, err = c.connRW.ReadLine(); err != nil {
			return "", nil, err
		}
		if len(line) == 0 {
			return status, headers, nil
		}
		if strings.HasPrefix(string(line), "RTSP/1.0") {
			status = string(line)
			continue
		}
		key, val, found := strings.Cut(string(line), ":")
		if !found {
			continue
		}
		if key == "Content-length" {
			key = "Content-Length"
		}
		headers[key] = strings.TrimSpace(val)
	}
}

// request sends one request and returns the response headers. With nores the
// reply is left for the frame reader to skip.
func (c *client) request(method rtspMethod,
	customHeaders map[string]string, uri string, nores bool) (map[string]string, error) {
	seq := c.seq
	c.seq++

	if err := c.writeRequest(method, seq, customHeaders, uri); err != nil {
		return nil, err
	}
	if nores {
		return nil, nil
	}

	status, resp, err := c.readResponse()
	if err != nil {
		return nil, err
	}
	if val, ok := resp["CSeq"]; ok && val != strconv.FormatUint(uint64(seq), 10) {
		return nil, fmt.Errorf("response seq mismatch %v!=%v", seq, val)
	}

	if challenge, ok := resp["WWW-Authenticate"]; ok {
		if err = c.authenticate(challenge); err != nil {
			return nil, err
		}
		return c.request(method, customHeaders, uri, false)
	}

	if val, ok := resp["Session"]; ok {
		id, _, _ := strings.Cut(val, ";")
		c.session = strings.TrimSpace(id)
		c.headers["Session"] = c.session
	}
	if val, ok := resp["Content-Base"]; ok {
		c.control = strings.TrimSpace(val)
	}

	if !strings.HasPrefix(status, "RTSP/1.0 200") {
		return nil, errors.New("camera send status: " + status)
	}
	return resp, nil
}

// authenticate stores credentials for the challenge. A second challenge of the
// same kind means the credentials were rejected.
func (c *client) authenticate(challenge string) error {
	switch {
	case strings.Contains(challenge, "Digest"):
		if c.realm != "" {
			return errors.New("401 unauthorized")
		}
		c.realm = stringInBetween(challenge, "realm=\"", "\"")
		c.nonce = stringInBetween(challenge, "nonce=\"", "\"")
	case strings.Contains(challenge, "Basic"):
		if _, ok := c.headers["Authorization"]; ok {
			return errors.New("401 unauthorized")
		}
		c.headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(c.username+":"+c.password))
	default:
		return fmt.Errorf("unsupported authentication %q", challenge)
	}
	return nil
}

func (c *client) options() error {
	logger.Debug(c, "Processing options request")

	resp, err := c.request(options, nil, c.control, false)
	if err != nil {
		return err
	}
	if val, ok := resp["Public"]; ok {
		logger.Debugf(c, "Supported methods: %s", val)
		for m := range strings.SplitSeq(val, ",") {
			c.methods[rtspMethod(strings.TrimSpace(m))] = true
		}
	}
	return nil
}

// describe returns the SDP body of the presentation and its parsed media.
func (c *client) describe() (content string, medias []sdp.Media, err error) {
	logger.Debug(c, "Processing describe request")

	resp, err := c.request(describe, map[string]string{"Accept": "application/sdp"}, c.control, false)
	if err != nil {
		return "", nil, err
	}
	if val, ok := resp["Content-Type"]; !ok || !strings.HasPrefix(val, "application/sdp") {
		return "", nil, fmt.Errorf("wrong content type %v", val)
	}

	val, ok := resp["Content-Length"]
	if !ok {
		return "", nil, errors.New("no content length")
	}
	size, err := contentLength(val)
	if err != nil {
		return "", nil, err
	}
	body := make([]byte, size)
	if err = c.Read(body); err != nil {
		return "", nil, err
	}

	content = string(body)
	_, medias = sdp.Parse(content)
	return content, medias, nil
}

// setup asks for TCP interleaving on channels ch and ch+1 and returns the
// first channel the server assigned.
func (c *client) setup(ch int, uri string) (int, error) {
	logger.Debug(c, "Processing setup request")

	headers := map[string]string{"Transport": fmt.Sprintf("RTP/AVP/TCP;unicast;interleaved=%d-%d", ch, ch+1)}
	resp, err := c.request(setup, headers, uri, false)
	if err != nil {
		return -1, err
	}

	transport, ok := resp["Transport"]
	if !ok {
		return -1, errors.New("no transport header")
	}
	for param := range strings.SplitSeq(transport, ";") {
		key, val, _ := strings.Cut(param, "=")
		if key != "interleaved" {
			continue
		}
		first, _, found := strings.Cut(val, "-")
		if !found {
			break
		}
		return strconv.Atoi(first)
	}
	return -1, errors.New("no interleaved")
}

func (c *client) play() error {
	logger.Debug(c, "Processing play request")
	_, err := c.request(play, nil, c.control, false)
	return err
}

// ping sends a keepalive OPTIONS; the reply arrives between RTP frames.
func (c *client) ping() error {
	logger.Debug(c, "Processing ping request")
	_, err := c.request(options, nil, c.control, true)
	return err
}

// Read fills buf from the connection.
func (c *client) Read(buf []byte) error {
	if c.conn == nil {
		return errors.New("connection is not opened")
	}
	if len(buf) == 0 {
		return nil
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(readWriteTimeout)); err != nil {
		return err
	}
	_, err := io.ReadFull(c.connRW, buf)
	return err
}

// Close sends TEARDOWN without waiting for the reply and closes the connection.
func (c *client) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.SetDeadline(time.Now().Add(readWriteTimeout)); err == nil {
		if _, err = c.request(teardown, nil, c.control, true); err != nil {
			logger.Debugf(c, "Teardown error: %v", err)
		}
	}
	if err := c.conn.Close(); err != nil {
		logger.Debugf(c, "Connection close error: %v", err)
	}
}

func (c *client) String() string {
	return fmt.Sprintf("RTSP_CLIENT url=%s", c.pURL.String())
}
