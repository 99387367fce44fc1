package server

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ugparu/avcprobe/probe"
	"github.com/ugparu/avcprobe/utils"
	"github.com/ugparu/avcprobe/utils/logger"
)

const (
	encodingRaw    = "raw"
	encodingHex    = "hex"
	encodingBase64 = "base64"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) probeSPS(c *gin.Context) {
	s.probeBinary(c, probe.FromSPS)
}

func (s *Server) probeStream(c *gin.Context) {
	s.probeBinary(c, probe.FromStream)
}

func (s *Server) probeSDP(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	info, err := probe.FromSDP(string(body))
	s.respond(c, info, err)
}

func (s *Server) probeMP4(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	info, err := probe.FromMP4(bytes.NewReader(body))
	s.respond(c, info, err)
}

// probeRTSP dials the camera in ?url=. The optional ?timeout= is capped by
// the configured RTSP timeout.
func (s *Server) probeRTSP(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return
	}
	timeout := s.cfg.RTSPTimeout
	if q := c.Query("timeout"); q != "" {
		d, err := time.ParseDuration(q)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timeout " + q})
			return
		}
		timeout = min(d, timeout)
	}
	info, err := probe.FromRTSP(rawURL, timeout)
	s.respond(c, info, err)
}

func (s *Server) probeBinary(c *gin.Context, fn func([]byte) (probe.Info, error)) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	data, err := decodeBody(c.DefaultQuery("encoding", encodingRaw), body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := fn(data)
	s.respond(c, info, err)
}

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return body, true
}

func (s *Server) respond(c *gin.Context, info probe.Info, err error) {
	if err != nil {
		logger.Debugf(s, "Probe failed: %s", err.Error())
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func decodeBody(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case encodingRaw:
		return body, nil
	case encodingHex:
		return hex.DecodeString(strings.Join(strings.Fields(string(body)), ""))
	case encodingBase64:
		return base64.StdEncoding.DecodeString(strings.TrimSpace(string(body)))
	default:
		return nil, utils.UnsupportedEncodingError{Encoding: encoding}
	}
}
