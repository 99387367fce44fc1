package server

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultAddr        = ":8080"
	defaultMaxBodySize = 1 << 20
	defaultRTSPTimeout = 10 * time.Second
)

// Config holds the HTTP server settings.
type Config struct {
	Addr        string // Listen address, e.g. ":8080".
	Mode        string // gin mode: debug, release or test.
	Pprof       bool   // Serve net/http/pprof under /debug/pprof.
	MaxBodySize int64  // Request bodies above this many bytes are rejected.
	// RTSPTimeout bounds the wait for an in-band SPS on /v1/rtsp; clients may ask for less.
	RTSPTimeout time.Duration
}

// DefaultConfig returns a release mode config listening on :8080.
func DefaultConfig() Config {
	return Config{
		Addr:        defaultAddr,
		Mode:        gin.ReleaseMode,
		Pprof:       false,
		MaxBodySize: defaultMaxBodySize,
		RTSPTimeout: defaultRTSPTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.Mode == "" {
		c.Mode = gin.ReleaseMode
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = defaultMaxBodySize
	}
	if c.RTSPTimeout <= 0 {
		c.RTSPTimeout = defaultRTSPTimeout
	}
	return c
}
