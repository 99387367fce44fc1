// Package server exposes the probes over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/ugparu/avcprobe/utils/lifecycle"
	"github.com/ugparu/avcprobe/utils/logger"
)

const shutdownTimeout = 5 * time.Second

// Server is the probe HTTP API run under a default lifecycle manager.
type Server struct {
	lifecycle.Manager[*Server]
	cfg    Config
	router *gin.Engine
	srv    *http.Server
	addr   net.Addr
}

func New(cfg Config) *Server {
	cfg = cfg.withDefaults()
	gin.SetMode(cfg.Mode)

	s := &Server{
		cfg:    cfg,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.router.Use(s.logRequest)
	s.routes()

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: shutdownTimeout,
	}
	s.Manager = lifecycle.NewDefaultManager(s)
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.health)

	v1 := s.router.Group("/v1")
	v1.POST("/sps", s.probeSPS)
	v1.POST("/stream", s.probeStream)
	v1.POST("/sdp", s.probeSDP)
	v1.POST("/mp4", s.probeMP4)
	v1.GET("/rtsp", s.probeRTSP)
	v1.GET("/watch", s.watch)

	if s.cfg.Pprof {
		pprof.Register(s.router)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run binds the listen address and serves in the background.
func (s *Server) Run() error {
	return s.Start(func(s *Server) error {
		ln, err := net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			return fmt.Errorf("server: listen failed(%w)", err)
		}
		s.addr = ln.Addr()
		logger.Infof(s, "Listening on %s", s.addr.String())

		go func() {
			if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf(s, "Serve failed: %s", err.Error())
			}
		}()
		return nil
	})
}

// Addr returns the bound address once Run has succeeded.
func (s *Server) Addr() net.Addr {
	return s.addr
}

func (s *Server) Close_() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		logger.Warningf(s, "Shutdown failed: %s", err.Error())
	}
}

func (s *Server) String() string {
	return "HTTP_SERVER"
}

func (s *Server) logRequest(c *gin.Context) {
	start := time.Now()
	c.Next()
	logger.Debugf(s, "%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
}
