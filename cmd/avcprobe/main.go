// Command avcprobe prints the profile, level and frame size of an H.264
// stream, or serves the same probes over HTTP.
package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/ugparu/avcprobe/probe"
	"github.com/ugparu/avcprobe/server"
	"github.com/ugparu/avcprobe/utils/logger"
)

const (
	name            = "AVCPROBE"
	avccVersionByte = 0x01
	ftypOffset      = 4
	listenEnv       = "AVCPROBE_LISTEN"
)

func main() {
	// A .env file next to the binary may set AVCPROBE_LISTEN.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warningf(name, "Failed to load .env: %s", err.Error())
	}

	var (
		spsHex  string
		file    string
		sdpFile string
		rawURL  string
		timeout time.Duration
		listen  string
		pprof   bool
		verbose bool
	)

	flag.StringVar(&spsHex, "hex", "", "SPS NAL unit as hex, e.g. 6742801fe903c0d740368509a8")
	flag.StringVar(&file, "file", "", "AnnexB, AVCC, avcC record or MP4 file to probe")
	flag.StringVar(&sdpFile, "sdp", "", "SDP file whose sprop-parameter-sets to probe")
	flag.StringVar(&rawURL, "url", "", "RTSP URL of a camera to probe")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for an in-band SPS with -url or /v1/rtsp") //nolint:mnd
	flag.StringVar(&listen, "listen", os.Getenv(listenEnv), "Serve the HTTP API on this address (can also use "+listenEnv+" env var)")
	flag.BoolVar(&pprof, "pprof", false, "Serve pprof under /debug/pprof with -listen")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	flag.Parse()

	if verbose {
		logger.Init(logrus.DebugLevel)
	} else {
		logger.Init(logrus.InfoLevel)
	}

	switch {
	case listen != "":
		serve(listen, pprof, timeout)
	case spsHex != "":
		report("hex", probeHex(spsHex))
	case file != "":
		report(file, probeFile(file))
	case sdpFile != "":
		report(sdpFile, probeSDPFile(sdpFile))
	case rawURL != "":
		report(rawURL, probeURL(rawURL, timeout))
	default:
		flag.Usage()
		os.Exit(2) //nolint:mnd
	}
}

type result struct {
	info probe.Info
	err  error
}

func probeHex(s string) result {
	data, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return result{err: err}
	}
	info, err := probe.FromSPS(data)
	return result{info: info, err: err}
}

func probeFile(path string) result {
	data, err := os.ReadFile(path)
	if err != nil {
		return result{err: err}
	}

	if len(data) >= ftypOffset+4 && string(data[ftypOffset:ftypOffset+4]) == "ftyp" {
		info, err := probe.FromMP4(bytes.NewReader(data))
		return result{info: info, err: err}
	}

	info, err := probe.FromStream(data)
	if err != nil && len(data) > 0 && data[0] == avccVersionByte {
		logger.Debugf(name, "Not a NALU stream (%s), trying avcC record", err.Error())
		if recInfo, recErr := probe.FromAVCC(data); recErr == nil {
			return result{info: recInfo}
		}
	}
	return result{info: info, err: err}
}

func probeSDPFile(path string) result {
	data, err := os.ReadFile(path)
	if err != nil {
		return result{err: err}
	}
	info, err := probe.FromSDP(string(data))
	return result{info: info, err: err}
}

func probeURL(rawURL string, timeout time.Duration) result {
	info, err := probe.FromRTSP(rawURL, timeout)
	return result{info: info, err: err}
}

func report(source string, res result) {
	if res.err != nil {
		logger.Fatalf(name, "Probe of %s failed: %s", source, res.err.Error())
	}

	info := res.info
	fmt.Printf("========================================\n")
	fmt.Printf("Source:     %s\n", source)
	fmt.Printf("Codec:      %s\n", info.Tag)
	fmt.Printf("Profile:    %d\n", info.ProfileIDC)
	fmt.Printf("Level:      %d\n", info.LevelIDC)
	fmt.Printf("Chroma:     %d\n", info.ChromaFormatIDC)
	fmt.Printf("Frame MBs:  %t\n", info.FrameMbsOnly)
	fmt.Printf("Resolution: %dx%d\n", info.Width, info.Height)
	fmt.Printf("========================================\n")
}

func serve(addr string, withPprof bool, rtspTimeout time.Duration) {
	cfg := server.DefaultConfig()
	cfg.Addr = addr
	cfg.Pprof = withPprof
	cfg.RTSPTimeout = rtspTimeout

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		logger.Fatalf(name, "Failed to start server: %s", err.Error())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof(name, "Shutting down")
	srv.Close()
}
