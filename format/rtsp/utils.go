package rtsp

import (
	"fmt"
	"strconv"
	"strings"
)

// controlTrack resolves a media control attribute against the presentation URL.
// Absolute rtsp:// controls are used unchanged.
func controlTrack(base, track string) string {
	if strings.Contains(track, "rtsp://") {
		return track
	}
	if !strings.HasSuffix(base, "/") {
		track = "/" + track
	}
	return base + track
}

// stringInBetween returns the text after the first start and before the next end,
// or "" when either is missing.
func stringInBetween(str, start, end string) string {
	_, after, found := strings.Cut(str, start)
	if !found {
		return ""
	}
	between, _, found := strings.Cut(after, end)
	if !found {
		return ""
	}
	return between
}

// contentLength parses a Content-Length value, rejecting negative sizes and
// bodies larger than maxRTSPBodySize.
func contentLength(val string) (int, error) {
	size, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, err
	}
	if size < 0 || size > maxRTSPBodySize {
		return 0, fmt.Errorf("invalid content length %d", size)
	}
	return size, nil
}
