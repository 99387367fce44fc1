package probe

import (
	"errors"
	"fmt"
	"time"

	"github.com/ugparu/avcprobe/format/rtsp"
	"github.com/ugparu/avcprobe/utils"
	"github.com/ugparu/avcprobe/utils/logger"
)

// ErrRTSPTimeout is returned when no SPS arrived in band before the deadline.
var ErrRTSPTimeout = errors.New("probe: no SPS before timeout")

// FromRTSP describes rawURL and probes its sprop-parameter-sets. A camera that
// does not announce them is played until the first in-band SPS or timeout.
func FromRTSP(rawURL string, timeout time.Duration) (Info, error) {
	sess, err := rtsp.Dial(rawURL)
	if err != nil {
		return Info{}, fmt.Errorf("probe: rtsp dial failed(%w)", err)
	}

	media, ok := sess.Video()
	if !ok {
		_ = sess.Close()
		return Info{}, rtsp.ErrNoVideo
	}

	info, err := fromCandidates("sprop-parameter-sets", media.SpropParameterSets)
	if err == nil {
		_ = sess.Close()
		return info, nil
	}
	logger.Debugf(name, "Falling back to in-band SPS: %s", err.Error())

	if err = sess.Play(); err != nil {
		_ = sess.Close()
		return Info{}, fmt.Errorf("probe: rtsp play failed(%w)", err)
	}

	media.SpropParameterSets = nil
	w := NewWatcher(rawURL, sess, media, 1)
	defer w.Close()
	if err = w.Watch(); err != nil {
		return Info{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case info = <-w.Changes():
		return info, nil
	case <-w.Done():
	case <-timer.C:
		return Info{}, ErrRTSPTimeout
	}

	select {
	case info = <-w.Changes():
		return info, nil
	default:
	}
	if err = w.Err(); err != nil {
		return Info{}, err
	}
	return Info{}, utils.NoSPSError{Source: "RTSP stream"}
}
