package probe

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ugparu/avcprobe/codec/h264"
	"github.com/ugparu/avcprobe/format/rtp"
	"github.com/ugparu/avcprobe/utils"
	"github.com/ugparu/avcprobe/utils/lifecycle"
	"github.com/ugparu/avcprobe/utils/logger"
	"github.com/ugparu/avcprobe/utils/sdp"
)

// Watcher follows an interleaved RTP stream and publishes an Info every time
// the stream's SPS changes its frame size.
type Watcher struct {
	lifecycle.AsyncManager[*Watcher]
	name    string
	src     io.Reader
	dmx     *rtp.H264Demuxer
	changes chan Info
	last    *h264.CodecParameters
	closing atomic.Bool
}

// NewWatcher creates a watcher over src. When src is an io.Closer it is closed
// by Close to unblock a pending read.
func NewWatcher(name string, src io.Reader, media sdp.Media, chanSize int) *Watcher {
	w := &Watcher{
		AsyncManager: nil,
		name:         name,
		src:          src,
		dmx:          rtp.NewH264Demuxer(src, media, 0),
		changes:      make(chan Info, chanSize),
	}
	w.AsyncManager = lifecycle.NewAsyncManager(w)
	return w
}

// Watch starts the read loop. Parameters from sprop-parameter-sets are
// published first; a description without them waits for in-band SPS and PPS.
func (w *Watcher) Watch() error {
	return w.Start(func(w *Watcher) error {
		par, err := w.dmx.Demux()
		if err != nil {
			var noSPS utils.NoSPSError
			if !errors.As(err, &noSPS) {
				return err
			}
			logger.Infof(w, "No sprop-parameter-sets, waiting for in-band SPS")
			return nil
		}
		logger.Infof(w, "Demuxer started with %v", par)
		return nil
	})
}

// Changes delivers one Info per frame size. It is closed when the watcher closes.
func (w *Watcher) Changes() <-chan Info {
	return w.changes
}

func (w *Watcher) Step(stopCh <-chan struct{}) error {
	if !w.publish(stopCh) {
		return &lifecycle.BreakError{}
	}

	select {
	case <-stopCh:
		return &lifecycle.BreakError{}
	default:
	}

	pkt, err := w.dmx.ReadPacket()
	if err != nil {
		if errors.Is(err, io.EOF) || w.closing.Load() {
			logger.Debugf(w, "Stream ended")
			w.publish(stopCh)
			return &lifecycle.BreakError{}
		}
		return err
	}
	if pkt == nil {
		return utils.NilPacketError{}
	}
	logger.Tracef(w, "Read packet %v", pkt)
	return nil
}

// publish sends a pending frame size change. It returns false when stopped
// while waiting for the consumer.
func (w *Watcher) publish(stopCh <-chan struct{}) bool {
	info, ok := w.changed()
	if !ok {
		return true
	}
	select {
	case w.changes <- info:
		return true
	case <-stopCh:
		return false
	}
}

// changed reports the demuxer's codec when its frame size differs from the
// last one published.
func (w *Watcher) changed() (Info, bool) {
	par := w.dmx.CodecParameters()
	if par == nil || par == w.last {
		return Info{}, false
	}
	prev := w.last
	w.last = par
	if prev != nil && prev.Width() == par.Width() && prev.Height() == par.Height() {
		return Info{}, false
	}

	info, err := FromSPS(par.SPS())
	if err != nil {
		logger.Warningf(w, "Codec SPS does not probe: %s", err.Error())
		return Info{}, false
	}
	logger.Infof(w, "Resolution %dx%d", info.Width, info.Height)
	return info, true
}

// Close stops the loop, closing the source first when it can be closed.
func (w *Watcher) Close() {
	w.closing.Store(true)
	if c, ok := w.src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Debugf(w, "Source close failed: %s", err.Error())
		}
	}
	w.AsyncManager.Close()
}

func (w *Watcher) Close_() {
	w.dmx.Close()
	close(w.changes)
}

func (w *Watcher) String() string {
	return fmt.Sprintf("WATCHER %s", w.name)
}
