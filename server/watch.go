package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ugparu/avcprobe/probe"
	"github.com/ugparu/avcprobe/utils/logger"
	"github.com/ugparu/avcprobe/utils/sdp"
)

const watchChanSize = 4

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// watch upgrades to a websocket that takes binary messages of RTSP
// interleaved RTP and answers with one JSON Info per frame size change.
func (s *Server) watch(c *gin.Context) {
	media := sdp.Media{}
	if pt := c.Query("payload_type"); pt != "" {
		var err error
		if media.PayloadType, err = strconv.Atoi(pt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warningf(s, "Failed to upgrade to websocket: %s", err.Error())
		return
	}
	defer conn.Close()

	pr, pw := io.Pipe()
	w := probe.NewWatcher(c.ClientIP(), pr, media, watchChanSize)
	if err = w.Watch(); err != nil {
		_ = conn.WriteJSON(gin.H{"error": err.Error()})
		return
	}
	// A loop that ends on its own unblocks the message read below, so its
	// error is reported without waiting for the client.
	go func() {
		<-w.Done()
		_ = pr.Close()
		_ = conn.SetReadDeadline(time.Now())
	}()

	written := make(chan struct{})
	go func() {
		defer close(written)
		for info := range w.Changes() {
			if err := conn.WriteJSON(info); err != nil {
				logger.Debugf(s, "Websocket write failed: %s", err.Error())
			}
		}
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		if _, err = pw.Write(data); err != nil {
			break
		}
	}

	_ = pw.Close()
	w.Close()
	<-written

	if err = w.Err(); err != nil {
		_ = conn.WriteJSON(gin.H{"error": err.Error()})
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
