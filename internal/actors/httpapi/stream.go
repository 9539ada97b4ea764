package httpapi

import (
	"io"

	"github.com/gin-gonic/gin"
)

// watchEvents streams full event snapshots as server-sent events. The cold
// stream's first message always reflects the current state; afterwards one
// message goes out per change. A stream error ends the response after a final
// error event, and the client decides whether to reconnect.
func (s *Server) watchEvents(c *gin.Context) {
	sub, err := s.events.WatchEvents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				drainStreamError(c, sub.Err())
				return false
			}
			c.SSEvent("snapshot", snapshot)
			return true
		case err, ok := <-sub.Err():
			if !ok {
				return false
			}
			c.SSEvent("error", gin.H{"message": err.Error()})
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// drainStreamError emits the final error event when the stream ended with an
// error still buffered on the subscription.
func drainStreamError(c *gin.Context, errs <-chan error) {
	select {
	case err, ok := <-errs:
		if ok {
			c.SSEvent("error", gin.H{"message": err.Error()})
		}
	default:
	}
}

// watchMessages streams one event thread as server-sent events.
func (s *Server) watchMessages(c *gin.Context) {
	sub, err := s.chat.WatchThread(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				drainStreamError(c, sub.Err())
				return false
			}
			c.SSEvent("snapshot", snapshot)
			return true
		case err, ok := <-sub.Err():
			if !ok {
				return false
			}
			c.SSEvent("error", gin.H{"message": err.Error()})
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}
