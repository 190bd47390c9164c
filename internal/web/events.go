package web

import (
	"io"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"cvmatch-console/internal/shared/telemetry"
	"cvmatch-console/internal/views"
)

const keepAliveInterval = 15 * time.Second

// events streams a "state" event with the page model on every change until
// the client leaves or the controller is closed.
func (h *Handler) events(c *gin.Context) {
	snapshots, unsubscribe := h.Ctrl.Subscribe()
	defer unsubscribe()

	header := c.Writer.Header()
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	sent := 0
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-h.Ctrl.Done():
			return false
		case snap := <-snapshots:
			c.Render(-1, sse.Event{
				Id:    strconv.FormatUint(snap.State.Seq, 10),
				Event: "state",
				Data:  views.BuildPage(snap),
			})
			sent++
			return true
		case <-ticker.C:
			c.Render(-1, sse.Event{Event: "ping", Data: "{}"})
			return true
		}
	})
	telemetry.Debug("events.closed", map[string]any{"sent": sent})
}
