package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
)

// DefaultKeepAlive is the idle-stream keep-alive interval.
const DefaultKeepAlive = 15 * time.Second

// helloPayload is the connection acknowledgement sent when a stream opens.
type helloPayload struct {
	TS      time.Time `json:"ts"`
	Message string    `json:"message"`
}

// StreamHandler returns a gin handler that serves the live event stream over
// SSE. An optional run_id query parameter filters the stream to one run; the
// filter is applied at delivery time, non-matching events are skipped.
func StreamHandler(bus *Bus, keepAlive time.Duration) gin.HandlerFunc {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return func(c *gin.Context) {
		runFilter := c.Query("run_id")
		serveStream(bus, c.Writer, c.Request, runFilter, keepAlive)
	}
}

func serveStream(bus *Bus, w http.ResponseWriter, r *http.Request, runFilter string, keepAlive time.Duration) {
	log := logger.WithComponent("stream")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE connections outlive the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Warn("could not disable write deadline", logger.Fields("error", err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	hello, _ := json.Marshal(helloPayload{TS: time.Now().UTC(), Message: "connected"})
	writeSSE(w, "hello", "", hello)
	flusher.Flush()

	log.Debug("stream connected", logger.Fields(
		"subscription_id", sub.ID(),
		"run_filter", runFilter,
		"remote_addr", r.RemoteAddr,
	))

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("stream disconnected", logger.Fields("subscription_id", sub.ID()))
			return

		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if runFilter != "" && event.RunID != runFilter {
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Error("event marshal failed", logger.Fields("error", err.Error()))
				continue
			}
			writeSSE(w, "run_event", event.EventID, payload)
			flusher.Flush()

		case <-ticker.C:
			// SSE comment line, ignored by clients but keeps proxies open.
			_, _ = fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSE writes a single SSE frame. Multi-line payloads are split across
// data: lines per the SSE wire format.
func writeSSE(w http.ResponseWriter, event, id string, data []byte) {
	if event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event)
	}
	if id != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", id)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
