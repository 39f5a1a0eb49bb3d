package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/bus"
)

const heartbeatInterval = 25 * time.Second

// handleEvents streams broadcast events over SSE. Each event is written
// as an "event:" line carrying the type tag with a JSON "data:" payload.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.deps.Bus.Subscribe()
	defer s.deps.Bus.Unsubscribe(sub)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case e := <-sub.Events:
			payload, err := json.Marshal(e)
			if err != nil {
				logrus.WithError(err).Warn("api: event encode failed")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", bus.Type(e), payload)
			flusher.Flush()
		}
	}
}
