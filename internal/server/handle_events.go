package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// handleEvents streams the session's effects as Server-Sent Events, after a
// snapshot event. The stream ends if the client falls behind.
func handleEvents(logger *slog.Logger, pub Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runner := sessionRunner(r)

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		ch, cancel, err := pub.Subscribe(r.Context(), runner.ID())
		if err != nil {
			logger.Error("subscribing to session failed", "session", runner.ID(), "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		defer cancel()

		snap, err := runner.Snapshot(r.Context())
		if err != nil {
			writeSessionError(w, err)
			return
		}
		snapData, err := json.Marshal(snap)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapData)
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: effect\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
