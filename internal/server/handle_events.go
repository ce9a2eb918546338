package server

import (
	"fmt"
	"net/http"
	"time"
)

const pingInterval = 30 * time.Second

// handleEvents streams render commands as Server-Sent Events named "render"
// whose data is the JSON command. The broker's backlog is sent first.
func handleEvents(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		backlog, ch := broker.Subscribe()
		defer broker.Unsubscribe(ch)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		for _, data := range backlog {
			writeSSE(w, data)
		}
		flusher.Flush()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				writeSSE(w, data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, data []byte) {
	fmt.Fprintf(w, "event: render\ndata: %s\n\n", data)
}
