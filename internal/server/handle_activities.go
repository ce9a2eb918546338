package server

import (
	"log/slog"
	"net/http"
)

func handleActivities(logger *slog.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := tracker.Snapshot(r.Context())
		if err != nil {
			writeTrackerError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleReset(logger *slog.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := tracker.Reset(r.Context()); err != nil {
			writeTrackerError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
