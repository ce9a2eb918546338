package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/activitymap/internal/controller"
)

type KindRequest struct {
	Kind string `json:"kind"`
}

// SubmitRequest holds the raw form field text, exactly as typed.
type SubmitRequest = controller.FormInput

func handleToggleKind(logger *slog.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req KindRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := tracker.ToggleKind(r.Context(), req.Kind); err != nil {
			writeTrackerError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSubmit(logger *slog.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rec, err := tracker.Submit(r.Context(), req)
		if err != nil {
			writeTrackerError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}
