package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/activitymap/internal/activity"
)

type MapClickRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type SelectRowRequest struct {
	ID string `json:"id"`
}

func handleMapClick(logger *slog.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MapClickRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		at := activity.Coordinates{Lat: req.Lat, Lng: req.Lng}
		if !validCoords(at) {
			writeError(w, http.StatusBadRequest, "lat must be within [-90,90] and lng within [-180,180]")
			return
		}

		if err := tracker.MapClick(r.Context(), at); err != nil {
			writeTrackerError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleSelectRow answers 204 whether or not the row matched an activity.
func handleSelectRow(logger *slog.Logger, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRowRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := tracker.SelectRow(r.Context(), strings.TrimSpace(req.ID)); err != nil {
			writeTrackerError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
