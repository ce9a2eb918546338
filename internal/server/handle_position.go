package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/playperu/activitymap/internal/activity"
	"github.com/playperu/activitymap/internal/controller"
)

// PositionRequest carries the browser's geolocation result. A non-empty
// Error reports a failed lookup.
type PositionRequest struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Error string  `json:"error,omitempty"`
}

type StateResponse struct {
	State string `json:"state"`
}

func handlePosition(logger *slog.Logger, resolver Resolver, tracker Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			writeError(w, http.StatusConflict, "position is fixed by configuration")
			return
		}

		var req PositionRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var (
			coords activity.Coordinates
			cause  error
		)
		if req.Error != "" {
			cause = fmt.Errorf("%w: %s", controller.ErrPositionUnavailable, req.Error)
		} else {
			coords = activity.Coordinates{Lat: req.Lat, Lng: req.Lng}
			if !validCoords(coords) {
				writeError(w, http.StatusBadRequest, "lat must be within [-90,90] and lng within [-180,180]")
				return
			}
		}

		err := resolver.Resolve(coords, cause)
		if errors.Is(err, ErrNoPendingRequest) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			writeTrackerError(w, logger, err)
			return
		}

		snap, err := tracker.Snapshot(r.Context())
		if err != nil {
			writeTrackerError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, StateResponse{State: snap.State.String()})
	}
}

func validCoords(c activity.Coordinates) bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}
