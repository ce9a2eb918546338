package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/activitymap/internal/activity"
	"github.com/playperu/activitymap/internal/controller"
)

// Tracker is the controller surface the handlers drive.
type Tracker interface {
	MapClick(ctx context.Context, at activity.Coordinates) error
	ToggleKind(ctx context.Context, kind string) error
	Submit(ctx context.Context, in controller.FormInput) (activity.Record, error)
	SelectRow(ctx context.Context, id string) error
	Reset(ctx context.Context) error
	Snapshot(ctx context.Context) (controller.Snapshot, error)
}

// Resolver completes the controller's outstanding position request.
type Resolver interface {
	Resolve(coords activity.Coordinates, err error) error
}

func writeTrackerError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, controller.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, controller.ErrMapUnavailable),
		errors.Is(err, controller.ErrFormClosed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, controller.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		logger.Error("tracker request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
