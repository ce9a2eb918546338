package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Activity Map API", "/openapi.json", "/docs"))
	if deps.Health != nil {
		r.Method(http.MethodGet, "/healthz", deps.Health)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws/events", handleWSEvents(logger, deps.Broker))

	r.Route("/api", func(r chi.Router) {
		r.Post("/position", handlePosition(logger, deps.Position, deps.Tracker))
		r.Post("/map/click", handleMapClick(logger, deps.Tracker))
		r.Post("/form/kind", handleToggleKind(logger, deps.Tracker))
		r.Post("/form/submit", handleSubmit(logger, deps.Tracker))
		r.Post("/list/select", handleSelectRow(logger, deps.Tracker))
		r.Post("/reset", handleReset(logger, deps.Tracker))
		r.Get("/activities", handleActivities(logger, deps.Tracker))
		r.Get("/events", handleEvents(deps.Broker))
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
