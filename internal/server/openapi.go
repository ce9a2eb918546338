package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/activitymap/internal/activity"
	"github.com/playperu/activitymap/internal/controller"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               map[int]any
	contentType                        string
}

var operations = []operation{
	{
		method: http.MethodGet, path: "/healthz",
		summary:     "Health check",
		description: "Reports whether the blob store and the controller loop respond.",
		resp: map[int]any{
			http.StatusOK:                 map[string]string{},
			http.StatusServiceUnavailable: map[string]string{},
		},
	},
	{
		method: http.MethodPost, path: "/api/position",
		summary:     "Resolve position",
		description: "Delivers the browser geolocation result, or its failure, to the pending position request.",
		req:         PositionRequest{},
		resp: map[int]any{
			http.StatusOK:         StateResponse{},
			http.StatusBadRequest: ErrorResponse{},
			http.StatusConflict:   ErrorResponse{},
		},
	},
	{
		method: http.MethodPost, path: "/api/map/click",
		summary:     "Map click",
		description: "Opens the activity form bound to the clicked coordinates.",
		req:         MapClickRequest{},
		resp: map[int]any{
			http.StatusNoContent:  nil,
			http.StatusBadRequest: ErrorResponse{},
			http.StatusConflict:   ErrorResponse{},
		},
	},
	{
		method: http.MethodPost, path: "/api/form/kind",
		summary:     "Toggle kind",
		description: "Shows the cadence or elevation field for the selected kind.",
		req:         KindRequest{},
		resp: map[int]any{
			http.StatusNoContent:           nil,
			http.StatusUnprocessableEntity: ErrorResponse{},
		},
	},
	{
		method: http.MethodPost, path: "/api/form/submit",
		summary:     "Submit activity",
		description: "Validates the raw form fields and records a running or cycling activity at the picked location.",
		req:         SubmitRequest{},
		resp: map[int]any{
			http.StatusCreated:             activity.Record{},
			http.StatusConflict:            ErrorResponse{},
			http.StatusUnprocessableEntity: ErrorResponse{},
		},
	},
	{
		method: http.MethodPost, path: "/api/list/select",
		summary:     "Select list row",
		description: "Recenters the map on the activity behind a list row. Unknown ids are ignored.",
		req:         SelectRowRequest{},
		resp:        map[int]any{http.StatusNoContent: nil},
	},
	{
		method: http.MethodPost, path: "/api/reset",
		summary:     "Reset",
		description: "Deletes all stored activities and restarts the session.",
		resp:        map[int]any{http.StatusNoContent: nil},
	},
	{
		method: http.MethodGet, path: "/api/activities",
		summary:     "List activities",
		description: "Returns the controller state and all activities in creation order.",
		resp:        map[int]any{http.StatusOK: controller.Snapshot{}},
	},
	{
		method: http.MethodGet, path: "/api/events",
		summary:     "SSE render stream",
		description: "Server-Sent Events stream of render commands.",
		resp:        map[int]any{http.StatusOK: nil},
		contentType: "text/event-stream",
	},
	{
		method: http.MethodGet, path: "/ws/events",
		summary:     "WebSocket render stream",
		description: "Upgrades to a WebSocket connection carrying the same render commands as /api/events.",
		resp:        map[int]any{http.StatusSwitchingProtocols: nil},
		contentType: "text/plain",
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Activity Map API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Records running and cycling activities on a map and streams render commands to the browser.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for status, body := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(status)}
			if op.contentType != "" {
				opts = append(opts, openapi.WithContentType(op.contentType))
			}
			oc.AddRespStructure(body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
