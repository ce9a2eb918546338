package controller

import (
	"context"
	"time"

	"github.com/playperu/activitymap/internal/activity"
)

// Map zoom levels and pan timing used when driving the map.
const (
	InitialZoom = 15
	FocusZoom   = 13
	PanDuration = time.Second
)

// MarkerOptions mirrors the popup options the map front-end applies.
type MarkerOptions struct {
	Class        string `json:"className"`
	MaxWidth     int    `json:"maxWidth"`
	MinWidth     int    `json:"minWidth"`
	AutoClose    bool   `json:"autoClose"`
	CloseOnClick bool   `json:"closeOnClick"`
	Open         bool   `json:"open"`
}

type PanOptions struct {
	Animate  bool          `json:"animate"`
	Duration time.Duration `json:"-"`
}

// MapSink is the map capability: it owns tiles, markers and the viewport.
type MapSink interface {
	InitView(center activity.Coordinates, zoom int)
	AddMarker(at activity.Coordinates, popup string, opts MarkerOptions)
	SetView(center activity.Coordinates, zoom int, pan PanOptions)
}

// ListSink appends one rendered row per activity. Rows are never updated or
// removed.
type ListSink interface {
	AppendRow(id, html string)
}

// FormView is the input form as seen from the controller.
type FormView interface {
	Reveal()
	FocusDistance()
	ShowKindFields(kind activity.Kind)
	ClearNumeric()
	Hide()
}

type Alerter interface {
	Alert(msg string)
}

// View bundles every output the controller drives. Reload tells the client
// to start over after a reset.
type View interface {
	MapSink
	ListSink
	FormView
	Alerter
	Reload()
}

// PositionSource resolves the user's position asynchronously. The callback
// fires at most once per request; it may never fire.
type PositionSource interface {
	RequestPosition(resolve func(activity.Coordinates, error))
}

// Persister is the slice of the persistence gateway the controller uses.
type Persister interface {
	Save(ctx context.Context, activities []activity.Activity) error
	Restore(ctx context.Context) ([]activity.Activity, error)
	Clear(ctx context.Context) error
}

// FixedPosition resolves immediately with a configured location.
type FixedPosition struct {
	Coords activity.Coordinates
}

func (f FixedPosition) RequestPosition(resolve func(activity.Coordinates, error)) {
	resolve(f.Coords, nil)
}
