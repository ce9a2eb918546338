// Package controller keeps the map, form and list views consistent with the
// activity collection.
//
// All state lives on one goroutine (Run). Every public method enqueues a
// single task and waits for it, so handlers never run concurrently and never
// re-enter each other. The only asynchronous step is the position request,
// whose result is queued back onto the same loop.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playperu/activitymap/internal/activity"
	"github.com/playperu/activitymap/internal/observability"
	"github.com/playperu/activitymap/internal/persistence"
	"github.com/playperu/activitymap/internal/render"
)

var (
	// ErrPositionUnavailable is reported when the position source fails.
	ErrPositionUnavailable = errors.New("position unavailable")
	// ErrInvalidInput is returned by Submit when a field fails validation.
	ErrInvalidInput = errors.New("inputs have to be positive numbers")
	// ErrMapUnavailable is returned for map interactions before the map is ready.
	ErrMapUnavailable = errors.New("map not ready")
	// ErrFormClosed is returned by Submit when no map location was picked.
	ErrFormClosed = errors.New("form not open")
	// ErrStopped is returned once Run has exited.
	ErrStopped = errors.New("controller stopped")
)

const (
	alertPosition = "Could not get your position"
	alertInvalid  = "Inputs have to be positive numbers"
)

type State int

const (
	AwaitingPosition State = iota
	PositionUnavailable
	MapReady
	FormOpen
)

func (s State) String() string {
	switch s {
	case AwaitingPosition:
		return "awaiting_position"
	case PositionUnavailable:
		return "position_unavailable"
	case MapReady:
		return "map_ready"
	case FormOpen:
		return "form_open"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) mapReady() bool {
	return s == MapReady || s == FormOpen
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a read-only view of the controller for the transport layer.
type Snapshot struct {
	State      State                 `json:"state"`
	Center     *activity.Coordinates `json:"center,omitempty"`
	Pending    *activity.Coordinates `json:"pending,omitempty"`
	Activities []activity.Record     `json:"activities"`
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithClock replaces time.Now as the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDFunc replaces activity.NewID.
func WithIDFunc(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

type positionResult struct {
	coords activity.Coordinates
	err    error
}

type Controller struct {
	persist  Persister
	view     View
	position PositionSource
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	tasks   chan func(context.Context)
	started chan struct{}
	done    chan struct{}

	// Owned by the Run goroutine.
	state     State
	store     *activity.Store
	pending   *activity.Coordinates
	center    *activity.Coordinates
	positions chan positionResult
}

// New builds a Controller. position may be nil, in which case the map never
// becomes available.
func New(persist Persister, view View, position PositionSource, opts ...Option) *Controller {
	c := &Controller{
		persist:  persist,
		view:     view,
		position: position,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    activity.NewID,
		tasks:    make(chan func(context.Context)),
		started:  make(chan struct{}),
		done:     make(chan struct{}),
		store:    activity.NewStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run restores persisted activities, requests a position, then handles
// queued events until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	c.start(ctx)
	close(c.started)

	for {
		// Position results take priority over queued tasks so a resolution
		// delivered before a request is observed by that request.
		select {
		case p := <-c.positions:
			c.handlePosition(p)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-c.positions:
			c.handlePosition(p)
		case task := <-c.tasks:
			task(ctx)
		}
	}
}

// do runs fn on the loop and returns its error.
func (c *Controller) do(ctx context.Context, fn func(context.Context) error) error {
	result := make(chan error, 1)
	task := func(loopCtx context.Context) { result <- fn(loopCtx) }

	select {
	case c.tasks <- task:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-c.done:
		return ErrStopped
	}
}

// Ready blocks until startup (restore and position request) has completed.
func (c *Controller) Ready(ctx context.Context) error {
	select {
	case <-c.started:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) start(ctx context.Context) {
	restored, err := c.persist.Restore(ctx)
	switch {
	case errors.Is(err, persistence.ErrCorruptState):
		c.logger.Warn("discarding corrupt persisted activities", "error", err)
		observability.RecordPersistenceFailure("restore")
		restored = nil
	case err != nil:
		c.logger.Error("restoring activities", "error", err)
		observability.RecordPersistenceFailure("restore")
		restored = nil
	}

	c.store.ReplaceAll(restored)
	observability.SetStoredActivities(c.store.Len())
	for _, a := range c.store.All() {
		c.renderRow(a)
	}
	c.logger.Info("activities restored", "count", c.store.Len())

	c.state = AwaitingPosition
	c.requestPosition()
}

func (c *Controller) requestPosition() {
	if c.position == nil {
		c.logger.Warn("no position source; map features unavailable")
		return
	}

	ch := make(chan positionResult, 1)
	c.positions = ch

	var once sync.Once
	c.position.RequestPosition(func(coords activity.Coordinates, err error) {
		once.Do(func() { ch <- positionResult{coords: coords, err: err} })
	})
}

func (c *Controller) handlePosition(p positionResult) {
	c.positions = nil
	if c.state != AwaitingPosition {
		return
	}

	if p.err != nil {
		c.state = PositionUnavailable
		c.logger.Warn("position request failed", "error", fmt.Errorf("%w: %v", ErrPositionUnavailable, p.err))
		c.view.Alert(alertPosition)
		return
	}

	center := p.coords
	c.center = &center
	c.view.InitView(center, InitialZoom)
	for _, a := range c.store.All() {
		c.renderMarker(a)
	}
	c.state = MapReady
	c.logger.Info("map ready", "lat", center.Lat, "lng", center.Lng, "markers", c.store.Len())
}

func (c *Controller) renderMarker(a activity.Activity) {
	c.view.AddMarker(a.Coords(), render.Popup(a), MarkerOptions{
		Class:        render.PopupClass(a.Kind()),
		MaxWidth:     250,
		MinWidth:     100,
		AutoClose:    false,
		CloseOnClick: false,
		Open:         true,
	})
}

func (c *Controller) renderRow(a activity.Activity) {
	html, err := render.Row(a)
	if err != nil {
		c.logger.Error("rendering list row", "id", a.ID(), "error", err)
		return
	}
	c.view.AppendRow(a.ID(), html)
}

// MapClick opens the form bound to the clicked location.
func (c *Controller) MapClick(ctx context.Context, at activity.Coordinates) error {
	return c.do(ctx, func(context.Context) error {
		if !c.state.mapReady() {
			return ErrMapUnavailable
		}
		c.pending = &at
		c.view.Reveal()
		c.view.FocusDistance()
		c.state = FormOpen
		return nil
	})
}

// ToggleKind swaps the kind-specific field shown in the form.
func (c *Controller) ToggleKind(ctx context.Context, kind string) error {
	return c.do(ctx, func(context.Context) error {
		k, err := activity.ParseKind(kind)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		c.view.ShowKindFields(k)
		return nil
	})
}

// Submit validates the form, records the activity, renders it and persists
// the collection. On invalid input the user is alerted and the form stays
// open with its contents untouched.
func (c *Controller) Submit(ctx context.Context, in FormInput) (activity.Record, error) {
	var rec activity.Record
	err := c.do(ctx, func(loopCtx context.Context) error {
		if c.state != FormOpen || c.pending == nil {
			observability.RecordRejected("form_closed")
			return ErrFormClosed
		}

		p, err := validate(in)
		if err != nil {
			observability.RecordRejected("invalid_input")
			c.view.Alert(alertInvalid)
			return err
		}

		a := c.build(p, *c.pending)
		c.store.Append(a)
		observability.RecordActivity(string(a.Kind()))
		observability.SetStoredActivities(c.store.Len())

		c.renderMarker(a)
		c.renderRow(a)

		if err := c.persist.Save(loopCtx, c.store.All()); err != nil {
			observability.RecordPersistenceFailure("save")
			c.logger.Error("saving activities", "error", err, "count", c.store.Len())
		}

		c.view.ClearNumeric()
		c.view.Hide()
		c.pending = nil
		c.state = MapReady

		c.logger.Info("activity recorded", "id", a.ID(), "kind", a.Kind(), "distance_km", a.DistanceKm(), "duration_min", a.DurationMin())
		rec = a.Record()
		return nil
	})
	return rec, err
}

func (c *Controller) build(p parsedInput, at activity.Coordinates) activity.Activity {
	created := c.now().Round(0)
	if p.kind == activity.KindRunning {
		return activity.NewRunning(c.newID(), at, p.distanceKm, p.durationMin, p.cadenceSpm, created)
	}
	return activity.NewCycling(c.newID(), at, p.distanceKm, p.durationMin, p.elevationM, created)
}

// SelectRow recenters the map on the activity behind a clicked list row.
// Unknown ids and clicks before the map is ready are ignored.
func (c *Controller) SelectRow(ctx context.Context, id string) error {
	return c.do(ctx, func(context.Context) error {
		if !c.state.mapReady() {
			return nil
		}
		a, ok := c.store.FindByID(id)
		if !ok {
			c.logger.Debug("row lookup miss", "id", id)
			return nil
		}
		c.view.SetView(a.Coords(), FocusZoom, PanOptions{Animate: true, Duration: PanDuration})
		return nil
	})
}

// Reset deletes the persisted collection and starts over from empty state,
// as if the process had been relaunched.
func (c *Controller) Reset(ctx context.Context) error {
	return c.do(ctx, func(loopCtx context.Context) error {
		if err := c.persist.Clear(loopCtx); err != nil {
			observability.RecordPersistenceFailure("clear")
			return fmt.Errorf("clearing persisted activities: %w", err)
		}

		c.store.ReplaceAll(nil)
		c.pending = nil
		c.center = nil
		c.positions = nil
		c.view.Reload()
		c.logger.Info("state reset")

		c.start(loopCtx)
		return nil
	})
}

// Snapshot returns the current state and the ordered records.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, func(context.Context) error {
		snap = Snapshot{
			State:      c.state,
			Center:     copyCoords(c.center),
			Pending:    copyCoords(c.pending),
			Activities: c.store.Records(),
		}
		return nil
	})
	return snap, err
}

func copyCoords(c *activity.Coordinates) *activity.Coordinates {
	if c == nil {
		return nil
	}
	cc := *c
	return &cc
}
