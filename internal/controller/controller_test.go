package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/playperu/activitymap/internal/activity"
	"github.com/playperu/activitymap/internal/blob"
	"github.com/playperu/activitymap/internal/persistence"
)

type call struct {
	name   string
	coords activity.Coordinates
	zoom   int
	text   string
	id     string
	kind   activity.Kind
	marker MarkerOptions
	pan    PanOptions
}

// recordingView captures every command the controller issues.
type recordingView struct {
	mu    sync.Mutex
	calls []call
}

func (v *recordingView) add(c call) {
	v.mu.Lock()
	v.calls = append(v.calls, c)
	v.mu.Unlock()
}

func (v *recordingView) InitView(center activity.Coordinates, zoom int) {
	v.add(call{name: "init", coords: center, zoom: zoom})
}

func (v *recordingView) AddMarker(at activity.Coordinates, popup string, opts MarkerOptions) {
	v.add(call{name: "marker", coords: at, text: popup, marker: opts})
}

func (v *recordingView) SetView(center activity.Coordinates, zoom int, pan PanOptions) {
	v.add(call{name: "view", coords: center, zoom: zoom, pan: pan})
}

func (v *recordingView) AppendRow(id, html string) { v.add(call{name: "row", id: id, text: html}) }
func (v *recordingView) Reveal()                   { v.add(call{name: "reveal"}) }
func (v *recordingView) FocusDistance()            { v.add(call{name: "focus"}) }
func (v *recordingView) ShowKindFields(k activity.Kind) {
	v.add(call{name: "kind", kind: k})
}
func (v *recordingView) ClearNumeric()    { v.add(call{name: "clear"}) }
func (v *recordingView) Hide()            { v.add(call{name: "hide"}) }
func (v *recordingView) Alert(msg string) { v.add(call{name: "alert", text: msg}) }
func (v *recordingView) Reload()          { v.add(call{name: "reload"}) }

func (v *recordingView) named(name string) []call {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []call
	for _, c := range v.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func (v *recordingView) names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.calls))
	for _, c := range v.calls {
		out = append(out, c.name)
	}
	return out
}

func (v *recordingView) reset() {
	v.mu.Lock()
	v.calls = nil
	v.mu.Unlock()
}

// manualPosition lets a test resolve the position request when it wants.
type manualPosition struct {
	mu       sync.Mutex
	resolve  func(activity.Coordinates, error)
	requests int
}

func (m *manualPosition) RequestPosition(resolve func(activity.Coordinates, error)) {
	m.mu.Lock()
	m.resolve = resolve
	m.requests++
	m.mu.Unlock()
}

func (m *manualPosition) fire(c activity.Coordinates, err error) {
	m.mu.Lock()
	resolve := m.resolve
	m.mu.Unlock()
	resolve(c, err)
}

var (
	london = activity.Coordinates{Lat: 51.5, Lng: -0.12}
	paris  = activity.Coordinates{Lat: 48.85, Lng: 2.35}
	fixed  = time.Date(2025, time.June, 14, 10, 0, 0, 0, time.UTC)
)

type harness struct {
	ctrl  *Controller
	view  *recordingView
	blobs *blob.Memory
	gw    *persistence.Gateway
}

func counterIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("act-%03d", n)
	}
}

func startController(t *testing.T, blobs *blob.Memory, position PositionSource) *harness {
	t.Helper()
	if blobs == nil {
		blobs = blob.NewMemory()
	}
	h := &harness{
		view:  &recordingView{},
		blobs: blobs,
		gw:    persistence.New(blobs, ""),
	}
	h.ctrl = New(h.gw, h.view, position,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixed }),
		WithIDFunc(counterIDs()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.ctrl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})

	require.NoError(t, h.ctrl.Ready(context.Background()))
	return h
}

func (h *harness) state(t *testing.T) State {
	t.Helper()
	snap, err := h.ctrl.Snapshot(context.Background())
	require.NoError(t, err)
	return snap.State
}

func running(distance, duration, cadence string) FormInput {
	return FormInput{Kind: "running", Distance: distance, Duration: duration, Cadence: cadence}
}

func cycling(distance, duration, elevation string) FormInput {
	return FormInput{Kind: "cycling", Distance: distance, Duration: duration, Elevation: elevation}
}

func TestStartupWithEmptyStorage(t *testing.T) {
	h := startController(t, nil, nil)

	snap, err := h.ctrl.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, AwaitingPosition, snap.State)
	require.Empty(t, snap.Activities)
	require.Empty(t, h.view.named("row"))
	require.Empty(t, h.view.named("alert"))
}

func TestSubmitRunningScenario(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})
	ctx := context.Background()
	require.Equal(t, MapReady, h.state(t))

	require.NoError(t, h.ctrl.MapClick(ctx, london))
	require.Equal(t, FormOpen, h.state(t))

	rec, err := h.ctrl.Submit(ctx, running("5", "30", "160"))
	require.NoError(t, err)

	require.Equal(t, activity.KindRunning, rec.Kind)
	require.NotNil(t, rec.PaceMinPerKm)
	require.Equal(t, 6.0, *rec.PaceMinPerKm)
	require.True(t, strings.HasSuffix(rec.Description, "14 June"), rec.Description)
	require.Equal(t, london, rec.Coords)

	markers := h.view.named("marker")
	require.Len(t, markers, 1)
	require.Equal(t, london, markers[0].coords)
	require.Equal(t, "running-popup", markers[0].marker.Class)
	require.Contains(t, markers[0].text, "Running on 14 June")

	rows := h.view.named("row")
	require.Len(t, rows, 1)
	require.Equal(t, rec.ID, rows[0].id)

	restored, err := h.gw.Restore(ctx)
	require.NoError(t, err)
	require.Len(t, restored, 1)
	require.Equal(t, rec, restored[0].Record())

	require.Equal(t, MapReady, h.state(t))
	require.Len(t, h.view.named("hide"), 1)
	require.Len(t, h.view.named("clear"), 1)
}

func TestSubmitPipelineOrder(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})
	ctx := context.Background()

	require.NoError(t, h.ctrl.MapClick(ctx, london))
	h.view.reset()

	_, err := h.ctrl.Submit(ctx, cycling("20", "60", "0"))
	require.NoError(t, err)
	require.Equal(t, []string{"marker", "row", "clear", "hide"}, h.view.names())
}

func TestSubmitAppendOnly(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})
	ctx := context.Background()

	const n = 5
	var ids []string
	for i := range n {
		at := activity.Coordinates{Lat: float64(i), Lng: float64(-i)}
		require.NoError(t, h.ctrl.MapClick(ctx, at))
		rec, err := h.ctrl.Submit(ctx, running(fmt.Sprint(i+1), "30", "150"))
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	snap, err := h.ctrl.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Activities, n)

	seen := map[string]bool{}
	for i, rec := range snap.Activities {
		require.Equal(t, ids[i], rec.ID, "submission order")
		require.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}

	stored, err := h.gw.Restore(ctx)
	require.NoError(t, err)
	require.Len(t, stored, n)
}

func TestValidationBoundary(t *testing.T) {
	tests := []struct {
		name    string
		in      FormInput
		wantErr bool
	}{
		{name: "running ok", in: running("5", "30", "160")},
		{name: "cycling zero elevation", in: cycling("10", "30", "0")},
		{name: "cycling negative elevation", in: cycling("10", "30", "-120")},
		{name: "cycling blank elevation coerces to zero", in: cycling("10", "30", "")},
		{name: "decimal input", in: running(" 4.25 ", "22.5", "171.5")},

		{name: "zero distance", in: running("0", "30", "160"), wantErr: true},
		{name: "negative distance", in: cycling("-5", "30", "10"), wantErr: true},
		{name: "zero duration", in: cycling("5", "0", "10"), wantErr: true},
		{name: "negative duration", in: running("5", "-30", "160"), wantErr: true},
		{name: "non-numeric distance", in: running("five", "30", "160"), wantErr: true},
		{name: "blank duration", in: running("5", "", "160"), wantErr: true},
		{name: "infinite distance", in: cycling("Inf", "30", "10"), wantErr: true},
		{name: "NaN duration", in: running("5", "NaN", "160"), wantErr: true},
		{name: "zero cadence", in: running("5", "30", "0"), wantErr: true},
		{name: "negative cadence", in: running("5", "30", "-1"), wantErr: true},
		{name: "non-numeric elevation", in: cycling("5", "30", "high"), wantErr: true},
		{name: "infinite elevation", in: cycling("5", "30", "-Inf"), wantErr: true},
		{name: "unknown kind", in: FormInput{Kind: "swimming", Distance: "1", Duration: "1"}, wantErr: true},
		{name: "speed overflows", in: cycling("1", "5e-324", "0"), wantErr: true},
		{name: "pace overflows", in: running("1e-300", "1e300", "160"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := startController(t, nil, FixedPosition{Coords: paris})
			ctx := context.Background()
			require.NoError(t, h.ctrl.MapClick(ctx, london))

			_, err := h.ctrl.Submit(ctx, tt.in)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalidInput)
			alerts := h.view.named("alert")
			require.Len(t, alerts, 1)
			require.Equal(t, "Inputs have to be positive numbers", alerts[0].text)

			require.Equal(t, FormOpen, h.state(t), "form stays open for correction")
			require.Empty(t, h.view.named("clear"), "inputs must not be cleared")
			require.Empty(t, h.view.named("marker"))

			_, ok, _ := h.blobs.Get(ctx, persistence.DefaultKey)
			require.False(t, ok, "nothing persisted")
		})
	}
}

func TestRetryAfterInvalidInput(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})
	ctx := context.Background()
	require.NoError(t, h.ctrl.MapClick(ctx, london))

	_, err := h.ctrl.Submit(ctx, running("0", "30", "160"))
	require.ErrorIs(t, err, ErrInvalidInput)

	rec, err := h.ctrl.Submit(ctx, running("10", "50", "170"))
	require.NoError(t, err)
	require.Equal(t, london, rec.Coords, "clicked location kept across the failed attempt")
}

func TestSubmitWithoutMapClick(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})

	_, err := h.ctrl.Submit(context.Background(), running("5", "30", "160"))
	require.ErrorIs(t, err, ErrFormClosed)
	require.Empty(t, h.view.named("marker"))
}

func TestSubmitClosesForm(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})
	ctx := context.Background()

	require.NoError(t, h.ctrl.MapClick(ctx, london))
	_, err := h.ctrl.Submit(ctx, running("5", "30", "160"))
	require.NoError(t, err)

	_, err = h.ctrl.Submit(ctx, running("5", "30", "160"))
	require.ErrorIs(t, err, ErrFormClosed, "a second submit needs a new map click")
}

func TestMapClickBeforePosition(t *testing.T) {
	pos := &manualPosition{}
	h := startController(t, nil, pos)

	err := h.ctrl.MapClick(context.Background(), london)
	require.ErrorIs(t, err, ErrMapUnavailable)
	require.Empty(t, h.view.named("reveal"))
}

func TestMapClickOpensForm(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})
	ctx := context.Background()

	require.NoError(t, h.ctrl.MapClick(ctx, london))
	require.NoError(t, h.ctrl.MapClick(ctx, paris))

	require.Len(t, h.view.named("reveal"), 2)
	require.Len(t, h.view.named("focus"), 2)

	snap, err := h.ctrl.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, &paris, snap.Pending, "latest click wins")
}

func TestPositionFailure(t *testing.T) {
	pos := &manualPosition{}
	h := startController(t, nil, pos)

	pos.fire(activity.Coordinates{}, errors.New("permission denied"))
	require.Equal(t, PositionUnavailable, h.state(t))

	alerts := h.view.named("alert")
	require.Len(t, alerts, 1)
	require.Equal(t, "Could not get your position", alerts[0].text)
	require.Empty(t, h.view.named("init"))

	require.ErrorIs(t, h.ctrl.MapClick(context.Background(), london), ErrMapUnavailable)

	pos.fire(london, nil)
	require.Equal(t, PositionUnavailable, h.state(t), "callback fires at most once")
}

func TestRestoredActivitiesRenderListThenMap(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	seed := []activity.Activity{
		activity.NewRunning("r1", london, 5, 30, 160, fixed),
		activity.NewCycling("c1", paris, 20, 60, 300, fixed),
	}
	require.NoError(t, persistence.New(blobs, "").Save(ctx, seed))

	pos := &manualPosition{}
	h := startController(t, blobs, pos)

	rows := h.view.named("row")
	require.Len(t, rows, 2)
	require.Equal(t, "r1", rows[0].id)
	require.Equal(t, "c1", rows[1].id)
	require.Empty(t, h.view.named("marker"), "markers wait for the map")

	pos.fire(paris, nil)
	require.Equal(t, MapReady, h.state(t))

	inits := h.view.named("init")
	require.Len(t, inits, 1)
	require.Equal(t, InitialZoom, inits[0].zoom)
	require.Equal(t, paris, inits[0].coords)

	markers := h.view.named("marker")
	require.Len(t, markers, 2)
	require.Equal(t, london, markers[0].coords)
	require.Equal(t, paris, markers[1].coords)
	require.Equal(t, "cycling-popup", markers[1].marker.Class)
}

func TestCorruptStorageDegradesToEmpty(t *testing.T) {
	blobs := blob.NewMemory()
	require.NoError(t, blobs.Put(context.Background(), persistence.DefaultKey, "not json"))

	h := startController(t, blobs, FixedPosition{Coords: paris})

	snap, err := h.ctrl.Snapshot(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Activities)
	require.Empty(t, h.view.named("alert"), "corrupt state is absorbed silently")
	require.Equal(t, MapReady, snap.State)
}

func TestSelectRow(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})
	ctx := context.Background()

	require.NoError(t, h.ctrl.MapClick(ctx, london))
	rec, err := h.ctrl.Submit(ctx, running("5", "30", "160"))
	require.NoError(t, err)

	require.NoError(t, h.ctrl.SelectRow(ctx, rec.ID))
	views := h.view.named("view")
	require.Len(t, views, 1)
	require.Equal(t, london, views[0].coords)
	require.Equal(t, FocusZoom, views[0].zoom)
	require.True(t, views[0].pan.Animate)
	require.Equal(t, time.Second, views[0].pan.Duration)
}

func TestSelectRowMiss(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})

	require.NoError(t, h.ctrl.SelectRow(context.Background(), "no-such-id"))
	require.Empty(t, h.view.named("view"))
}

func TestSelectRowBeforeMap(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	require.NoError(t, persistence.New(blobs, "").Save(ctx, []activity.Activity{
		activity.NewRunning("r1", london, 5, 30, 160, fixed),
	}))

	h := startController(t, blobs, &manualPosition{})

	require.NoError(t, h.ctrl.SelectRow(ctx, "r1"))
	require.Empty(t, h.view.named("view"))
}

func TestToggleKind(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})
	ctx := context.Background()

	require.NoError(t, h.ctrl.ToggleKind(ctx, "cycling"))
	require.NoError(t, h.ctrl.ToggleKind(ctx, "running"))
	require.ErrorIs(t, h.ctrl.ToggleKind(ctx, "rowing"), ErrInvalidInput)

	kinds := h.view.named("kind")
	require.Len(t, kinds, 2)
	require.Equal(t, activity.KindCycling, kinds[0].kind)
	require.Equal(t, activity.KindRunning, kinds[1].kind)
	require.Equal(t, MapReady, h.state(t), "toggle is presentation only")
}

func TestReset(t *testing.T) {
	pos := &manualPosition{}
	h := startController(t, nil, pos)
	ctx := context.Background()

	pos.fire(paris, nil)
	require.NoError(t, h.ctrl.MapClick(ctx, london))
	_, err := h.ctrl.Submit(ctx, running("5", "30", "160"))
	require.NoError(t, err)

	require.NoError(t, h.ctrl.Reset(ctx))

	_, ok, _ := h.blobs.Get(ctx, persistence.DefaultKey)
	require.False(t, ok, "blob cleared")
	require.Len(t, h.view.named("reload"), 1)

	snap, err := h.ctrl.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, AwaitingPosition, snap.State)
	require.Empty(t, snap.Activities)
	require.Nil(t, snap.Center)

	pos.mu.Lock()
	requests := pos.requests
	pos.mu.Unlock()
	require.Equal(t, 2, requests, "reset requests a fresh position")

	pos.fire(london, nil)
	require.Equal(t, MapReady, h.state(t))
}

type failingPersister struct {
	err error
}

func (f *failingPersister) Save(context.Context, []activity.Activity) error { return f.err }
func (f *failingPersister) Restore(context.Context) ([]activity.Activity, error) {
	return nil, f.err
}
func (f *failingPersister) Clear(context.Context) error { return f.err }

func TestSaveFailureKeepsActivity(t *testing.T) {
	view := &recordingView{}
	p := &failingPersister{err: errors.New("disk full")}
	ctrl := New(p, view, FixedPosition{Coords: paris},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- ctrl.Run(ctx) }()
	defer func() {
		cancel()
		<-errc
	}()

	require.NoError(t, ctrl.MapClick(context.Background(), london))
	rec, err := ctrl.Submit(context.Background(), running("5", "30", "160"))
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	snap, err := ctrl.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Activities, 1)

	require.Error(t, ctrl.Reset(context.Background()))
}

func TestStoppedController(t *testing.T) {
	ctrl := New(persistence.New(blob.NewMemory(), ""), &recordingView{}, nil,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- ctrl.Run(ctx) }()
	require.NoError(t, ctrl.Ready(context.Background()))

	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	_, err := ctrl.Snapshot(context.Background())
	require.ErrorIs(t, err, ErrStopped)
}

func TestOverflowingInputKeepsPersistenceWorking(t *testing.T) {
	h := startController(t, nil, FixedPosition{Coords: paris})
	ctx := context.Background()

	require.NoError(t, h.ctrl.MapClick(ctx, london))
	_, err := h.ctrl.Submit(ctx, cycling("1", "5e-324", "0"))
	require.ErrorIs(t, err, ErrInvalidInput)

	rec, err := h.ctrl.Submit(ctx, running("5", "30", "160"))
	require.NoError(t, err)

	snap, err := h.ctrl.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Activities, 1)

	stored, err := h.gw.Restore(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, rec.ID, stored[0].ID())
}
