// Package activity defines the recorded activity types, their derived
// metrics, and the ordered in-memory collection that holds them.
package activity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindRunning Kind = "running"
	KindCycling Kind = "cycling"
)

func (k Kind) Valid() bool {
	return k == KindRunning || k == KindCycling
}

// ParseKind maps the form's selection value to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown activity kind %q", s)
	}
	return k, nil
}

// Coordinates is a (latitude, longitude) pair. It encodes as [lat, lng].
type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates: want [lat,lng], got %d values", len(pair))
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

// Activity is the read-only capability set shared by live activities and
// restored snapshots.
type Activity interface {
	ID() string
	Kind() Kind
	Coords() Coordinates
	DistanceKm() float64
	DurationMin() float64
	CreatedAt() time.Time
	Description() string
	Record() Record
}

var months = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Describe renders the label shown on markers and rows, e.g. "Running on 14 June".
func Describe(kind Kind, t time.Time) string {
	name := string(kind)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s on %d %s", name, t.Day(), months[t.Month()-1])
}

// NewID returns a time-ordered identifier. UUIDv7 carries a millisecond
// timestamp plus a monotonic sequence, so rapid submissions within the same
// millisecond still get distinct IDs.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type base struct {
	id          string
	coords      Coordinates
	distanceKm  float64
	durationMin float64
	createdAt   time.Time
	description string
}

func (b *base) ID() string           { return b.id }
func (b *base) Coords() Coordinates  { return b.coords }
func (b *base) DistanceKm() float64  { return b.distanceKm }
func (b *base) DurationMin() float64 { return b.durationMin }
func (b *base) CreatedAt() time.Time { return b.createdAt }
func (b *base) Description() string  { return b.description }

func (b *base) record(kind Kind) Record {
	return Record{
		ID:          b.id,
		Kind:        kind,
		Coords:      b.coords,
		DistanceKm:  b.distanceKm,
		DurationMin: b.durationMin,
		CreatedAt:   b.createdAt,
		Description: b.description,
	}
}

// Running is a run with a cadence and a pace derived at construction.
type Running struct {
	base
	cadenceSpm   float64
	paceMinPerKm float64
}

// NewRunning builds a Running activity. Inputs are assumed to be validated
// by the caller.
func NewRunning(id string, coords Coordinates, distanceKm, durationMin, cadenceSpm float64, createdAt time.Time) *Running {
	return &Running{
		base: base{
			id:          id,
			coords:      coords,
			distanceKm:  distanceKm,
			durationMin: durationMin,
			createdAt:   createdAt,
			description: Describe(KindRunning, createdAt),
		},
		cadenceSpm:   cadenceSpm,
		paceMinPerKm: durationMin / distanceKm,
	}
}

func (r *Running) Kind() Kind            { return KindRunning }
func (r *Running) CadenceSpm() float64   { return r.cadenceSpm }
func (r *Running) PaceMinPerKm() float64 { return r.paceMinPerKm }

func (r *Running) Record() Record {
	rec := r.record(KindRunning)
	rec.CadenceSpm = ptr(r.cadenceSpm)
	rec.PaceMinPerKm = ptr(r.paceMinPerKm)
	return rec
}

// Cycling is a ride with an elevation gain and a speed derived at construction.
type Cycling struct {
	base
	elevationGainM float64
	speedKmPerH    float64
}

// NewCycling builds a Cycling activity. Elevation may be zero or negative.
func NewCycling(id string, coords Coordinates, distanceKm, durationMin, elevationGainM float64, createdAt time.Time) *Cycling {
	return &Cycling{
		base: base{
			id:          id,
			coords:      coords,
			distanceKm:  distanceKm,
			durationMin: durationMin,
			createdAt:   createdAt,
			description: Describe(KindCycling, createdAt),
		},
		elevationGainM: elevationGainM,
		speedKmPerH:    distanceKm / (durationMin / 60),
	}
}

func (c *Cycling) Kind() Kind              { return KindCycling }
func (c *Cycling) ElevationGainM() float64 { return c.elevationGainM }
func (c *Cycling) SpeedKmPerH() float64    { return c.speedKmPerH }

func (c *Cycling) Record() Record {
	rec := c.record(KindCycling)
	rec.ElevationGainM = ptr(c.elevationGainM)
	rec.SpeedKmPerH = ptr(c.speedKmPerH)
	return rec
}

func ptr(v float64) *float64 { return &v }
