package activity

import "time"

// Record is the data-only form of an activity: what gets persisted and what
// the transport layer sends to the browser. Kind-specific fields are nil for
// the other kind.
type Record struct {
	ID             string      `json:"id"`
	Kind           Kind        `json:"kind"`
	Coords         Coordinates `json:"coordinates"`
	DistanceKm     float64     `json:"distanceKm"`
	DurationMin    float64     `json:"durationMin"`
	CreatedAt      time.Time   `json:"createdAt"`
	Description    string      `json:"description"`
	CadenceSpm     *float64    `json:"cadenceSpm,omitempty"`
	PaceMinPerKm   *float64    `json:"paceMinPerKm,omitempty"`
	ElevationGainM *float64    `json:"elevationGainM,omitempty"`
	SpeedKmPerH    *float64    `json:"speedKmPerH,omitempty"`
}

// Snapshot is an activity rehydrated from storage. It reports the values
// exactly as they were stored, derived ones included, and never recomputes
// them. There is no way back from a Snapshot to a Running or Cycling value.
type Snapshot struct {
	rec Record
}

func NewSnapshot(rec Record) *Snapshot {
	return &Snapshot{rec: rec.clone()}
}

func (s *Snapshot) ID() string           { return s.rec.ID }
func (s *Snapshot) Kind() Kind           { return s.rec.Kind }
func (s *Snapshot) Coords() Coordinates  { return s.rec.Coords }
func (s *Snapshot) DistanceKm() float64  { return s.rec.DistanceKm }
func (s *Snapshot) DurationMin() float64 { return s.rec.DurationMin }
func (s *Snapshot) CreatedAt() time.Time { return s.rec.CreatedAt }
func (s *Snapshot) Description() string  { return s.rec.Description }

func (s *Snapshot) Record() Record { return s.rec.clone() }

// clone copies the pointer fields so a snapshot never shares them.
func (r Record) clone() Record {
	r.CadenceSpm = cloneFloat(r.CadenceSpm)
	r.PaceMinPerKm = cloneFloat(r.PaceMinPerKm)
	r.ElevationGainM = cloneFloat(r.ElevationGainM)
	r.SpeedKmPerH = cloneFloat(r.SpeedKmPerH)
	return r
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr(*v)
}
