package controller

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/playperu/activitymap/internal/activity"
)

// FormInput is the raw text of the form fields at submission time.
type FormInput struct {
	Kind      string `json:"kind"`
	Distance  string `json:"distance"`
	Duration  string `json:"duration"`
	Cadence   string `json:"cadence"`
	Elevation string `json:"elevation"`
}

// parseNumber follows browser numeric coercion of an input's value: blank
// text is 0 and anything unparsable is NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(vs ...float64) bool {
	for _, v := range vs {
		if !finite(v) || v <= 0 {
			return false
		}
	}
	return true
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

type parsedInput struct {
	kind        activity.Kind
	distanceKm  float64
	durationMin float64
	cadenceSpm  float64
	elevationM  float64
}

// validate checks in and returns the parsed values. Distance and duration
// must be finite and positive; running also needs a positive cadence and
// cycling a finite elevation of any sign. The derived pace or speed must be
// finite too.
func validate(in FormInput) (parsedInput, error) {
	kind, err := activity.ParseKind(in.Kind)
	if err != nil {
		return parsedInput{}, invalidInput("%v", err)
	}

	p := parsedInput{
		kind:        kind,
		distanceKm:  parseNumber(in.Distance),
		durationMin: parseNumber(in.Duration),
	}

	switch kind {
	case activity.KindRunning:
		p.cadenceSpm = parseNumber(in.Cadence)
		if !positive(p.distanceKm, p.durationMin, p.cadenceSpm) {
			return parsedInput{}, invalidInput("distance %q, duration %q and cadence %q must be positive numbers", in.Distance, in.Duration, in.Cadence)
		}
		if !finite(p.durationMin / p.distanceKm) {
			return parsedInput{}, invalidInput("distance %q and duration %q give no finite pace", in.Distance, in.Duration)
		}
	case activity.KindCycling:
		p.elevationM = parseNumber(in.Elevation)
		if !positive(p.distanceKm, p.durationMin) {
			return parsedInput{}, invalidInput("distance %q and duration %q must be positive numbers", in.Distance, in.Duration)
		}
		if !finite(p.elevationM) {
			return parsedInput{}, invalidInput("elevation %q must be a number", in.Elevation)
		}
		if !finite(p.distanceKm / (p.durationMin / 60)) {
			return parsedInput{}, invalidInput("distance %q and duration %q give no finite speed", in.Distance, in.Duration)
		}
	}
	return p, nil
}
