// Package render produces the marker popup text and list row markup for an
// activity. Derived metrics are rounded to one decimal here and nowhere else.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/playperu/activitymap/internal/activity"
)

// Icon returns the emoji shown next to an activity of the given kind.
func Icon(kind activity.Kind) string {
	if kind == activity.KindRunning {
		return "🏃‍♂️"
	}
	return "🚴‍♀️"
}

// Popup is the marker popup content, e.g. "🏃‍♂️ Running on 14 June".
func Popup(a activity.Activity) string {
	return Icon(a.Kind()) + " " + a.Description()
}

// PopupClass is the style class applied to the marker popup.
func PopupClass(kind activity.Kind) string {
	return string(kind) + "-popup"
}

type detail struct {
	Icon  string
	Value string
	Unit  string
}

type rowData struct {
	ID          string
	Kind        activity.Kind
	Description string
	Details     []detail
}

var rowTmpl = template.Must(template.New("row").Parse(
	`<li class="workout workout--{{.Kind}}" data-id="{{.ID}}">` +
		`<h2 class="workout__title">{{.Description}}</h2>` +
		`{{range .Details}}<div class="workout__details">` +
		`<span class="workout__icon">{{.Icon}}</span>` +
		`<span class="workout__value">{{.Value}}</span>` +
		`<span class="workout__unit">{{.Unit}}</span>` +
		`</div>{{end}}</li>`,
))

// Row renders the list item for a. The row carries a's ID as data-id so a
// click can be resolved back to the activity.
func Row(a activity.Activity) (string, error) {
	data := rowData{
		ID:          a.ID(),
		Kind:        a.Kind(),
		Description: a.Description(),
		Details: []detail{
			{Icon: Icon(a.Kind()), Value: number(a.DistanceKm()), Unit: "km"},
			{Icon: "⏱", Value: number(a.DurationMin()), Unit: "min"},
		},
	}
	data.Details = append(data.Details, kindDetails(a.Record())...)

	var buf bytes.Buffer
	if err := rowTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering row %s: %w", a.ID(), err)
	}
	return buf.String(), nil
}

func kindDetails(rec activity.Record) []detail {
	switch rec.Kind {
	case activity.KindRunning:
		return []detail{
			{Icon: "⚡️", Value: oneDecimal(rec.PaceMinPerKm), Unit: "min/km"},
			{Icon: "🦶🏼", Value: optional(rec.CadenceSpm), Unit: "spm"},
		}
	case activity.KindCycling:
		return []detail{
			{Icon: "⚡️", Value: oneDecimal(rec.SpeedKmPerH), Unit: "km/h"},
			{Icon: "⛰", Value: optional(rec.ElevationGainM), Unit: "m"},
		}
	}
	return nil
}

func oneDecimal(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return number(*v)
}

// number prints user-entered values the way they were typed: no trailing zeros.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
