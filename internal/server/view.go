package server

import (
	"github.com/playperu/activitymap/internal/activity"
	"github.com/playperu/activitymap/internal/controller"
)

// BrokerView implements controller.View by publishing render commands.
type BrokerView struct {
	broker *Broker
}

func NewBrokerView(b *Broker) *BrokerView {
	return &BrokerView{broker: b}
}

var _ controller.View = (*BrokerView)(nil)

func (v *BrokerView) InitView(center activity.Coordinates, zoom int) {
	v.broker.Publish(Event{Type: EventMapInit, Coords: &center, Zoom: zoom})
}

func (v *BrokerView) AddMarker(at activity.Coordinates, popup string, opts controller.MarkerOptions) {
	v.broker.Publish(Event{Type: EventMapMarker, Coords: &at, Popup: popup, Marker: &opts})
}

func (v *BrokerView) SetView(center activity.Coordinates, zoom int, pan controller.PanOptions) {
	v.broker.Publish(Event{
		Type:       EventMapView,
		Coords:     &center,
		Zoom:       zoom,
		Animate:    pan.Animate,
		PanSeconds: pan.Duration.Seconds(),
	})
}

func (v *BrokerView) AppendRow(id, html string) {
	v.broker.Publish(Event{Type: EventListRow, ID: id, HTML: html})
}

func (v *BrokerView) Reveal()        { v.broker.Publish(Event{Type: EventFormReveal}) }
func (v *BrokerView) FocusDistance() { v.broker.Publish(Event{Type: EventFormFocus}) }

func (v *BrokerView) ShowKindFields(kind activity.Kind) {
	v.broker.Publish(Event{Type: EventFormKind, Kind: kind})
}

func (v *BrokerView) ClearNumeric()    { v.broker.Publish(Event{Type: EventFormClear}) }
func (v *BrokerView) Hide()            { v.broker.Publish(Event{Type: EventFormHide}) }
func (v *BrokerView) Alert(msg string) { v.broker.Publish(Event{Type: EventAlert, Message: msg}) }
func (v *BrokerView) Reload()          { v.broker.Publish(Event{Type: EventReload}) }
