package server

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/playperu/activitymap/internal/activity"
	"github.com/playperu/activitymap/internal/controller"
)

// Render command types published to the browser.
const (
	EventMapInit    = "map.init"
	EventMapMarker  = "map.marker"
	EventMapView    = "map.view"
	EventListRow    = "list.row"
	EventFormReveal = "form.reveal"
	EventFormFocus  = "form.focus"
	EventFormKind   = "form.kind"
	EventFormClear  = "form.clear"
	EventFormHide   = "form.hide"
	EventAlert      = "alert"
	EventReload     = "reload"
)

// Event is one render command sent to subscribers.
type Event struct {
	Type       string                    `json:"type"`
	ID         string                    `json:"id,omitempty"`
	Coords     *activity.Coordinates     `json:"coords,omitempty"`
	Zoom       int                       `json:"zoom,omitempty"`
	HTML       string                    `json:"html,omitempty"`
	Popup      string                    `json:"popup,omitempty"`
	Marker     *controller.MarkerOptions `json:"marker,omitempty"`
	Animate    bool                      `json:"animate,omitempty"`
	PanSeconds float64                   `json:"panSeconds,omitempty"`
	Kind       activity.Kind             `json:"kind,omitempty"`
	Message    string                    `json:"message,omitempty"`
}

// replayed reports whether an event belongs to the view's lasting state.
// Map and list commands are kept for late subscribers; form commands and
// alerts are transient.
func replayed(eventType string) bool {
	switch eventType {
	case EventMapInit, EventMapMarker, EventListRow:
		return true
	}
	return false
}

// Broker is an in-process pub/sub fanning render commands out to every
// connected client. It keeps the map and list commands published since the
// last reload so a client connecting later can rebuild the same view.
type Broker struct {
	logger *slog.Logger

	mu      sync.RWMutex
	subs    map[chan []byte]struct{}
	backlog [][]byte
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		logger: logger,
		subs:   make(map[chan []byte]struct{}),
	}
}

// Subscribe returns the replay backlog and a channel that receives every
// JSON-encoded event published afterwards. Nothing is missed or duplicated
// between the two.
func (b *Broker) Subscribe() ([][]byte, chan []byte) {
	ch := make(chan []byte, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	return slices.Clone(b.backlog), ch
}

func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers without blocking. A reload
// empties the backlog.
func (b *Broker) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("encoding render event", "type", event.Type, "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case event.Type == EventReload:
		b.backlog = nil
	case replayed(event.Type):
		b.backlog = append(b.backlog, data)
	}

	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
