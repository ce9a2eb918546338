package server

import (
	"errors"
	"sync"

	"github.com/playperu/activitymap/internal/activity"
)

var ErrNoPendingRequest = errors.New("no position request pending")

// BrowserPosition is a position source resolved by the browser's geolocation
// result, posted to /api/position.
type BrowserPosition struct {
	mu      sync.Mutex
	pending func(activity.Coordinates, error)
}

func NewBrowserPosition() *BrowserPosition {
	return &BrowserPosition{}
}

func (b *BrowserPosition) RequestPosition(resolve func(activity.Coordinates, error)) {
	b.mu.Lock()
	b.pending = resolve
	b.mu.Unlock()
}

// Resolve completes the outstanding request. Each request resolves once.
func (b *BrowserPosition) Resolve(coords activity.Coordinates, err error) error {
	b.mu.Lock()
	resolve := b.pending
	b.pending = nil
	b.mu.Unlock()

	if resolve == nil {
		return ErrNoPendingRequest
	}
	resolve(coords, err)
	return nil
}

func (b *BrowserPosition) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}
