// Package persistence snapshots the activity collection into a single blob
// and restores it on startup.
//
// Restored entries are activity.Snapshot values: plain field-bags carrying
// whatever was serialized, derived metrics and description included. They are
// never rebuilt into Running or Cycling values.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playperu/activitymap/internal/activity"
	"github.com/playperu/activitymap/internal/blob"
)

// DefaultKey is the blob key the collection is stored under.
const DefaultKey = "workouts"

// ErrCorruptState is returned by Restore when the stored blob cannot be
// decoded into activity records.
var ErrCorruptState = errors.New("corrupt persisted state")

type Gateway struct {
	blobs blob.Store
	key   string
}

// New returns a Gateway writing under key; an empty key means DefaultKey.
func New(blobs blob.Store, key string) *Gateway {
	if key == "" {
		key = DefaultKey
	}
	return &Gateway{blobs: blobs, key: key}
}

func (g *Gateway) Key() string { return g.key }

// Save overwrites the blob with the full ordered collection.
func (g *Gateway) Save(ctx context.Context, activities []activity.Activity) error {
	data, err := Encode(activities)
	if err != nil {
		return err
	}
	if err := g.blobs.Put(ctx, g.key, data); err != nil {
		return fmt.Errorf("writing %q: %w", g.key, err)
	}
	return nil
}

// Restore reads the blob back. A missing blob yields an empty collection and
// no error.
func (g *Gateway) Restore(ctx context.Context) ([]activity.Activity, error) {
	data, ok, err := g.blobs.Get(ctx, g.key)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", g.key, err)
	}
	if !ok {
		return nil, nil
	}
	return Decode(data)
}

// Clear removes the blob.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := g.blobs.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("deleting %q: %w", g.key, err)
	}
	return nil
}

// Encode serializes activities to the persisted layout: a JSON array of
// records in collection order.
func Encode(activities []activity.Activity) (string, error) {
	records := make([]activity.Record, 0, len(activities))
	for _, a := range activities {
		records = append(records, a.Record())
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encoding activities: %w", err)
	}
	return string(data), nil
}

// Decode parses a persisted blob into snapshots. A literal null decodes to an
// empty collection.
func Decode(data string) ([]activity.Activity, error) {
	trimmed := bytes.TrimSpace([]byte(data))
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var records []activity.Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	out := make([]activity.Activity, 0, len(records))
	for i, rec := range records {
		if rec.ID == "" || !rec.Kind.Valid() {
			return nil, fmt.Errorf("%w: entry %d has id %q kind %q", ErrCorruptState, i, rec.ID, rec.Kind)
		}
		out = append(out, activity.NewSnapshot(rec))
	}
	return out, nil
}
