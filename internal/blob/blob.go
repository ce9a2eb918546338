// Package blob provides string-keyed blob stores: each key maps to one
// opaque string value that is read and overwritten wholesale.
package blob

import "context"

// Store is the minimal key/value surface the persistence gateway needs.
// Get reports ok=false with a nil error when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Checker is implemented by stores that can report their own health.
type Checker interface {
	Check(ctx context.Context) error
}
