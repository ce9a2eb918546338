package blob

import (
	"context"
	"sync"
)

// Memory keeps blobs in a map. Used by tests and by STORE_DRIVER=memory.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]string
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[key]
	return v, ok, nil
}

func (m *Memory) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.blobs[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Check(context.Context) error { return nil }
