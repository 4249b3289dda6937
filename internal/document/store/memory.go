package store

import (
	"context"
	"sync"

	"github.com/docserve/docserve/internal/document"
)

// MemoryStore is a map-backed Store for local development and unit
// tests. It honors the same contract as the real backends, including
// ErrNotFound for never-written ids.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]document.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]document.Document)}
}

func (m *MemoryStore) Put(_ context.Context, doc *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	cp.Content = append([]byte(nil), doc.Content...)
	m.docs[doc.ID] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, document.ErrNotFound
	}
	cp := d
	cp.Content = append([]byte(nil), d.Content...)
	return &cp, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
