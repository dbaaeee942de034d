// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package docstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps documents in process memory. It is not shared
// with other processes, so Changes returns nil.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string]map[string]Fields
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: make(map[string]map[string]Fields)}
}

// NewMemory is shorthand for a DB over a fresh MemoryBackend. Options
// other than Backend are honored.
func NewMemory(options Options) *DB {
	options.Backend = NewMemoryBackend()
	return newDB(options)
}

func (m *MemoryBackend) collection(name string) map[string]Fields {
	documents := m.collections[name]
	if documents == nil {
		documents = make(map[string]Fields)
		m.collections[name] = documents
	}
	return documents
}

func (m *MemoryBackend) Insert(ctx context.Context, collection string, document Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	documents := m.collection(collection)
	if _, exists := documents[document.ID]; exists {
		return Errorf(CodeInvalidArgument, "document %s/%s already exists", collection, document.ID)
	}
	documents[document.ID] = document.Fields.Clone()
	return nil
}

func (m *MemoryBackend) Put(ctx context.Context, collection string, document Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(collection)[document.ID] = document.Fields.Clone()
	return nil
}

func (m *MemoryBackend) Merge(ctx context.Context, collection, id string, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.collections[collection][id]
	if !ok {
		return Errorf(CodeNotFound, "no document %s/%s", collection, id)
	}
	for name, value := range fields.Clone() {
		existing[name] = value
	}
	return nil
}

func (m *MemoryBackend) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.collections[collection][id]
	if !ok {
		return Document{}, Errorf(CodeNotFound, "no document %s/%s", collection, id)
	}
	return Document{ID: id, Fields: fields.Clone()}, nil
}

func (m *MemoryBackend) Load(ctx context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	documents := make([]Document, 0, len(m.collections[collection]))
	for id, fields := range m.collections[collection] {
		documents = append(documents, Document{ID: id, Fields: fields.Clone()})
	}
	return documents, nil
}

func (m *MemoryBackend) Changes() <-chan string { return nil }

func (m *MemoryBackend) Close() error { return nil }
