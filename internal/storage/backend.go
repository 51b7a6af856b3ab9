package storage

import (
	"context"
	"sync"
)

// Keys of the documents kept in a backend.
const (
	DefaultDocumentKey = "balancete_condominio_db"
	AdminKey           = "balancete_admin"
)

// Backend stores opaque documents by key. Put replaces the whole document.
type Backend interface {
	// Get returns the document, or found=false when the key was never written.
	Get(ctx context.Context, key string) (body []byte, found bool, err error)
	Put(ctx context.Context, key string, body []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Ensure interface conformance
var (
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*FileBackend)(nil)
	_ Backend = (*SQLiteBackend)(nil)
)

// MemoryBackend keeps documents in process memory. Used for tests and
// throwaway sessions.
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body, ok := b.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), body...), true, nil
}

func (b *MemoryBackend) Put(_ context.Context, key string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[key] = append([]byte(nil), body...)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.docs, key)
	return nil
}

func (b *MemoryBackend) Close() error { return nil }
