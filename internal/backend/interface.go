package backend

import (
	"context"

	"balancete/internal/storage"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// BackendResult is an opened store and its cleanup.
type BackendResult struct {
	Store   *storage.Store
	Cleanup CleanupFunc
}

// Factory opens stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds what is needed to open a backend.
type Config struct {
	Type BackendType

	// file backend
	DataDirectory string

	// sqlite backend
	SQLiteDBPath string

	DocumentKey string
}

// BackendType names where the dataset document lives.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
