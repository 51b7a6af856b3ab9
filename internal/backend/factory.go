package backend

import (
	"context"
	"fmt"

	"balancete/internal/log"
	"balancete/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the configured backend and wraps it in a store.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		b   storage.Backend
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		b, err = storage.NewSQLiteBackend(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
		}
		f.logger.DebugContext(ctx, "Initialized SQLite backend", log.FieldBackend, config.Type, "db_path", config.SQLiteDBPath)
	case FileBackend:
		b, err = storage.NewFileBackend(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file backend: %w", err)
		}
		f.logger.DebugContext(ctx, "Initialized file backend", log.FieldBackend, config.Type, "data_directory", config.DataDirectory)
	case MemoryBackend:
		b = storage.NewMemoryBackend()
		f.logger.DebugContext(ctx, "Initialized memory backend", log.FieldBackend, config.Type)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	store := storage.NewStore(b,
		storage.WithDocumentKey(config.DocumentKey),
		storage.WithLogger(f.logger),
	)
	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
