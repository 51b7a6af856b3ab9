package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileStorage keeps the marker in a small file so it survives between CLI
// invocations. The marker is dropped once it has been idle longer than ttl.
type FileStorage struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

type fileRecord struct {
	Key       string    `json:"key"`
	Marker    string    `json:"marker"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage stores the marker at path. A ttl of zero or less keeps the
// marker until logout.
func NewFileStorage(path string, ttl time.Duration) *FileStorage {
	return &FileStorage{path: path, ttl: ttl, now: time.Now}
}

func (s *FileStorage) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl).UTC()
}

func (s *FileStorage) Get(ctx context.Context) (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Key != Key {
		// unreadable sessions count as logged out
		return "", false, s.Clear(ctx)
	}
	if !rec.ExpiresAt.IsZero() && s.now().After(rec.ExpiresAt) {
		return "", false, s.Clear(ctx)
	}

	// renew
	if err := s.Set(ctx, rec.Marker); err != nil {
		return "", false, err
	}
	return rec.Marker, true, nil
}

func (s *FileStorage) Set(_ context.Context, marker string) error {
	data, err := json.Marshal(fileRecord{Key: Key, Marker: marker, ExpiresAt: s.expiry()})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileStorage) Clear(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
