package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps documents in a single key/value table.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get document %s: %w", key, err)
	}
	return body, true, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, body []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put document %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Document saved to SQLite", "key", key, "bytes", len(body))
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}
