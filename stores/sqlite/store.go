package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"goods-manager/core"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}
	// A single connection keeps writes ordered and lets ":memory:" databases
	// survive between calls.
	db.SetMaxOpenConns(1)

	kvTableStmt := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at DATETIME
	);`
	if _, err = db.Exec(kvTableStmt); err != nil {
		log.Fatalf("failed to create kv table: %v", err)
	}

	return &sqliteStore{db}
}

func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, error) {
	log := logrus.WithField("key", key)
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM kv WHERE key = ?", key).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debug("Key not found")
			return nil, fmt.Errorf("key %s: %w", key, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve value")
		return nil, err
	}
	log.WithField("data_length", len(data)).Debug("Value retrieved successfully")
	return data, nil
}

func (s *sqliteStore) Set(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	log := logrus.WithFields(logrus.Fields{
		"key":         key,
		"data_length": len(data),
	})

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now())
	if err != nil {
		log.WithError(err).Error("Failed to save value")
		return err
	}
	log.Debug("Value saved successfully")
	return nil
}

// Close releases the underlying database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}
