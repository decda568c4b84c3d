package bolt

import (
	"bytes"
	"context"
	"fmt"
	"goods-manager/core"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("kv")

type boltStore struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database file at dbPath.
func NewStore(dbPath string) *boltStore {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("failed to create bolt directory: %v", err)
	}
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		log.Fatalf("failed to open bolt database: %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		log.Fatalf("failed to create kv bucket: %v", err)
	}
	return &boltStore{db: db}
}

func (s *boltStore) Get(ctx context.Context, key string) ([]byte, error) {
	log := logrus.WithField("key", key)
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(bucketName).Get([]byte(key))
		if val == nil {
			return fmt.Errorf("key %s: %w", key, core.ErrNotFound)
		}
		// val is only valid for the life of the transaction.
		data = bytes.Clone(val)
		return nil
	})
	if err != nil {
		log.WithError(err).Debug("Failed to retrieve value")
		return nil, err
	}
	log.WithField("data_length", len(data)).Debug("Value retrieved successfully")
	return data, nil
}

func (s *boltStore) Set(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	log := logrus.WithFields(logrus.Fields{
		"key":         key,
		"data_length": len(data),
	})
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), data)
	})
	if err != nil {
		log.WithError(err).Error("Failed to save value")
		return err
	}
	log.Debug("Value saved successfully")
	return nil
}

// Close releases the database file lock.
func (s *boltStore) Close() error {
	return s.db.Close()
}
