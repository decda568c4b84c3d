package memory

import (
	"bytes"
	"context"
	"fmt"
	"goods-manager/core"
	"sync"

	"github.com/sirupsen/logrus"
)

// memStore keeps every key in process memory. Values are copied in and out so
// callers never share a buffer with the store.
type memStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{values: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("key", key)
	val, ok := s.values[key]
	if !ok {
		log.Debug("Key not found")
		return nil, fmt.Errorf("key %s: %w", key, core.ErrNotFound)
	}
	log.WithField("data_length", len(val)).Debug("Value retrieved successfully")
	return bytes.Clone(val), nil
}

func (s *memStore) Set(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = bytes.Clone(data)
	logrus.WithFields(logrus.Fields{
		"key":         key,
		"data_length": len(data),
	}).Debug("Value saved successfully")
	return nil
}
