// Package catalog owns the persisted product list and derives sorted,
// filtered views from it.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"goods-manager/core"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultKey is the storage key the whole catalog document lives under.
const DefaultKey = "goods_manager_data"

// Store is the single owner of product state. Every mutation writes the whole
// catalog to the backing KVStore before the in-memory copy changes.
type Store struct {
	kv  core.KVStore
	key string

	mu       sync.Mutex
	products []core.Product
	loaded   bool
}

// NewStore returns a Store persisting under key; an empty key means DefaultKey.
func NewStore(kv core.KVStore, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key}
}

// Load returns the catalog in stored order. Missing or malformed data yields
// an empty catalog instead of an error.
func (s *Store) Load(ctx context.Context) []core.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.current(ctx)
	if err != nil {
		logrus.WithError(err).WithField("key", s.key).Warn("Catalog unavailable, showing empty catalog")
		return []core.Product{}
	}
	return slices.Clone(products)
}

// Get returns a copy of the product with id.
func (s *Store) Get(ctx context.Context, id string) (core.Product, error) {
	for _, p := range s.Load(ctx) {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Product{}, fmt.Errorf("product %s: %w", id, core.ErrNotFound)
}

// ReplaceAll overwrites the stored catalog with products.
func (s *Store) ReplaceAll(ctx context.Context, products []core.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, slices.Clone(products))
}

// Upsert replaces the product with the same id in place, keeping its
// position and CreatedAt, or appends p when the id is new.
func (s *Store) Upsert(ctx context.Context, p core.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.current(ctx)
	if err != nil {
		return err
	}

	next := slices.Clone(products)
	if i := slices.IndexFunc(next, func(e core.Product) bool { return e.ID == p.ID }); i >= 0 {
		p.CreatedAt = next[i].CreatedAt
		next[i] = p
	} else {
		next = append(next, p)
	}
	return s.commit(ctx, next)
}

// Remove deletes the product with id. Removing an unknown id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.current(ctx)
	if err != nil {
		return err
	}
	next := slices.DeleteFunc(slices.Clone(products), func(e core.Product) bool { return e.ID == id })
	if len(next) == len(products) {
		logrus.WithField("product_id", id).Debug("Product to remove not found")
	}
	return s.commit(ctx, next)
}

// current returns the cached catalog, reading it from storage on first use.
// Callers must hold s.mu and must not modify the returned slice.
func (s *Store) current(ctx context.Context) ([]core.Product, error) {
	if s.loaded {
		return s.products, nil
	}

	data, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, core.ErrNotFound):
		s.products, s.loaded = []core.Product{}, true
		return s.products, nil
	case err != nil:
		return nil, fmt.Errorf("%w: read catalog: %v", core.ErrPersistenceUnavailable, err)
	}

	products, err := Decode(data)
	if err != nil {
		logrus.WithError(err).WithField("key", s.key).Warn("Stored catalog is malformed, starting empty")
		products = []core.Product{}
	}
	s.products, s.loaded = products, true
	return s.products, nil
}

func (s *Store) commit(ctx context.Context, next []core.Product) error {
	if next == nil {
		next = []core.Product{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		logrus.WithError(err).WithField("key", s.key).Error("Failed to persist catalog")
		return fmt.Errorf("%w: %v", core.ErrPersistenceUnavailable, err)
	}
	s.products, s.loaded = next, true
	logrus.WithFields(logrus.Fields{
		"key":      s.key,
		"products": len(next),
		"bytes":    len(data),
	}).Info("Catalog saved")
	return nil
}

// Decode parses a stored catalog document.
func Decode(data []byte) ([]core.Product, error) {
	var products []core.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	if products == nil {
		// "null" is valid JSON but not a catalog.
		return nil, fmt.Errorf("catalog document is not an array")
	}
	return products, nil
}
