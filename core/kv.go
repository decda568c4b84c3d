package core

import "context"

type (
	// KVStore is the durable key/value storage the catalog is persisted in.
	// Get returns ErrNotFound when the key has never been written.
	KVStore interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, data []byte) error
	}
)
