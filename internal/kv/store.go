package kv

import "context"

// Store is a durable key-value surface. Read returns nil with no error when
// the key is absent. Write must not return until the value is durable.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Close() error
}
