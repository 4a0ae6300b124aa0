package ports

import "context"

// LocalStore is a durable string key-value store. Missing keys surface
// domain.ErrKeyNotFound; writes are all-or-nothing per key.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}
