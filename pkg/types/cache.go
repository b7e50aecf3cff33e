package types

import (
	"context"
	"time"
)

// Cache is the small key/value surface the auth layer needs, backed by redis
// or by process memory.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error
	Expire(ctx context.Context, key string, expiration time.Duration) error
}
