package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store keeps JSON-encoded values with a time to live. A zero ttl keeps the
// value until it is deleted.
type Store interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	// Take reads and removes key in one step. Of concurrent callers at most
	// one gets the value; the rest see ErrMiss.
	Take(ctx context.Context, key string, dst any) error
}
