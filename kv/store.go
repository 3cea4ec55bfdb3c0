package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a key is absent or has expired.
	ErrNotFound = errors.New("kv: key not found")
	// ErrInvalidTTL is returned by Set for a non-positive ttl.
	ErrInvalidTTL = errors.New("kv: ttl must be positive")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("kv: backend unavailable")
)

// Store is the minimal TTL store contract.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// Take returns the value stored at key and deletes it atomically.
	Take(ctx context.Context, key string) (string, error)
	// TakeIf deletes key only while it still holds expected and reports
	// whether it did. A missing key is (false, nil).
	TakeIf(ctx context.Context, key, expected string) (bool, error)
}
