package cache

import (
	"context"
	"errors"
)

// Fixed keys of the session-scoped cache
const (
	KeyAddons     = "addons"
	KeyAuthKey    = "authKey"
	KeyEmail      = "email"
	KeyMonitoring = "monitoring"
)

// ErrMiss is returned by Get when a key is absent
var ErrMiss = errors.New("cache miss")

// Backend is a small key-value store holding JSON values
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
