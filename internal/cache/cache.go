// Package cache is the read-through cache in front of slow lookups; today
// that is the live Ollama model list the provider registry discovers.
package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encoded values under string keys with a TTL. Callers
// treat it as optional: a nil Cache simply means every lookup goes upstream.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
