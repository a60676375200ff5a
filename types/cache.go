package types

import (
	"time"
)

// CacheStore is the shared key/value store holding tokens and access keys.
// A ttl <= 0 stores the value without expiration. Get reports absence for
// keys that were never set, were deleted or have expired; a non-nil error
// always wraps ErrStoreUnavailable.
type CacheStore interface {
	Open() error
	Close() error
	IsOpen() bool
	Get(key string) (string, bool, error)
	Put(key, value string, ttl time.Duration) error
	Delete(key string) error
}

// Purger is implemented by stores that can drop expired entries eagerly.
type Purger interface {
	Purge() int
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping() error
}

type CacheStoreCreator func(config *CacheConfig, logger Logger) (CacheStore, error)

type CacheEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}
