package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/utils"
)

const defaultLRUSize = 10000

type LRUConfig struct {
	Size int `json:"size"`
}

// LRUStore bounds the number of live tokens. Expiry is kept on each entry
// and checked on read like the memory store.
type LRUStore struct {
	lifecycle
	logger  types.Logger
	config  *LRUConfig
	entries *lru.Cache[string, *types.CacheEntry]
	mu      sync.Mutex
	now     func() time.Time
}

func NewLRUStore(config *types.CacheConfig, logger types.Logger) (types.CacheStore, error) {
	lruConfig := &LRUConfig{Size: defaultLRUSize}

	if config != nil && config.Config != nil {
		if err := utils.UnmarshalConfig(config.Config, lruConfig); err != nil {
			return nil, types.WrapError(err, "failed to unmarshal lru cache config")
		}
	}

	if lruConfig.Size <= 0 {
		return nil, types.Errorf(types.ErrInvalidParameter, "lru size must be positive, got %d", lruConfig.Size)
	}

	return &LRUStore{
		logger: logger,
		config: lruConfig,
		now:    time.Now,
	}, nil
}

func (s *LRUStore) Open() error {
	if !s.transitionState(StoreStateClosed, StoreStateOpening) {
		return types.Errorf(types.ErrServerAlreadyRunning, "lru store")
	}

	entries, err := lru.New[string, *types.CacheEntry](s.config.Size)
	if err != nil {
		s.setState(StoreStateClosed)
		return types.WrapError(err, "failed to create lru cache")
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.setState(StoreStateOpen)
	s.logger.Debug("LRU cache store opened", zap.Int("size", s.config.Size))
	return nil
}

func (s *LRUStore) Close() error {
	if !s.transitionState(StoreStateOpen, StoreStateClosing) {
		return types.Errorf(types.ErrServerNotRunning, "lru store")
	}

	s.mu.Lock()
	s.entries.Purge()
	s.mu.Unlock()

	s.setState(StoreStateClosed)
	return nil
}

func (s *LRUStore) Get(key string) (string, bool, error) {
	if !s.IsOpen() {
		return "", false, errStoreClosed
	}

	if key == "" {
		return "", false, nil
	}

	now := s.now()

	entry, ok := s.entries.Get(key)
	if !ok {
		return "", false, nil
	}

	if entry.Expired(now) {
		s.mu.Lock()
		if current, exists := s.entries.Peek(key); exists && current == entry {
			s.entries.Remove(key)
		}
		s.mu.Unlock()
		return "", false, nil
	}

	return entry.Value, true, nil
}

func (s *LRUStore) Put(key, value string, ttl time.Duration) error {
	if !s.IsOpen() {
		return errStoreClosed
	}

	if key == "" {
		return types.ErrCacheKeyEmpty
	}

	now := s.now()
	entry := &types.CacheEntry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	evicted := s.entries.Add(key, entry)
	s.mu.Unlock()

	if evicted {
		s.logger.Debug("LRU cache store evicted least recently used entry", zap.Int("size", s.config.Size))
	}

	return nil
}

func (s *LRUStore) Delete(key string) error {
	if !s.IsOpen() {
		return errStoreClosed
	}

	s.mu.Lock()
	s.entries.Remove(key)
	s.mu.Unlock()

	return nil
}

func (s *LRUStore) Purge() int {
	if !s.IsOpen() {
		return 0
	}

	now := s.now()
	removed := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range s.entries.Keys() {
		if entry, ok := s.entries.Peek(key); ok && entry.Expired(now) {
			s.entries.Remove(key)
			removed++
		}
	}

	return removed
}

func (s *LRUStore) Len() int {
	if !s.IsOpen() {
		return 0
	}
	return s.entries.Len()
}
