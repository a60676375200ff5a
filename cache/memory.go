package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/utils"
)

type MemoryConfig struct {
	MaxEntries int `json:"max_entries"`
}

// MemoryStore keeps entries in a map and expires them lazily on read. Purge
// drops everything already expired.
type MemoryStore struct {
	lifecycle
	logger types.Logger
	config *MemoryConfig
	data   map[string]*types.CacheEntry
	mu     sync.RWMutex
	now    func() time.Time
}

func NewMemoryStore(config *types.CacheConfig, logger types.Logger) (types.CacheStore, error) {
	memConfig := &MemoryConfig{}

	if config != nil && config.Config != nil {
		if err := utils.UnmarshalConfig(config.Config, memConfig); err != nil {
			return nil, types.WrapError(err, "failed to unmarshal memory cache config")
		}
	}

	return &MemoryStore{
		logger: logger,
		config: memConfig,
		data:   make(map[string]*types.CacheEntry),
		now:    time.Now,
	}, nil
}

func (m *MemoryStore) Open() error {
	if !m.transitionState(StoreStateClosed, StoreStateOpening) {
		return types.Errorf(types.ErrServerAlreadyRunning, "memory store")
	}

	m.setState(StoreStateOpen)
	m.logger.Debug("Memory cache store opened", zap.Int("max_entries", m.config.MaxEntries))
	return nil
}

func (m *MemoryStore) Close() error {
	if !m.transitionState(StoreStateOpen, StoreStateClosing) {
		return types.Errorf(types.ErrServerNotRunning, "memory store")
	}

	m.mu.Lock()
	m.data = make(map[string]*types.CacheEntry)
	m.mu.Unlock()

	m.setState(StoreStateClosed)
	m.logger.Debug("Memory cache store closed")
	return nil
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	if !m.IsOpen() {
		return "", false, errStoreClosed
	}

	if key == "" {
		return "", false, nil
	}

	now := m.now()

	m.mu.RLock()
	entry, exists := m.data[key]
	if !exists {
		m.mu.RUnlock()
		return "", false, nil
	}

	if entry.Expired(now) {
		m.mu.RUnlock()

		m.mu.Lock()
		if current, ok := m.data[key]; ok && current.Expired(now) {
			delete(m.data, key)
		}
		m.mu.Unlock()

		return "", false, nil
	}

	value := entry.Value
	m.mu.RUnlock()

	return value, true, nil
}

func (m *MemoryStore) Put(key, value string, ttl time.Duration) error {
	if !m.IsOpen() {
		return errStoreClosed
	}

	if key == "" {
		return types.ErrCacheKeyEmpty
	}

	now := m.now()
	entry := &types.CacheEntry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.MaxEntries > 0 {
		if _, exists := m.data[key]; !exists && len(m.data) >= m.config.MaxEntries {
			m.evictOneUnsafe(now)
		}
	}

	m.data[key] = entry
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	if !m.IsOpen() {
		return errStoreClosed
	}

	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Purge() int {
	if !m.IsOpen() {
		return 0
	}

	now := m.now()
	removed := 0

	m.mu.Lock()
	for key, entry := range m.data {
		if entry.Expired(now) {
			delete(m.data, key)
			removed++
		}
	}
	m.mu.Unlock()

	return removed
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// evictOneUnsafe drops an expired entry when there is one, otherwise the
// oldest entry.
func (m *MemoryStore) evictOneUnsafe(now time.Time) {
	var victim string
	var oldest time.Time

	for key, entry := range m.data {
		if entry.Expired(now) {
			victim = key
			break
		}
		if victim == "" || entry.CreatedAt.Before(oldest) {
			victim = key
			oldest = entry.CreatedAt
		}
	}

	if victim != "" {
		delete(m.data, victim)
		m.logger.Debug("Evicted oldest cache entry", zap.Int("max_entries", m.config.MaxEntries))
	}
}
