package cache

import (
	"time"

	"github.com/saiset-co/sai-authchain/types"
)

var customStoreCreators = make(map[string]types.CacheStoreCreator)

// Register makes a custom backend selectable by cache.type.
func Register(storeName string, creator types.CacheStoreCreator) {
	customStoreCreators[storeName] = creator
}

func NewCacheStore(config *types.CacheConfig, logger types.Logger, metrics types.MetricsManager) (types.CacheStore, error) {
	if config == nil {
		return nil, types.Errorf(types.ErrConfigNotFound, "cache section")
	}

	var impl types.CacheStore
	var err error

	switch config.Type {
	case "memory", "":
		impl, err = NewMemoryStore(config, logger)
	case "lru":
		impl, err = NewLRUStore(config, logger)
	case "redis":
		impl, err = NewRedisStore(config, logger)
	default:
		creator, exists := customStoreCreators[config.Type]
		if !exists {
			return nil, types.Errorf(types.ErrCacheTypeUnknown, "type: %s", config.Type)
		}
		impl, err = creator(config, logger)
	}

	if err != nil {
		return nil, err
	}

	if metrics == nil {
		return impl, nil
	}

	return newInstrumentedStore(metrics, impl), nil
}

type instrumentedStore struct {
	impl    types.CacheStore
	metrics types.MetricsManager
}

func newInstrumentedStore(metrics types.MetricsManager, impl types.CacheStore) *instrumentedStore {
	return &instrumentedStore{
		impl:    impl,
		metrics: metrics,
	}
}

func (s *instrumentedStore) Open() error {
	start := time.Now()
	err := s.impl.Open()
	s.recordMetric("open", errorResult(err), time.Since(start))
	return err
}

func (s *instrumentedStore) Close() error {
	return s.impl.Close()
}

func (s *instrumentedStore) IsOpen() bool {
	return s.impl.IsOpen()
}

func (s *instrumentedStore) Get(key string) (string, bool, error) {
	start := time.Now()
	value, exists, err := s.impl.Get(key)
	duration := time.Since(start)

	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case exists:
		result = "hit"
	}

	s.recordMetric("get", result, duration)
	return value, exists, err
}

func (s *instrumentedStore) Put(key, value string, ttl time.Duration) error {
	start := time.Now()
	err := s.impl.Put(key, value, ttl)
	s.recordMetric("put", errorResult(err), time.Since(start))
	return err
}

func (s *instrumentedStore) Delete(key string) error {
	start := time.Now()
	err := s.impl.Delete(key)
	s.recordMetric("delete", errorResult(err), time.Since(start))
	return err
}

func (s *instrumentedStore) Purge() int {
	purger, ok := s.impl.(types.Purger)
	if !ok {
		return 0
	}

	start := time.Now()
	removed := purger.Purge()
	s.recordMetric("purge", "success", time.Since(start))
	return removed
}

func (s *instrumentedStore) Ping() error {
	pinger, ok := s.impl.(types.Pinger)
	if !ok {
		return nil
	}
	return pinger.Ping()
}

func (s *instrumentedStore) recordMetric(operation, result string, duration time.Duration) {
	s.metrics.Counter("cache_operations_total", map[string]string{
		"operation": operation,
		"result":    result,
	}).Inc()

	s.metrics.Histogram("cache_operation_duration_seconds",
		[]float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		map[string]string{"operation": operation},
	).Observe(duration.Seconds())
}

func errorResult(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
