package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/utils"
)

// RedisConfig timeouts are in seconds.
type RedisConfig struct {
	Host               string `json:"host"`
	Port               int    `json:"port"`
	Password           string `json:"password"`
	DB                 int    `json:"db"`
	PoolSize           int    `json:"pool_size"`
	MinIdleConnections int    `json:"min_idle_connections"`
	DialTimeout        int    `json:"dial_timeout"`
	ReadTimeout        int    `json:"read_timeout"`
	WriteTimeout       int    `json:"write_timeout"`
	KeyPrefix          string `json:"key_prefix"`
}

type RedisStore struct {
	lifecycle
	ctx    context.Context
	logger types.Logger
	config *RedisConfig
	client *redis.Client
	mu     sync.RWMutex
}

func NewRedisStore(config *types.CacheConfig, logger types.Logger) (types.CacheStore, error) {
	redisConfig := &RedisConfig{
		Host:               "localhost",
		Port:               6379,
		PoolSize:           10,
		MinIdleConnections: 2,
		DialTimeout:        5,
		ReadTimeout:        3,
		WriteTimeout:       3,
		KeyPrefix:          "sai-authchain",
	}

	if config != nil && config.Config != nil {
		if err := utils.UnmarshalConfig(config.Config, redisConfig); err != nil {
			return nil, types.WrapError(err, "failed to unmarshal redis cache config")
		}
	}

	return &RedisStore{
		ctx:    context.Background(),
		logger: logger,
		config: redisConfig,
	}, nil
}

func (r *RedisStore) Open() error {
	if !r.transitionState(StoreStateClosed, StoreStateOpening) {
		return types.Errorf(types.ErrServerAlreadyRunning, "redis store")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", r.config.Host, r.config.Port),
		Password:     r.config.Password,
		DB:           r.config.DB,
		PoolSize:     r.config.PoolSize,
		MinIdleConns: r.config.MinIdleConnections,
		DialTimeout:  time.Duration(r.config.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(r.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(r.config.WriteTimeout) * time.Second,
	})

	if err := client.Ping(r.ctx).Err(); err != nil {
		_ = client.Close()
		r.setState(StoreStateClosed)
		return types.Errorf(types.ErrStoreUnavailable, "redis ping %s:%d: %v", r.config.Host, r.config.Port, err)
	}

	r.mu.Lock()
	r.client = client
	r.mu.Unlock()

	r.setState(StoreStateOpen)
	r.logger.Info("Redis cache store connected",
		zap.String("host", r.config.Host),
		zap.Int("port", r.config.Port),
		zap.Int("db", r.config.DB),
	)

	return nil
}

func (r *RedisStore) Close() error {
	if !r.transitionState(StoreStateOpen, StoreStateClosing) {
		return types.Errorf(types.ErrServerNotRunning, "redis store")
	}

	r.mu.Lock()
	err := r.client.Close()
	r.client = nil
	r.mu.Unlock()

	r.setState(StoreStateClosed)

	if err != nil {
		return types.WrapError(err, "failed to close redis client")
	}
	return nil
}

func (r *RedisStore) Get(key string) (string, bool, error) {
	client, err := r.getClient()
	if err != nil {
		return "", false, err
	}

	if key == "" {
		return "", false, nil
	}

	value, err := client.Get(r.ctx, r.buildFullKey(key)).Result()
	if err != nil {
		if types.IsError(err, redis.Nil) {
			return "", false, nil
		}
		r.logger.Error("Failed to get cache entry", zap.Error(err))
		return "", false, types.Errorf(types.ErrStoreUnavailable, "redis get: %v", err)
	}

	return value, true, nil
}

func (r *RedisStore) Put(key, value string, ttl time.Duration) error {
	client, err := r.getClient()
	if err != nil {
		return err
	}

	if key == "" {
		return types.ErrCacheKeyEmpty
	}

	if ttl < 0 {
		ttl = 0
	}

	if err := client.Set(r.ctx, r.buildFullKey(key), value, ttl).Err(); err != nil {
		r.logger.Error("Failed to set cache entry", zap.Error(err))
		return types.Errorf(types.ErrStoreUnavailable, "redis set: %v", err)
	}

	return nil
}

func (r *RedisStore) Delete(key string) error {
	client, err := r.getClient()
	if err != nil {
		return err
	}

	if key == "" {
		return nil
	}

	if err := client.Del(r.ctx, r.buildFullKey(key)).Err(); err != nil {
		r.logger.Error("Failed to delete cache entry", zap.Error(err))
		return types.Errorf(types.ErrStoreUnavailable, "redis del: %v", err)
	}

	return nil
}

func (r *RedisStore) Ping() error {
	client, err := r.getClient()
	if err != nil {
		return err
	}

	if err := client.Ping(r.ctx).Err(); err != nil {
		return types.Errorf(types.ErrStoreUnavailable, "redis ping: %v", err)
	}
	return nil
}

func (r *RedisStore) getClient() (*redis.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.client == nil || !r.IsOpen() {
		return nil, errStoreClosed
	}
	return r.client, nil
}

func (r *RedisStore) buildFullKey(key string) string {
	if r.config.KeyPrefix == "" {
		return key
	}
	return r.config.KeyPrefix + ":" + key
}
