package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/types"
)

func newRedisStore(t *testing.T, mr *miniredis.Miniredis) *RedisStore {
	t.Helper()

	store, err := NewRedisStore(&types.CacheConfig{
		Type: "redis",
		Config: map[string]interface{}{
			"host":          mr.Host(),
			"port":          mr.Server().Addr().Port,
			"key_prefix":    "test",
			"dial_timeout":  1,
			"read_timeout":  1,
			"write_timeout": 1,
		},
	}, logger.NewNop())
	require.NoError(t, err)

	return store.(*RedisStore)
}

func TestRedisStore_PutGetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	store := newRedisStore(t, mr)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Put("admin_access_token:abc", "42", 0))

	value, ok, err := store.Get("admin_access_token:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", value)

	raw, err := mr.Get("test:admin_access_token:abc")
	require.NoError(t, err)
	assert.Equal(t, "42", raw)
	assert.Equal(t, time.Duration(0), mr.TTL("test:admin_access_token:abc"))

	require.NoError(t, store.Delete("admin_access_token:abc"))
	require.NoError(t, store.Delete("admin_access_token:abc"))

	_, ok, err = store.Get("admin_access_token:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_NativeTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	store := newRedisStore(t, mr)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Put("k", "v", 1500*time.Millisecond))
	assert.Equal(t, 1500*time.Millisecond, mr.TTL("test:k"))

	mr.FastForward(2 * time.Second)

	_, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Outage(t *testing.T) {
	mr := miniredis.RunT(t)
	store := newRedisStore(t, mr)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	mr.Close()

	_, _, err := store.Get("k")
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Put("k", "v", 0), types.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Ping(), types.ErrStoreUnavailable)
}

func TestRedisStore_OpenFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	store := newRedisStore(t, mr)
	mr.Close()

	err := store.Open()
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
	assert.False(t, store.IsOpen())
}
