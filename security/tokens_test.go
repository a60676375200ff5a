package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-authchain/cache"
	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/users"
)

func newTokenService(t *testing.T) (*TokenService, types.CacheStore, *users.MemoryUserService, *types.User) {
	t.Helper()

	log := logger.NewNop()

	store, err := cache.NewMemoryStore(nil, log)
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	userService := users.NewMemoryUserService()
	user := &types.User{Username: "admin", Nickname: "Admin"}
	require.NoError(t, userService.Create(context.Background(), user, "secret"))

	service := NewTokenService(store, userService, log, TokenServiceConfig{AccessTokenTTL: time.Hour})
	return service, store, userService, user
}

func get(t *testing.T, store types.CacheStore, key string) (string, bool) {
	t.Helper()
	value, ok, err := store.Get(key)
	require.NoError(t, err)
	return value, ok
}

func TestTokenService_Login(t *testing.T) {
	service, store, _, user := newTokenService(t)

	token, err := service.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, 3600, token.ExpiredIn)
	assert.NotEqual(t, token.AccessToken, token.RefreshToken)

	userID, ok := get(t, store, AccessTokenKey(token.AccessToken))
	require.True(t, ok)
	assert.Equal(t, user.ID, userID)

	access, ok := get(t, store, UserAccessTokenKey(user.ID))
	require.True(t, ok)
	assert.Equal(t, token.AccessToken, access)

	_, err = service.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, types.ErrBadCredentials)
}

func TestTokenService_IssueReplacesPreviousPair(t *testing.T) {
	service, store, _, user := newTokenService(t)

	first, err := service.Issue(user)
	require.NoError(t, err)
	second, err := service.Issue(user)
	require.NoError(t, err)

	_, ok := get(t, store, AccessTokenKey(first.AccessToken))
	assert.False(t, ok)
	_, ok = get(t, store, RefreshTokenKey(first.RefreshToken))
	assert.False(t, ok)
	_, ok = get(t, store, AccessTokenKey(second.AccessToken))
	assert.True(t, ok)
}

func TestTokenService_Refresh(t *testing.T) {
	service, store, userService, user := newTokenService(t)
	ctx := context.Background()

	issued, err := service.Issue(user)
	require.NoError(t, err)

	refreshed, err := service.Refresh(ctx, issued.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, issued.AccessToken, refreshed.AccessToken)

	_, ok := get(t, store, AccessTokenKey(issued.AccessToken))
	assert.False(t, ok)

	_, err = service.Refresh(ctx, issued.RefreshToken)
	assert.ErrorIs(t, err, types.ErrTokenExpiredOrInvalid)

	_, err = service.Refresh(ctx, "")
	assert.ErrorIs(t, err, types.ErrTokenMissing)

	require.NoError(t, userService.SetDisabled(user.ID, true))
	_, err = service.Refresh(ctx, refreshed.RefreshToken)
	assert.ErrorIs(t, err, types.ErrTokenExpiredOrInvalid)
}

func TestTokenService_Revoke(t *testing.T) {
	service, store, _, user := newTokenService(t)

	token, err := service.Issue(user)
	require.NoError(t, err)

	require.NoError(t, service.Revoke(user.ID))
	require.NoError(t, service.Revoke(user.ID))

	for _, key := range []string{
		AccessTokenKey(token.AccessToken),
		RefreshTokenKey(token.RefreshToken),
		UserAccessTokenKey(user.ID),
		UserRefreshTokenKey(user.ID),
	} {
		_, ok := get(t, store, key)
		assert.False(t, ok, key)
	}
}

func TestTokenService_ApiAccessKey(t *testing.T) {
	service, store, _, _ := newTokenService(t)
	service.config.ApiKeyTTL = time.Millisecond

	require.NoError(t, service.IssueApiAccessKey("forever", -1))
	require.NoError(t, service.IssueApiAccessKey("default", 0))
	assert.ErrorIs(t, service.IssueApiAccessKey("", time.Hour), types.ErrInvalidParameter)

	time.Sleep(5 * time.Millisecond)

	_, ok := get(t, store, ApiAccessKeyKey("forever"))
	assert.True(t, ok)
	_, ok = get(t, store, ApiAccessKeyKey("default"))
	assert.False(t, ok)

	require.NoError(t, service.RevokeApiAccessKey("forever"))
	_, ok = get(t, store, ApiAccessKeyKey("forever"))
	assert.False(t, ok)
}
