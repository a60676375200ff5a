package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/cache"
	"github.com/saiset-co/sai-authchain/failure"
	"github.com/saiset-co/sai-authchain/filter"
	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/security"
	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/users"
	"github.com/saiset-co/sai-authchain/utils"
)

type fixture struct {
	store    types.CacheStore
	users    *users.MemoryUserService
	tokens   *security.TokenService
	handlers *AdminHandlers
	router   *Router
	admin    *types.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.NewNop()
	store, err := cache.NewMemoryStore(nil, log)
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	accounts := users.NewMemoryUserService()
	admin := &types.User{Username: "root", Nickname: "Root", Role: types.RoleAdmin}
	require.NoError(t, accounts.Create(context.Background(), admin, "secret"))

	tokens := security.NewTokenService(store, accounts, log, security.TokenServiceConfig{})
	handlers := NewAdminHandlers(tokens, failure.NewAdminHandler(failure.FailureContext{}, log), log)

	router := NewRouter()
	require.NoError(t, handlers.Register(router))

	return &fixture{
		store:    store,
		users:    accounts,
		tokens:   tokens,
		handlers: handlers,
		router:   router,
		admin:    admin,
	}
}

func authenticate(ctx *fasthttp.RequestCtx, user *types.User) {
	filter.SetAuthentication(ctx, &types.Authentication{
		Scope: filter.ScopeAdmin,
		State: types.Authenticated,
		User:  user,
	})
}

func TestAdminHandlers_Login(t *testing.T) {
	f := newFixture(t)

	ctx := newCtx(fasthttp.MethodPost, "/admin/api/login", []byte(`{"username":"root","password":"secret"}`))
	f.router.Handle(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "no-cache, no-store, must-revalidate", string(ctx.Response.Header.Peek("Cache-Control")))

	var token types.AuthToken
	require.NoError(t, utils.Unmarshal(ctx.Response.Body(), &token))
	assert.NotEmpty(t, token.AccessToken)
	assert.NotEmpty(t, token.RefreshToken)

	userID, ok, err := f.store.Get(security.AccessTokenKey(token.AccessToken))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, f.admin.ID, userID)

	ctx = newCtx(fasthttp.MethodPost, "/admin/api/login", []byte(`{"username":"root","password":"wrong"}`))
	f.router.Handle(ctx)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	ctx = newCtx(fasthttp.MethodPost, "/admin/api/login", []byte(`{"username":""}`))
	f.router.Handle(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = newCtx(fasthttp.MethodPost, "/admin/api/login", []byte(`not json`))
	f.router.Handle(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestAdminHandlers_RefreshAndLogout(t *testing.T) {
	f := newFixture(t)

	issued, err := f.tokens.Issue(f.admin)
	require.NoError(t, err)

	ctx := newCtx(fasthttp.MethodPost, "/admin/api/refresh?refresh_token="+issued.RefreshToken, nil)
	f.router.Handle(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var refreshed types.AuthToken
	require.NoError(t, utils.Unmarshal(ctx.Response.Body(), &refreshed))
	assert.NotEqual(t, issued.AccessToken, refreshed.AccessToken)

	_, ok, err := f.store.Get(security.AccessTokenKey(issued.AccessToken))
	require.NoError(t, err)
	assert.False(t, ok, "old access token must be revoked")

	ctx = newCtx(fasthttp.MethodPost, "/admin/api/refresh?refresh_token="+issued.RefreshToken, nil)
	f.router.Handle(ctx)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	ctx = newCtx(fasthttp.MethodPost, "/admin/api/logout", nil)
	authenticate(ctx, f.admin)
	f.router.Handle(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	_, ok, err = f.store.Get(security.AccessTokenKey(refreshed.AccessToken))
	require.NoError(t, err)
	assert.False(t, ok)

	ctx = newCtx(fasthttp.MethodPost, "/admin/api/logout", nil)
	f.router.Handle(ctx)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestAdminHandlers_Profile(t *testing.T) {
	f := newFixture(t)

	ctx := newCtx(fasthttp.MethodGet, "/admin/api/users/profile", nil)
	authenticate(ctx, f.admin)
	f.router.Handle(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var profile types.User
	require.NoError(t, utils.Unmarshal(ctx.Response.Body(), &profile))
	assert.Equal(t, "root", profile.Username)
}

func TestAdminHandlers_Comment(t *testing.T) {
	f := newFixture(t)

	ctx := newCtx(fasthttp.MethodPost, "/api/comments", []byte(`{"content":"hello"}`))
	f.router.Handle(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var comment CommentResponse
	require.NoError(t, utils.Unmarshal(ctx.Response.Body(), &comment))
	assert.Equal(t, CommentResponse{Author: "anonymous", Content: "hello"}, comment)

	ctx = newCtx(fasthttp.MethodPost, "/admin/api/comments", []byte(`{"content":"hi"}`))
	authenticate(ctx, f.admin)
	f.router.Handle(ctx)
	require.NoError(t, utils.Unmarshal(ctx.Response.Body(), &comment))
	assert.Equal(t, "Root", comment.Author)
}
