package filter

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/cache"
	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/users"
)

func newCtx(method, uri string) *fasthttp.RequestCtx {
	req := fasthttp.AcquireRequest()
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(req, nil, nil)
	return ctx
}

func newStore(t *testing.T) types.CacheStore {
	t.Helper()

	store, err := cache.NewMemoryStore(nil, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newUsers(t *testing.T, accounts ...*types.User) *users.MemoryUserService {
	t.Helper()

	service := users.NewMemoryUserService()
	for _, account := range accounts {
		require.NoError(t, service.Create(context.Background(), account, "secret"))
	}
	return service
}

// countingStore records every Get so tests can assert the store was untouched.
type countingStore struct {
	types.CacheStore
	gets int32
	err  error
}

func (s *countingStore) Get(key string) (string, bool, error) {
	atomic.AddInt32(&s.gets, 1)
	if s.err != nil {
		return "", false, s.err
	}
	return s.CacheStore.Get(key)
}

// failingUsers is a user service whose backend is down.
type failingUsers struct {
	err error
}

func (u failingUsers) FindByCredential(context.Context, string) (*types.User, bool, error) {
	return nil, false, u.err
}

func (u failingUsers) First(context.Context) (*types.User, bool, error) {
	return nil, false, u.err
}

func (u failingUsers) Authenticate(context.Context, string, string) (*types.User, error) {
	return nil, u.err
}

type recordingHandler struct {
	calls int
	err   error
}

func (h *recordingHandler) Handle(ctx *fasthttp.RequestCtx, err error) {
	h.calls++
	h.err = err
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
}

func nextRecorder(called *bool) types.FastHTTPHandler {
	return func(ctx *fasthttp.RequestCtx) {
		*called = true
		ctx.SetStatusCode(fasthttp.StatusOK)
	}
}
