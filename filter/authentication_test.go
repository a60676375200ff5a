package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/metrics"
	"github.com/saiset-co/sai-authchain/pattern"
	"github.com/saiset-co/sai-authchain/security"
	"github.com/saiset-co/sai-authchain/types"
)

func newAdminFilter(t *testing.T, store types.CacheStore, userService types.UserService, handler types.FailureHandler, opts ...Option) *AuthenticationFilter {
	t.Helper()

	authenticator := NewAdminAuthenticator(store, userService, logger.NewNop(), AdminAuthenticatorConfig{
		AuthEnabled: true,
		Roles:       []string{types.RoleAdmin, types.RoleEditor},
	})

	opts = append([]Option{
		WithExcludeRules(pattern.MustRuleSet(pattern.Any("/admin/api/login"))),
		WithTryAuthRules(pattern.MustRuleSet(
			pattern.Method("POST", "/admin/api/comments"),
			pattern.Method("POST", "/api/comments"),
		)),
	}, opts...)

	return NewAuthenticationFilter("admin", authenticator, handler, logger.NewNop(), opts...)
}

func TestAuthenticationFilter_ExcludedNeverTouchesStore(t *testing.T) {
	store := &countingStore{CacheStore: newStore(t)}
	handler := &recordingHandler{}
	f := newAdminFilter(t, store, newUsers(t), handler)

	for _, method := range []string{"POST", "GET"} {
		ctx := newCtx(method, "/admin/api/login")
		called := false
		f.DoFilter(ctx, nextRecorder(&called))

		assert.True(t, called)
		assert.Equal(t, 0, handler.calls)
	}

	assert.Equal(t, int32(0), store.gets)
}

func TestAuthenticationFilter_TryAuthMarksAnonymous(t *testing.T) {
	handler := &recordingHandler{}
	f := newAdminFilter(t, newStore(t), newUsers(t), handler)

	ctx := newCtx("POST", "/api/comments")
	called := false
	f.DoFilter(ctx, nextRecorder(&called))

	assert.True(t, called)
	assert.Equal(t, 0, handler.calls)

	auth, ok := AuthenticationFrom(ctx, ScopeAdmin)
	require.True(t, ok)
	assert.Equal(t, types.Anonymous, auth.State)
	assert.False(t, auth.IsAuthenticated())

	_, ok = CurrentUser(ctx)
	assert.False(t, ok)
}

func TestAuthenticationFilter_TryAuthIsMethodBound(t *testing.T) {
	handler := &recordingHandler{}
	f := newAdminFilter(t, newStore(t), newUsers(t), handler)

	called := false
	f.DoFilter(newCtx("GET", "/admin/api/comments"), nextRecorder(&called))

	assert.False(t, called)
	assert.Equal(t, 1, handler.calls)
	assert.ErrorIs(t, handler.err, types.ErrTokenMissing)
}

func TestAuthenticationFilter_ValidToken(t *testing.T) {
	store := newStore(t)
	admin := &types.User{Username: "admin", Nickname: "Admin"}
	handler := &recordingHandler{}
	f := newAdminFilter(t, store, newUsers(t, admin), handler)

	require.NoError(t, store.Put(security.AccessTokenKey("tok"), admin.ID, time.Hour))

	ctx := newCtx("GET", "/admin/dashboard")
	ctx.Request.Header.Set(AdminTokenHeader, "Bearer tok")

	called := false
	f.DoFilter(ctx, nextRecorder(&called))

	assert.True(t, called)
	assert.Equal(t, 0, handler.calls)

	user, ok := CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "Admin", user.Nickname)

	auth, _ := AuthenticationFrom(ctx, ScopeAdmin)
	assert.Equal(t, "tok", auth.Token)
}

func TestAuthenticationFilter_ExpiredTokenEqualsMissing(t *testing.T) {
	store := newStore(t)
	admin := &types.User{Username: "admin"}
	handler := &recordingHandler{}
	f := newAdminFilter(t, store, newUsers(t, admin), handler)

	require.NoError(t, store.Put(security.AccessTokenKey("old"), admin.ID, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	ctx := newCtx("GET", "/admin/dashboard?admin_token=old")
	decision, err := f.Evaluate(ctx)

	assert.Equal(t, types.Reject, decision)
	assert.ErrorIs(t, err, types.ErrTokenExpiredOrInvalid)

	var authErr *types.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "old", authErr.Data)
}

func TestAuthenticationFilter_StoreOutageRejectsEvenOnTryAuth(t *testing.T) {
	store := &countingStore{
		CacheStore: newStore(t),
		err:        types.Errorf(types.ErrStoreUnavailable, "redis get: connection refused"),
	}
	handler := &recordingHandler{}
	f := newAdminFilter(t, store, newUsers(t), handler)

	ctx := newCtx("POST", "/api/comments")
	ctx.Request.Header.Set(AdminTokenHeader, "tok")

	called := false
	f.DoFilter(ctx, nextRecorder(&called))

	assert.False(t, called)
	require.Equal(t, 1, handler.calls)
	assert.ErrorIs(t, handler.err, types.ErrStoreUnavailable)

	kind, status := types.ClassifyError(handler.err)
	assert.Equal(t, types.KindStoreUnavailable, kind)
	assert.Equal(t, 503, status)
}

func TestAuthenticationFilter_UserLookupFaultRejectsEvenOnTryAuth(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Put(security.AccessTokenKey("tok"), "user-1", time.Hour))

	handler := &recordingHandler{}
	f := newAdminFilter(t, store, failingUsers{err: errors.New("sql: database is locked")}, handler)

	for _, uri := range []string{"/api/comments", "/admin/api/comments"} {
		ctx := newCtx("POST", uri)
		ctx.Request.Header.Set(AdminTokenHeader, "tok")

		decision, err := f.Evaluate(ctx)
		assert.Equal(t, types.Reject, decision, uri)
		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrTokenExpiredOrInvalid)

		_, marked := AuthenticationFrom(ctx, ScopeAdmin)
		assert.False(t, marked)

		kind, status := types.ClassifyError(err)
		assert.Equal(t, types.KindInternalError, kind)
		assert.Equal(t, 500, status)
	}

	called := false
	ctx := newCtx("POST", "/api/comments")
	ctx.Request.Header.Set(AdminTokenHeader, "tok")
	f.DoFilter(ctx, nextRecorder(&called))

	assert.False(t, called)
	assert.Equal(t, 1, handler.calls)
}

func TestAuthenticationFilter_RecordsDecisions(t *testing.T) {
	m, err := metrics.NewPrometheusMetrics(&types.MetricsConfig{Enabled: true, Namespace: "test", Path: "/metrics"}, logger.NewNop())
	require.NoError(t, err)

	f := newAdminFilter(t, newStore(t), newUsers(t), &recordingHandler{}, WithMetrics(m))

	_, _ = f.Evaluate(newCtx("POST", "/admin/api/login"))
	_, _ = f.Evaluate(newCtx("POST", "/api/comments"))
	_, _ = f.Evaluate(newCtx("GET", "/admin/dashboard"))

	count := func(decision, reason string) float64 {
		return m.Counter("auth_decisions_total", map[string]string{"filter": "admin", "decision": decision, "reason": reason}).Get()
	}

	assert.Equal(t, float64(1), count("pass", "excluded"))
	assert.Equal(t, float64(1), count("pass", "anonymous"))
	assert.Equal(t, float64(1), count("reject", "rejected"))
}
