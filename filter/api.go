package filter

import (
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/security"
	"github.com/saiset-co/sai-authchain/types"
)

const (
	ApiAccessKeyHeader = "API-Authorization"
	ApiAccessKeyParam  = "api_access_key"
)

// ApiAuthenticator validates access keys for the public content API.
type ApiAuthenticator struct {
	store   types.CacheStore
	enabled bool
}

func NewApiAuthenticator(store types.CacheStore, enabled bool) *ApiAuthenticator {
	return &ApiAuthenticator{
		store:   store,
		enabled: enabled,
	}
}

func (a *ApiAuthenticator) Scope() string {
	return ScopeApi
}

func (a *ApiAuthenticator) Authenticate(ctx *fasthttp.RequestCtx) (*types.Authentication, error) {
	if !a.enabled {
		return nil, types.NewAuthenticationError(types.ErrApiDisabled, "api access is disabled by configuration")
	}

	key := extractCredential(ctx, ApiAccessKeyHeader, ApiAccessKeyParam)
	if key == "" {
		return nil, types.NewAuthenticationError(types.ErrTokenMissing, "missing "+ApiAccessKeyHeader+" header or "+ApiAccessKeyParam+" parameter")
	}

	_, ok, err := a.store.Get(security.ApiAccessKeyKey(key))
	if err != nil {
		return nil, types.NewAuthenticationError(err, "failed to resolve api access key")
	}

	if !ok {
		return nil, types.NewAuthenticationError(types.ErrTokenExpiredOrInvalid, "api access key not found").WithData(key)
	}

	return &types.Authentication{
		Scope: ScopeApi,
		State: types.Authenticated,
		Token: key,
	}, nil
}
