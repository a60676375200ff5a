package filter

import (
	"github.com/valyala/fasthttp"

	"github.com/saiset-co/sai-authchain/types"
)

const authenticationKeyPrefix = "sai.authentication."

const (
	ScopeApi   = "api"
	ScopeAdmin = "admin"
)

// SetAuthentication records the outcome of a filter on the request. Each
// scope keeps its own marker.
func SetAuthentication(ctx *fasthttp.RequestCtx, auth *types.Authentication) {
	ctx.SetUserValue(authenticationKeyPrefix+auth.Scope, auth)
}

func AuthenticationFrom(ctx *fasthttp.RequestCtx, scope string) (*types.Authentication, bool) {
	auth, ok := ctx.UserValue(authenticationKeyPrefix + scope).(*types.Authentication)
	return auth, ok && auth != nil
}

// CurrentUser returns the admin user authenticated for this request.
func CurrentUser(ctx *fasthttp.RequestCtx) (*types.User, bool) {
	auth, ok := AuthenticationFrom(ctx, ScopeAdmin)
	if !ok || !auth.IsAuthenticated() || auth.User == nil {
		return nil, false
	}
	return auth.User, true
}
