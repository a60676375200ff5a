package filter

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/security"
	"github.com/saiset-co/sai-authchain/types"
)

const (
	AdminTokenHeader = "ADMIN-Authorization"
	AdminTokenParam  = "admin_token"
)

type AdminAuthenticatorConfig struct {
	// AuthEnabled false logs every request in as the first user.
	AuthEnabled bool
	// Roles admitted to the admin area. Empty admits every role.
	Roles []string
}

// AdminAuthenticator resolves admin access tokens to users and checks the
// account is still valid.
type AdminAuthenticator struct {
	store       types.CacheStore
	users       types.UserService
	logger      types.Logger
	authEnabled bool
	roles       map[string]struct{}
}

func NewAdminAuthenticator(store types.CacheStore, users types.UserService, logger types.Logger, config AdminAuthenticatorConfig) *AdminAuthenticator {
	roles := make(map[string]struct{}, len(config.Roles))
	for _, role := range config.Roles {
		roles[role] = struct{}{}
	}

	return &AdminAuthenticator{
		store:       store,
		users:       users,
		logger:      logger,
		authEnabled: config.AuthEnabled,
		roles:       roles,
	}
}

func (a *AdminAuthenticator) Scope() string {
	return ScopeAdmin
}

func (a *AdminAuthenticator) Authenticate(ctx *fasthttp.RequestCtx) (*types.Authentication, error) {
	if !a.authEnabled {
		return a.authenticateFirstUser(ctx)
	}

	token := stripBearer(extractCredential(ctx, AdminTokenHeader, AdminTokenParam))
	if token == "" {
		return nil, types.NewAuthenticationError(types.ErrTokenMissing, "missing "+AdminTokenHeader+" header or "+AdminTokenParam+" parameter")
	}

	userID, ok, err := a.store.Get(security.AccessTokenKey(token))
	if err != nil {
		return nil, types.NewAuthenticationError(err, "failed to resolve admin token")
	}

	if !ok {
		return nil, types.NewAuthenticationError(types.ErrTokenExpiredOrInvalid, "admin token not found").WithData(token)
	}

	user, found, err := a.users.FindByCredential(ctx, userID)
	if err != nil {
		return nil, types.NewAuthenticationError(err, "failed to look up token owner")
	}

	if !found || user.Disabled {
		return nil, types.NewAuthenticationError(types.ErrTokenExpiredOrInvalid, "token owner is unknown or disabled").WithData(token)
	}

	if !a.admits(user.Role) {
		return nil, types.NewAuthenticationError(types.ErrInsufficientPrivilege, "role "+user.Role+" may not access the admin area")
	}

	return &types.Authentication{
		Scope: ScopeAdmin,
		State: types.Authenticated,
		Token: token,
		User:  user,
	}, nil
}

func (a *AdminAuthenticator) authenticateFirstUser(ctx *fasthttp.RequestCtx) (*types.Authentication, error) {
	user, found, err := a.users.First(ctx)
	if err != nil {
		return nil, types.NewAuthenticationError(err, "failed to load first user")
	}

	if !found {
		return nil, types.NewAuthenticationError(types.ErrTokenMissing, "authentication disabled but no user exists")
	}

	a.logger.Debug("Admin authentication disabled, using first user", zap.String("user_id", user.ID))

	return &types.Authentication{
		Scope: ScopeAdmin,
		State: types.Authenticated,
		User:  user,
	}, nil
}

func (a *AdminAuthenticator) admits(role string) bool {
	if len(a.roles) == 0 {
		return true
	}
	_, ok := a.roles[role]
	return ok
}
