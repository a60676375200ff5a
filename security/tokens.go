package security

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-authchain/types"
)

const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

type TokenServiceConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// ApiKeyTTL applies when IssueApiAccessKey is called without a ttl.
	ApiKeyTTL time.Duration
}

// TokenService issues and revokes the credentials the filters look up.
type TokenService struct {
	store  types.CacheStore
	users  types.UserService
	logger types.Logger
	config TokenServiceConfig
}

func NewTokenService(store types.CacheStore, users types.UserService, logger types.Logger, config TokenServiceConfig) *TokenService {
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.RefreshTokenTTL <= 0 {
		config.RefreshTokenTTL = DefaultRefreshTokenTTL
	}

	return &TokenService{
		store:  store,
		users:  users,
		logger: logger,
		config: config,
	}
}

func (s *TokenService) Login(ctx context.Context, username, password string) (*types.AuthToken, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	return s.Issue(user)
}

// Issue replaces any token pair the user already holds.
func (s *TokenService) Issue(user *types.User) (*types.AuthToken, error) {
	if user == nil || user.ID == "" {
		return nil, types.Errorf(types.ErrInvalidParameter, "user is empty")
	}

	if err := s.Revoke(user.ID); err != nil {
		return nil, err
	}

	token := &types.AuthToken{
		AccessToken:  uuid.NewString(),
		ExpiredIn:    int(s.config.AccessTokenTTL.Seconds()),
		RefreshToken: uuid.NewString(),
	}

	puts := []struct {
		key   string
		value string
		ttl   time.Duration
	}{
		{AccessTokenKey(token.AccessToken), user.ID, s.config.AccessTokenTTL},
		{RefreshTokenKey(token.RefreshToken), user.ID, s.config.RefreshTokenTTL},
		{UserAccessTokenKey(user.ID), token.AccessToken, s.config.AccessTokenTTL},
		{UserRefreshTokenKey(user.ID), token.RefreshToken, s.config.RefreshTokenTTL},
	}

	for _, p := range puts {
		if err := s.store.Put(p.key, p.value, p.ttl); err != nil {
			return nil, types.WrapError(err, "failed to store token")
		}
	}

	s.logger.Info("Admin token issued", zap.String("user_id", user.ID))
	return token, nil
}

func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*types.AuthToken, error) {
	if refreshToken == "" {
		return nil, types.ErrTokenMissing
	}

	userID, ok, err := s.store.Get(RefreshTokenKey(refreshToken))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.Errorf(types.ErrTokenExpiredOrInvalid, "refresh token")
	}

	user, found, err := s.users.FindByCredential(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found || user.Disabled {
		return nil, types.Errorf(types.ErrTokenExpiredOrInvalid, "token owner is unknown or disabled")
	}

	return s.Issue(user)
}

// Revoke deletes both tokens of the user. Missing tokens are not an error.
func (s *TokenService) Revoke(userID string) error {
	if err := s.revokeByUser(UserAccessTokenKey(userID), AccessTokenKey); err != nil {
		return err
	}
	return s.revokeByUser(UserRefreshTokenKey(userID), RefreshTokenKey)
}

func (s *TokenService) revokeByUser(userKey string, tokenKey func(string) string) error {
	token, ok, err := s.store.Get(userKey)
	if err != nil {
		return err
	}

	if ok {
		if err := s.store.Delete(tokenKey(token)); err != nil {
			return err
		}
	}

	return s.store.Delete(userKey)
}

// IssueApiAccessKey registers key for the public API. A zero ttl falls back
// to the configured default; a negative ttl never expires.
func (s *TokenService) IssueApiAccessKey(key string, ttl time.Duration) error {
	if key == "" {
		return types.Errorf(types.ErrInvalidParameter, "api access key is empty")
	}

	if ttl == 0 {
		ttl = s.config.ApiKeyTTL
	}

	return s.store.Put(ApiAccessKeyKey(key), key, ttl)
}

func (s *TokenService) RevokeApiAccessKey(key string) error {
	return s.store.Delete(ApiAccessKeyKey(key))
}
