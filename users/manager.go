package users

import (
	"context"

	"github.com/saiset-co/sai-authchain/types"
)

// Store is a UserService that can also create accounts.
type Store interface {
	types.UserService
	Create(ctx context.Context, user *types.User, password string) error
}

func NewUserStore(ctx context.Context, config *types.UsersConfig, logger types.Logger) (Store, error) {
	if config == nil {
		return nil, types.Errorf(types.ErrConfigNotFound, "users section")
	}

	switch config.Type {
	case "memory", "":
		return NewMemoryUserService(), nil
	case "sqlite":
		return NewSQLiteUserService(ctx, config.DSN, logger)
	default:
		return nil, types.Errorf(types.ErrUserStoreTypeUnknown, "type: %s", config.Type)
	}
}
