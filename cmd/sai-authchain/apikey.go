package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/saiset-co/sai-authchain/cache"
	"github.com/saiset-co/sai-authchain/config"
	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/security"
	"github.com/saiset-co/sai-authchain/types"
)

func apiKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage public API access keys in a shared cache store",
	}

	cmd.AddCommand(apiKeyIssueCmd(), apiKeyRevokeCmd())
	return cmd
}

func apiKeyIssueCmd() *cobra.Command {
	var (
		key string
		ttl time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Store an API access key, generating one when --key is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = uuid.NewString()
			}

			return withTokenService(cmd, func(tokens *security.TokenService) error {
				if err := tokens.IssueApiAccessKey(key, ttl); err != nil {
					return err
				}
				fmt.Println(key)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "access key value")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "key lifetime, 0 uses cache.default_ttl, negative never expires")
	return cmd
}

func apiKeyRevokeCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Delete an API access key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokenService(cmd, func(tokens *security.TokenService) error {
				return tokens.RevokeApiAccessKey(key)
			})
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "access key value")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// withTokenService opens the configured cache store. Only the redis backend
// is shared with a running server.
func withTokenService(cmd *cobra.Command, fn func(tokens *security.TokenService) error) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.NewLoader().LoadFromFile(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	if cfg.Cache.Type != "redis" {
		return types.Errorf(types.ErrInvalidParameter, "api keys can only be managed offline with a redis cache, cache.type is %q", cfg.Cache.Type)
	}

	log := logger.NewNop()
	store, err := cache.NewCacheStore(cfg.Cache, log, nil)
	if err != nil {
		return err
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	tokens := security.NewTokenService(store, nil, log, security.TokenServiceConfig{ApiKeyTTL: cfg.Cache.DefaultTTL})
	return fn(tokens)
}
