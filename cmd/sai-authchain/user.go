package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saiset-co/sai-authchain/config"
	"github.com/saiset-co/sai-authchain/logger"
	"github.com/saiset-co/sai-authchain/types"
	"github.com/saiset-co/sai-authchain/users"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin accounts",
	}

	cmd.AddCommand(userAddCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var (
		username string
		password string
		nickname string
		email    string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an admin account in the configured user store",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := config.NewLoader().LoadFromFile(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			if cfg.Users.Type != "sqlite" {
				return types.Errorf(types.ErrInvalidParameter, "user add needs a persistent store, users.type is %q", cfg.Users.Type)
			}

			store, err := users.NewUserStore(cmd.Context(), cfg.Users, logger.NewNop())
			if err != nil {
				return err
			}
			if closer, ok := store.(interface{ Close() error }); ok {
				defer closer.Close()
			}

			user := &types.User{
				Username: username,
				Nickname: nickname,
				Email:    email,
				Role:     role,
			}
			if err := store.Create(cmd.Context(), user, password); err != nil {
				return err
			}

			fmt.Printf("created user %s (%s) with role %s\n", user.Username, user.ID, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.Flags().StringVar(&nickname, "nickname", "", "display name used as comment author")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", types.RoleAdmin, "account role")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
