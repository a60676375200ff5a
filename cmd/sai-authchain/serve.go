package main

import (
	"github.com/spf13/cobra"

	"github.com/saiset-co/sai-authchain/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			svc, err := service.NewService(cmd.Context(), configPath)
			if err != nil {
				return err
			}

			return svc.Run()
		},
	}
}
