package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sai-authchain",
		Short: "Token authentication filter chain for the admin and content API",
		Long: `sai-authchain guards the admin area and the public content API with
tokens held in an expiring cache store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "path to the YAML config file")

	rootCmd.AddCommand(
		serveCmd(),
		userCmd(),
		apiKeyCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sai-authchain %s (%s)\n", version, commit)
		},
	}
}
