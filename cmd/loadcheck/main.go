// Package main implements loadcheck, a smoke tool run against a live venuely API.
package main

import (
	"fmt"
	"os"
	"time"

	"venuely/internal/shared/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// baseURL is the API root including the version prefix
	baseURL string
	timeout time.Duration
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loadcheck",
	Short: "Smoke checks against a running venuely API",
	Long: `loadcheck exercises a running venuely API.
It signs its own tokens with JWT_SECRET, so it must share the server's environment.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()
		if cfg.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET is empty")
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "server", "http://localhost:8080/api/v1", "API base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "per request timeout")
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(oversellCmd)
}
