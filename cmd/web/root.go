package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/spahost/internal/config"
	"github.com/yanizio/spahost/internal/logger"
	"github.com/yanizio/spahost/internal/vault"
)

var rootFlags struct {
	dev bool
}

var rootCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve a pre-built single-page app with health probes",
	Long: `web serves a pre-built single-page application: static assets, the
entry document for client-side routes, and JSON health probes for the
database and an external service.

With no sub-command it behaves like "web serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootFlags.dev, "dev", false,
		"force the DEVELOPMENT profile (sets "+config.ProfileEnvVar+")")
	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		if rootFlags.dev {
			return os.Setenv(config.ProfileEnvVar, string(config.Development))
		}
		return nil
	}
}

//
// Shared boot steps
//

// boot loads configuration and installs the file logger.
func boot() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	lg, err := logger.New(logger.Options{
		Dir:   cfg.Log.Dir,
		Level: cfg.Log.Level,
		Tee:   logger.RunningInTTY(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start logger: %w", err)
	}
	return cfg, lg, nil
}

// secretResolver returns a Vault client when VAULT_ADDR is set, or nil.
func secretResolver(ctx context.Context) (config.SecretResolver, error) {
	if !vault.Configured() {
		return nil, nil
	}
	c, err := vault.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	zap.S().Infow("vault secret resolver enabled", "addr", os.Getenv(vault.AddrEnvVar))
	return c, nil
}
