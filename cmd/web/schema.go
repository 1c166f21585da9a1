package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanizio/spahost/internal/config"
	"github.com/yanizio/spahost/internal/database"
	"github.com/yanizio/spahost/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the database tables and exit",
	Long: `Create the user and post tables in the database selected by the
active profile (DB_* in PRODUCTION, LOCAL_* otherwise).  Statements use
IF NOT EXISTS, so running it twice is safe.  Exits 0 on success, 1 on
failure.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, log, err := boot()
	if err != nil {
		return err
	}
	defer log.Sync()

	secrets, err := secretResolver(ctx)
	if err != nil {
		return err
	}
	pool := database.NewPool(config.NewRegistry(cfg.Profile, secrets), database.DefaultOptions)
	defer pool.Close()

	fmt.Fprintln(out, "Creating database schema...")
	db, err := pool.Acquire(ctx)
	if err != nil {
		log.Errorw("schema creation failed", "err", err)
		return fmt.Errorf("schema creation failed: %w", err)
	}
	if err := schema.Create(ctx, db); err != nil {
		log.Errorw("schema creation failed", "err", err)
		return fmt.Errorf("schema creation failed: %w", err)
	}
	fmt.Fprintln(out, "Schema creation completed successfully")
	return nil
}
