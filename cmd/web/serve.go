package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/yanizio/spahost/internal/app"
	"github.com/yanizio/spahost/internal/config"
	"github.com/yanizio/spahost/internal/database"
	"github.com/yanizio/spahost/internal/health"
	"github.com/yanizio/spahost/internal/requestinfo"
	"github.com/yanizio/spahost/internal/server"
	"github.com/yanizio/spahost/internal/spa"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP host until SIGINT or SIGTERM",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, err := boot()
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Infow("host starting", "profile", cfg.Profile, "root", cfg.Paths.Root)

	//
	// ── 1.  Settings Registry and lazy storage pool ─────────────────────
	//
	secrets, err := secretResolver(ctx)
	if err != nil {
		return err
	}
	registry := config.NewRegistry(cfg.Profile, secrets)
	if _, err := registry.Settings(ctx); err != nil {
		// Not fatal: /health/db reports unreachable until fixed.
		log.Warnw("database settings unresolved", "err", err)
	}
	pool := database.NewPool(registry, database.DefaultOptions)
	defer pool.Close()

	//
	// ── 2.  Static Resolver ─────────────────────────────────────────────
	//
	resolver, err := spa.New(spa.Options{
		BuildDir:  cfg.Assets.BuildDir,
		StaticDir: cfg.Assets.StaticDir(),
		Profile:   cfg.Profile,
	})
	if err != nil {
		log.Errorw("static resolver unavailable", "err", err)
		return err
	}

	//
	// ── 3.  Request enrichment (optional GeoIP) ─────────────────────────
	//
	enricher, err := requestinfo.NewEnricher(cfg.GeoIP.Path)
	if err != nil {
		log.Warnw("geoip disabled", "path", cfg.GeoIP.Path, "err", err)
		enricher = &requestinfo.Enricher{}
	}
	defer enricher.Close()

	//
	// ── 4.  Probes, router, server ──────────────────────────────────────
	//
	probes := []health.Probe{
		&health.StorageProbe{Storage: pool, Timeout: cfg.Probes.DBTimeout},
		&health.ExternalProbe{
			Service: cfg.Probes.ExternalName,
			URL:     cfg.Probes.ExternalURL,
			Client:  &http.Client{Timeout: cfg.Probes.Timeout},
			Timeout: cfg.Probes.Timeout,
		},
	}

	handler := app.NewRouter(app.Deps{
		Config:   cfg,
		Enricher: enricher,
		SPA:      resolver,
		Probes:   probes,
	})

	srv := server.New(cfg.HTTP, handler)
	if err := server.Run(ctx, srv, nil, cfg.HTTP.ShutdownTimeout); err != nil {
		log.Errorw("http server stopped", "err", err)
		return err
	}
	log.Infow("host stopped")
	return nil
}
