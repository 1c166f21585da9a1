// cmd/web/main.go
//
// SPA host – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load configuration and start the daily rotating logger (tees to
//     console when running in a TTY).
//
//  3. Build the Settings Registry (Vault-backed when VAULT_ADDR is set)
//     and the lazy storage pool.  Nothing dials the database until the
//     first /health/db probe.
//
//  4. Build the Static Resolver.  A missing frontend build aborts start-up
//     in production and only warns elsewhere.
//
//  5. Mount /metrics, /health, and the SPA catch-all on a chi router.
//
//  6. Serve until SIGINT or SIGTERM, then drain in-flight requests.
//
// Sub-commands
// ------------
//
//	web [serve] [--dev]   run the host (default)
//	web schema            create the user and post tables, exit 0 or 1
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

const serverEnvPath = "/usr/local/etc/spahost/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Execute(ctx)
	stop()
	os.Exit(code)
}
