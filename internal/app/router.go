// internal/app/router.go
//
// Root HTTP handler.
//
/*
Context
--------
Builds the chi router that cmd/web hands to server.New.  Middleware runs
outermost first:

  1. requestinfo Enricher   – request ID, UA, and geo in the context.
  2. AccessLog              – one INFO line per request.
  3. Recoverer              – a handler panic becomes a 500.
  4. GetHead                – HEAD is answered by the GET route.
  5. CORS                   – development and testing profiles only.
  6. ForceHTTPS             – optional 308 to HTTPS.
  7. Security               – standard response headers.

Routes
------
  • GET /metrics            – Prometheus exposition.
  • GET /health[/{probe}]   – liveness and dependency probes.
  • GET /*                  – Static Resolver catch-all.

Notes
-----
  • There is no /api route.  The resolver answers `api/…`
    with a JSON 404 after its traversal check.
  • Oxford commas, two spaces after periods.
*/
package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/spahost/internal/config"
	"github.com/yanizio/spahost/internal/health"
	"github.com/yanizio/spahost/internal/middleware"
	"github.com/yanizio/spahost/internal/requestinfo"
	"github.com/yanizio/spahost/internal/respond"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	Config   *config.Config
	Enricher *requestinfo.Enricher // nil means no geo lookups
	SPA      http.Handler
	Probes   []health.Probe
}

// NewRouter assembles the middleware chain and routes.
func NewRouter(d Deps) http.Handler {
	enricher := d.Enricher
	if enricher == nil {
		enricher = &requestinfo.Enricher{}
	}

	r := chi.NewRouter()
	r.Use(
		enricher.Handler,
		middleware.AccessLog,
		chimw.Recoverer,
		chimw.GetHead,
		middleware.CORS(d.Config.Profile),
		middleware.ForceHTTPS(d.Config.HTTP.ForceHTTPS),
		middleware.Security(d.Config.HTTP.ContentSecurityPolicy),
	)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	health.Register(r, d.Probes...)
	r.Method(http.MethodGet, "/*", d.SPA)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not found")
	})

	return r
}
