package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/spahost/internal/respond"
)

// Register mounts GET /health and GET /health/{name} for each probe.
func Register(r chi.Router, probes ...Probe) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		rep := Liveness()
		respond.JSON(w, rep.StatusCode(), rep.Payload())
	})
	for _, p := range probes {
		r.Get("/health/"+p.Name(), Handler(p))
	}
}

// Handler serves a single probe.
func Handler(p Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := p.Check(r.Context())
		respond.JSON(w, rep.StatusCode(), rep.Payload())
	}
}
