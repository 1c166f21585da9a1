package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/yanizio/spahost/internal/config"
)

// CORS returns permissive cross-origin middleware for the development and
// testing profiles, where the frontend dev server runs on another port.
// Production gets a pass-through.
func CORS(p config.Profile) func(http.Handler) http.Handler {
	if p.IsProduction() {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}
