package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/spahost/internal/requestinfo"
)

// AccessLog writes one INFO line per request once the handler returns.
// It reads *RequestInfo, so mount it after requestinfo's Enricher.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		}
		if ri := requestinfo.FromContext(r.Context()); ri != nil {
			fields = append(fields, "request_id", ri.ID, "ip", ri.Geo.IP.String())
		}
		zap.S().Infow("http request", fields...)
	})
}
