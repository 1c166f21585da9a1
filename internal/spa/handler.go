package spa

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yanizio/spahost/internal/metrics"
	"github.com/yanizio/spahost/internal/respond"
)

// ServeHTTP resolves r.URL.Path and writes the outcome.  Mount it as the
// router's catch-all.
func (rv *Resolver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := rv.Resolve(r.Context(), strings.TrimPrefix(r.URL.Path, "/"))
	metrics.SPAResolutions.WithLabelValues(res.Kind.String()).Inc()

	switch res.Kind {
	case KindFile, KindIndex:
		if err := serveFile(w, r, res.File); err != nil {
			rv.log.Errorw("asset read failed", "file", res.File, "err", err)
			respond.Error(w, http.StatusServiceUnavailable, "Service unavailable")
		}
	case KindRejected:
		respond.Error(w, http.StatusBadRequest, "Invalid path")
	case KindNotFound:
		respond.Error(w, http.StatusNotFound, "Not found")
	default:
		respond.Error(w, http.StatusServiceUnavailable, "Service unavailable")
	}
}

// serveFile streams name with a content type guessed from its extension.
// ServeContent is used instead of ServeFile, which redirects
// "/index.html" to "/".
func serveFile(w http.ResponseWriter, r *http.Request, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	http.ServeContent(w, r, filepath.Base(name), info.ModTime(), f)
	return nil
}
