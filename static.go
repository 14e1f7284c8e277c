package isopage

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// =============================================================================
// Static File Serving
// =============================================================================

// staticHandler serves files from the configured static directory under the
// static prefix. The client bootstrap script is usually served from here.
func (a *App) staticHandler() http.Handler {
	fs := http.Dir(a.config.Static.Dir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		rel, ok := staticRelPath(chi.URLParam(r, "*"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		f, err := fs.Open(rel)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		a.applyCacheHeaders(w, rel)
		http.ServeContent(w, r, rel, info.ModTime(), f)
	})
}

// staticRelPath sanitizes the path below the static prefix. Traversal,
// absolute paths and platform separators are rejected.
func staticRelPath(rel string) (string, bool) {
	if rel == "" || strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") {
		return "", false
	}
	if strings.HasPrefix(rel, "/") {
		return "", false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}
	return clean, true
}

// applyCacheHeaders disables caching in debug mode. Otherwise fingerprinted
// files are cached for a year and everything else for an hour.
func (a *App) applyCacheHeaders(w http.ResponseWriter, file string) {
	switch {
	case a.config.Debug:
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	case isFingerprinted(file):
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	default:
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
	}
}

// isFingerprinted reports names like "client.a1b2c3d4.js".
func isFingerprinted(file string) bool {
	parts := strings.Split(path.Base(file), ".")
	if len(parts) < 3 {
		return false
	}
	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
