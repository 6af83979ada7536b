package server

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// handleSPA serves the front-end bundle from dir. Unknown paths get
// index.html so client-side routes survive a reload. Unknown /api paths
// stay 404.
func handleSPA(dir string) http.HandlerFunc {
	root := http.Dir(dir)
	fileServer := http.FileServer(root)
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}

		if f, err := root.Open(path.Clean("/" + r.URL.Path)); err == nil {
			info, err := f.Stat()
			f.Close()
			if err == nil && !info.IsDir() {
				fileServer.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	}
}
