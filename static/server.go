package static

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed dist
var dist embed.FS

var assetExts = []string{".js", ".css", ".svg", ".ico", ".png", ".jpg", ".txt", ".map", ".mp3", ".wav", ".json", ".woff", ".woff2"}

func Handler() http.Handler {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		return http.NotFoundHandler()
	}
	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Serve static assets directly by extension or assets path
		if strings.HasPrefix(r.URL.Path, "/assets/") || strings.HasPrefix(r.URL.Path, "/sounds/") || hasAssetExt(r.URL.Path) {
			fileServer.ServeHTTP(w, r)
			return
		}
		// Always serve index.html for app routes to avoid directory redirects
		b, err := fs.ReadFile(sub, "index.html")
		if err != nil {
			http.Error(w, "index not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	})
}

func hasAssetExt(path string) bool {
	for _, ext := range assetExts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
