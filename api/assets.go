// Package api holds the non-gated routes: static asset serving, the echo
// endpoint, the terminology mock API and the two upstream proxies (WeChat
// login, chat completion).
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"edgegate/logger"
)

// Assets serves image and audio blobs from a directory tree laid out as
// <root>/images/<name>.png and <root>/audio/<name>.mp3.
type Assets struct {
	Root string
}

// Images serves GET /api/images?img=<name>.
func (a Assets) Images() http.Handler {
	return a.serve("img", "images", ".png", "image/png")
}

// Audio serves GET /api/audio?audio=<name>.
func (a Assets) Audio() http.Handler {
	return a.serve("audio", "audio", ".mp3", "audio/mpeg")
}

func (a Assets) serve(param, dir, ext, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get(param)
		if name == "" || !safeName(name) {
			http.Error(w, "invalid asset name", http.StatusBadRequest)
			return
		}

		path := filepath.Join(a.Root, dir, name+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read asset", "path", path, "err", err)
			http.Error(w, "failed to load asset", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write(data)
	})
}

// safeName rejects names that could escape the asset directory.
func safeName(name string) bool {
	return !strings.ContainsAny(name, "/\\") && !strings.Contains(name, "..")
}
