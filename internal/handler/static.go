// Package handler turns HTTP requests into service calls and service results
// into JSON. Handlers hold no rules of their own: they parse the request,
// call one service method and write the answer.
package handler

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// StaticHandler serves the built web client. Unknown paths fall back to
// index.html so client-side routes survive a page reload.
type StaticHandler struct {
	files  fs.FS
	server http.Handler
	logger *slog.Logger
}

// NewStaticHandler serves files from fsys, which must contain index.html.
func NewStaticHandler(fsys fs.FS, logger *slog.Logger) (*StaticHandler, error) {
	if _, err := fs.Stat(fsys, "index.html"); err != nil {
		return nil, err
	}
	return &StaticHandler{files: fsys, server: http.FileServer(http.FS(fsys)), logger: logger}, nil
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	if _, err := fs.Stat(h.files, name); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.logger.Warn("static file lookup failed", slog.String("path", name), slog.String("error", err.Error()))
		}
		// client-side route
		r2 := r.Clone(r.Context())
		r2.URL.Path = "/"
		h.server.ServeHTTP(w, r2)
		return
	}
	h.server.ServeHTTP(w, r)
}
