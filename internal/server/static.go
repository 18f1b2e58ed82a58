package server

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

//go:embed static
var staticFiles embed.FS

var staticRoot, _ = fs.Sub(staticFiles, "static")

// builtAt stands in for file modification times, which embed does not keep.
var builtAt = time.Now()

// handleStatic serves the embedded UI. http.FileServer is avoided because it
// redirects /index.html to the directory, and the root redirect targets
// /static/index.html directly.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
	if name == "" || name == "." {
		name = "index.html"
	}

	data, err := fs.ReadFile(staticRoot, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, builtAt, bytes.NewReader(data))
}
