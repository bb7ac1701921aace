package server

import (
	"bytes"
	"io"
	"io/fs"
	"net/http"
	"strings"
)

// editorFS holds the embedded map editor frontend. Set via SetUI from the
// binary's embed before the server starts routing.
var editorFS fs.FS

// SetUI installs the embedded filesystem the editor is served from.
func SetUI(fsys fs.FS) {
	editorFS = fsys
}

// spaHandler serves the editor's static files. Paths that do not name a real
// file fall back to index.html so client-side routes like /map/<id> resolve.
func spaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editorFS == nil {
			http.Error(w, "map editor not embedded in this build", http.StatusNotFound)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if f, err := editorFS.Open(path); err != nil {
			path = "index.html"
		} else {
			f.Close()
		}

		// http.ServeFileFS requires Go 1.22; serve the file via
		// ServeContent on the Go 1.21 toolchain.
		f, err := editorFS.Open(path)
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

		if rs, ok := f.(io.ReadSeeker); ok {
			http.ServeContent(w, r, path, info.ModTime(), rs)
			return
		}
		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "failed to read file", http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, path, info.ModTime(), bytes.NewReader(data))
	}
}
