package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	actx "go.hackfix.me/romstash/app/context"
)

// serveFiles returns a handler that serves raw files from dir on the app
// filesystem.
func serveFiles(appCtx *actx.Context, dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + chi.URLParam(r, "*"))
		if name == "/" || strings.Contains(name, "\x00") {
			http.NotFound(w, r)
			return
		}

		f, err := appCtx.FS.Open(path.Join(dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			appCtx.Logger.Error("failed opening file", "name", name, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError)
			return
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := io.Copy(w, f); err != nil {
			appCtx.Logger.Warn("failed sending file", "name", name, "error", err)
		}
	}
}
