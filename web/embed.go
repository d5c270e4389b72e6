package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// HandleFront serves the upload page.
func HandleFront(mux *http.ServeMux) error {
	efs, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	mux.Handle("/", http.FileServer(http.FS(efs)))
	return nil
}
