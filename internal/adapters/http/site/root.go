// Package site serves the embedded card preview page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the preview page under /preview/.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /preview/", http.StripPrefix("/preview/", http.FileServer(FS())))
	mux.Handle("GET /preview", http.RedirectHandler("/preview/", http.StatusMovedPermanently))
}
