// Package web carries the embedded front-end pages: the public index, the
// protected tips page, and the fixed denial page served by the gate.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed pages/*
var pageFiles embed.FS

// PagesFS returns the embedded pages as a flat filesystem.
func PagesFS() fs.FS {
	sub, err := fs.Sub(pageFiles, "pages")
	if err != nil {
		panic("web: pages sub filesystem: " + err.Error())
	}
	return sub
}

func page(name string) []byte {
	b, err := fs.ReadFile(PagesFS(), name)
	if err != nil {
		panic("web: missing embedded page " + name + ": " + err.Error())
	}
	return b
}

// DeniedPage is the fixed access-denied document. The gate serves it verbatim
// for every denial, so its content must not depend on the request.
func DeniedPage() []byte { return page("denied.html") }

// ProtectedPage is the gated tips document.
func ProtectedPage() []byte { return page("tips.html") }

// IndexHandler serves the public index page on "/" and nothing else.
func IndexHandler() http.Handler {
	body := page("index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	})
}
