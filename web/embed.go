package web

import (
	"embed"
	"html/template"
	"io/fs"
)

// templateFS holds the server-rendered pages; staticFS holds the stylesheet.
//
//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses every page template. Each page is addressable by its file
// name, e.g. "leads.html".
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}

// Static returns the embedded assets served under /static.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
