// Package web is the HTTP surface of the tool: the results page renderer,
// the flash-message cookie, and the route handlers.
package web

import (
	"embed"
	"html/template"
	"io"

	"idmatch/internal/verify/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Page is everything the results template binds to. The renderer is a pure
// transformation of this data: it recomputes nothing and touches no
// filesystem or store.
type Page struct {
	// Results in sheet order; nil or empty selects the "no results"
	// placeholder instead of the table.
	Results []models.RowResult
	// Messages render as dismissible notices above the table, in order.
	Messages []models.Flash
}

// RenderResults writes the results page for the given data.
func RenderResults(w io.Writer, page *Page) error {
	return templates.ExecuteTemplate(w, "results.html", page)
}
