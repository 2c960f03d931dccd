// Package handler contains the HTTP handlers that turn requests into service
// calls and service results into rendered pages, redirects, or error
// statuses. No business rules live here.
package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
)

// pageNames lists the content templates. Each is parsed together with
// base.html so {{define "content"}} blocks can fill the layout.
var pageNames = []string{
	"list",
	"detail",
	"form",
	"confirm_delete",
	"login",
	"register",
}

// Renderer holds the parsed template set. Templates are parsed once at
// startup, not per request.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses base.html plus every page template in templateDir.
func NewRenderer(templateDir string, logger *slog.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFiles(
			filepath.Join(templateDir, "base.html"),
			filepath.Join(templateDir, name+".html"),
		)
		if err != nil {
			return nil, err
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes the named page with the given status code. data is handed to
// the "base" template, which pulls in the page's "content" block.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data map[string]any) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		// headers are already sent; all we can do is log
		r.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}
