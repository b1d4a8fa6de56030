// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site and
// the admin interface. It supports full-page and HTMX partial rendering,
// automatically detecting the request type via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"blogcms/internal/middleware"
	"blogcms/internal/session"
)

//go:embed templates/site/*.html templates/admin/*.html
var templateFS embed.FS

// layouts lists the template directories. Each has its own base.html.
var layouts = []string{"site", "admin"}

// PageData holds all data passed to templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active navigation section (e.g., "posts", "comments")
	Session   *session.Data  // Current user session (nil if anonymous)
	CSRFToken string         // CSRF token for forms and HTMX headers
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates lists templates that render as full HTML pages
// without the base layout (they have their own <html>, <head>, etc.).
var standaloneTemplates = map[string]bool{
	"admin/login": true,
}

// ugcPolicy sanitises user-written post bodies for display.
var ugcPolicy = bluemonday.UGCPolicy()

// New creates a Renderer by parsing all embedded templates. Page templates
// are keyed "<layout>/<name>", e.g. "site/post_list".
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"activeClass": func(current, target string) string {
				if current == target {
					return "active"
				}
				return ""
			},
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			// uuidEq compares a *uuid.UUID pointer with a uuid.UUID value.
			// Returns true if the pointer is non-nil and points to the same value.
			"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
				return ptr != nil && *ptr == val
			},
			"date": func(t any) string {
				switch v := t.(type) {
				case time.Time:
					return v.Format("Jan 2, 2006")
				case *time.Time:
					if v != nil {
						return v.Format("Jan 2, 2006")
					}
				}
				return ""
			},
			// richText renders stored post content with untrusted markup removed.
			"richText": func(s string) template.HTML {
				return template.HTML(ugcPolicy.Sanitize(s))
			},
			"add": func(a, b int) int { return a + b },
		},
	}

	for _, layout := range layouts {
		dir := "templates/" + layout
		pages, err := fs.Glob(templateFS, dir+"/*.html")
		if err != nil {
			return nil, fmt.Errorf("glob %s templates: %w", layout, err)
		}

		for _, page := range pages {
			name := path.Base(page)
			if name == "base.html" {
				continue
			}
			key := layout + "/" + strings.TrimSuffix(name, ".html")

			var tmpl *template.Template
			var parseErr error
			if standaloneTemplates[key] {
				tmpl, parseErr = template.New(name).Funcs(r.funcMap).ParseFS(templateFS, page)
			} else {
				tmpl, parseErr = template.New("base.html").Funcs(r.funcMap).ParseFS(templateFS, dir+"/base.html", page)
			}
			if parseErr != nil {
				return nil, fmt.Errorf("parse template %s: %w", key, parseErr)
			}
			r.templates[key] = tmpl
		}
	}

	return r, nil
}

// Page renders a page with status 200. See PageStatus.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus renders a full page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
// Output is buffered so a failing template never leaves a half-written
// response.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = &PageData{}
	}

	// Inject CSRF token and session from context.
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	execName := "base.html"
	switch {
	case isHTMX(r) && !standaloneTemplates[name]:
		execName = "content"
	case standaloneTemplates[name]:
		execName = path.Base(name) + ".html"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, execName, data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
