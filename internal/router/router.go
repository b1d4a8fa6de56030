// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// blog. It organizes routes into the JSON API, the public site with its
// staff-only forms, and the admin panel.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"blogcms/internal/api"
	"blogcms/internal/handlers"
	"blogcms/internal/middleware"
	"blogcms/web"
)

// Options holds the router settings that come from configuration.
type Options struct {
	// SecureCookies marks the CSRF cookie Secure (production).
	SecureCookies bool
	// CORSOrigins are the origins allowed to call /api cross-site.
	CORSOrigins []string
	// MediaRoot, when set, is served at /media/ (local storage only).
	MediaRoot string
	// ContactLimit throttles contact form submissions. Optional.
	ContactLimit func(http.Handler) http.Handler
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions middleware.SessionGetter, apiHandler *api.Handler, site *handlers.Site, admin *handlers.Admin, auth *handlers.Auth, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.LoadSession(sessions))

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: embedded static dir missing: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	if opts.MediaRoot != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(opts.MediaRoot))))
	}

	// JSON API: session auth, CORS, no CSRF token (JSON bodies only).
	r.With(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	})).Mount("/api", apiHandler.Routes())

	contactLimit := opts.ContactLimit
	if contactLimit == nil {
		contactLimit = func(next http.Handler) http.Handler { return next }
	}

	// Public site, with staff-only create/edit/delete forms.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		r.Get("/", site.PostList)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", site.PostList)
			r.Get("/{id}", site.PostDetail)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.RequireStaff)
				r.Get("/new", site.PostNew)
				r.Post("/new", site.PostCreate)
				r.Get("/{id}/edit", site.PostEdit)
				r.Post("/{id}/edit", site.PostUpdate)
				r.Get("/{id}/delete", site.PostConfirmDelete)
				r.Post("/{id}/delete", site.PostDelete)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", site.CategoryList)
			r.Get("/{id}", site.CategoryDetail)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.RequireStaff)
				r.Get("/new", site.CategoryNew)
				r.Post("/new", site.CategoryCreate)
				r.Get("/{id}/edit", site.CategoryEdit)
				r.Post("/{id}/edit", site.CategoryUpdate)
				r.Get("/{id}/delete", site.CategoryConfirmDelete)
				r.Post("/{id}/delete", site.CategoryDelete)
			})
		})

		r.Get("/contact", site.ContactForm)
		r.With(contactLimit).Post("/contact", site.ContactSubmit)
	})

	// Admin routes: CSRF everywhere, staff sessions past the login page.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		// Auth pages, accessible without a session.
		r.Get("/login", auth.LoginPage)
		r.Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireStaff)

			r.Get("/", admin.Dashboard)
			r.Get("/posts", admin.PostsList)
			r.Get("/categories", admin.CategoriesList)
			r.Get("/comments", admin.CommentsList)
			r.Post("/comments/bulk", admin.CommentsBulk)
			r.Get("/contacts", admin.ContactsList)
			r.Post("/contacts/bulk", admin.ContactsBulk)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
