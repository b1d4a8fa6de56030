// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package api implements the JSON data API mounted under /api. Every entity
// (posts, categories, comments, contacts) gets list/get/create/update/delete
// routes; posts additionally expose search, slug lookup and the two curated
// published listings used by the frontend.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/serialize"
	"blogcms/internal/storage"
	"blogcms/internal/store"
)

// RecentPostsLimit caps the recent-posts listing.
const RecentPostsLimit = 4

// PostStore is the subset of *store.PostStore the API needs.
type PostStore interface {
	List(ctx context.Context, f store.PostFilter) ([]models.Post, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error)
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) (int64, error)
}

// CategoryStore is the subset of *store.CategoryStore the API needs.
type CategoryStore interface {
	List(ctx context.Context, f store.CategoryFilter) ([]models.Category, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Lookup(ctx context.Context, ref string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CommentStore is the subset of *store.CommentStore the API needs.
type CommentStore interface {
	List(ctx context.Context, f store.CommentFilter) ([]models.Comment, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
	Update(ctx context.Context, c *models.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContactStore is the subset of *store.ContactStore the API needs.
type ContactStore interface {
	List(ctx context.Context, f store.ContactFilter) ([]models.Contact, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	Create(ctx context.Context, c *models.Contact) (*models.Contact, error)
	Update(ctx context.Context, c *models.Contact) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler serves the data API.
type Handler struct {
	posts      PostStore
	categories CategoryStore
	comments   CommentStore
	contacts   ContactStore
	media      storage.Storage
	ser        *serialize.Serializer
	validate   *validator.Validate

	// contactLimit wraps anonymous contact submissions; nil disables it.
	contactLimit func(http.Handler) http.Handler
}

// New creates the API handler. media receives featured image deletions and
// contactLimit may be nil.
func New(posts PostStore, categories CategoryStore, comments CommentStore, contacts ContactStore, media storage.Storage, ser *serialize.Serializer, contactLimit func(http.Handler) http.Handler) *Handler {
	return &Handler{
		posts:        posts,
		categories:   categories,
		comments:     comments,
		contacts:     contacts,
		media:        media,
		ser:          ser,
		validate:     newValidator(),
		contactLimit: contactLimit,
	}
}

// Routes returns the API router. Mount it under /api; trailing slashes are
// expected to be stripped by the caller.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.root)

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.listPosts)
		r.Post("/", h.createPost)
		r.Get("/by-slug/{slug}", h.postBySlug)
		r.Get("/{id}", h.getPost)
		r.Put("/{id}", h.updatePost)
		r.Patch("/{id}", h.updatePost)
		r.Delete("/{id}", h.deletePost)
	})
	r.Get("/recent-posts", h.recentPosts)
	r.Get("/all-posts", h.allPosts)

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Get("/{id}", h.getCategory)
		r.Put("/{id}", h.updateCategory)
		r.Patch("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})

	r.Route("/comments", func(r chi.Router) {
		r.Get("/", h.listComments)
		r.Post("/", h.createComment)
		r.Get("/{id}", h.getComment)
		r.Put("/{id}", h.updateComment)
		r.Patch("/{id}", h.updateComment)
		r.Delete("/{id}", h.deleteComment)
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.listContacts)
		create := http.Handler(http.HandlerFunc(h.createContact))
		if h.contactLimit != nil {
			create = h.contactLimit(create)
		}
		r.Method(http.MethodPost, "/", create)
		r.Get("/{id}", h.getContact)
		r.Put("/{id}", h.updateContact)
		r.Patch("/{id}", h.updateContact)
		r.Delete("/{id}", h.deleteContact)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, `Method "`+r.Method+`" not allowed.`)
	})

	return r
}

// root lists the entry points, like a browsable API index.
func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	base := serialize.RequestOrigin(r) + "/api"
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"posts":        base + "/posts/",
		"categories":   base + "/categories/",
		"comments":     base + "/comments/",
		"contacts":     base + "/contacts/",
		"recent-posts": base + "/recent-posts/",
		"all-posts":    base + "/all-posts/",
	})
}
