// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTML handlers for the blog: the public
// presentation views, the admin management pages and sign-in. Handlers are
// grouped by concern (site, admin, auth) and receive their dependencies
// through the handler struct.
package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"blogcms/internal/models"
	"blogcms/internal/session"
	"blogcms/internal/store"
)

// PostStore is the subset of *store.PostStore the views need.
type PostStore interface {
	List(ctx context.Context, f store.PostFilter) ([]models.Post, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[models.PostStatus]int, error)
}

// CategoryStore is the subset of *store.CategoryStore the views need.
type CategoryStore interface {
	List(ctx context.Context, f store.CategoryFilter) ([]models.Category, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// CommentStore is the subset of *store.CommentStore the views need.
type CommentStore interface {
	List(ctx context.Context, f store.CommentFilter) ([]models.Comment, int, error)
	SetApproved(ctx context.Context, ids []uuid.UUID, approved bool) (int64, error)
	CountPending(ctx context.Context) (int, error)
}

// ContactStore is the subset of *store.ContactStore the views need.
type ContactStore interface {
	List(ctx context.Context, f store.ContactFilter) ([]models.Contact, int, error)
	Create(ctx context.Context, c *models.Contact) (*models.Contact, error)
	SetRead(ctx context.Context, ids []uuid.UUID, read bool) (int64, error)
	CountUnread(ctx context.Context) (int, error)
}

// UserStore is the subset of *store.UserStore sign-in needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// SessionManager creates and destroys login sessions. Implemented by
// *session.Store.
type SessionManager interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}
