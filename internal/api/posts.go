package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/serialize"
	"blogcms/internal/storage"
	"blogcms/internal/store"
)

// categoryRef is the writable "category" field. It accepts a category id,
// name or slug; null or "" clears the category.
type categoryRef struct {
	set bool
	ref string
}

func (c *categoryRef) UnmarshalJSON(b []byte) error {
	c.set = true
	if string(b) == "null" {
		c.ref = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("category must be a string")
	}
	c.ref = strings.TrimSpace(s)
	return nil
}

// postInput is the writable post payload. Nil fields were not sent.
type postInput struct {
	Title         *string     `json:"title" validate:"required,notblank,max=200"`
	Slug          *string     `json:"slug" validate:"omitempty,max=200,slug"`
	Content       *string     `json:"content" validate:"required,notblank"`
	Excerpt       *string     `json:"excerpt" validate:"omitempty,max=500"`
	FeaturedImage *string     `json:"featured_image" validate:"omitempty,max=255"`
	Status        *string     `json:"status" validate:"omitempty,oneof=draft published"`
	PublishedAt   *time.Time  `json:"published_at"`
	AuthorID      *uuid.UUID  `json:"author_id"`
	Category      categoryRef `json:"category" validate:"-"`
}

// postInputFrom pre-fills an input with p's current values so a partial
// update only overrides what the client sent.
func postInputFrom(p *models.Post) postInput {
	return postInput{
		Title:         ptr(p.Title),
		Slug:          ptr(p.Slug),
		Content:       ptr(p.Content),
		Excerpt:       ptr(p.Excerpt),
		FeaturedImage: ptr(p.FeaturedImage),
		Status:        ptr(string(p.Status)),
		PublishedAt:   p.PublishedAt,
		AuthorID:      p.AuthorID,
	}
}

// apply copies every sent field onto p.
func (in *postInput) apply(p *models.Post) {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Slug != nil {
		p.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.Excerpt != nil {
		p.Excerpt = *in.Excerpt
	}
	if in.FeaturedImage != nil {
		p.FeaturedImage = strings.TrimSpace(*in.FeaturedImage)
	}
	if in.Status != nil && *in.Status != "" {
		p.Status = models.PostStatus(*in.Status)
	}
	if in.PublishedAt != nil {
		p.PublishedAt = in.PublishedAt
	}
	if in.AuthorID != nil {
		p.AuthorID = in.AuthorID
	}
}

// resolveCategory turns the sent category reference into an id. Unknown
// references come back as field errors; current is kept when nothing was
// sent.
func (h *Handler) resolveCategory(ctx context.Context, ref categoryRef, current *uuid.UUID) (*uuid.UUID, fieldErrors, error) {
	if !ref.set {
		return current, nil, nil
	}
	if ref.ref == "" {
		return nil, nil, nil
	}
	c, err := h.categories.Lookup(ctx, ref.ref)
	if errors.Is(err, store.ErrNotFound) {
		msg := fmt.Sprintf("Invalid category %q - object does not exist.", ref.ref)
		return nil, fieldErrors{"category": {msg}}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &c.ID, nil, nil
}

// listPosts serves GET /posts/. Anonymous callers only see published
// posts; ?search= and ?category= narrow the listing, ?status= is honoured
// for staff.
func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePage(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	staff := middleware.IsStaff(r.Context())
	f := store.PostFilter{
		PublishedOnly: !staff,
		Search:        q.Get("search"),
		Category:      q.Get("category"),
		Limit:         p.limit(),
		Offset:        p.offset(),
	}
	if status := models.PostStatus(q.Get("status")); staff && status.Valid() {
		f.Status = status
	}

	posts, total, err := h.posts.List(r.Context(), f)
	if err != nil {
		storeError(w, r, "list posts", err)
		return
	}
	writeList(w, r, p, total, h.ser.Posts(posts, serialize.RequestOrigin(r)))
}

// getPost serves GET /posts/{id}/. Drafts are only visible to staff.
func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "get post", err)
		return
	}
	if !post.IsPublished() && !middleware.IsStaff(r.Context()) {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.ser.Post(post, serialize.RequestOrigin(r)))
}

// postBySlug serves GET /posts/by-slug/{slug}/ and counts the view.
func (h *Handler) postBySlug(w http.ResponseWriter, r *http.Request) {
	staff := middleware.IsStaff(r.Context())
	post, err := h.posts.FindBySlug(r.Context(), chi.URLParam(r, "slug"), !staff)
	if err != nil {
		storeError(w, r, "get post by slug", err)
		return
	}

	views, err := h.posts.IncrementViews(r.Context(), post.ID)
	if err != nil {
		storeError(w, r, "count post view", err)
		return
	}
	post.Views = views

	middleware.WriteJSON(w, http.StatusOK, h.ser.Post(post, serialize.RequestOrigin(r)))
}

// recentPosts serves GET /recent-posts/: the newest published posts in the
// summary shape.
func (h *Handler) recentPosts(w http.ResponseWriter, r *http.Request) {
	posts, _, err := h.posts.List(r.Context(), store.PostFilter{
		PublishedOnly: true,
		Limit:         RecentPostsLimit,
	})
	if err != nil {
		storeError(w, r, "recent posts", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.ser.Summaries(posts, serialize.RequestOrigin(r)))
}

// allPosts serves GET /all-posts/: every published post in the full shape,
// optionally narrowed by ?category=<name|slug>.
func (h *Handler) allPosts(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePage(w, r)
	if !ok {
		return
	}

	posts, total, err := h.posts.List(r.Context(), store.PostFilter{
		PublishedOnly: true,
		Category:      r.URL.Query().Get("category"),
		Limit:         p.limit(),
		Offset:        p.offset(),
	})
	if err != nil {
		storeError(w, r, "all posts", err)
		return
	}
	writeList(w, r, p, total, h.ser.Posts(posts, serialize.RequestOrigin(r)))
}

// createPost serves POST /posts/. New posts default to draft and are
// attributed to the calling staff user unless author_id is given.
func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}

	var in postInput
	if !decodeJSON(w, r, &in) {
		return
	}
	categoryID, extra, err := h.resolveCategory(r.Context(), in.Category, nil)
	if err != nil {
		storeError(w, r, "resolve category", err)
		return
	}
	if !h.check(w, &in, extra) {
		return
	}

	post := &models.Post{Status: models.PostStatusDraft}
	in.apply(post)
	post.CategoryID = categoryID
	if post.AuthorID == nil {
		userID := middleware.SessionFromCtx(r.Context()).UserID
		post.AuthorID = &userID
	}

	created, err := h.posts.Create(r.Context(), post)
	if err != nil {
		storeError(w, r, "create post", err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, h.ser.Post(created, serialize.RequestOrigin(r)))
}

// updatePost serves PUT (full) and PATCH (partial) /posts/{id}/.
func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "get post", err)
		return
	}

	var in postInput
	if r.Method == http.MethodPatch {
		in = postInputFrom(post)
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	categoryID, extra, err := h.resolveCategory(r.Context(), in.Category, post.CategoryID)
	if err != nil {
		storeError(w, r, "resolve category", err)
		return
	}
	if !h.check(w, &in, extra) {
		return
	}

	oldImage := post.FeaturedImage
	in.apply(post)
	post.CategoryID = categoryID
	if err := h.posts.Update(r.Context(), post); err != nil {
		storeError(w, r, "update post", err)
		return
	}
	if post.FeaturedImage != oldImage {
		storage.Discard(r.Context(), h.media, oldImage)
	}

	updated, err := h.posts.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "reload post", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, h.ser.Post(updated, serialize.RequestOrigin(r)))
}

// deletePost serves DELETE /posts/{id}/. The featured image goes with the
// post.
func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	post, err := h.posts.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "get post", err)
		return
	}
	if err := h.posts.Delete(r.Context(), id); err != nil {
		storeError(w, r, "delete post", err)
		return
	}
	storage.Discard(r.Context(), h.media, post.FeaturedImage)
	w.WriteHeader(http.StatusNoContent)
}
