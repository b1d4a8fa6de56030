// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/microcosm-cc/bluemonday"

	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/render"
	"blogcms/internal/serialize"
	"blogcms/internal/storage"
	"blogcms/internal/store"
)

// Form payloads decoded by gorilla/schema.
type postForm struct {
	Title    string `schema:"title"`
	Category string `schema:"category"`
	Excerpt  string `schema:"excerpt"`
	Content  string `schema:"content"`
	Status   string `schema:"status"`
}

type categoryForm struct {
	Name        string `schema:"name"`
	Description string `schema:"description"`
}

type contactForm struct {
	Name    string `schema:"name"`
	Email   string `schema:"email"`
	Subject string `schema:"subject"`
	Message string `schema:"message"`
}

// categoryDetail is the JSON shape of the category detail view.
type categoryDetail struct {
	serialize.CategoryOut
	Posts []serialize.PostOut `json:"posts"`
}

const (
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// contentPolicy strips unsafe markup from submitted post bodies.
var contentPolicy = bluemonday.UGCPolicy()

// Site groups the public presentation views: post and category pages (HTML
// or JSON from the same query), their staff-only create/edit/delete forms
// and the contact form.
type Site struct {
	renderer   *render.Renderer
	posts      PostStore
	categories CategoryStore
	comments   CommentStore
	contacts   ContactStore
	media      storage.Storage
	ser        *serialize.Serializer
	decoder    *schema.Decoder
	validate   *validator.Validate
	maxUpload  int64
}

// NewSite creates the presentation handler group. maxUpload caps the size
// of a featured image upload in bytes.
func NewSite(renderer *render.Renderer, posts PostStore, categories CategoryStore, comments CommentStore, contacts ContactStore, media storage.Storage, ser *serialize.Serializer, maxUpload int64) *Site {
	return &Site{
		renderer:   renderer,
		posts:      posts,
		categories: categories,
		comments:   comments,
		contacts:   contacts,
		media:      media,
		ser:        ser,
		decoder:    newFormDecoder(),
		validate:   validator.New(),
		maxUpload:  maxUpload,
	}
}

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// --- Posts ---

// PostList renders all posts visible to the caller, newest publication
// first. Anonymous visitors only see published posts.
func (s *Site) PostList(w http.ResponseWriter, r *http.Request) {
	staff := middleware.IsStaff(r.Context())
	posts, _, err := s.posts.List(r.Context(), store.PostFilter{PublishedOnly: !staff})
	if err != nil {
		serverError(s.renderer, w, r, "list posts", err)
		return
	}

	out := s.ser.Posts(posts, serialize.RequestOrigin(r))
	if Negotiate(r) == FormatJSON {
		middleware.WriteJSON(w, http.StatusOK, out)
		return
	}
	s.renderer.Page(w, r, "site/post_list", &render.PageData{
		Title:   "Posts",
		Section: "posts",
		Data:    map[string]any{"Posts": out},
	})
}

// PostDetail renders a single post. HTML views count as a read and list the
// post's approved comments.
func (s *Site) PostDetail(w http.ResponseWriter, r *http.Request) {
	p, ok := s.visiblePost(w, r)
	if !ok {
		return
	}
	origin := serialize.RequestOrigin(r)

	if Negotiate(r) == FormatJSON {
		middleware.WriteJSON(w, http.StatusOK, s.ser.Post(p, origin))
		return
	}

	if views, err := s.posts.IncrementViews(r.Context(), p.ID); err != nil {
		slog.Warn("increment views failed", "post_id", p.ID, "error", err)
	} else {
		p.Views = views
	}

	f := store.CommentFilter{PostID: &p.ID}
	if !middleware.IsStaff(r.Context()) {
		approved := true
		f.Approved = &approved
	}
	comments, _, err := s.comments.List(r.Context(), f)
	if err != nil {
		serverError(s.renderer, w, r, "list comments", err)
		return
	}

	s.renderer.Page(w, r, "site/post_detail", &render.PageData{
		Title:   p.Title,
		Section: "posts",
		Data: map[string]any{
			"Post":     s.ser.Post(p, origin),
			"Comments": comments,
		},
	})
}

// PostNew renders the empty post form.
func (s *Site) PostNew(w http.ResponseWriter, r *http.Request) {
	s.renderPostForm(w, r, http.StatusOK, "New post", postForm{Status: string(models.PostStatusDraft)}, nil, formErrors{})
}

// PostCreate handles the new post form submission.
func (s *Site) PostCreate(w http.ResponseWriter, r *http.Request) {
	form, categoryID, errs, ok := s.readPostForm(w, r)
	if !ok {
		return
	}
	if len(errs) > 0 {
		s.renderPostForm(w, r, http.StatusUnprocessableEntity, "New post", form, nil, errs)
		return
	}

	key, msg, err := s.saveImage(r)
	if err != nil {
		serverError(s.renderer, w, r, "save featured image", err)
		return
	}
	if msg != "" {
		s.renderPostForm(w, r, http.StatusUnprocessableEntity, "New post", form, nil, formErrors{"featured_image": msg})
		return
	}

	p := &models.Post{
		Title:         strings.TrimSpace(form.Title),
		CategoryID:    categoryID,
		Content:       contentPolicy.Sanitize(form.Content),
		Excerpt:       strings.TrimSpace(form.Excerpt),
		FeaturedImage: key,
		Status:        models.PostStatus(form.Status),
	}
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		p.AuthorID = &sess.UserID
	}

	created, err := s.posts.Create(r.Context(), p)
	if err != nil {
		storage.Discard(r.Context(), s.media, key)
		serverError(s.renderer, w, r, "create post", err)
		return
	}

	slog.Info("post created", "post_id", created.ID, "slug", created.Slug)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// PostEdit renders the post form filled with the current values.
func (s *Site) PostEdit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	form := postForm{
		Title:   p.Title,
		Excerpt: p.Excerpt,
		Content: p.Content,
		Status:  string(p.Status),
	}
	if p.CategoryID != nil {
		form.Category = p.CategoryID.String()
	}
	s.renderPostForm(w, r, http.StatusOK, "Edit post", form, s.ser.Image(p.FeaturedImage, serialize.RequestOrigin(r)), formErrors{})
}

// PostUpdate handles the edit form submission. A new upload replaces the
// previous featured image.
func (s *Site) PostUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	current := s.ser.Image(p.FeaturedImage, serialize.RequestOrigin(r))

	form, categoryID, errs, ok := s.readPostForm(w, r)
	if !ok {
		return
	}
	if len(errs) > 0 {
		s.renderPostForm(w, r, http.StatusUnprocessableEntity, "Edit post", form, current, errs)
		return
	}

	key, msg, err := s.saveImage(r)
	if err != nil {
		serverError(s.renderer, w, r, "save featured image", err)
		return
	}
	if msg != "" {
		s.renderPostForm(w, r, http.StatusUnprocessableEntity, "Edit post", form, current, formErrors{"featured_image": msg})
		return
	}

	oldKey := p.FeaturedImage
	p.Title = strings.TrimSpace(form.Title)
	p.CategoryID = categoryID
	p.Content = contentPolicy.Sanitize(form.Content)
	p.Excerpt = strings.TrimSpace(form.Excerpt)
	p.Status = models.PostStatus(form.Status)
	if key != "" {
		p.FeaturedImage = key
	}

	if err := s.posts.Update(r.Context(), p); err != nil {
		storage.Discard(r.Context(), s.media, key)
		if errors.Is(err, store.ErrNotFound) {
			notFound(s.renderer, w, r)
			return
		}
		serverError(s.renderer, w, r, "update post", err)
		return
	}
	if key != "" && oldKey != "" {
		storage.Discard(r.Context(), s.media, oldKey)
	}

	slog.Info("post updated", "post_id", p.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// PostConfirmDelete renders the delete confirmation page.
func (s *Site) PostConfirmDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	s.renderer.Page(w, r, "site/post_confirm_delete", &render.PageData{
		Title:   "Delete post",
		Section: "posts",
		Data:    map[string]any{"Post": p},
	})
}

// PostDelete removes a post, its comments and its featured image.
func (s *Site) PostDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	if err := s.posts.Delete(r.Context(), p.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(s.renderer, w, r)
			return
		}
		serverError(s.renderer, w, r, "delete post", err)
		return
	}
	storage.Discard(r.Context(), s.media, p.FeaturedImage)

	slog.Info("post deleted", "post_id", p.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// visiblePost loads the {id} post, hiding drafts from non-staff callers.
func (s *Site) visiblePost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	p, ok := s.loadPost(w, r)
	if !ok {
		return nil, false
	}
	if !p.IsPublished() && !middleware.IsStaff(r.Context()) {
		notFound(s.renderer, w, r)
		return nil, false
	}
	return p, true
}

// loadPost loads the {id} post or writes a 404.
func (s *Site) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, ok := parseID(r)
	if !ok {
		notFound(s.renderer, w, r)
		return nil, false
	}
	p, err := s.posts.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		notFound(s.renderer, w, r)
		return nil, false
	}
	if err != nil {
		serverError(s.renderer, w, r, "find post", err)
		return nil, false
	}
	return p, true
}

// readPostForm decodes and validates the post form, resolving the selected
// category. It writes the response itself and returns ok=false on a
// malformed request.
func (s *Site) readPostForm(w http.ResponseWriter, r *http.Request) (form postForm, categoryID *uuid.UUID, errs formErrors, ok bool) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		renderError(s.renderer, w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return form, nil, nil, false
	}
	if err := s.decoder.Decode(&form, r.PostForm); err != nil {
		renderError(s.renderer, w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return form, nil, nil, false
	}

	errs = validatePost(&form)
	if ref := strings.TrimSpace(form.Category); ref != "" {
		id, err := uuid.Parse(ref)
		if err != nil {
			errs["category"] = msgInvalidChoice
			return form, nil, errs, true
		}
		c, err := s.categories.FindByID(r.Context(), id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			errs["category"] = msgInvalidChoice
		case err != nil:
			serverError(s.renderer, w, r, "find category", err)
			return form, nil, nil, false
		default:
			categoryID = &c.ID
		}
	}
	return form, categoryID, errs, true
}

func (s *Site) renderPostForm(w http.ResponseWriter, r *http.Request, status int, title string, form postForm, image *string, errs formErrors) {
	categories, _, err := s.categories.List(r.Context(), store.CategoryFilter{})
	if err != nil {
		serverError(s.renderer, w, r, "list categories", err)
		return
	}
	s.renderer.PageStatus(w, r, status, "site/post_form", &render.PageData{
		Title:   title,
		Section: "posts",
		Data: map[string]any{
			"Form":       form,
			"Categories": categories,
			"Image":      image,
			"Errors":     map[string]string(errs),
		},
	})
}

// saveImage stores the featured_image upload, if any, and returns its
// storage key. A non-empty msg reports an unusable upload to the user.
func (s *Site) saveImage(r *http.Request) (key, msg string, err error) {
	file, header, err := r.FormFile("featured_image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", "", nil
	}
	if err != nil {
		return "", msgInvalidImage, nil
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		return "", fmt.Sprintf("The file is too large (max %d MB).", s.maxUpload>>20), nil
	}
	contentType, ext, err := storage.DetectImage(file)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return "", msgInvalidImage, nil
	}
	if err != nil {
		return "", "", err
	}

	key = storage.NewKey(time.Now(), ext)
	if err := s.media.Save(r.Context(), key, contentType, file, header.Size); err != nil {
		return "", "", fmt.Errorf("save %s: %w", key, err)
	}
	return key, "", nil
}

// --- Categories ---

// CategoryList renders all categories with their post counts.
func (s *Site) CategoryList(w http.ResponseWriter, r *http.Request) {
	categories, _, err := s.categories.List(r.Context(), store.CategoryFilter{})
	if err != nil {
		serverError(s.renderer, w, r, "list categories", err)
		return
	}

	if Negotiate(r) == FormatJSON {
		middleware.WriteJSON(w, http.StatusOK, serialize.Categories(categories))
		return
	}
	s.renderer.Page(w, r, "site/category_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Categories": categories},
	})
}

// CategoryDetail renders a category and the posts filed under it.
func (s *Site) CategoryDetail(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCategory(w, r)
	if !ok {
		return
	}
	posts, _, err := s.posts.List(r.Context(), store.PostFilter{
		CategoryID:    &c.ID,
		PublishedOnly: !middleware.IsStaff(r.Context()),
	})
	if err != nil {
		serverError(s.renderer, w, r, "list category posts", err)
		return
	}
	out := s.ser.Posts(posts, serialize.RequestOrigin(r))

	if Negotiate(r) == FormatJSON {
		middleware.WriteJSON(w, http.StatusOK, categoryDetail{CategoryOut: serialize.Category(c), Posts: out})
		return
	}
	s.renderer.Page(w, r, "site/category_detail", &render.PageData{
		Title:   c.Name,
		Section: "categories",
		Data:    map[string]any{"Category": c, "Posts": out},
	})
}

// CategoryNew renders the empty category form.
func (s *Site) CategoryNew(w http.ResponseWriter, r *http.Request) {
	s.renderCategoryForm(w, r, http.StatusOK, "New category", categoryForm{}, formErrors{})
}

// CategoryCreate handles the new category form submission.
func (s *Site) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	var form categoryForm
	if !s.decodeForm(w, r, &form) {
		return
	}
	if errs := validateCategory(&form); len(errs) > 0 {
		s.renderCategoryForm(w, r, http.StatusUnprocessableEntity, "New category", form, errs)
		return
	}

	created, err := s.categories.Create(r.Context(), &models.Category{
		Name:        strings.TrimSpace(form.Name),
		Description: strings.TrimSpace(form.Description),
	})
	if errors.Is(err, store.ErrConflict) {
		s.renderCategoryForm(w, r, http.StatusUnprocessableEntity, "New category", form, conflictErrors())
		return
	}
	if err != nil {
		serverError(s.renderer, w, r, "create category", err)
		return
	}

	slog.Info("category created", "category_id", created.ID, "slug", created.Slug)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CategoryEdit renders the category form filled with the current values.
func (s *Site) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCategory(w, r)
	if !ok {
		return
	}
	s.renderCategoryForm(w, r, http.StatusOK, "Edit category", categoryForm{Name: c.Name, Description: c.Description}, formErrors{})
}

// CategoryUpdate handles the edit form submission. The slug is kept.
func (s *Site) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCategory(w, r)
	if !ok {
		return
	}
	var form categoryForm
	if !s.decodeForm(w, r, &form) {
		return
	}
	if errs := validateCategory(&form); len(errs) > 0 {
		s.renderCategoryForm(w, r, http.StatusUnprocessableEntity, "Edit category", form, errs)
		return
	}

	c.Name = strings.TrimSpace(form.Name)
	c.Description = strings.TrimSpace(form.Description)
	err := s.categories.Update(r.Context(), c)
	switch {
	case errors.Is(err, store.ErrConflict):
		s.renderCategoryForm(w, r, http.StatusUnprocessableEntity, "Edit category", form, conflictErrors())
		return
	case errors.Is(err, store.ErrNotFound):
		notFound(s.renderer, w, r)
		return
	case err != nil:
		serverError(s.renderer, w, r, "update category", err)
		return
	}

	slog.Info("category updated", "category_id", c.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CategoryConfirmDelete renders the delete confirmation page.
func (s *Site) CategoryConfirmDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCategory(w, r)
	if !ok {
		return
	}
	s.renderer.Page(w, r, "site/category_confirm_delete", &render.PageData{
		Title:   "Delete category",
		Section: "categories",
		Data:    map[string]any{"Category": c},
	})
}

// CategoryDelete removes a category. Its posts become uncategorised.
func (s *Site) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCategory(w, r)
	if !ok {
		return
	}
	if err := s.categories.Delete(r.Context(), c.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(s.renderer, w, r)
			return
		}
		serverError(s.renderer, w, r, "delete category", err)
		return
	}

	slog.Info("category deleted", "category_id", c.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Site) loadCategory(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, ok := parseID(r)
	if !ok {
		notFound(s.renderer, w, r)
		return nil, false
	}
	c, err := s.categories.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		notFound(s.renderer, w, r)
		return nil, false
	}
	if err != nil {
		serverError(s.renderer, w, r, "find category", err)
		return nil, false
	}
	return c, true
}

func (s *Site) renderCategoryForm(w http.ResponseWriter, r *http.Request, status int, title string, form categoryForm, errs formErrors) {
	s.renderer.PageStatus(w, r, status, "site/category_form", &render.PageData{
		Title:   title,
		Section: "categories",
		Data:    map[string]any{"Form": form, "Errors": map[string]string(errs)},
	})
}

// conflictErrors reports a uniqueness violation on the category form. The
// slug derives from the name, so either constraint is reported there.
func conflictErrors() formErrors {
	return formErrors{"name": "Category with this name already exists."}
}

// --- Contact ---

// ContactForm renders the public contact form.
func (s *Site) ContactForm(w http.ResponseWriter, r *http.Request) {
	s.renderContactForm(w, r, http.StatusOK, contactForm{}, formErrors{})
}

// ContactSubmit stores a contact message.
func (s *Site) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	var form contactForm
	if !s.decodeForm(w, r, &form) {
		return
	}
	if errs := validateContact(s.validate, &form); len(errs) > 0 {
		s.renderContactForm(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}

	created, err := s.contacts.Create(r.Context(), &models.Contact{
		Name:    strings.TrimSpace(form.Name),
		Email:   strings.TrimSpace(form.Email),
		Subject: strings.TrimSpace(form.Subject),
		Message: strings.TrimSpace(form.Message),
	})
	if err != nil {
		serverError(s.renderer, w, r, "create contact", err)
		return
	}

	slog.Info("contact received", "contact_id", created.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Site) renderContactForm(w http.ResponseWriter, r *http.Request, status int, form contactForm, errs formErrors) {
	s.renderer.PageStatus(w, r, status, "site/contact_form", &render.PageData{
		Title:   "Contact",
		Section: "contact",
		Data:    map[string]any{"Form": form, "Errors": map[string]string(errs)},
	})
}

// decodeForm parses an urlencoded form body into dst.
func (s *Site) decodeForm(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := r.ParseForm(); err != nil {
		renderError(s.renderer, w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return false
	}
	if err := s.decoder.Decode(dst, r.PostForm); err != nil {
		renderError(s.renderer, w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return false
	}
	return true
}

// --- Shared helpers ---

// parseID reads the {id} URL parameter.
func parseID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// renderError writes an error page, or {"detail": msg} for JSON clients.
func renderError(rn *render.Renderer, w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	if Negotiate(r) == FormatJSON {
		middleware.WriteJSON(w, status, map[string]string{"detail": msg})
		return
	}
	rn.PageStatus(w, r, status, "site/error", &render.PageData{
		Title: title,
		Data:  map[string]any{"Message": msg},
	})
}

func notFound(rn *render.Renderer, w http.ResponseWriter, r *http.Request) {
	renderError(rn, w, r, http.StatusNotFound, "Not found", "Not found.")
}

// serverError logs err and writes a generic 500.
func serverError(rn *render.Renderer, w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.Error("request failed", "op", op, "error", err, "path", r.URL.Path)
	renderError(rn, w, r, http.StatusInternalServerError, "Server error", "A server error occurred.")
}
