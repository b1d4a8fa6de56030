// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"blogcms/internal/models"
	"blogcms/internal/render"
	"blogcms/internal/store"
)

// adminPageSize is the number of rows per admin list page.
const adminPageSize = 20

// Admin groups the admin panel handlers: the dashboard and the searchable
// lists of posts, categories, comments and contact messages. Creating and
// editing records goes through the site forms.
type Admin struct {
	renderer   *render.Renderer
	posts      PostStore
	categories CategoryStore
	comments   CommentStore
	contacts   ContactStore
}

// NewAdmin creates a new Admin handler group with the given dependencies.
func NewAdmin(renderer *render.Renderer, posts PostStore, categories CategoryStore, comments CommentStore, contacts ContactStore) *Admin {
	return &Admin{
		renderer:   renderer,
		posts:      posts,
		categories: categories,
		comments:   comments,
		contacts:   contacts,
	}
}

// Dashboard renders the admin dashboard with record counts.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	byStatus, err := a.posts.CountByStatus(ctx)
	if err != nil {
		slog.Error("count posts failed", "error", err)
	}
	categoryCount, err := a.categories.Count(ctx)
	if err != nil {
		slog.Error("count categories failed", "error", err)
	}
	pending, err := a.comments.CountPending(ctx)
	if err != nil {
		slog.Error("count pending comments failed", "error", err)
	}
	unread, err := a.contacts.CountUnread(ctx)
	if err != nil {
		slog.Error("count unread contacts failed", "error", err)
	}

	a.renderer.Page(w, r, "admin/dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"PublishedCount":  byStatus[models.PostStatusPublished],
			"DraftCount":      byStatus[models.PostStatusDraft],
			"CategoryCount":   categoryCount,
			"PendingComments": pending,
			"UnreadContacts":  unread,
		},
	})
}

// --- Posts ---

// PostsList renders the posts management page: search over title, content
// and excerpt, filters by status and category, drafts first.
func (a *Admin) PostsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pageNumber(r)
	f := store.PostFilter{
		Search:     q.Get("q"),
		AdminOrder: true,
		Limit:      adminPageSize,
		Offset:     (page - 1) * adminPageSize,
	}
	if status := models.PostStatus(q.Get("status")); status.Valid() {
		f.Status = status
	}
	if id, err := uuid.Parse(q.Get("category")); err == nil {
		f.CategoryID = &id
	}

	posts, total, err := a.posts.List(r.Context(), f)
	if err != nil {
		serverError(a.renderer, w, r, "list posts", err)
		return
	}
	categories, _, err := a.categories.List(r.Context(), store.CategoryFilter{})
	if err != nil {
		serverError(a.renderer, w, r, "list categories", err)
		return
	}

	a.renderer.Page(w, r, "admin/posts_list", &render.PageData{
		Title:   "Posts",
		Section: "posts",
		Data: map[string]any{
			"Posts":      posts,
			"Categories": categories,
			"Query":      f.Search,
			"Status":     string(f.Status),
			"Category":   q.Get("category"),
			"Pager":      newPager(r, page, total),
		},
	})
}

// --- Categories ---

// CategoriesList renders the categories management page.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	page := pageNumber(r)
	f := store.CategoryFilter{
		Search: r.URL.Query().Get("q"),
		Limit:  adminPageSize,
		Offset: (page - 1) * adminPageSize,
	}
	categories, total, err := a.categories.List(r.Context(), f)
	if err != nil {
		serverError(a.renderer, w, r, "list categories", err)
		return
	}

	a.renderer.Page(w, r, "admin/categories_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data: map[string]any{
			"Categories": categories,
			"Query":      f.Search,
			"Pager":      newPager(r, page, total),
		},
	})
}

// --- Comments ---

// CommentsList renders the comment moderation page, newest first.
func (a *Admin) CommentsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pageNumber(r)
	f := store.CommentFilter{
		Search:      q.Get("q"),
		Approved:    parseBool(q.Get("approved")),
		NewestFirst: true,
		Limit:       adminPageSize,
		Offset:      (page - 1) * adminPageSize,
	}
	comments, total, err := a.comments.List(r.Context(), f)
	if err != nil {
		serverError(a.renderer, w, r, "list comments", err)
		return
	}

	a.renderer.Page(w, r, "admin/comments_list", &render.PageData{
		Title:   "Comments",
		Section: "comments",
		Data: map[string]any{
			"Comments": comments,
			"Query":    f.Search,
			"Approved": boolParam(f.Approved),
			"Pager":    newPager(r, page, total),
		},
	})
}

// CommentsBulk approves or disapproves the selected comments.
func (a *Admin) CommentsBulk(w http.ResponseWriter, r *http.Request) {
	action, ids, ok := bulkForm(a.renderer, w, r)
	if !ok {
		return
	}

	var approved bool
	switch action {
	case "approve":
		approved = true
	case "disapprove":
		approved = false
	default:
		renderError(a.renderer, w, r, http.StatusBadRequest, "Bad request", "Unknown action.")
		return
	}

	if len(ids) > 0 {
		n, err := a.comments.SetApproved(r.Context(), ids, approved)
		if err != nil {
			serverError(a.renderer, w, r, "set comments approved", err)
			return
		}
		slog.Info("comments moderated", "action", action, "count", n)
	}
	http.Redirect(w, r, "/admin/comments", http.StatusSeeOther)
}

// --- Contacts ---

// ContactsList renders the contact messages page, newest first.
func (a *Admin) ContactsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pageNumber(r)
	f := store.ContactFilter{
		Search: q.Get("q"),
		IsRead: parseBool(q.Get("read")),
		Limit:  adminPageSize,
		Offset: (page - 1) * adminPageSize,
	}
	contacts, total, err := a.contacts.List(r.Context(), f)
	if err != nil {
		serverError(a.renderer, w, r, "list contacts", err)
		return
	}

	a.renderer.Page(w, r, "admin/contacts_list", &render.PageData{
		Title:   "Contacts",
		Section: "contacts",
		Data: map[string]any{
			"Contacts": contacts,
			"Query":    f.Search,
			"Read":     boolParam(f.IsRead),
			"Pager":    newPager(r, page, total),
		},
	})
}

// ContactsBulk marks the selected messages read or unread.
func (a *Admin) ContactsBulk(w http.ResponseWriter, r *http.Request) {
	action, ids, ok := bulkForm(a.renderer, w, r)
	if !ok {
		return
	}

	var read bool
	switch action {
	case "mark_read":
		read = true
	case "mark_unread":
		read = false
	default:
		renderError(a.renderer, w, r, http.StatusBadRequest, "Bad request", "Unknown action.")
		return
	}

	if len(ids) > 0 {
		n, err := a.contacts.SetRead(r.Context(), ids, read)
		if err != nil {
			serverError(a.renderer, w, r, "set contacts read", err)
			return
		}
		slog.Info("contacts updated", "action", action, "count", n)
	}
	http.Redirect(w, r, "/admin/contacts", http.StatusSeeOther)
}

// --- Helpers ---

// bulkForm reads the action and the selected ids of a bulk-action form.
// Malformed ids are skipped.
func bulkForm(rn *render.Renderer, w http.ResponseWriter, r *http.Request) (string, []uuid.UUID, bool) {
	if err := r.ParseForm(); err != nil {
		renderError(rn, w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return "", nil, false
	}
	var ids []uuid.UUID
	for _, raw := range r.PostForm["ids"] {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return r.PostForm.Get("action"), ids, true
}

// parseBool reads a tri-state filter: "true", "false" or unset.
func parseBool(s string) *bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &b
}

// boolParam renders a tri-state filter back for the select box.
func boolParam(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// pageNumber reads ?page=, defaulting to 1.
func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// pager holds the pagination links of an admin list.
type pager struct {
	Page    int
	Pages   int
	Total   int
	PrevURL string
	NextURL string
}

func newPager(r *http.Request, page, total int) pager {
	p := pager{Page: page, Total: total, Pages: (total + adminPageSize - 1) / adminPageSize}
	if page > 1 {
		p.PrevURL = pageLink(r, page-1)
	}
	if page < p.Pages {
		p.NextURL = pageLink(r, page+1)
	}
	return p
}

// pageLink returns the current URL with ?page= replaced, keeping filters.
func pageLink(r *http.Request, page int) string {
	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q.Encode()
}
