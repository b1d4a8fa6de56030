package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/serialize"
	"blogcms/internal/store"
)

type commentInput struct {
	Post       *uuid.UUID `json:"post" validate:"required"`
	Author     *uuid.UUID `json:"author"`
	Content    *string    `json:"content" validate:"required,notblank,max=5000"`
	IsApproved *bool      `json:"is_approved"`
}

func commentInputFrom(c *models.Comment) commentInput {
	return commentInput{
		Post:       ptr(c.PostID),
		Author:     c.AuthorID,
		Content:    ptr(c.Content),
		IsApproved: ptr(c.IsApproved),
	}
}

func (in *commentInput) apply(c *models.Comment) {
	if in.Post != nil {
		c.PostID = *in.Post
	}
	if in.Author != nil {
		c.AuthorID = in.Author
	}
	if in.Content != nil {
		c.Content = *in.Content
	}
	if in.IsApproved != nil {
		c.IsApproved = *in.IsApproved
	}
}

// listComments serves GET /comments/. Anonymous callers only see approved
// comments; staff may filter with ?is_approved=. ?post=<id> narrows to one
// post.
func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePage(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := store.CommentFilter{
		Search: q.Get("search"),
		Limit:  p.limit(),
		Offset: p.offset(),
	}
	if raw := q.Get("post"); raw != "" {
		postID, err := uuid.Parse(raw)
		if err != nil {
			middleware.WriteJSON(w, http.StatusBadRequest, fieldErrors{"post": {"Must be a valid UUID."}})
			return
		}
		f.PostID = &postID
	}
	if middleware.IsStaff(r.Context()) {
		if approved, err := strconv.ParseBool(q.Get("is_approved")); err == nil {
			f.Approved = &approved
		}
	} else {
		f.Approved = ptr(true)
	}

	comments, total, err := h.comments.List(r.Context(), f)
	if err != nil {
		storeError(w, r, "list comments", err)
		return
	}
	writeList(w, r, p, total, serialize.Comments(comments))
}

func (h *Handler) getComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.comments.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "get comment", err)
		return
	}
	if !c.IsApproved && !middleware.IsStaff(r.Context()) {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, serialize.Comment(c))
}

// createComment serves POST /comments/. Anyone may comment on a published
// post; comments from non-staff are attributed to the session user (or
// nobody) and always start unapproved.
func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var in commentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	staff := middleware.IsStaff(r.Context())
	extra := fieldErrors{}
	if in.Post != nil {
		post, err := h.posts.FindByID(r.Context(), *in.Post)
		switch {
		case errors.Is(err, store.ErrNotFound) || (err == nil && !staff && !post.IsPublished()):
			extra.add("post", "Invalid pk - object does not exist.")
		case err != nil:
			storeError(w, r, "get post", err)
			return
		}
	}
	if !h.check(w, &in, extra) {
		return
	}

	c := &models.Comment{}
	in.apply(c)
	if !staff {
		c.IsApproved = false
		c.AuthorID = nil
	}
	if c.AuthorID == nil {
		if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
			c.AuthorID = ptr(sess.UserID)
		}
	}

	created, err := h.comments.Create(r.Context(), c)
	if err != nil {
		storeError(w, r, "create comment", err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, serialize.Comment(created))
}

func (h *Handler) updateComment(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.comments.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "get comment", err)
		return
	}

	var in commentInput
	if r.Method == http.MethodPatch {
		in = commentInputFrom(c)
	}
	if !decodeJSON(w, r, &in) || !h.check(w, &in, nil) {
		return
	}

	in.apply(c)
	if err := h.comments.Update(r.Context(), c); err != nil {
		storeError(w, r, "update comment", err)
		return
	}
	updated, err := h.comments.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "reload comment", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, serialize.Comment(updated))
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.comments.Delete(r.Context(), id); err != nil {
		storeError(w, r, "delete comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
