package api

import (
	"net/http"
	"strings"

	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/serialize"
	"blogcms/internal/store"
)

type categoryInput struct {
	Name        *string `json:"name" validate:"required,notblank,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,max=100,slug"`
	Description *string `json:"description"`
}

func categoryInputFrom(c *models.Category) categoryInput {
	return categoryInput{
		Name:        ptr(c.Name),
		Slug:        ptr(c.Slug),
		Description: ptr(c.Description),
	}
}

func (in *categoryInput) apply(c *models.Category) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		c.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePage(w, r)
	if !ok {
		return
	}
	cats, total, err := h.categories.List(r.Context(), store.CategoryFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  p.limit(),
		Offset: p.offset(),
	})
	if err != nil {
		storeError(w, r, "list categories", err)
		return
	}
	writeList(w, r, p, total, serialize.Categories(cats))
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "get category", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, serialize.Category(c))
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	var in categoryInput
	if !decodeJSON(w, r, &in) || !h.check(w, &in, nil) {
		return
	}

	c := &models.Category{}
	in.apply(c)
	created, err := h.categories.Create(r.Context(), c)
	if err != nil {
		storeError(w, r, "create category", err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, serialize.Category(created))
}

// updateCategory serves PUT and PATCH /categories/{id}/. The slug only
// changes when one is sent.
func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "get category", err)
		return
	}

	var in categoryInput
	if r.Method == http.MethodPatch {
		in = categoryInputFrom(c)
	}
	if !decodeJSON(w, r, &in) || !h.check(w, &in, nil) {
		return
	}

	in.apply(c)
	if err := h.categories.Update(r.Context(), c); err != nil {
		storeError(w, r, "update category", err)
		return
	}
	updated, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "reload category", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, serialize.Category(updated))
}

// deleteCategory serves DELETE /categories/{id}/. Posts in the category
// become uncategorised.
func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		storeError(w, r, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
