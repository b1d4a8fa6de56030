package api

import (
	"net/http"
	"strconv"
	"strings"

	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/serialize"
	"blogcms/internal/store"
)

type contactInput struct {
	Name    *string `json:"name" validate:"required,notblank,max=100"`
	Email   *string `json:"email" validate:"required,notblank,email,max=254"`
	Subject *string `json:"subject" validate:"required,notblank,max=200"`
	Message *string `json:"message" validate:"required,notblank"`
	IsRead  *bool   `json:"is_read"`
}

func contactInputFrom(c *models.Contact) contactInput {
	return contactInput{
		Name:    ptr(c.Name),
		Email:   ptr(c.Email),
		Subject: ptr(c.Subject),
		Message: ptr(c.Message),
		IsRead:  ptr(c.IsRead),
	}
}

func (in *contactInput) apply(c *models.Contact) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Subject != nil {
		c.Subject = strings.TrimSpace(*in.Subject)
	}
	if in.Message != nil {
		c.Message = *in.Message
	}
	if in.IsRead != nil {
		c.IsRead = *in.IsRead
	}
}

// listContacts serves GET /contacts/ to staff, newest first. ?is_read= and
// ?search= narrow the listing.
func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	p, ok := parsePage(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := store.ContactFilter{
		Search: q.Get("search"),
		Limit:  p.limit(),
		Offset: p.offset(),
	}
	if read, err := strconv.ParseBool(q.Get("is_read")); err == nil {
		f.IsRead = &read
	}

	contacts, total, err := h.contacts.List(r.Context(), f)
	if err != nil {
		storeError(w, r, "list contacts", err)
		return
	}
	writeList(w, r, p, total, serialize.Contacts(contacts))
}

func (h *Handler) getContact(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.contacts.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "get contact", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, serialize.Contact(c))
}

// createContact serves POST /contacts/. Anyone may submit; only staff can
// create a message already marked read.
func (h *Handler) createContact(w http.ResponseWriter, r *http.Request) {
	var in contactInput
	if !decodeJSON(w, r, &in) || !h.check(w, &in, nil) {
		return
	}

	c := &models.Contact{}
	in.apply(c)
	if !middleware.IsStaff(r.Context()) {
		c.IsRead = false
	}

	created, err := h.contacts.Create(r.Context(), c)
	if err != nil {
		storeError(w, r, "create contact", err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, serialize.Contact(created))
}

func (h *Handler) updateContact(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.contacts.FindByID(r.Context(), id)
	if err != nil {
		storeError(w, r, "get contact", err)
		return
	}

	var in contactInput
	if r.Method == http.MethodPatch {
		in = contactInputFrom(c)
	}
	if !decodeJSON(w, r, &in) || !h.check(w, &in, nil) {
		return
	}

	in.apply(c)
	if err := h.contacts.Update(r.Context(), c); err != nil {
		storeError(w, r, "update contact", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, serialize.Contact(c))
}

func (h *Handler) deleteContact(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.contacts.Delete(r.Context(), id); err != nil {
		storeError(w, r, "delete contact", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
