// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory store fakes and a temporary media root.
package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/render"
	"blogcms/internal/serialize"
	"blogcms/internal/session"
	"blogcms/internal/storage"
	"blogcms/internal/store/storetest"
)

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

// fakeSessions records session lifecycle calls.
type fakeSessions struct {
	created   []*session.Data
	destroyed int
	err       error
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, data)
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "test-session"})
	return "test-session", nil
}

func (f *fakeSessions) Destroy(_ context.Context, _ http.ResponseWriter, _ *http.Request) error {
	f.destroyed++
	return nil
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	DB       *storetest.DB
	Media    *storage.Local
	Sessions *fakeSessions
	Site     *Site
	Admin    *Admin
	Auth     *Auth

	Staff  *models.User
	Reader *models.User
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	media, err := storage.NewLocal(t.TempDir(), "/media/")
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}

	db := storetest.New()
	ctx := context.Background()
	staff, err := db.Users().Create(ctx, "admin", "admin@example.com", "secret-password", true)
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	reader, err := db.Users().Create(ctx, "reader", "reader@example.com", "reader-password", false)
	if err != nil {
		t.Fatalf("create reader: %v", err)
	}

	ser := serialize.New(media.URL, "http://localhost:8000")
	sessions := &fakeSessions{}

	return &testEnv{
		DB:       db,
		Media:    media,
		Sessions: sessions,
		Site:     NewSite(renderer, db.Posts(), db.Categories(), db.Comments(), db.Contacts(), media, ser, 1<<20),
		Admin:    NewAdmin(renderer, db.Posts(), db.Categories(), db.Comments(), db.Contacts()),
		Auth:     NewAuth(renderer, sessions, db.Users()),
		Staff:    staff,
		Reader:   reader,
	}
}

// staffSession returns a session for the env's staff user.
func (e *testEnv) staffSession() *session.Data {
	return &session.Data{UserID: e.Staff.ID, Username: e.Staff.Username, IsStaff: true, CreatedAt: time.Now()}
}

// createCategory inserts a category through the store.
func (e *testEnv) createCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := e.DB.Categories().Create(context.Background(), &models.Category{Name: name})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

// createPost inserts a post authored by the staff user.
func (e *testEnv) createPost(t *testing.T, title string, status models.PostStatus, category *models.Category) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Content: "<p>Body of " + title + "</p>", Status: status, AuthorID: &e.Staff.ID}
	if category != nil {
		p.CategoryID = &category.ID
	}
	created, err := e.DB.Posts().Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return created
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withSession attaches sess (if non-nil) to r.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	if sess == nil {
		return r
	}
	return r.WithContext(ctxWithSession(r.Context(), sess))
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withID adds the {id} URL parameter.
func withID(r *http.Request, id uuid.UUID) *http.Request {
	return withChiURLParam(r, "id", id.String())
}

// formRequest builds an urlencoded POST.
func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// multipartRequest builds a multipart POST with fields and an optional
// featured_image file.
func multipartRequest(t *testing.T, target string, fields map[string]string, filename string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("featured_image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(file)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// jsonRequest builds a GET that asks for JSON.
func jsonRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

// assertRedirect checks for a 303 to want.
func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got status %d, want %d; body: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

var errBoom = errors.New("boom")
