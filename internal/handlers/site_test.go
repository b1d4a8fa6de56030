package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"blogcms/internal/models"
	"blogcms/internal/serialize"
	"blogcms/internal/store"
)

// --- Post list & detail ---

func TestPostList_AnonymousSeesPublishedOnly(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, "Visible post", models.PostStatusPublished, nil)
	env.createPost(t, "Secret draft", models.PostStatusDraft, nil)

	rec := httptest.NewRecorder()
	env.Site.PostList(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("PostList: got status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Visible post") {
		t.Error("published post missing from list")
	}
	if strings.Contains(body, "Secret draft") {
		t.Error("draft leaked to anonymous visitor")
	}
}

func TestPostList_StaffSeesDrafts(t *testing.T) {
	env := newTestEnv(t)
	env.createPost(t, "Secret draft", models.PostStatusDraft, nil)

	rec := httptest.NewRecorder()
	req := withSession(httptest.NewRequest(http.MethodGet, "/", nil), env.staffSession())
	env.Site.PostList(rec, req)

	if !strings.Contains(rec.Body.String(), "Secret draft") {
		t.Error("staff should see drafts")
	}
}

func TestPostList_JSON(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Go")
	p := env.createPost(t, "Hello JSON", models.PostStatusPublished, cat)
	p.FeaturedImage = "posts/2026/01/a.png"
	if err := env.DB.Posts().Update(context.Background(), p); err != nil {
		t.Fatalf("update: %v", err)
	}

	rec := httptest.NewRecorder()
	env.Site.PostList(rec, jsonRequest("http://example.com/posts/"))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var out []serialize.PostOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d posts, want 1", len(out))
	}
	got := out[0]
	if got.Title != "Hello JSON" || got.Category != "Go" || got.Author != "admin" {
		t.Errorf("unexpected post: %+v", got)
	}
	if got.Image == nil || *got.Image != "http://example.com/media/posts/2026/01/a.png" {
		t.Errorf("image = %v, want absolute media URL", got.Image)
	}
}

func TestPostDetail_IncrementsViews(t *testing.T) {
	env := newTestEnv(t)
	p := env.createPost(t, "Counted", models.PostStatusPublished, nil)

	for range 2 {
		rec := httptest.NewRecorder()
		env.Site.PostDetail(rec, withID(httptest.NewRequest(http.MethodGet, "/posts/x/", nil), p.ID))
		if rec.Code != http.StatusOK {
			t.Fatalf("PostDetail: got status %d", rec.Code)
		}
	}

	got, err := env.DB.Posts().FindByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Views != 2 {
		t.Errorf("views = %d, want 2", got.Views)
	}
}

func TestPostDetail_JSONDoesNotCountViews(t *testing.T) {
	env := newTestEnv(t)
	p := env.createPost(t, "Machine read", models.PostStatusPublished, nil)

	rec := httptest.NewRecorder()
	env.Site.PostDetail(rec, withID(jsonRequest("/posts/x/"), p.ID))

	var out serialize.PostOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != p.ID || out.Slug != "machine-read" {
		t.Errorf("unexpected post: %+v", out)
	}
	got, _ := env.DB.Posts().FindByID(context.Background(), p.ID)
	if got.Views != 0 {
		t.Errorf("views = %d, want 0", got.Views)
	}
}

func TestPostDetail_DraftHiddenFromAnonymous(t *testing.T) {
	env := newTestEnv(t)
	p := env.createPost(t, "Draft", models.PostStatusDraft, nil)

	rec := httptest.NewRecorder()
	env.Site.PostDetail(rec, withID(httptest.NewRequest(http.MethodGet, "/posts/x/", nil), p.ID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("anonymous: got status %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := withID(httptest.NewRequest(http.MethodGet, "/posts/x/", nil), p.ID)
	env.Site.PostDetail(rec, withSession(req, env.staffSession()))
	if rec.Code != http.StatusOK {
		t.Errorf("staff: got status %d, want 200", rec.Code)
	}
}

func TestPostDetail_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		rec := httptest.NewRecorder()
		env.Site.PostDetail(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/posts/x/", nil), "id", id))
		if rec.Code != http.StatusNotFound {
			t.Errorf("id %q: got status %d, want 404", id, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	env.Site.PostDetail(rec, withChiURLParam(jsonRequest("/posts/x/"), "id", uuid.NewString()))
	if !strings.Contains(rec.Body.String(), `"detail":"Not found."`) {
		t.Errorf("JSON 404 body = %s", rec.Body.String())
	}
}

func TestPostDetail_ShowsApprovedComments(t *testing.T) {
	env := newTestEnv(t)
	p := env.createPost(t, "Discussed", models.PostStatusPublished, nil)
	ctx := context.Background()
	env.DB.Comments().Create(ctx, &models.Comment{PostID: p.ID, Content: "Approved remark", IsApproved: true})
	env.DB.Comments().Create(ctx, &models.Comment{PostID: p.ID, Content: "Pending remark"})

	rec := httptest.NewRecorder()
	env.Site.PostDetail(rec, withID(httptest.NewRequest(http.MethodGet, "/posts/x/", nil), p.ID))

	body := rec.Body.String()
	if !strings.Contains(body, "Approved remark") {
		t.Error("approved comment missing")
	}
	if strings.Contains(body, "Pending remark") {
		t.Error("pending comment shown to anonymous visitor")
	}
}

func TestPostList_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.DB.Err = errBoom

	rec := httptest.NewRecorder()
	env.Site.PostList(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("internal error leaked to client")
	}
}

// --- Post create / update / delete ---

func TestPostNew_Returns200(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "Travel")

	rec := httptest.NewRecorder()
	env.Site.PostNew(rec, withSession(httptest.NewRequest(http.MethodGet, "/posts/new/", nil), env.staffSession()))

	if rec.Code != http.StatusOK {
		t.Fatalf("PostNew: got status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Travel") {
		t.Error("category choices missing from form")
	}
}

func TestPostCreate_ValidData_Redirects(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "News")

	form := url.Values{}
	form.Set("title", "Fresh post")
	form.Set("category", cat.ID.String())
	form.Set("content", `<p>Hello</p><script>alert(1)</script>`)
	form.Set("status", "published")

	rec := httptest.NewRecorder()
	env.Site.PostCreate(rec, withSession(formRequest("/posts/new/", form), env.staffSession()))
	assertRedirect(t, rec, "/")

	posts, _, err := env.DB.Posts().List(context.Background(), store.PostFilter{})
	if err != nil || len(posts) != 1 {
		t.Fatalf("List: %v, %d posts", err, len(posts))
	}
	p := posts[0]
	if p.Slug != "fresh-post" {
		t.Errorf("slug = %q", p.Slug)
	}
	if p.AuthorID == nil || *p.AuthorID != env.Staff.ID {
		t.Error("author should be the signed-in user")
	}
	if p.CategoryID == nil || *p.CategoryID != cat.ID {
		t.Error("category not set")
	}
	if p.PublishedAt == nil {
		t.Error("published post should be stamped")
	}
	if strings.Contains(p.Content, "<script>") || !strings.Contains(p.Content, "<p>Hello</p>") {
		t.Errorf("content not sanitised: %q", p.Content)
	}
}

func TestPostCreate_DefaultsToDraft(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"title": {"Quiet post"}, "content": {"text"}}
	rec := httptest.NewRecorder()
	env.Site.PostCreate(rec, withSession(formRequest("/posts/new/", form), env.staffSession()))
	assertRedirect(t, rec, "/")

	posts, _, _ := env.DB.Posts().List(context.Background(), store.PostFilter{})
	if len(posts) != 1 || posts[0].Status != models.PostStatusDraft || posts[0].PublishedAt != nil {
		t.Errorf("expected one unstamped draft, got %+v", posts)
	}
}

func TestPostCreate_InvalidData_ReRendersForm(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing title", url.Values{"content": {"x"}}, "This field is required."},
		{"unknown category", url.Values{"title": {"T"}, "content": {"x"}, "category": {uuid.NewString()}}, "Select a valid choice."},
		{"malformed category", url.Values{"title": {"T"}, "content": {"x"}, "category": {"nope"}}, "Select a valid choice."},
		{"bad status", url.Values{"title": {"T"}, "content": {"x"}, "status": {"archived"}}, "archived is not one of the available choices"},
		{"long title", url.Values{"title": {strings.Repeat("a", maxTitleLen+1)}, "content": {"x"}}, "no more than 200 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := httptest.NewRecorder()
			env.Site.PostCreate(rec, withSession(formRequest("/posts/new/", tt.form), env.staffSession()))

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("got status %d, want 422", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
			if _, n, _ := env.DB.Posts().List(context.Background(), store.PostFilter{}); n != 0 {
				t.Errorf("invalid form created %d posts", n)
			}
		})
	}
}

func TestPostCreate_WithImage(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/posts/new/", map[string]string{
		"title": "Illustrated", "content": "pic", "status": "published",
	}, "cover.png", pngBytes)
	rec := httptest.NewRecorder()
	env.Site.PostCreate(rec, withSession(req, env.staffSession()))
	assertRedirect(t, rec, "/")

	posts, _, _ := env.DB.Posts().List(context.Background(), store.PostFilter{})
	if len(posts) != 1 {
		t.Fatalf("got %d posts", len(posts))
	}
	key := posts[0].FeaturedImage
	if !strings.HasPrefix(key, "posts/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("featured image key = %q", key)
	}
	if _, err := os.Stat(filepath.Join(env.Media.Root(), filepath.FromSlash(key))); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
}

func TestPostCreate_RejectsNonImage(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/posts/new/", map[string]string{
		"title": "Bad upload", "content": "x",
	}, "notes.txt", []byte("just some text, not an image"))
	rec := httptest.NewRecorder()
	env.Site.PostCreate(rec, withSession(req, env.staffSession()))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Upload a valid image") {
		t.Error("expected image error")
	}
	entries, _ := os.ReadDir(env.Media.Root())
	if len(entries) != 0 {
		t.Errorf("rejected upload left %d entries in media root", len(entries))
	}
}

func TestPostEdit_Returns200(t *testing.T) {
	env := newTestEnv(t)
	p := env.createPost(t, "Editable", models.PostStatusDraft, nil)

	rec := httptest.NewRecorder()
	req := withID(httptest.NewRequest(http.MethodGet, "/posts/x/edit/", nil), p.ID)
	env.Site.PostEdit(rec, withSession(req, env.staffSession()))

	if rec.Code != http.StatusOK {
		t.Fatalf("PostEdit: got status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `value="Editable"`) {
		t.Error("form not filled with current title")
	}
}

func TestPostUpdate_ValidData_Redirects(t *testing.T) {
	env := newTestEnv(t)
	p := env.createPost(t, "Before", models.PostStatusDraft, nil)

	form := url.Values{"title": {"After"}, "content": {"new body"}, "status": {"published"}}
	rec := httptest.NewRecorder()
	req := withID(formRequest("/posts/x/edit/", form), p.ID)
	env.Site.PostUpdate(rec, withSession(req, env.staffSession()))
	assertRedirect(t, rec, "/")

	got, _ := env.DB.Posts().FindByID(context.Background(), p.ID)
	if got.Title != "After" || got.Content != "new body" {
		t.Errorf("not updated: %+v", got)
	}
	if got.Slug != "before" {
		t.Errorf("slug changed to %q", got.Slug)
	}
	if got.PublishedAt == nil {
		t.Error("publishing should stamp published_at")
	}
}

func TestPostUpdate_ReplacesImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	oldKey := "posts/2026/01/old.png"
	if err := env.Media.Save(ctx, oldKey, "image/png", strings.NewReader(string(pngBytes)), int64(len(pngBytes))); err != nil {
		t.Fatalf("seed image: %v", err)
	}
	p := env.createPost(t, "Pictured", models.PostStatusPublished, nil)
	p.FeaturedImage = oldKey
	env.DB.Posts().Update(ctx, p)

	req := multipartRequest(t, "/posts/x/edit/", map[string]string{
		"title": "Pictured", "content": "body", "status": "published",
	}, "new.png", pngBytes)
	rec := httptest.NewRecorder()
	env.Site.PostUpdate(rec, withSession(withID(req, p.ID), env.staffSession()))
	assertRedirect(t, rec, "/")

	got, _ := env.DB.Posts().FindByID(ctx, p.ID)
	if got.FeaturedImage == oldKey || got.FeaturedImage == "" {
		t.Errorf("image key = %q, want a new key", got.FeaturedImage)
	}
	if _, err := os.Stat(filepath.Join(env.Media.Root(), filepath.FromSlash(oldKey))); !os.IsNotExist(err) {
		t.Error("old image should be removed")
	}
}

func TestPostUpdate_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	req := withID(formRequest("/posts/x/edit/", url.Values{"title": {"T"}, "content": {"x"}}), uuid.New())
	env.Site.PostUpdate(rec, withSession(req, env.staffSession()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}
}

func TestPostDelete_RemovesPostAndComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createPost(t, "Doomed", models.PostStatusPublished, nil)
	env.DB.Comments().Create(ctx, &models.Comment{PostID: p.ID, Content: "bye", IsApproved: true})

	rec := httptest.NewRecorder()
	env.Site.PostConfirmDelete(rec, withSession(withID(httptest.NewRequest(http.MethodGet, "/posts/x/delete/", nil), p.ID), env.staffSession()))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Doomed") {
		t.Fatalf("confirm page: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.Site.PostDelete(rec, withSession(withID(formRequest("/posts/x/delete/", url.Values{}), p.ID), env.staffSession()))
	assertRedirect(t, rec, "/")

	if _, err := env.DB.Posts().FindByID(ctx, p.ID); err == nil {
		t.Error("post still exists")
	}
	if _, n, _ := env.DB.Comments().List(ctx, store.CommentFilter{}); n != 0 {
		t.Errorf("%d comments survived their post", n)
	}
}

// --- Categories ---

func TestCategoryList_HTMLAndJSON(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Science")
	env.createPost(t, "Atoms", models.PostStatusPublished, cat)

	rec := httptest.NewRecorder()
	env.Site.CategoryList(rec, httptest.NewRequest(http.MethodGet, "/categories/", nil))
	if body := rec.Body.String(); !strings.Contains(body, "Science") || !strings.Contains(body, "1 post<") {
		t.Errorf("HTML list missing category or count: %s", body)
	}

	rec = httptest.NewRecorder()
	env.Site.CategoryList(rec, jsonRequest("/categories/"))
	var out []serialize.CategoryOut
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Science" || out[0].Slug != "science" {
		t.Errorf("unexpected categories: %+v", out)
	}
}

func TestCategoryDetail_ListsPublishedPosts(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Food")
	env.createPost(t, "Bread", models.PostStatusPublished, cat)
	env.createPost(t, "Soup draft", models.PostStatusDraft, cat)
	env.createPost(t, "Elsewhere", models.PostStatusPublished, nil)

	rec := httptest.NewRecorder()
	env.Site.CategoryDetail(rec, withID(jsonRequest("/categories/x/"), cat.ID))

	var out struct {
		ID    uuid.UUID           `json:"id"`
		Name  string              `json:"name"`
		Posts []serialize.PostOut `json:"posts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != cat.ID || out.Name != "Food" {
		t.Errorf("unexpected category: %+v", out)
	}
	if len(out.Posts) != 1 || out.Posts[0].Title != "Bread" {
		t.Errorf("posts = %+v, want only Bread", out.Posts)
	}

	rec = httptest.NewRecorder()
	env.Site.CategoryDetail(rec, withID(httptest.NewRequest(http.MethodGet, "/categories/x/", nil), cat.ID))
	if body := rec.Body.String(); !strings.Contains(body, "Bread") || strings.Contains(body, "Soup draft") {
		t.Error("HTML detail should list only published posts")
	}
}

func TestCategoryCreate(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	form := url.Values{"name": {"Music"}, "description": {"Sounds"}}
	env.Site.CategoryCreate(rec, withSession(formRequest("/categories/new/", form), env.staffSession()))
	assertRedirect(t, rec, "/")

	c, err := env.DB.Categories().FindBySlug(context.Background(), "music")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if c.Description != "Sounds" {
		t.Errorf("description = %q", c.Description)
	}

	// Same name again conflicts.
	rec = httptest.NewRecorder()
	env.Site.CategoryCreate(rec, withSession(formRequest("/categories/new/", form), env.staffSession()))
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "already exists") {
		t.Errorf("duplicate: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.Site.CategoryCreate(rec, withSession(formRequest("/categories/new/", url.Values{"name": {"  "}}), env.staffSession()))
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), msgRequired) {
		t.Errorf("blank name: status %d", rec.Code)
	}
}

func TestCategoryUpdate_KeepsSlug(t *testing.T) {
	env := newTestEnv(t)
	cat := env.createCategory(t, "Old name")

	rec := httptest.NewRecorder()
	req := withID(formRequest("/categories/x/edit/", url.Values{"name": {"New name"}}), cat.ID)
	env.Site.CategoryUpdate(rec, withSession(req, env.staffSession()))
	assertRedirect(t, rec, "/")

	got, _ := env.DB.Categories().FindByID(context.Background(), cat.ID)
	if got.Name != "New name" || got.Slug != "old-name" {
		t.Errorf("got name %q slug %q", got.Name, got.Slug)
	}
}

func TestCategoryDelete_LeavesPostsUncategorised(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.createCategory(t, "Temporary")
	p := env.createPost(t, "Survivor", models.PostStatusPublished, cat)

	rec := httptest.NewRecorder()
	env.Site.CategoryDelete(rec, withSession(withID(formRequest("/categories/x/delete/", url.Values{}), cat.ID), env.staffSession()))
	assertRedirect(t, rec, "/")

	got, err := env.DB.Posts().FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("post should survive: %v", err)
	}
	if got.CategoryID != nil {
		t.Error("post should be uncategorised")
	}
}

// --- Contact ---

func TestContactSubmit(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Site.ContactForm(rec, httptest.NewRequest(http.MethodGet, "/contact/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ContactForm: got status %d", rec.Code)
	}

	form := url.Values{
		"name": {"Ada"}, "email": {"ada@example.com"},
		"subject": {"Hi"}, "message": {"Lovely blog"},
	}
	rec = httptest.NewRecorder()
	env.Site.ContactSubmit(rec, formRequest("/contact/", form))
	assertRedirect(t, rec, "/")

	contacts, _, _ := env.DB.Contacts().List(context.Background(), store.ContactFilter{})
	if len(contacts) != 1 || contacts[0].Name != "Ada" || contacts[0].IsRead {
		t.Errorf("unexpected contacts: %+v", contacts)
	}
}

func TestContactSubmit_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{
		"name": {"Ada"}, "email": {"not-an-email"},
		"subject": {"Hi"}, "message": {"Lovely blog"},
	}
	rec := httptest.NewRecorder()
	env.Site.ContactSubmit(rec, formRequest("/contact/", form))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Enter a valid email address.") || !strings.Contains(body, `value="Ada"`) {
		t.Error("expected email error with preserved input")
	}
}
