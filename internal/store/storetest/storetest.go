// Package storetest provides in-memory implementations of the store types
// for handler tests. They follow the same contracts as the PostgreSQL
// stores: sentinel errors, slug allocation, ordering and the deletion
// policy (categories and authors set null, comments cascade with posts).
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"blogcms/internal/models"
	"blogcms/internal/slug"
	"blogcms/internal/store"
)

// DB holds every in-memory table. The zero value is not usable; call New.
type DB struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*models.User
	categories map[uuid.UUID]*models.Category
	posts      map[uuid.UUID]*models.Post
	comments   map[uuid.UUID]*models.Comment
	contacts   map[uuid.UUID]*models.Contact
	clock      time.Time

	// Err, when set, is returned by every operation.
	Err error
}

// New returns an empty database.
func New() *DB {
	return &DB{
		users:      make(map[uuid.UUID]*models.User),
		categories: make(map[uuid.UUID]*models.Category),
		posts:      make(map[uuid.UUID]*models.Post),
		comments:   make(map[uuid.UUID]*models.Comment),
		contacts:   make(map[uuid.UUID]*models.Contact),
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock by one second so creation order is strict.
// Caller holds mu.
func (db *DB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *DB) Users() *Users           { return &Users{db} }
func (db *DB) Categories() *Categories { return &Categories{db} }
func (db *DB) Posts() *Posts           { return &Posts{db} }
func (db *DB) Comments() *Comments     { return &Comments{db} }
func (db *DB) Contacts() *Contacts     { return &Contacts{db} }

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, store.ErrNotFound)
}

func conflict(op, field string) error {
	return fmt.Errorf("%s: %w", op, &store.ConstraintError{Kind: store.ErrConflict, Field: field})
}

func invalidRef(op, field string) error {
	return fmt.Errorf("%s: %w", op, &store.ConstraintError{Kind: store.ErrInvalidReference, Field: field})
}

func contains(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func window[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (db *DB) slugTaken(table, candidate string, except uuid.UUID) bool {
	switch table {
	case "posts":
		for _, p := range db.posts {
			if p.Slug == candidate && p.ID != except {
				return true
			}
		}
	case "categories":
		for _, c := range db.categories {
			if c.Slug == candidate && c.ID != except {
				return true
			}
		}
	}
	return false
}

func (db *DB) uniqueSlug(table, base string) string {
	for n := 1; ; n++ {
		if candidate := slug.WithSuffix(base, n); !db.slugTaken(table, candidate, uuid.Nil) {
			return candidate
		}
	}
}

// --- Users ---

// Users mirrors store.UserStore.
type Users struct{ db *DB }

func (s *Users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	for _, u := range s.db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("find user by username")
}

func (s *Users) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	u, ok := s.db.users[id]
	if !ok {
		return nil, notFound("find user by id")
	}
	cp := *u
	return &cp, nil
}

func (s *Users) List(_ context.Context) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	out := []models.User{}
	for _, u := range s.db.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Users) Create(_ context.Context, username, email, password string, isStaff bool) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	for _, u := range s.db.users {
		if u.Username == username {
			return nil, conflict("create user", "username")
		}
	}
	now := s.db.tick()
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsStaff:      isStaff,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.db.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *Users) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return s.db.Err
	}
	if _, ok := s.db.users[id]; !ok {
		return notFound("delete user")
	}
	delete(s.db.users, id)
	for _, p := range s.db.posts {
		if p.AuthorID != nil && *p.AuthorID == id {
			p.AuthorID = nil
		}
	}
	for _, c := range s.db.comments {
		if c.AuthorID != nil && *c.AuthorID == id {
			c.AuthorID = nil
		}
	}
	return nil
}

func (s *Users) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// --- Categories ---

// Categories mirrors store.CategoryStore.
type Categories struct{ db *DB }

func (s *Categories) withCount(c *models.Category) models.Category {
	cp := *c
	cp.PostCount = 0
	for _, p := range s.db.posts {
		if p.CategoryID != nil && *p.CategoryID == c.ID {
			cp.PostCount++
		}
	}
	return cp
}

func (s *Categories) List(_ context.Context, f store.CategoryFilter) ([]models.Category, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, 0, s.db.Err
	}
	out := []models.Category{}
	for _, c := range s.db.categories {
		if f.Search != "" && !contains(f.Search, c.Name, c.Description) {
			continue
		}
		out = append(out, s.withCount(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return window(out, f.Limit, f.Offset), len(out), nil
}

func (s *Categories) find(op string, match func(*models.Category) bool) (*models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	for _, c := range s.db.categories {
		if match(c) {
			cp := s.withCount(c)
			return &cp, nil
		}
	}
	return nil, notFound(op)
}

func (s *Categories) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	return s.find("find category by id", func(c *models.Category) bool { return c.ID == id })
}

func (s *Categories) FindBySlug(_ context.Context, catSlug string) (*models.Category, error) {
	return s.find("find category by slug", func(c *models.Category) bool { return c.Slug == catSlug })
}

func (s *Categories) FindByName(_ context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	return s.find("find category by name", func(c *models.Category) bool { return strings.EqualFold(c.Name, name) })
}

func (s *Categories) Lookup(ctx context.Context, ref string) (*models.Category, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return s.FindByID(ctx, id)
	}
	return s.find("lookup category", func(c *models.Category) bool {
		return strings.EqualFold(c.Name, ref) || c.Slug == ref
	})
}

func (s *Categories) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	name := strings.TrimSpace(c.Name)
	for _, existing := range s.db.categories {
		if existing.Name == name {
			return nil, conflict("create category", "name")
		}
	}
	catSlug := c.Slug
	if catSlug == "" {
		base := slug.Generate(name)
		if base == "" {
			base = "category"
		}
		catSlug = s.db.uniqueSlug("categories", base)
	} else if s.db.slugTaken("categories", catSlug, uuid.Nil) {
		return nil, conflict("create category", "slug")
	}

	created := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        catSlug,
		Description: c.Description,
		CreatedAt:   s.db.tick(),
	}
	s.db.categories[created.ID] = created
	cp := *created
	return &cp, nil
}

func (s *Categories) Update(_ context.Context, c *models.Category) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return s.db.Err
	}
	existing, ok := s.db.categories[c.ID]
	if !ok {
		return notFound("update category")
	}
	name := strings.TrimSpace(c.Name)
	for _, other := range s.db.categories {
		if other.ID != c.ID && other.Name == name {
			return conflict("update category", "name")
		}
	}
	if c.Slug != "" {
		if s.db.slugTaken("categories", c.Slug, c.ID) {
			return conflict("update category", "slug")
		}
		existing.Slug = c.Slug
	}
	existing.Name = name
	existing.Description = c.Description
	return nil
}

func (s *Categories) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return s.db.Err
	}
	if _, ok := s.db.categories[id]; !ok {
		return notFound("delete category")
	}
	delete(s.db.categories, id)
	for _, p := range s.db.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	return nil
}

func (s *Categories) Count(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return 0, s.db.Err
	}
	return len(s.db.categories), nil
}

// --- Posts ---

// Posts mirrors store.PostStore.
type Posts struct{ db *DB }

// joined returns a copy of p with author and category names filled in.
func (s *Posts) joined(p *models.Post) models.Post {
	cp := *p
	cp.AuthorName, cp.CategoryName = "", ""
	if p.AuthorID != nil {
		if u, ok := s.db.users[*p.AuthorID]; ok {
			cp.AuthorName = u.Username
		}
	}
	if p.CategoryID != nil {
		if c, ok := s.db.categories[*p.CategoryID]; ok {
			cp.CategoryName = c.Name
		}
	}
	return cp
}

func (s *Posts) matches(p *models.Post, f store.PostFilter) bool {
	if f.PublishedOnly && !p.IsPublished() {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	j := s.joined(p)
	if ref := strings.TrimSpace(f.Category); ref != "" {
		if p.CategoryID == nil {
			return false
		}
		c := s.db.categories[*p.CategoryID]
		if c == nil || (!strings.EqualFold(c.Name, ref) && c.Slug != ref) {
			return false
		}
	}
	if f.AuthorID != nil && (p.AuthorID == nil || *p.AuthorID != *f.AuthorID) {
		return false
	}
	if strings.TrimSpace(f.Search) != "" &&
		!contains(f.Search, p.Title, p.Content, p.Excerpt, j.AuthorName, j.CategoryName, p.Slug) {
		return false
	}
	return true
}

// newerFirst orders by publication time descending with unpublished posts
// last, then by creation time descending.
func newerFirst(a, b models.Post) bool {
	switch {
	case a.PublishedAt == nil && b.PublishedAt != nil:
		return false
	case a.PublishedAt != nil && b.PublishedAt == nil:
		return true
	case a.PublishedAt != nil && b.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt):
		return a.PublishedAt.After(*b.PublishedAt)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *Posts) List(_ context.Context, f store.PostFilter) ([]models.Post, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, 0, s.db.Err
	}
	out := []models.Post{}
	for _, p := range s.db.posts {
		if s.matches(p, f) {
			out = append(out, s.joined(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.AdminOrder && out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return newerFirst(out[i], out[j])
	})
	return window(out, f.Limit, f.Offset), len(out), nil
}

func (s *Posts) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	p, ok := s.db.posts[id]
	if !ok {
		return nil, notFound("find post by id")
	}
	cp := s.joined(p)
	return &cp, nil
}

func (s *Posts) FindBySlug(_ context.Context, postSlug string, publishedOnly bool) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	for _, p := range s.db.posts {
		if p.Slug == postSlug && (!publishedOnly || p.IsPublished()) {
			cp := s.joined(p)
			return &cp, nil
		}
	}
	return nil, notFound("find post by slug")
}

func (s *Posts) checkRefs(op string, p *models.Post) error {
	if p.CategoryID != nil {
		if _, ok := s.db.categories[*p.CategoryID]; !ok {
			return invalidRef(op, "category_id")
		}
	}
	if p.AuthorID != nil {
		if _, ok := s.db.users[*p.AuthorID]; !ok {
			return invalidRef(op, "author_id")
		}
	}
	return nil
}

func (s *Posts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}

	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}
	now := s.db.tick()
	p.StampPublished(now)

	postSlug := p.Slug
	if postSlug == "" {
		base := slug.Generate(p.Title)
		if base == "" {
			base = "post"
		}
		postSlug = s.db.uniqueSlug("posts", base)
	} else if s.db.slugTaken("posts", postSlug, uuid.Nil) {
		return nil, conflict("create post", "slug")
	}
	if err := s.checkRefs("create post", p); err != nil {
		return nil, err
	}

	created := *p
	created.ID = uuid.New()
	created.Slug = postSlug
	created.Views = 0
	created.CreatedAt = now
	created.UpdatedAt = now
	s.db.posts[created.ID] = &created

	cp := s.joined(&created)
	return &cp, nil
}

func (s *Posts) Update(_ context.Context, p *models.Post) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return s.db.Err
	}
	existing, ok := s.db.posts[p.ID]
	if !ok {
		return notFound("update post")
	}
	if p.Slug != "" && s.db.slugTaken("posts", p.Slug, p.ID) {
		return conflict("update post", "slug")
	}
	if err := s.checkRefs("update post", p); err != nil {
		return err
	}

	now := s.db.tick()
	p.StampPublished(now)

	postSlug := existing.Slug
	if p.Slug != "" {
		postSlug = p.Slug
	}
	existing.Title = p.Title
	existing.Slug = postSlug
	existing.AuthorID = p.AuthorID
	existing.CategoryID = p.CategoryID
	existing.Content = p.Content
	existing.Excerpt = p.Excerpt
	existing.FeaturedImage = p.FeaturedImage
	existing.Status = p.Status
	existing.PublishedAt = p.PublishedAt
	existing.UpdatedAt = now
	return nil
}

func (s *Posts) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return s.db.Err
	}
	if _, ok := s.db.posts[id]; !ok {
		return notFound("delete post")
	}
	delete(s.db.posts, id)
	for cid, c := range s.db.comments {
		if c.PostID == id {
			delete(s.db.comments, cid)
		}
	}
	return nil
}

func (s *Posts) IncrementViews(_ context.Context, id uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return 0, s.db.Err
	}
	p, ok := s.db.posts[id]
	if !ok {
		return 0, notFound("increment post views")
	}
	p.Views++
	return p.Views, nil
}

func (s *Posts) CountByStatus(_ context.Context) (map[models.PostStatus]int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	counts := map[models.PostStatus]int{
		models.PostStatusDraft:     0,
		models.PostStatusPublished: 0,
	}
	for _, p := range s.db.posts {
		counts[p.Status]++
	}
	return counts, nil
}

// --- Comments ---

// Comments mirrors store.CommentStore.
type Comments struct{ db *DB }

func (s *Comments) joined(c *models.Comment) models.Comment {
	cp := *c
	cp.AuthorName, cp.PostTitle = "", ""
	if c.AuthorID != nil {
		if u, ok := s.db.users[*c.AuthorID]; ok {
			cp.AuthorName = u.Username
		}
	}
	if p, ok := s.db.posts[c.PostID]; ok {
		cp.PostTitle = p.Title
	}
	return cp
}

func (s *Comments) List(_ context.Context, f store.CommentFilter) ([]models.Comment, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, 0, s.db.Err
	}
	out := []models.Comment{}
	for _, c := range s.db.comments {
		if f.PostID != nil && c.PostID != *f.PostID {
			continue
		}
		if f.Approved != nil && c.IsApproved != *f.Approved {
			continue
		}
		j := s.joined(c)
		if strings.TrimSpace(f.Search) != "" && !contains(f.Search, j.AuthorName, c.Content, j.PostTitle) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.NewestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return window(out, f.Limit, f.Offset), len(out), nil
}

func (s *Comments) FindByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	c, ok := s.db.comments[id]
	if !ok {
		return nil, notFound("find comment by id")
	}
	cp := s.joined(c)
	return &cp, nil
}

func (s *Comments) checkRefs(op string, c *models.Comment) error {
	if _, ok := s.db.posts[c.PostID]; !ok {
		return invalidRef(op, "post_id")
	}
	if c.AuthorID != nil {
		if _, ok := s.db.users[*c.AuthorID]; !ok {
			return invalidRef(op, "author_id")
		}
	}
	return nil
}

func (s *Comments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	if err := s.checkRefs("create comment", c); err != nil {
		return nil, err
	}
	created := *c
	created.ID = uuid.New()
	created.CreatedAt = s.db.tick()
	s.db.comments[created.ID] = &created
	cp := s.joined(&created)
	return &cp, nil
}

func (s *Comments) Update(_ context.Context, c *models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return s.db.Err
	}
	existing, ok := s.db.comments[c.ID]
	if !ok {
		return notFound("update comment")
	}
	if err := s.checkRefs("update comment", c); err != nil {
		return err
	}
	existing.AuthorID = c.AuthorID
	existing.PostID = c.PostID
	existing.Content = c.Content
	existing.IsApproved = c.IsApproved
	return nil
}

func (s *Comments) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return s.db.Err
	}
	if _, ok := s.db.comments[id]; !ok {
		return notFound("delete comment")
	}
	delete(s.db.comments, id)
	return nil
}

func (s *Comments) SetApproved(_ context.Context, ids []uuid.UUID, approved bool) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return 0, s.db.Err
	}
	var n int64
	for _, id := range ids {
		if c, ok := s.db.comments[id]; ok {
			c.IsApproved = approved
			n++
		}
	}
	return n, nil
}

func (s *Comments) CountPending(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return 0, s.db.Err
	}
	n := 0
	for _, c := range s.db.comments {
		if !c.IsApproved {
			n++
		}
	}
	return n, nil
}

// --- Contacts ---

// Contacts mirrors store.ContactStore.
type Contacts struct{ db *DB }

func (s *Contacts) List(_ context.Context, f store.ContactFilter) ([]models.Contact, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, 0, s.db.Err
	}
	out := []models.Contact{}
	for _, c := range s.db.contacts {
		if f.IsRead != nil && c.IsRead != *f.IsRead {
			continue
		}
		if strings.TrimSpace(f.Search) != "" && !contains(f.Search, c.Name, c.Email, c.Subject, c.Message) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return window(out, f.Limit, f.Offset), len(out), nil
}

func (s *Contacts) FindByID(_ context.Context, id uuid.UUID) (*models.Contact, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	c, ok := s.db.contacts[id]
	if !ok {
		return nil, notFound("find contact by id")
	}
	cp := *c
	return &cp, nil
}

func (s *Contacts) Create(_ context.Context, c *models.Contact) (*models.Contact, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return nil, s.db.Err
	}
	created := *c
	created.ID = uuid.New()
	created.CreatedAt = s.db.tick()
	s.db.contacts[created.ID] = &created
	cp := created
	return &cp, nil
}

func (s *Contacts) Update(_ context.Context, c *models.Contact) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return s.db.Err
	}
	existing, ok := s.db.contacts[c.ID]
	if !ok {
		return notFound("update contact")
	}
	createdAt := existing.CreatedAt
	*existing = *c
	existing.CreatedAt = createdAt
	return nil
}

func (s *Contacts) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return s.db.Err
	}
	if _, ok := s.db.contacts[id]; !ok {
		return notFound("delete contact")
	}
	delete(s.db.contacts, id)
	return nil
}

func (s *Contacts) SetRead(_ context.Context, ids []uuid.UUID, read bool) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return 0, s.db.Err
	}
	var n int64
	for _, id := range ids {
		if c, ok := s.db.contacts[id]; ok {
			c.IsRead = read
			n++
		}
	}
	return n, nil
}

func (s *Contacts) CountUnread(_ context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.Err != nil {
		return 0, s.db.Err
	}
	n := 0
	for _, c := range s.db.contacts {
		if !c.IsRead {
			n++
		}
	}
	return n, nil
}
