// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"blogcms/internal/models"
	"blogcms/internal/slug"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sqlx.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: wrap(db)}
}

// PostFilter narrows a post listing. Zero values mean "no constraint".
type PostFilter struct {
	PublishedOnly bool
	Status        models.PostStatus
	CategoryID    *uuid.UUID
	Category      string // category name (case-insensitive) or slug
	AuthorID      *uuid.UUID
	Search        string // title, content, excerpt, author username, category name, slug
	Limit         int
	Offset        int
	AdminOrder    bool // status first, then newest publication
}

var postColumns = []string{
	"p.id", "p.title", "p.slug", "p.author_id", "p.category_id",
	"p.content", "p.excerpt", "p.featured_image", "p.status",
	"p.published_at", "p.views", "p.created_at", "p.updated_at",
	"COALESCE(u.username, '') AS author_name",
	"COALESCE(c.name, '') AS category_name",
}

func selectPosts(cols ...string) sq.SelectBuilder {
	return psql.Select(cols...).
		From("posts p").
		LeftJoin("users u ON u.id = p.author_id").
		LeftJoin("categories c ON c.id = p.category_id")
}

func applyPostFilter(b sq.SelectBuilder, f PostFilter) sq.SelectBuilder {
	if f.PublishedOnly {
		b = b.Where(sq.Eq{"p.status": models.PostStatusPublished})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"p.status": f.Status})
	}
	if f.CategoryID != nil {
		b = b.Where(sq.Eq{"p.category_id": *f.CategoryID})
	}
	if ref := strings.TrimSpace(f.Category); ref != "" {
		b = b.Where(sq.Or{
			sq.Expr("LOWER(c.name) = LOWER(?)", ref),
			sq.Eq{"c.slug": ref},
		})
	}
	if f.AuthorID != nil {
		b = b.Where(sq.Eq{"p.author_id": *f.AuthorID})
	}
	if strings.TrimSpace(f.Search) != "" {
		b = b.Where(searchAny(f.Search, "p.title", "p.content", "p.excerpt", "u.username", "c.name", "p.slug"))
	}
	return b
}

// List returns posts matching f, newest publication first (unpublished
// posts last), plus the total number of matches ignoring Limit/Offset.
func (s *PostStore) List(ctx context.Context, f PostFilter) (items []models.Post, total int, err error) {
	ctx, span := startSpan(ctx, "PostStore.List")
	defer func() { endSpan(span, err) }()

	b := applyPostFilter(selectPosts(postColumns...), f)
	if f.AdminOrder {
		b = b.OrderBy("p.status ASC", "p.published_at DESC NULLS LAST", "p.created_at DESC")
	} else {
		b = b.OrderBy("p.published_at DESC NULLS LAST", "p.created_at DESC")
	}
	b = paginate(b, f.Limit, f.Offset)

	items = []models.Post{}
	if err = selectAll(ctx, s.db, &items, b); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	total, err = countRows(ctx, s.db, applyPostFilter(selectPosts("COUNT(*)"), f))
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	return items, total, nil
}

func (s *PostStore) findOne(ctx context.Context, q sqlx.QueryerContext, where ...sq.Sqlizer) (*models.Post, error) {
	b := selectPosts(postColumns...).Limit(1)
	for _, w := range where {
		b = b.Where(w)
	}
	var p models.Post
	if err := getOne(ctx, q, &p, b); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByID retrieves a post by its UUID regardless of status.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (p *models.Post, err error) {
	ctx, span := startSpan(ctx, "PostStore.FindByID")
	defer func() { endSpan(span, err) }()

	p, err = s.findOne(ctx, s.db, sq.Eq{"p.id": id})
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by slug. With publishedOnly set, drafts are
// reported as ErrNotFound.
func (s *PostStore) FindBySlug(ctx context.Context, postSlug string, publishedOnly bool) (p *models.Post, err error) {
	ctx, span := startSpan(ctx, "PostStore.FindBySlug")
	defer func() { endSpan(span, err) }()

	where := []sq.Sqlizer{sq.Eq{"p.slug": postSlug}}
	if publishedOnly {
		where = append(where, sq.Eq{"p.status": models.PostStatusPublished})
	}
	p, err = s.findOne(ctx, s.db, where...)
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// Create inserts a new post and returns it with joined author and category
// names. An empty Slug is generated from the title and made unique with a
// numeric suffix; an explicit Slug that is taken yields ErrConflict.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (result *models.Post, err error) {
	ctx, span := startSpan(ctx, "PostStore.Create")
	defer func() { endSpan(span, err) }()

	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}
	p.StampPublished(time.Now())

	return retrySlugConflict(p.Slug != "", func() (*models.Post, error) {
		return s.insert(ctx, p)
	})
}

// insert is one attempt at Create inside its own transaction.
func (s *PostStore) insert(ctx context.Context, p *models.Post) (*models.Post, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	postSlug := p.Slug
	if postSlug == "" {
		base := slug.Generate(p.Title)
		if base == "" {
			base = "post"
		}
		if postSlug, err = uniqueSlug(ctx, tx, "posts", base); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
	}

	var id uuid.UUID
	b := psql.Insert("posts").
		Columns("title", "slug", "author_id", "category_id", "content", "excerpt",
			"featured_image", "status", "published_at").
		Values(p.Title, postSlug, p.AuthorID, p.CategoryID, p.Content, p.Excerpt,
			p.FeaturedImage, p.Status, p.PublishedAt).
		Suffix("RETURNING id")
	if err := getOne(ctx, tx, &id, b); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	result, err := s.findOne(ctx, tx, sq.Eq{"p.id": id})
	if err != nil {
		return nil, fmt.Errorf("reload post: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit post: %w", err)
	}
	return result, nil
}

// Update modifies an existing post. An empty Slug keeps the current one.
// Publishing a post without a publication time stamps it with now.
func (s *PostStore) Update(ctx context.Context, p *models.Post) (err error) {
	ctx, span := startSpan(ctx, "PostStore.Update")
	defer func() { endSpan(span, err) }()

	p.StampPublished(time.Now())

	b := psql.Update("posts").
		Set("title", p.Title).
		Set("slug", sq.Expr("COALESCE(NULLIF(?, ''), slug)", p.Slug)).
		Set("author_id", p.AuthorID).
		Set("category_id", p.CategoryID).
		Set("content", p.Content).
		Set("excerpt", p.Excerpt).
		Set("featured_image", p.FeaturedImage).
		Set("status", p.Status).
		Set("published_at", p.PublishedAt).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": p.ID})
	n, err := exec(ctx, s.db, b)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update post: %w", ErrNotFound)
	}
	return nil
}

// Delete removes a post by ID. Its comments are removed with it.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "PostStore.Delete")
	defer func() { endSpan(span, err) }()

	n, err := exec(ctx, s.db, psql.Delete("posts").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete post: %w", ErrNotFound)
	}
	return nil
}

// IncrementViews atomically bumps the view counter and returns the new value.
func (s *PostStore) IncrementViews(ctx context.Context, id uuid.UUID) (views int64, err error) {
	ctx, span := startSpan(ctx, "PostStore.IncrementViews")
	defer func() { endSpan(span, err) }()

	b := psql.Update("posts").
		Set("views", sq.Expr("views + 1")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING views")
	if err = getOne(ctx, s.db, &views, b); err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return views, nil
}

// CountByStatus returns the number of posts per status. Statuses with no
// posts are present with a zero count.
func (s *PostStore) CountByStatus(ctx context.Context) (counts map[models.PostStatus]int, err error) {
	ctx, span := startSpan(ctx, "PostStore.CountByStatus")
	defer func() { endSpan(span, err) }()

	var rows []struct {
		Status models.PostStatus `db:"status"`
		N      int               `db:"n"`
	}
	b := psql.Select("status", "COUNT(*) AS n").From("posts").GroupBy("status")
	if err = selectAll(ctx, s.db, &rows, b); err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}

	counts = map[models.PostStatus]int{
		models.PostStatusDraft:     0,
		models.PostStatusPublished: 0,
	}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
