// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"blogcms/internal/models"
	"blogcms/internal/slug"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sqlx.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: wrap(db)}
}

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	Search string // matches name or description
	Limit  int
	Offset int
}

var categoryColumns = []string{
	"c.id", "c.name", "c.slug", "c.description", "c.created_at",
}

func applyCategoryFilter(b sq.SelectBuilder, f CategoryFilter) sq.SelectBuilder {
	if strings.TrimSpace(f.Search) != "" {
		b = b.Where(searchAny(f.Search, "c.name", "c.description"))
	}
	return b
}

// List returns categories ordered by name, with post counts, and the total
// number of matching categories ignoring Limit/Offset.
func (s *CategoryStore) List(ctx context.Context, f CategoryFilter) (items []models.Category, total int, err error) {
	ctx, span := startSpan(ctx, "CategoryStore.List")
	defer func() { endSpan(span, err) }()

	b := psql.Select(categoryColumns...).
		Column("COUNT(p.id) AS post_count").
		From("categories c").
		LeftJoin("posts p ON p.category_id = c.id").
		GroupBy("c.id").
		OrderBy("c.name ASC")
	b = paginate(applyCategoryFilter(b, f), f.Limit, f.Offset)

	items = []models.Category{}
	if err = selectAll(ctx, s.db, &items, b); err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}

	total, err = countRows(ctx, s.db, applyCategoryFilter(psql.Select("COUNT(*)").From("categories c"), f))
	if err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}
	return items, total, nil
}

func (s *CategoryStore) findOne(ctx context.Context, where sq.Sqlizer) (*models.Category, error) {
	var c models.Category
	b := psql.Select(categoryColumns...).From("categories c").Where(where).Limit(1)
	if err := getOne(ctx, s.db, &c, b); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByID retrieves a category by ID. Returns ErrNotFound if missing.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (c *models.Category, err error) {
	ctx, span := startSpan(ctx, "CategoryStore.FindByID")
	defer func() { endSpan(span, err) }()

	c, err = s.findOne(ctx, sq.Eq{"c.id": id})
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug retrieves a category by slug.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (c *models.Category, err error) {
	ctx, span := startSpan(ctx, "CategoryStore.FindBySlug")
	defer func() { endSpan(span, err) }()

	c, err = s.findOne(ctx, sq.Eq{"c.slug": slug})
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// FindByName retrieves a category by name, ignoring case.
func (s *CategoryStore) FindByName(ctx context.Context, name string) (c *models.Category, err error) {
	ctx, span := startSpan(ctx, "CategoryStore.FindByName")
	defer func() { endSpan(span, err) }()

	c, err = s.findOne(ctx, sq.Expr("LOWER(c.name) = LOWER(?)", strings.TrimSpace(name)))
	if err != nil {
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return c, nil
}

// Lookup resolves a category reference that may be an id, a name or a slug.
func (s *CategoryStore) Lookup(ctx context.Context, ref string) (*models.Category, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return s.FindByID(ctx, id)
	}
	c, err := s.FindByName(ctx, ref)
	if errors.Is(err, ErrNotFound) {
		return s.FindBySlug(ctx, ref)
	}
	return c, err
}

// Create inserts a new category and returns it. When Slug is empty a unique
// one is generated from the name.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (result *models.Category, err error) {
	ctx, span := startSpan(ctx, "CategoryStore.Create")
	defer func() { endSpan(span, err) }()

	return retrySlugConflict(c.Slug != "", func() (*models.Category, error) {
		return s.insert(ctx, c)
	})
}

// insert is one attempt at Create inside its own transaction.
func (s *CategoryStore) insert(ctx context.Context, c *models.Category) (*models.Category, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	catSlug := c.Slug
	if catSlug == "" {
		base := slug.Generate(c.Name)
		if base == "" {
			base = "category"
		}
		if catSlug, err = uniqueSlug(ctx, tx, "categories", base); err != nil {
			return nil, fmt.Errorf("create category: %w", err)
		}
	}

	var created models.Category
	b := psql.Insert("categories").
		Columns("name", "slug", "description").
		Values(strings.TrimSpace(c.Name), catSlug, c.Description).
		Suffix("RETURNING id, name, slug, description, created_at")
	if err := getOne(ctx, tx, &created, b); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit category: %w", err)
	}
	return &created, nil
}

// Update modifies an existing category. The slug is only changed when a
// non-empty Slug is provided.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) (err error) {
	ctx, span := startSpan(ctx, "CategoryStore.Update")
	defer func() { endSpan(span, err) }()

	b := psql.Update("categories").
		Set("name", strings.TrimSpace(c.Name)).
		Set("description", c.Description).
		Set("slug", sq.Expr("COALESCE(NULLIF(?, ''), slug)", c.Slug)).
		Where(sq.Eq{"id": c.ID})
	n, err := exec(ctx, s.db, b)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update category: %w", ErrNotFound)
	}
	return nil
}

// Delete removes a category by ID. Posts in the category become
// uncategorised (ON DELETE SET NULL).
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "CategoryStore.Delete")
	defer func() { endSpan(span, err) }()

	n, err := exec(ctx, s.db, psql.Delete("categories").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete category: %w", ErrNotFound)
	}
	return nil
}

// Count returns the total number of categories.
func (s *CategoryStore) Count(ctx context.Context) (n int, err error) {
	ctx, span := startSpan(ctx, "CategoryStore.Count")
	defer func() { endSpan(span, err) }()

	n, err = countRows(ctx, s.db, psql.Select("COUNT(*)").From("categories"))
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}
