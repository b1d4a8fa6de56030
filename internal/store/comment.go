package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"blogcms/internal/models"
)

// CommentStore handles reader comments.
type CommentStore struct {
	db *sqlx.DB
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: wrap(db)}
}

// CommentFilter narrows a comment listing.
type CommentFilter struct {
	PostID      *uuid.UUID
	Approved    *bool
	Search      string // author username, content, post title
	NewestFirst bool
	Limit       int
	Offset      int
}

var commentColumns = []string{
	"cm.id", "cm.author_id", "cm.post_id", "cm.content", "cm.is_approved", "cm.created_at",
	"COALESCE(u.username, '') AS author_name",
	"p.title AS post_title",
}

func selectComments(cols ...string) sq.SelectBuilder {
	return psql.Select(cols...).
		From("comments cm").
		Join("posts p ON p.id = cm.post_id").
		LeftJoin("users u ON u.id = cm.author_id")
}

func applyCommentFilter(b sq.SelectBuilder, f CommentFilter) sq.SelectBuilder {
	if f.PostID != nil {
		b = b.Where(sq.Eq{"cm.post_id": *f.PostID})
	}
	if f.Approved != nil {
		b = b.Where(sq.Eq{"cm.is_approved": *f.Approved})
	}
	if strings.TrimSpace(f.Search) != "" {
		b = b.Where(searchAny(f.Search, "u.username", "cm.content", "p.title"))
	}
	return b
}

// List returns comments matching f in chronological order (or newest first
// when requested) and the total match count.
func (s *CommentStore) List(ctx context.Context, f CommentFilter) (items []models.Comment, total int, err error) {
	ctx, span := startSpan(ctx, "CommentStore.List")
	defer func() { endSpan(span, err) }()

	b := applyCommentFilter(selectComments(commentColumns...), f)
	if f.NewestFirst {
		b = b.OrderBy("cm.created_at DESC")
	} else {
		b = b.OrderBy("cm.created_at ASC")
	}
	b = paginate(b, f.Limit, f.Offset)

	items = []models.Comment{}
	if err = selectAll(ctx, s.db, &items, b); err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	total, err = countRows(ctx, s.db, applyCommentFilter(selectComments("COUNT(*)"), f))
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	return items, total, nil
}

func (s *CommentStore) findByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	if err := getOne(ctx, q, &c, selectComments(commentColumns...).Where(sq.Eq{"cm.id": id})); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByID retrieves a comment by ID.
func (s *CommentStore) FindByID(ctx context.Context, id uuid.UUID) (c *models.Comment, err error) {
	ctx, span := startSpan(ctx, "CommentStore.FindByID")
	defer func() { endSpan(span, err) }()

	c, err = s.findByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return c, nil
}

// Create inserts a comment. An unknown post or author yields
// ErrInvalidReference.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) (result *models.Comment, err error) {
	ctx, span := startSpan(ctx, "CommentStore.Create")
	defer func() { endSpan(span, err) }()

	var id uuid.UUID
	b := psql.Insert("comments").
		Columns("author_id", "post_id", "content", "is_approved").
		Values(c.AuthorID, c.PostID, c.Content, c.IsApproved).
		Suffix("RETURNING id")
	if err = getOne(ctx, s.db, &id, b); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	result, err = s.findByID(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("reload comment: %w", err)
	}
	return result, nil
}

// Update modifies an existing comment.
func (s *CommentStore) Update(ctx context.Context, c *models.Comment) (err error) {
	ctx, span := startSpan(ctx, "CommentStore.Update")
	defer func() { endSpan(span, err) }()

	b := psql.Update("comments").
		Set("author_id", c.AuthorID).
		Set("post_id", c.PostID).
		Set("content", c.Content).
		Set("is_approved", c.IsApproved).
		Where(sq.Eq{"id": c.ID})
	n, err := exec(ctx, s.db, b)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update comment: %w", ErrNotFound)
	}
	return nil
}

// Delete removes a comment by ID.
func (s *CommentStore) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "CommentStore.Delete")
	defer func() { endSpan(span, err) }()

	n, err := exec(ctx, s.db, psql.Delete("comments").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete comment: %w", ErrNotFound)
	}
	return nil
}

// SetApproved flips the approval flag on every listed comment in a single
// statement and returns how many rows changed.
func (s *CommentStore) SetApproved(ctx context.Context, ids []uuid.UUID, approved bool) (n int64, err error) {
	ctx, span := startSpan(ctx, "CommentStore.SetApproved")
	defer func() { endSpan(span, err) }()

	if len(ids) == 0 {
		return 0, nil
	}
	b := psql.Update("comments").Set("is_approved", approved).Where(sq.Eq{"id": ids})
	n, err = exec(ctx, s.db, b)
	if err != nil {
		return 0, fmt.Errorf("set comments approved: %w", err)
	}
	return n, nil
}

// CountPending returns the number of comments awaiting approval.
func (s *CommentStore) CountPending(ctx context.Context) (n int, err error) {
	ctx, span := startSpan(ctx, "CommentStore.CountPending")
	defer func() { endSpan(span, err) }()

	n, err = countRows(ctx, s.db, psql.Select("COUNT(*)").From("comments").Where(sq.Eq{"is_approved": false}))
	if err != nil {
		return 0, fmt.Errorf("count pending comments: %w", err)
	}
	return n, nil
}
