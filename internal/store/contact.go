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

// ContactStore handles contact form submissions.
type ContactStore struct {
	db *sqlx.DB
}

// NewContactStore creates a new ContactStore.
func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: wrap(db)}
}

// ContactFilter narrows a contact listing.
type ContactFilter struct {
	IsRead *bool
	Search string // name, email, subject, message
	Limit  int
	Offset int
}

const contactTable = "contacts"

var contactColumns = []string{"id", "name", "email", "subject", "message", "is_read", "created_at"}

func applyContactFilter(b sq.SelectBuilder, f ContactFilter) sq.SelectBuilder {
	if f.IsRead != nil {
		b = b.Where(sq.Eq{"is_read": *f.IsRead})
	}
	if strings.TrimSpace(f.Search) != "" {
		b = b.Where(searchAny(f.Search, "name", "email", "subject", "message"))
	}
	return b
}

// List returns contact messages matching f, newest first, and the total
// match count.
func (s *ContactStore) List(ctx context.Context, f ContactFilter) (items []models.Contact, total int, err error) {
	ctx, span := startSpan(ctx, "ContactStore.List")
	defer func() { endSpan(span, err) }()

	b := applyContactFilter(psql.Select(contactColumns...).From(contactTable), f).
		OrderBy("created_at DESC")
	b = paginate(b, f.Limit, f.Offset)

	items = []models.Contact{}
	if err = selectAll(ctx, s.db, &items, b); err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}

	total, err = countRows(ctx, s.db, applyContactFilter(psql.Select("COUNT(*)").From(contactTable), f))
	if err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}
	return items, total, nil
}

// FindByID retrieves a contact message by ID.
func (s *ContactStore) FindByID(ctx context.Context, id uuid.UUID) (c *models.Contact, err error) {
	ctx, span := startSpan(ctx, "ContactStore.FindByID")
	defer func() { endSpan(span, err) }()

	var found models.Contact
	if err = getOne(ctx, s.db, &found, psql.Select(contactColumns...).From(contactTable).Where(sq.Eq{"id": id})); err != nil {
		return nil, fmt.Errorf("find contact by id: %w", err)
	}
	return &found, nil
}

// Create stores a new contact message.
func (s *ContactStore) Create(ctx context.Context, c *models.Contact) (result *models.Contact, err error) {
	ctx, span := startSpan(ctx, "ContactStore.Create")
	defer func() { endSpan(span, err) }()

	var created models.Contact
	b := psql.Insert(contactTable).
		Columns("name", "email", "subject", "message", "is_read").
		Values(c.Name, c.Email, c.Subject, c.Message, c.IsRead).
		Suffix("RETURNING " + strings.Join(contactColumns, ", "))
	if err = getOne(ctx, s.db, &created, b); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &created, nil
}

// Update modifies an existing contact message.
func (s *ContactStore) Update(ctx context.Context, c *models.Contact) (err error) {
	ctx, span := startSpan(ctx, "ContactStore.Update")
	defer func() { endSpan(span, err) }()

	b := psql.Update(contactTable).
		Set("name", c.Name).
		Set("email", c.Email).
		Set("subject", c.Subject).
		Set("message", c.Message).
		Set("is_read", c.IsRead).
		Where(sq.Eq{"id": c.ID})
	n, err := exec(ctx, s.db, b)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update contact: %w", ErrNotFound)
	}
	return nil
}

// Delete removes a contact message by ID.
func (s *ContactStore) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "ContactStore.Delete")
	defer func() { endSpan(span, err) }()

	n, err := exec(ctx, s.db, psql.Delete(contactTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete contact: %w", ErrNotFound)
	}
	return nil
}

// SetRead marks every listed message read or unread in one statement.
func (s *ContactStore) SetRead(ctx context.Context, ids []uuid.UUID, read bool) (n int64, err error) {
	ctx, span := startSpan(ctx, "ContactStore.SetRead")
	defer func() { endSpan(span, err) }()

	if len(ids) == 0 {
		return 0, nil
	}
	n, err = exec(ctx, s.db, psql.Update(contactTable).Set("is_read", read).Where(sq.Eq{"id": ids}))
	if err != nil {
		return 0, fmt.Errorf("set contacts read: %w", err)
	}
	return n, nil
}

// CountUnread returns the number of unread messages.
func (s *ContactStore) CountUnread(ctx context.Context) (n int, err error) {
	ctx, span := startSpan(ctx, "ContactStore.CountUnread")
	defer func() { endSpan(span, err) }()

	n, err = countRows(ctx, s.db, psql.Select("COUNT(*)").From(contactTable).Where(sq.Eq{"is_read": false}))
	if err != nil {
		return 0, fmt.Errorf("count unread contacts: %w", err)
	}
	return n, nil
}
