package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"blogcms/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: wrap(db)}
}

var userColumns = []string{"id", "username", "email", "password_hash", "is_staff", "created_at", "updated_at"}

func (s *UserStore) findOne(ctx context.Context, where sq.Sqlizer) (*models.User, error) {
	var u models.User
	if err := getOne(ctx, s.db, &u, psql.Select(userColumns...).From("users").Where(where)); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername retrieves a user by username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (u *models.User, err error) {
	ctx, span := startSpan(ctx, "UserStore.FindByUsername")
	defer func() { endSpan(span, err) }()

	u, err = s.findOne(ctx, sq.Eq{"username": strings.TrimSpace(username)})
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (u *models.User, err error) {
	ctx, span := startSpan(ctx, "UserStore.FindByID")
	defer func() { endSpan(span, err) }()

	u, err = s.findOne(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// List returns all users ordered by creation date.
func (s *UserStore) List(ctx context.Context) (users []models.User, err error) {
	ctx, span := startSpan(ctx, "UserStore.List")
	defer func() { endSpan(span, err) }()

	users = []models.User{}
	if err = selectAll(ctx, s.db, &users, psql.Select(userColumns...).From("users").OrderBy("created_at ASC")); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create inserts a new user with a bcrypt-hashed password. A taken username
// yields ErrConflict.
func (s *UserStore) Create(ctx context.Context, username, email, password string, isStaff bool) (u *models.User, err error) {
	ctx, span := startSpan(ctx, "UserStore.Create")
	defer func() { endSpan(span, err) }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created models.User
	b := psql.Insert("users").
		Columns("username", "email", "password_hash", "is_staff").
		Values(strings.TrimSpace(username), email, string(hash), isStaff).
		Suffix("RETURNING " + strings.Join(userColumns, ", "))
	if err = getOne(ctx, s.db, &created, b); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

// Delete removes a user by ID. Their posts and comments are kept with no
// author.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "UserStore.Delete")
	defer func() { endSpan(span, err) }()

	n, err := exec(ctx, s.db, psql.Delete("users").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete user: %w", ErrNotFound)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
