package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Seed populates the database with initial development data.
// It creates a default staff user plus one category and one published post
// when the users table is empty.
func Seed(db *sql.DB) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var adminID string
	err = tx.QueryRow(`
		INSERT INTO users (username, email, password_hash, is_staff)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id
	`, "admin", "admin@blogcms.local", string(hash)).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	var categoryID string
	err = tx.QueryRow(`
		INSERT INTO categories (name, slug, description)
		VALUES ('General', 'general', 'Posts that do not fit anywhere else.')
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`).Scan(&categoryID)
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO posts (title, slug, author_id, category_id, content, status, published_at)
		VALUES ($1, $2, $3, $4, $5, 'published', NOW())
		ON CONFLICT (slug) DO NOTHING
	`, "Hello World", "hello-world", adminID, categoryID,
		"<p>Welcome to your new blog. Edit or delete this post, then start writing.</p>")
	if err != nil {
		return fmt.Errorf("seed insert post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"username", "admin",
		"password", "admin",
	)

	return nil
}
