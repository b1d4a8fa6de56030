package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Comment is a reader comment on a post. New comments start unapproved and
// are hidden from anonymous readers until a staff member approves them.
type Comment struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	AuthorID   *uuid.UUID `json:"author_id" db:"author_id"`
	PostID     uuid.UUID  `json:"post_id" db:"post_id"`
	Content    string     `json:"content" db:"content"`
	IsApproved bool       `json:"is_approved" db:"is_approved"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`

	AuthorName string `json:"-" db:"author_name"`
	PostTitle  string `json:"-" db:"post_title"`
}

func (c Comment) String() string {
	author := c.AuthorName
	if author == "" {
		author = "anonymous"
	}
	return fmt.Sprintf("Comment by %s on %s", author, c.PostTitle)
}
