package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a message submitted through the contact form.
type Contact struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Subject   string    `json:"subject" db:"subject"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// String returns "<name> - <subject>".
func (c Contact) String() string {
	return c.Name + " - " + c.Subject
}
