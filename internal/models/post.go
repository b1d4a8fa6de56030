// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post is a blog article. Only published posts are visible to anonymous
// readers; PublishedAt is meaningful only while Status is published.
type Post struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Slug          string     `json:"slug" db:"slug"`
	AuthorID      *uuid.UUID `json:"author_id" db:"author_id"`
	CategoryID    *uuid.UUID `json:"category_id" db:"category_id"`
	Content       string     `json:"content" db:"content"`
	Excerpt       string     `json:"excerpt" db:"excerpt"`
	FeaturedImage string     `json:"featured_image" db:"featured_image"` // storage key, empty when unset
	Status        PostStatus `json:"status" db:"status"`
	PublishedAt   *time.Time `json:"published_at" db:"published_at"`
	Views         int64      `json:"views" db:"views"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`

	// Virtual fields populated by store joins. Empty when the referenced
	// user or category no longer exists.
	AuthorName   string `json:"-" db:"author_name"`
	CategoryName string `json:"-" db:"category_name"`
}

// String returns the post title.
func (p Post) String() string {
	return p.Title
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// StampPublished sets PublishedAt to now when the post is published and has
// no publication time yet. Drafts never carry a publication time.
func (p *Post) StampPublished(now time.Time) {
	switch {
	case p.Status != PostStatusPublished:
		p.PublishedAt = nil
	case p.PublishedAt == nil:
		p.PublishedAt = &now
	}
}
