// Package serialize turns store records into the JSON shapes served by both
// the data API and the presentation views, so the two never drift apart.
package serialize

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"blogcms/internal/models"
)

// DefaultOrigin is used to absolutise media URLs when no request is
// available.
const DefaultOrigin = "http://localhost:8000"

// URLFunc resolves a stored media key into the URL it is served from.
type URLFunc func(key string) string

// Serializer holds what is needed to resolve image URLs.
type Serializer struct {
	url           URLFunc
	defaultOrigin string
}

// New returns a Serializer. urlFor maps media keys to URLs (typically the
// storage backend's URL method); defaultOrigin falls back to DefaultOrigin
// when empty.
func New(urlFor URLFunc, defaultOrigin string) *Serializer {
	if urlFor == nil {
		urlFor = func(key string) string { return key }
	}
	defaultOrigin = strings.TrimRight(defaultOrigin, "/")
	if defaultOrigin == "" {
		defaultOrigin = DefaultOrigin
	}
	return &Serializer{url: urlFor, defaultOrigin: defaultOrigin}
}

// PostOut is the full post shape.
type PostOut struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Image       *string           `json:"image"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Author      string            `json:"author"`
	Category    string            `json:"category"`
	Excerpt     string            `json:"excerpt"`
	Slug        string            `json:"slug"`
	Status      models.PostStatus `json:"status"`
	PublishedAt *time.Time        `json:"published_at"`
}

// PostSummary is the reduced shape used by the recent-posts listing.
type PostSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	Slug      string    `json:"slug"`
}

// CategoryOut mirrors every stored category field.
type CategoryOut struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommentOut mirrors every stored comment field. Author is the user id, or
// null for anonymous comments.
type CommentOut struct {
	ID         uuid.UUID  `json:"id"`
	Author     *uuid.UUID `json:"author"`
	Post       uuid.UUID  `json:"post"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	IsApproved bool       `json:"is_approved"`
}

// ContactOut mirrors every stored contact field.
type ContactOut struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

// RequestOrigin returns "scheme://host" for r, honouring X-Forwarded-Proto
// from a reverse proxy. Returns "" for a nil request.
func RequestOrigin(r *http.Request) string {
	if r == nil || r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}

// Image resolves a stored featured-image key to an absolute URL. Empty keys
// yield nil. Already absolute URLs are returned unchanged; relative ones are
// prefixed with origin, or the default origin when origin is empty.
func (s *Serializer) Image(key, origin string) *string {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	u := s.url(key)
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return &u
	}
	if origin == "" {
		origin = s.defaultOrigin
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	abs := strings.TrimRight(origin, "/") + u
	return &abs
}

// Post serializes p in the full shape.
func (s *Serializer) Post(p *models.Post, origin string) PostOut {
	return PostOut{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Image:       s.Image(p.FeaturedImage, origin),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Author:      p.AuthorName,
		Category:    p.CategoryName,
		Excerpt:     Excerpt(p),
		Slug:        p.Slug,
		Status:      p.Status,
		PublishedAt: p.PublishedAt,
	}
}

// Posts serializes a list in the full shape.
func (s *Serializer) Posts(posts []models.Post, origin string) []PostOut {
	out := make([]PostOut, 0, len(posts))
	for i := range posts {
		out = append(out, s.Post(&posts[i], origin))
	}
	return out
}

// Summary serializes p in the reduced shape.
func (s *Serializer) Summary(p *models.Post, origin string) PostSummary {
	return PostSummary{
		ID:        p.ID,
		Title:     p.Title,
		Excerpt:   Excerpt(p),
		Image:     s.Image(p.FeaturedImage, origin),
		CreatedAt: p.CreatedAt,
		Author:    p.AuthorName,
		Category:  p.CategoryName,
		Slug:      p.Slug,
	}
}

// Summaries serializes a list in the reduced shape.
func (s *Serializer) Summaries(posts []models.Post, origin string) []PostSummary {
	out := make([]PostSummary, 0, len(posts))
	for i := range posts {
		out = append(out, s.Summary(&posts[i], origin))
	}
	return out
}

func Category(c *models.Category) CategoryOut {
	return CategoryOut{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func Categories(cs []models.Category) []CategoryOut {
	out := make([]CategoryOut, 0, len(cs))
	for i := range cs {
		out = append(out, Category(&cs[i]))
	}
	return out
}

func Comment(c *models.Comment) CommentOut {
	return CommentOut{
		ID:         c.ID,
		Author:     c.AuthorID,
		Post:       c.PostID,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
		IsApproved: c.IsApproved,
	}
}

func Comments(cs []models.Comment) []CommentOut {
	out := make([]CommentOut, 0, len(cs))
	for i := range cs {
		out = append(out, Comment(&cs[i]))
	}
	return out
}

func Contact(c *models.Contact) ContactOut {
	return ContactOut{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Subject:   c.Subject,
		Message:   c.Message,
		CreatedAt: c.CreatedAt,
		IsRead:    c.IsRead,
	}
}

func Contacts(cs []models.Contact) []ContactOut {
	out := make([]ContactOut, 0, len(cs))
	for i := range cs {
		out = append(out, Contact(&cs[i]))
	}
	return out
}
