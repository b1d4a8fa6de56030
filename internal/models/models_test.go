package models

import (
	"strings"
	"testing"
	"time"
)

func TestCategoryString(t *testing.T) {
	c := Category{Name: "Test Category"}
	if got := c.String(); got != c.Name {
		t.Errorf("Category.String() = %q, want %q", got, c.Name)
	}
}

func TestPostString(t *testing.T) {
	p := Post{Title: "Test Post"}
	if got := p.String(); got != p.Title {
		t.Errorf("Post.String() = %q, want %q", got, p.Title)
	}
}

func TestContactString(t *testing.T) {
	c := Contact{Name: "Test User", Subject: "Test Subject"}
	got := c.String()
	if !strings.Contains(got, "Test User") {
		t.Errorf("Contact.String() = %q, want it to contain the name", got)
	}
	if got != "Test User - Test Subject" {
		t.Errorf("Contact.String() = %q, want %q", got, "Test User - Test Subject")
	}
}

func TestCommentString(t *testing.T) {
	tests := []struct {
		name    string
		comment Comment
		want    string
	}{
		{
			name:    "with author",
			comment: Comment{AuthorName: "alice", PostTitle: "Hello"},
			want:    "Comment by alice on Hello",
		},
		{
			name:    "anonymous",
			comment: Comment{PostTitle: "Hello"},
			want:    "Comment by anonymous on Hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.comment.String(); got != tt.want {
				t.Errorf("Comment.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPostIsPublished(t *testing.T) {
	tests := []struct {
		name   string
		status PostStatus
		want   bool
	}{
		{name: "published", status: PostStatusPublished, want: true},
		{name: "draft", status: PostStatusDraft, want: false},
		{name: "empty", status: PostStatus(""), want: false},
		{name: "uppercase", status: PostStatus("PUBLISHED"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Post{Status: tt.status}
			if got := p.IsPublished(); got != tt.want {
				t.Errorf("Post{Status: %q}.IsPublished() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestPostStatusValid(t *testing.T) {
	tests := []struct {
		status PostStatus
		want   bool
	}{
		{PostStatusDraft, true},
		{PostStatusPublished, true},
		{PostStatus("archived"), false},
		{PostStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("PostStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestPostStampPublished(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	t.Run("published without time gets stamped", func(t *testing.T) {
		p := &Post{Status: PostStatusPublished}
		p.StampPublished(now)
		if p.PublishedAt == nil || !p.PublishedAt.Equal(now) {
			t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, now)
		}
	})

	t.Run("existing time is kept", func(t *testing.T) {
		p := &Post{Status: PostStatusPublished, PublishedAt: &earlier}
		p.StampPublished(now)
		if !p.PublishedAt.Equal(earlier) {
			t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, earlier)
		}
	})

	t.Run("draft stays unstamped", func(t *testing.T) {
		p := &Post{Status: PostStatusDraft}
		p.StampPublished(now)
		if p.PublishedAt != nil {
			t.Errorf("PublishedAt = %v, want nil", p.PublishedAt)
		}
	})

	t.Run("draft drops a supplied time", func(t *testing.T) {
		p := &Post{Status: PostStatusDraft, PublishedAt: &earlier}
		p.StampPublished(now)
		if p.PublishedAt != nil {
			t.Errorf("PublishedAt = %v, want nil", p.PublishedAt)
		}
	})
}
