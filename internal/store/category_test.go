// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"blogcms/internal/models"
)

func TestCategoryStoreCreateAndLookup(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	c := testCategory(t, db)
	if c.Slug == "" {
		t.Fatal("expected generated slug")
	}

	for _, ref := range []string{c.ID.String(), c.Name, strings.ToLower(c.Name), c.Slug} {
		got, err := s.Lookup(ctx, ref)
		if err != nil {
			t.Errorf("Lookup(%q): %v", ref, err)
			continue
		}
		if got.ID != c.ID {
			t.Errorf("Lookup(%q): got %s, want %s", ref, got.ID, c.ID)
		}
	}

	if _, err := s.Lookup(ctx, unique("missing")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(missing): got %v, want ErrNotFound", err)
	}

	if _, err := s.Create(ctx, &models.Category{Name: c.Name}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate name: got %v, want ErrConflict", err)
	}
}

func TestCategoryStoreUpdateKeepsSlug(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	c := testCategory(t, db)
	oldSlug := c.Slug
	c.Name = unique("Renamed")
	c.Slug = ""
	c.Description = "updated"
	if err := s.Update(ctx, c); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Slug != oldSlug {
		t.Errorf("slug: got %q, want %q", got.Slug, oldSlug)
	}
	if got.Description != "updated" {
		t.Errorf("description: got %q, want %q", got.Description, "updated")
	}
}

func TestCategoryStoreDeleteUncategorisesPosts(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	posts := NewPostStore(db)
	ctx := context.Background()

	c := testCategory(t, db)
	p := testPost(t, db, &models.Post{CategoryID: &c.ID})

	list, _, err := s.List(ctx, CategoryFilter{Search: c.Name})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].PostCount != 1 {
		t.Fatalf("List: got %+v, want one category with one post", list)
	}

	if err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := posts.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("post should survive category delete: %v", err)
	}
	if got.CategoryID != nil || got.CategoryName != "" {
		t.Errorf("category: got %v/%q, want nil/empty", got.CategoryID, got.CategoryName)
	}
}
