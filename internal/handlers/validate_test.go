package handlers

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidatePost(t *testing.T) {
	tests := []struct {
		name   string
		form   postForm
		fields []string
	}{
		{"valid", postForm{Title: "T", Content: "C", Status: "published"}, nil},
		{"blank title", postForm{Title: "   ", Content: "C"}, []string{"title"}},
		{"missing content", postForm{Title: "T"}, []string{"content"}},
		{"long excerpt", postForm{Title: "T", Content: "C", Excerpt: strings.Repeat("é", maxExcerptLen+1)}, []string{"excerpt"}},
		{"bad status", postForm{Title: "T", Content: "C", Status: "archived"}, []string{"status"}},
		{"everything wrong", postForm{Status: "x"}, []string{"title", "content", "status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := tt.form
			errs := validatePost(&form)
			if len(errs) != len(tt.fields) {
				t.Fatalf("got errors %v, want fields %v", errs, tt.fields)
			}
			for _, f := range tt.fields {
				if errs[f] == "" {
					t.Errorf("missing error for %s", f)
				}
			}
		})
	}
}

func TestValidatePost_DefaultsStatus(t *testing.T) {
	form := postForm{Title: "T", Content: "C"}
	if errs := validatePost(&form); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if form.Status != "draft" {
		t.Errorf("status = %q, want draft", form.Status)
	}
}

func TestValidateExcerptCountsRunes(t *testing.T) {
	form := postForm{Title: "T", Content: "C", Excerpt: strings.Repeat("é", maxExcerptLen)}
	if errs := validatePost(&form); len(errs) != 0 {
		t.Errorf("multi-byte excerpt at the limit rejected: %v", errs)
	}
}

func TestValidateCategory(t *testing.T) {
	if errs := validateCategory(&categoryForm{Name: "Go"}); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	if errs := validateCategory(&categoryForm{}); errs["name"] != msgRequired {
		t.Errorf("name error = %q", errs["name"])
	}
	if errs := validateCategory(&categoryForm{Name: strings.Repeat("a", maxCategoryNameLen+1)}); errs["name"] == "" {
		t.Error("long name accepted")
	}
}

func TestValidateContact(t *testing.T) {
	v := validator.New()
	valid := contactForm{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello"}
	if errs := validateContact(v, &valid); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}

	bad := valid
	bad.Email = "ada-at-example"
	if errs := validateContact(v, &bad); errs["email"] != "Enter a valid email address." {
		t.Errorf("email error = %q", errs["email"])
	}

	empty := contactForm{}
	errs := validateContact(v, &empty)
	for _, f := range []string{"name", "email", "subject", "message"} {
		if errs[f] != msgRequired {
			t.Errorf("%s error = %q, want required", f, errs[f])
		}
	}
}
