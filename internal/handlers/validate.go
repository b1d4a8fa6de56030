package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"blogcms/internal/models"
)

// Validation limits for form fields. They match the column sizes.
const (
	maxTitleLen        = 200
	maxExcerptLen      = 500
	maxContentLen      = 100_000
	maxCategoryNameLen = 100
	maxDescriptionLen  = 2_000
	maxNameLen         = 100
	maxEmailLen        = 254
	maxSubjectLen      = 200
	maxMessageLen      = 5_000
)

const msgRequired = "This field is required."

// formErrors maps form field names to the message shown next to them.
type formErrors map[string]string

// checkText records a required/length failure for field.
func (fe formErrors) checkText(field, value string, required bool, maxLen int) {
	if _, done := fe[field]; done {
		return
	}
	if required && strings.TrimSpace(value) == "" {
		fe[field] = msgRequired
		return
	}
	if utf8.RuneCountInString(value) > maxLen {
		fe[field] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen)
	}
}

// validatePost checks the post form fields.
func validatePost(f *postForm) formErrors {
	errs := formErrors{}
	errs.checkText("title", f.Title, true, maxTitleLen)
	errs.checkText("content", f.Content, true, maxContentLen)
	errs.checkText("excerpt", f.Excerpt, false, maxExcerptLen)
	if f.Status == "" {
		f.Status = string(models.PostStatusDraft)
	}
	if !models.PostStatus(f.Status).Valid() {
		errs["status"] = fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", f.Status)
	}
	return errs
}

// validateCategory checks the category form fields.
func validateCategory(f *categoryForm) formErrors {
	errs := formErrors{}
	errs.checkText("name", f.Name, true, maxCategoryNameLen)
	errs.checkText("description", f.Description, false, maxDescriptionLen)
	return errs
}

// validateContact checks the contact form fields. v validates the email
// address format.
func validateContact(v *validator.Validate, f *contactForm) formErrors {
	errs := formErrors{}
	errs.checkText("name", f.Name, true, maxNameLen)
	errs.checkText("email", f.Email, true, maxEmailLen)
	errs.checkText("subject", f.Subject, true, maxSubjectLen)
	errs.checkText("message", f.Message, true, maxMessageLen)
	if _, bad := errs["email"]; !bad {
		if err := v.Var(strings.TrimSpace(f.Email), "email"); err != nil {
			errs["email"] = "Enter a valid email address."
		}
	}
	return errs
}
