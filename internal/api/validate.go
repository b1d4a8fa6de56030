package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"blogcms/internal/middleware"
	"blogcms/internal/slug"
)

// fieldErrors is the 400 body: payload field name to messages.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// newValidator returns a validator that reports fields by their JSON names
// and knows the notblank and slug rules.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slug.Valid(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

// check validates in and writes a 400 with field messages when it fails.
func (h *Handler) check(w http.ResponseWriter, in any, extra fieldErrors) bool {
	errs := fieldErrors{}
	for k, v := range extra {
		errs[k] = append(errs[k], v...)
	}

	err := h.validate.Struct(in)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			errs.add(fe.Field(), message(fe))
		}
	} else if err != nil {
		errs.add("non_field_errors", err.Error())
	}

	if len(errs) > 0 {
		middleware.WriteJSON(w, http.StatusBadRequest, errs)
		return false
	}
	return true
}

// message renders a validation failure for the client.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "notblank":
		return "This field may not be blank."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "slug":
		return `Enter a valid "slug" consisting of lowercase letters, numbers or hyphens.`
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	default:
		return "Invalid value."
	}
}
