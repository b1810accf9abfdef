// Package form implements the input forms of the client: movie, review and
// sign-in/sign-up.  A form only holds its input buffers and a Submitting
// flag; validation happens before any gateway call and every failure maps
// to a single human message.
package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/cinereviews/internal/apperror"
)

var validate = newValidator()

// newValidator reports field names by their `form` tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// messages maps "field.tag" (or just "field") to the text shown to the
// user.
type messages map[string]string

// check validates v and returns the first failure as an AppError.
func check(v any, msgs messages) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("", err.Error())
	}
	fe := verrs[0]
	field := fe.Field()
	if m, ok := msgs[field+"."+fe.Tag()]; ok {
		return apperror.ValidationFailed(field, m)
	}
	if m, ok := msgs[field]; ok {
		return apperror.ValidationFailed(field, m)
	}
	return apperror.ValidationFailed(field, field+" is invalid")
}

// optional returns nil for a blank string, else a pointer to the trimmed
// value.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
