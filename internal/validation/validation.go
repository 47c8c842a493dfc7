package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	TitleMaxLen  = 255
	AuthorMaxLen = 100
)

// ErrInvalid is returned by Check when at least one field fails.
var ErrInvalid = errors.New("invalid post fields")

// PostFields are the user-editable fields of a post.
type PostFields struct {
	Title   string `form:"title" validate:"notblank,max=255"`
	Content string `form:"content" validate:"notblank"`
	Author  string `form:"author" validate:"notblank,max=100"`
}

// FieldErrors maps a form field name to the message shown next to it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	return fmt.Sprintf("%d invalid field(s)", len(fe))
}

func (fe FieldErrors) Unwrap() error {
	return ErrInvalid
}

var messages = map[string]map[string]string{
	"title": {
		"notblank": "Title is required",
		"max":      "Title is too long",
	},
	"content": {
		"notblank": "Content is required",
	},
	"author": {
		"notblank": "Author is required",
		"max":      "Author name is too long",
	},
}

// Schema holds the declarative post constraints.
type Schema struct {
	validate *validator.Validate
}

func New() *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return &Schema{validate: v}
}

// Validate returns the failing fields, or nil when all pass.
func (s *Schema) Validate(fields PostFields) FieldErrors {
	err := s.validate.Struct(fields)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		msg, ok := messages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		out[fe.Field()] = msg
	}
	return out
}

// Check is Validate as an error.
func (s *Schema) Check(fields PostFields) error {
	if fe := s.Validate(fields); fe != nil {
		return fe
	}
	return nil
}
