package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaValidate(t *testing.T) {
	s := New()
	valid := PostFields{Title: "Hello", Content: "Body", Author: "Ann"}

	tests := []struct {
		name   string
		fields PostFields
		want   FieldErrors
	}{
		{"valid", valid, nil},
		{"missing everything", PostFields{}, FieldErrors{
			"title":   "Title is required",
			"content": "Content is required",
			"author":  "Author is required",
		}},
		{"blank title", PostFields{Title: "   ", Content: "x", Author: "y"}, FieldErrors{"title": "Title is required"}},
		{"title at limit", PostFields{Title: strings.Repeat("a", TitleMaxLen), Content: "x", Author: "y"}, nil},
		{"title too long", PostFields{Title: strings.Repeat("a", TitleMaxLen+1), Content: "x", Author: "y"}, FieldErrors{"title": "Title is too long"}},
		{"title limit counts runes", PostFields{Title: strings.Repeat("ø", TitleMaxLen), Content: "x", Author: "y"}, nil},
		{"author too long", PostFields{Title: "t", Content: "x", Author: strings.Repeat("b", AuthorMaxLen+1)}, FieldErrors{"author": "Author name is too long"}},
		{"content unbounded", PostFields{Title: "t", Content: strings.Repeat("c", 100_000), Author: "y"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Validate(tt.fields))
		})
	}
}

func TestSchemaCheck(t *testing.T) {
	s := New()
	err := s.Check(PostFields{Title: "t"})
	assert.True(t, errors.Is(err, ErrInvalid))

	var fe FieldErrors
	assert.True(t, errors.As(err, &fe))
	assert.Len(t, fe, 2)

	assert.NoError(t, s.Check(PostFields{Title: "t", Content: "c", Author: "a"}))
}
