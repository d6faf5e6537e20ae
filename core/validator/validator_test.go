package validator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type rating struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=10"`
}

func TestValid(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(&credentials{Email: "a@b.com", Password: "x"}))
	assert.NoError(t, v.Struct(rating{Rating: 5}))
}

func TestFieldNamesFromJSONTag(t *testing.T) {
	err := Validate.Struct(&credentials{Email: "nope"})
	require.Error(t, err)

	var ve *ValidationErrors
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Errors(), 2)
	assert.Equal(t, "email", ve.Errors()[0].Field)
	assert.Equal(t, "email", ve.Errors()[0].Tag)
	assert.Equal(t, "password", ve.Errors()[1].Field)
	assert.Equal(t, "required", ve.Errors()[1].Tag)
	assert.Equal(t, "password is a required field", ve.Errors()[1].Message)
	assert.Equal(t, "email must be a valid email address", ve.First())
}

func TestHelpers(t *testing.T) {
	err := Validate.Struct(rating{Rating: 9})

	assert.True(t, IsValidationError(err))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", err)))
	assert.True(t, HasFieldError(err, "rating"))
	assert.False(t, HasFieldError(err, "comment"))
	assert.False(t, IsValidationError(errors.New("plain")))
}

func TestNilTarget(t *testing.T) {
	err := New().Struct(nil)
	assert.Error(t, err)
	assert.False(t, IsValidationError(err))
}
