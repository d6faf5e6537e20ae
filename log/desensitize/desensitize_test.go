package desensitize

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldRule(t *testing.T) {
	h := NewHook()
	require.NoError(t, h.AddFieldRule("pw", "password", `.+`, "***"))

	out := h.Desensitize(`{"user":"a","password": "hunter2"}`)
	assert.Equal(t, `{"user":"a","password":"***"}`, out)
}

func TestRefreshTokenNotMatchedByToken(t *testing.T) {
	h := NewHook()
	h.AddRule(TokenRule)

	out := h.Desensitize(`{"refreshToken":"r1","token":"t1"}`)
	assert.Contains(t, out, `"refreshToken":"r1"`)
	assert.Contains(t, out, `"token":"******"`)
}

func TestBearerRule(t *testing.T) {
	assert.Equal(t, "Authorization: Bearer ******", BearerRule.Process("Authorization: Bearer eyJhbGciOi.x-y_z"))
	assert.Equal(t, "bearer ******", BearerRule.Process("bearer abc"))
}

func TestHookReplaceAndRemove(t *testing.T) {
	h := NewHook()
	h.AddRule(PasswordRule)
	h.AddRule(PasswordRule)
	assert.Equal(t, 1, h.RuleCount())

	assert.True(t, h.RemoveRule("password"))
	assert.False(t, h.RemoveRule("password"))
	assert.Equal(t, 0, h.RuleCount())
}

func TestWriterReportsOriginalLength(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Credentials())

	in := []byte(`{"otp":"123456"}`)
	n, err := w.Write(in)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.Equal(t, `{"otp":"******"}`, buf.String())
}

func TestInvalidRule(t *testing.T) {
	_, err := NewContentRule("", "x", "y")
	assert.Error(t, err)
	_, err = NewFieldRule("a", "b", "(", "y")
	assert.Error(t, err)
}
