package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kochabx/blaze/core/validator"
	kerrors "github.com/kochabx/blaze/errors"
)

func TestNormalize(t *testing.T) {
	type phone struct {
		PhoneNumber string `json:"phoneNumber" validate:"required"`
	}
	verr := validator.Validate.Struct(phone{})

	tests := []struct {
		name   string
		err    error
		kind   kerrors.Kind
		msg    string
		status int
	}{
		{
			name:   "message field",
			err:    &ResponseError{StatusCode: 400, Body: []byte(`{"message":"Invalid phone"}`)},
			kind:   kerrors.KindServer,
			msg:    "Invalid phone",
			status: 400,
		},
		{
			name:   "message array",
			err:    &ResponseError{StatusCode: 422, Body: []byte(`{"message":["a","b"]}`)},
			kind:   kerrors.KindServer,
			msg:    "a; b",
			status: 422,
		},
		{
			name:   "error field",
			err:    &ResponseError{StatusCode: 409, Body: []byte(`{"error":"Conflict"}`)},
			kind:   kerrors.KindServer,
			msg:    "Conflict",
			status: 409,
		},
		{
			name:   "empty body",
			err:    &ResponseError{StatusCode: 500},
			kind:   kerrors.KindServer,
			msg:    MessageServerDefault,
			status: 500,
		},
		{
			name:   "html body",
			err:    &ResponseError{StatusCode: 502, Body: []byte("<html>bad gateway</html>")},
			kind:   kerrors.KindServer,
			msg:    MessageServerDefault,
			status: 502,
		},
		{
			name: "wrapped response error",
			err:  fmt.Errorf("get ride: %w", &ResponseError{StatusCode: 404, Body: []byte(`{"message":"Ride not found"}`)}),
			kind: kerrors.KindServer, msg: "Ride not found", status: 404,
		},
		{
			name: "no response",
			err:  &NoResponseError{Method: http.MethodGet, URL: "http://x", Err: context.DeadlineExceeded},
			kind: kerrors.KindNoResponse,
			msg:  MessageNoResponse,
		},
		{
			name: "setup",
			err:  &SetupError{Err: errors.New("bad url")},
			kind: kerrors.KindSetup,
			msg:  "bad url",
		},
		{
			name: "setup without cause",
			err:  &SetupError{},
			kind: kerrors.KindSetup,
			msg:  MessageSetupDefault,
		},
		{
			name: "validator",
			err:  verr,
			kind: kerrors.KindValidation,
			msg:  verr.(*validator.ValidationErrors).First(),
		},
		{
			name: "kit validation",
			err:  kerrors.Validation("Phone number is required"),
			kind: kerrors.KindValidation,
			msg:  "Phone number is required",
		},
		{
			name: "unexpected",
			err:  errors.New("boom"),
			kind: kerrors.KindUnexpected,
			msg:  MessageUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Normalize(tt.err)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.msg, f.Message)
			assert.Equal(t, tt.status, f.StatusCode)
			// 同一输入总是同一结果
			assert.Equal(t, f, Normalize(tt.err))
			assert.Equal(t, f.Message, Message(tt.err))
		})
	}
}

func TestNormalizeNil(t *testing.T) {
	assert.Equal(t, Failure{}, Normalize(nil))
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, kerrors.IsKind(&ResponseError{StatusCode: 500}, kerrors.KindServer))
	assert.True(t, kerrors.IsKind(&NoResponseError{Err: errors.New("refused")}, kerrors.KindNoResponse))
	assert.True(t, kerrors.IsKind(&SetupError{}, kerrors.KindSetup))
	assert.True(t, (&ResponseError{StatusCode: http.StatusUnauthorized}).Unauthorized())
	assert.Contains(t, (&ResponseError{StatusCode: 404, Body: []byte(`{"message":"Ride not found"}`)}).Error(), "Ride not found")
}
