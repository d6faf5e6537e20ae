package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kochabx/blaze/core/validator"
	kerrors "github.com/kochabx/blaze/errors"
)

var (
	// ErrRefreshNoToken 刷新接口返回 2xx 但没有 token
	ErrRefreshNoToken = errors.New("refresh response carried no token")

	errNoRefreshToken    = errors.New("no refresh token")
	errRefreshSuperseded = errors.New("credentials changed during refresh")
)

// 面向用户的固定消息
const (
	MessageServerDefault = "An error occurred"
	MessageNoResponse    = "No response from server. Check your connection."
	MessageSetupDefault  = "Request failed"
	MessageUnexpected    = "An unexpected error occurred"
)

// ResponseError 服务端返回了非 2xx 状态
type ResponseError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message())
}

func (e *ResponseError) Kind() kerrors.Kind { return kerrors.KindServer }

// Message 取响应体的 message 字段，其次 error 字段，都没有时为默认消息。
// message 为字符串数组时用 "; " 连接。
func (e *ResponseError) Message() string {
	var body struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(e.Body, &body) != nil {
		return MessageServerDefault
	}
	if m := textOf(body.Message); m != "" {
		return m
	}
	if m := textOf(body.Error); m != "" {
		return m
	}
	return MessageServerDefault
}

// Unauthorized 是否为 401
func (e *ResponseError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "; ")
	}
	return ""
}

// NoResponseError 请求已发出但没有收到响应（连接失败、超时、读响应中断）
type NoResponseError struct {
	Method string
	URL    string
	Err    error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("%s %s: no response: %v", e.Method, e.URL, e.Err)
}

func (e *NoResponseError) Unwrap() error { return e.Err }

func (e *NoResponseError) Kind() kerrors.Kind { return kerrors.KindNoResponse }

// SetupError 请求在发出前失败（编码、构造 URL 等）
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	if e.Err == nil {
		return MessageSetupDefault
	}
	return e.Err.Error()
}

func (e *SetupError) Unwrap() error { return e.Err }

func (e *SetupError) Kind() kerrors.Kind { return kerrors.KindSetup }

// Failure 归一化后的失败描述
type Failure struct {
	Kind       kerrors.Kind
	Message    string
	StatusCode int
}

// Normalize 把任意错误归为一类并给出展示消息。纯函数，相同输入总是相同输出。
func Normalize(err error) Failure {
	if err == nil {
		return Failure{}
	}

	var re *ResponseError
	if errors.As(err, &re) {
		return Failure{Kind: kerrors.KindServer, Message: re.Message(), StatusCode: re.StatusCode}
	}

	var nre *NoResponseError
	if errors.As(err, &nre) {
		return Failure{Kind: kerrors.KindNoResponse, Message: MessageNoResponse}
	}

	var se *SetupError
	if errors.As(err, &se) {
		msg := MessageSetupDefault
		if se.Err != nil && se.Err.Error() != "" {
			msg = se.Err.Error()
		}
		return Failure{Kind: kerrors.KindSetup, Message: msg}
	}

	var ve *validator.ValidationErrors
	if errors.As(err, &ve) {
		return Failure{Kind: kerrors.KindValidation, Message: ve.First()}
	}
	var ke *kerrors.Error
	if errors.As(err, &ke) && ke.Kind() == kerrors.KindValidation {
		return Failure{Kind: kerrors.KindValidation, Message: ke.GetMessage()}
	}

	return Failure{Kind: kerrors.KindUnexpected, Message: MessageUnexpected}
}

// Message 返回 Normalize(err).Message
func Message(err error) string {
	return Normalize(err).Message
}
