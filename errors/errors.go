package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Status 错误码与面向用户的消息
type Status struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error 带状态码、失败类别和原因链的错误。
// 所有 With* 方法返回新实例，原错误保持不变。
type Error struct {
	Status
	kind  Kind
	cause error
}

// Error 格式: "message (code N): cause"
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	b.WriteString(" (code ")
	b.WriteString(strconv.Itoa(e.Code))
	b.WriteByte(')')
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause 附加原因，nil 时返回自身
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}
	err := *e
	err.cause = cause
	return &err
}

// WithKind 设置失败类别
func (e *Error) WithKind(kind Kind) *Error {
	err := *e
	err.kind = kind
	return &err
}

// Kind 返回显式设置的类别，否则取原因的类别，都没有时为 KindUnexpected
func (e *Error) Kind() Kind {
	if e.kind != "" {
		return e.kind
	}
	if e.cause != nil {
		return KindOf(e.cause)
	}
	return KindUnexpected
}

// Is 状态码和消息都相同即视为同一错误
func (e *Error) Is(err error) bool {
	var other *Error
	if errors.As(err, &other) {
		return e.Code == other.Code && e.Message == other.Message
	}
	return false
}

func (e *Error) GetCode() int {
	return e.Code
}

func (e *Error) GetMessage() string {
	return e.Message
}

func (e *Error) GetCause() error {
	return e.cause
}

// New 创建错误，args 非空时按 format 格式化消息
func New(code int, format string, args ...any) *Error {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	return &Error{Status: Status{Code: code, Message: message}}
}
