package validator

import (
	"errors"
	"strings"
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationErrors 一次校验的全部失败字段
type ValidationErrors struct {
	fields []FieldError
}

// Error 以 "; " 连接各字段的消息
func (ve *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve.fields))
	for _, fe := range ve.fields {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// Errors 返回字段错误列表
func (ve *ValidationErrors) Errors() []FieldError {
	return ve.fields
}

// First 返回第一个字段错误的消息
func (ve *ValidationErrors) First() string {
	if len(ve.fields) == 0 {
		return ""
	}
	return ve.fields[0].Message
}

// IsValidationError 检查错误链中是否有校验错误
func IsValidationError(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}

// HasFieldError 检查是否存在指定字段的错误
func HasFieldError(err error, field string) bool {
	var ve *ValidationErrors
	if !errors.As(err, &ve) {
		return false
	}
	for _, fe := range ve.fields {
		if fe.Field == field {
			return true
		}
	}
	return false
}
