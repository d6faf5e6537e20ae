package errors

import "net/http"

// BadRequest 输入不合法，例如配置校验失败
func BadRequest(format string, args ...any) *Error {
	return New(http.StatusBadRequest, format, args...)
}

// NotFound 资源不存在，例如指定的配置文件缺失
func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, format, args...)
}

// Internal 本地处理失败，例如配置无法解析
func Internal(format string, args ...any) *Error {
	return New(http.StatusInternalServerError, format, args...)
}

// Validation 客户端校验失败，请求不会发出
func Validation(format string, args ...any) *Error {
	return BadRequest(format, args...).WithKind(KindValidation)
}
