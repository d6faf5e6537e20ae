package http

import (
	"net/http"
	"time"

	"github.com/kochabx/blaze/log"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRefreshPath = "/auth/refresh"
	defaultUserAgent   = "blaze-go"
)

// Option 配置 Client
type Option func(*Client)

// WithHTTPClient 使用自定义的 *http.Client，Timeout 为 0 时仍会被设为请求超时
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout 设置每个请求的超时（包括刷新请求），默认 30s
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRefreshTimeout 限制一次刷新的总时长，刷新不随调用方取消，默认等于请求超时
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.refreshTimeout = d
	}
}

// WithRefreshPath 设置刷新接口路径，默认 /auth/refresh
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug 以 debug 级别记录每个请求
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithMetrics 记录 Prometheus 指标
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent 设置 User-Agent
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}
