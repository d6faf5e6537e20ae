package cache

import (
	"time"

	"github.com/kochabx/blaze/log"
)

const (
	defaultStaleTime          = 5 * time.Minute
	defaultRetry              = 2
	defaultRetryBase          = time.Second
	defaultRetryMax           = 30 * time.Second
	defaultMutationRetry      = 1
	defaultMutationRetryDelay = time.Second
	defaultPollInterval       = 5 * time.Second
)

// Option 配置 Cache
type Option func(*Cache)

// WithStaleTime 设置默认的新鲜期，Fetch 可用 WithStaleAfter 单独覆盖
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) {
		c.staleTime = d
	}
}

// WithRetry 设置拉取失败的重试次数与指数退避参数
func WithRetry(n int, base, ceiling time.Duration) Option {
	return func(c *Cache) {
		c.retry = n
		c.backoff = ExponentialBackoff{BaseDelay: base, MaxDelay: ceiling}
	}
}

// WithMutationRetry 设置变更失败的重试次数（至多 1 次）与固定延迟
func WithMutationRetry(n int, delay time.Duration) Option {
	return func(c *Cache) {
		c.mutationRetry = min(max(n, 0), 1)
		c.mutationDelay = FixedDelay{Delay: delay}
	}
}

// WithPollInterval 设置 Poll 的默认间隔
func WithPollInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.pollInterval = d
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithClock 替换时间源，测试用
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

type fetchOptions struct {
	staleAfter time.Duration
}

// FetchOption 配置单次 Fetch
type FetchOption func(*fetchOptions)

// WithStaleAfter 覆盖本次 Fetch 的新鲜期，0 表示总是重新拉取
func WithStaleAfter(d time.Duration) FetchOption {
	return func(o *fetchOptions) {
		o.staleAfter = d
	}
}
