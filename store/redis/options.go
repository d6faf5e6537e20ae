package redis

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/blaze/log"
)

// Option 客户端配置选项
type Option func(*clientOptions)

type clientOptions struct {
	hooks           []redis.Hook
	debug           bool
	slowQueryThresh time.Duration
	logger          *log.Logger
}

// WithHooks 添加自定义 Hooks
func WithHooks(hooks ...redis.Hook) Option {
	return func(o *clientOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithDebug 记录每条命令（只记录命令名与 key，不记录值）
// slowQueryThreshold: 超过此时间的命令记录为警告，0 表示不检测
func WithDebug(slowQueryThreshold time.Duration) Option {
	return func(o *clientOptions) {
		o.debug = true
		o.slowQueryThresh = slowQueryThreshold
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}
