package session

import (
	"time"

	"github.com/kochabx/blaze/log"
)

const (
	defaultPoolSize      = 4
	defaultNotifyTimeout = 5 * time.Second
	defaultCloseTimeout  = 3 * time.Second
)

type Option func(*Session)

// WithLogger 设置日志
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPoolSize 设置后台任务协程池大小
func WithPoolSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.poolSize = n
		}
	}
}

// WithNotifyTimeout 设置登出通知的超时
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithCloseTimeout 设置 Close 等待后台任务的最长时间
func WithCloseTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.closeTimeout = d
		}
	}
}
