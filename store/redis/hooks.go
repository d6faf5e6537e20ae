package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/blaze/log"
)

// DebugHook 调试钩子（日志记录 + 慢查询检测）。
// 命令参数里可能有凭据，日志只带命令名与 key。
type DebugHook struct {
	logger          *log.Logger
	slowQueryThresh time.Duration
}

// NewDebugHook 创建调试 Hook，slowQueryThresh 为 0 表示不检测慢查询
func NewDebugHook(logger *log.Logger, slowQueryThresh time.Duration) *DebugHook {
	return &DebugHook{logger: logger, slowQueryThresh: slowQueryThresh}
}

func (h *DebugHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.logger.Error().Str("addr", addr).Dur("duration", time.Since(start)).Err(err).Msg("redis dial failed")
		}
		return conn, err
	}
}

func (h *DebugHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		duration := time.Since(start)

		switch {
		case h.slowQueryThresh > 0 && duration > h.slowQueryThresh:
			h.logger.Warn().Str("cmd", cmd.Name()).Str("key", commandKey(cmd)).Dur("duration", duration).Msg("slow query detected")
		case err != nil && err != redis.Nil:
			h.logger.Warn().Str("cmd", cmd.Name()).Str("key", commandKey(cmd)).Err(err).Msg("redis command failed")
		default:
			h.logger.Debug().Str("cmd", cmd.Name()).Str("key", commandKey(cmd)).Dur("duration", duration).Msg("redis command")
		}
		return err
	}
}

func (h *DebugHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.logger.Debug().Int("commands", len(cmds)).Dur("duration", time.Since(start)).Err(err).Msg("redis pipeline")
		return err
	}
}

func commandKey(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return ""
	}
	return fmt.Sprint(args[1])
}
