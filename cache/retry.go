package cache

import (
	"context"
	goerrors "errors"
	"math"
	"time"

	"github.com/kochabx/blaze/errors"
	"github.com/kochabx/blaze/log"
)

// RetryPolicy 计算第 n 次重试前的等待时间（n 从 0 开始）
type RetryPolicy interface {
	NextRetry(retryCount int) time.Duration
}

// ExponentialBackoff 指数退避
// 公式: delay = min(baseDelay * 2^retryCount, maxDelay)
type ExponentialBackoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (e ExponentialBackoff) NextRetry(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	delay := float64(e.BaseDelay) * math.Pow(2, float64(retryCount))
	if e.MaxDelay > 0 && delay > float64(e.MaxDelay) {
		delay = float64(e.MaxDelay)
	}
	return time.Duration(delay)
}

// FixedDelay 固定延迟
type FixedDelay struct {
	Delay time.Duration
}

func (f FixedDelay) NextRetry(int) time.Duration {
	return f.Delay
}

// retryable 校验错误、请求构造错误和取消不重试
func retryable(err error) bool {
	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch errors.KindOf(err) {
	case errors.KindValidation, errors.KindSetup:
		return false
	}
	return true
}

// retry 执行 fn，失败时最多再重试 attempts 次
func retry[T any](ctx context.Context, attempts int, policy RetryPolicy, logger *log.Logger, fn func(context.Context) (T, error)) (T, error) {
	for n := 0; ; n++ {
		v, err := fn(ctx)
		if err == nil || n >= attempts || !retryable(err) {
			return v, err
		}

		delay := policy.NextRetry(n)
		logger.Debug().Err(err).Int("attempt", n+1).Dur("delay", delay).Msg("retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
