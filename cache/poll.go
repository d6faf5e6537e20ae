package cache

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kochabx/blaze/log"
)

// every 固定间隔的调度，支持亚秒级间隔
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// Poller 周期性重新拉取一个 key，缓存值为空时停止
type Poller struct {
	c    *Cache
	key  Key
	id   cron.EntryID
	once sync.Once
	done chan struct{}
}

// Poll 每隔 interval 强制重新拉取 key（interval <= 0 时用默认间隔）。
// 每次触发先检查缓存：值为 nil 或不存在时停止轮询。
// 拉取失败只记录日志，轮询继续。
func Poll[T any](c *Cache, key Key, producer func(context.Context) (T, error), interval time.Duration) (*Poller, error) {
	if interval <= 0 {
		interval = c.pollInterval
	}
	p := &Poller{c: c, key: key, done: make(chan struct{})}
	fetch := func(ctx context.Context) (any, error) {
		v, err := producer(ctx)
		return v, err
	}
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{c.logger})).
		Then(cron.FuncJob(func() { p.tick(fetch) }))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	p.id = c.cron.Schedule(every(interval), job)
	c.pollers[p] = struct{}{}

	c.logger.Debug().Stringer("key", key).Dur("interval", interval).Msg("polling started")
	return p, nil
}

func (p *Poller) tick(fetch func(context.Context) (any, error)) {
	select {
	case <-p.done:
		return
	default:
	}

	v, ok := p.c.peek(p.key)
	if !ok || isNil(v) {
		p.Stop()
		return
	}
	if _, err := p.c.load(p.c.ctx, p.key, 0, fetch); err != nil {
		p.c.logger.Warn().Err(err).Stringer("key", p.key).Msg("poll fetch failed")
	}
}

// Stop 停止轮询，可重复调用
func (p *Poller) Stop() {
	p.once.Do(func() {
		p.c.mu.Lock()
		delete(p.c.pollers, p)
		id := p.id
		p.c.mu.Unlock()

		p.c.cron.Remove(id)
		close(p.done)
		p.c.logger.Debug().Stringer("key", p.key).Msg("polling stopped")
	})
}

// Done 轮询停止后关闭
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// cronLogger 把 cron 的日志接到 zerolog
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
