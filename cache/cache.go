package cache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/kochabx/blaze/log"
)

var (
	ErrTypeMismatch = errors.New("cache: value type mismatch")
	ErrClosed       = errors.New("cache: closed")
)

type entry struct {
	key         Key
	value       any
	fetchedAt   time.Time
	invalidated bool
}

// inflight 正在进行的拉取。拉取期间 key 被失效时结果按过期存入，
// 被 SetValue/Remove/Clear 覆盖时结果只返回给调用方，不写入缓存。
type inflight struct {
	key         Key
	invalidated bool
	superseded  bool
}

// Cache 服务端状态缓存
type Cache struct {
	staleTime     time.Duration
	retry         int
	backoff       RetryPolicy
	mutationRetry int
	mutationDelay RetryPolicy
	pollInterval  time.Duration
	logger        *log.Logger
	now           func() time.Time

	mu       sync.RWMutex
	entries  map[string]*entry
	inflight map[string]*inflight
	pollers  map[*Poller]struct{}
	closed   bool

	flight singleflight.Group
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// New 创建缓存并启动轮询调度
func New(opts ...Option) *Cache {
	c := &Cache{
		staleTime:     defaultStaleTime,
		retry:         defaultRetry,
		backoff:       ExponentialBackoff{BaseDelay: defaultRetryBase, MaxDelay: defaultRetryMax},
		mutationRetry: defaultMutationRetry,
		mutationDelay: FixedDelay{Delay: defaultMutationRetryDelay},
		pollInterval:  defaultPollInterval,
		logger:        log.G,
		now:           time.Now,
		entries:       make(map[string]*entry),
		inflight:      make(map[string]*inflight),
		pollers:       make(map[*Poller]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Component("cache")
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.cron = cron.New(cron.WithLogger(cronLogger{c.logger}))
	c.cron.Start()
	return c
}

// Fetch 新鲜时返回缓存值，否则调用 producer（失败按退避重试）并写入缓存。
// 同一 key 的并发调用共享一次 producer 调用。
// 调用方 ctx 结束只会停止等待，拉取本身继续完成。
func Fetch[T any](ctx context.Context, c *Cache, key Key, producer func(context.Context) (T, error), opts ...FetchOption) (T, error) {
	o := fetchOptions{staleAfter: c.staleTime}
	for _, opt := range opts {
		opt(&o)
	}

	if v, ok := c.fresh(key, o.staleAfter); ok {
		return as[T](key, v)
	}

	v, err := c.load(ctx, key, o.staleAfter, func(ctx context.Context) (any, error) {
		v, err := producer(ctx)
		return v, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](key, v)
}

// Get 返回 key 对应的缓存值（无论是否过期）
func Get[T any](c *Cache, key Key) (T, bool) {
	v, ok := c.peek(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, err := as[T](key, v)
	if err != nil {
		return t, false
	}
	return t, true
}

// Mutate 执行一次变更，失败时按固定延迟至多重试一次。变更结果不写入缓存，
// 调用方根据结果 SetValue 或 Invalidate。
func Mutate[T any](ctx context.Context, c *Cache, fn func(context.Context) (T, error)) (T, error) {
	return retry(ctx, c.mutationRetry, c.mutationDelay, c.logger, fn)
}

// SetValue 直接写入缓存，用于乐观更新和变更结果回填
func (c *Cache) SetValue(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := key.id()
	c.entries[id] = &entry{key: key, value: value, fetchedAt: c.now()}
	if f, ok := c.inflight[id]; ok {
		f.superseded = true
	}
}

// Invalidate 把所有以 prefix 开头的条目标记为过期，下次 Fetch 时重新拉取
func (c *Cache) Invalidate(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.invalidated = true
			n++
		}
	}
	for _, f := range c.inflight {
		if f.key.HasPrefix(prefix) {
			f.invalidated = true
		}
	}
	c.logger.Debug().Stringer("prefix", prefix).Int("entries", n).Msg("invalidated")
}

// Remove 删除所有以 prefix 开头的条目
func (c *Cache) Remove(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			delete(c.entries, id)
		}
	}
	for _, f := range c.inflight {
		if f.key.HasPrefix(prefix) {
			f.superseded = true
		}
	}
}

// Clear 清空缓存，正在进行的拉取结果不会写回
func (c *Cache) Clear() {
	c.Remove(nil)
}

// Len 返回条目数
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close 停止所有轮询和调度器，并取消正在进行的拉取
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pollers := make([]*Poller, 0, len(c.pollers))
	for p := range c.pollers {
		pollers = append(pollers, p)
	}
	c.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
	c.cancel()
	<-c.cron.Stop().Done()
}

func (c *Cache) fresh(key Key, staleAfter time.Duration) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key.id()]
	if !ok || e.invalidated || c.now().Sub(e.fetchedAt) >= staleAfter {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) peek(key Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key.id()]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// load 经单飞组拉取 key。staleAfter 用于进入单飞组后的二次检查，0 表示强制拉取。
func (c *Cache) load(ctx context.Context, key Key, staleAfter time.Duration, fn func(context.Context) (any, error)) (any, error) {
	ch := c.flight.DoChan(key.id(), func() (any, error) {
		// 前一次拉取可能刚刚完成
		if v, ok := c.fresh(key, staleAfter); ok {
			return v, nil
		}

		f := c.begin(key)
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		stop := context.AfterFunc(c.ctx, cancel)
		defer func() {
			stop()
			cancel()
		}()

		v, err := retry(fctx, c.retry, c.backoff, c.logger, fn)
		c.finish(f, v, err)
		return v, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) begin(key Key) *inflight {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := &inflight{key: key}
	c.inflight[key.id()] = f
	return f
}

func (c *Cache) finish(f *inflight, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := f.key.id()
	delete(c.inflight, id)
	if err != nil {
		c.logger.Debug().Err(err).Stringer("key", f.key).Msg("fetch failed")
		return
	}
	if f.superseded {
		return
	}
	c.entries[id] = &entry{key: f.key, value: v, fetchedAt: c.now(), invalidated: f.invalidated}
}

func as[T any](key Key, v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrTypeMismatch, key, v)
	}
	return t, nil
}

// isNil nil 接口、nil 指针/切片/映射都视为空
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
