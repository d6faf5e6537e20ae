package ride

import (
	"context"
	"time"

	"github.com/kochabx/blaze/cache"
	"github.com/kochabx/blaze/errors"
	"github.com/kochabx/blaze/service/keys"
)

const historyStaleTime = 2 * time.Minute

// Queries 带缓存的行程接口
type Queries struct {
	client *Client
	cache  *cache.Cache
}

func NewQueries(client *Client, c *cache.Cache) *Queries {
	return &Queries{client: client, cache: c}
}

func (q *Queries) History(ctx context.Context) ([]Ride, error) {
	return cache.Fetch(ctx, q.cache, keys.RideHistory(), q.client.History, cache.WithStaleAfter(historyStaleTime))
}

func (q *Queries) Active(ctx context.Context) (*Ride, error) {
	return cache.Fetch(ctx, q.cache, keys.ActiveRide(), q.client.Active)
}

// WatchActive 读取进行中的行程并开始轮询；行程结束（服务端返回 null）后的下一次触发停止轮询。
// 没有进行中的行程时返回已停止的 Poller。
func (q *Queries) WatchActive(ctx context.Context, interval time.Duration) (*Ride, *cache.Poller, error) {
	r, err := q.Active(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := cache.Poll(q.cache, keys.ActiveRide(), q.client.Active, interval)
	if err != nil {
		return nil, nil, err
	}
	if r == nil {
		p.Stop()
	}
	return r, p, nil
}

func (q *Queries) Detail(ctx context.Context, id string) (*Ride, error) {
	if id == "" {
		return nil, errors.Validation("ride id is required")
	}
	return cache.Fetch(ctx, q.cache, keys.RideDetail(id), func(ctx context.Context) (*Ride, error) {
		return q.client.Detail(ctx, id)
	})
}

// Request 叫车成功后回填进行中的行程并失效历史
func (q *Queries) Request(ctx context.Context, in RequestInput) (*Ride, error) {
	r, err := cache.Mutate(ctx, q.cache, func(ctx context.Context) (*Ride, error) {
		return q.client.Request(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	q.cache.SetValue(keys.ActiveRide(), r)
	q.cache.Invalidate(keys.RideHistory())
	return r, nil
}

// Cancel 取消成功后回填详情、清空进行中的行程并失效历史
func (q *Queries) Cancel(ctx context.Context, id string) (*Ride, error) {
	r, err := cache.Mutate(ctx, q.cache, func(ctx context.Context) (*Ride, error) {
		return q.client.Cancel(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if r != nil {
		q.cache.SetValue(keys.RideDetail(r.ID), r)
	}
	q.cache.SetValue(keys.ActiveRide(), (*Ride)(nil))
	q.cache.Invalidate(keys.RideHistory())
	return r, nil
}

// Rate 评价成功后回填详情并失效历史
func (q *Queries) Rate(ctx context.Context, id string, rating Rating) (*Ride, error) {
	r, err := cache.Mutate(ctx, q.cache, func(ctx context.Context) (*Ride, error) {
		return q.client.Rate(ctx, id, rating)
	})
	if err != nil {
		return nil, err
	}
	if r != nil {
		q.cache.SetValue(keys.RideDetail(r.ID), r)
	}
	q.cache.Invalidate(keys.RideHistory())
	return r, nil
}
