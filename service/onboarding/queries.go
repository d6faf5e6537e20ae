package onboarding

import (
	"context"
	"time"

	"github.com/kochabx/blaze/cache"
	"github.com/kochabx/blaze/errors"
	"github.com/kochabx/blaze/service/keys"
)

const (
	statusStaleTime  = 5 * time.Minute
	catalogStaleTime = 24 * time.Hour
)

// Queries 带缓存的入驻接口。提交成功后失效入驻进度，失败时缓存保持不变。
type Queries struct {
	client *Client
	cache  *cache.Cache
}

func NewQueries(client *Client, c *cache.Cache) *Queries {
	return &Queries{client: client, cache: c}
}

func (q *Queries) Status(ctx context.Context) (*Status, error) {
	return cache.Fetch(ctx, q.cache, keys.OnboardingStatus(), q.client.Status, cache.WithStaleAfter(statusStaleTime))
}

func (q *Queries) SubmitPersonal(ctx context.Context, info PersonalInfo) (*PersonalUser, error) {
	return submit(ctx, q, func(ctx context.Context) (*PersonalUser, error) {
		return q.client.SubmitPersonal(ctx, info)
	})
}

func (q *Queries) SubmitDriver(ctx context.Context, info DriverInfo) (*Driver, error) {
	return submit(ctx, q, func(ctx context.Context) (*Driver, error) {
		return q.client.SubmitDriver(ctx, info)
	})
}

func (q *Queries) SubmitVehicle(ctx context.Context, info VehicleInfo) (*Vehicle, error) {
	return submit(ctx, q, func(ctx context.Context) (*Vehicle, error) {
		return q.client.SubmitVehicle(ctx, info)
	})
}

func submit[T any](ctx context.Context, q *Queries, fn func(context.Context) (T, error)) (T, error) {
	v, err := cache.Mutate(ctx, q.cache, fn)
	if err != nil {
		return v, err
	}
	q.cache.Invalidate(keys.OnboardingStatus())
	return v, nil
}

func (q *Queries) Manufacturers(ctx context.Context) ([]Manufacturer, error) {
	return cache.Fetch(ctx, q.cache, keys.ManufacturerList(), q.client.Manufacturers, cache.WithStaleAfter(catalogStaleTime))
}

// Models 制造商 id 为空时直接返回校验错误，不发请求也不占用缓存
func (q *Queries) Models(ctx context.Context, manufacturerID string) ([]Model, error) {
	if manufacturerID == "" {
		return nil, errors.Validation("manufacturer id is required")
	}
	return cache.Fetch(ctx, q.cache, keys.ModelsOf(manufacturerID), func(ctx context.Context) ([]Model, error) {
		return q.client.Models(ctx, manufacturerID)
	}, cache.WithStaleAfter(catalogStaleTime))
}

// Route 读取进度并给出应进入的步骤
func (q *Queries) Route(ctx context.Context) (Step, bool, error) {
	st, err := q.Status(ctx)
	if err != nil {
		return 0, false, err
	}
	step, done := ResolveStep(st)
	return step, done, nil
}
