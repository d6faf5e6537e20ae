package auth

import (
	"context"
	"time"

	"github.com/kochabx/blaze/cache"
	"github.com/kochabx/blaze/core/validator"
	"github.com/kochabx/blaze/service/keys"
)

// statusStaleTime 登录状态只看本地 token，变化时由会话改写缓存
const statusStaleTime = 5 * time.Minute

// Queries 带缓存的用户资料读写
type Queries struct {
	client *Client
	cache  *cache.Cache
}

func NewQueries(client *Client, c *cache.Cache) *Queries {
	return &Queries{client: client, cache: c}
}

// User 当前用户资料
func (q *Queries) User(ctx context.Context) (*User, error) {
	return cache.Fetch(ctx, q.cache, keys.AuthUser(), q.client.Profile)
}

// Status 缓存的登录状态，即本地是否存有 access token
func (q *Queries) Status(ctx context.Context) (bool, error) {
	return cache.Fetch(ctx, q.cache, keys.AuthStatus(), func(ctx context.Context) (bool, error) {
		return q.client.IsAuthenticated(ctx), nil
	}, cache.WithStaleAfter(statusStaleTime))
}

// UpdateProfile 先把 patch 合并进缓存的用户，请求失败时回滚，结束后总是失效以重新拉取
func (q *Queries) UpdateProfile(ctx context.Context, patch ProfilePatch) (*User, error) {
	if err := validator.Validate.StructCtx(ctx, patch); err != nil {
		return nil, err
	}

	key := keys.AuthUser()
	prev, ok := cache.Get[*User](q.cache, key)
	if ok && prev != nil {
		merged := prev.Merge(patch)
		q.cache.SetValue(key, &merged)
	}
	defer q.cache.Invalidate(key)

	u, err := cache.Mutate(ctx, q.cache, func(ctx context.Context) (*User, error) {
		return q.client.UpdateProfile(ctx, patch)
	})
	if err != nil {
		if ok && prev != nil {
			q.cache.SetValue(key, prev)
		}
		return nil, err
	}
	return u, nil
}
