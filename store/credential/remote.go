package credential

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kochabx/blaze/store/etcd"
	"github.com/kochabx/blaze/store/redis"
)

// Redis 基于 Redis 的存储，适合多个进程共享同一会话
type Redis struct {
	client goredis.UniversalClient
}

// NewRedis 创建 Redis 存储
func NewRedis(c *redis.Client) *Redis {
	return &Redis{client: c.UniversalClient()}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Etcd 基于 etcd 的存储，每次操作受 RequestTimeout 限制
type Etcd struct {
	etcd *etcd.Etcd
}

// NewEtcd 创建 etcd 存储
func NewEtcd(e *etcd.Etcd) *Etcd {
	return &Etcd{etcd: e}
}

func (e *Etcd) Get(ctx context.Context, key string) (string, bool, error) {
	if e.etcd.Client == nil {
		return "", false, etcd.ErrEtcdNotInitialized
	}
	ctx, cancel := e.etcd.WithTimeout(ctx)
	defer cancel()

	resp, err := e.etcd.Client.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if len(resp.Kvs) == 0 {
		return "", false, nil
	}
	return string(resp.Kvs[0].Value), true, nil
}

func (e *Etcd) Set(ctx context.Context, key, value string) error {
	if e.etcd.Client == nil {
		return etcd.ErrEtcdNotInitialized
	}
	ctx, cancel := e.etcd.WithTimeout(ctx)
	defer cancel()

	_, err := e.etcd.Client.Put(ctx, key, value)
	return err
}

// Delete 在一个事务中删除全部 key
func (e *Etcd) Delete(ctx context.Context, keys ...string) error {
	if e.etcd.Client == nil {
		return etcd.ErrEtcdNotInitialized
	}
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := e.etcd.WithTimeout(ctx)
	defer cancel()

	ops := make([]clientv3.Op, 0, len(keys))
	for _, k := range keys {
		ops = append(ops, clientv3.OpDelete(k))
	}
	_, err := e.etcd.Client.Txn(ctx).Then(ops...).Commit()
	return err
}
