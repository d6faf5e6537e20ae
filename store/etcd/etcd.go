package etcd

import (
	"context"
	"errors"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

var (
	ErrEtcdNotInitialized = errors.New("etcd client not initialized")
	ErrConnectionFailed   = errors.New("failed to connect to etcd")
	ErrNoEndpoints        = errors.New("etcd endpoints cannot be empty")
)

// Etcd ETCD 客户端
type Etcd struct {
	Client *clientv3.Client
	config *Config
}

// New 创建 Etcd 实例并检查第一个 endpoint 的状态
func New(ctx context.Context, config *Config) (*Etcd, error) {
	if config == nil {
		config = &Config{}
	}
	e := &Etcd{config: config}
	if err := e.config.init(); err != nil {
		return nil, err
	}

	if err := e.connect(); err != nil {
		return nil, err
	}

	if err := e.Ping(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Etcd) connect() error {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:            e.config.Endpoints,
		Username:             e.config.Username,
		Password:             e.config.Password,
		DialTimeout:          e.config.DialTimeout,
		DialKeepAliveTime:    e.config.KeepAliveTime,
		DialKeepAliveTimeout: e.config.KeepAliveTimeout,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	e.Client = client
	return nil
}

// Ping 测试etcd连接是否正常
func (e *Etcd) Ping(ctx context.Context) error {
	if e.Client == nil {
		return ErrEtcdNotInitialized
	}

	ctx, cancel := e.WithTimeout(ctx)
	defer cancel()

	_, err := e.Client.Status(ctx, e.config.Endpoints[0])
	return err
}

// WithTimeout 按配置的 RequestTimeout 派生上下文
func (e *Etcd) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.RequestTimeout)
}

// Close 关闭etcd连接
func (e *Etcd) Close() error {
	if e.Client == nil {
		return nil
	}
	if err := e.Client.Close(); err != nil {
		return err
	}
	e.Client = nil
	return nil
}
