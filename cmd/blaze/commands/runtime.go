package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/kochabx/blaze/cache"
	"github.com/kochabx/blaze/config"
	"github.com/kochabx/blaze/log"
	"github.com/kochabx/blaze/service/auth"
	"github.com/kochabx/blaze/service/onboarding"
	"github.com/kochabx/blaze/service/ride"
	"github.com/kochabx/blaze/session"
	"github.com/kochabx/blaze/store/credential"
	"github.com/kochabx/blaze/store/etcd"
	"github.com/kochabx/blaze/store/redis"
	transport "github.com/kochabx/blaze/transport/http"
)

// runtime 一次命令执行所需的全部组件
type runtime struct {
	cfg        *config.Client
	logger     *log.Logger
	store      *credential.Store
	http       *transport.Client
	auth       *auth.Client
	user       *auth.Queries
	onboarding *onboarding.Queries
	rides      *ride.Queries
	cache      *cache.Cache
	session    *session.Session
	registry   *prometheus.Registry

	closers []func() error
}

// newRuntime 按 config -> log -> 凭据后端 -> 传输层 -> 服务 -> 缓存 -> 会话 的顺序组装
func newRuntime(ctx context.Context, file string) (*runtime, error) {
	cfg, err := config.LoadClient(file)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}
	if err := rt.init(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) init(ctx context.Context) error {
	cfg := rt.cfg

	logger, err := log.FromConfig(cfg.Log)
	if err != nil {
		return err
	}
	log.SetGlobalLogger(logger)
	rt.logger = logger
	rt.closers = append(rt.closers, logger.Close)

	backend, err := rt.backend(ctx)
	if err != nil {
		return err
	}
	rt.store = credential.New(backend,
		credential.WithNamespace(cfg.Storage.Namespace),
		credential.WithTimeout(cfg.Storage.Timeout),
		credential.WithLogger(logger),
	)

	rt.registry = prometheus.NewRegistry()
	rt.http = transport.New(cfg.API.BaseURL, rt.store,
		transport.WithTimeout(cfg.API.Timeout),
		transport.WithRefreshTimeout(cfg.API.RefreshTimeout),
		transport.WithUserAgent(cfg.API.UserAgent),
		transport.WithDebug(cfg.API.Debug),
		transport.WithLogger(logger),
		transport.WithMetrics(transport.NewMetrics(rt.registry)),
	)

	rt.cache = cache.New(
		cache.WithStaleTime(cfg.Cache.StaleTime),
		cache.WithRetry(cfg.Cache.Retry, cfg.Cache.RetryBase, cfg.Cache.RetryMax),
		cache.WithMutationRetry(cfg.Cache.MutationRetry, cfg.Cache.MutationRetryDelay),
		cache.WithPollInterval(cfg.Cache.PollInterval),
		cache.WithLogger(logger),
	)
	rt.closers = append(rt.closers, func() error { rt.cache.Close(); return nil })

	rt.auth = auth.New(rt.http, rt.store)
	rt.user = auth.NewQueries(rt.auth, rt.cache)
	rt.onboarding = onboarding.NewQueries(onboarding.New(rt.http), rt.cache)
	rt.rides = ride.NewQueries(ride.New(rt.http), rt.cache)

	rt.session, err = session.New(rt.store, rt.auth, rt.cache, session.WithLogger(logger))
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, rt.session.Close)
	rt.http.OnRefreshFailure(func(error) { rt.session.Expire() })

	return rt.session.Init(ctx)
}

func (rt *runtime) backend(ctx context.Context) (credential.Backend, error) {
	sc := rt.cfg.Storage
	switch sc.Driver {
	case config.DriverMemory:
		return credential.NewMemory(), nil
	case config.DriverFile:
		path := sc.Path
		if path == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "blaze", "credentials")
		}
		f, err := credential.NewFile(path, sc.Secret)
		if err != nil {
			return nil, err
		}
		return f, nil
	case config.DriverRedis:
		if sc.Redis == nil {
			return nil, errors.New("storage.redis is required for the redis driver")
		}
		c, err := redis.New(ctx, sc.Redis, redis.WithLogger(rt.logger))
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, c.Close)
		return credential.NewRedis(c), nil
	case config.DriverEtcd:
		if sc.Etcd == nil {
			return nil, errors.New("storage.etcd is required for the etcd driver")
		}
		e, err := etcd.New(ctx, sc.Etcd)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, e.Close)
		return credential.NewEtcd(e), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
}

// requireLogin 未登录时返回错误
func (rt *runtime) requireLogin() error {
	if !rt.session.Snapshot().IsAuthenticated {
		return errors.New("not logged in, run `blaze login` first")
	}
	return nil
}

// dumpMetrics 以 Prometheus 文本格式输出本次命令的客户端指标
func (rt *runtime) dumpMetrics(w io.Writer) error {
	families, err := rt.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Close 按创建的逆序释放资源
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
