package credential

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kochabx/blaze/log"
)

// Kind 凭据类型
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

// 存储 key（位于命名空间之下）
const (
	KeyAccessToken  = "auth_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user_data"
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

func (k Kind) key() (string, bool) {
	switch k {
	case KindAccess:
		return KeyAccessToken, true
	case KindRefresh:
		return KeyRefreshToken, true
	default:
		return "", false
	}
}

// Store 凭据存储。
//
// 所有失败都记录日志后吞掉：读失败等同于不存在，写失败返回 false，
// 调用方无法区分"没有 token"和"存储不可用"。内部不重试。
// 写操作经同一把锁串行化，并发写入时后写者生效。
//
// 每次改动 token 的写入都会推进代数（Generation）。耗时的刷新先记下代数，
// 完成后用 CompareAndSetTokens / CompareAndClear 提交：期间发生过登出或
// 重新登录时提交被拒绝，过期的结果不会覆盖新的凭据。代数只在进程内有效。
type Store struct {
	backend   Backend
	namespace string
	timeout   time.Duration
	logger    *log.Logger
	mu        sync.Mutex
	gen       uint64
}

// Option Store 选项
type Option func(*Store)

// WithNamespace 设置 key 的命名空间（默认 "blaze"）
func WithNamespace(ns string) Option {
	return func(s *Store) {
		s.namespace = ns
	}
}

// WithTimeout 设置单次存储操作的超时，0 表示只受调用方 ctx 限制
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New 创建凭据存储
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		namespace: "blaze",
		logger:    log.G,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Component("credential")
	return s
}

// Key 返回命名空间下的完整 key
func (s *Store) Key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + "." + name
}

func (s *Store) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

// Get 读取 token，不存在、为空或存储出错时返回 ("", false)
func (s *Store) Get(ctx context.Context, kind Kind) (string, bool) {
	name, ok := kind.key()
	if !ok {
		s.logger.Error().Int("kind", int(kind)).Msg("invalid credential kind")
		return "", false
	}

	ctx, cancel := s.context(ctx)
	defer cancel()

	v, found, err := s.backend.Get(ctx, s.Key(name))
	if err != nil {
		s.logger.Warn().Err(err).Stringer("kind", kind).Msg("failed to read credential")
		return "", false
	}
	if !found || v == "" {
		return "", false
	}
	return v, true
}

// Set 写入 token，空 token 等同于删除
func (s *Store) Set(ctx context.Context, kind Kind, token string) bool {
	name, ok := kind.key()
	if !ok {
		s.logger.Error().Int("kind", int(kind)).Msg("invalid credential kind")
		return false
	}
	if token == "" {
		return s.delete(ctx, name)
	}
	return s.set(ctx, name, token)
}

// Clear 在一次存储调用中删除 access 和 refresh token
func (s *Store) Clear(ctx context.Context) bool {
	return s.delete(ctx, KeyAccessToken, KeyRefreshToken)
}

// User 把缓存的用户 JSON 解码到 dst，不存在或无法解析时返回 false
func (s *Store) User(ctx context.Context, dst any) bool {
	ctx, cancel := s.context(ctx)
	defer cancel()

	v, found, err := s.backend.Get(ctx, s.Key(KeyUser))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read user")
		return false
	}
	if !found || v == "" {
		return false
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		s.logger.Warn().Err(err).Msg("stored user is not valid json")
		return false
	}
	return true
}

// SetUser 以 JSON 缓存用户记录
func (s *Store) SetUser(ctx context.Context, user any) bool {
	b, err := json.Marshal(user)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode user")
		return false
	}
	return s.set(ctx, KeyUser, string(b))
}

// ClearUser 删除缓存的用户记录
func (s *Store) ClearUser(ctx context.Context) bool {
	return s.delete(ctx, KeyUser)
}

// ClearAll 一次删除 token 和用户记录，用于登出
func (s *Store) ClearAll(ctx context.Context) bool {
	return s.delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser)
}

// Generation 返回当前的 token 代数
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// CompareAndSetTokens 仅当代数仍为 gen 时写入 access（以及非空的 refresh）。
// 返回 false 表示期间 token 已被改动，什么也没写；写入失败只记录日志。
func (s *Store) CompareAndSetTokens(ctx context.Context, gen uint64, access, refresh string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return false
	}
	s.setLocked(ctx, KeyAccessToken, access)
	if refresh != "" {
		s.setLocked(ctx, KeyRefreshToken, refresh)
	}
	return true
}

// CompareAndClear 仅当代数仍为 gen 时删除 access 和 refresh token
func (s *Store) CompareAndClear(ctx context.Context, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return false
	}
	s.deleteLocked(ctx, KeyAccessToken, KeyRefreshToken)
	return true
}

func (s *Store) set(ctx context.Context, name, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(ctx, name, value)
}

func (s *Store) delete(ctx context.Context, names ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(ctx, names...)
}

// advance 写入涉及 token 时推进代数，失败的写入同样推进
func (s *Store) advance(names ...string) {
	for _, n := range names {
		if n == KeyAccessToken || n == KeyRefreshToken {
			s.gen++
			return
		}
	}
}

func (s *Store) setLocked(ctx context.Context, name, value string) bool {
	s.advance(name)

	ctx, cancel := s.context(ctx)
	defer cancel()

	if err := s.backend.Set(ctx, s.Key(name), value); err != nil {
		s.logger.Warn().Err(err).Str("key", name).Msg("failed to write credential")
		return false
	}
	return true
}

func (s *Store) deleteLocked(ctx context.Context, names ...string) bool {
	s.advance(names...)

	ctx, cancel := s.context(ctx)
	defer cancel()

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = s.Key(n)
	}
	if err := s.backend.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Strs("keys", names).Msg("failed to delete credentials")
		return false
	}
	return true
}
