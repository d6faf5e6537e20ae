package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kochabx/blaze/cache"
	"github.com/kochabx/blaze/core/validator"
	"github.com/kochabx/blaze/log"
	"github.com/kochabx/blaze/service/auth"
	"github.com/kochabx/blaze/service/keys"
	"github.com/kochabx/blaze/store/credential"
)

var (
	ErrNoToken          = errors.New("session: server returned no access token")
	ErrNotAuthenticated = errors.New("session: not authenticated")
)

// Store 会话用到的凭据存储，*credential.Store 实现了该接口
type Store interface {
	Get(ctx context.Context, kind credential.Kind) (string, bool)
	Set(ctx context.Context, kind credential.Kind, token string) bool
	User(ctx context.Context, dst any) bool
	SetUser(ctx context.Context, user any) bool
	ClearAll(ctx context.Context) bool
}

// Authenticator 会话用到的认证接口，*auth.Client 实现了该接口
type Authenticator interface {
	Login(ctx context.Context, creds auth.Credentials) (*auth.Session, error)
	VerifyOTP(ctx context.Context, req auth.OTPRequest) (*auth.OTPResponse, error)
	Revoke(ctx context.Context, token string) error
}

// Session 登录态的唯一持有者。
// 状态迁移: Uninitialized -> Loading -> Authenticated | Unauthenticated
type Session struct {
	store  Store
	auth   Authenticator
	cache  *cache.Cache
	logger *log.Logger

	pool          *ants.Pool
	poolSize      int
	notifyTimeout time.Duration
	closeTimeout  time.Duration

	initStarted atomic.Bool
	ready       chan struct{}

	mu     sync.RWMutex
	state  State
	user   *auth.User
	gen    uint64
	subs   map[int]chan Snapshot
	nextID int
	closed bool
}

// New 创建会话，调用 Init 之前状态为 Uninitialized
func New(store Store, authenticator Authenticator, c *cache.Cache, opts ...Option) (*Session, error) {
	s := &Session{
		store:         store,
		auth:          authenticator,
		cache:         c,
		logger:        log.G,
		poolSize:      defaultPoolSize,
		notifyTimeout: defaultNotifyTimeout,
		closeTimeout:  defaultCloseTimeout,
		ready:         make(chan struct{}),
		subs:          make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Component("session")

	pool, err := ants.NewPool(s.poolSize,
		ants.WithNonblocking(true),
		ants.WithLogger(poolLogger{s.logger}),
		ants.WithPanicHandler(func(r any) {
			s.logger.Error().Interface("panic", r).Msg("background task panicked")
		}),
	)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// Init 从凭据存储恢复登录态。只执行一次，并发或重复调用等待同一次结果。
func (s *Session) Init(ctx context.Context) error {
	if s.initStarted.CompareAndSwap(false, true) {
		defer close(s.ready)
		s.restore(ctx)
		return nil
	}
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) restore(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return
	}
	gen := s.setLocked(StateLoading, nil)
	s.mu.Unlock()

	token, hasToken := s.store.Get(ctx, credential.KindAccess)
	var u auth.User
	hasUser := s.store.User(ctx, &u)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	if hasToken && token != "" && hasUser {
		s.setLocked(StateAuthenticated, &u)
		s.cache.SetValue(keys.AuthUser(), s.userCopy())
		s.cache.SetValue(keys.AuthStatus(), true)
		s.logger.Debug().Str("user_id", u.ID).Msg("session restored")
		return
	}
	s.setLocked(StateUnauthenticated, nil)
}

// Login 邮箱密码登录。成功时持久化 token 与用户并返回导航意图；
// 需要 OTP 时不持久化任何内容，返回 ScreenOTP。失败时原样返回错误。
func (s *Session) Login(ctx context.Context, email, password string) (Intent, error) {
	creds := auth.Credentials{Email: email, Password: password}
	if err := validator.Validate.StructCtx(ctx, creds); err != nil {
		return Intent{}, err
	}

	gen := s.transition(StateLoading, nil)
	res, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.settle(gen, StateUnauthenticated, nil)
		return Intent{}, err
	}
	if res.RequiresOTP && res.Token == "" {
		s.settle(gen, StateUnauthenticated, nil)
		return Intent{Screen: ScreenOTP}, nil
	}
	return s.establish(ctx, gen, res)
}

// VerifyOTP 校验验证码，响应带 token 时等同一次成功登录
func (s *Session) VerifyOTP(ctx context.Context, phone, otp string) (Intent, error) {
	gen := s.transition(StateLoading, nil)
	res, err := s.auth.VerifyOTP(ctx, auth.OTPRequest{PhoneNumber: phone, OTP: otp})
	if err != nil {
		s.settle(gen, StateUnauthenticated, nil)
		return Intent{}, err
	}
	return s.establish(ctx, gen, &res.Data)
}

func (s *Session) establish(ctx context.Context, gen uint64, res *auth.Session) (Intent, error) {
	if res.Token == "" {
		s.settle(gen, StateUnauthenticated, nil)
		return Intent{}, ErrNoToken
	}

	if !s.store.Set(ctx, credential.KindAccess, res.Token) {
		s.logger.Warn().Msg("access token not persisted")
	}
	if res.RefreshToken != "" && !s.store.Set(ctx, credential.KindRefresh, res.RefreshToken) {
		s.logger.Warn().Msg("refresh token not persisted")
	}
	if res.User == nil {
		s.logger.Warn().Msg("login response carried no user")
	} else if !s.store.SetUser(ctx, res.User) {
		s.logger.Warn().Msg("user not persisted")
	}

	s.mu.Lock()
	if s.gen == gen {
		s.setLocked(StateAuthenticated, res.User)
		s.cache.SetValue(keys.AuthStatus(), true)
		if res.User != nil {
			s.cache.SetValue(keys.AuthUser(), s.userCopy())
		}
	}
	s.mu.Unlock()

	intent := intentFor(res.User)
	s.logger.Info().Stringer("screen", intent.Screen).Msg("logged in")
	return intent, nil
}

// Logout 清除本地凭据和缓存并转为 Unauthenticated。
// 服务端通知在后台执行，失败被忽略，不阻塞调用方。
func (s *Session) Logout(ctx context.Context) {
	if token, ok := s.store.Get(ctx, credential.KindAccess); ok {
		s.notify(token)
	}
	if !s.store.ClearAll(ctx) {
		s.logger.Warn().Msg("failed to clear credentials")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Clear()
	s.setLocked(StateUnauthenticated, nil)
	s.logger.Info().Msg("logged out")
}

// Expire 刷新失败后强制登出，不再通知服务端
func (s *Session) Expire() {
	s.store.ClearAll(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUnauthenticated {
		return
	}
	s.cache.Clear()
	s.setLocked(StateUnauthenticated, nil)
	s.logger.Warn().Msg("session expired")
}

func (s *Session) notify(token string) {
	err := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.auth.Revoke(ctx, token); err != nil {
			s.logger.Debug().Err(err).Msg("logout notification failed")
		}
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("logout notification dropped")
	}
}

// UpdateUser 把 patch 合并进本地用户，并同步到凭据存储和缓存。不访问服务端。
func (s *Session) UpdateUser(ctx context.Context, patch auth.ProfilePatch) (*auth.User, error) {
	if err := validator.Validate.StructCtx(ctx, patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state != StateAuthenticated || s.user == nil {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	merged := s.user.Merge(patch)
	s.setLocked(StateAuthenticated, &merged)
	s.cache.SetValue(keys.AuthUser(), s.userCopy())
	s.mu.Unlock()

	if !s.store.SetUser(ctx, &merged) {
		s.logger.Warn().Msg("updated user not persisted")
	}
	return &merged, nil
}

// Snapshot 当前状态
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Subscribe 订阅状态变化。通道缓冲为 1，只保留最新的快照；
// 订阅时立即收到当前状态。返回的函数取消订阅并关闭通道。
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.snapshot()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close 关闭所有订阅并等待后台任务结束
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	return s.pool.ReleaseTimeout(s.closeTimeout)
}

func (s *Session) transition(state State, user *auth.User) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(state, user)
}

// settle 只在期间没有其他迁移时生效
func (s *Session) settle(gen uint64, state State, user *auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.setLocked(state, user)
	}
}

func (s *Session) setLocked(state State, user *auth.User) uint64 {
	s.state = state
	s.user = nil
	if user != nil {
		u := *user
		s.user = &u
	}
	s.gen++
	s.publish()
	return s.gen
}

func (s *Session) publish() {
	snap := s.snapshot()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		State:           s.state,
		User:            s.userCopy(),
		IsAuthenticated: s.state == StateAuthenticated,
		IsLoading:       s.state == StateLoading,
	}
}

func (s *Session) userCopy() *auth.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// poolLogger 把 ants 的日志接到 zerolog
type poolLogger struct {
	logger *log.Logger
}

func (l poolLogger) Printf(format string, args ...any) {
	l.logger.Warn().Msgf(format, args...)
}
