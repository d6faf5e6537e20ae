package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/kochabx/blaze/errors"
	"github.com/kochabx/blaze/log"
	"github.com/kochabx/blaze/store/credential"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// tokenAPI 受保护接口只接受 valid 对应的 token，刷新接口把 refresh 换成 next
type tokenAPI struct {
	mu        sync.Mutex
	valid     string
	refresh   string
	next      [2]string
	refreshes atomic.Int32
	hits      atomic.Int32

	onProtected func(c *gin.Context)
	onRefresh   func(c *gin.Context) bool
}

func (a *tokenAPI) server(t *testing.T) *httptest.Server {
	r := gin.New()
	r.GET("/protected", func(c *gin.Context) {
		a.hits.Add(1)
		if a.onProtected != nil {
			a.onProtected(c)
		}
		a.mu.Lock()
		ok := c.GetHeader(HeaderAuthorization) == "Bearer "+a.valid
		a.mu.Unlock()
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "token expired"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": "ada"})
	})
	r.POST("/auth/refresh", func(c *gin.Context) {
		a.refreshes.Add(1)
		if c.GetHeader(HeaderAuthorization) != "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "unexpected authorization"})
			return
		}
		if a.onRefresh != nil && !a.onRefresh(c) {
			return
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		if body.RefreshToken != a.refresh {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "refresh expired"})
			return
		}
		a.valid, a.refresh = a.next[0], a.next[1]
		c.JSON(http.StatusOK, gin.H{"token": a.next[0], "refreshToken": a.next[1]})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newStore(t *testing.T, access, refresh string) *credential.Store {
	t.Helper()
	s := credential.New(credential.NewMemory(), credential.WithLogger(log.NewWriter(io.Discard)))
	if access != "" {
		require.True(t, s.Set(context.Background(), credential.KindAccess, access))
	}
	if refresh != "" {
		require.True(t, s.Set(context.Background(), credential.KindRefresh, refresh))
	}
	return s
}

func newClient(baseURL string, store TokenStore, opts ...Option) *Client {
	opts = append([]Option{WithLogger(log.NewWriter(io.Discard))}, opts...)
	return New(baseURL, store, opts...)
}

type profile struct {
	Name string `json:"name"`
}

func TestClientInjectsHeaders(t *testing.T) {
	var got http.Header
	r := gin.New()
	r.GET("/me", func(c *gin.Context) {
		got = c.Request.Header.Clone()
		c.JSON(http.StatusOK, gin.H{"name": "ada"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(srv.URL, newStore(t, "t1", ""), WithUserAgent("blaze-test"))
	var p profile
	require.NoError(t, c.Get(context.Background(), "/me", &p))

	assert.Equal(t, "ada", p.Name)
	assert.Equal(t, "Bearer t1", got.Get(HeaderAuthorization))
	assert.Equal(t, "blaze-test", got.Get(HeaderUserAgent))
	assert.Equal(t, ContentTypeJSON, got.Get(HeaderAccept))
	assert.NotEmpty(t, got.Get(HeaderRequestID))
}

func TestClientWithoutToken(t *testing.T) {
	var auth string
	r := gin.New()
	r.POST("/auth/login", func(c *gin.Context) {
		auth = c.GetHeader(HeaderAuthorization)
		c.Status(http.StatusNoContent)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(srv.URL, newStore(t, "", ""))
	require.NoError(t, c.Post(context.Background(), "/auth/login", map[string]string{"phoneNumber": "+15550100"}, nil))
	assert.Empty(t, auth)
}

func TestClientRefreshAndReplay(t *testing.T) {
	api := &tokenAPI{valid: "t0", refresh: "r1", next: [2]string{"t2", "r2"}}
	srv := api.server(t)
	store := newStore(t, "t1", "r1")
	c := newClient(srv.URL, store)

	// t1 已过期，刷新后服务端只认 t2
	var p profile
	require.NoError(t, c.Get(context.Background(), "/protected", &p))

	assert.Equal(t, "ada", p.Name)
	assert.EqualValues(t, 1, api.refreshes.Load())
	assert.EqualValues(t, 2, api.hits.Load())

	access, _ := store.Get(context.Background(), credential.KindAccess)
	refresh, _ := store.Get(context.Background(), credential.KindRefresh)
	assert.Equal(t, "t2", access)
	assert.Equal(t, "r2", refresh)
}

func TestClientKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	r := gin.New()
	r.GET("/protected", func(c *gin.Context) {
		if c.GetHeader(HeaderAuthorization) != "Bearer t2" {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.Status(http.StatusOK)
	})
	r.POST("/auth/refresh", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": "t2"})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	store := newStore(t, "t1", "r1")
	require.NoError(t, newClient(srv.URL, store).Get(context.Background(), "/protected", nil))

	refresh, ok := store.Get(context.Background(), credential.KindRefresh)
	assert.True(t, ok)
	assert.Equal(t, "r1", refresh)
}

func TestClientReplayUnauthorizedIsTerminal(t *testing.T) {
	api := &tokenAPI{valid: "never", refresh: "r1", next: [2]string{"t2", "r2"}}
	srv := api.server(t)
	c := newClient(srv.URL, newStore(t, "t1", "r1"))

	err := c.Get(context.Background(), "/protected", nil)

	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnauthorized, re.StatusCode)
	assert.EqualValues(t, 1, api.refreshes.Load())
	assert.EqualValues(t, 2, api.hits.Load())
}

func TestClientConcurrentUnauthorizedRefreshOnce(t *testing.T) {
	api := &tokenAPI{valid: "t0", refresh: "r1", next: [2]string{"t2", "r2"}}
	api.onRefresh = func(*gin.Context) bool {
		time.Sleep(50 * time.Millisecond)
		return true
	}
	srv := api.server(t)
	c := newClient(srv.URL, newStore(t, "t1", "r1"))

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Get(context.Background(), "/protected", nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, api.refreshes.Load())
}

func TestClientRefreshFailureClearsCredentials(t *testing.T) {
	api := &tokenAPI{valid: "t0", refresh: "other", next: [2]string{"t2", "r2"}}
	srv := api.server(t)
	store := newStore(t, "t1", "r1")
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := newClient(srv.URL, store, WithMetrics(m))
	var expired error
	c.OnRefreshFailure(func(err error) { expired = err })

	err := c.Get(context.Background(), "/protected", nil)

	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "refresh expired", re.Message())
	assert.ErrorIs(t, err, expired)
	_, ok := store.Get(context.Background(), credential.KindAccess)
	assert.False(t, ok)
	_, ok = store.Get(context.Background(), credential.KindRefresh)
	assert.False(t, ok)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.refresh.WithLabelValues("failure")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.retries))
}

func TestClientConcurrentRefreshFailureSharedByAll(t *testing.T) {
	const n = 10
	api := &tokenAPI{valid: "t0", refresh: "other"}
	// 所有请求都带着 t1 到达后才开始返回 401
	var arrived sync.WaitGroup
	arrived.Add(n)
	api.onProtected = func(*gin.Context) {
		arrived.Done()
		arrived.Wait()
	}
	api.onRefresh = func(*gin.Context) bool {
		time.Sleep(50 * time.Millisecond)
		return true
	}
	srv := api.server(t)
	store := newStore(t, "t1", "r1")
	c := newClient(srv.URL, store)
	var failures atomic.Int32
	c.OnRefreshFailure(func(error) { failures.Add(1) })

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Get(context.Background(), "/protected", nil)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		var re *ResponseError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "refresh expired", re.Message())
	}
	assert.EqualValues(t, 1, api.refreshes.Load())
	assert.EqualValues(t, 1, failures.Load())
	_, ok := store.Get(context.Background(), credential.KindAccess)
	assert.False(t, ok)
}

func TestClientRefreshDiscardedAfterClear(t *testing.T) {
	api := &tokenAPI{valid: "t0", refresh: "r1", next: [2]string{"t2", "r2"}}
	store := newStore(t, "t1", "r1")
	// 刷新在途时凭据被清除（登出）
	api.onRefresh = func(*gin.Context) bool {
		store.ClearAll(context.Background())
		return true
	}
	srv := api.server(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := newClient(srv.URL, store, WithMetrics(m))

	err := c.Get(context.Background(), "/protected", nil)

	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnauthorized, re.StatusCode)
	assert.Equal(t, "token expired", re.Message())
	_, ok := store.Get(context.Background(), credential.KindAccess)
	assert.False(t, ok)
	_, ok = store.Get(context.Background(), credential.KindRefresh)
	assert.False(t, ok)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.refresh.WithLabelValues("superseded")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.refresh.WithLabelValues("success")))
	assert.EqualValues(t, 1, api.hits.Load())
}

func TestClientStaleRefreshFailureKeepsNewLogin(t *testing.T) {
	api := &tokenAPI{valid: "t0", refresh: "other"}
	store := newStore(t, "t1", "r1")
	// 刷新在途时用户重新登录
	api.onRefresh = func(*gin.Context) bool {
		store.Set(context.Background(), credential.KindAccess, "fresh")
		store.Set(context.Background(), credential.KindRefresh, "fresh-r")
		return true
	}
	srv := api.server(t)
	c := newClient(srv.URL, store)
	var failed bool
	c.OnRefreshFailure(func(error) { failed = true })

	err := c.Get(context.Background(), "/protected", nil)

	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "token expired", re.Message())
	assert.False(t, failed)
	access, _ := store.Get(context.Background(), credential.KindAccess)
	refresh, _ := store.Get(context.Background(), credential.KindRefresh)
	assert.Equal(t, "fresh", access)
	assert.Equal(t, "fresh-r", refresh)

	// 旧 token 的失败没有被记住，新 token 可以正常刷新
	assert.NoError(t, c.lastFailure("t1"))
}

func TestClientRefreshWithoutToken(t *testing.T) {
	r := gin.New()
	r.GET("/protected", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })
	r.POST("/auth/refresh", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"refreshToken": "r2"}) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	store := newStore(t, "t1", "r1")
	err := newClient(srv.URL, store).Get(context.Background(), "/protected", nil)

	assert.ErrorIs(t, err, ErrRefreshNoToken)
	_, ok := store.Get(context.Background(), credential.KindRefresh)
	assert.False(t, ok)
}

func TestClientNoRefreshTokenReturnsOriginal(t *testing.T) {
	api := &tokenAPI{valid: "t0"}
	srv := api.server(t)
	store := newStore(t, "t1", "")

	err := newClient(srv.URL, store).Get(context.Background(), "/protected", nil)

	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "token expired", re.Message())
	assert.EqualValues(t, 0, api.refreshes.Load())
	// 没有发生刷新，凭据保持原样
	access, _ := store.Get(context.Background(), credential.KindAccess)
	assert.Equal(t, "t1", access)
}

func TestClientReplaysWithRotatedToken(t *testing.T) {
	api := &tokenAPI{valid: "t2", refresh: "r1", next: [2]string{"t3", "r3"}}
	store := newStore(t, "t1", "r1")
	// 模拟请求在途时另一个调用方已经完成了刷新
	api.onProtected = func(c *gin.Context) {
		if c.GetHeader(HeaderAuthorization) == "Bearer t1" {
			store.Set(context.Background(), credential.KindAccess, "t2")
		}
	}
	srv := api.server(t)

	require.NoError(t, newClient(srv.URL, store).Get(context.Background(), "/protected", nil))
	assert.EqualValues(t, 0, api.refreshes.Load())
	assert.EqualValues(t, 2, api.hits.Load())
}

func TestClientLateUnauthorizedReusesRefreshFailure(t *testing.T) {
	api := &tokenAPI{valid: "t0", refresh: "other"}
	arrived := make(chan struct{})
	release := make(chan struct{})
	api.onProtected = func(c *gin.Context) {
		if c.Query("slow") != "" {
			close(arrived)
			<-release
		}
	}
	srv := api.server(t)
	c := newClient(srv.URL, newStore(t, "t1", "r1"))

	late := make(chan error, 1)
	go func() {
		_, err := c.Do(context.Background(), NewRequest(MethodGet, "/protected", nil).SetQuery("slow", "1"), nil)
		late <- err
	}()
	<-arrived

	first := c.Get(context.Background(), "/protected", nil)
	close(release)
	err := <-late

	require.Error(t, first)
	assert.Same(t, first, err)
	assert.EqualValues(t, 1, api.refreshes.Load())
}

func TestClientCallerCancelDoesNotAbortRefresh(t *testing.T) {
	api := &tokenAPI{valid: "t0", refresh: "r1", next: [2]string{"t2", "r2"}}
	started := make(chan struct{})
	release := make(chan struct{})
	api.onRefresh = func(*gin.Context) bool {
		close(started)
		<-release
		return true
	}
	srv := api.server(t)
	store := newStore(t, "t1", "r1")
	c := newClient(srv.URL, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Get(ctx, "/protected", nil) }()

	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool {
		access, _ := store.Get(context.Background(), credential.KindAccess)
		return access == "t2"
	}, time.Second, 10*time.Millisecond)
}

func TestClientNoResponse(t *testing.T) {
	srv := httptest.NewServer(gin.New())
	srv.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	err := newClient(srv.URL, newStore(t, "", ""), WithMetrics(m)).Get(context.Background(), "/rides", nil)

	var nre *NoResponseError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, MethodGet, nre.Method)
	assert.Equal(t, kerrors.KindNoResponse, Normalize(err).Kind)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(MethodGet, "error")))
}

func TestClientTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(200 * time.Millisecond)
		c.Status(http.StatusOK)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	err := newClient(srv.URL, newStore(t, "", ""), WithTimeout(20*time.Millisecond)).Get(context.Background(), "/slow", nil)

	var nre *NoResponseError
	assert.ErrorAs(t, err, &nre)
}

func TestClientSetupError(t *testing.T) {
	var hits atomic.Int32
	r := gin.New()
	r.POST("/rides", func(c *gin.Context) { hits.Add(1) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	err := newClient(srv.URL, newStore(t, "", "")).Post(context.Background(), "/rides", make(chan int), nil)

	var se *SetupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, kerrors.KindSetup, Normalize(err).Kind)
	assert.EqualValues(t, 0, hits.Load())
}

func TestClientMetricsOnSuccess(t *testing.T) {
	api := &tokenAPI{valid: "t0", refresh: "r1", next: [2]string{"t2", "r2"}}
	srv := api.server(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := newClient(srv.URL, newStore(t, "t1", "r1"), WithMetrics(m), WithDebug(true))

	require.NoError(t, c.Get(context.Background(), "/protected", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.refresh.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.retries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(MethodGet, "401")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(MethodGet, "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(MethodPost, "200")))
}

func TestClientDecodeError(t *testing.T) {
	r := gin.New()
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, "not json") })
	srv := httptest.NewServer(r)
	defer srv.Close()

	var p profile
	err := newClient(srv.URL, newStore(t, "", "")).Get(context.Background(), "/me", &p)
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*ResponseError)))
	assert.Equal(t, kerrors.KindUnexpected, Normalize(err).Kind)
}
