package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kochabx/blaze/log"
	"github.com/kochabx/blaze/store/credential"
)

// TokenStore 凭据存储，*credential.Store 实现了该接口
type TokenStore interface {
	Get(ctx context.Context, kind credential.Kind) (string, bool)
	Set(ctx context.Context, kind credential.Kind, token string) bool
	Clear(ctx context.Context) bool
	// Generation 每次 token 被改动时推进，刷新据此丢弃过期的结果
	Generation() uint64
	CompareAndSetTokens(ctx context.Context, gen uint64, access, refresh string) bool
	CompareAndClear(ctx context.Context, gen uint64) bool
}

// Client 远端 API 的传输层：注入 bearer token，401 时单飞刷新并重放一次，
// 其余失败以 *ResponseError / *NoResponseError / *SetupError 返回。
type Client struct {
	baseURL        string
	store          TokenStore
	http           *http.Client
	timeout        time.Duration
	refreshTimeout time.Duration
	refreshPath    string
	userAgent      string
	logger         *log.Logger
	debug          bool
	metrics        *Metrics

	flight singleflight.Group

	mu        sync.Mutex
	failed    refreshFailure
	onFailure func(error)
}

// New 创建传输层客户端
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		store:       store,
		timeout:     defaultTimeout,
		refreshPath: defaultRefreshPath,
		userAgent:   defaultUserAgent,
		logger:      log.G,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := &http.Client{}
	if c.http != nil {
		copied := *c.http
		hc = &copied
	}
	if hc.Timeout == 0 {
		hc.Timeout = c.timeout
	}
	c.http = hc
	if c.refreshTimeout == 0 {
		c.refreshTimeout = c.timeout
	}
	c.logger = c.logger.Component("transport")
	return c
}

// OnRefreshFailure 注册刷新失败回调，在凭据清除之后调用
func (c *Client) OnRefreshFailure(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = fn
}

// BaseURL 返回远端 API 的根地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// pending 一次逻辑请求的状态，retried 保证 401 恢复至多一次
type pending struct {
	req     *Request
	token   string
	retried bool
}

// Do 发送请求，2xx 时把响应体解码到 dest（dest 可为 nil）。
//
// 状态流转:
//
//	INIT -> DISPATCHED -> SUCCEEDED | FAILED_OTHER | FAILED_401
//	FAILED_401 -> REFRESHING -> REPLAY_DISPATCHED -> SUCCEEDED | FAILED_OTHER
//	                         -> REFRESH_FAILED
//
// 重放的请求再次收到 401 时直接返回。
func (c *Client) Do(ctx context.Context, req *Request, dest any) (*Response, error) {
	p := &pending{req: req}
	p.token, _ = c.store.Get(ctx, credential.KindAccess)

	for {
		resp, err := c.dispatch(ctx, p)
		if err == nil {
			return resp, resp.Decode(dest)
		}
		if p.retried || !isUnauthorized(err) {
			return nil, err
		}

		p.retried = true
		token, err := c.recover(ctx, p.token, err)
		if err != nil {
			return nil, err
		}
		c.metrics.retried()
		p.token = token
	}
}

func isUnauthorized(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.Unauthorized()
}

func (c *Client) dispatch(ctx context.Context, p *pending) (*Response, error) {
	hreq, err := p.req.build(ctx, c.baseURL)
	if err != nil {
		return nil, &SetupError{Err: err}
	}
	if p.token != "" {
		hreq.Header.Set(HeaderAuthorization, "Bearer "+p.token)
	}
	return c.send(hreq)
}

// send 发出请求并读完响应体，不做任何 401 处理
func (c *Client) send(hreq *http.Request) (*Response, error) {
	id := uuid.NewString()
	hreq.Header.Set(HeaderRequestID, id)
	if c.userAgent != "" {
		hreq.Header.Set(HeaderUserAgent, c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		c.metrics.observe(hreq.Method, 0, time.Since(start))
		c.logger.Debug().Str("request_id", id).Str("method", hreq.Method).Str("path", hreq.URL.Path).Err(err).Msg("no response")
		return nil, &NoResponseError{Method: hreq.Method, URL: hreq.URL.Redacted(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		c.metrics.observe(hreq.Method, 0, duration)
		return nil, &NoResponseError{Method: hreq.Method, URL: hreq.URL.Redacted(), Err: err}
	}
	c.metrics.observe(hreq.Method, resp.StatusCode, duration)

	if c.debug {
		c.logger.Debug().
			Str("request_id", id).
			Str("method", hreq.Method).
			Str("path", hreq.URL.Path).
			Int("status", resp.StatusCode).
			Dur("duration", duration).
			Msg("request")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Get 发送 GET 请求
func (c *Client) Get(ctx context.Context, path string, dest any) error {
	_, err := c.Do(ctx, NewRequest(MethodGet, path, nil), dest)
	return err
}

// Post 发送 JSON POST 请求
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	_, err := c.Do(ctx, NewRequest(MethodPost, path, body), dest)
	return err
}

// Put 发送 JSON PUT 请求
func (c *Client) Put(ctx context.Context, path string, body, dest any) error {
	_, err := c.Do(ctx, NewRequest(MethodPut, path, body), dest)
	return err
}

// Patch 发送 JSON PATCH 请求
func (c *Client) Patch(ctx context.Context, path string, body, dest any) error {
	_, err := c.Do(ctx, NewRequest(MethodPatch, path, body), dest)
	return err
}

// Delete 发送 DELETE 请求
func (c *Client) Delete(ctx context.Context, path string, dest any) error {
	_, err := c.Do(ctx, NewRequest(MethodDelete, path, nil), dest)
	return err
}
