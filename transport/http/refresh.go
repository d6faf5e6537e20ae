package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kochabx/blaze/store/credential"
)

const refreshKey = "refresh"

// refreshFailure 最近一次失败的刷新：由哪个 access token 触发，以及失败原因。
// 同一 token 的 401 迟到时直接得到这个结果，不会再发起刷新。
type refreshFailure struct {
	token string
	err   error
}

type tokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// recover 等待（或发起）唯一的刷新，返回重放用的 access token。
// 没有 refresh token 时返回原始的 401 错误。
// 调用方 ctx 结束只会停止等待，刷新本身继续完成。
func (c *Client) recover(ctx context.Context, sent string, unauthorized error) (string, error) {
	ch := c.flight.DoChan(refreshKey, func() (any, error) {
		return c.refresh(ctx, sent)
	})

	select {
	case res := <-ch:
		if errors.Is(res.Err, errNoRefreshToken) || errors.Is(res.Err, errRefreshSuperseded) {
			return "", unauthorized
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refresh 在单飞组内执行，同一时刻至多一个。
// 结果只在凭据代数未变时提交：刷新途中登出或重新登录，结果整体丢弃，
// 既不写回 token，也不清除凭据或触发失败回调。
func (c *Client) refresh(parent context.Context, sent string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.refreshTimeout)
	defer cancel()

	gen := c.store.Generation()

	// 发送时用的 token 已经被轮换：直接用当前 token 重放
	if current, ok := c.store.Get(ctx, credential.KindAccess); ok && current != sent {
		return current, nil
	}
	if err := c.lastFailure(sent); err != nil {
		return "", err
	}

	refreshToken, ok := c.store.Get(ctx, credential.KindRefresh)
	if !ok {
		return "", errNoRefreshToken
	}

	pair, err := c.requestTokens(ctx, refreshToken)
	if err != nil {
		if !c.store.CompareAndClear(ctx, gen) {
			c.metrics.refreshed("superseded")
			c.logger.Info().Err(err).Msg("credentials changed during refresh, discarding failure")
			return "", errRefreshSuperseded
		}
		c.metrics.refreshed("failure")
		c.logger.Warn().Err(err).Msg("token refresh failed, credentials cleared")
		c.recordFailure(sent, err)
		c.notifyFailure(err)
		return "", err
	}

	if !c.store.CompareAndSetTokens(ctx, gen, pair.Token, pair.RefreshToken) {
		c.metrics.refreshed("superseded")
		c.logger.Info().Msg("credentials changed during refresh, discarding tokens")
		return "", errRefreshSuperseded
	}
	c.metrics.refreshed("success")
	c.logger.Info().Msg("access token refreshed")
	return pair.Token, nil
}

// requestTokens 直接调用刷新接口，不注入 Authorization，也不做 401 处理
func (c *Client) requestTokens(ctx context.Context, refreshToken string) (*tokenPair, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, &SetupError{Err: err}
	}
	hreq, err := http.NewRequestWithContext(ctx, MethodPost, JoinURL(c.baseURL, c.refreshPath), bytes.NewReader(body))
	if err != nil {
		return nil, &SetupError{Err: err}
	}
	hreq.Header.Set(HeaderContentType, ContentTypeJSON)
	hreq.Header.Set(HeaderAccept, ContentTypeJSON)

	resp, err := c.send(hreq)
	if err != nil {
		return nil, err
	}

	pair := new(tokenPair)
	if err := resp.Decode(pair); err != nil {
		return nil, err
	}
	if pair.Token == "" {
		return nil, ErrRefreshNoToken
	}
	return pair, nil
}

func (c *Client) lastFailure(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed.err != nil && c.failed.token == token {
		return c.failed.err
	}
	return nil
}

func (c *Client) recordFailure(token string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = refreshFailure{token: token, err: err}
}

func (c *Client) notifyFailure(err error) {
	c.mu.Lock()
	fn := c.onFailure
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
