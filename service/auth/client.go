package auth

import (
	"context"

	"github.com/kochabx/blaze/core/validator"
	"github.com/kochabx/blaze/store/credential"
	transport "github.com/kochabx/blaze/transport/http"
)

const (
	pathLogin         = "/auth/login"
	pathLogout        = "/auth/logout"
	pathVerifyOTP     = "/auth/verify-otp"
	pathResendOTP     = "/auth/resend-otp"
	pathProfile       = "/user/profile"
	pathUpdateProfile = "/user/profile"
)

// Client 认证与用户资料接口
type Client struct {
	http  *transport.Client
	store transport.TokenStore
}

// New 创建认证客户端，store 用于本地登录态检查
func New(c *transport.Client, store transport.TokenStore) *Client {
	return &Client{http: c, store: store}
}

// loginEnvelope 登录接口通常返回裸对象，个别部署会包一层 data
type loginEnvelope struct {
	Session
	Data *Session `json:"data"`
}

// Login 邮箱密码登录。只返回结果，不写入凭据存储。
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if err := validator.Validate.StructCtx(ctx, creds); err != nil {
		return nil, err
	}

	var resp loginEnvelope
	if err := c.http.Post(ctx, pathLogin, creds, &resp); err != nil {
		return nil, err
	}
	if resp.Data != nil && (resp.Data.Token != "" || resp.Data.User != nil || resp.Data.RequiresOTP) {
		return resp.Data, nil
	}
	return &resp.Session, nil
}

// VerifyOTP 校验验证码，返回完整响应
func (c *Client) VerifyOTP(ctx context.Context, req OTPRequest) (*OTPResponse, error) {
	if err := validator.Validate.StructCtx(ctx, req); err != nil {
		return nil, err
	}

	var resp OTPResponse
	if err := c.http.Post(ctx, pathVerifyOTP, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResendOTP 重新发送验证码
func (c *Client) ResendOTP(ctx context.Context, phoneNumber string) error {
	req := struct {
		PhoneNumber string `json:"phoneNumber" validate:"required"`
	}{phoneNumber}
	if err := validator.Validate.StructCtx(ctx, req); err != nil {
		return err
	}
	return c.http.Post(ctx, pathResendOTP, req, nil)
}

// Profile 获取当前用户资料
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var u User
	if err := c.http.Get(ctx, pathProfile, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile 部分更新用户资料，返回更新后的完整资料
func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (*User, error) {
	if err := validator.Validate.StructCtx(ctx, patch); err != nil {
		return nil, err
	}

	var u User
	if err := c.http.Post(ctx, pathUpdateProfile, patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout 通知服务端登出
func (c *Client) Logout(ctx context.Context) error {
	return c.http.Post(ctx, pathLogout, nil, nil)
}

// Revoke 以指定的 access token 通知服务端登出。
// 本地凭据可能已被清除，所以 token 由调用方在清除前取出。
func (c *Client) Revoke(ctx context.Context, token string) error {
	req := transport.NewRequest(transport.MethodPost, pathLogout, nil)
	if token != "" {
		req.SetHeader(transport.HeaderAuthorization, "Bearer "+token)
	}
	_, err := c.http.Do(ctx, req, nil)
	return err
}

// IsAuthenticated 仅检查本地是否存有 access token，不访问服务端
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	_, ok := c.store.Get(ctx, credential.KindAccess)
	return ok
}
