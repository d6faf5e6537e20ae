package ride

import (
	"context"

	"github.com/kochabx/blaze/core/validator"
	"github.com/kochabx/blaze/errors"
	transport "github.com/kochabx/blaze/transport/http"
)

const (
	pathHistory = "/rides/history"
	pathActive  = "/rides/active"
	pathRequest = "/rides/request"
	pathCancel  = "/rides/cancel"
)

// Client 行程接口，所有响应都包在 {data: ...} 中
type Client struct {
	http *transport.Client
}

func New(c *transport.Client) *Client {
	return &Client{http: c}
}

// History 历史行程，服务端返回 null 时为空切片
func (c *Client) History(ctx context.Context) ([]Ride, error) {
	var resp transport.Envelope[[]Ride]
	if err := c.http.Get(ctx, pathHistory, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []Ride{}, nil
	}
	return resp.Data, nil
}

// Active 进行中的行程，没有时为 nil
func (c *Client) Active(ctx context.Context) (*Ride, error) {
	var resp transport.Envelope[*Ride]
	if err := c.http.Get(ctx, pathActive, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Detail 行程详情
func (c *Client) Detail(ctx context.Context, id string) (*Ride, error) {
	if id == "" {
		return nil, errors.Validation("ride id is required")
	}
	return c.ride(ctx, transport.NewRequest(transport.MethodGet, transport.Path("rides", id), nil))
}

// Request 叫车
func (c *Client) Request(ctx context.Context, in RequestInput) (*Ride, error) {
	if err := validator.Validate.StructCtx(ctx, in); err != nil {
		return nil, err
	}
	return c.ride(ctx, transport.NewRequest(transport.MethodPost, pathRequest, in))
}

// Cancel 取消行程
func (c *Client) Cancel(ctx context.Context, id string) (*Ride, error) {
	if id == "" {
		return nil, errors.Validation("ride id is required")
	}
	body := map[string]string{"rideId": id}
	return c.ride(ctx, transport.NewRequest(transport.MethodPost, pathCancel, body))
}

// Rate 评价行程，rating 取值 1 到 5
func (c *Client) Rate(ctx context.Context, id string, r Rating) (*Ride, error) {
	if id == "" {
		return nil, errors.Validation("ride id is required")
	}
	if err := validator.Validate.StructCtx(ctx, r); err != nil {
		return nil, err
	}
	return c.ride(ctx, transport.NewRequest(transport.MethodPost, transport.Path("rides", id, "rate"), r))
}

func (c *Client) ride(ctx context.Context, req *transport.Request) (*Ride, error) {
	var resp transport.Envelope[*Ride]
	if _, err := c.http.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
