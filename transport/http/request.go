package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Request 描述一次逻辑请求。请求体在构造时缓冲，401 刷新后可原样重放。
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header

	body        []byte
	contentType string
	err         error
}

// NewRequest 创建请求，body 为 nil、[]byte、io.Reader 或任意可 JSON 编码的值。
// 编码失败不会立即返回，而是由 Do 以 *SetupError 报告。
func NewRequest(method, path string, body any) *Request {
	r := &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
	}

	switch v := body.(type) {
	case nil:
	case []byte:
		r.body = v
		r.contentType = ContentTypeJSON
	case io.Reader:
		r.body, r.err = io.ReadAll(v)
		r.contentType = ContentTypeJSON
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			r.err = fmt.Errorf("encode request body: %w", err)
			break
		}
		r.body = buf.Bytes()
		r.contentType = ContentTypeJSON
	}
	return r
}

// SetQuery 设置查询参数
func (r *Request) SetQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = make(url.Values)
	}
	r.Query.Set(key, value)
	return r
}

// SetHeader 设置请求头
func (r *Request) SetHeader(key, value string) *Request {
	r.Header.Set(key, value)
	return r
}

// ContentType 返回请求体的类型，无请求体时为空
func (r *Request) ContentType() string {
	return r.contentType
}

// build 生成一次发送用的 *http.Request，每次调用都得到新的 body reader
func (r *Request) build(ctx context.Context, baseURL string) (*http.Request, error) {
	if r.err != nil {
		return nil, r.err
	}

	target := JoinURL(baseURL, r.Path)
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, err
	}

	for k, v := range r.Header {
		req.Header[k] = append([]string(nil), v...)
	}
	req.Header.Set(HeaderAccept, ContentTypeJSON)
	if r.contentType != "" {
		req.Header.Set(HeaderContentType, r.contentType)
	}
	return req, nil
}

// Response 2xx 响应，Body 为服务端原始负载
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode 把响应体 JSON 解码到 dest，空响应体时 dest 不变
func (r *Response) Decode(dest any) error {
	if dest == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Envelope 形如 {"data": T} 的响应。哪些接口带这层包装由各服务自行决定。
type Envelope[T any] struct {
	Data T `json:"data"`
}
