package tem

import (
	"context"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/mooyang-code/tem-client/internal/httpclient"
)

// Transport 执行单次网络调用并返回原始JSON响应体
type Transport interface {
	Request(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error)
}

// TransportFunc 函数形式的Transport
type TransportFunc func(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error)

// Request 实现Transport
func (f TransportFunc) Request(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	return f(ctx, method, path, query, body)
}

// HTTPTransport 基于httpclient的Transport实现
type HTTPTransport struct {
	baseURL string
	client  httpclient.Client
	verbose atomic.Bool
}

// NewHTTPTransport 创建HTTP传输层
func NewHTTPTransport(baseURL string, client httpclient.Client) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Request 实现Transport，失败时返回*TransportError
func (t *HTTPTransport) Request(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	resp, err := t.client.DoRequest(ctx, &httpclient.Request{
		Method:  method,
		URL:     t.baseURL + path,
		Query:   query,
		Body:    body,
		Options: &httpclient.RequestOptions{Verbose: t.verbose.Load()},
	})
	if err != nil {
		return nil, newTransportError(method, path, err)
	}
	return resp.Body, nil
}

// SetVerbose 开启后每个请求以Debug级别记录请求与响应摘要
func (t *HTTPTransport) SetVerbose(verbose bool) {
	t.verbose.Store(verbose)
}

// Close 关闭底层HTTP客户端
func (t *HTTPTransport) Close() error {
	return t.client.Close()
}

// Status 返回底层HTTP客户端的统计信息
func (t *HTTPTransport) Status() *httpclient.Status {
	return t.client.GetStatus()
}
