package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newTestClient 创建使用快速重试参数的测试客户端
func newTestClient(t *testing.T) Client {
	t.Helper()
	config := DefaultConfig("test")
	config.Retry.InitialDelay = time.Millisecond
	config.Retry.MaxDelay = 5 * time.Millisecond
	config.RateLimit.Enabled = false

	client, err := New(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// TestNewHTTPClient 测试创建HTTP客户端
func TestNewHTTPClient(t *testing.T) {
	client, err := New(DefaultConfig("test"))
	require.NoError(t, err)
	defer client.Close()

	status := client.GetStatus()
	assert.Equal(t, "test", status.Name)
	assert.True(t, status.Running)
	require.NotNil(t, status.RateLimit)
	assert.True(t, status.RateLimit.Enabled)
}

// TestHTTPGetRequest 测试GET请求
func TestHTTPGetRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/info", r.URL.Path)
		_, _ = w.Write([]byte(`{"address":"TXYZ"}`))
	}))
	defer server.Close()

	client := newTestClient(t)
	resp, err := client.DoRequest(context.Background(), &Request{Method: http.MethodGet, URL: server.URL + "/info"})
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body, &result))
	assert.Equal(t, "TXYZ", result["address"])

	status := client.GetStatus()
	assert.EqualValues(t, 1, status.TotalRequests)
	assert.EqualValues(t, 1, status.SuccessRequests)
	assert.EqualValues(t, 0, status.FailedRequests)
}

// TestHTTPPostRequest 测试POST请求体与请求头
func TestHTTPPostRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"address":"TXYZ","amount":10}`, string(body))
		_, _ = w.Write([]byte(`{"order":42}`))
	}))
	defer server.Close()

	client := newTestClient(t)
	client.SetHeaders(map[string]string{"X-Test": "yes"})

	body := map[string]interface{}{"address": "TXYZ", "amount": 10}
	resp, err := client.DoRequest(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    server.URL + "/order/new",
		Body:   body,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"order":42}`, string(resp.Body))
}

// TestCustomRequestQuery 测试查询参数拼接
func TestCustomRequestQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("skip"))
		assert.Equal(t, "Pending", r.URL.Query().Get("status"))
		assert.Equal(t, "1", r.URL.Query().Get("v"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(t)
	query := url.Values{}
	query.Set("skip", "100")
	query.Set("status", "Pending")

	resp, err := client.DoRequest(context.Background(), &Request{
		Method: http.MethodGet,
		URL:    server.URL + "/order/list?v=1",
		Query:  query,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", string(resp.Body))
	assert.NotEmpty(t, resp.RequestID)
}

// TestErrorStatusKeepsBody 测试非2xx响应的错误分类
func TestErrorStatusKeepsBody(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		expected  ErrorType
		retryable bool
	}{
		{name: "400错误", status: http.StatusBadRequest, expected: ErrorTypeHTTP, retryable: false},
		{name: "404错误", status: http.StatusNotFound, expected: ErrorTypeHTTP, retryable: false},
		{name: "429错误", status: http.StatusTooManyRequests, expected: ErrorTypeRateLimit, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"bad"}`))
			}))
			defer server.Close()

			config := DefaultConfig("test")
			config.Retry.Enabled = false
			config.RateLimit.Enabled = false
			client, err := New(config)
			require.NoError(t, err)
			defer client.Close()

			_, err = client.DoRequest(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.expected, httpErr.Type)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.retryable, httpErr.Retryable)
			assert.JSONEq(t, `{"error":"bad"}`, string(httpErr.Body))
		})
	}
}

// TestRetryIdempotentRequest 测试GET请求在服务端错误时重试
func TestRetryIdempotentRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t)
	_, err := client.DoRequest(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 2, client.GetStatus().RetryCount)
}

// TestNoRetryForPost 测试POST请求不重试
func TestNoRetryForPost(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t)
	_, err := client.DoRequest(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Body:   map[string]string{"a": "b"},
	})
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 1, client.GetStatus().FailedRequests)
}

// TestRateLimit 测试速率限制
func TestRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	config := DefaultConfig("test")
	config.RateLimit.RequestsPerMinute = 1
	config.RateLimit.Burst = 1
	client, err := New(config)
	require.NoError(t, err)
	defer client.Close()

	// 第一个请求消耗唯一的令牌
	_, err = client.DoRequest(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	require.NoError(t, err)

	// 第二个请求需要等待约一分钟，超时上下文应立即失败
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.DoRequest(ctx, &Request{Method: http.MethodGet, URL: server.URL})
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))
}

// TestClosedClient 测试关闭后的客户端拒绝请求
func TestClosedClient(t *testing.T) {
	client, err := New(DefaultConfig("test"))
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	assert.False(t, client.GetStatus().Running)
	_, err = client.DoRequest(context.Background(), &Request{Method: http.MethodGet, URL: "http://127.0.0.1:1"})
	assert.Error(t, err)
}

// TestClassifyError 测试错误分类
func TestClassifyError(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))

	timeoutErr := ClassifyError(context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, timeoutErr.Type)
	assert.True(t, timeoutErr.Retryable)
	assert.True(t, IsTimeoutError(timeoutErr))

	refused := ClassifyError(errors.New("dial tcp 127.0.0.1:1: connect: connection refused"))
	assert.Equal(t, ErrorTypeNetwork, refused.Type)
	assert.True(t, IsNetworkError(refused))

	canceled := ClassifyError(context.Canceled)
	assert.False(t, canceled.Retryable)

	original := NewHTTPError(ErrorTypeHTTP, 500, "boom", "", true, nil)
	assert.Same(t, original, ClassifyError(original))
}

// TestConfigValidation 测试配置验证
func TestConfigValidation(t *testing.T) {
	config := &Config{}
	require.NoError(t, config.Validate())

	assert.NotEmpty(t, config.Name)
	assert.Equal(t, defaultUserAgent, config.UserAgent)
	assert.Greater(t, config.Timeout, time.Duration(0))
	require.NotNil(t, config.Retry)
	require.NotNil(t, config.RateLimit)
	require.NotNil(t, config.Transport)
	assert.Equal(t, 300, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, 10, config.RateLimit.Burst)
	assert.Equal(t, 2.0, config.Retry.BackoffFactor)

	// 显式给出但未填写的块与缺省块得到相同的默认值
	partial := &Config{
		Retry:     &RetryConfig{Enabled: true},
		RateLimit: &RateLimitConfig{Enabled: true},
	}
	require.NoError(t, partial.Validate())
	assert.Equal(t, *DefaultRateLimitConfig(), *partial.RateLimit)
	assert.Equal(t, *DefaultRetryConfig(), *partial.Retry)
}

// TestBackoffDelay 测试退避时间按倍数增长并受最大值限制
func TestBackoffDelay(t *testing.T) {
	handler := NewRetryHandler(&RetryConfig{
		Enabled:       true,
		MaxAttempts:   5,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 3,
	}, "test")

	assert.Equal(t, 100*time.Millisecond, handler.backoffDelay(0, nil, nil))
	assert.Equal(t, 300*time.Millisecond, handler.backoffDelay(1, nil, nil))
	assert.Equal(t, 900*time.Millisecond, handler.backoffDelay(2, nil, nil))
	assert.Equal(t, time.Second, handler.backoffDelay(3, nil, nil))
}

// TestVerboseRequestLogging 测试单个请求开启详细日志
func TestVerboseRequestLogging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	client := newTestClient(t)
	client.SetLogger(zap.New(core))

	_, err := client.DoRequest(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("Sending request").Len())

	_, err = client.DoRequest(context.Background(), &Request{
		Method:  http.MethodGet,
		URL:     server.URL,
		Options: &RequestOptions{Verbose: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Sending request").Len())
	assert.Equal(t, 1, logs.FilterMessage("Received response").Len())
}

// TestConfigMerge 测试配置合并不修改原配置
func TestConfigMerge(t *testing.T) {
	base := DefaultConfig("base")
	merged := base.Merge(&Config{
		Timeout: 5 * time.Second,
		Retry:   &RetryConfig{Enabled: false, MaxAttempts: 7},
		RateLimit: &RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
		},
	})

	assert.Equal(t, "base", merged.Name)
	assert.Equal(t, 5*time.Second, merged.Timeout)
	assert.False(t, merged.Retry.Enabled)
	assert.Equal(t, 7, merged.Retry.MaxAttempts)
	assert.Equal(t, base.Retry.InitialDelay, merged.Retry.InitialDelay)
	assert.Equal(t, 10, merged.RateLimit.RequestsPerMinute)

	// 原配置保持不变
	assert.True(t, base.Retry.Enabled)
	assert.Equal(t, 3, base.Retry.MaxAttempts)
	assert.Same(t, base, base.Merge(nil))
}

// TestStatusJSON 测试状态可序列化
func TestStatusJSON(t *testing.T) {
	client := newTestClient(t)
	data, err := json.Marshal(client.GetStatus())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"test"`)
}
