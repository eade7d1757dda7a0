package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader 每个请求携带的追踪ID请求头
const RequestIDHeader = "X-Request-Id"

// DoRequest 发送自定义请求
func (c *HTTPClient) DoRequest(ctx context.Context, req *Request) (*Response, error) {
	if !c.isRunning() {
		return nil, fmt.Errorf("client '%s' is not running", c.config.Name)
	}

	// 检查速率限制
	if err := c.waitRateLimit(ctx, req.URL); err != nil {
		return nil, err
	}

	// 更新统计信息
	atomic.AddInt64(&c.stats.totalRequests, 1)
	c.mu.Lock()
	c.stats.lastRequest = time.Now()
	c.mu.Unlock()

	var response *Response
	operation := func() error {
		resp, err := c.doHTTPRequest(ctx, req)
		if err != nil {
			return err
		}
		response = resp
		return nil
	}

	var err error
	if isIdempotent(req) {
		err = c.retryHandler.Execute(ctx, operation, func(attempt int, err error) {
			atomic.AddInt64(&c.stats.retryCount, 1)
		})
	} else {
		// 非幂等请求只发送一次，避免重复下单
		err = operation()
	}

	if err != nil {
		atomic.AddInt64(&c.stats.failedRequests, 1)
		c.mu.Lock()
		c.stats.lastError = err.Error()
		c.mu.Unlock()
		return nil, err
	}

	atomic.AddInt64(&c.stats.successRequests, 1)
	return response, nil
}

// isIdempotent 判断请求是否允许重试
func isIdempotent(req *Request) bool {
	switch strings.ToUpper(req.Method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// doHTTPRequest 执行实际的HTTP请求
func (c *HTTPClient) doHTTPRequest(ctx context.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	// 准备请求体
	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := sonic.ConfigStd.Marshal(req.Body)
		if err != nil {
			return nil, NewHTTPError(ErrorTypeHTTP, 0, "failed to marshal request body", req.URL, false, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	targetURL := req.URL
	if len(req.Query) > 0 {
		separator := "?"
		if strings.Contains(targetURL, "?") {
			separator = "&"
		}
		targetURL += separator + req.Query.Encode()
	}

	// 创建HTTP请求
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, targetURL, bodyReader)
	if err != nil {
		return nil, NewHTTPError(ErrorTypeHTTP, 0, "failed to create request", targetURL, false, err)
	}

	// 设置请求头
	requestID := newRequestID()
	c.setRequestHeaders(httpReq, req, requestID)

	verbose := c.config.Debug || (req.Options != nil && req.Options.Verbose)
	if verbose {
		c.log().Debug("Sending request",
			zap.String("method", req.Method),
			zap.String("url", targetURL),
			zap.String("request_id", requestID))
	}

	// 发送请求
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		classifiedErr := ClassifyError(err)
		classifiedErr.URL = targetURL
		return nil, classifiedErr
	}
	defer httpResp.Body.Close()

	duration := time.Since(startTime)

	if verbose {
		c.log().Debug("Received response",
			zap.Int("status", httpResp.StatusCode),
			zap.Duration("duration", duration),
			zap.String("request_id", requestID))
	}

	// 读取响应体
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewHTTPError(ErrorTypeNetwork, httpResp.StatusCode, "failed to read response body", targetURL, true, err)
	}

	// 检查HTTP状态码
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		errType := ErrorTypeHTTP
		if httpResp.StatusCode == http.StatusTooManyRequests {
			errType = ErrorTypeRateLimit
		}
		retryable := httpResp.StatusCode >= 500 || httpResp.StatusCode == http.StatusTooManyRequests
		httpErr := NewHTTPError(errType, httpResp.StatusCode,
			fmt.Sprintf("HTTP error %d", httpResp.StatusCode), targetURL, retryable, nil)
		httpErr.Body = respBody
		return nil, httpErr
	}

	// 构建响应对象
	response := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    make(map[string]string),
		Body:       respBody,
		Duration:   duration,
		RequestID:  requestID,
	}

	// 复制响应头
	for key, values := range httpResp.Header {
		if len(values) > 0 {
			response.Headers[key] = values[0]
		}
	}
	return response, nil
}

// setRequestHeaders 设置请求头
func (c *HTTPClient) setRequestHeaders(httpReq *http.Request, req *Request, requestID string) {
	// 设置默认请求头
	c.mu.RLock()
	for key, value := range c.defaultHeaders {
		httpReq.Header.Set(key, value)
	}
	c.mu.RUnlock()

	// 设置用户代理
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	httpReq.Header.Set("Accept", "application/json")

	// 设置内容类型
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if requestID != "" {
		httpReq.Header.Set(RequestIDHeader, requestID)
	}

	// 设置请求特定的头部
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
}

// waitRateLimit 等待速率限制令牌
func (c *HTTPClient) waitRateLimit(ctx context.Context, url string) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return NewHTTPError(ErrorTypeRateLimit, 0,
			fmt.Sprintf("rate limit wait aborted: %d requests per minute", c.config.RateLimit.RequestsPerMinute),
			url, false, err)
	}
	return nil
}

// newRequestID 生成请求追踪ID，生成失败时返回空串
func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}
