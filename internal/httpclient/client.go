package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPClient HTTP客户端实现
type HTTPClient struct {
	config       *Config
	httpClient   *http.Client
	retryHandler *RetryHandler
	limiter      *rate.Limiter
	logger       *zap.Logger

	// 状态管理
	mu             sync.RWMutex
	running        bool
	defaultHeaders map[string]string

	// 统计信息
	stats struct {
		totalRequests   int64
		successRequests int64
		failedRequests  int64
		retryCount      int64
		lastRequest     time.Time
		lastError       string
	}
}

// New 创建新的HTTP客户端
func New(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig("httpclient")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	client := &HTTPClient{
		config:         config,
		defaultHeaders: make(map[string]string),
		running:        true,
		logger:         zap.NewNop(),
	}

	// 初始化HTTP客户端
	client.initHTTPClient()

	// 初始化重试处理器
	client.retryHandler = NewRetryHandler(config.Retry, config.Name)

	// 初始化速率限制
	client.initRateLimit()
	return client, nil
}

// initHTTPClient 初始化HTTP客户端
func (c *HTTPClient) initHTTPClient() {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          c.config.Transport.MaxIdleConns,
		MaxIdleConnsPerHost:   c.config.Transport.MaxIdleConnsPerHost,
		MaxConnsPerHost:       c.config.Transport.MaxConnsPerHost,
		IdleConnTimeout:       c.config.Transport.IdleConnTimeout,
		TLSHandshakeTimeout:   c.config.Transport.TLSHandshakeTimeout,
		ResponseHeaderTimeout: c.config.Transport.ResponseHeaderTimeout,
		DisableKeepAlives:     c.config.Transport.DisableKeepAlives,
		DisableCompression:    c.config.Transport.DisableCompression,
		ForceAttemptHTTP2:     true,
	}

	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   c.config.Timeout,
	}
}

// initRateLimit 初始化速率限制（令牌桶，按每分钟请求数折算）
func (c *HTTPClient) initRateLimit() {
	if !c.config.RateLimit.Enabled {
		return
	}
	perSecond := rate.Limit(float64(c.config.RateLimit.RequestsPerMinute) / 60.0)
	c.limiter = rate.NewLimiter(perSecond, c.config.RateLimit.Burst)
}

// SetLogger 设置日志记录器
func (c *HTTPClient) SetLogger(logger *zap.Logger) {
	if logger == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger.With(zap.String("client", c.config.Name))
}

func (c *HTTPClient) log() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// SetHeaders 设置默认请求头
func (c *HTTPClient) SetHeaders(headers map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, value := range headers {
		c.defaultHeaders[key] = value
	}
}

// GetStatus 获取客户端状态
func (c *HTTPClient) GetStatus() *Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &Status{
		Name:            c.config.Name,
		Running:         c.running,
		LastRequest:     c.stats.lastRequest,
		TotalRequests:   atomic.LoadInt64(&c.stats.totalRequests),
		SuccessRequests: atomic.LoadInt64(&c.stats.successRequests),
		FailedRequests:  atomic.LoadInt64(&c.stats.failedRequests),
		RetryCount:      atomic.LoadInt64(&c.stats.retryCount),
		LastError:       c.stats.lastError,
	}

	// 速率限制状态
	status.RateLimit = &RateLimitStatus{
		Enabled:           c.limiter != nil,
		RequestsPerMinute: c.config.RateLimit.RequestsPerMinute,
	}
	if c.limiter != nil {
		status.RateLimit.Tokens = c.limiter.Tokens()
	}
	return status
}

// Close 关闭客户端
func (c *HTTPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false

	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	c.logger.Info("HTTP client closed")
	return nil
}

func (c *HTTPClient) isRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}
