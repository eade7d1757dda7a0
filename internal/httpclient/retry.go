package httpclient

import (
	"context"
	"errors"
	"math"
	"net"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryHandler 重试处理器
type RetryHandler struct {
	config *RetryConfig
	name   string
}

// NewRetryHandler 创建重试处理器
func NewRetryHandler(config *RetryConfig, name string) *RetryHandler {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryHandler{
		config: config,
		name:   name,
	}
}

// Execute 执行带重试的操作
func (r *RetryHandler) Execute(ctx context.Context, operation func() error, onRetry func(attempt int, err error)) error {
	if !r.config.Enabled {
		return operation()
	}

	return retry.Do(
		operation,
		retry.Context(ctx),
		retry.RetryIf(r.isRetryableError),
		retry.Attempts(uint(r.config.MaxAttempts)),
		retry.LastErrorOnly(true),
		retry.DelayType(r.backoffDelay),
		retry.Delay(r.config.InitialDelay),
		retry.MaxDelay(r.config.MaxDelay),
		retry.OnRetry(func(n uint, err error) {
			if onRetry != nil {
				onRetry(int(n+1), err)
			}
		}),
	)
}

// backoffDelay 第n次重试前的等待时间：InitialDelay * BackoffFactor^n，不超过MaxDelay
func (r *RetryHandler) backoffDelay(n uint, _ error, _ *retry.Config) time.Duration {
	factor := math.Max(r.config.BackoffFactor, 1)
	delay := float64(r.config.InitialDelay) * math.Pow(factor, float64(n))
	if r.config.MaxDelay > 0 && delay > float64(r.config.MaxDelay) {
		return r.config.MaxDelay
	}
	return time.Duration(delay)
}

// isRetryableError 判断错误是否可重试
func (r *RetryHandler) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// ClassifyError 分类错误类型
func ClassifyError(err error) *HTTPError {
	if err == nil {
		return nil
	}

	// 如果已经是HTTPError，直接返回
	var existing *HTTPError
	if errors.As(err, &existing) {
		return existing
	}

	errStr := strings.ToLower(err.Error())
	httpErr := &HTTPError{
		Type:      ErrorTypeUnknown,
		Message:   "request failed",
		Retryable: false,
		Cause:     err,
	}

	// 调用方取消不重试
	if errors.Is(err, context.Canceled) {
		httpErr.Type = ErrorTypeNetwork
		return httpErr
	}

	// 分类超时错误
	if errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		httpErr.Type = ErrorTypeTimeout
		httpErr.Retryable = true
		return httpErr
	}

	// 分类网络错误
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "eof") {
		httpErr.Type = ErrorTypeNetwork
		httpErr.Retryable = true
		return httpErr
	}

	// 分类TLS错误
	if strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "handshake") ||
		strings.Contains(errStr, "certificate") {
		httpErr.Type = ErrorTypeTLS
		httpErr.Retryable = true
		return httpErr
	}

	// 检查网络错误类型
	var netErr net.Error
	if errors.As(err, &netErr) {
		httpErr.Type = ErrorTypeNetwork
		if netErr.Timeout() {
			httpErr.Type = ErrorTypeTimeout
			httpErr.Retryable = true
		}
	}
	return httpErr
}

// NewHTTPError 创建HTTP错误
func NewHTTPError(errorType ErrorType, statusCode int, message, url string, retryable bool, cause error) *HTTPError {
	return &HTTPError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		URL:        url,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsNetworkError 判断是否为网络错误
func IsNetworkError(err error) bool {
	return hasErrorType(err, ErrorTypeNetwork)
}

// IsTimeoutError 判断是否为超时错误
func IsTimeoutError(err error) bool {
	return hasErrorType(err, ErrorTypeTimeout)
}

// IsRateLimitError 判断是否为速率限制错误
func IsRateLimitError(err error) bool {
	return hasErrorType(err, ErrorTypeRateLimit)
}

func hasErrorType(err error, t ErrorType) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Type == t
	}
	return false
}
