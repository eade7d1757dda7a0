package httpclient

import (
	"time"
)

const defaultUserAgent = "tem-client/1.0.0"

// DefaultConfig 返回默认配置
func DefaultConfig(name string) *Config {
	return &Config{
		Name:      name,
		UserAgent: defaultUserAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
		RateLimit: DefaultRateLimitConfig(),
		Transport: DefaultTransportConfig(),
		Debug:     false,
	}
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Enabled:       true,
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      4 * time.Second,
		BackoffFactor: 2.0,
	}
}

// DefaultRateLimitConfig 返回默认速率限制配置
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 300,
		Burst:             10,
	}
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       10,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		DisableKeepAlives:     false,
		DisableCompression:    false,
	}
}

// Validate 验证配置，缺省字段补齐为 Default* 中的默认值
func (c *Config) Validate() error {
	defaults := DefaultConfig("httpclient")
	if c.Name == "" {
		c.Name = defaults.Name
	}

	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}

	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}

	if c.Retry == nil {
		c.Retry = defaults.Retry
	}

	if c.RateLimit == nil {
		c.RateLimit = defaults.RateLimit
	}

	if c.Transport == nil {
		c.Transport = defaults.Transport
	}

	// 验证重试配置
	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if c.Retry.InitialDelay <= 0 {
		c.Retry.InitialDelay = defaults.Retry.InitialDelay
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = defaults.Retry.MaxDelay
	}
	if c.Retry.BackoffFactor < 1 {
		c.Retry.BackoffFactor = defaults.Retry.BackoffFactor
	}

	// 验证速率限制配置
	if c.RateLimit.RequestsPerMinute < 1 {
		c.RateLimit.RequestsPerMinute = defaults.RateLimit.RequestsPerMinute
	}
	if c.RateLimit.Burst < 1 {
		c.RateLimit.Burst = defaults.RateLimit.Burst
	}

	// 验证传输配置
	if c.Transport.MaxIdleConns < 1 {
		c.Transport.MaxIdleConns = defaults.Transport.MaxIdleConns
	}
	if c.Transport.MaxIdleConnsPerHost < 1 {
		c.Transport.MaxIdleConnsPerHost = defaults.Transport.MaxIdleConnsPerHost
	}
	if c.Transport.MaxConnsPerHost < 1 {
		c.Transport.MaxConnsPerHost = defaults.Transport.MaxConnsPerHost
	}
	if c.Transport.IdleConnTimeout <= 0 {
		c.Transport.IdleConnTimeout = defaults.Transport.IdleConnTimeout
	}
	if c.Transport.TLSHandshakeTimeout <= 0 {
		c.Transport.TLSHandshakeTimeout = defaults.Transport.TLSHandshakeTimeout
	}
	if c.Transport.ResponseHeaderTimeout <= 0 {
		c.Transport.ResponseHeaderTimeout = defaults.Transport.ResponseHeaderTimeout
	}
	return nil
}

// Merge 合并配置，other中的非零值覆盖当前配置，返回新的配置
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // 复制当前配置
	if other.Name != "" {
		result.Name = other.Name
	}
	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	result.Debug = result.Debug || other.Debug

	// 合并重试配置
	if other.Retry != nil {
		merged := RetryConfig{}
		if result.Retry != nil {
			merged = *result.Retry
		}
		merged.Enabled = other.Retry.Enabled
		if other.Retry.MaxAttempts > 0 {
			merged.MaxAttempts = other.Retry.MaxAttempts
		}
		if other.Retry.InitialDelay > 0 {
			merged.InitialDelay = other.Retry.InitialDelay
		}
		if other.Retry.MaxDelay > 0 {
			merged.MaxDelay = other.Retry.MaxDelay
		}
		if other.Retry.BackoffFactor > 0 {
			merged.BackoffFactor = other.Retry.BackoffFactor
		}
		result.Retry = &merged
	}

	// 合并速率限制配置
	if other.RateLimit != nil {
		merged := RateLimitConfig{}
		if result.RateLimit != nil {
			merged = *result.RateLimit
		}
		merged.Enabled = other.RateLimit.Enabled
		if other.RateLimit.RequestsPerMinute > 0 {
			merged.RequestsPerMinute = other.RateLimit.RequestsPerMinute
		}
		if other.RateLimit.Burst > 0 {
			merged.Burst = other.RateLimit.Burst
		}
		result.RateLimit = &merged
	}

	// 合并传输配置
	if other.Transport != nil {
		merged := TransportConfig{}
		if result.Transport != nil {
			merged = *result.Transport
		}
		if other.Transport.MaxIdleConns > 0 {
			merged.MaxIdleConns = other.Transport.MaxIdleConns
		}
		if other.Transport.MaxIdleConnsPerHost > 0 {
			merged.MaxIdleConnsPerHost = other.Transport.MaxIdleConnsPerHost
		}
		if other.Transport.MaxConnsPerHost > 0 {
			merged.MaxConnsPerHost = other.Transport.MaxConnsPerHost
		}
		if other.Transport.IdleConnTimeout > 0 {
			merged.IdleConnTimeout = other.Transport.IdleConnTimeout
		}
		if other.Transport.TLSHandshakeTimeout > 0 {
			merged.TLSHandshakeTimeout = other.Transport.TLSHandshakeTimeout
		}
		if other.Transport.ResponseHeaderTimeout > 0 {
			merged.ResponseHeaderTimeout = other.Transport.ResponseHeaderTimeout
		}
		merged.DisableKeepAlives = other.Transport.DisableKeepAlives
		merged.DisableCompression = other.Transport.DisableCompression
		result.Transport = &merged
	}
	return &result
}
