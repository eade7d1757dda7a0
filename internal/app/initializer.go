// Package app 提供命令行工具的系统初始化与命令执行
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/mooyang-code/tem-client/internal/types"
	"github.com/mooyang-code/tem-client/pkg/tem"
)

// SystemInitializer 系统初始化器
type SystemInitializer struct {
	logger *zap.Logger
	config *types.Config
}

// NewSystemInitializer 创建新的系统初始化器
func NewSystemInitializer(logger *zap.Logger, config *types.Config) *SystemInitializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemInitializer{
		logger: logger,
		config: config,
	}
}

// ValidateConfiguration 验证配置
func (si *SystemInitializer) ValidateConfiguration() error {
	if err := si.config.API.Validate(); err != nil {
		return fmt.Errorf("API配置无效: %w", err)
	}
	if si.config.API.APIKey == "" {
		si.logger.Warn("未配置API key，创建订单需要在请求中提供签名")
	}
	if si.config.Watch.Enabled && len(si.config.Watch.Jobs) == 0 {
		si.logger.Warn("观察任务已启用但未配置任何任务")
	}
	return nil
}

// InitializeSystem 初始化整个系统
func (si *SystemInitializer) InitializeSystem(ctx context.Context) (*SystemComponents, error) {
	si.logger.Info("开始系统初始化...", zap.String("base_url", si.config.API.BaseURL))

	client, err := tem.New(&si.config.API)
	if err != nil {
		return nil, fmt.Errorf("创建TEM客户端失败: %w", err)
	}
	client.SetLogger(si.logger.Named("tem"))

	components := &SystemComponents{
		Client: client,
		Logger: si.logger,
		Config: si.config,
	}

	si.logger.Info("系统初始化完成")
	return components, nil
}

// CheckConnectivity 检查API可用性，失败时按退避策略重试
func (si *SystemInitializer) CheckConnectivity(ctx context.Context, api types.MarketAPI) error {
	si.logger.Info("检查API连接...")

	err := retry.Do(
		func() error {
			return api.CheckStatus(ctx)
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(5*time.Second),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			si.logger.Warn("API连接重试", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return fmt.Errorf("API不可用，已重试3次: %w", err)
	}

	si.logger.Info("API连接检查通过")
	return nil
}

// SystemComponents 系统组件
type SystemComponents struct {
	Client *tem.Client
	Logger *zap.Logger
	Config *types.Config
}

// Shutdown 关闭系统组件
func (sc *SystemComponents) Shutdown() error {
	sc.Logger.Info("正在关闭系统组件...")
	if err := sc.Client.Close(); err != nil {
		sc.Logger.Error("关闭TEM客户端失败", zap.Error(err))
		return err
	}
	sc.Logger.Info("系统关闭完成")
	return nil
}

// GetSystemStatus 获取系统状态
func (sc *SystemComponents) GetSystemStatus() map[string]interface{} {
	status := map[string]interface{}{
		"base_url": sc.Config.API.BaseURL,
		"system": map[string]interface{}{
			"initialized": true,
			"timestamp":   time.Now(),
		},
	}
	if transport, ok := sc.Client.Transport().(*tem.HTTPTransport); ok {
		status["http"] = transport.Status()
	}
	return status
}
