package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mooyang-code/tem-client/internal/scheduler"
	"github.com/mooyang-code/tem-client/internal/types"
	"github.com/mooyang-code/tem-client/pkg/tem"
)

// 环境变量覆盖项
const (
	EnvAPIKey   = "TEM_API_KEY"
	EnvBaseURL  = "TEM_BASE_URL"
	EnvLogLevel = "TEM_LOG_LEVEL"
	EnvLogFile  = "TEM_LOG_FILE"
)

// DefaultConfigPath 默认配置文件路径
const DefaultConfigPath = "config/config.yaml"

// LoadConfig 从YAML文件加载配置。未出现在文件中的字段保留默认值，随后应用 .env 和环境变量覆盖。
func LoadConfig(configPath string) (*types.Config, error) {
	// 如果未指定配置文件路径，使用默认路径
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	// 检查文件是否存在
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.Errorf("配置文件不存在: %s", configPath)
	}

	// 读取文件内容
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "读取配置文件失败")
	}

	// 解析YAML，文件中未出现的字段保留默认值
	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "解析配置文件失败")
	}

	// 环境变量覆盖
	if err := LoadDotEnv(filepath.Join(filepath.Dir(configPath), ".env")); err != nil {
		return nil, err
	}
	ApplyEnvOverrides(config)

	// 验证配置
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "配置验证失败")
	}
	return config, nil
}

// LoadDotEnv 加载 .env 文件，文件不存在时忽略。已存在的环境变量不会被覆盖。
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "加载环境变量文件失败: %s", path)
	}
	return nil
}

// ApplyEnvOverrides 使用 TEM_* 环境变量覆盖配置
func ApplyEnvOverrides(config *types.Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		config.API.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		config.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		config.App.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		config.App.LogFile.Enabled = true
		config.App.LogFile.Path = v
	}
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// validateConfig 验证配置的有效性
func validateConfig(config *types.Config) error {
	// 验证应用配置
	if config.App.Name == "" {
		return errors.New("应用名称不能为空")
	}
	if !logLevels[config.App.LogLevel] {
		return errors.Errorf("未知的日志级别: %s", config.App.LogLevel)
	}
	if config.App.LogFile.Enabled && config.App.LogFile.Path == "" {
		return errors.New("日志文件路径不能为空")
	}

	// 验证API配置
	if err := config.API.Validate(); err != nil {
		return errors.Wrap(err, "API配置无效")
	}

	// 验证观察任务配置
	if config.Watch.Enabled {
		if config.Watch.Timeout < 0 {
			return errors.New("任务超时不能为负数")
		}
		seen := make(map[string]bool, len(config.Watch.Jobs))
		for i, job := range config.Watch.Jobs {
			if job.Name == "" {
				return errors.Errorf("第%d个任务名称不能为空", i+1)
			}
			if seen[job.Name] {
				return errors.Errorf("任务名称重复: %s", job.Name)
			}
			seen[job.Name] = true
			if !job.Kind.Valid() {
				return errors.Errorf("第%d个任务的类型无效: %s", i+1, job.Kind)
			}
			if job.Kind == types.WatchKindBalance && job.Address == "" {
				return errors.Errorf("第%d个任务缺少账户地址", i+1)
			}
			if job.Status != "" && !tem.OrderStatus(job.Status).Valid() {
				return errors.Errorf("第%d个任务的订单状态无效: %s", i+1, job.Status)
			}
			if job.Cron == "" {
				return errors.Errorf("第%d个任务的Cron表达式不能为空", i+1)
			}
			if err := scheduler.ValidateCron(job.Cron); err != nil {
				return errors.Wrapf(err, "第%d个任务的Cron表达式无效", i+1)
			}
		}
	}
	return nil
}

// SaveConfig 保存配置到文件
func SaveConfig(config *types.Config, configPath string) error {
	// 确保目录存在
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "创建配置目录失败")
	}

	// 序列化为YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "序列化配置失败")
	}

	// 写入文件，配置中可能包含API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.Wrap(err, "写入配置文件失败")
	}
	return nil
}

// GetDefaultConfig 获取默认配置
func GetDefaultConfig() *types.Config {
	return &types.Config{
		App: types.AppConfig{
			Name:     "temctl",
			Version:  "1.0.0",
			LogLevel: "info",
			LogFile: types.LogFileConfig{
				Enabled:    false,
				Path:       "./logs/temctl.log",
				MaxSizeMB:  100,
				MaxBackups: 5,
				MaxAgeDays: 30,
				Compress:   true,
			},
		},
		API: *tem.DefaultConfig(),
		Watch: types.WatchConfig{
			Enabled: true,
			Timeout: 30 * time.Second,
			Jobs: []types.JobConfig{
				{Name: "api_status", Kind: types.WatchKindStatus, Cron: "*/30 * * * * *"},
				{Name: "market_info", Kind: types.WatchKindMarketInfo, Cron: "0 * * * * *"},
			},
		},
	}
}
