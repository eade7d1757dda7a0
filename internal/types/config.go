// Package types 定义命令行工具的配置与数据类型
package types

import (
	"time"

	"github.com/mooyang-code/tem-client/pkg/tem"
)

// Config 主配置结构
type Config struct {
	App   AppConfig   `yaml:"app"`   // 应用配置
	API   tem.Config  `yaml:"api"`   // TEM API配置
	Watch WatchConfig `yaml:"watch"` // 定时观察任务配置
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string        `yaml:"name"`      // 应用名称
	Version  string        `yaml:"version"`   // 应用版本
	LogLevel string        `yaml:"log_level"` // 日志级别
	LogFile  LogFileConfig `yaml:"log_file"`  // 日志文件
}

// LogFileConfig 滚动日志文件配置
type LogFileConfig struct {
	Enabled    bool   `yaml:"enabled"`      // 是否写入文件
	Path       string `yaml:"path"`         // 文件路径
	MaxSizeMB  int    `yaml:"max_size_mb"`  // 单个文件大小上限
	MaxBackups int    `yaml:"max_backups"`  // 保留的旧文件数量
	MaxAgeDays int    `yaml:"max_age_days"` // 旧文件保留天数
	Compress   bool   `yaml:"compress"`     // 是否压缩旧文件
}

// WatchConfig 观察任务配置
type WatchConfig struct {
	Enabled bool          `yaml:"enabled"` // 是否启用
	Timeout time.Duration `yaml:"timeout"` // 单次任务超时
	Jobs    []JobConfig   `yaml:"jobs"`    // 任务列表
}

// JobConfig 任务配置
type JobConfig struct {
	Name    string    `yaml:"name"`    // 任务名称
	Kind    WatchKind `yaml:"kind"`    // 任务类型
	Cron    string    `yaml:"cron"`    // Cron表达式（含秒）
	Address string    `yaml:"address"` // 账户地址，balance必填，orders可选
	Status  string    `yaml:"status"`  // 订单状态过滤，仅orders使用
}
