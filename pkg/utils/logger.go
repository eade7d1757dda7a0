package utils

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mooyang-code/tem-client/internal/types"
)

// ParseLogLevel 解析日志级别，未知值按info处理
func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger 创建日志记录器：控制台输出，启用日志文件时同时写入按大小滚动的JSON文件
func NewLogger(app types.AppConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(ParseLogLevel(app.LogLevel))

	config := zap.NewProductionConfig()
	config.Level = level
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Encoding = "console"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if !app.LogFile.Enabled {
		return config.Build()
	}

	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(config.EncoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)
	file := zapcore.NewCore(
		zapcore.NewJSONEncoder(config.EncoderConfig),
		zapcore.AddSync(newRotatingWriter(app.LogFile)),
		level,
	)
	return zap.New(zapcore.NewTee(console, file), zap.AddCaller()), nil
}

// newRotatingWriter 创建滚动日志文件写入器
func newRotatingWriter(cfg types.LogFileConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}
