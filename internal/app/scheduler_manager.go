package app

import (
	"io"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mooyang-code/tem-client/internal/scheduler"
	"github.com/mooyang-code/tem-client/internal/types"
	"github.com/mooyang-code/tem-client/pkg/tem"
)

// SchedulerManager 调度器管理器
type SchedulerManager struct {
	logger *zap.Logger
	out    io.Writer // 快照输出，nil时只记录日志
	mutex  sync.Mutex
}

// NewSchedulerManager 创建新的调度器管理器
func NewSchedulerManager(logger *zap.Logger, out io.Writer) *SchedulerManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerManager{
		logger: logger,
		out:    out,
	}
}

// Setup 按配置创建并启动调度器，未启用时返回nil
func (sm *SchedulerManager) Setup(config *types.Config, api types.MarketAPI) (*scheduler.Scheduler, error) {
	if !config.Watch.Enabled {
		sm.logger.Info("观察任务未启用")
		return nil, nil
	}

	sched := scheduler.New(sm.logger.Named("scheduler"), api, sm.handleSnapshot, config.Watch.Timeout)

	sm.logger.Info("开始添加任务...", zap.Int("job_count", len(config.Watch.Jobs)))
	for _, job := range config.Watch.Jobs {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
		sm.logger.Info("添加任务成功",
			zap.String("job", job.Name),
			zap.String("kind", string(job.Kind)),
			zap.String("cron", job.Cron))
	}

	if err := sched.Start(); err != nil {
		return nil, err
	}
	sm.logger.Info("调度器启动成功")
	return sched, nil
}

// handleSnapshot 记录快照摘要，并以JSON行写入输出
func (sm *SchedulerManager) handleSnapshot(snapshot *types.Snapshot) error {
	fields := []zap.Field{
		zap.String("job", snapshot.Job),
		zap.String("kind", string(snapshot.Kind)),
		zap.Time("timestamp", snapshot.Timestamp),
	}
	switch payload := snapshot.Payload.(type) {
	case bool:
		fields = append(fields, zap.Bool("available", payload))
	case []tem.Order:
		fields = append(fields, zap.Int("orders", len(payload)))
	case decimal.Decimal:
		fields = append(fields, zap.String("balance", payload.String()))
	case tem.Info:
		fields = append(fields, zap.String("available_energy", payload.Market.AvailableEnergy.String()))
	}
	sm.logger.Info("收到快照", fields...)

	if sm.out == nil {
		return nil
	}
	data, err := sonic.ConfigStd.Marshal(snapshot)
	if err != nil {
		return err
	}

	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	_, err = sm.out.Write(append(data, '\n'))
	return err
}
