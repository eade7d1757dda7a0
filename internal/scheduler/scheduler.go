// Package scheduler 提供基于cron的定时观察任务
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mooyang-code/tem-client/internal/types"
	"github.com/mooyang-code/tem-client/pkg/tem"
)

// DefaultJobTimeout 单次任务的默认超时
const DefaultJobTimeout = 30 * time.Second

// cronParser 与 cron.WithSeconds() 相同的解析规则
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateCron 校验带秒字段的cron表达式
func ValidateCron(spec string) error {
	_, err := cronParser.Parse(spec)
	return err
}

// Scheduler 调度器
type Scheduler struct {
	cron     *cron.Cron
	logger   *zap.Logger
	api      types.MarketAPI
	callback types.SnapshotCallback
	timeout  time.Duration
	jobs     map[string]*JobInfo
	mutex    sync.RWMutex
}

// JobInfo 任务信息
type JobInfo struct {
	Config     types.JobConfig
	EntryID    cron.EntryID
	Status     JobStatus
	LastRun    time.Time
	NextRun    time.Time
	RunCount   int64
	ErrorCount int64
	LastError  string
}

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending JobStatus = "pending" // 等待中
	JobStatusRunning JobStatus = "running" // 运行中
	JobStatusFailed  JobStatus = "failed"  // 失败
)

// New 创建新的调度器，timeout 小于等于零时使用 DefaultJobTimeout
func New(logger *zap.Logger, api types.MarketAPI, callback types.SnapshotCallback, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &Scheduler{
		cron:     cron.New(cron.WithParser(cronParser)),
		logger:   logger,
		api:      api,
		callback: callback,
		timeout:  timeout,
		jobs:     make(map[string]*JobInfo),
	}
}

// AddJob 添加任务
func (s *Scheduler) AddJob(jobConfig types.JobConfig) error {
	if err := validateJob(jobConfig); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.jobs[jobConfig.Name]; exists {
		return fmt.Errorf("job %s already exists", jobConfig.Name)
	}

	entryID, err := s.cron.AddFunc(jobConfig.Cron, func() { _ = s.RunJob(jobConfig.Name) })
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", jobConfig.Name, err)
	}

	s.jobs[jobConfig.Name] = &JobInfo{
		Config:  jobConfig,
		EntryID: entryID,
		Status:  JobStatusPending,
	}

	s.logger.Info("任务已添加",
		zap.String("name", jobConfig.Name),
		zap.String("cron", jobConfig.Cron),
		zap.String("kind", string(jobConfig.Kind)))
	return nil
}

// validateJob 校验任务配置
func validateJob(job types.JobConfig) error {
	if job.Name == "" {
		return fmt.Errorf("job name is empty")
	}
	if !job.Kind.Valid() {
		return fmt.Errorf("job %s: unsupported kind %q", job.Name, job.Kind)
	}
	if job.Kind == types.WatchKindBalance && job.Address == "" {
		return fmt.Errorf("job %s: balance job requires an address", job.Name)
	}
	if job.Status != "" && !tem.OrderStatus(job.Status).Valid() {
		return fmt.Errorf("job %s: unknown order status %q", job.Name, job.Status)
	}
	if err := ValidateCron(job.Cron); err != nil {
		return fmt.Errorf("job %s: invalid cron %q: %w", job.Name, job.Cron, err)
	}
	return nil
}

// RunJob 立即执行一次任务，返回任务错误
func (s *Scheduler) RunJob(name string) error {
	s.mutex.Lock()
	jobInfo, ok := s.jobs[name]
	if !ok {
		s.mutex.Unlock()
		return fmt.Errorf("job %s not found", name)
	}
	jobInfo.Status = JobStatusRunning
	jobInfo.LastRun = time.Now()
	jobInfo.RunCount++
	jobConfig := jobInfo.Config
	s.mutex.Unlock()

	s.logger.Debug("开始执行任务",
		zap.String("job", jobConfig.Name),
		zap.String("kind", string(jobConfig.Kind)))

	err := s.executeJob(jobConfig)

	s.mutex.Lock()
	if err != nil {
		jobInfo.Status = JobStatusFailed
		jobInfo.ErrorCount++
		jobInfo.LastError = err.Error()
		s.logger.Error("任务执行失败",
			zap.String("job", jobConfig.Name),
			zap.Error(err))
	} else {
		jobInfo.Status = JobStatusPending
		jobInfo.LastError = ""
		s.logger.Debug("任务执行成功",
			zap.String("job", jobConfig.Name))
	}
	s.mutex.Unlock()
	return err
}

// executeJob 执行具体的任务
func (s *Scheduler) executeJob(jobConfig types.JobConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var (
		payload interface{}
		err     error
	)
	switch jobConfig.Kind {
	case types.WatchKindStatus:
		payload = s.api.CheckStatus(ctx) == nil
	case types.WatchKindMarketInfo:
		payload, err = s.api.GetMarketInfo(ctx)
	case types.WatchKindBalance:
		payload, err = s.api.GetBalance(ctx, jobConfig.Address)
	case types.WatchKindOrders:
		payload, err = s.api.GetAllOrders(ctx, tem.OrderFilter{
			Status:  tem.OrderStatus(jobConfig.Status),
			Address: jobConfig.Address,
		})
	default:
		return fmt.Errorf("unsupported job kind: %s", jobConfig.Kind)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", jobConfig.Kind, err)
	}

	if s.callback == nil {
		return nil
	}
	return s.callback(&types.Snapshot{
		Job:       jobConfig.Name,
		Kind:      jobConfig.Kind,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.cron.Start()
	s.logger.Info("调度器已启动", zap.Int("jobs", len(s.GetJobStatus())))
	return nil
}

// Stop 停止调度器，等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		s.logger.Info("调度器已停止")
		return nil
	case <-ctx.Done():
		s.logger.Warn("调度器停止超时")
		return ctx.Err()
	}
}

// GetJobStatus 获取任务状态快照
func (s *Scheduler) GetJobStatus() map[string]*JobInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[string]*JobInfo, len(s.jobs))
	for name, job := range s.jobs {
		info := *job
		info.NextRun = s.cron.Entry(job.EntryID).Next
		result[name] = &info
	}
	return result
}
