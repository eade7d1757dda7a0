package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mooyang-code/tem-client/internal/types"
	"github.com/mooyang-code/tem-client/pkg/tem"
)

// fakeAPI 可控的API实现
type fakeAPI struct {
	mu       sync.Mutex
	balance  decimal.Decimal
	orders   []tem.Order
	err      error
	filters  []tem.OrderFilter
	statusOK bool
}

func (f *fakeAPI) CheckStatus(ctx context.Context) error {
	if !f.statusOK {
		return errors.New("unavailable")
	}
	return nil
}

func (f *fakeAPI) GetMarketInfo(ctx context.Context) (tem.Info, error) {
	if f.err != nil {
		return tem.Info{}, f.err
	}
	return tem.Info{Address: "TMarket"}, nil
}

func (f *fakeAPI) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.balance, nil
}

func (f *fakeAPI) GetAllOrders(ctx context.Context, filter tem.OrderFilter) ([]tem.Order, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

// snapshotRecorder 记录回调收到的快照
type snapshotRecorder struct {
	mu        sync.Mutex
	snapshots []*types.Snapshot
}

func (r *snapshotRecorder) record(s *types.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// TestAddJobValidation 测试任务配置校验
func TestAddJobValidation(t *testing.T) {
	s := New(nil, &fakeAPI{}, nil, 0)

	tests := []struct {
		name string
		job  types.JobConfig
	}{
		{name: "缺少名称", job: types.JobConfig{Kind: types.WatchKindStatus, Cron: "*/5 * * * * *"}},
		{name: "未知类型", job: types.JobConfig{Name: "x", Kind: "ticker", Cron: "*/5 * * * * *"}},
		{name: "余额缺少地址", job: types.JobConfig{Name: "x", Kind: types.WatchKindBalance, Cron: "*/5 * * * * *"}},
		{name: "未知状态", job: types.JobConfig{Name: "x", Kind: types.WatchKindOrders, Status: "Bogus", Cron: "*/5 * * * * *"}},
		{name: "缺少秒字段", job: types.JobConfig{Name: "x", Kind: types.WatchKindStatus, Cron: "* * * * *"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.AddJob(tt.job))
		})
	}

	job := types.JobConfig{Name: "status", Kind: types.WatchKindStatus, Cron: "@every 1h"}
	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job))
	assert.Len(t, s.GetJobStatus(), 1)
}

// TestRunJobSnapshots 测试各类任务产生的快照
func TestRunJobSnapshots(t *testing.T) {
	api := &fakeAPI{
		balance:  decimal.NewFromInt(1_500_000),
		orders:   []tem.Order{{ID: 1}, {ID: 2}},
		statusOK: true,
	}
	recorder := &snapshotRecorder{}
	s := New(nil, api, recorder.record, time.Second)

	jobs := []types.JobConfig{
		{Name: "status", Kind: types.WatchKindStatus, Cron: "@every 1h"},
		{Name: "info", Kind: types.WatchKindMarketInfo, Cron: "@every 1h"},
		{Name: "balance", Kind: types.WatchKindBalance, Cron: "@every 1h", Address: "TBuyer"},
		{Name: "orders", Kind: types.WatchKindOrders, Cron: "@every 1h", Address: "TBuyer", Status: "Pending"},
	}
	for _, job := range jobs {
		require.NoError(t, s.AddJob(job))
		require.NoError(t, s.RunJob(job.Name))
	}

	require.Equal(t, 4, recorder.count())
	assert.Equal(t, true, recorder.snapshots[0].Payload)
	assert.Equal(t, "TMarket", recorder.snapshots[1].Payload.(tem.Info).Address)
	assert.Equal(t, "1500000", recorder.snapshots[2].Payload.(decimal.Decimal).String())
	assert.Len(t, recorder.snapshots[3].Payload.([]tem.Order), 2)
	assert.Equal(t, types.WatchKindOrders, recorder.snapshots[3].Kind)
	assert.Equal(t, []tem.OrderFilter{{Status: tem.OrderStatusPending, Address: "TBuyer"}}, api.filters)

	status := s.GetJobStatus()
	assert.Equal(t, int64(1), status["orders"].RunCount)
	assert.Equal(t, JobStatusPending, status["orders"].Status)
	assert.False(t, status["orders"].LastRun.IsZero())
}

// TestRunJobFailure 测试任务失败时更新统计
func TestRunJobFailure(t *testing.T) {
	api := &fakeAPI{err: errors.New("boom")}
	recorder := &snapshotRecorder{}
	s := New(nil, api, recorder.record, time.Second)
	require.NoError(t, s.AddJob(types.JobConfig{Name: "info", Kind: types.WatchKindMarketInfo, Cron: "@every 1h"}))

	err := s.RunJob("info")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 0, recorder.count())

	info := s.GetJobStatus()["info"]
	assert.Equal(t, JobStatusFailed, info.Status)
	assert.Equal(t, int64(1), info.ErrorCount)
	assert.Contains(t, info.LastError, "boom")

	assert.Error(t, s.RunJob("missing"))
}

// TestSchedulerStartStop 测试cron驱动的任务执行
func TestSchedulerStartStop(t *testing.T) {
	recorder := &snapshotRecorder{}
	s := New(nil, &fakeAPI{statusOK: true}, recorder.record, time.Second)
	require.NoError(t, s.AddJob(types.JobConfig{Name: "status", Kind: types.WatchKindStatus, Cron: "* * * * * *"}))
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return recorder.count() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.GetJobStatus()["status"].NextRun.IsZero())
}

// TestValidateCron 测试cron表达式校验
func TestValidateCron(t *testing.T) {
	assert.NoError(t, ValidateCron("0 */5 * * * *"))
	assert.NoError(t, ValidateCron("@every 30s"))
	assert.Error(t, ValidateCron("*/5 * * * *"))
	assert.Error(t, ValidateCron(""))
}
