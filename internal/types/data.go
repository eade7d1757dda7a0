package types

import (
	"time"
)

// WatchKind 观察任务类型
type WatchKind string

const (
	WatchKindStatus     WatchKind = "status"      // API可用性
	WatchKindMarketInfo WatchKind = "market_info" // 市场信息
	WatchKindBalance    WatchKind = "balance"     // 账户余额
	WatchKindOrders     WatchKind = "orders"      // 订单列表
)

// Valid 判断任务类型是否受支持
func (k WatchKind) Valid() bool {
	switch k {
	case WatchKindStatus, WatchKindMarketInfo, WatchKindBalance, WatchKindOrders:
		return true
	}
	return false
}

// Snapshot 一次观察的结果
type Snapshot struct {
	Job       string      `json:"job"`       // 任务名称
	Kind      WatchKind   `json:"kind"`      // 任务类型
	Timestamp time.Time   `json:"timestamp"` // 采集时间
	Payload   interface{} `json:"payload"`   // bool、tem.Info、decimal.Decimal 或 []tem.Order
}

// SnapshotCallback 观察结果回调
type SnapshotCallback func(snapshot *Snapshot) error
