package types

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mooyang-code/tem-client/pkg/tem"
)

// MarketAPI 观察任务依赖的API子集，*tem.Client 实现了该接口
type MarketAPI interface {
	CheckStatus(ctx context.Context) error
	GetMarketInfo(ctx context.Context) (tem.Info, error)
	GetBalance(ctx context.Context, address string) (decimal.Decimal, error)
	GetAllOrders(ctx context.Context, filter tem.OrderFilter) ([]tem.Order, error)
}

var _ MarketAPI = (*tem.Client)(nil)
