package tem

import (
	"fmt"
	"strconv"
	"strings"
)

// Resource 可租用的链上资源
type Resource int

const (
	ResourceEnergy    Resource = 0
	ResourceBandwidth Resource = 1
)

// String 返回资源名称
func (r Resource) String() string {
	switch r {
	case ResourceEnergy:
		return "Energy"
	case ResourceBandwidth:
		return "Bandwidth"
	default:
		return "Resource(" + strconv.Itoa(int(r)) + ")"
	}
}

// Valid 判断资源类型是否在闭集内
func (r Resource) Valid() bool {
	return r == ResourceEnergy || r == ResourceBandwidth
}

// ParseResource 解析资源类型，接受数字编码或名称（不区分大小写）
func ParseResource(s string) (Resource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "energy":
		return ResourceEnergy, nil
	case "1", "bandwidth":
		return ResourceBandwidth, nil
	}
	return 0, fmt.Errorf("unknown resource %q", s)
}

// MarketType 市场模式
type MarketType string

const (
	MarketOpen MarketType = "Open"
	MarketFast MarketType = "Fast"
)

// Valid 判断市场模式是否在闭集内
func (m MarketType) Valid() bool {
	return m == MarketOpen || m == MarketFast
}

// OrderStatus 订单生命周期状态
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusFilled    OrderStatus = "Filled"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
	OrderStatusInternal  OrderStatus = "Internal"
)

// Valid 判断订单状态是否在闭集内
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusFilled, OrderStatusCompleted, OrderStatusCancelled, OrderStatusInternal:
		return true
	}
	return false
}

// OrderType 订单来源分类
type OrderType string

const (
	OrderTypePublic   OrderType = "Public"
	OrderTypeInternal OrderType = "Internal"
)

// Valid 判断订单类型是否在闭集内
func (t OrderType) Valid() bool {
	return t == OrderTypePublic || t == OrderTypeInternal
}

// 闭集取值说明，用于错误信息
const (
	marketTypeNames  = "Open|Fast"
	orderTypeNames   = "Public|Internal"
	orderStatusNames = "Pending|Filled|Completed|Cancelled|Internal"
	resourceNames    = "0 (Energy)|1 (Bandwidth)"
)
