package tem

import (
	"bytes"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// messagePattern 签名消息正文格式
var messagePattern = regexp.MustCompile(`^te_\w+$`)

// SignedMessage 链下授权凭证，取消订单和提现时使用
type SignedMessage struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// Validate 检查消息格式和签名
func (m SignedMessage) Validate() error {
	if !messagePattern.MatchString(m.Message) {
		return &ValidationError{
			Entity:   "signed_message",
			Field:    "message",
			Reason:   "bad message format",
			Expected: `^te_\w+$`,
			Received: m.Message,
		}
	}
	if m.Signature == "" {
		return &ValidationError{Entity: "signed_message", Field: "signature", Reason: "missing signature"}
	}
	return nil
}

// ParseSignedMessage 解析签名消息
func ParseSignedMessage(data []byte) (SignedMessage, error) {
	r, err := newObjectReader("signed_message", data)
	if err != nil {
		return SignedMessage{}, err
	}
	m := SignedMessage{
		Message:   r.String("message", true),
		Signature: r.String("signature", true),
	}
	if err := r.Err(); err != nil {
		return SignedMessage{}, err
	}
	return m, m.Validate()
}

// UnmarshalJSON 实现json.Unmarshaler
func (m *SignedMessage) UnmarshalJSON(data []byte) error {
	v, err := ParseSignedMessage(data)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Order 市场订单
type Order struct {
	ID        int64           `json:"id"`
	Type      OrderType       `json:"type"`
	Market    MarketType      `json:"market"`
	Origin    string          `json:"origin"`
	Target    []string        `json:"target"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Freeze    decimal.Decimal `json:"freeze"`
	Frozen    decimal.Decimal `json:"frozen"`
	Resource  Resource        `json:"resource"`
	Locked    bool            `json:"locked"`
	Duration  decimal.Decimal `json:"duration"`
	Payment   decimal.Decimal `json:"payment"`
	PartFill  bool            `json:"partfill"`
	Extend    bool            `json:"extend"`
	MaxLock   int64           `json:"maxlock"`
	Status    OrderStatus     `json:"status"`
	Archive   bool            `json:"archive"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ParseOrder 解析单个订单
func ParseOrder(data []byte) (Order, error) {
	r, err := newObjectReader("order", data)
	if err != nil {
		return Order{}, err
	}
	o := Order{
		ID: r.Int64("id", true, 0),
		Type: OrderType(r.Enum("type", true, "",
			func(s string) bool { return OrderType(s).Valid() }, orderTypeNames)),
		Market: MarketType(r.Enum("market", false, string(MarketOpen),
			func(s string) bool { return MarketType(s).Valid() }, marketTypeNames)),
		Origin:   r.String("origin", true),
		Target:   r.StringList("target", true),
		Price:    r.Integer("price", true),
		Amount:   r.Integer("amount", true),
		Freeze:   r.Integer("freeze", true),
		Frozen:   r.Integer("frozen", true),
		Resource: r.Resource("resource", true),
		Locked:   r.Bool("locked", false, false),
		Duration: r.Integer("duration", true),
		Payment:  r.Integer("payment", true),
		PartFill: r.Bool("partfill", false, false),
		Extend:   r.Bool("extend", false, false),
		MaxLock:  r.Int64("maxlock", false, -1),
		Status: OrderStatus(r.Enum("status", true, "",
			func(s string) bool { return OrderStatus(s).Valid() }, orderStatusNames)),
		Archive:   r.Bool("archive", true, false),
		CreatedAt: r.Time("created_at", true),
		UpdatedAt: r.Time("updated_at", true),
	}
	if err := r.Err(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// UnmarshalJSON 实现json.Unmarshaler
func (o *Order) UnmarshalJSON(data []byte) error {
	v, err := ParseOrder(data)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// OrderPage 订单列表的一页
type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
}

// orderListAliases 订单列表字段的其他名称
var orderListAliases = []string{"list", "items", "List", "Items"}

// ParseOrderPage 解析订单列表响应，也接受直接返回的订单数组
func ParseOrderPage(data []byte) (OrderPage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		// 包装成对象，复用同一套解析和错误路径
		wrapped := make([]byte, 0, len(trimmed)+12)
		wrapped = append(wrapped, `{"orders":`...)
		wrapped = append(wrapped, trimmed...)
		wrapped = append(wrapped, '}')
		trimmed = wrapped
	}

	r, err := newObjectReader("order_page", trimmed)
	if err != nil {
		return OrderPage{}, err
	}
	page := OrderPage{
		Orders: readObjectList(r, "orders", true, ParseOrder, orderListAliases...),
	}
	page.Total = r.Int64("total", false, int64(len(page.Orders)))
	if err := r.Err(); err != nil {
		return OrderPage{}, err
	}
	return page, nil
}

// UnmarshalJSON 实现json.Unmarshaler
func (p *OrderPage) UnmarshalJSON(data []byte) error {
	v, err := ParseOrderPage(data)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// parseBalance 解析 /credit 响应，返回 SUN 余额
func parseBalance(data []byte) (decimal.Decimal, error) {
	r, err := newObjectReader("credit", data)
	if err != nil {
		return decimal.Zero, err
	}
	v := r.Integer("value", true)
	if err := r.Err(); err != nil {
		return decimal.Zero, err
	}
	return v, nil
}

// orderIDAliases 创建订单响应中订单号的其他名称
var orderIDAliases = []string{"order", "Order"}

// parseCreatedOrderID 解析 /order/new 响应中的订单号
func parseCreatedOrderID(data []byte) (int64, error) {
	r, err := newObjectReader("create_order_response", data)
	if err != nil {
		return 0, err
	}
	d := r.Integer("order_id", true, orderIDAliases...)
	if err := r.Err(); err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}
