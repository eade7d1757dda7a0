package tem

import (
	"encoding/json"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

// Authorization 请求授权方式。
//
// 不同操作接受的组合不同：
//   - 创建订单：API key，或签名交易和/或签名消息（有 API key 时不发送签名）
//   - 成交订单、充值：签名交易
//   - 取消订单、提现：签名消息
type Authorization struct {
	APIKey        string
	SignedTx      string
	SignedMessage *SignedMessage
}

// IsZero 未提供任何授权
func (a Authorization) IsZero() bool {
	return strings.TrimSpace(a.APIKey) == "" && strings.TrimSpace(a.SignedTx) == "" && a.SignedMessage == nil
}

// CreateOrderParams 创建订单的输入
type CreateOrderParams struct {
	Market   MarketType
	Address  string
	Targets  []string
	Resource Resource
	Amount   decimal.Decimal
	Duration decimal.Decimal // 秒
	Price    decimal.Decimal // SUN/单位
	PartFill bool
	Auth     Authorization
}

// CreateOrderRequest 已校验的创建订单请求，payment 由价格、数量和时长计算得出
type CreateOrderRequest struct {
	Market        MarketType
	Address       string
	Targets       []string
	Resource      Resource
	Amount        decimal.Decimal
	Duration      decimal.Decimal
	Price         decimal.Decimal
	Payment       decimal.Decimal
	PartFill      bool
	APIKey        string
	SignedTx      string
	SignedMessage *SignedMessage
}

// Bulk 是否为多目标订单
func (r CreateOrderRequest) Bulk() bool {
	return len(r.Targets) > 1
}

type createOrderWire struct {
	Market        MarketType     `json:"market"`
	Address       string         `json:"address"`
	Target        interface{}    `json:"target"`
	Bulk          bool           `json:"bulk"`
	Resource      int            `json:"resource"`
	Amount        json.Number    `json:"amount"`
	Duration      json.Number    `json:"duration"`
	Price         json.Number    `json:"price"`
	Payment       json.Number    `json:"payment"`
	PartFill      bool           `json:"partfill"`
	APIKey        string         `json:"api_key,omitempty"`
	SignedTx      string         `json:"signed_tx,omitempty"`
	SignedMessage *SignedMessage `json:"signed_ms,omitempty"`
}

// MarshalJSON 单个目标以字符串发送，多个目标以数组发送并置 bulk
func (r CreateOrderRequest) MarshalJSON() ([]byte, error) {
	w := createOrderWire{
		Market:        r.Market,
		Address:       r.Address,
		Bulk:          r.Bulk(),
		Resource:      int(r.Resource),
		Amount:        number(r.Amount),
		Duration:      number(r.Duration),
		Price:         number(r.Price),
		Payment:       number(r.Payment),
		PartFill:      r.PartFill,
		APIKey:        r.APIKey,
		SignedTx:      r.SignedTx,
		SignedMessage: r.SignedMessage,
	}
	if w.Bulk {
		w.Target = r.Targets
	} else if len(r.Targets) == 1 {
		w.Target = r.Targets[0]
	}
	return sonic.ConfigStd.Marshal(w)
}

// BuildCreateOrder 校验输入并构建创建订单请求
func BuildCreateOrder(p CreateOrderParams) (CreateOrderRequest, error) {
	const op = "create_order"

	market := p.Market
	if market == "" {
		market = MarketOpen
	}
	if !market.Valid() {
		return CreateOrderRequest{}, invalidRequest(op, "market", "unknown market "+string(market)+", expected "+marketTypeNames)
	}
	if !p.Resource.Valid() {
		return CreateOrderRequest{}, invalidRequest(op, "resource", "unknown resource "+p.Resource.String()+", expected "+resourceNames)
	}
	if err := requireAddress(op, "address", p.Address); err != nil {
		return CreateOrderRequest{}, err
	}
	if len(p.Targets) == 0 {
		return CreateOrderRequest{}, invalidRequest(op, "target", "at least one target address is required")
	}
	for _, t := range p.Targets {
		if strings.TrimSpace(t) == "" {
			return CreateOrderRequest{}, invalidRequest(op, "target", "blank target address")
		}
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"amount", p.Amount},
		{"duration", p.Duration},
		{"price", p.Price},
	} {
		if err := requirePositiveWhole(op, f.name, f.value); err != nil {
			return CreateOrderRequest{}, err
		}
	}

	req := CreateOrderRequest{
		Market:   market,
		Address:  p.Address,
		Targets:  append([]string(nil), p.Targets...),
		Resource: p.Resource,
		Amount:   p.Amount,
		Duration: p.Duration,
		Price:    p.Price,
		Payment:  CalculatePayment(p.Price, p.Amount, p.Duration),
		PartFill: p.PartFill,
	}

	switch {
	case strings.TrimSpace(p.Auth.APIKey) != "":
		req.APIKey = p.Auth.APIKey
	case strings.TrimSpace(p.Auth.SignedTx) != "" || p.Auth.SignedMessage != nil:
		if p.Auth.SignedMessage != nil {
			if err := p.Auth.SignedMessage.Validate(); err != nil {
				return CreateOrderRequest{}, invalidRequest(op, "signed_ms", err.Error())
			}
			sm := *p.Auth.SignedMessage
			req.SignedMessage = &sm
		}
		req.SignedTx = p.Auth.SignedTx
	default:
		return CreateOrderRequest{}, invalidRequest(op, "", "no authorization: api key, signed transaction or signed message required")
	}
	return req, nil
}

// FillOrderParams 成交订单的输入
type FillOrderParams struct {
	OrderID int64
	Address string
	// Targets 资源来源地址，最多一个
	Targets []string
	Auth    Authorization
}

// FillOrderRequest 已校验的成交订单请求
type FillOrderRequest struct {
	OrderID       int64  `json:"id"`
	Address       string `json:"address"`
	SignedTx      string `json:"signed_tx"`
	OriginAddress string `json:"origin_address,omitempty"`
}

// BuildFillOrder 成交订单必须携带签名交易
func BuildFillOrder(p FillOrderParams) (FillOrderRequest, error) {
	const op = "fill_order"

	if p.OrderID <= 0 {
		return FillOrderRequest{}, invalidRequest(op, "id", "order id must be positive")
	}
	if err := requireAddress(op, "address", p.Address); err != nil {
		return FillOrderRequest{}, err
	}
	if len(p.Targets) > 1 {
		return FillOrderRequest{}, invalidRequest(op, "origin_address", "bulk targets are not allowed")
	}
	if strings.TrimSpace(p.Auth.SignedTx) == "" {
		return FillOrderRequest{}, invalidRequest(op, "signed_tx", "signed transaction required")
	}
	if p.Auth.SignedMessage != nil || p.Auth.APIKey != "" {
		return FillOrderRequest{}, invalidRequest(op, "", "only a signed transaction is accepted")
	}

	req := FillOrderRequest{
		OrderID:  p.OrderID,
		Address:  p.Address,
		SignedTx: p.Auth.SignedTx,
	}
	if len(p.Targets) == 1 {
		if strings.TrimSpace(p.Targets[0]) == "" {
			return FillOrderRequest{}, invalidRequest(op, "origin_address", "blank origin address")
		}
		req.OriginAddress = p.Targets[0]
	}
	return req, nil
}

// CancelOrderParams 取消订单的输入
type CancelOrderParams struct {
	OrderID int64
	Address string
	Auth    Authorization
}

// CancelOrderRequest 已校验的取消订单请求
type CancelOrderRequest struct {
	OrderID       int64         `json:"order"`
	Address       string        `json:"address"`
	SignedMessage SignedMessage `json:"signed_ms"`
}

// BuildCancelOrder 取消订单必须携带签名消息
func BuildCancelOrder(p CancelOrderParams) (CancelOrderRequest, error) {
	const op = "cancel_order"

	if p.OrderID <= 0 {
		return CancelOrderRequest{}, invalidRequest(op, "order", "order id must be positive")
	}
	if err := requireAddress(op, "address", p.Address); err != nil {
		return CancelOrderRequest{}, err
	}
	sm, err := requireSignedMessage(op, p.Auth)
	if err != nil {
		return CancelOrderRequest{}, err
	}
	return CancelOrderRequest{OrderID: p.OrderID, Address: p.Address, SignedMessage: sm}, nil
}

// DepositParams 充值输入，金额由签名交易本身决定
type DepositParams struct {
	Address string
	Auth    Authorization
}

// DepositRequest 已校验的充值请求
type DepositRequest struct {
	Address  string `json:"address"`
	SignedTx string `json:"signed_tx"`
}

// BuildDeposit 充值只接受签名交易
func BuildDeposit(p DepositParams) (DepositRequest, error) {
	const op = "deposit"

	if err := requireAddress(op, "address", p.Address); err != nil {
		return DepositRequest{}, err
	}
	if strings.TrimSpace(p.Auth.SignedTx) == "" {
		return DepositRequest{}, invalidRequest(op, "signed_tx", "signed transaction required")
	}
	if p.Auth.SignedMessage != nil || p.Auth.APIKey != "" {
		return DepositRequest{}, invalidRequest(op, "", "only a signed transaction is accepted")
	}
	return DepositRequest{Address: p.Address, SignedTx: p.Auth.SignedTx}, nil
}

// WithdrawParams 提现输入，Amount 为零表示提取全部可用余额
type WithdrawParams struct {
	Address string
	Amount  decimal.Decimal // SUN
	Auth    Authorization
}

// WithdrawRequest 已校验的提现请求
type WithdrawRequest struct {
	Address       string
	Amount        decimal.Decimal
	SignedMessage SignedMessage
}

type withdrawWire struct {
	Address       string        `json:"address"`
	SignedMessage SignedMessage `json:"signed_ms"`
	Amount        json.Number   `json:"amount,omitempty"`
}

// MarshalJSON 金额为零时省略 amount 字段
func (r WithdrawRequest) MarshalJSON() ([]byte, error) {
	w := withdrawWire{Address: r.Address, SignedMessage: r.SignedMessage}
	if !r.Amount.IsZero() {
		w.Amount = number(r.Amount)
	}
	return sonic.ConfigStd.Marshal(w)
}

// BuildWithdraw 提现只接受签名消息
func BuildWithdraw(p WithdrawParams) (WithdrawRequest, error) {
	const op = "withdraw"

	if err := requireAddress(op, "address", p.Address); err != nil {
		return WithdrawRequest{}, err
	}
	if !p.Amount.IsZero() {
		if err := requirePositiveWhole(op, "amount", p.Amount); err != nil {
			return WithdrawRequest{}, err
		}
	}
	sm, err := requireSignedMessage(op, p.Auth)
	if err != nil {
		return WithdrawRequest{}, err
	}
	return WithdrawRequest{Address: p.Address, Amount: p.Amount, SignedMessage: sm}, nil
}

func invalidRequest(op, field, reason string) *InvalidRequestError {
	return &InvalidRequestError{Operation: op, Field: field, Reason: reason}
}

func requireAddress(op, field, address string) error {
	if strings.TrimSpace(address) == "" {
		return invalidRequest(op, field, "address required")
	}
	return nil
}

func requirePositiveWhole(op, field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return invalidRequest(op, field, "must be greater than zero, got "+v.String())
	}
	if !v.IsInteger() {
		return invalidRequest(op, field, "must be a whole number, got "+v.String())
	}
	return nil
}

func requireSignedMessage(op string, auth Authorization) (SignedMessage, error) {
	if auth.SignedMessage == nil {
		return SignedMessage{}, invalidRequest(op, "signed_ms", "signed message required")
	}
	if auth.SignedTx != "" || auth.APIKey != "" {
		return SignedMessage{}, invalidRequest(op, "", "only a signed message is accepted")
	}
	if err := auth.SignedMessage.Validate(); err != nil {
		return SignedMessage{}, invalidRequest(op, "signed_ms", err.Error())
	}
	return *auth.SignedMessage, nil
}

// number 十进制数以不带引号的 JSON 数字输出
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
