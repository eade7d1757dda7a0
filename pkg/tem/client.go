// Package tem 实现 Tron Energy Market REST API 客户端：市场信息、账户余额和订单生命周期
package tem

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mooyang-code/tem-client/internal/httpclient"
)

// DefaultBaseURL 公共API地址
const DefaultBaseURL = "https://api.tronenergy.market"

// DefaultPageSize 拉取全部订单时的每页条数
const DefaultPageSize = 1000

// Endpoints 接口路径表，路径中的 {id} 会被替换为订单号
type Endpoints struct {
	Status      string `yaml:"status" json:"status"`
	Info        string `yaml:"info" json:"info"`
	Balance     string `yaml:"balance" json:"balance"`
	Deposit     string `yaml:"deposit" json:"deposit"`
	Withdraw    string `yaml:"withdraw" json:"withdraw"`
	Orders      string `yaml:"orders" json:"orders"`
	Order       string `yaml:"order" json:"order"`
	CreateOrder string `yaml:"create_order" json:"create_order"`
	FillOrder   string `yaml:"fill_order" json:"fill_order"`
	CancelOrder string `yaml:"cancel_order" json:"cancel_order"`
}

// DefaultEndpoints 返回公共API的路径表
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Status:      "/status",
		Info:        "/info",
		Balance:     "/credit",
		Deposit:     "/credit/deposit",
		Withdraw:    "/credit/withdraw",
		Orders:      "/order/list",
		Order:       "/order/info",
		CreateOrder: "/order/new",
		FillOrder:   "/order/fill",
		CancelOrder: "/order/cancel",
	}
}

// withDefaults 未配置的路径使用默认值
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&e.Status, d.Status)
	fill(&e.Info, d.Info)
	fill(&e.Balance, d.Balance)
	fill(&e.Deposit, d.Deposit)
	fill(&e.Withdraw, d.Withdraw)
	fill(&e.Orders, d.Orders)
	fill(&e.Order, d.Order)
	fill(&e.CreateOrder, d.CreateOrder)
	fill(&e.FillOrder, d.FillOrder)
	fill(&e.CancelOrder, d.CancelOrder)
	return e
}

// Config 客户端配置
type Config struct {
	BaseURL   string             `yaml:"base_url" json:"base_url"`
	APIKey    string             `yaml:"api_key" json:"api_key"`
	PageSize  int                `yaml:"page_size" json:"page_size"`
	Endpoints Endpoints          `yaml:"endpoints" json:"endpoints"`
	HTTP      *httpclient.Config `yaml:"http" json:"http"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   DefaultBaseURL,
		PageSize:  DefaultPageSize,
		Endpoints: DefaultEndpoints(),
		HTTP:      httpclient.DefaultConfig("tem"),
	}
}

// Validate 验证配置并填充默认值
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base url %q", c.BaseURL)
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	c.Endpoints = c.Endpoints.withDefaults()
	if c.HTTP == nil {
		c.HTTP = httpclient.DefaultConfig("tem")
	}
	return c.HTTP.Validate()
}

// OrderFilter 订单列表过滤条件，零值表示不过滤
type OrderFilter struct {
	Status  OrderStatus
	Address string
}

// Client TEM API客户端
type Client struct {
	config    *Config
	transport Transport
	logger    *zap.Logger
}

// New 创建使用HTTP传输层的客户端
func New(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient, err := httpclient.New(config.HTTP)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	return NewWithTransport(config, NewHTTPTransport(config.BaseURL, httpClient))
}

// NewWithTransport 创建使用自定义传输层的客户端
func NewWithTransport(config *Config, transport Transport) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Client{
		config:    config,
		transport: transport,
		logger:    zap.NewNop(),
	}, nil
}

// SetLogger 设置日志记录器，同时传递给HTTP传输层
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger == nil {
		return
	}
	c.logger = logger
	if t, ok := c.transport.(*HTTPTransport); ok {
		t.client.SetLogger(logger.Named("http"))
	}
}

// Transport 返回当前传输层
func (c *Client) Transport() Transport {
	return c.transport
}

// Close 关闭传输层持有的连接
func (c *Client) Close() error {
	if closer, ok := c.transport.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// call 发送请求，非TransportError的传输失败统一包装
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	c.logger.Debug("TEM request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("query", query.Encode()))

	data, err := c.transport.Request(ctx, method, path, query, body)
	if err != nil {
		c.logger.Warn("TEM request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, newTransportError(method, path, err)
	}
	return data, nil
}

// CheckStatus 检查API是否可用，2xx响应视为可用
func (c *Client) CheckStatus(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodGet, c.config.Endpoints.Status, nil, nil)
	return err
}

// IsAvailable CheckStatus 的布尔形式
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.CheckStatus(ctx) == nil
}

// GetMarketInfo 获取市场信息
func (c *Client) GetMarketInfo(ctx context.Context) (Info, error) {
	data, err := c.call(ctx, http.MethodGet, c.config.Endpoints.Info, nil, nil)
	if err != nil {
		return Info{}, err
	}
	return ParseInfo(data)
}

// GetBalance 获取账户余额（SUN）
func (c *Client) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if err := requireAddress("get_balance", "address", address); err != nil {
		return decimal.Zero, err
	}
	query := url.Values{}
	query.Set("address", address)

	data, err := c.call(ctx, http.MethodGet, c.config.Endpoints.Balance, query, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return parseBalance(data)
}

// Deposit 使用签名交易向账户充值
func (c *Client) Deposit(ctx context.Context, params DepositParams) error {
	req, err := BuildDeposit(params)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodPost, c.config.Endpoints.Deposit, nil, req)
	return err
}

// Withdraw 使用签名消息提现
func (c *Client) Withdraw(ctx context.Context, params WithdrawParams) error {
	req, err := BuildWithdraw(params)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodPost, c.config.Endpoints.Withdraw, nil, req)
	return err
}

// GetOrders 获取一页订单
func (c *Client) GetOrders(ctx context.Context, filter OrderFilter, skip, take int) ([]Order, error) {
	if skip < 0 {
		return nil, invalidRequest("get_orders", "skip", "must not be negative")
	}
	if take <= 0 {
		return nil, invalidRequest("get_orders", "limit", "must be greater than zero")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalidRequest("get_orders", "status", "unknown status "+string(filter.Status)+", expected "+orderStatusNames)
	}

	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("limit", strconv.Itoa(take))
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Address != "" {
		query.Set("address", filter.Address)
	}

	data, err := c.call(ctx, http.MethodGet, c.config.Endpoints.Orders, query, nil)
	if err != nil {
		return nil, err
	}
	page, err := ParseOrderPage(data)
	if err != nil {
		return nil, err
	}
	return page.Orders, nil
}

// GetAllOrders 按配置的页大小拉取全部订单，任何一页失败都不返回部分结果
func (c *Client) GetAllOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	orders, err := collectPages(ctx, c.config.PageSize,
		func(o Order) int64 { return o.ID },
		func(ctx context.Context, skip, take int) ([]Order, error) {
			return c.GetOrders(ctx, filter, skip, take)
		})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched all orders", zap.Int("count", len(orders)))
	return orders, nil
}

// GetOrder 获取订单详情
func (c *Client) GetOrder(ctx context.Context, id int64) (Order, error) {
	if id <= 0 {
		return Order{}, invalidRequest("get_order", "id", "order id must be positive")
	}
	path, query := c.orderPath(c.config.Endpoints.Order, id, true)
	data, err := c.call(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return Order{}, err
	}
	return ParseOrder(data)
}

// CreateOrder 创建订单并返回订单号。未提供授权时使用客户端配置的API key。
func (c *Client) CreateOrder(ctx context.Context, params CreateOrderParams) (int64, error) {
	if params.Auth.IsZero() && c.config.APIKey != "" {
		params.Auth.APIKey = c.config.APIKey
	}
	req, err := BuildCreateOrder(params)
	if err != nil {
		return 0, err
	}
	data, err := c.call(ctx, http.MethodPost, c.config.Endpoints.CreateOrder, nil, req)
	if err != nil {
		return 0, err
	}
	id, err := parseCreatedOrderID(data)
	if err != nil {
		return 0, err
	}
	c.logger.Info("Order created",
		zap.Int64("id", id),
		zap.String("market", string(req.Market)),
		zap.String("resource", req.Resource.String()),
		zap.String("payment", req.Payment.String()))
	return id, nil
}

// FillOrder 成交订单
func (c *Client) FillOrder(ctx context.Context, params FillOrderParams) error {
	req, err := BuildFillOrder(params)
	if err != nil {
		return err
	}
	path, _ := c.orderPath(c.config.Endpoints.FillOrder, req.OrderID, false)
	_, err = c.call(ctx, http.MethodPost, path, nil, req)
	return err
}

// CancelOrder 取消订单
func (c *Client) CancelOrder(ctx context.Context, params CancelOrderParams) error {
	req, err := BuildCancelOrder(params)
	if err != nil {
		return err
	}
	path, _ := c.orderPath(c.config.Endpoints.CancelOrder, req.OrderID, false)
	_, err = c.call(ctx, http.MethodPost, path, nil, req)
	return err
}

// orderPath 展开路径中的 {id}；路径不含占位符且 withQuery 为 true 时以查询参数传递订单号
func (c *Client) orderPath(pattern string, id int64, withQuery bool) (string, url.Values) {
	idText := strconv.FormatInt(id, 10)
	if strings.Contains(pattern, "{id}") {
		return strings.ReplaceAll(pattern, "{id}", url.PathEscape(idText)), nil
	}
	if !withQuery {
		return pattern, nil
	}
	query := url.Values{}
	query.Set("id", idText)
	return pattern, query
}
