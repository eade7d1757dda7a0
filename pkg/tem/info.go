package tem

import (
	"encoding/json"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"
)

// Info 市场信息，对应 /info 接口
type Info struct {
	Address  string          `json:"address"`
	Market   MarketInfo      `json:"market"`
	Price    PricesInfo      `json:"price"`
	Order    OrderLimits     `json:"order"`
	Pool     json.RawMessage `json:"pool"`
	Credit   CreditInfo      `json:"credit"`
	Referral ReferralInfo    `json:"referral"`
	Reward   RewardInfo      `json:"reward"`
	Tron     TronInfo        `json:"tron"`
}

// AvailableByPrice 某一价格档位的可用资源量
type AvailableByPrice struct {
	Price decimal.Decimal `json:"price"`
	Value decimal.Decimal `json:"value"`
}

// MarketInfo 资源池容量与兑换比例
type MarketInfo struct {
	AvailableEnergy           decimal.Decimal    `json:"available_energy"`
	AvailableFastEnergy       decimal.Decimal    `json:"available_fast_energy"`
	AvailableEnergyByPrice    []AvailableByPrice `json:"available_energy_by_price"`
	TotalEnergy               decimal.Decimal    `json:"total_energy"`
	NextReleaseEnergy         decimal.Decimal    `json:"next_release_energy"`
	AvailableBandwidth        decimal.Decimal    `json:"available_bandwidth"`
	AvailableFastBandwidth    decimal.Decimal    `json:"available_fast_bandwidth"`
	AvailableBandwidthByPrice []AvailableByPrice `json:"available_bandwidth_by_price"`
	TotalBandwidth            decimal.Decimal    `json:"total_bandwidth"`
	NextReleaseBandwidth      decimal.Decimal    `json:"next_release_bandwidth"`
	EnergyPerTRXFrozen        decimal.Decimal    `json:"energy_per_trx_frozen"`
	BandwidthPerTRXFrozen     decimal.Decimal    `json:"bandwidth_per_trx_frozen"`
	TRXPerEnergyFee           decimal.Decimal    `json:"trx_per_energy_fee"`
	TRXPerBandwidthFee        decimal.Decimal    `json:"trx_per_bandwidth_fee"`
}

// PriceInfo 某个时长档位的价格
type PriceInfo struct {
	MinDuration    decimal.Decimal `json:"min_duration"`
	BasePrice      decimal.Decimal `json:"base_price"`
	MinPoolPrice   decimal.Decimal `json:"min_pool_price"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
}

// PricesInfo 按市场模式和资源划分的价格表
type PricesInfo struct {
	OpenEnergy    []PriceInfo `json:"open_energy"`
	FastEnergy    []PriceInfo `json:"fast_energy"`
	OpenBandwidth []PriceInfo `json:"open_bandwidth"`
	FastBandwidth []PriceInfo `json:"fast_bandwidth"`
}

// OrderLimits 下单约束
type OrderLimits struct {
	MinEnergy             decimal.Decimal `json:"min_energy"`
	SuggestedEnergy       decimal.Decimal `json:"suggested_energy"`
	MinBandwidth          decimal.Decimal `json:"min_bandwidth"`
	SuggestedBandwidth    decimal.Decimal `json:"suggested_bandwidth"`
	MinFillEnergy         decimal.Decimal `json:"min_fill_energy"`
	MinFillBandwidth      decimal.Decimal `json:"min_fill_bandwidth"`
	OpenDurations         []int64         `json:"open_durations"`
	OpenSuggestedDuration int64           `json:"open_suggested_duration"`
	FastDurations         []int64         `json:"fast_durations"`
	FastSuggestedDuration int64           `json:"fast_suggested_duration"`
	PublicTime            int64           `json:"public_time"`
	FillOrderAward        decimal.Decimal `json:"fill_order_award"`
	CancellationFee       decimal.Decimal `json:"cancellation_fee"`
}

// CreditInfo 账户余额规则
type CreditInfo struct {
	MinAmount         decimal.Decimal `json:"min_amount"`
	MinTimeToWithdraw decimal.Decimal `json:"min_time_to_withdraw"`
}

// ReferralInfo 推荐奖励
type ReferralInfo struct {
	Reward decimal.Decimal `json:"reward"`
}

// RewardInfo 奖励代币兑换参数
type RewardInfo struct {
	TokenID             string          `json:"token_id"`
	ExchangeID          decimal.Decimal `json:"exchange_id"`
	ExchangeTokenAmount decimal.Decimal `json:"exchange_token_amount"`
	ExchangeTRXAmount   decimal.Decimal `json:"exchange_trx_amount"`
}

// TronInfo 网络入口
type TronInfo struct {
	Node        string `json:"node"`
	Tronscan    string `json:"tronscan"`
	TronscanAPI string `json:"tronscan_api"`
}

// ParseInfo 解析 /info 响应
func ParseInfo(data []byte) (Info, error) {
	r, err := newObjectReader("info", data)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Address: r.String("address", true),
		Market:  readObject(r, "market", true, parseMarketInfo),
		Price:   readObject(r, "price", true, parsePricesInfo),
		Order:   readObject(r, "order", true, parseOrderLimits),
	}
	if pool, ok := r.raw("pool", true, jsonparser.Object); ok {
		info.Pool = append(json.RawMessage(nil), pool...)
	}
	info.Credit = readObject(r, "credit", true, parseCreditInfo)
	info.Referral = readObject(r, "referral", true, parseReferralInfo)
	info.Reward = readObject(r, "reward", true, parseRewardInfo)
	info.Tron = readObject(r, "tron", true, parseTronInfo)
	if err := r.Err(); err != nil {
		return Info{}, err
	}
	return info, nil
}

// UnmarshalJSON 实现json.Unmarshaler
func (i *Info) UnmarshalJSON(data []byte) error {
	v, err := ParseInfo(data)
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func parseAvailableByPrice(data []byte) (AvailableByPrice, error) {
	r, err := newObjectReader("available_by_price", data)
	if err != nil {
		return AvailableByPrice{}, err
	}
	v := AvailableByPrice{
		Price: r.Integer("price", true),
		Value: r.Decimal("value", true),
	}
	return v, r.Err()
}

func parseMarketInfo(data []byte) (MarketInfo, error) {
	r, err := newObjectReader("market", data)
	if err != nil {
		return MarketInfo{}, err
	}
	m := MarketInfo{
		AvailableEnergy:           r.Decimal("available_energy", true),
		AvailableFastEnergy:       r.Decimal("available_fast_energy", true),
		AvailableEnergyByPrice:    readObjectList(r, "available_energy_by_price", false, parseAvailableByPrice),
		TotalEnergy:               r.Integer("total_energy", true),
		NextReleaseEnergy:         r.Integer("next_release_energy", true),
		AvailableBandwidth:        r.Decimal("available_bandwidth", true),
		AvailableFastBandwidth:    r.Decimal("available_fast_bandwidth", true),
		AvailableBandwidthByPrice: readObjectList(r, "available_bandwidth_by_price", false, parseAvailableByPrice),
		TotalBandwidth:            r.Integer("total_bandwidth", true),
		NextReleaseBandwidth:      r.Integer("next_release_bandwidth", true),
		EnergyPerTRXFrozen:        r.Decimal("energy_per_trx_frozen", true),
		BandwidthPerTRXFrozen:     r.Decimal("bandwidth_per_trx_frozen", true),
		TRXPerEnergyFee:           r.Decimal("trx_per_energy_fee", true),
		TRXPerBandwidthFee:        r.Decimal("trx_per_bandwidth_fee", true),
	}
	if m.AvailableEnergyByPrice == nil {
		m.AvailableEnergyByPrice = []AvailableByPrice{}
	}
	if m.AvailableBandwidthByPrice == nil {
		m.AvailableBandwidthByPrice = []AvailableByPrice{}
	}
	return m, r.Err()
}

func parsePriceInfo(data []byte) (PriceInfo, error) {
	r, err := newObjectReader("price", data)
	if err != nil {
		return PriceInfo{}, err
	}
	p := PriceInfo{
		MinDuration:    r.Integer("min_duration", true),
		BasePrice:      r.Integer("base_price", true),
		MinPoolPrice:   r.Integer("min_pool_price", true),
		SuggestedPrice: r.Integer("suggested_price", true),
	}
	return p, r.Err()
}

func parsePricesInfo(data []byte) (PricesInfo, error) {
	r, err := newObjectReader("prices", data)
	if err != nil {
		return PricesInfo{}, err
	}
	list := func(field string) []PriceInfo {
		v := readObjectList(r, field, false, parsePriceInfo)
		if v == nil {
			return []PriceInfo{}
		}
		return v
	}
	p := PricesInfo{
		OpenEnergy:    list("open_energy"),
		FastEnergy:    list("fast_energy"),
		OpenBandwidth: list("open_bandwidth"),
		FastBandwidth: list("fast_bandwidth"),
	}
	return p, r.Err()
}

func parseOrderLimits(data []byte) (OrderLimits, error) {
	r, err := newObjectReader("order_limits", data)
	if err != nil {
		return OrderLimits{}, err
	}
	o := OrderLimits{
		MinEnergy:             r.Integer("min_energy", true),
		SuggestedEnergy:       r.Integer("suggested_energy", true),
		MinBandwidth:          r.Integer("min_bandwidth", true),
		SuggestedBandwidth:    r.Integer("suggested_bandwidth", true),
		MinFillEnergy:         r.Integer("min_fill_energy", true),
		MinFillBandwidth:      r.Integer("min_fill_bandwidth", true),
		OpenDurations:         r.Int64List("open_durations", false),
		OpenSuggestedDuration: r.Int64("open_suggested_duration", true, 0),
		FastDurations:         r.Int64List("fast_durations", false),
		FastSuggestedDuration: r.Int64("fast_suggested_duration", true, 0),
		PublicTime:            r.Int64("public_time", true, 0),
		FillOrderAward:        r.Decimal("fill_order_award", true),
		CancellationFee:       r.Integer("cancellation_fee", true),
	}
	if o.OpenDurations == nil {
		o.OpenDurations = []int64{}
	}
	if o.FastDurations == nil {
		o.FastDurations = []int64{}
	}
	return o, r.Err()
}

func parseCreditInfo(data []byte) (CreditInfo, error) {
	r, err := newObjectReader("credit", data)
	if err != nil {
		return CreditInfo{}, err
	}
	c := CreditInfo{
		MinAmount:         r.Integer("min_amount", true),
		MinTimeToWithdraw: r.Integer("min_time_to_withdraw", true),
	}
	return c, r.Err()
}

func parseReferralInfo(data []byte) (ReferralInfo, error) {
	r, err := newObjectReader("referral", data)
	if err != nil {
		return ReferralInfo{}, err
	}
	return ReferralInfo{Reward: r.Decimal("reward", true)}, r.Err()
}

func parseRewardInfo(data []byte) (RewardInfo, error) {
	r, err := newObjectReader("reward", data)
	if err != nil {
		return RewardInfo{}, err
	}
	v := RewardInfo{
		TokenID:             r.String("token_id", true),
		ExchangeID:          r.Integer("exchange_id", true),
		ExchangeTokenAmount: r.Integer("exchange_token_amount", true),
		ExchangeTRXAmount:   r.Integer("exchange_trx_amount", true),
	}
	return v, r.Err()
}

func parseTronInfo(data []byte) (TronInfo, error) {
	r, err := newObjectReader("tron", data)
	if err != nil {
		return TronInfo{}, err
	}
	v := TronInfo{
		Node:        r.String("node", true),
		Tronscan:    r.String("tronscan", true),
		TronscanAPI: r.String("tronscan_api", true),
	}
	return v, r.Err()
}
