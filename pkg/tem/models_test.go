package tem

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderFixture = `{
	"id": 42,
	"type": "Public",
	"market": "Fast",
	"origin": "TOriginAddress",
	"target": "TTargetAddress",
	"price": 60,
	"amount": 100000,
	"freeze": "1000000",
	"frozen": 0,
	"resource": 0,
	"duration": 86400,
	"payment": 6000000,
	"partfill": true,
	"status": "Pending",
	"archive": false,
	"created_at": "2025-01-02T03:04:05Z",
	"updatedAt": 1735787045
}`

// orderJSON 生成分页测试使用的最小订单
func orderJSON(id int64, status string) string {
	return fmt.Sprintf(`{"id":%d,"type":"Public","origin":"TO","target":["T1","T2"],"price":60,"amount":100000,`+
		`"freeze":0,"frozen":0,"resource":1,"duration":3600,"payment":6250000,"status":%q,"archive":false,`+
		`"created_at":1735787045,"updated_at":1735787045}`, id, status)
}

// TestParseOrder 测试订单解析
func TestParseOrder(t *testing.T) {
	order, err := ParseOrder([]byte(orderFixture))
	require.NoError(t, err)

	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, OrderTypePublic, order.Type)
	assert.Equal(t, MarketFast, order.Market)
	assert.Equal(t, "TOriginAddress", order.Origin)
	assert.Equal(t, []string{"TTargetAddress"}, order.Target)
	assert.True(t, decimal.NewFromInt(60).Equal(order.Price))
	assert.True(t, decimal.NewFromInt(1_000_000).Equal(order.Freeze))
	assert.Equal(t, ResourceEnergy, order.Resource)
	assert.True(t, order.PartFill)
	assert.False(t, order.Locked)
	assert.False(t, order.Extend)
	assert.Equal(t, int64(-1), order.MaxLock)
	assert.Equal(t, OrderStatusPending, order.Status)

	expected := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.True(t, expected.Equal(order.CreatedAt))
	assert.True(t, expected.Equal(order.UpdatedAt))
}

// TestParseOrderDefaults 测试可选字段的默认值
func TestParseOrderDefaults(t *testing.T) {
	order, err := ParseOrder([]byte(orderJSON(1, "Filled")))
	require.NoError(t, err)
	assert.Equal(t, MarketOpen, order.Market)
	assert.Equal(t, ResourceBandwidth, order.Resource)
	assert.Equal(t, []string{"T1", "T2"}, order.Target)
	assert.Equal(t, OrderStatusFilled, order.Status)
}

// TestParseOrderRejectsUnknownStatus 测试状态不在闭集内时报错
func TestParseOrderRejectsUnknownStatus(t *testing.T) {
	_, err := ParseOrder([]byte(orderJSON(1, "Bogus")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "order", ve.Entity)
	assert.Equal(t, "status", ve.Field)
	assert.Equal(t, "value out of enumeration", ve.Reason)
	assert.Contains(t, ve.Received, "Bogus")
	assert.Equal(t, orderStatusNames, ve.Expected)
}

// TestParseOrderFieldErrors 测试各类字段错误
func TestParseOrderFieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{name: "未知市场", payload: strings.Replace(orderFixture, `"Fast"`, `"Slow"`, 1), field: "market"},
		{name: "未知类型", payload: strings.Replace(orderFixture, `"Public"`, `"Private"`, 1), field: "type"},
		{name: "小数数量", payload: strings.Replace(orderFixture, `"amount": 100000`, `"amount": 100000.5`, 1), field: "amount"},
		{name: "缺少id", payload: strings.Replace(orderFixture, `"id": 42,`, ``, 1), field: "id"},
		{name: "价格类型错误", payload: strings.Replace(orderFixture, `"price": 60`, `"price": [60]`, 1), field: "price"},
		{name: "资源越界", payload: strings.Replace(orderFixture, `"resource": 0`, `"resource": 2`, 1), field: "resource"},
		{name: "时间格式错误", payload: strings.Replace(orderFixture, `"2025-01-02T03:04:05Z"`, `"yesterday"`, 1), field: "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOrder([]byte(tt.payload))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

// TestOrderJSONRoundTrip 测试订单经encoding/json往返
func TestOrderJSONRoundTrip(t *testing.T) {
	order, err := ParseOrder([]byte(orderFixture))
	require.NoError(t, err)

	data, err := json.Marshal(order)
	require.NoError(t, err)

	var decoded Order
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, order.ID, decoded.ID)
	assert.Equal(t, order.Target, decoded.Target)
	assert.Equal(t, order.Status, decoded.Status)
	assert.Equal(t, order.MaxLock, decoded.MaxLock)
	assert.True(t, order.Payment.Equal(decoded.Payment))
	assert.True(t, order.CreatedAt.Equal(decoded.CreatedAt))
}

// TestParseOrderPage 测试订单列表的多种包装形式
func TestParseOrderPage(t *testing.T) {
	list := "[" + orderJSON(1, "Pending") + "," + orderJSON(2, "Completed") + "]"

	tests := []struct {
		name    string
		payload string
		total   int64
	}{
		{name: "orders", payload: `{"orders":` + list + `,"total":10}`, total: 10},
		{name: "list", payload: `{"list":` + list + `,"total":10}`, total: 10},
		{name: "Items", payload: `{"Items":` + list + `,"Total":10}`, total: 10},
		{name: "裸数组", payload: list, total: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParseOrderPage([]byte(tt.payload))
			require.NoError(t, err)
			require.Len(t, page.Orders, 2)
			assert.Equal(t, int64(1), page.Orders[0].ID)
			assert.Equal(t, OrderStatusCompleted, page.Orders[1].Status)
			assert.Equal(t, tt.total, page.Total)
		})
	}

	page, err := ParseOrderPage([]byte(`{"list":[]}`))
	require.NoError(t, err)
	assert.Empty(t, page.Orders)
}

// TestParseOrderPageNestedError 测试列表内订单错误带有下标路径
func TestParseOrderPageNestedError(t *testing.T) {
	payload := `{"list":[` + orderJSON(1, "Pending") + "," + orderJSON(2, "Bogus") + `]}`
	_, err := ParseOrderPage([]byte(payload))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "order_page", ve.Entity)
	assert.Equal(t, "orders[1].status", ve.Field)

	_, err = ParseOrderPage([]byte(`{"total":3}`))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "orders", ve.Field)
}

// TestSignedMessage 测试签名消息校验
func TestSignedMessage(t *testing.T) {
	valid := SignedMessage{Message: "te_cancel_42", Signature: "0xabc"}
	assert.NoError(t, valid.Validate())

	var ve *ValidationError
	require.ErrorAs(t, SignedMessage{Message: "cancel", Signature: "0xabc"}.Validate(), &ve)
	assert.Equal(t, "message", ve.Field)

	require.ErrorAs(t, SignedMessage{Message: "te_x"}.Validate(), &ve)
	assert.Equal(t, "signature", ve.Field)

	var decoded SignedMessage
	require.NoError(t, json.Unmarshal([]byte(`{"Message":"te_1","signature":"sig"}`), &decoded))
	assert.Equal(t, "te_1", decoded.Message)
	assert.Error(t, json.Unmarshal([]byte(`{"message":"te-1","signature":"sig"}`), &decoded))
}

// TestParseBalance 测试余额解析
func TestParseBalance(t *testing.T) {
	v, err := parseBalance([]byte(`{"Value":"1500000"}`))
	require.NoError(t, err)
	assert.Equal(t, "1500000", v.String())

	_, err = parseBalance([]byte(`{"value":1.5}`))
	assert.ErrorIs(t, err, ErrValidation)
}
