package tem

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSunToTRX 测试SUN换算为TRX的精确商
func TestSunToTRX(t *testing.T) {
	tests := []struct {
		sun      string
		expected string
	}{
		{"0", "0"},
		{"1", "0.000001"},
		{"1500000", "1.5"},
		{"123456789", "123.456789"},
		{"1000000000000000000000", "1000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.sun, func(t *testing.T) {
			got, err := SunToTRX(decimal.RequireFromString(tt.sun))
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}

// TestTRXToSunRounding 测试舍入到整数SUN，恰好一半时远离零
func TestTRXToSunRounding(t *testing.T) {
	tests := []struct {
		trx      string
		expected int64
	}{
		{"1", 1_000_000},
		{"0.0000005", 1},
		{"0.0000004999", 0},
		{"0.0000015", 2},
		{"0.0000025", 3},
		{"1.2345675", 1_234_568},
		{"1.2345674", 1_234_567},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.trx, func(t *testing.T) {
			got, err := TRXToSun(decimal.RequireFromString(tt.trx))
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tt.expected).Equal(got), "got %s", got)
			assert.True(t, got.IsInteger())
		})
	}
}

// TestConversionRejectsNegative 测试负数输入
func TestConversionRejectsNegative(t *testing.T) {
	_, err := SunToTRX(decimal.NewFromInt(-1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = TRXToSun(decimal.RequireFromString("-0.5"))
	var amountErr *InvalidAmountError
	require.ErrorAs(t, err, &amountErr)
	assert.Equal(t, "-0.5", amountErr.Value)
}

// TestTRXFloatToSun 测试浮点输入
func TestTRXFloatToSun(t *testing.T) {
	got, err := TRXFloatToSun(1.5)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1_500_000).Equal(got))

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := TRXFloatToSun(v)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}

// TestSunRoundTrip 测试SUN经TRX往返后不变
func TestSunRoundTrip(t *testing.T) {
	values := []int64{0, 1, 2, 5, 999_999, 1_000_000, 1_000_001, 123_456_789, 9_007_199_254_740_993}
	for i := int64(0); i < 2000; i += 7 {
		values = append(values, i*i*i)
	}

	for _, m := range values {
		sun := decimal.NewFromInt(m)
		trx, err := SunToTRX(sun)
		require.NoError(t, err)
		back, err := TRXToSun(trx)
		require.NoError(t, err)
		assert.True(t, sun.Equal(back), "round trip of %d gave %s", m, back)
	}
}

// TestParseAmount 测试字符串金额解析
func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("12.5")
	require.NoError(t, err)
	assert.Equal(t, "12.5", d.String())

	_, err = ParseAmount("12,5")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// TestCalculatePayment 测试订单金额计算
func TestCalculatePayment(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		amount   int64
		duration int64
		expected int64
	}{
		{name: "整天", price: 60, amount: 100_000, duration: 86400, expected: 6_000_000},
		{name: "三天", price: 60, amount: 100_000, duration: 3 * 86400, expected: 18_000_000},
		{name: "不足一天加计一天", price: 60, amount: 100_000, duration: 3600, expected: 6_250_000},
		{name: "恰好一半向上", price: 1, amount: 1, duration: 129600, expected: 2},
		{name: "小于一半向下", price: 1, amount: 1, duration: 100000, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price := decimal.NewFromInt(tt.price)
			amount := decimal.NewFromInt(tt.amount)
			duration := decimal.NewFromInt(tt.duration)

			first := CalculatePayment(price, amount, duration)
			second := CalculatePayment(price, amount, duration)
			assert.True(t, decimal.NewFromInt(tt.expected).Equal(first), "got %s", first)
			assert.True(t, first.Equal(second))
		})
	}
}

// TestBillableDuration 测试计费时长
func TestBillableDuration(t *testing.T) {
	assert.Equal(t, "90000", BillableDuration(decimal.NewFromInt(3600)).String())
	assert.Equal(t, "86400", BillableDuration(decimal.NewFromInt(86400)).String())
	assert.Equal(t, "172800", BillableDuration(decimal.NewFromInt(172800)).String())
}
