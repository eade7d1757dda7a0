package tem

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// SunPerTRX 1 TRX 对应的 SUN 数量
const SunPerTRX = 1_000_000

var sunPerTRX = decimal.NewFromInt(SunPerTRX)

// SunToTRX 将 SUN 换算为 TRX，结果为精确商，不做舍入
func SunToTRX(sun decimal.Decimal) (decimal.Decimal, error) {
	if sun.IsNegative() {
		return decimal.Zero, &InvalidAmountError{Value: sun.String(), Reason: "negative amount"}
	}
	// 除数是 10 的幂，按位移计算可保持精确
	return sun.Shift(-6), nil
}

// TRXToSun 将 TRX 换算为整数 SUN，四舍五入到最近的 SUN，恰好一半时远离零
func TRXToSun(trx decimal.Decimal) (decimal.Decimal, error) {
	if trx.IsNegative() {
		return decimal.Zero, &InvalidAmountError{Value: trx.String(), Reason: "negative amount"}
	}
	return trx.Mul(sunPerTRX).Round(0), nil
}

// TRXFloatToSun 浮点输入的换算入口，NaN 和无穷大直接拒绝
func TRXFloatToSun(trx float64) (decimal.Decimal, error) {
	if math.IsNaN(trx) || math.IsInf(trx, 0) {
		return decimal.Zero, &InvalidAmountError{
			Value:  strconv.FormatFloat(trx, 'g', -1, 64),
			Reason: "not a finite number",
		}
	}
	return TRXToSun(decimal.NewFromFloat(trx))
}

// ParseAmount 解析十进制字符串金额，用于命令行和配置输入
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &InvalidAmountError{Value: s, Reason: "not a decimal number"}
	}
	return d, nil
}
