package tem

import (
	"github.com/shopspring/decimal"
)

// SecondsPerDay 计费粒度（秒）
const SecondsPerDay = 86400

var secondsPerDay = decimal.NewFromInt(SecondsPerDay)

// BillableDuration 返回计费时长。不足一天的订单额外计一天。
func BillableDuration(duration decimal.Decimal) decimal.Decimal {
	if duration.LessThan(secondsPerDay) {
		return duration.Add(secondsPerDay)
	}
	return duration
}

// CalculatePayment 计算订单应付金额（SUN）
//
// payment = price * amount * billable / 86400，结果舍入到整数 SUN，规则同 TRXToSun。
// 相同输入总是得到相同结果。
func CalculatePayment(price, amount, duration decimal.Decimal) decimal.Decimal {
	return price.Mul(amount).Mul(BillableDuration(duration)).Div(secondsPerDay).Round(0)
}
