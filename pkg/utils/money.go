package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies 没有小数位的币种
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"CLP": true,
	"ISK": true,
}

// CurrencyExponent 币种的小数位数
func CurrencyExponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// ToMinorUnits 十进制金额字符串转换为最小货币单位（四舍五入）
// 例如 "12.345" USD -> 1235
func ToMinorUnits(amount string, currency string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("金额格式错误 %q: %w", amount, err)
	}
	return d.Shift(CurrencyExponent(currency)).Round(0).IntPart(), nil
}
