package utils

import (
	"testing"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"12.00", "USD", 1200},
		{"12.345", "USD", 1235},
		{"0.5", "eur", 50},
		{"1500", "JPY", 1500},
		{"", "USD", 0},
		{" 7.1 ", "GBP", 710},
	}

	for _, tt := range tests {
		got, err := ToMinorUnits(tt.amount, tt.currency)
		if err != nil {
			t.Errorf("ToMinorUnits(%q, %q) 返回错误: %v", tt.amount, tt.currency, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToMinorUnits(%q, %q) = %d, 期望 %d", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestToMinorUnits_Invalid(t *testing.T) {
	if _, err := ToMinorUnits("12,00", "USD"); err == nil {
		t.Error("非法金额应返回错误")
	}
}
