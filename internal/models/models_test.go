package models

import (
	"testing"

	"github.com/mauv0809/valuedash/internal/valuation"
	"github.com/shopspring/decimal"
)

func TestDiscount(t *testing.T) {
	price := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	tests := []struct {
		name   string
		sec    Security
		want   string
		wantOK bool
	}{
		{"below target", Security{Price: price("75"), Analysis: &valuation.Analysis{Target: 100}}, "0.25", true},
		{"above target", Security{Price: price("125"), Analysis: &valuation.Analysis{Target: 100}}, "-0.25", true},
		{"negative target", Security{Price: price("10"), Analysis: &valuation.Analysis{Target: -20}}, "-1.5", true},
		{"no price", Security{Analysis: &valuation.Analysis{Target: 100}}, "0", false},
		{"no analysis", Security{Price: price("10")}, "0", false},
		{"zero target", Security{Price: price("10"), Analysis: &valuation.Analysis{}}, "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.sec.Discount()
			if ok != tt.wantOK || !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Discount() = %s, %v; want %s, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
