package views

import (
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Price formats amount in currency, falling back to a plain two-decimal
// number when the currency code is unknown.
func Price(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		s := amount.StringFixed(2)
		if currency != "" {
			s += " " + currency
		}
		return s
	}

	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), cur.Code).Display()
}

// PriceFromFloat is Price for computed per-share values.
func PriceFromFloat(amount float64, currency string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "-"
	}
	return Price(decimal.NewFromFloat(amount), currency)
}

// Amount formats a reported figure, showing a dash when it is missing.
func Amount(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Percent formats a fraction as a percentage.
func Percent(f float64) string {
	return strconv.FormatFloat(f*100, 'f', 2, 64) + "%"
}
