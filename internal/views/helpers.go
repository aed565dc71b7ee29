// Package views renders the dashboard pages.
package views

import (
	"net/url"
	"strconv"

	"github.com/mauv0809/valuedash/internal/models"
)

func pagePath(symbol string) string {
	return "/securities/" + url.PathEscape(symbol)
}

func apiPath(symbol string) string {
	return "/api/securities/" + url.PathEscape(symbol)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func priceOrDash(sec models.Security) string {
	if sec.Price == nil {
		return "-"
	}
	return Price(*sec.Price, sec.ExchangeCurrency)
}

// priceLine is the price with the day it was quoted.
func priceLine(sec models.Security) string {
	s := priceOrDash(sec)
	if sec.Price != nil && sec.PriceDate != nil {
		s += " (" + sec.PriceDate.Format("2006-01-02") + ")"
	}
	return s
}

func financialsLine(sec models.Security) string {
	s := orDash(sec.FinancialsCurrency)
	if sec.FinancialsUpdated != nil {
		s += ", updated " + sec.FinancialsUpdated.Format("2006-01-02 15:04")
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
