package models

import (
	"time"

	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/mauv0809/valuedash/internal/valuation"
	"github.com/shopspring/decimal"
)

type Security struct {
	Symbol             string                `json:"symbol"`
	Name               string                `json:"name"`
	Sector             string                `json:"sector"`
	ExchangeCurrency   string                `json:"exchange_currency"`
	Price              *decimal.Decimal      `json:"price"`
	PriceDate          *time.Time            `json:"price_date"`
	FinancialsCurrency string                `json:"financials_currency"`
	FinancialsUpdated  *time.Time            `json:"financials_updated"`
	Assumptions        valuation.Assumptions `json:"assumptions"`
	Analysis           *valuation.Analysis   `json:"analysis"`
	Statements         []statement.Statement `json:"statements"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// Overview is the descriptive part of a security, as entered by the user or
// looked up from the ticker table.
type Overview struct {
	Symbol           string `json:"symbol"`
	Name             string `json:"name"`
	Sector           string `json:"sector"`
	ExchangeCurrency string `json:"exchange_currency"`
}

// Discount returns how far the price sits below the analysis target, as a
// fraction of the target. ok is false when either is unknown.
func (s Security) Discount() (d decimal.Decimal, ok bool) {
	if s.Price == nil || s.Analysis == nil || s.Analysis.Target == 0 {
		return decimal.Zero, false
	}
	target := decimal.NewFromFloat(s.Analysis.Target)
	return target.Sub(*s.Price).Div(target.Abs()), true
}

type ExchangeRate struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
	Date time.Time       `json:"date"`
}
