package db

import (
	"math"

	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/shopspring/decimal"
)

// statementRow is a financial_statements row. Amounts are stored as NUMERIC
// and NULL marks a figure that was not reported.
type statementRow struct {
	PeriodID       string
	Income         decimal.NullDecimal
	Shares         decimal.NullDecimal
	Assets         decimal.NullDecimal
	Liabilities    decimal.NullDecimal
	BookValue      decimal.NullDecimal
	BackfilledFrom string
}

func (r statementRow) statement() statement.Statement {
	return statement.Statement{
		PeriodID:       r.PeriodID,
		Income:         floatPtr(r.Income),
		Shares:         floatPtr(r.Shares),
		Assets:         floatPtr(r.Assets),
		Liabilities:    floatPtr(r.Liabilities),
		BookValue:      floatPtr(r.BookValue),
		BackfilledFrom: r.BackfilledFrom,
	}
}

// nullDecimal converts an optional amount for insertion. Non-finite values
// have no NUMERIC representation and are stored as NULL.
func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

func floatPtr(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	return statement.Float(d.Decimal.InexactFloat64())
}
