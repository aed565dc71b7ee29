package db

import (
	"math"
	"testing"

	"github.com/mauv0809/valuedash/internal/statement"
)

func TestStatementRowRoundTrip(t *testing.T) {
	in := statement.Statement{
		PeriodID:       statement.TTM,
		Income:         statement.Float(-1234567.25),
		Shares:         statement.Float(1e9),
		Assets:         statement.Float(0),
		BackfilledFrom: "2023-12-31",
	}

	row := statementRow{
		PeriodID:       in.PeriodID,
		Income:         nullDecimal(in.Income),
		Shares:         nullDecimal(in.Shares),
		Assets:         nullDecimal(in.Assets),
		Liabilities:    nullDecimal(in.Liabilities),
		BookValue:      nullDecimal(in.BookValue),
		BackfilledFrom: in.BackfilledFrom,
	}
	got := row.statement()

	if *got.Income != -1234567.25 || *got.Shares != 1e9 {
		t.Errorf("income/shares = %v/%v, want -1234567.25/1e9", *got.Income, *got.Shares)
	}
	if got.Assets == nil || *got.Assets != 0 {
		t.Errorf("assets = %v, want a stored zero", got.Assets)
	}
	if got.Liabilities != nil || got.BookValue != nil {
		t.Errorf("missing values came back as %v/%v", got.Liabilities, got.BookValue)
	}
	if got.BackfilledFrom != "2023-12-31" {
		t.Errorf("BackfilledFrom = %q", got.BackfilledFrom)
	}
}

func TestNullDecimalNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if d := nullDecimal(&v); d.Valid {
			t.Errorf("nullDecimal(%v) is valid", v)
		}
	}
}
