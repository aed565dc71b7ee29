package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/shopspring/decimal"
)

func dec(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStatementsFromSF1(t *testing.T) {
	rp := day("2023-12-30")
	annual := []SF1Row{
		{Ticker: "ACME", CalendarDate: day("2022-12-31"), DateKey: day("2023-02-10"),
			NetIncome: dec(90), SharesDil: dec(10), Assets: dec(900), Liabilities: dec(300), Equity: dec(600)},
		{Ticker: "ACME", CalendarDate: day("2023-12-31"), DateKey: day("2024-02-10"), ReportPeriod: &rp,
			NetIncome: dec(120), SharesDil: dec(10), Assets: dec(1000), Liabilities: dec(400), Equity: dec(600)},
	}
	trailing := []SF1Row{
		{Ticker: "ACME", DateKey: day("2024-05-01"), NetIncome: dec(125), SharesDil: dec(11), Assets: dec(1)},
		{Ticker: "ACME", DateKey: day("2024-08-01"), NetIncome: dec(130), SharesDil: dec(12), Assets: dec(1)},
	}

	got := StatementsFromSF1(annual, trailing)

	wantIDs := []string{statement.TTM, "2023-12-30", "2022-12-31"}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d statements, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].PeriodID != id {
			t.Errorf("statement %d = %s, want %s", i, got[i].PeriodID, id)
		}
	}

	ttm := got[0]
	if *ttm.Income != 130 || *ttm.Shares != 12 {
		t.Errorf("TTM income/shares = %v/%v, want the latest trailing row", *ttm.Income, *ttm.Shares)
	}
	if ttm.Assets != nil || ttm.Liabilities != nil || ttm.BookValue != nil {
		t.Error("TTM statement should not carry a balance sheet")
	}
	if *got[1].BookValue != 600 || *got[1].Liabilities != 400 {
		t.Errorf("annual balance sheet = %+v", got[1])
	}
}

func TestStatementsFromSF1KeepsLatestRestatement(t *testing.T) {
	annual := []SF1Row{
		{CalendarDate: day("2023-12-31"), DateKey: day("2024-02-10"), NetIncome: dec(100)},
		{CalendarDate: day("2023-12-31"), DateKey: day("2024-06-10"), NetIncome: dec(95)},
	}

	got := StatementsFromSF1(annual, nil)
	if len(got) != 1 || *got[0].Income != 95 {
		t.Errorf("got %+v, want the restated income 95", got)
	}
}

func TestLatestClose(t *testing.T) {
	rows := []DailyRow{
		{Date: day("2024-03-01"), Close: dec(40)},
		{Date: day("2024-03-04"), Close: dec(42)},
		{Date: day("2024-03-05")},
	}

	price, at, err := LatestClose(rows)
	if err != nil {
		t.Fatalf("LatestClose: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(42)) || !at.Equal(day("2024-03-04")) {
		t.Errorf("got %s at %s, want 42 at 2024-03-04", price, at)
	}

	if _, _, err := LatestClose(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}
