package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/valuedash/internal/models"
	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/shopspring/decimal"
)

func TestWriteCSV(t *testing.T) {
	price := decimal.RequireFromString("41.75")
	priceDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	securities := []models.Security{
		{
			Symbol:             "ACME",
			Name:               "Acme, Inc.",
			Sector:             "Industrials",
			ExchangeCurrency:   "USD",
			Price:              &price,
			PriceDate:          &priceDate,
			FinancialsCurrency: "USD",
			Statements: []statement.Statement{
				{PeriodID: statement.TTM, Income: statement.Float(130), Shares: statement.Float(1e9)},
				{PeriodID: "2023-12-31", Income: statement.Float(-12.5), Shares: statement.Float(10),
					Assets: statement.Float(1000), Liabilities: statement.Float(400), BookValue: statement.Float(600)},
			},
		},
		{Symbol: "EMPTY"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, securities); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2", len(records))
	}
	if strings.Join(records[0], "|") != strings.Join(header, "|") {
		t.Errorf("header = %v", records[0])
	}

	ttm := records[1]
	if ttm[1] != "Acme, Inc." || ttm[4] != "41.75" || ttm[5] != "2024-03-04" || ttm[6] != "" {
		t.Errorf("security columns = %v", ttm[:8])
	}
	if ttm[8] != "TTM" || ttm[9] != "130" || ttm[10] != "1000000000" || ttm[11] != "" {
		t.Errorf("TTM columns = %v", ttm[8:])
	}
	if got := strings.Join(records[2][8:], ","); got != "2023-12-31,-12.5,10,1000,400,600" {
		t.Errorf("annual columns = %s", got)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC)); got != "export-2024-03-04.csv" {
		t.Errorf("Filename = %s", got)
	}
}
