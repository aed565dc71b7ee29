package ingest

import (
	"fmt"
	"time"

	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/shopspring/decimal"
)

// StatementsFromSF1 maps annual SF1 rows to dated statements and the most
// recent trailing row to the TTM statement. The TTM statement carries income
// and shares only; its balance sheet is backfilled from the latest annual
// period on reconcile.
func StatementsFromSF1(annual, trailing []SF1Row) []statement.Statement {
	byPeriod := make(map[string]SF1Row, len(annual))
	for _, row := range annual {
		id := periodID(row)
		if cur, ok := byPeriod[id]; ok && !row.DateKey.After(cur.DateKey) {
			continue
		}
		byPeriod[id] = row
	}

	out := make([]statement.Statement, 0, len(byPeriod)+1)

	var latest *SF1Row
	for i := range trailing {
		if latest == nil || trailing[i].DateKey.After(latest.DateKey) {
			latest = &trailing[i]
		}
	}
	if latest != nil {
		out = append(out, statement.Statement{
			PeriodID: statement.TTM,
			Income:   toFloat(latest.NetIncome),
			Shares:   toFloat(latest.SharesDil),
		})
	}

	for id, row := range byPeriod {
		out = append(out, statement.Statement{
			PeriodID:    id,
			Income:      toFloat(row.NetIncome),
			Shares:      toFloat(row.SharesDil),
			Assets:      toFloat(row.Assets),
			Liabilities: toFloat(row.Liabilities),
			BookValue:   toFloat(row.Equity),
		})
	}

	statement.Sort(out)
	return out
}

// LatestClose returns the close of the most recent row.
func LatestClose(rows []DailyRow) (decimal.Decimal, time.Time, error) {
	var latest *DailyRow
	for i := range rows {
		if rows[i].Close == nil {
			continue
		}
		if latest == nil || rows[i].Date.After(latest.Date) {
			latest = &rows[i]
		}
	}
	if latest == nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("close price: %w", ErrNoData)
	}
	return *latest.Close, latest.Date, nil
}

func periodID(row SF1Row) string {
	if row.ReportPeriod != nil {
		return row.ReportPeriod.Format("2006-01-02")
	}
	return row.CalendarDate.Format("2006-01-02")
}

func toFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	return statement.Float(d.InexactFloat64())
}
