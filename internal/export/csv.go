// Package export writes the tracked securities as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mauv0809/valuedash/internal/models"
)

var header = []string{
	"Symbol",
	"Name",
	"Sector",
	"Exchange Currency",
	"Price",
	"Price - Updated Date",
	"Financials - Updated Date",
	"Financials - Currency",
	"Financials - Date",
	"Financials - Income",
	"Financials - Shares",
	"Financials - Assets",
	"Financials - Liabilities",
	"Financials - Book Value",
}

// WriteCSV writes one row per statement of every security. Securities
// without statements are left out; missing figures are empty cells.
func WriteCSV(w io.Writer, securities []models.Security) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, sec := range securities {
		price := ""
		if sec.Price != nil {
			price = sec.Price.String()
		}
		for _, st := range sec.Statements {
			row := []string{
				sec.Symbol,
				sec.Name,
				sec.Sector,
				sec.ExchangeCurrency,
				price,
				formatDate(sec.PriceDate),
				formatDate(sec.FinancialsUpdated),
				sec.FinancialsCurrency,
				st.PeriodID,
				formatAmount(st.Income),
				formatAmount(st.Shares),
				formatAmount(st.Assets),
				formatAmount(st.Liabilities),
				formatAmount(st.BookValue),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("writing %s %s: %w", sec.Symbol, st.PeriodID, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// Filename is the download name of an export made at t.
func Filename(t time.Time) string {
	return "export-" + t.Format("2006-01-02") + ".csv"
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
