package ingest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// buildColumnIndex creates a map from column name to array index.
func buildColumnIndex(columns []Column) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, col := range columns {
		idx[col.Name] = i
	}
	return idx
}

// getString safely extracts a string from row data.
func getString(row []interface{}, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) || row[i] == nil {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return fmt.Sprintf("%v", row[i])
}

// getBool safely extracts a boolean from row data.
func getBool(row []interface{}, idx map[string]int, col string) bool {
	i, ok := idx[col]
	if !ok || i >= len(row) || row[i] == nil {
		return false
	}
	switch v := row[i].(type) {
	case bool:
		return v
	case string:
		return v == "Y" || v == "true" || v == "1"
	case float64:
		return v != 0
	}
	return false
}

// getDecimal safely extracts a decimal from row data.
func getDecimal(row []interface{}, idx map[string]int, col string) *decimal.Decimal {
	i, ok := idx[col]
	if !ok || i >= len(row) || row[i] == nil {
		return nil
	}
	switch v := row[i].(type) {
	case float64:
		d := decimal.NewFromFloat(v)
		return &d
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil
		}
		return &d
	}
	return nil
}

// getTime safely extracts a time.Time from row data (expects YYYY-MM-DD format).
func getTime(row []interface{}, idx map[string]int, col string) *time.Time {
	i, ok := idx[col]
	if !ok || i >= len(row) || row[i] == nil {
		return nil
	}
	if s, ok := row[i].(string); ok && s != "" {
		// Try multiple formats
		formats := []string{
			"2006-01-02",
			"2006-01-02T15:04:05.000Z",
			"2006-01-02 15:04:05",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, s); err == nil {
				return &t
			}
		}
	}
	return nil
}

// ParseTickers parses a SHARADAR/TICKERS response into typed rows.
func ParseTickers(resp *Response) ([]TickerRow, error) {
	idx := buildColumnIndex(resp.Datatable.Columns)
	rows := make([]TickerRow, 0, len(resp.Datatable.Data))

	for _, row := range resp.Datatable.Data {
		tr := TickerRow{
			Ticker:      getString(row, idx, "ticker"),
			Name:        getString(row, idx, "name"),
			Exchange:    getString(row, idx, "exchange"),
			Sector:      getString(row, idx, "sector"),
			Industry:    getString(row, idx, "industry"),
			Currency:    getString(row, idx, "currency"),
			IsDelisted:  getBool(row, idx, "isdelisted"),
			LastUpdated: getTime(row, idx, "lastupdated"),
		}
		if tr.Ticker != "" {
			rows = append(rows, tr)
		}
	}

	return rows, nil
}

// ParseSF1 parses a SHARADAR/SF1 response into typed rows.
func ParseSF1(resp *Response) ([]SF1Row, error) {
	idx := buildColumnIndex(resp.Datatable.Columns)
	rows := make([]SF1Row, 0, len(resp.Datatable.Data))

	for _, row := range resp.Datatable.Data {
		dateKey := getTime(row, idx, "datekey")
		if dateKey == nil {
			continue // Skip rows without a datekey
		}

		calendarDate := getTime(row, idx, "calendardate")
		if calendarDate == nil {
			calendarDate = dateKey
		}

		sr := SF1Row{
			Ticker:       getString(row, idx, "ticker"),
			Dimension:    getString(row, idx, "dimension"),
			CalendarDate: *calendarDate,
			DateKey:      *dateKey,
			ReportPeriod: getTime(row, idx, "reportperiod"),
			LastUpdated:  getTime(row, idx, "lastupdated"),

			NetIncome:   getDecimal(row, idx, "netinccmn"),
			SharesDil:   getDecimal(row, idx, "shareswadil"),
			Assets:      getDecimal(row, idx, "assets"),
			Liabilities: getDecimal(row, idx, "liabilities"),
			Equity:      getDecimal(row, idx, "equity"),
		}
		if sr.Ticker != "" {
			rows = append(rows, sr)
		}
	}

	return rows, nil
}

// ParseDaily parses a SHARADAR/DAILY response into typed rows.
func ParseDaily(resp *Response) ([]DailyRow, error) {
	idx := buildColumnIndex(resp.Datatable.Columns)
	rows := make([]DailyRow, 0, len(resp.Datatable.Data))

	for _, row := range resp.Datatable.Data {
		date := getTime(row, idx, "date")
		if date == nil {
			continue
		}

		dr := DailyRow{
			Ticker:      getString(row, idx, "ticker"),
			Date:        *date,
			Close:       getDecimal(row, idx, "close"),
			CloseUnadj:  getDecimal(row, idx, "closeunadj"),
			LastUpdated: getTime(row, idx, "lastupdated"),
		}
		if dr.Ticker != "" {
			rows = append(rows, dr)
		}
	}

	return rows, nil
}
