package ingest

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// SF1 dimensions used for statements: most-recent-reported annual rows and
// most-recent-reported trailing-twelve-months rows.
const (
	DimensionAnnual   = "MRY"
	DimensionTrailing = "MRT"
)

// ErrNoData is returned when the API answers with no usable row.
var ErrNoData = errors.New("no data")

// Response is the raw API response from Nasdaq Data Link Tables API.
// The data is column-oriented: columns define the schema, data contains rows as arrays.
type Response struct {
	Datatable struct {
		Data    [][]interface{} `json:"data"`
		Columns []Column        `json:"columns"`
	} `json:"datatable"`
	Meta struct {
		NextCursorID *string `json:"next_cursor_id"`
	} `json:"meta"`
}

// Column describes a column in the response.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TickerRow represents a row from SHARADAR/TICKERS table.
type TickerRow struct {
	Ticker      string
	Name        string
	Exchange    string
	Sector      string
	Industry    string
	Currency    string
	IsDelisted  bool
	LastUpdated *time.Time
}

// SF1Row represents a row from SHARADAR/SF1 table (fundamentals).
type SF1Row struct {
	Ticker       string
	Dimension    string
	CalendarDate time.Time
	DateKey      time.Time
	ReportPeriod *time.Time
	LastUpdated  *time.Time

	// Figures a statement is built from
	NetIncome   *decimal.Decimal // netinccmn: net income to common stockholders
	SharesDil   *decimal.Decimal // shareswadil: diluted weighted average shares
	Assets      *decimal.Decimal
	Liabilities *decimal.Decimal
	Equity      *decimal.Decimal
}

// DailyRow represents a row from SHARADAR/DAILY table (daily prices).
type DailyRow struct {
	Ticker      string
	Date        time.Time
	Close       *decimal.Decimal
	CloseUnadj  *decimal.Decimal
	LastUpdated *time.Time
}
