package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// YahooPrices reads the latest regular-market price from Yahoo Finance. It
// serves prices when no Sharadar key is configured.
type YahooPrices struct {
	get func(symbol string) (*finance.Quote, error)
}

func NewYahooPrices() *YahooPrices {
	return &YahooPrices{get: quote.Get}
}

// FetchLatestPrice returns the regular-market price of ticker and the time it
// was quoted.
func (y *YahooPrices) FetchLatestPrice(ctx context.Context, ticker string) (decimal.Decimal, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, time.Time{}, err
	}

	q, err := y.get(strings.ToUpper(ticker))
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("getting quote for %s: %w", ticker, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return decimal.Zero, time.Time{}, fmt.Errorf("quote for %s: %w", ticker, ErrNoData)
	}

	at := time.Now()
	if q.RegularMarketTime > 0 {
		at = time.Unix(int64(q.RegularMarketTime), 0)
	}
	return decimal.NewFromFloat(q.RegularMarketPrice), at.UTC(), nil
}
