package ingest

import (
	"context"
	"errors"
	"testing"

	finance "github.com/piquette/finance-go"
)

func TestYahooPrices(t *testing.T) {
	y := &YahooPrices{get: func(symbol string) (*finance.Quote, error) {
		switch symbol {
		case "ACME":
			return &finance.Quote{RegularMarketPrice: 41.5, RegularMarketTime: 1709596800}, nil
		case "GONE":
			return nil, nil
		}
		return nil, errors.New("network down")
	}}

	price, at, err := y.FetchLatestPrice(context.Background(), "acme")
	if err != nil {
		t.Fatalf("FetchLatestPrice: %v", err)
	}
	if price.String() != "41.5" || at.Unix() != 1709596800 {
		t.Errorf("got %s at %v", price, at)
	}

	if _, _, err := y.FetchLatestPrice(context.Background(), "GONE"); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
	if _, _, err := y.FetchLatestPrice(context.Background(), "FAIL"); err == nil {
		t.Error("expected an error")
	}
}
