package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/valuedash/internal/db"
	"github.com/mauv0809/valuedash/internal/models"
	"github.com/shopspring/decimal"
)

type memStore map[string]models.ExchangeRate

func (m memStore) GetExchangeRate(_ context.Context, from, to string) (models.ExchangeRate, error) {
	r, ok := m[from+to]
	if !ok {
		return models.ExchangeRate{}, db.ErrNotFound
	}
	return r, nil
}

func (m memStore) UpsertExchangeRate(_ context.Context, r models.ExchangeRate) error {
	m[r.From+r.To] = r
	return nil
}

type countingFetcher struct {
	rate  decimal.Decimal
	err   error
	calls int
}

func (f *countingFetcher) Fetch(context.Context, string, string) (decimal.Decimal, error) {
	f.calls++
	return f.rate, f.err
}

var testNow = time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC)

func newTestService(store memStore, f Fetcher) *Service {
	s := NewService(store, f)
	s.now = func() time.Time { return testNow }
	return s
}

func TestGetFetchesOncePerDay(t *testing.T) {
	store := memStore{}
	f := &countingFetcher{rate: decimal.RequireFromString("0.92")}
	svc := newTestService(store, f)

	for i := 0; i < 3; i++ {
		r, err := svc.Get(context.Background(), "usd", "eur")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if r.From != "USD" || r.To != "EUR" || r.Rate.String() != "0.92" {
			t.Errorf("rate = %+v", r)
		}
	}
	if f.calls != 1 {
		t.Errorf("fetched %d times, want 1", f.calls)
	}
}

func TestGetRefreshesStaleRate(t *testing.T) {
	store := memStore{"USDEUR": {From: "USD", To: "EUR", Rate: decimal.RequireFromString("0.9"), Date: testNow.AddDate(0, 0, -2)}}
	f := &countingFetcher{rate: decimal.RequireFromString("0.95")}

	r, err := newTestService(store, f).Get(context.Background(), "USD", "EUR")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.Rate.String() != "0.95" || f.calls != 1 {
		t.Errorf("rate = %s after %d fetches", r.Rate, f.calls)
	}
}

func TestGetFallsBackToStaleRate(t *testing.T) {
	stale := models.ExchangeRate{From: "USD", To: "EUR", Rate: decimal.RequireFromString("0.9"), Date: testNow.AddDate(0, 0, -2)}
	store := memStore{"USDEUR": stale}

	r, err := newTestService(store, &countingFetcher{err: errors.New("offline")}).Get(context.Background(), "USD", "EUR")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !r.Rate.Equal(stale.Rate) {
		t.Errorf("rate = %s, want the stale %s", r.Rate, stale.Rate)
	}
}

func TestGetSameCurrency(t *testing.T) {
	f := &countingFetcher{}
	r, err := newTestService(memStore{}, f).Get(context.Background(), "SEK", "sek")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !r.Rate.Equal(decimal.NewFromInt(1)) || f.calls != 0 {
		t.Errorf("rate = %s after %d fetches", r.Rate, f.calls)
	}
}

func TestGetInvalidPair(t *testing.T) {
	if _, err := newTestService(memStore{}, &countingFetcher{}).Get(context.Background(), "US", "EUR"); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestSet(t *testing.T) {
	store := memStore{}
	svc := newTestService(store, &countingFetcher{})

	if _, err := svc.Set(context.Background(), "USD", "EUR", decimal.Zero); err == nil {
		t.Error("expected an error for a zero rate")
	}

	r, err := svc.Set(context.Background(), "usd", "eur", decimal.RequireFromString("0.93"))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := store["USDEUR"]; !got.Rate.Equal(r.Rate) || !got.Date.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("stored = %+v", got)
	}
}
