package rates

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/mauv0809/valuedash/internal/db"
	"github.com/mauv0809/valuedash/internal/models"
	"github.com/shopspring/decimal"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// ErrInvalidRequest is returned for malformed currency codes and rates.
var ErrInvalidRequest = errors.New("invalid rate request")

// Store caches rates between lookups.
type Store interface {
	GetExchangeRate(ctx context.Context, from, to string) (models.ExchangeRate, error)
	UpsertExchangeRate(ctx context.Context, rate models.ExchangeRate) error
}

// Fetcher looks a rate up at its source.
type Fetcher interface {
	Fetch(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Service answers rate lookups from the store, fetching at most once per
// pair and day.
type Service struct {
	store   Store
	fetcher Fetcher
	now     func() time.Time
}

func NewService(store Store, fetcher Fetcher) *Service {
	return &Service{store: store, fetcher: fetcher, now: time.Now}
}

// NormalizePair upper-cases and checks a pair of ISO 4217 codes.
func NormalizePair(from, to string) (string, string, error) {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if !currencyCode.MatchString(from) || !currencyCode.MatchString(to) {
		return "", "", fmt.Errorf("%w: currency pair %q/%q", ErrInvalidRequest, from, to)
	}
	return from, to, nil
}

// Get returns the rate from one currency to another.
func (s *Service) Get(ctx context.Context, from, to string) (models.ExchangeRate, error) {
	from, to, err := NormalizePair(from, to)
	if err != nil {
		return models.ExchangeRate{}, err
	}
	today := truncateDay(s.now())
	if from == to {
		return models.ExchangeRate{From: from, To: to, Rate: decimal.NewFromInt(1), Date: today}, nil
	}

	cached, err := s.store.GetExchangeRate(ctx, from, to)
	switch {
	case err == nil && !cached.Date.Before(today):
		return cached, nil
	case err != nil && !errors.Is(err, db.ErrNotFound):
		return models.ExchangeRate{}, err
	}

	rate, err := s.fetcher.Fetch(ctx, from, to)
	if err != nil {
		if cached.From != "" {
			log.Printf("Using cached %s/%s rate from %s: %v", from, to, cached.Date.Format("2006-01-02"), err)
			return cached, nil
		}
		return models.ExchangeRate{}, err
	}

	fresh := models.ExchangeRate{From: from, To: to, Rate: rate, Date: today}
	if err := s.store.UpsertExchangeRate(ctx, fresh); err != nil {
		return models.ExchangeRate{}, err
	}
	return fresh, nil
}

// Set stores a rate entered by hand for today.
func (s *Service) Set(ctx context.Context, from, to string, rate decimal.Decimal) (models.ExchangeRate, error) {
	from, to, err := NormalizePair(from, to)
	if err != nil {
		return models.ExchangeRate{}, err
	}
	if !rate.IsPositive() {
		return models.ExchangeRate{}, fmt.Errorf("%w: rate must be positive, got %s", ErrInvalidRequest, rate)
	}

	r := models.ExchangeRate{From: from, To: to, Rate: rate, Date: truncateDay(s.now())}
	if err := s.store.UpsertExchangeRate(ctx, r); err != nil {
		return models.ExchangeRate{}, err
	}
	return r, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
