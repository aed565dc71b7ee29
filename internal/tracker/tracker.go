// Package tracker keeps a security's statements, analysis and price current.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/mauv0809/valuedash/internal/valuation"
	"github.com/shopspring/decimal"
)

// ErrNoSource is returned when a refresh needs a data source that is not
// configured.
var ErrNoSource = errors.New("no data source configured")

// AnalyzeFunc computes the analysis stored with a statement series. Stores
// call it while they hold the security's lock, with the series and
// assumptions that will be committed. A nil analysis clears the stored one.
type AnalyzeFunc = func(history []statement.Statement, a valuation.Assumptions) (*valuation.Analysis, error)

// Store is the persistence the service needs. Every method taking an
// AnalyzeFunc writes its change and the resulting analysis atomically, so
// the stored analysis always belongs to the stored series.
type Store interface {
	UpdateStatements(ctx context.Context, symbol, currency string, merge func([]statement.Statement) []statement.Statement, analyze AnalyzeFunc) ([]statement.Statement, error)
	SaveAssumptions(ctx context.Context, symbol string, a valuation.Assumptions, analyze AnalyzeFunc) ([]statement.Statement, error)
	Reanalyze(ctx context.Context, symbol string, analyze AnalyzeFunc) ([]statement.Statement, error)
	UpdatePrice(ctx context.Context, symbol string, price decimal.Decimal, date time.Time) error
}

// FundamentalsSource provides the statement history of a ticker.
type FundamentalsSource interface {
	FetchStatements(ctx context.Context, ticker string) ([]statement.Statement, error)
}

// PriceSource provides the latest price of a ticker.
type PriceSource interface {
	FetchLatestPrice(ctx context.Context, ticker string) (decimal.Decimal, time.Time, error)
}

// Result is the outcome of a statement update. AnalysisError is set when the
// stored history cannot be analysed; the statements are saved regardless and
// the previous analysis is cleared.
type Result struct {
	Statements    []statement.Statement
	Analysis      *valuation.Analysis
	AnalysisError error
}

type Service struct {
	store        Store
	engine       *valuation.Engine
	fundamentals FundamentalsSource
	prices       PriceSource
}

type Option func(*Service)

func WithFundamentals(src FundamentalsSource) Option {
	return func(s *Service) { s.fundamentals = src }
}

func WithPrices(src PriceSource) Option {
	return func(s *Service) { s.prices = src }
}

func NewService(store Store, engine *valuation.Engine, opts ...Option) *Service {
	s := &Service{store: store, engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasFundamentals reports whether RefreshFundamentals can run.
func (s *Service) HasFundamentals() bool { return s.fundamentals != nil }

// HasPrices reports whether RefreshPrice can run.
func (s *Service) HasPrices() bool { return s.prices != nil }

// RefreshFundamentals fetches the statements of symbol from the configured
// source and merges them into the stored series.
func (s *Service) RefreshFundamentals(ctx context.Context, symbol string) (Result, error) {
	if s.fundamentals == nil {
		return Result{}, ErrNoSource
	}

	incoming, err := s.fundamentals.FetchStatements(ctx, symbol)
	if err != nil {
		return Result{}, fmt.Errorf("fetching statements of %s: %w", symbol, err)
	}
	log.Printf("Fetched %d statements for %s", len(incoming), symbol)

	return s.MergeStatements(ctx, symbol, "", incoming)
}

// MergeStatements reconciles incoming with the stored series of symbol,
// saves the result and recomputes the analysis.
func (s *Service) MergeStatements(ctx context.Context, symbol, currency string, incoming []statement.Statement) (Result, error) {
	var res Result
	merged, err := s.store.UpdateStatements(ctx, symbol, currency, func(existing []statement.Statement) []statement.Statement {
		return statement.Reconcile(existing, incoming)
	}, s.analyzer(symbol, &res))
	if err != nil {
		return Result{}, fmt.Errorf("updating statements of %s: %w", symbol, err)
	}
	res.Statements = merged
	return res, nil
}

// UpdateAssumptions validates and saves new assumptions together with the
// analysis they produce.
func (s *Service) UpdateAssumptions(ctx context.Context, symbol string, a valuation.Assumptions) (Result, error) {
	if err := a.Validate(); err != nil {
		return Result{}, err
	}

	var res Result
	history, err := s.store.SaveAssumptions(ctx, symbol, a, s.analyzer(symbol, &res))
	if err != nil {
		return Result{}, err
	}
	res.Statements = history
	return res, nil
}

// Recalculate recomputes the analysis from the stored statements and
// assumptions.
func (s *Service) Recalculate(ctx context.Context, symbol string) (Result, error) {
	var res Result
	history, err := s.store.Reanalyze(ctx, symbol, s.analyzer(symbol, &res))
	if err != nil {
		return Result{}, err
	}
	res.Statements = history
	return res, nil
}

// RefreshPrice records the latest price of symbol.
func (s *Service) RefreshPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	if s.prices == nil {
		return decimal.Zero, time.Time{}, ErrNoSource
	}

	price, at, err := s.prices.FetchLatestPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("fetching price of %s: %w", symbol, err)
	}
	if err := s.store.UpdatePrice(ctx, symbol, price, at); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return price, at, nil
}

// analyzer records the outcome of the analysis in res. The two data errors
// clear the stored analysis instead of failing the write.
func (s *Service) analyzer(symbol string, res *Result) AnalyzeFunc {
	return func(history []statement.Statement, a valuation.Assumptions) (*valuation.Analysis, error) {
		analysis, err := s.engine.Analyze(history, a)
		switch {
		case errors.Is(err, valuation.ErrInsufficientData), errors.Is(err, valuation.ErrDegenerateShareCount):
			log.Printf("Cannot analyse %s: %v", symbol, err)
			res.Analysis, res.AnalysisError = nil, err
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("analysing %s: %w", symbol, err)
		}
		res.Analysis, res.AnalysisError = &analysis, nil
		return &analysis, nil
	}
}
