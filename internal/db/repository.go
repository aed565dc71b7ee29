package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mauv0809/valuedash/internal/models"
	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/mauv0809/valuedash/internal/valuation"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a security or rate does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when creating a security that is already tracked.
	ErrExists = errors.New("already exists")
)

// Repository handles database operations for tracked securities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const securityColumns = `
	symbol, name, sector, exchange_currency,
	price, price_date, financials_currency, financials_updated,
	growth_rate, years, safety_margin, analysis_json,
	created_at, updated_at`

// CreateSecurity starts tracking a security with the given assumptions.
func (r *Repository) CreateSecurity(ctx context.Context, o models.Overview, a valuation.Assumptions) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO securities (symbol, name, sector, exchange_currency, growth_rate, years, safety_margin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO NOTHING
	`, o.Symbol, o.Name, o.Sector, o.ExchangeCurrency, a.GrowthRate, a.Years, a.SafetyMargin)
	if err != nil {
		return fmt.Errorf("inserting security: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("security %s: %w", o.Symbol, ErrExists)
	}
	return nil
}

// ListSecurities returns every tracked security with its statements.
func (r *Repository) ListSecurities(ctx context.Context) ([]models.Security, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+securityColumns+" FROM securities ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("querying securities: %w", err)
	}
	defer rows.Close()

	var securities []models.Security
	index := make(map[string]int)
	for rows.Next() {
		s, err := scanSecurity(rows)
		if err != nil {
			return nil, err
		}
		index[s.Symbol] = len(securities)
		securities = append(securities, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading securities: %w", err)
	}

	stmts, err := r.pool.Query(ctx, `
		SELECT symbol, period_id, income, shares, assets, liabilities, book_value, backfilled_from
		FROM financial_statements
		ORDER BY symbol, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying statements: %w", err)
	}
	defer stmts.Close()

	for stmts.Next() {
		var symbol string
		var s statementRow
		if err := stmts.Scan(&symbol, &s.PeriodID, &s.Income, &s.Shares, &s.Assets, &s.Liabilities, &s.BookValue, &s.BackfilledFrom); err != nil {
			return nil, fmt.Errorf("scanning statement: %w", err)
		}
		if i, ok := index[symbol]; ok {
			securities[i].Statements = append(securities[i].Statements, s.statement())
		}
	}

	return securities, stmts.Err()
}

// GetSecurity returns one security with its statements.
func (r *Repository) GetSecurity(ctx context.Context, symbol string) (models.Security, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+securityColumns+" FROM securities WHERE symbol = $1", symbol)
	s, err := scanSecurity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Security{}, fmt.Errorf("security %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return models.Security{}, err
	}

	s.Statements, err = loadStatements(ctx, r.pool, symbol)
	if err != nil {
		return models.Security{}, err
	}
	return s, nil
}

// UpdateOverview replaces the descriptive fields of a security.
func (r *Repository) UpdateOverview(ctx context.Context, o models.Overview) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE securities SET name = $2, sector = $3, exchange_currency = $4, updated_at = NOW()
		WHERE symbol = $1
	`, o.Symbol, o.Name, o.Sector, o.ExchangeCurrency)
	if err != nil {
		return fmt.Errorf("updating security: %w", err)
	}
	return expectOne(tag.RowsAffected(), o.Symbol)
}

// DeleteSecurity stops tracking a security. Its statements go with it.
func (r *Repository) DeleteSecurity(ctx context.Context, symbol string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM securities WHERE symbol = $1", symbol)
	if err != nil {
		return fmt.Errorf("deleting security: %w", err)
	}
	return expectOne(tag.RowsAffected(), symbol)
}

// UpdateStatements replaces the statement series of a security with
// merge(current series) and stores analyze(merged series, assumptions) as
// its analysis. The security row stays locked from the read to the commit,
// so concurrent updates of one symbol are applied one after the other and
// the stored analysis always belongs to the stored series.
// An empty currency keeps the stored financials currency.
func (r *Repository) UpdateStatements(
	ctx context.Context, symbol, currency string,
	merge func([]statement.Statement) []statement.Statement,
	analyze func([]statement.Statement, valuation.Assumptions) (*valuation.Analysis, error),
) ([]statement.Statement, error) {
	tx, a, err := r.lockSecurity(ctx, symbol)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := loadStatements(ctx, tx, symbol)
	if err != nil {
		return nil, err
	}

	merged := merge(current)
	if err := writeStatements(ctx, tx, symbol, merged); err != nil {
		return nil, err
	}

	analysis, err := analyze(merged, a)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE securities SET
			financials_currency = COALESCE(NULLIF($2, ''), financials_currency),
			financials_updated = NOW(),
			updated_at = NOW()
		WHERE symbol = $1
	`, symbol, currency); err != nil {
		return nil, fmt.Errorf("touching security: %w", err)
	}
	if err := saveAnalysis(ctx, tx, symbol, analysis); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing statements: %w", err)
	}
	return merged, nil
}

// SaveAssumptions stores the projection parameters of a security together
// with analyze(stored series, a), under the same lock as UpdateStatements.
func (r *Repository) SaveAssumptions(
	ctx context.Context, symbol string, a valuation.Assumptions,
	analyze func([]statement.Statement, valuation.Assumptions) (*valuation.Analysis, error),
) ([]statement.Statement, error) {
	tx, _, err := r.lockSecurity(ctx, symbol)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE securities SET growth_rate = $2, years = $3, safety_margin = $4, updated_at = NOW()
		WHERE symbol = $1
	`, symbol, a.GrowthRate, a.Years, a.SafetyMargin); err != nil {
		return nil, fmt.Errorf("saving assumptions: %w", err)
	}

	return reanalyze(ctx, tx, symbol, a, analyze)
}

// Reanalyze stores analyze(stored series, stored assumptions) as the
// analysis of a security, under the same lock as UpdateStatements.
func (r *Repository) Reanalyze(
	ctx context.Context, symbol string,
	analyze func([]statement.Statement, valuation.Assumptions) (*valuation.Analysis, error),
) ([]statement.Statement, error) {
	tx, a, err := r.lockSecurity(ctx, symbol)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	return reanalyze(ctx, tx, symbol, a, analyze)
}

func reanalyze(
	ctx context.Context, tx pgx.Tx, symbol string, a valuation.Assumptions,
	analyze func([]statement.Statement, valuation.Assumptions) (*valuation.Analysis, error),
) ([]statement.Statement, error) {
	history, err := loadStatements(ctx, tx, symbol)
	if err != nil {
		return nil, err
	}

	analysis, err := analyze(history, a)
	if err != nil {
		return nil, err
	}
	if err := saveAnalysis(ctx, tx, symbol, analysis); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing analysis: %w", err)
	}
	return history, nil
}

// lockSecurity begins a transaction holding the row lock of a security and
// returns its assumptions. The caller owns the transaction.
func (r *Repository) lockSecurity(ctx context.Context, symbol string) (pgx.Tx, valuation.Assumptions, error) {
	var a valuation.Assumptions

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, a, fmt.Errorf("beginning transaction: %w", err)
	}

	err = tx.QueryRow(ctx, `
		SELECT growth_rate, years, safety_margin FROM securities WHERE symbol = $1 FOR UPDATE
	`, symbol).Scan(&a.GrowthRate, &a.Years, &a.SafetyMargin)
	if err != nil {
		tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, a, fmt.Errorf("security %s: %w", symbol, ErrNotFound)
		}
		return nil, a, fmt.Errorf("locking security: %w", err)
	}
	return tx, a, nil
}

func writeStatements(ctx context.Context, tx pgx.Tx, symbol string, series []statement.Statement) error {
	if _, err := tx.Exec(ctx, "DELETE FROM financial_statements WHERE symbol = $1", symbol); err != nil {
		return fmt.Errorf("clearing statements: %w", err)
	}
	if len(series) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, s := range series {
		batch.Queue(`
			INSERT INTO financial_statements (
				symbol, period_id, position,
				income, shares, assets, liabilities, book_value,
				backfilled_from
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			symbol, s.PeriodID, i,
			nullDecimal(s.Income), nullDecimal(s.Shares), nullDecimal(s.Assets),
			nullDecimal(s.Liabilities), nullDecimal(s.BookValue),
			s.BackfilledFrom,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range series {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("inserting statement: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}
	return nil
}

// saveAnalysis stores the analysis verbatim. A nil analysis clears it.
func saveAnalysis(ctx context.Context, tx pgx.Tx, symbol string, a *valuation.Analysis) error {
	var data []byte
	if a != nil {
		var err error
		if data, err = json.Marshal(a); err != nil {
			return fmt.Errorf("marshaling analysis: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, "UPDATE securities SET analysis_json = $2 WHERE symbol = $1", symbol, data); err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}
	return nil
}

// UpdatePrice records the latest close of a security.
func (r *Repository) UpdatePrice(ctx context.Context, symbol string, price decimal.Decimal, date time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE securities SET price = $2, price_date = $3, updated_at = NOW()
		WHERE symbol = $1
	`, symbol, price, date)
	if err != nil {
		return fmt.Errorf("updating price: %w", err)
	}
	return expectOne(tag.RowsAffected(), symbol)
}

// GetExchangeRate returns the cached rate from one currency to another.
func (r *Repository) GetExchangeRate(ctx context.Context, from, to string) (models.ExchangeRate, error) {
	rate := models.ExchangeRate{From: from, To: to}
	err := r.pool.QueryRow(ctx, `
		SELECT rate, date FROM exchange_rates WHERE from_currency = $1 AND to_currency = $2
	`, from, to).Scan(&rate.Rate, &rate.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ExchangeRate{}, fmt.Errorf("rate %s/%s: %w", from, to, ErrNotFound)
	}
	if err != nil {
		return models.ExchangeRate{}, fmt.Errorf("querying rate: %w", err)
	}
	return rate, nil
}

// UpsertExchangeRate inserts or updates a cached rate.
func (r *Repository) UpsertExchangeRate(ctx context.Context, rate models.ExchangeRate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO exchange_rates (from_currency, to_currency, rate, date, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (from_currency, to_currency) DO UPDATE SET
			rate = EXCLUDED.rate,
			date = EXCLUDED.date,
			updated_at = NOW()
	`, rate.From, rate.To, rate.Rate, rate.Date)
	if err != nil {
		return fmt.Errorf("upserting rate: %w", err)
	}
	return nil
}

// ListSymbols returns the symbols of all tracked securities.
func (r *Repository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT symbol FROM securities ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("querying symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// GetSecurityCount returns the number of tracked securities.
func (r *Repository) GetSecurityCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM securities").Scan(&count)
	return count, err
}

// GetStatementCount returns the number of stored statements.
func (r *Repository) GetStatementCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM financial_statements").Scan(&count)
	return count, err
}

// GetLastFinancialsUpdate returns the most recent statement refresh.
func (r *Repository) GetLastFinancialsUpdate(ctx context.Context) (time.Time, error) {
	var lastUpdate time.Time
	err := r.pool.QueryRow(ctx, "SELECT COALESCE(MAX(financials_updated), '1970-01-01'::timestamptz) FROM securities").Scan(&lastUpdate)
	if err != nil {
		return time.Time{}, fmt.Errorf("querying last update: %w", err)
	}
	return lastUpdate, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadStatements(ctx context.Context, q querier, symbol string) ([]statement.Statement, error) {
	rows, err := q.Query(ctx, `
		SELECT period_id, income, shares, assets, liabilities, book_value, backfilled_from
		FROM financial_statements
		WHERE symbol = $1
		ORDER BY position
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("querying statements: %w", err)
	}
	defer rows.Close()

	var out []statement.Statement
	for rows.Next() {
		var s statementRow
		if err := rows.Scan(&s.PeriodID, &s.Income, &s.Shares, &s.Assets, &s.Liabilities, &s.BookValue, &s.BackfilledFrom); err != nil {
			return nil, fmt.Errorf("scanning statement: %w", err)
		}
		out = append(out, s.statement())
	}
	return out, rows.Err()
}

func scanSecurity(row pgx.Row) (models.Security, error) {
	var s models.Security
	var price decimal.NullDecimal
	var analysis []byte
	err := row.Scan(
		&s.Symbol, &s.Name, &s.Sector, &s.ExchangeCurrency,
		&price, &s.PriceDate, &s.FinancialsCurrency, &s.FinancialsUpdated,
		&s.Assumptions.GrowthRate, &s.Assumptions.Years, &s.Assumptions.SafetyMargin, &analysis,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scanning security: %w", err)
	}
	if price.Valid {
		s.Price = &price.Decimal
	}
	if len(analysis) > 0 {
		s.Analysis = &valuation.Analysis{}
		if err := json.Unmarshal(analysis, s.Analysis); err != nil {
			return s, fmt.Errorf("unmarshaling analysis of %s: %w", s.Symbol, err)
		}
	}
	return s, nil
}

func expectOne(affected int64, symbol string) error {
	if affected == 0 {
		return fmt.Errorf("security %s: %w", symbol, ErrNotFound)
	}
	return nil
}
