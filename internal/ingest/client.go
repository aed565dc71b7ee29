package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mauv0809/valuedash/internal/models"
	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://data.nasdaq.com/api/v3/datatables"
	defaultTimeout = 60 * time.Second
	rateLimit      = 2 // requests per second (conservative for authenticated users)

	// latestPriceLookback covers long weekends and exchange holidays.
	latestPriceLookback = 14
)

// Client is a rate-limited client for Nasdaq Data Link Tables API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rateLimiter
	backoff    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another datatables endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit overrides the number of requests per second.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = newRateLimiter(requestsPerSecond)
		}
	}
}

// WithRetryBackoff sets the base delay between retries.
func WithRetryBackoff(d time.Duration) ClientOption {
	return func(c *Client) { c.backoff = d }
}

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(requestsPerSecond int) *rateLimiter {
	return &rateLimiter{
		interval: time.Second / time.Duration(requestsPerSecond),
	}
}

func (r *rateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastCall)
	if elapsed < r.interval {
		time.Sleep(r.interval - elapsed)
	}
	r.lastCall = time.Now()
}

// NewClient creates a new Sharadar API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: newRateLimiter(rateLimit),
		backoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTable fetches data from a table with the given parameters.
// Handles pagination automatically and returns all rows.
func (c *Client) FetchTable(ctx context.Context, table string, params map[string]string) (*Response, error) {
	allData := &Response{}
	var cursorID *string

	for {
		resp, err := c.fetchPage(ctx, table, params, cursorID)
		if err != nil {
			return nil, err
		}

		// Merge columns (only needed on first page)
		if len(allData.Datatable.Columns) == 0 {
			allData.Datatable.Columns = resp.Datatable.Columns
		}

		// Append data
		allData.Datatable.Data = append(allData.Datatable.Data, resp.Datatable.Data...)

		// Check for more pages
		if resp.Meta.NextCursorID == nil || *resp.Meta.NextCursorID == "" {
			break
		}
		cursorID = resp.Meta.NextCursorID
		log.Printf("Fetching next page (cursor: %s...)", (*cursorID)[:min(20, len(*cursorID))])
	}

	return allData, nil
}

// fetchPage fetches a single page of data.
func (c *Client) fetchPage(ctx context.Context, table string, params map[string]string, cursorID *string) (*Response, error) {
	// Build URL
	u, err := url.Parse(fmt.Sprintf("%s/%s.json", c.baseURL, table))
	if err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	for k, v := range params {
		q.Set(k, v)
	}
	if cursorID != nil {
		q.Set("qopts.cursor_id", *cursorID)
	}
	u.RawQuery = q.Encode()

	// Rate limit
	c.limiter.Wait()

	// Make request with retries
	var resp *Response
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<attempt) * c.backoff
			log.Printf("Retry attempt %d after %v", attempt, backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, lastErr = c.doRequest(ctx, u.String())
		if lastErr == nil {
			return resp, nil
		}

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		log.Printf("Request failed (attempt %d): %v", attempt+1, lastErr)
	}

	return nil, fmt.Errorf("all retries failed: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, urlStr string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, string(body))
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return &resp, nil
}

// FetchTickers fetches tickers from SHARADAR/TICKERS for SF1 table.
// If tickers slice is empty, fetches all tickers.
func (c *Client) FetchTickers(ctx context.Context, tickers []string) ([]TickerRow, error) {
	params := map[string]string{
		"table": "SF1",
	}

	if len(tickers) > 0 {
		params["ticker"] = strings.Join(tickers, ",")
	}

	resp, err := c.FetchTable(ctx, "SHARADAR/TICKERS", params)
	if err != nil {
		return nil, fmt.Errorf("fetching tickers: %w", err)
	}

	return ParseTickers(resp)
}

// FetchSF1 fetches fundamentals from SHARADAR/SF1.
// If tickers is empty, fetches all. If since is zero, fetches all history.
func (c *Client) FetchSF1(ctx context.Context, tickers []string, dimension string, since time.Time) ([]SF1Row, error) {
	params := make(map[string]string)

	if len(tickers) > 0 {
		params["ticker"] = strings.Join(tickers, ",")
	}

	if dimension != "" {
		params["dimension"] = dimension
	}

	if !since.IsZero() {
		params["lastupdated.gte"] = since.Format("2006-01-02")
	}

	resp, err := c.FetchTable(ctx, "SHARADAR/SF1", params)
	if err != nil {
		return nil, fmt.Errorf("fetching SF1: %w", err)
	}

	return ParseSF1(resp)
}

// FetchDaily fetches daily prices from SHARADAR/DAILY.
// tickers is required (at least one ticker). If since is zero, fetches all
// history; otherwise only trading days on or after since.
func (c *Client) FetchDaily(ctx context.Context, tickers []string, since time.Time) ([]DailyRow, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("at least one ticker required for daily fetch")
	}

	params := map[string]string{
		"ticker": strings.Join(tickers, ","),
	}

	if !since.IsZero() {
		params["date.gte"] = since.Format("2006-01-02")
	}

	resp, err := c.FetchTable(ctx, "SHARADAR/DAILY", params)
	if err != nil {
		return nil, fmt.Errorf("fetching daily: %w", err)
	}

	return ParseDaily(resp)
}

// LookupOverview returns the name, sector and currency of a ticker.
func (c *Client) LookupOverview(ctx context.Context, ticker string) (models.Overview, error) {
	rows, err := c.FetchTickers(ctx, []string{ticker})
	if err != nil {
		return models.Overview{}, err
	}
	for _, row := range rows {
		if strings.EqualFold(row.Ticker, ticker) {
			return models.Overview{
				Symbol:           ticker,
				Name:             row.Name,
				Sector:           row.Sector,
				ExchangeCurrency: row.Currency,
			}, nil
		}
	}
	return models.Overview{}, fmt.Errorf("ticker %s: %w", ticker, ErrNoData)
}

// FetchStatements fetches the annual statements of a ticker and its latest
// trailing-twelve-months snapshot.
func (c *Client) FetchStatements(ctx context.Context, ticker string) ([]statement.Statement, error) {
	annual, err := c.FetchSF1(ctx, []string{ticker}, DimensionAnnual, time.Time{})
	if err != nil {
		return nil, err
	}
	trailing, err := c.FetchSF1(ctx, []string{ticker}, DimensionTrailing, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(annual) == 0 && len(trailing) == 0 {
		return nil, fmt.Errorf("fundamentals of %s: %w", ticker, ErrNoData)
	}
	return StatementsFromSF1(annual, trailing), nil
}

// FetchLatestPrice returns the most recent close of a ticker.
func (c *Client) FetchLatestPrice(ctx context.Context, ticker string) (decimal.Decimal, time.Time, error) {
	rows, err := c.FetchDaily(ctx, []string{ticker}, time.Now().AddDate(0, 0, -latestPriceLookback))
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return LatestClose(rows)
}
