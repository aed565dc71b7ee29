package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mauv0809/valuedash/internal/tracker"
)

// IngestStore is what the ingestion endpoints read from the database.
type IngestStore interface {
	ListSymbols(ctx context.Context) ([]string, error)
	GetSecurityCount(ctx context.Context) (int, error)
	GetStatementCount(ctx context.Context) (int, error)
	GetLastFinancialsUpdate(ctx context.Context) (time.Time, error)
}

// IngestHandler handles data ingestion endpoints.
type IngestHandler struct {
	tracker   *tracker.Service
	repo      IngestStore
	overviews OverviewSource
}

// NewIngestHandler creates a new ingest handler. overviews may be nil when no
// ticker table is configured.
func NewIngestHandler(svc *tracker.Service, repo IngestStore, overviews OverviewSource) *IngestHandler {
	return &IngestHandler{
		tracker:   svc,
		repo:      repo,
		overviews: overviews,
	}
}

// IngestResponse is the JSON response for ingestion endpoints.
type IngestResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Count   int      `json:"count,omitempty"`
	Failed  []string `json:"failed,omitempty"`
	Elapsed string   `json:"elapsed,omitempty"`
}

// IngestFundamentals handles POST /admin/ingest/fundamentals
// Refreshes statements and analyses. Query params:
// - ticker: comma-separated tickers (optional, defaults to all tracked securities)
func (h *IngestHandler) IngestFundamentals(c echo.Context) error {
	if !h.tracker.HasFundamentals() {
		return c.JSON(http.StatusServiceUnavailable, IngestResponse{
			Success: false,
			Message: "No fundamentals source configured. Set NASDAQ_API_KEY.",
		})
	}

	return h.ingestEach(c, "fundamentals", func(ctx context.Context, symbol string) error {
		res, err := h.tracker.RefreshFundamentals(ctx, symbol)
		if err != nil {
			return err
		}
		if res.AnalysisError != nil {
			log.Printf("Stored %d statements for %s without analysis: %v", len(res.Statements), symbol, res.AnalysisError)
		}
		return nil
	})
}

// IngestDaily handles POST /admin/ingest/daily
// Refreshes latest prices. Query params:
// - ticker: comma-separated tickers (optional, defaults to all tracked securities)
func (h *IngestHandler) IngestDaily(c echo.Context) error {
	if !h.tracker.HasPrices() {
		return c.JSON(http.StatusServiceUnavailable, IngestResponse{
			Success: false,
			Message: "No price source configured.",
		})
	}

	return h.ingestEach(c, "prices", func(ctx context.Context, symbol string) error {
		price, at, err := h.tracker.RefreshPrice(ctx, symbol)
		if err != nil {
			return err
		}
		log.Printf("Price of %s: %s (%s)", symbol, price, at.Format("2006-01-02"))
		return nil
	})
}

// ingestEach runs refresh for every requested symbol. A failing symbol is
// logged and reported but does not stop the others.
func (h *IngestHandler) ingestEach(c echo.Context, what string, refresh func(ctx context.Context, symbol string) error) error {
	ctx := c.Request().Context()
	start := time.Now()

	// Parse ticker filter - default to securities we track
	var tickers []string
	if tickerParam := c.QueryParam("ticker"); tickerParam != "" {
		for _, t := range strings.Split(tickerParam, ",") {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				tickers = append(tickers, t)
			}
		}
	} else {
		var err error
		tickers, err = h.repo.ListSymbols(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, IngestResponse{
				Success: false,
				Message: fmt.Sprintf("Failed to get tickers: %v", err),
			})
		}
	}

	if len(tickers) == 0 {
		return c.JSON(http.StatusBadRequest, IngestResponse{
			Success: false,
			Message: "No securities tracked. Add one with POST /api/securities first.",
		})
	}

	log.Printf("Starting %s ingestion (tickers: %d)...", what, len(tickers))

	var failed []string
	for _, symbol := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := refresh(ctx, symbol); err != nil {
			log.Printf("Error ingesting %s for %s: %v", what, symbol, err)
			failed = append(failed, symbol)
		}
	}

	count := len(tickers) - len(failed)
	elapsed := time.Since(start)
	log.Printf("%s ingestion complete: %d/%d securities in %v", what, count, len(tickers), elapsed)

	status := http.StatusOK
	if count == 0 {
		status = http.StatusBadGateway
	}
	return c.JSON(status, IngestResponse{
		Success: count > 0,
		Message: fmt.Sprintf("Refreshed %s of %d securities", what, count),
		Count:   count,
		Failed:  failed,
		Elapsed: elapsed.String(),
	})
}

// IngestOverview handles GET /admin/ingest/overview/:symbol
// Looks up a ticker without storing anything.
func (h *IngestHandler) IngestOverview(c echo.Context) error {
	if h.overviews == nil {
		return c.JSON(http.StatusServiceUnavailable, IngestResponse{
			Success: false,
			Message: "No ticker source configured. Set NASDAQ_API_KEY.",
		})
	}

	symbol, err := symbolParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, IngestResponse{Success: false, Message: err.Error()})
	}

	o, err := h.overviews.LookupOverview(c.Request().Context(), symbol)
	if err != nil {
		return c.JSON(http.StatusNotFound, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Lookup failed: %v", err),
		})
	}
	return c.JSON(http.StatusOK, o)
}

// IngestStatus handles GET /admin/ingest/status
// Returns current ingestion status and counts.
func (h *IngestHandler) IngestStatus(c echo.Context) error {
	ctx := c.Request().Context()

	securityCount, _ := h.repo.GetSecurityCount(ctx)
	statementCount, _ := h.repo.GetStatementCount(ctx)
	lastUpdate, _ := h.repo.GetLastFinancialsUpdate(ctx)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"securities":             securityCount,
		"statements":             statementCount,
		"last_financials_update": lastUpdate.Format("2006-01-02"),
		"fundamentals_source":    h.tracker.HasFundamentals(),
		"price_source":           h.tracker.HasPrices(),
	})
}
