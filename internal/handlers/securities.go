package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mauv0809/valuedash/internal/db"
	"github.com/mauv0809/valuedash/internal/models"
	"github.com/mauv0809/valuedash/internal/rates"
	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/mauv0809/valuedash/internal/tracker"
	"github.com/mauv0809/valuedash/internal/valuation"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]{0,15}$`)

// OverviewRequest is the body of create and update calls.
type OverviewRequest struct {
	Symbol           string                 `json:"symbol" form:"symbol"`
	Name             string                 `json:"name" form:"name"`
	Sector           string                 `json:"sector" form:"sector"`
	ExchangeCurrency string                 `json:"exchange_currency" form:"exchange_currency"`
	Assumptions      *valuation.Assumptions `json:"assumptions"`
}

// StatementsRequest is the body of a statement merge.
type StatementsRequest struct {
	Currency   string                `json:"currency"`
	Statements []statement.Statement `json:"statements"`
}

// ImportRequest carries documents in the legacy layout.
type ImportRequest struct {
	Currency   string                      `json:"currency"`
	Financials []statement.LegacyFinancial `json:"financials"`
}

// ResultPayload is the outcome of a statement or assumption update.
type ResultPayload struct {
	Statements    []statement.Statement `json:"statements"`
	Analysis      *valuation.Analysis   `json:"analysis"`
	AnalysisError string                `json:"analysis_error,omitempty"`
}

func newResultPayload(res tracker.Result) ResultPayload {
	p := ResultPayload{Statements: res.Statements, Analysis: res.Analysis}
	if p.Statements == nil {
		p.Statements = []statement.Statement{}
	}
	if res.AnalysisError != nil {
		p.AnalysisError = res.AnalysisError.Error()
	}
	return p
}

// ListSecurities handles GET /api/securities
func (h *Handler) ListSecurities(c echo.Context) error {
	securities, err := h.store.ListSecurities(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Count: len(securities), Data: securities})
}

// GetSecurity handles GET /api/securities/:symbol
func (h *Handler) GetSecurity(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	sec, err := h.store.GetSecurity(c.Request().Context(), symbol)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: sec})
}

// CreateSecurity handles POST /api/securities
// Accepts JSON or a form post from the dashboard; form posts are redirected
// to the new security's page.
func (h *Handler) CreateSecurity(c echo.Context) error {
	ctx := c.Request().Context()

	var req OverviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	symbol, err := normalizeSymbol(req.Symbol)
	if err != nil {
		return badRequest(c, err)
	}
	o := models.Overview{
		Symbol:           symbol,
		Name:             strings.TrimSpace(req.Name),
		Sector:           strings.TrimSpace(req.Sector),
		ExchangeCurrency: strings.ToUpper(strings.TrimSpace(req.ExchangeCurrency)),
	}
	h.fillOverview(c, &o)

	a := h.defaults
	if req.Assumptions != nil {
		a = *req.Assumptions
	}
	if err := a.Validate(); err != nil {
		return badRequest(c, err)
	}

	if err := h.store.CreateSecurity(ctx, o, a); err != nil {
		return fail(c, err)
	}
	log.Printf("Created security %s", symbol)

	if isForm(c) {
		return c.Redirect(http.StatusSeeOther, "/securities/"+url.PathEscape(symbol))
	}

	sec, err := h.store.GetSecurity(ctx, symbol)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, Response{Success: true, Message: "Created " + symbol, Data: sec})
}

// fillOverview completes missing descriptive fields from the ticker table.
// Lookup failures leave the fields empty.
func (h *Handler) fillOverview(c echo.Context, o *models.Overview) {
	if h.overviews == nil || (o.Name != "" && o.Sector != "" && o.ExchangeCurrency != "") {
		return
	}
	found, err := h.overviews.LookupOverview(c.Request().Context(), o.Symbol)
	if err != nil {
		log.Printf("Could not look up overview of %s: %v", o.Symbol, err)
		return
	}
	if o.Name == "" {
		o.Name = found.Name
	}
	if o.Sector == "" {
		o.Sector = found.Sector
	}
	if o.ExchangeCurrency == "" {
		o.ExchangeCurrency = found.ExchangeCurrency
	}
}

// UpdateSecurity handles PUT /api/securities/:symbol
func (h *Handler) UpdateSecurity(c echo.Context) error {
	ctx := c.Request().Context()

	symbol, err := symbolParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	var req OverviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	o := models.Overview{
		Symbol:           symbol,
		Name:             strings.TrimSpace(req.Name),
		Sector:           strings.TrimSpace(req.Sector),
		ExchangeCurrency: strings.ToUpper(strings.TrimSpace(req.ExchangeCurrency)),
	}
	if err := h.store.UpdateOverview(ctx, o); err != nil {
		return fail(c, err)
	}

	sec, err := h.store.GetSecurity(ctx, symbol)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: sec})
}

// DeleteSecurity handles DELETE /api/securities/:symbol
func (h *Handler) DeleteSecurity(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	if err := h.store.DeleteSecurity(c.Request().Context(), symbol); err != nil {
		return fail(c, err)
	}
	log.Printf("Deleted security %s", symbol)
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Deleted " + symbol})
}

// UpdateAssumptions handles PUT /api/securities/:symbol/assumptions
func (h *Handler) UpdateAssumptions(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	var a valuation.Assumptions
	if err := c.Bind(&a); err != nil {
		return badRequest(c, err)
	}

	res, err := h.tracker.UpdateAssumptions(c.Request().Context(), symbol, a)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: newResultPayload(res)})
}

// Calculate handles POST /api/securities/:symbol/calculate
// Answers 422 when the stored history cannot be analysed.
func (h *Handler) Calculate(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return badRequest(c, err)
	}

	res, err := h.tracker.Recalculate(c.Request().Context(), symbol)
	if err != nil {
		return fail(c, err)
	}
	if res.AnalysisError != nil {
		return c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Message: fmt.Sprintf("Cannot analyse %s: %v", symbol, res.AnalysisError),
			Data:    newResultPayload(res),
		})
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: newResultPayload(res)})
}

// MergeStatements handles POST /api/securities/:symbol/statements
func (h *Handler) MergeStatements(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	var req StatementsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	for _, s := range req.Statements {
		if strings.TrimSpace(s.PeriodID) == "" {
			return badRequest(c, errors.New("every statement needs a period_id"))
		}
	}

	return h.merge(c, symbol, req.Currency, req.Statements)
}

// ImportStatements handles POST /api/securities/:symbol/statements/import
// Converts legacy documents and merges them like any other batch.
func (h *Handler) ImportStatements(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	return h.merge(c, symbol, req.Currency, statement.FromLegacy(req.Financials))
}

func (h *Handler) merge(c echo.Context, symbol, currency string, incoming []statement.Statement) error {
	res, err := h.tracker.MergeStatements(c.Request().Context(), symbol, strings.ToUpper(currency), incoming)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Merged %d statements into %s", len(incoming), symbol),
		Count:   len(res.Statements),
		Data:    newResultPayload(res),
	})
}

func symbolParam(c echo.Context) (string, error) {
	raw, err := url.PathUnescape(c.Param("symbol"))
	if err != nil {
		return "", err
	}
	return normalizeSymbol(raw)
}

func normalizeSymbol(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !symbolPattern.MatchString(s) {
		return "", fmt.Errorf("invalid symbol %q", s)
	}
	return s, nil
}

func isForm(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, Response{Success: false, Message: err.Error()})
}

// fail answers with the status matching err.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, db.ErrExists):
		status = http.StatusConflict
	case errors.Is(err, valuation.ErrInvalidAssumptions):
		status = http.StatusBadRequest
	case errors.Is(err, rates.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, tracker.ErrNoSource):
		status = http.StatusServiceUnavailable
	case errors.Is(err, rates.ErrRateNotFound):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, Response{Success: false, Message: err.Error()})
}
