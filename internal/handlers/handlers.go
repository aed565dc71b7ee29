package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mauv0809/valuedash/internal/auth"
	"github.com/mauv0809/valuedash/internal/db"
	"github.com/mauv0809/valuedash/internal/export"
	"github.com/mauv0809/valuedash/internal/models"
	"github.com/mauv0809/valuedash/internal/rates"
	"github.com/mauv0809/valuedash/internal/tracker"
	"github.com/mauv0809/valuedash/internal/valuation"
	"github.com/mauv0809/valuedash/internal/views"
)

// Store is the persistence the handlers read and write directly. Statement
// and analysis updates go through the tracker.
type Store interface {
	ListSecurities(ctx context.Context) ([]models.Security, error)
	GetSecurity(ctx context.Context, symbol string) (models.Security, error)
	CreateSecurity(ctx context.Context, o models.Overview, a valuation.Assumptions) error
	UpdateOverview(ctx context.Context, o models.Overview) error
	DeleteSecurity(ctx context.Context, symbol string) error
}

// OverviewSource looks up the descriptive fields of a ticker.
type OverviewSource interface {
	LookupOverview(ctx context.Context, ticker string) (models.Overview, error)
}

// Response is the JSON envelope of every API endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count,omitempty"`
	Elapsed string `json:"elapsed,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	store     Store
	tracker   *tracker.Service
	rates     *rates.Service
	overviews OverviewSource
	defaults  valuation.Assumptions

	sessions    *auth.Sessions
	credentials auth.Credentials
}

type Option func(*Handler)

// WithOverviews fills missing overview fields of new securities.
func WithOverviews(src OverviewSource) Option {
	return func(h *Handler) { h.overviews = src }
}

// WithAuth enables the login endpoints.
func WithAuth(sessions *auth.Sessions, creds auth.Credentials) Option {
	return func(h *Handler) {
		h.sessions = sessions
		h.credentials = creds
	}
}

func New(store Store, svc *tracker.Service, rateService *rates.Service, defaults valuation.Assumptions, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		tracker:  svc,
		rates:    rateService,
		defaults: defaults,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health returns application health status
// @Summary Health check
// @Description Returns the health status of the application
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Index handles GET /
func (h *Handler) Index(c echo.Context) error {
	securities, err := h.store.ListSecurities(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, http.StatusOK, views.Index(securities))
}

// SecurityPage handles GET /securities/:symbol
func (h *Handler) SecurityPage(c echo.Context) error {
	symbol, err := symbolParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sec, err := h.store.GetSecurity(c.Request().Context(), symbol)
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown security "+symbol)
	}
	if err != nil {
		return err
	}
	return Render(c, http.StatusOK, views.Security(sec))
}

// LoginPage handles GET /login
func (h *Handler) LoginPage(c echo.Context) error {
	return Render(c, http.StatusOK, views.Login(""))
}

// Login handles POST /login
func (h *Handler) Login(c echo.Context) error {
	if h.sessions == nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	if !h.credentials.Check(c.FormValue("username"), c.FormValue("password")) {
		log.Printf("Failed login attempt from %s", c.RealIP())
		return Render(c, http.StatusUnauthorized, views.Login("Invalid username or password"))
	}

	token, expires := h.sessions.Create()
	c.SetCookie(auth.Cookie(token, expires))
	return c.Redirect(http.StatusSeeOther, "/")
}

// Logout handles POST /logout
func (h *Handler) Logout(c echo.Context) error {
	if h.sessions != nil {
		if cookie, err := c.Cookie(auth.CookieName); err == nil {
			h.sessions.Revoke(cookie.Value)
		}
		c.SetCookie(auth.ClearCookie())
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// Export handles GET /export.csv
func (h *Handler) Export(c echo.Context) error {
	securities, err := h.store.ListSecurities(c.Request().Context())
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename(time.Now())+`"`)
	res.WriteHeader(http.StatusOK)
	return export.WriteCSV(res, securities)
}
