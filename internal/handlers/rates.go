package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// RateRequest is the body of PUT /api/rates.
type RateRequest struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

// GetRate handles GET /api/rates?curr1=USD&curr2=EUR
func (h *Handler) GetRate(c echo.Context) error {
	from, to := c.QueryParam("curr1"), c.QueryParam("curr2")
	if from == "" || to == "" {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "curr1 and curr2 are required"})
	}

	rate, err := h.rates.Get(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: rate})
}

// PutRate handles PUT /api/rates
func (h *Handler) PutRate(c echo.Context) error {
	var req RateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}

	rate, err := h.rates.Set(c.Request().Context(), req.From, req.To, req.Rate)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: rate})
}
