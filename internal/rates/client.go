// Package rates looks up currency exchange rates.
package rates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// ErrRateNotFound is returned when the calculator page carries no rate for
// the requested pair.
var ErrRateNotFound = errors.New("exchange rate not found")

// Client reads rates from the x-rates currency calculator.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	c := resty.New()
	c.SetBaseURL(strings.TrimRight(baseURL, "/"))
	c.SetTimeout(30 * time.Second)
	c.SetHeader("User-Agent", "Mozilla/5.0 (compatible; valuedash)")
	return &Client{http: c}
}

// Fetch returns how many units of to one unit of from buys.
func (c *Client) Fetch(ctx context.Context, from, to string) (decimal.Decimal, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"from": from, "to": to, "amount": "1"}).
		Get("/calculator/")
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetching %s/%s rate: %w", from, to, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return decimal.Zero, fmt.Errorf("HTTP error %d when fetching %s/%s rate", resp.StatusCode(), from, to)
	}

	return ParseRate(resp.String(), from)
}

// ParseRate extracts the rate from a calculator page. The page renders
// "1.00 FROM =" in one span and the converted amount as the leading text of
// the next element.
func ParseRate(page, from string) (decimal.Decimal, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing calculator page: %w", err)
	}

	label := doc.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.TrimSpace(s.Text()), "1.00 "+from)
	}).First()
	if label.Length() == 0 {
		return decimal.Zero, fmt.Errorf("no amount for %s: %w", from, ErrRateNotFound)
	}

	text := label.Next().Contents().FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Nodes[0].Type == html.TextNode && strings.TrimSpace(s.Text()) != ""
	}).First().Text()

	rate, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(text), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading rate %q: %w", text, ErrRateNotFound)
	}
	return rate, nil
}
