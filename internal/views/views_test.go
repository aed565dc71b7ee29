package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mauv0809/valuedash/internal/models"
	"github.com/mauv0809/valuedash/internal/statement"
	"github.com/mauv0809/valuedash/internal/valuation"
	"github.com/shopspring/decimal"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"41.756", "USD", "$41.76"},
		{"1234.5", "usd", "$1,234.50"},
		{"12.3", "XXZ", "12.30 XXZ"},
		{"12.3", "", "12.30"},
	}
	for _, tt := range tests {
		if got := Price(decimal.RequireFromString(tt.amount), tt.currency); got != tt.want {
			t.Errorf("Price(%s, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestIndexEscapes(t *testing.T) {
	price := decimal.RequireFromString("10")
	var buf bytes.Buffer
	err := Index([]models.Security{{
		Symbol:           "ACME",
		Name:             "<script>alert(1)</script>",
		ExchangeCurrency: "USD",
		Price:            &price,
		Analysis:         &valuation.Analysis{Target: 20, Lower: 15, Upper: 25},
	}}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<script>alert") {
		t.Error("name was not escaped")
	}
	for _, want := range []string{`href="/securities/ACME"`, "$10.00", "50.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
}

func TestSecurityPage(t *testing.T) {
	var buf bytes.Buffer
	err := Security(models.Security{
		Symbol:      "ACME",
		Assumptions: valuation.Assumptions{Years: 10, SafetyMargin: 0.25},
		Statements: []statement.Statement{
			{PeriodID: statement.TTM, Income: statement.Float(5), BackfilledFrom: "2023-12-31"},
		},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Not enough data", "TTM", "balance sheet from 2023-12-31", `action="/api/securities/ACME/assumptions"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
}

func TestLoginMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := Login("Invalid credentials").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), `<p class="error">Invalid credentials</p>`) {
		t.Error("message not shown")
	}
}

func TestSecurityPageEscapesAttributes(t *testing.T) {
	var buf bytes.Buffer
	err := Security(models.Security{
		Symbol:      "ACME",
		Assumptions: valuation.Assumptions{Years: 10},
		Analysis: &valuation.Analysis{
			Target: 20,
			Trend:  &valuation.Trend{Growth: 0.1, Predicted: 121, Periods: 3},
		},
		Statements: []statement.Statement{
			{PeriodID: "2023-12-31", Income: statement.Float(5), BackfilledFrom: `"><script>x</script>`},
		},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, `"><script>x`) {
		t.Error("attribute value was not escaped")
	}
	for _, want := range []string{"Fitted growth", "10.00%", `value="10"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
}
