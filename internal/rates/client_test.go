package rates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const calculatorPage = `<html><body>
<div class="ccOutputBx">
  <span class="ccOutputTxt">1.00 USD = </span>
  <span class="ccOutputRslt">0.921234<span class="ccOutputTrail">56</span><span class="ccOutputCode"> EUR</span></span>
</div>
</body></html>`

func TestParseRate(t *testing.T) {
	rate, err := ParseRate(calculatorPage, "USD")
	if err != nil {
		t.Fatalf("ParseRate: %v", err)
	}
	if rate.String() != "0.921234" {
		t.Errorf("rate = %s, want 0.921234", rate)
	}
}

func TestParseRateMissing(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no label", `<html><body><span>nothing here</span></body></html>`},
		{"no amount", `<html><body><span>1.00 USD = </span><span><b>?</b></span></body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRate(tt.page, "USD"); !errors.Is(err, ErrRateNotFound) {
				t.Errorf("err = %v, want ErrRateNotFound", err)
			}
		})
	}
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calculator/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("from") != "USD" || q.Get("to") != "EUR" || q.Get("amount") != "1" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, calculatorPage)
	}))
	defer srv.Close()

	rate, err := NewClient(srv.URL).Fetch(context.Background(), "USD", "EUR")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rate.String() != "0.921234" {
		t.Errorf("rate = %s", rate)
	}
}

func TestClientFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Fetch(context.Background(), "USD", "EUR"); err == nil {
		t.Error("expected an error")
	}
}
