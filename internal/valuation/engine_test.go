package valuation

import (
	"errors"
	"io"
	"log"
	"math"
	"reflect"
	"testing"

	"github.com/mauv0809/valuedash/internal/statement"
)

const tolerance = 1e-9

func quietEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)...)
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Abs(b))
}

func period(id string, income, shares, assets, liabilities, book float64) statement.Statement {
	return statement.Statement{
		PeriodID:    id,
		Income:      statement.Float(income),
		Shares:      statement.Float(shares),
		Assets:      statement.Float(assets),
		Liabilities: statement.Float(liabilities),
		BookValue:   statement.Float(book),
	}
}

func incomeOnly(shares float64, incomes ...float64) []statement.Statement {
	h := make([]statement.Statement, len(incomes))
	for i, v := range incomes {
		h[i] = statement.Statement{PeriodID: "p", Income: statement.Float(v), Shares: statement.Float(shares)}
	}
	return h
}

func TestAnalyzeScenario(t *testing.T) {
	history := []statement.Statement{
		period("2023", 120, 1, 1000, 400, 600),
		period("2022", 100, 1, 900, 300, 600),
	}
	a := Assumptions{GrowthRate: 0.05, Years: 5, SafetyMargin: 0.3}

	got, err := quietEngine().Analyze(history, a)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"cagr", got.CAGR, 0.2},
		{"average_income", got.AverageIncome, 111.64},
		{"de_ratio", got.DebtToEquity, 0.4},
		{"bvps", got.BookValuePerShare, 600},
		{"target", got.Target, 616.88147275},
		{"upper", got.Upper, 801.945914575},
		{"lower", got.Lower, 431.817030925},
		{"nominal_target", got.NominalTarget, 558.2},
		{"nominal_upper", got.NominalUpper, 725.66},
		{"nominal_lower", got.NominalLower, 390.74},
	}
	for _, c := range checks {
		if !near(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", got.Warnings)
	}
}

func TestAnalyzeBands(t *testing.T) {
	histories := map[string][]statement.Statement{
		"growing":   incomeOnly(10, 150, 120, 100, 90),
		"shrinking": incomeOnly(3, 50, 80, 100),
		"losses":    incomeOnly(7, -40, -20, 10),
		"single":    incomeOnly(1, 75),
	}
	assumptions := []Assumptions{
		{GrowthRate: 0, Years: 10, SafetyMargin: 0},
		{GrowthRate: 0.08, Years: 7, SafetyMargin: 0.25},
		{GrowthRate: -0.2, Years: 3, SafetyMargin: 0.5},
		{GrowthRate: 0.5, Years: 20, SafetyMargin: 0.99},
	}

	for name, h := range histories {
		for _, a := range assumptions {
			got, err := quietEngine().Analyze(h, a)
			if err != nil {
				t.Fatalf("%s %+v: %v", name, a, err)
			}
			if !(got.Lower <= got.Target && got.Target <= got.Upper) {
				t.Errorf("%s %+v: band %v <= %v <= %v violated", name, a, got.Lower, got.Target, got.Upper)
			}
			if !(got.NominalLower <= got.NominalTarget && got.NominalTarget <= got.NominalUpper) {
				t.Errorf("%s %+v: nominal band %v <= %v <= %v violated", name, a, got.NominalLower, got.NominalTarget, got.NominalUpper)
			}
			if !near(got.Upper-got.Target, got.Target-got.Lower) {
				t.Errorf("%s %+v: band not symmetric around %v", name, a, got.Target)
			}
			if !near(got.NominalUpper-got.NominalTarget, got.NominalTarget-got.NominalLower) {
				t.Errorf("%s %+v: nominal band not symmetric around %v", name, a, got.NominalTarget)
			}
		}
	}
}

func TestAnalyzeZeroGrowthIsLinear(t *testing.T) {
	h := incomeOnly(4, 100, 90, 80)
	a := Assumptions{GrowthRate: 0, Years: 6, SafetyMargin: 0.1}

	got, err := quietEngine().Analyze(h, a)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if want := got.AverageIncome * 6 / 4; got.Target != want {
		t.Errorf("target = %v, want exactly %v", got.Target, want)
	}
	if got.Target != got.NominalTarget {
		t.Errorf("target %v differs from nominal %v", got.Target, got.NominalTarget)
	}
}

func TestAnalyzeSingleStatement(t *testing.T) {
	got, err := quietEngine().Analyze(incomeOnly(10, 100), Assumptions{Years: 5})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.CAGR != 0 {
		t.Errorf("cagr = %v, want 0", got.CAGR)
	}
	for _, w := range got.Warnings {
		if w.Metric == "cagr" {
			t.Errorf("unexpected cagr warning %v", w)
		}
	}
}

func TestAnalyzeAverageUsesTenMostRecent(t *testing.T) {
	incomes := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 1e9, 1e9}
	got, err := quietEngine().Analyze(incomeOnly(1, incomes...), Assumptions{Years: 1})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var want float64
	for i := 0; i < 10; i++ {
		want += 10 * math.Pow(1+DefaultInflationRate, float64(i))
	}
	want /= 10
	if !near(got.AverageIncome, want) {
		t.Errorf("average = %v, want %v", got.AverageIncome, want)
	}
	if got.CAGR != 0 {
		t.Errorf("cagr = %v, want 0 for a flat window", got.CAGR)
	}
}

func TestAnalyzeCAGRBase(t *testing.T) {
	h := incomeOnly(1, 160, 120, 100, 40)

	oldest, err := quietEngine().Analyze(h, Assumptions{Years: 1})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if want := math.Pow(4, 1.0/3) - 1; !near(oldest.CAGR, want) {
		t.Errorf("oldest cagr = %v, want %v", oldest.CAGR, want)
	}

	second, err := quietEngine(WithCAGRBase(SecondObservation)).Analyze(h, Assumptions{Years: 1})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if want := math.Pow(160.0/120, 1.0/3) - 1; !near(second.CAGR, want) {
		t.Errorf("second cagr = %v, want %v", second.CAGR, want)
	}
}

func TestAnalyzeDegenerateCAGR(t *testing.T) {
	tests := map[string][]float64{
		"zero base":      {100, 50, 0},
		"negative ratio": {100, 50, -25},
	}
	for name, incomes := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := quietEngine().Analyze(incomeOnly(1, incomes...), Assumptions{Years: 3, SafetyMargin: 0.2})
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if got.CAGR != 0 {
				t.Errorf("cagr = %v, want 0", got.CAGR)
			}
			if len(got.Warnings) == 0 || got.Warnings[len(got.Warnings)-1].Metric != "cagr" {
				t.Errorf("warnings = %v, want a cagr warning", got.Warnings)
			}
			if math.IsNaN(got.Target) || math.IsNaN(got.Upper) {
				t.Errorf("NaN leaked into targets: %+v", got)
			}
		})
	}
}

func TestAnalyzeMissingBalanceSheet(t *testing.T) {
	h := []statement.Statement{{PeriodID: statement.TTM, Income: statement.Float(50), Shares: statement.Float(5)}}

	got, err := quietEngine().Analyze(h, Assumptions{Years: 2})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.DebtToEquity != 0 || got.BookValuePerShare != 0 {
		t.Errorf("de_ratio/bvps = %v/%v, want 0/0", got.DebtToEquity, got.BookValuePerShare)
	}
	metrics := map[string]bool{}
	for _, w := range got.Warnings {
		metrics[w.Metric] = true
	}
	if !metrics["de_ratio"] || !metrics["bvps"] {
		t.Errorf("warnings = %v, want de_ratio and bvps", got.Warnings)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		history []statement.Statement
		want    error
	}{
		{"empty", nil, ErrInsufficientData},
		{"no income", []statement.Statement{{PeriodID: "2023", Shares: statement.Float(1)}}, ErrInsufficientData},
		{"zero shares", incomeOnly(0, 100, 90), ErrDegenerateShareCount},
		{"missing shares", []statement.Statement{{PeriodID: "2023", Income: statement.Float(1)}}, ErrDegenerateShareCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietEngine().Analyze(tt.history, Assumptions{Years: 5})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAnalyzeIsPure(t *testing.T) {
	h := []statement.Statement{
		period("2023", 133.7, 7, 1000, 420, 580),
		period("2022", 101.1, 7, 950, 400, 550),
		period("2021", 87.3, 7, 900, 380, 520),
	}
	a := Assumptions{GrowthRate: 0.07, Years: 9, SafetyMargin: 0.35}
	e := quietEngine()

	first, err := e.Analyze(h, a)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Analyze(h, a)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
	if *h[0].Income != 133.7 {
		t.Errorf("history modified")
	}
}

func TestParseCAGRBase(t *testing.T) {
	tests := []struct {
		in   string
		want CAGRBase
		err  bool
	}{
		{"", OldestObservation, false},
		{"oldest", OldestObservation, false},
		{" Second ", SecondObservation, false},
		{"first", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseCAGRBase(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseCAGRBase(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCAGRBase(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAssumptionsValidate(t *testing.T) {
	tests := []struct {
		a   Assumptions
		err bool
	}{
		{Assumptions{GrowthRate: 0.1, Years: 10, SafetyMargin: 0.25}, false},
		{Assumptions{GrowthRate: -0.3, Years: 1, SafetyMargin: 0}, false},
		{Assumptions{Years: 0}, true},
		{Assumptions{Years: 5, SafetyMargin: 1}, true},
		{Assumptions{Years: 5, SafetyMargin: -0.1}, true},
	}
	for _, tt := range tests {
		err := tt.a.Validate()
		if (err != nil) != tt.err {
			t.Errorf("Validate(%+v) = %v, wantErr %v", tt.a, err, tt.err)
		}
		if err != nil && !errors.Is(err, ErrInvalidAssumptions) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidAssumptions", tt.a, err)
		}
	}
}

func TestNegativeTargetBand(t *testing.T) {
	got, err := quietEngine().Analyze(incomeOnly(1, -100), Assumptions{Years: 1, SafetyMargin: 0.25})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !near(got.Target, -100) || !near(got.Lower, -125) || !near(got.Upper, -75) {
		t.Errorf("band = %v/%v/%v, want -125/-100/-75", got.Lower, got.Target, got.Upper)
	}
}
