package valuation

import (
	"testing"
)

func TestFitTrend(t *testing.T) {
	tests := []struct {
		name          string
		incomes       []float64
		wantOK        bool
		growth, value float64
	}{
		{"exact growth", []float64{121, 110, 100}, true, 0.1, 121},
		{"flat", []float64{50, 50, 50, 50}, true, 0, 50},
		{"decline", []float64{25, 50, 100}, true, -0.5, 25},
		{"two points", []float64{200, 100}, true, 1, 200},
		{"single", []float64{100}, false, 0, 0},
		{"loss", []float64{120, -10, 100}, false, 0, 0},
		{"zero", []float64{120, 0, 100}, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FitTrend(tt.incomes)
			if ok != tt.wantOK {
				t.Fatalf("FitTrend(%v) ok = %v, want %v", tt.incomes, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !near(got.Growth, tt.growth) || !near(got.Predicted, tt.value) {
				t.Errorf("FitTrend(%v) = %+v, want growth %v, predicted %v", tt.incomes, got, tt.growth, tt.value)
			}
			if got.Periods != len(tt.incomes) {
				t.Errorf("Periods = %d, want %d", got.Periods, len(tt.incomes))
			}
		})
	}
}

func TestFitTrendSmoothsNoise(t *testing.T) {
	// Most recent first; roughly 10% a year with noise on both sides.
	got, ok := FitTrend([]float64{148, 130, 124, 108, 100})
	if !ok {
		t.Fatal("expected a fit")
	}
	if got.Growth < 0.08 || got.Growth > 0.12 {
		t.Errorf("Growth = %v, want about 0.1", got.Growth)
	}
	if got.Predicted < 140 || got.Predicted > 150 {
		t.Errorf("Predicted = %v, want about 146", got.Predicted)
	}
}

func TestAnalyzeTrend(t *testing.T) {
	got, err := quietEngine().Analyze(incomeOnly(10, 121, 110, 100), Assumptions{Years: 5})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Trend == nil || !near(got.Trend.Growth, 0.1) {
		t.Errorf("Trend = %+v, want growth 0.1", got.Trend)
	}

	got, err = quietEngine().Analyze(incomeOnly(10, -5, 100), Assumptions{Years: 5})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Trend != nil {
		t.Errorf("Trend = %+v, want nil for a loss year", got.Trend)
	}
	for _, w := range got.Warnings {
		if w.Metric == "trend" {
			t.Error("an unfittable trend is not a warning")
		}
	}
}
