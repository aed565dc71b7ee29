package valuation

import (
	"math"
)

// Trend is an exponential fit v0 * (1+Growth)^x through an income series in
// chronological order.
type Trend struct {
	// Growth is the fitted per-period growth rate.
	Growth float64 `json:"growth"`
	// Predicted is the fitted income of the most recent period.
	Predicted float64 `json:"predicted_income"`
	Periods   int     `json:"periods"`
}

// FitTrend fits incomes, most recent first, by least squares on their
// logarithms. ok is false with fewer than two incomes or when any income is
// not positive, since the fit has no logarithm to work with.
func FitTrend(incomes []float64) (t Trend, ok bool) {
	n := len(incomes)
	if n < 2 {
		return Trend{}, false
	}

	// x runs from the oldest income (0) to the most recent (n-1).
	var sumX, sumY, sumXX, sumXY float64
	for i, v := range incomes {
		if v <= 0 || !finite(v) {
			return Trend{}, false
		}
		x := float64(n - 1 - i)
		y := math.Log(v)
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	t = Trend{
		Growth:    math.Exp(slope) - 1,
		Predicted: math.Exp(intercept + slope*float64(n-1)),
		Periods:   n,
	}
	if !finite(t.Growth) || !finite(t.Predicted) {
		return Trend{}, false
	}
	return t, true
}
