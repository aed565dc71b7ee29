// Package valuation turns a statement history and a set of forward-looking
// assumptions into a band of per-share intrinsic-value estimates.
package valuation

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when the history carries no income to
	// average.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateShareCount is returned when the most recent statement has a
	// zero or missing share count.
	ErrDegenerateShareCount = errors.New("degenerate share count")

	// ErrInvalidAssumptions is returned by Assumptions.Validate.
	ErrInvalidAssumptions = errors.New("invalid assumptions")
)

// Assumptions are the forward projection parameters of a security.
type Assumptions struct {
	GrowthRate   float64 `json:"growth_rate" yaml:"growth_rate"`
	Years        int     `json:"years" yaml:"years"`
	SafetyMargin float64 `json:"safety_margin" yaml:"safety_margin"`
}

// Validate checks the ranges the dashboard accepts.
func (a Assumptions) Validate() error {
	if a.Years <= 0 {
		return fmt.Errorf("%w: years must be positive, got %d", ErrInvalidAssumptions, a.Years)
	}
	if a.SafetyMargin < 0 || a.SafetyMargin >= 1 {
		return fmt.Errorf("%w: safety margin must be in [0, 1), got %v", ErrInvalidAssumptions, a.SafetyMargin)
	}
	return nil
}

// Analysis is the computed valuation of a security.
type Analysis struct {
	AverageIncome     float64 `json:"average_income"`
	DebtToEquity      float64 `json:"de_ratio"`
	BookValuePerShare float64 `json:"bvps"`
	CAGR              float64 `json:"cagr"`

	// Trend is the exponential fit of the averaged incomes, nil when they
	// cannot be fitted.
	Trend *Trend `json:"trend,omitempty"`

	// Upper and Lower are target*(1+m) and target*(1-m) for a non-negative
	// target. For a negative target the factors are swapped, so Lower is
	// always the smaller bound.
	Target float64 `json:"target"`
	Upper  float64 `json:"upper"`
	Lower  float64 `json:"lower"`

	// NominalUpper and NominalLower follow the same sign rule as Upper and
	// Lower.
	NominalTarget float64 `json:"nominal_target"`
	NominalUpper  float64 `json:"nominal_upper"`
	NominalLower  float64 `json:"nominal_lower"`

	Warnings []NumericDegeneracyWarning `json:"warnings,omitempty"`
}

// NumericDegeneracyWarning records a metric that could not be computed and
// was replaced by zero.
type NumericDegeneracyWarning struct {
	Metric string `json:"metric"`
	Reason string `json:"reason"`
}

func (w NumericDegeneracyWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Metric, w.Reason)
}
