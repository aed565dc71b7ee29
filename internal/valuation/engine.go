package valuation

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/mauv0809/valuedash/internal/statement"
)

const (
	// DefaultInflationRate compounds older incomes into present-period terms.
	DefaultInflationRate = 0.0328

	// DefaultWindow is the number of most recent incomes that are averaged.
	DefaultWindow = 10
)

// CAGRBase selects which observation is the denominator of the growth ratio.
type CAGRBase int

const (
	// OldestObservation divides by the oldest income in the averaging window.
	OldestObservation CAGRBase = iota
	// SecondObservation divides by the second most recent income, as the
	// first dashboard release did. The exponent still spans the whole window.
	SecondObservation
)

// ParseCAGRBase maps "oldest" and "second" to a CAGRBase.
func ParseCAGRBase(s string) (CAGRBase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oldest":
		return OldestObservation, nil
	case "second":
		return SecondObservation, nil
	}
	return 0, fmt.Errorf("unknown CAGR base %q", s)
}

func (b CAGRBase) String() string {
	if b == SecondObservation {
		return "second"
	}
	return "oldest"
}

// Engine computes analyses. The zero value is not usable; call NewEngine.
// An Engine holds no state between calls and may be shared.
type Engine struct {
	inflationRate float64
	window        int
	cagrBase      CAGRBase
	logger        *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithInflationRate overrides DefaultInflationRate.
func WithInflationRate(r float64) Option {
	return func(e *Engine) { e.inflationRate = r }
}

// WithWindow overrides DefaultWindow. Values below 1 are ignored.
func WithWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.window = n
		}
	}
}

// WithCAGRBase selects the growth ratio denominator.
func WithCAGRBase(b CAGRBase) Option {
	return func(e *Engine) { e.cagrBase = b }
}

// WithLogger sets the logger degeneracy warnings are written to.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an Engine with the default constants.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		inflationRate: DefaultInflationRate,
		window:        DefaultWindow,
		cagrBase:      OldestObservation,
		logger:        log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze values a security from its history, ordered most recent first.
func (e *Engine) Analyze(history []statement.Statement, a Assumptions) (Analysis, error) {
	if len(history) == 0 {
		return Analysis{}, fmt.Errorf("analyzing empty history: %w", ErrInsufficientData)
	}
	latest := history[0]
	if latest.Shares == nil || *latest.Shares == 0 {
		return Analysis{}, fmt.Errorf("analyzing period %s: %w", latest.PeriodID, ErrDegenerateShareCount)
	}
	shares := *latest.Shares

	incomes := statement.Incomes(history)
	if len(incomes) == 0 {
		return Analysis{}, fmt.Errorf("analyzing history without income: %w", ErrInsufficientData)
	}
	incomes = incomes[:min(len(incomes), e.window)]

	var res Analysis
	warn := func(metric, reason string) float64 {
		w := NumericDegeneracyWarning{Metric: metric, Reason: reason}
		e.logger.Printf("valuation warning (period %s): %s", latest.PeriodID, w)
		res.Warnings = append(res.Warnings, w)
		return 0
	}

	res.AverageIncome = e.averageIncome(incomes)
	if t, ok := FitTrend(incomes); ok {
		res.Trend = &t
	}

	switch {
	case latest.Assets == nil || latest.Liabilities == nil:
		res.DebtToEquity = warn("de_ratio", "balance sheet not reported")
	case *latest.Assets == 0:
		res.DebtToEquity = warn("de_ratio", "zero assets")
	default:
		res.DebtToEquity = *latest.Liabilities / *latest.Assets
	}

	if latest.BookValue == nil {
		res.BookValuePerShare = warn("bvps", "book value not reported")
	} else {
		res.BookValuePerShare = *latest.BookValue / shares
	}

	if cagr, ok := e.cagr(incomes); ok {
		res.CAGR = cagr
	} else {
		res.CAGR = warn("cagr", fmt.Sprintf("undefined growth ratio between %v and %v", incomes[0], incomes[e.baseIndex(len(incomes))]))
	}

	years := float64(a.Years)
	res.NominalTarget = res.AverageIncome * years / shares
	if a.GrowthRate == 0 {
		res.Target = res.AverageIncome * years / shares
	} else {
		res.Target = res.AverageIncome * (math.Pow(1+a.GrowthRate, years) - 1) / a.GrowthRate / shares
	}
	if !finite(res.Target) {
		res.Target = warn("target", "growth projection overflowed")
	}

	res.Lower, res.Upper = band(res.Target, a.SafetyMargin)
	res.NominalLower, res.NominalUpper = band(res.NominalTarget, a.SafetyMargin)
	return res, nil
}

// averageIncome inflates each income by (1+r)^i, i being its distance from
// the most recent one, and divides the sum by the number of incomes.
func (e *Engine) averageIncome(incomes []float64) float64 {
	var sum float64
	for i, v := range incomes {
		sum += v * math.Pow(1+e.inflationRate, float64(i))
	}
	return sum / float64(len(incomes))
}

// cagr returns false when the ratio has no finite real root.
func (e *Engine) cagr(incomes []float64) (float64, bool) {
	n := len(incomes)
	if n < 2 {
		return 0, true
	}
	ratio := incomes[0] / incomes[e.baseIndex(n)]
	v := math.Pow(ratio, 1/float64(n-1)) - 1
	if !finite(v) {
		return 0, false
	}
	return v, true
}

func (e *Engine) baseIndex(n int) int {
	if n < 2 {
		return 0
	}
	if e.cagrBase == SecondObservation {
		return 1
	}
	return n - 1
}

// band widens target by margin on both sides. For a negative target the
// factors swap so that lower <= target <= upper still holds.
func band(target, margin float64) (lower, upper float64) {
	if target < 0 {
		return target * (1 + margin), target * (1 - margin)
	}
	return target * (1 - margin), target * (1 + margin)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
