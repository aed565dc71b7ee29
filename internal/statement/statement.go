// Package statement holds per-period financial statements and the reconciler
// that merges freshly fetched statements into a stored history.
package statement

import (
	"time"
)

// TTM is the period id of the trailing-twelve-months snapshot. It is always
// considered more recent than any dated period.
const TTM = "TTM"

// periodLayouts are the period id formats accepted as dated periods.
var periodLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
	"1/2/2006",
}

// Statement is one reporting period's data. A nil value means the figure was
// not reported; zero is a real zero.
type Statement struct {
	PeriodID    string   `json:"period_id"`
	Income      *float64 `json:"income"`
	Shares      *float64 `json:"shares_outstanding"`
	Assets      *float64 `json:"assets"`
	Liabilities *float64 `json:"liabilities"`
	BookValue   *float64 `json:"book_value"`

	// BackfilledFrom names the period the balance sheet was copied from, if any.
	BackfilledFrom string `json:"backfilled_from,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// IsTTM reports whether s is the trailing-twelve-months snapshot.
func (s Statement) IsTTM() bool {
	return s.PeriodID == TTM
}

// HasBalanceSheet reports whether s carries its own balance-sheet snapshot.
func (s Statement) HasBalanceSheet() bool {
	return s.Assets != nil && s.BackfilledFrom == ""
}

// Complete reports whether every field of s was reported. A backfilled
// balance sheet does not count.
func (s Statement) Complete() bool {
	return s.Income != nil && s.Shares != nil && s.HasBalanceSheet() &&
		s.Liabilities != nil && s.BookValue != nil
}

// Date returns the period end date. ok is false for TTM and for ids that are
// not a recognised date.
func (s Statement) Date() (t time.Time, ok bool) {
	if s.IsTTM() {
		return time.Time{}, false
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s.PeriodID); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Clone returns a deep copy of s.
func (s Statement) Clone() Statement {
	c := s
	c.Income = clonePtr(s.Income)
	c.Shares = clonePtr(s.Shares)
	c.Assets = clonePtr(s.Assets)
	c.Liabilities = clonePtr(s.Liabilities)
	c.BookValue = clonePtr(s.BookValue)
	return c
}

// Incomes returns the reported incomes of history in order, skipping periods
// without one.
func Incomes(history []Statement) []float64 {
	out := make([]float64, 0, len(history))
	for _, s := range history {
		if s.Income != nil {
			out = append(out, *s.Income)
		}
	}
	return out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
