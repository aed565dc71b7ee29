package statement

// legacyMissing is the placeholder the legacy documents store in place of a
// balance sheet that was never published.
const legacyMissing = -1

// LegacyFinancial is the per-period document shape written by the first
// version of the dashboard. Zero means "not reported" in every field and the
// balance sheet of a TTM period is filled with -1.
type LegacyFinancial struct {
	Date         string `json:"date"`
	BalanceSheet struct {
		Assets      float64 `json:"assets"`
		Liabilities float64 `json:"liabilities"`
		BookValue   float64 `json:"book_value"`
	} `json:"balance_sheet"`
	IncomeStatement struct {
		Income float64 `json:"income"`
		Shares float64 `json:"shares"`
	} `json:"income_statement"`
}

// FromLegacy converts legacy documents into statements, turning the zero
// placeholders and the balance-sheet -1 placeholders into missing values. Documents without a date are dropped.
func FromLegacy(docs []LegacyFinancial) []Statement {
	out := make([]Statement, 0, len(docs))
	for _, d := range docs {
		if d.Date == "" {
			continue
		}
		out = append(out, Statement{
			PeriodID:    d.Date,
			Income:      legacyValue(d.IncomeStatement.Income),
			Shares:      legacyValue(d.IncomeStatement.Shares),
			Assets:      legacyBalance(d.BalanceSheet.Assets),
			Liabilities: legacyBalance(d.BalanceSheet.Liabilities),
			BookValue:   legacyBalance(d.BalanceSheet.BookValue),
		})
	}
	return out
}

func legacyValue(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return Float(v)
}

// legacyBalance is legacyValue for balance-sheet fields, which also carry
// the -1 placeholder.
func legacyBalance(v float64) *float64 {
	if v == legacyMissing {
		return nil
	}
	return legacyValue(v)
}
