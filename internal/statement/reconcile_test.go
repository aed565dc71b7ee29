package statement

import (
	"reflect"
	"testing"
)

func full(period string, income, shares, assets, liabilities, book float64) Statement {
	return Statement{
		PeriodID:    period,
		Income:      Float(income),
		Shares:      Float(shares),
		Assets:      Float(assets),
		Liabilities: Float(liabilities),
		BookValue:   Float(book),
	}
}

func ttm(income, shares float64) Statement {
	return Statement{PeriodID: TTM, Income: Float(income), Shares: Float(shares)}
}

func periods(statements []Statement) []string {
	ids := make([]string, len(statements))
	for i, s := range statements {
		ids[i] = s.PeriodID
	}
	return ids
}

func find(t *testing.T, statements []Statement, period string) Statement {
	t.Helper()
	for _, s := range statements {
		if s.PeriodID == period {
			return s
		}
	}
	t.Fatalf("period %s not found in %v", period, periods(statements))
	return Statement{}
}

func TestReconcileTTMAlwaysReplaced(t *testing.T) {
	existing := []Statement{ttm(100, 10)}
	incoming := []Statement{ttm(150, 10)}

	got := Reconcile(existing, incoming)

	if len(got) != 1 {
		t.Fatalf("got %d statements, want 1", len(got))
	}
	if *got[0].Income != 150 {
		t.Errorf("TTM income = %v, want 150", *got[0].Income)
	}
}

func TestReconcileMissingFieldOverridden(t *testing.T) {
	existing := []Statement{{PeriodID: "2022", Shares: Float(10)}}
	incoming := []Statement{full("2022", 500, 10, 1000, 400, 600)}

	got := Reconcile(existing, incoming)

	if *find(t, got, "2022").Income != 500 {
		t.Errorf("income = %v, want 500", *find(t, got, "2022").Income)
	}
}

func TestReconcileLegacyZeroIncomeOverridden(t *testing.T) {
	var doc LegacyFinancial
	doc.Date = "2022"
	doc.IncomeStatement.Shares = 10
	doc.BalanceSheet.Assets = 1000
	doc.BalanceSheet.Liabilities = 400
	doc.BalanceSheet.BookValue = 600

	got := Reconcile(FromLegacy([]LegacyFinancial{doc}), []Statement{full("2022", 500, 10, 1000, 400, 600)})

	if *find(t, got, "2022").Income != 500 {
		t.Errorf("income = %v, want 500", *find(t, got, "2022").Income)
	}
}

func TestReconcileValidDataKept(t *testing.T) {
	existing := []Statement{full("2022", 500, 10, 1000, 400, 600)}
	incoming := []Statement{full("2022", 999, 12, 2000, 800, 1200)}

	got := Reconcile(existing, incoming)

	s := find(t, got, "2022")
	if *s.Income != 500 || *s.Shares != 10 || *s.Assets != 1000 {
		t.Errorf("existing data overwritten: %+v", s)
	}
}

func TestReconcileRealZeroIsNotMissing(t *testing.T) {
	existing := []Statement{full("2022", 500, 10, 1000, 0, 1000)}
	incoming := []Statement{full("2022", 500, 10, 1000, 400, 600)}

	got := Reconcile(existing, incoming)

	if l := *find(t, got, "2022").Liabilities; l != 0 {
		t.Errorf("liabilities = %v, want the stored 0", l)
	}
}

func TestReconcileOrdering(t *testing.T) {
	existing := []Statement{
		full("2021-12-31", 1, 1, 1, 1, 1),
		full("2023-12-31", 3, 1, 1, 1, 1),
	}
	incoming := []Statement{
		full("2022-12-31", 2, 1, 1, 1, 1),
		ttm(4, 1),
		full("2024-06-30", 5, 1, 1, 1, 1),
	}

	got := periods(Reconcile(existing, incoming))

	want := []string{TTM, "2024-06-30", "2023-12-31", "2022-12-31", "2021-12-31"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestReconcileMixedPeriodFormats(t *testing.T) {
	incoming := []Statement{
		full("2021", 1, 1, 1, 1, 1),
		full("12/31/2023", 3, 1, 1, 1, 1),
		full("2022-06-30", 2, 1, 1, 1, 1),
		full("unknown", 0, 1, 1, 1, 1),
	}

	got := periods(Reconcile(nil, incoming))

	want := []string{"12/31/2023", "2022-06-30", "2021", "unknown"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestReconcileBackfillsTTMBalanceSheet(t *testing.T) {
	existing := []Statement{full("2023-12-31", 90, 10, 1000, 400, 600)}
	incoming := []Statement{ttm(120, 10)}

	got := Reconcile(existing, incoming)

	first := got[0]
	if !first.IsTTM() {
		t.Fatalf("first = %s, want TTM", first.PeriodID)
	}
	if first.Assets == nil || *first.Assets != 1000 || *first.Liabilities != 400 || *first.BookValue != 600 {
		t.Errorf("balance sheet not backfilled: %+v", first)
	}
	if first.BackfilledFrom != "2023-12-31" {
		t.Errorf("BackfilledFrom = %q, want 2023-12-31", first.BackfilledFrom)
	}
	if *first.Income != 120 {
		t.Errorf("income = %v, want 120", *first.Income)
	}
}

func TestReconcileBackfillFollowsNewPeriods(t *testing.T) {
	existing := Reconcile(nil, []Statement{full("2022-12-31", 90, 10, 1000, 400, 600), ttm(100, 10)})
	incoming := []Statement{full("2023-12-31", 110, 10, 2000, 900, 1100)}

	got := Reconcile(existing, incoming)

	if got[0].BackfilledFrom != "2023-12-31" || *got[0].Assets != 2000 {
		t.Errorf("TTM balance sheet = %+v, want the 2023-12-31 snapshot", got[0])
	}
}

func TestReconcileIdempotent(t *testing.T) {
	existing := []Statement{
		full("2021-12-31", 80, 10, 900, 300, 600),
		{PeriodID: "2022-12-31", Income: Float(90), Shares: Float(10)},
	}
	incoming := []Statement{
		ttm(100, 10),
		full("2022-12-31", 95, 10, 1000, 400, 600),
		full("2020-12-31", 70, 10, 800, 300, 500),
	}

	once := Reconcile(existing, incoming)
	twice := Reconcile(once, nil)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second reconcile changed the series:\n once  %+v\n twice %+v", once, twice)
	}
}

func TestReconcileEmpty(t *testing.T) {
	if got := Reconcile(nil, nil); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}

	existing := []Statement{full("2021", 1, 1, 1, 1, 1), full("2023", 3, 1, 1, 1, 1)}
	got := Reconcile(existing, nil)
	if want := []string{"2023", "2021"}; !reflect.DeepEqual(periods(got), want) {
		t.Errorf("order = %v, want %v", periods(got), want)
	}
	if *existing[0].Income != 1 || existing[0].PeriodID != "2021" {
		t.Errorf("input modified: %+v", existing[0])
	}
}

func TestReconcileDoesNotAliasInput(t *testing.T) {
	incoming := []Statement{full("2022", 500, 10, 1000, 400, 600)}

	got := Reconcile(nil, incoming)
	*got[0].Income = 1

	if *incoming[0].Income != 500 {
		t.Errorf("result shares memory with input")
	}
}

func TestFromLegacy(t *testing.T) {
	var doc LegacyFinancial
	doc.Date = TTM
	doc.IncomeStatement.Income = 120
	doc.IncomeStatement.Shares = 10
	doc.BalanceSheet.Assets = -1
	doc.BalanceSheet.Liabilities = -1
	doc.BalanceSheet.BookValue = -1

	got := FromLegacy([]LegacyFinancial{doc, {}})

	if len(got) != 1 {
		t.Fatalf("got %d statements, want 1", len(got))
	}
	if got[0].Assets != nil || got[0].Liabilities != nil || got[0].BookValue != nil {
		t.Errorf("placeholder balance sheet kept: %+v", got[0])
	}
	if *got[0].Income != 120 || *got[0].Shares != 10 {
		t.Errorf("income statement = %v/%v, want 120/10", *got[0].Income, *got[0].Shares)
	}
}

func TestFromLegacyKeepsNegativeOneIncome(t *testing.T) {
	var doc LegacyFinancial
	doc.Date = "2020-12-31"
	doc.IncomeStatement.Income = -1
	doc.IncomeStatement.Shares = 10

	got := FromLegacy([]LegacyFinancial{doc})

	if len(got) != 1 || got[0].Income == nil || *got[0].Income != -1 {
		t.Fatalf("income = %+v, want a reported -1", got)
	}
	if got[0].Assets != nil {
		t.Errorf("assets = %v, want missing", *got[0].Assets)
	}
}
