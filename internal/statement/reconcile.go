package statement

import (
	"slices"
	"strings"
)

// Reconcile merges incoming into existing and returns a new series ordered
// most recent first. Neither input is modified.
//
// A period present only in incoming is added. A TTM period is always replaced
// by the incoming snapshot. Any other period is replaced only when the stored
// record is incomplete; complete stored data is never overwritten.
//
// When the first record of the result has no balance sheet of its own (TTM
// snapshots never do), it borrows the balance sheet of the next record.
func Reconcile(existing, incoming []Statement) []Statement {
	byPeriod := make(map[string]Statement, len(existing)+len(incoming))
	order := make([]string, 0, len(existing)+len(incoming))

	for _, s := range existing {
		if _, ok := byPeriod[s.PeriodID]; ok {
			continue
		}
		byPeriod[s.PeriodID] = s
		order = append(order, s.PeriodID)
	}

	for _, in := range incoming {
		cur, ok := byPeriod[in.PeriodID]
		if !ok {
			order = append(order, in.PeriodID)
			byPeriod[in.PeriodID] = in
			continue
		}
		if supersedes(cur, in) {
			byPeriod[in.PeriodID] = in
		}
	}

	out := make([]Statement, 0, len(order))
	for _, id := range order {
		out = append(out, stripBackfill(byPeriod[id].Clone()))
	}
	Sort(out)
	backfill(out)
	return out
}

// supersedes reports whether in should replace the stored record cur for the
// same period.
func supersedes(cur, in Statement) bool {
	if in.IsTTM() {
		return true
	}
	return !cur.Complete()
}

// Sort orders statements by descending recency: TTM first, then dated periods
// newest first, then unrecognised ids in descending lexical order.
func Sort(statements []Statement) {
	slices.SortStableFunc(statements, compareRecency)
}

func compareRecency(a, b Statement) int {
	if a.IsTTM() != b.IsTTM() {
		if a.IsTTM() {
			return -1
		}
		return 1
	}
	ad, aok := a.Date()
	bd, bok := b.Date()
	switch {
	case aok && bok:
		return bd.Compare(ad)
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(b.PeriodID, a.PeriodID)
}

// stripBackfill drops a balance sheet that was borrowed from another period,
// so it is recomputed against the current ordering.
func stripBackfill(s Statement) Statement {
	if s.BackfilledFrom == "" {
		return s
	}
	s.Assets, s.Liabilities, s.BookValue = nil, nil, nil
	s.BackfilledFrom = ""
	return s
}

func backfill(statements []Statement) {
	if len(statements) < 2 || statements[0].HasBalanceSheet() {
		return
	}
	next := statements[1]
	if next.Assets == nil {
		return
	}
	first := &statements[0]
	first.Assets = clonePtr(next.Assets)
	first.Liabilities = clonePtr(next.Liabilities)
	first.BookValue = clonePtr(next.BookValue)
	first.BackfilledFrom = next.PeriodID
}
