/*
reallocate.go - Evenly-spread repayment reallocation

PURPOSE:
  Replaces a financial year's worth of discrete repayment events with twelve
  equal monthly installments, pinned to an assumed day of the month. This
  models "payments divided equally over the tax year" for years before the
  cutover, where the true payment dates are unknown.

WHAT IS REALLOCATED:
  Only negative events (repayments) in financial years before the cutover.
  Positive events (borrows) and everything from the cutover year onward pass
  through untouched.

CONSERVATION INVARIANT:
  For every reallocated financial year, the sum of the twelve installments
  equals the sum of that year's original negative events.

SEE ALSO:
  - calendar.go: FinancialYearRule bucketing
  - scenario.go: PayDay date pinning
*/
package loan

import (
	"sort"

	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// ReallocationConfig controls the reallocation transform.
type ReallocationConfig struct {
	// CutoverYear is the first financial year left untouched.
	CutoverYear int

	// Rule assigns events to financial years.
	Rule FinancialYearRule

	// PayDay pins each synthetic installment within its month.
	PayDay PayDay
}

// Reallocate returns a new event set in which each pre-cutover financial
// year's repayments are replaced by twelve equal monthly installments.
// The input slice is never mutated.
func Reallocate(events []Event, cfg ReallocationConfig) ([]Event, error) {
	totals := make(map[int]decimal.Decimal) // financial year -> repayment sum
	var years []int
	var passthrough []Event

	for _, ev := range events {
		fy := cfg.Rule.YearOf(ev.Date)
		if fy >= cfg.CutoverYear || !ev.Change.IsNegative() {
			passthrough = append(passthrough, ev)
			continue
		}
		if _, seen := totals[fy]; !seen {
			years = append(years, fy)
		}
		totals[fy] = totals[fy].Add(ev.Change)
	}

	// Years are collected in event order; installment generation must not
	// depend on it, so iterate in chronological order.
	sort.Ints(years)

	out := make([]Event, 0, len(passthrough)+12*len(years))
	for _, fy := range years {
		installment := totals[fy].Div(twelve)
		for _, mk := range cfg.Rule.Months(fy) {
			date, err := cfg.PayDay.DateIn(mk.Year, mk.Month)
			if err != nil {
				return nil, err
			}
			out = append(out, Event{Date: date, Change: installment})
		}
	}
	out = append(out, passthrough...)
	SortEvents(out)
	return out, nil
}
