/*
Package loan provides the core loan accrual simulation engine.

PURPOSE:
  This package contains the types and algorithms for reconstructing a loan's
  day-by-day balance and accrued interest from a sparse ledger of borrow and
  repayment events plus a time series of annual interest rates. The engine is
  the basis for the assumption sweep: the same event history is simulated
  under several competing assumptions about when payments actually landed.

KEY CONCEPTS IN THIS FILE (types.go):
  - Event: A signed balance change on a date (borrow > 0, repayment < 0)
  - RatePoint: A sparse annual-rate observation, forward-filled by the engine
  - ReportedPoint: Externally reported ground truth, used only for comparison
  - DayRow: One fully derived row of the dense daily ledger

DESIGN PRINCIPLES:
  1. Immutability: Input series are never mutated, only filtered/replaced
  2. Precision: Uses decimal.Decimal to avoid floating-point drift
  3. Determinism: Identical inputs always produce identical ledgers

SEE ALSO:
  - calendar.go: Day counts and financial-year bucketing
  - reallocate.go: Evenly-spread repayment reallocation
  - accrual.go: The daily compounding recurrence
  - scenario.go: Assumption-set configuration values
*/
package loan

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EVENT - A signed balance change on a date
// =============================================================================

// Event is a single ledger entry. Change > 0 is a borrow/drawdown,
// Change < 0 is a repayment. Multiple events may share a date.
type Event struct {
	Date   time.Time
	Change decimal.Decimal
}

// NewEvent builds an event pinned to UTC midnight of the given day.
func NewEvent(year int, month time.Month, day int, change decimal.Decimal) Event {
	return Event{Date: Day(year, month, day), Change: change}
}

// SortEvents orders events by date ascending, preserving the relative order
// of events that share a date.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
}

// CloneEvents returns an independent copy. Scenario runs operate on their own
// copy so that reallocation never leaks into a sibling scenario.
func CloneEvents(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// =============================================================================
// RATE SERIES - Sparse annual percentage rates
// =============================================================================

// RatePoint records the annual interest rate (percentage, e.g. 12 for 12%)
// effective from Date until the next observation.
type RatePoint struct {
	Date time.Time
	Rate decimal.Decimal
}

// SortRates orders rate points by date ascending.
func SortRates(rates []RatePoint) {
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Date.Before(rates[j].Date)
	})
}

// =============================================================================
// REPORTED FIGURES - External ground truth
// =============================================================================

// ReportedPoint is an externally reported figure keyed by date: either a
// monthly interest total or a point-in-time balance. It never influences the
// simulation; it is only compared against.
type ReportedPoint struct {
	Date  time.Time
	Value decimal.Decimal
}

// =============================================================================
// DAILY LEDGER ROW - One derived row per calendar day
// =============================================================================

// DayRow is one row of the dense daily ledger.
//
// Invariant: Balance = yesterday's Balance + Payment + Interest, with an
// implicit zero opening balance before the first day.
type DayRow struct {
	Date     time.Time
	Payment  decimal.Decimal // net balance change that day (0 if no event)
	Rate     decimal.Decimal // annual rate in force (forward-filled)
	Interest decimal.Decimal // interest accrued that day
	Balance  decimal.Decimal // running balance at end of day
}
