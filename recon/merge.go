/*
Package recon merges per-scenario ledgers and reconciles them against
externally reported figures.

PURPOSE:
  After the sweep has simulated every assumption set, this package joins the
  per-scenario daily ledgers column-wise into one wide table (merge.go), then
  aligns the calculated figures with reported ground truth and derives
  exact-match and percentage-tolerance flags (interest.go, balance.go).

KEY CONCEPTS:
  - MergedLedger: one shared date/rate spine plus per-scenario value columns
  - Scenario-invariant columns: date and annual rate must be value-identical
    across scenarios; the merge asserts this instead of silently deduplicating
  - Tolerance flags: value differences are the intended OUTPUT of
    reconciliation, never an error

SEE ALSO:
  - loan/scenario.go: scenario identity and column suffixes
  - sweep: drives simulation and owns the result accumulator
*/
package recon

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// SCENARIO SERIES - One scenario's completed daily ledger
// =============================================================================

type ScenarioSeries struct {
	Scenario loan.Scenario
	Rows     []loan.DayRow
}

// =============================================================================
// MERGED LEDGER - Column-wise join of all scenario results
// =============================================================================

// MergedDay is the scenario-invariant part of a merged row.
type MergedDay struct {
	Date time.Time
	Rate decimal.Decimal
}

// ScenarioColumns holds one scenario's derived columns, parallel to
// MergedLedger.Days.
type ScenarioColumns struct {
	Scenario loan.Scenario
	Payments []decimal.Decimal
	Interest []decimal.Decimal
	Balance  []decimal.Decimal
}

// MergedLedger is the wide per-scenario daily ledger: a single copy of the
// scenario-invariant date and rate columns, plus one column set per scenario.
type MergedLedger struct {
	Days    []MergedDay
	Columns []ScenarioColumns
}

// Scenarios returns the merged scenarios in column order.
func (m *MergedLedger) Scenarios() []loan.Scenario {
	out := make([]loan.Scenario, len(m.Columns))
	for i, c := range m.Columns {
		out[i] = c.Scenario
	}
	return out
}

// Merge joins scenario ledgers column-wise. All inputs must cover the exact
// same calendar with identical forward-filled rates; any disagreement on
// those scenario-invariant columns is an error, not something to silently
// drop. At least one series is required.
func Merge(series []ScenarioSeries) (*MergedLedger, error) {
	if len(series) == 0 {
		return nil, &loan.ReconciliationAlignmentError{Report: "merge"}
	}

	first := series[0]
	days := make([]MergedDay, len(first.Rows))
	for i, row := range first.Rows {
		days[i] = MergedDay{Date: row.Date, Rate: row.Rate}
	}

	merged := &MergedLedger{Days: days}
	for _, s := range series {
		if len(s.Rows) != len(first.Rows) {
			return nil, &loan.ScenarioInvariantViolation{
				Column: "date", A: first.Scenario, B: s.Scenario,
			}
		}
		cols := ScenarioColumns{
			Scenario: s.Scenario,
			Payments: make([]decimal.Decimal, len(s.Rows)),
			Interest: make([]decimal.Decimal, len(s.Rows)),
			Balance:  make([]decimal.Decimal, len(s.Rows)),
		}
		for i, row := range s.Rows {
			if !row.Date.Equal(days[i].Date) {
				return nil, &loan.ScenarioInvariantViolation{
					Column: "date", Date: row.Date, A: first.Scenario, B: s.Scenario,
				}
			}
			if !row.Rate.Equal(days[i].Rate) {
				return nil, &loan.ScenarioInvariantViolation{
					Column: "annual_interest_rate", Date: row.Date, A: first.Scenario, B: s.Scenario,
				}
			}
			cols.Payments[i] = row.Payment
			cols.Interest[i] = row.Interest
			cols.Balance[i] = row.Balance
		}
		merged.Columns = append(merged.Columns, cols)
	}
	return merged, nil
}
