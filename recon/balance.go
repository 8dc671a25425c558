package recon

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// BALANCE RECONCILIATION - End-of-day balances vs reported point-in-time
// =============================================================================

// BalanceCell is one scenario's figure for one reconciled date.
type BalanceCell struct {
	Calculated decimal.Decimal
	Difference decimal.Decimal // Calculated - Reported
	Flags      ToleranceFlags
}

// BalanceRow is one reconciled date of the comparison table.
type BalanceRow struct {
	Date     time.Time
	Reported decimal.Decimal
	Cells    []BalanceCell // parallel to BalanceReport.Scenarios
}

// BalanceReport aligns calculated end-of-day balances with reported
// point-in-time balances. Only dates present in the reported series appear.
type BalanceReport struct {
	Scenarios []loan.Scenario
	Rows      []BalanceRow
}

// CompareBalances matches reported balances to ledger days by exact date.
// Reported dates outside the ledger calendar are skipped; if no reported
// date matches at all, that is an alignment error rather than a silently
// empty table.
func CompareBalances(m *MergedLedger, reported []loan.ReportedPoint) (*BalanceReport, error) {
	dayIndex := make(map[time.Time]int, len(m.Days))
	for i, day := range m.Days {
		dayIndex[day.Date] = i
	}

	sorted := make([]loan.ReportedPoint, len(reported))
	copy(sorted, reported)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	report := &BalanceReport{Scenarios: m.Scenarios()}
	for _, rp := range sorted {
		i, ok := dayIndex[loan.NormalizeDay(rp.Date)]
		if !ok {
			continue
		}
		row := BalanceRow{
			Date:     m.Days[i].Date,
			Reported: rp.Value,
			Cells:    make([]BalanceCell, len(m.Columns)),
		}
		for s := range m.Columns {
			calc := m.Columns[s].Balance[i]
			row.Cells[s] = BalanceCell{
				Calculated: calc,
				Difference: calc.Sub(rp.Value),
				Flags:      CompareTolerance(calc, rp.Value),
			}
		}
		report.Rows = append(report.Rows, row)
	}

	if len(report.Rows) == 0 {
		return nil, &loan.ReconciliationAlignmentError{Report: "balance"}
	}
	return report, nil
}
