package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// INTEREST RECONCILIATION - Calculated monthly totals vs reported interest
// =============================================================================

// InterestCell is one scenario's figure for one month.
type InterestCell struct {
	Calculated decimal.Decimal
	Difference decimal.Decimal // Calculated - Reported; zero when no reported figure
	Flags      ToleranceFlags
}

// InterestRow is one calendar month of the comparison table.
type InterestRow struct {
	Month    loan.MonthKey
	Reported *decimal.Decimal // nil when the month has no reported figure
	Cells    []InterestCell   // parallel to InterestReport.Scenarios
}

// InterestReport aligns calculated monthly interest with the reported series.
type InterestReport struct {
	Scenarios []loan.Scenario
	Rows      []InterestRow
}

// CompareInterest sums each scenario's daily interest into calendar-month
// totals and aligns them by year-month key with the reported monthly series.
// Every month present in the ledger gets a row; reported figures and
// tolerance flags appear where the reported series covers the month.
// A reported series that overlaps no ledger month at all is an alignment
// error, not an empty table.
func CompareInterest(m *MergedLedger, reported []loan.ReportedPoint) (*InterestReport, error) {
	monthly := make(map[loan.MonthKey][]decimal.Decimal) // month -> per-scenario sums
	var months []loan.MonthKey
	for i, day := range m.Days {
		mk := loan.MonthKeyOf(day.Date)
		sums, seen := monthly[mk]
		if !seen {
			sums = make([]decimal.Decimal, len(m.Columns))
			months = append(months, mk)
		}
		for s := range m.Columns {
			sums[s] = sums[s].Add(m.Columns[s].Interest[i])
		}
		monthly[mk] = sums
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	reportedByMonth := make(map[loan.MonthKey]decimal.Decimal, len(reported))
	for _, rp := range reported {
		reportedByMonth[loan.MonthKeyOf(rp.Date)] = rp.Value
	}

	report := &InterestReport{Scenarios: m.Scenarios()}
	aligned := 0
	for _, mk := range months {
		row := InterestRow{Month: mk, Cells: make([]InterestCell, len(m.Columns))}
		rep, hasReported := reportedByMonth[mk]
		if hasReported {
			aligned++
			v := rep
			row.Reported = &v
		}
		for s, calc := range monthly[mk] {
			cell := InterestCell{Calculated: calc}
			if hasReported {
				cell.Difference = calc.Sub(rep)
				cell.Flags = CompareTolerance(calc, rep)
			}
			row.Cells[s] = cell
		}
		report.Rows = append(report.Rows, row)
	}

	if aligned == 0 {
		return nil, &loan.ReconciliationAlignmentError{Report: "interest"}
	}
	return report, nil
}
