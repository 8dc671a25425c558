package recon_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/recon"
)

// januaryFebruaryLedger spans 2021-01-30 through 2021-02-02: two days of
// interest in each calendar month.
func januaryFebruaryLedger(t *testing.T) *recon.MergedLedger {
	t.Helper()
	dates := []time.Time{
		loan.Day(2021, time.January, 30),
		loan.Day(2021, time.January, 31),
		loan.Day(2021, time.February, 1),
		loan.Day(2021, time.February, 2),
	}
	var a, b []loan.DayRow
	for _, d := range dates {
		a = append(a, row(d, "10", "0", "1.25", "100"))
		b = append(b, row(d, "10", "0", "2.50", "200"))
	}
	merged, err := recon.Merge([]recon.ScenarioSeries{
		{Scenario: baseline, Rows: a},
		{Scenario: reFirst, Rows: b},
	})
	if err != nil {
		t.Fatal(err)
	}
	return merged
}

func TestCompareInterest_MonthlyGrouping(t *testing.T) {
	merged := januaryFebruaryLedger(t)
	reported := []loan.ReportedPoint{
		{Date: loan.Day(2021, time.January, 31), Value: dec("2.50")},
		{Date: loan.Day(2021, time.February, 28), Value: dec("5.10")},
	}

	report, err := recon.CompareInterest(merged, reported)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("got %d rows, want 2 months", len(report.Rows))
	}

	jan := report.Rows[0]
	if jan.Month.String() != "2021-01" {
		t.Fatalf("first row month = %s", jan.Month)
	}
	if !jan.Cells[0].Calculated.Equal(dec("2.50")) {
		t.Errorf("baseline January interest = %s, want 2.50", jan.Cells[0].Calculated)
	}
	if !jan.Cells[1].Calculated.Equal(dec("5.00")) {
		t.Errorf("reallocated January interest = %s, want 5.00", jan.Cells[1].Calculated)
	}
	if !jan.Cells[0].Flags.ExactlyMatched {
		t.Error("baseline January should match reported exactly")
	}
	if jan.Cells[1].Flags.Within5Pct {
		t.Error("reallocated January is 100% off, no tolerance flag should hold")
	}

	feb := report.Rows[1]
	if feb.Reported == nil || !feb.Reported.Equal(dec("5.10")) {
		t.Errorf("February reported = %v", feb.Reported)
	}
	// Reallocated February total is 5.00 vs reported 5.10: ~2% off.
	if feb.Cells[1].Flags.Within1Pct || !feb.Cells[1].Flags.Within5Pct {
		t.Errorf("reallocated February flags = %+v", feb.Cells[1].Flags)
	}
}

func TestCompareInterest_UnreportedMonthsStillListed(t *testing.T) {
	merged := januaryFebruaryLedger(t)
	reported := []loan.ReportedPoint{
		{Date: loan.Day(2021, time.January, 31), Value: dec("2.50")},
	}

	report, err := recon.CompareInterest(merged, reported)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(report.Rows))
	}

	feb := report.Rows[1]
	if feb.Reported != nil {
		t.Error("February has no reported figure")
	}
	if !feb.Cells[0].Calculated.Equal(dec("2.50")) {
		t.Errorf("February calculated = %s", feb.Cells[0].Calculated)
	}
	if feb.Cells[0].Flags != (recon.ToleranceFlags{}) {
		t.Errorf("February flags = %+v, want zero value", feb.Cells[0].Flags)
	}
	if !feb.Cells[0].Difference.IsZero() {
		t.Errorf("February difference = %s, want 0", feb.Cells[0].Difference)
	}
}

func TestCompareInterest_NoOverlapIsAlignmentError(t *testing.T) {
	merged := januaryFebruaryLedger(t)
	reported := []loan.ReportedPoint{
		{Date: loan.Day(1999, time.June, 30), Value: dec("10")},
	}

	_, err := recon.CompareInterest(merged, reported)
	if !errors.Is(err, loan.ErrReconciliationAlignment) {
		t.Fatalf("err = %v, want ErrReconciliationAlignment", err)
	}
}
