package csvio

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/recon"
)

// Monetary output is rounded to two decimal places at this boundary only;
// everything upstream is full-precision.
const outputScale = 2

// WriteMergedLedger writes the wide per-scenario daily ledger:
// date, annual_interest_rate, then payments/calculated_daily_interest/
// calculated_balance per scenario, suffixed with the scenario label.
func WriteMergedLedger(w io.Writer, m *recon.MergedLedger) error {
	cw := csv.NewWriter(w)

	header := []string{"date", "annual_interest_rate"}
	for _, cols := range m.Columns {
		sfx := cols.Scenario.Suffix()
		header = append(header,
			"payments"+sfx,
			"calculated_daily_interest"+sfx,
			"calculated_balance"+sfx,
		)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, day := range m.Days {
		rec := []string{day.Date.Format("2006-01-02"), day.Rate.String()}
		for _, cols := range m.Columns {
			rec = append(rec,
				money(cols.Payments[i]),
				money(cols.Interest[i]),
				money(cols.Balance[i]),
			)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInterestComparison writes one row per ledger month:
// calculated_monthly_interest and flag columns per scenario, plus the
// reported figure where present.
func WriteInterestComparison(w io.Writer, r *recon.InterestReport) error {
	cw := csv.NewWriter(w)

	header := []string{"year_month"}
	for _, sc := range r.Scenarios {
		sfx := sc.Suffix()
		header = append(header,
			"calculated_monthly_interest"+sfx,
			"difference"+sfx,
			"interest_exactly_matched"+sfx,
			"within_1_percent"+sfx,
			"within_5_percent"+sfx,
		)
	}
	header = append(header, "reported_interest_added_this_month")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range r.Rows {
		rec := []string{row.Month.String()}
		for _, cell := range row.Cells {
			rec = append(rec,
				money(cell.Calculated),
				money(cell.Difference),
				boolCell(cell.Flags.ExactlyMatched),
				boolCell(cell.Flags.Within1Pct),
				boolCell(cell.Flags.Within5Pct),
			)
		}
		if row.Reported != nil {
			rec = append(rec, money(*row.Reported))
		} else {
			rec = append(rec, "")
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBalanceComparison writes one row per reconciled date.
func WriteBalanceComparison(w io.Writer, r *recon.BalanceReport) error {
	cw := csv.NewWriter(w)

	header := []string{"date"}
	for _, sc := range r.Scenarios {
		sfx := sc.Suffix()
		header = append(header,
			"calculated_balance"+sfx,
			"difference"+sfx,
			"balance_exactly_matched"+sfx,
			"within_1_percent"+sfx,
			"within_5_percent"+sfx,
		)
	}
	header = append(header, "reported_balance")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range r.Rows {
		rec := []string{row.Date.Format("2006-01-02")}
		for _, cell := range row.Cells {
			rec = append(rec,
				money(cell.Calculated),
				money(cell.Difference),
				boolCell(cell.Flags.ExactlyMatched),
				boolCell(cell.Flags.Within1Pct),
				boolCell(cell.Flags.Within5Pct),
			)
		}
		rec = append(rec, money(row.Reported))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMergedLedgerFile and friends are path-based conveniences for the
// batch runner.

func WriteMergedLedgerFile(path string, m *recon.MergedLedger) error {
	return writeFile(path, func(w io.Writer) error { return WriteMergedLedger(w, m) })
}

func WriteInterestComparisonFile(path string, r *recon.InterestReport) error {
	return writeFile(path, func(w io.Writer) error { return WriteInterestComparison(w, r) })
}

func WriteBalanceComparisonFile(path string, r *recon.BalanceReport) error {
	return writeFile(path, func(w io.Writer) error { return WriteBalanceComparison(w, r) })
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func money(d decimal.Decimal) string { return d.StringFixed(outputScale) }

func boolCell(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
