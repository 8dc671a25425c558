/*
Package csvio reads the tabular inputs and writes the tabular outputs of the
simulation. It is the I/O collaborator around the core: all parsing and
formatting happens here, never inside the engine.

INPUT FILES:
  loan_events.csv             date,balance_change
  interest_rates.csv          date,rate
  reported_interest_added.csv date,reported_interest_added_this_month
  reported_balances.csv       date,reported_balance

Dates are day-first ("31/01/2019") or ISO ("2019-01-31"). Reported values may
carry currency formatting; it is stripped before parsing so that comparisons
downstream are purely numeric.
*/
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// ReadEvents reads the loan event ledger.
func ReadEvents(path string) ([]loan.Event, error) {
	var out []loan.Event
	err := readRows(path, []string{"date", "balance_change"}, func(get func(string) string) error {
		date, err := parseDate(get("date"))
		if err != nil {
			return err
		}
		change, err := parseAmount(get("balance_change"))
		if err != nil {
			return err
		}
		out = append(out, loan.Event{Date: date, Change: change})
		return nil
	})
	return out, err
}

// ReadRates reads the sparse annual interest rate series.
func ReadRates(path string) ([]loan.RatePoint, error) {
	var out []loan.RatePoint
	err := readRows(path, []string{"date", "rate"}, func(get func(string) string) error {
		date, err := parseDate(get("date"))
		if err != nil {
			return err
		}
		rate, err := parseAmount(get("rate"))
		if err != nil {
			return err
		}
		out = append(out, loan.RatePoint{Date: date, Rate: rate})
		return nil
	})
	return out, err
}

// ReadReportedInterest reads the monthly reported interest series.
func ReadReportedInterest(path string) ([]loan.ReportedPoint, error) {
	return readReported(path, "reported_interest_added_this_month")
}

// ReadReportedBalances reads the point-in-time reported balance series.
func ReadReportedBalances(path string) ([]loan.ReportedPoint, error) {
	return readReported(path, "reported_balance")
}

func readReported(path, valueColumn string) ([]loan.ReportedPoint, error) {
	var out []loan.ReportedPoint
	err := readRows(path, []string{"date", valueColumn}, func(get func(string) string) error {
		date, err := parseDate(get("date"))
		if err != nil {
			return err
		}
		value, err := parseAmount(get(valueColumn))
		if err != nil {
			return err
		}
		out = append(out, loan.ReportedPoint{Date: date, Value: value})
		return nil
	})
	return out, err
}

// readRows streams a headed CSV file, handing each record to fn via a
// column-name accessor.
func readRows(path string, required []string, fn func(get func(string) string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	headers, err := r.Read()
	if err != nil {
		return fmt.Errorf("%s: read header: %w", path, err)
	}
	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[strings.TrimSpace(h)] = i
	}
	for _, k := range required {
		if _, ok := col[k]; !ok {
			return fmt.Errorf("%s: missing column %q", path, k)
		}
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: read row: %w", path, err)
		}
		line++
		get := func(name string) string { return strings.TrimSpace(rec[col[name]]) }
		if err := fn(get); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
}

// parseDate accepts day-first and ISO date formats, normalized to UTC
// midnight.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"02/01/2006", "2/1/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return loan.NormalizeDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseAmount parses a numeric cell, stripping currency symbols and thousands
// separators first. Internal computation never sees formatted strings.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("£", "", "$", "", "€", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unparseable amount %q", s)
	}
	return d, nil
}
