/*
main.go - Batch simulation entry point

PURPOSE:
  Reads the loan event ledger and rate history from CSV, runs the full
  assumption sweep, and writes the merged daily ledger plus both
  reconciliation tables back out as CSV. Optionally persists the run to
  SQLite so the API server can serve it later.

COMMAND-LINE FLAGS:
  -inputs     Directory holding the input CSV files (default: inputs)
  -outputs    Directory for the generated CSV files (default: outputs)
  -cutover    First financial year never reallocated (default: 2019)
  -zero-gaps  Treat days before the first known rate as zero-rate
              instead of failing the scenario
  -db         SQLite path to persist the run (empty: no persistence)
  -log-level  logrus level (default: info)

INPUT FILES (under -inputs):
  loan_events.csv             date,balance_change
  interest_rates.csv          date,rate
  reported_interest_added.csv date,reported_interest_added_this_month (optional)
  reported_balances.csv       date,reported_balance (optional)

OUTPUT FILES (under -outputs):
  calculated_balances_under_various_assumptions.csv
  comparison_calculated_reported_monthly_interest.csv
  comparison_calculated_reported_balances.csv

SEE ALSO:
  - csvio: CSV parsing and formatting
  - sweep: Scenario enumeration and execution
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/loan-engine/csvio"
	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/store/sqlite"
	"github.com/warp/loan-engine/sweep"
)

func main() {
	inputsDir := flag.String("inputs", "inputs", "directory with input CSV files")
	outputsDir := flag.String("outputs", "outputs", "directory for output CSV files")
	cutover := flag.Int("cutover", 2019, "first financial year never reallocated")
	zeroGaps := flag.Bool("zero-gaps", false, "treat days before the first known rate as zero-rate")
	dbPath := flag.String("db", "", "SQLite path to persist the run (empty: no persistence)")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	log := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	if err := run(log, *inputsDir, *outputsDir, *cutover, *zeroGaps, *dbPath); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
}

func run(log *logrus.Logger, inputsDir, outputsDir string, cutover int, zeroGaps bool, dbPath string) error {
	in, err := readInputs(log, inputsDir)
	if err != nil {
		return err
	}

	cfg := sweep.DefaultConfig()
	cfg.CutoverYear = cutover
	cfg.Log = log
	if zeroGaps {
		cfg.RateGap = loan.RateGapZero
	}

	result, err := sweep.NewRunner(cfg).Run(context.Background(), in)
	if result == nil || result.Merged == nil {
		return fmt.Errorf("sweep produced no usable output: %w", err)
	}
	if err != nil {
		log.WithError(err).Warn("sweep completed with errors")
	}

	if err := os.MkdirAll(outputsDir, 0o755); err != nil {
		return err
	}
	ledgerPath := filepath.Join(outputsDir, "calculated_balances_under_various_assumptions.csv")
	if err := csvio.WriteMergedLedgerFile(ledgerPath, result.Merged); err != nil {
		return fmt.Errorf("write merged ledger: %w", err)
	}
	log.WithField("file", ledgerPath).Info("wrote merged daily ledger")

	if result.Interest != nil {
		path := filepath.Join(outputsDir, "comparison_calculated_reported_monthly_interest.csv")
		if err := csvio.WriteInterestComparisonFile(path, result.Interest); err != nil {
			return fmt.Errorf("write interest comparison: %w", err)
		}
		log.WithField("file", path).Info("wrote interest comparison")
	}
	if result.Balances != nil {
		path := filepath.Join(outputsDir, "comparison_calculated_reported_balances.csv")
		if err := csvio.WriteBalanceComparisonFile(path, result.Balances); err != nil {
			return fmt.Errorf("write balance comparison: %w", err)
		}
		log.WithField("file", path).Info("wrote balance comparison")
	}

	if dbPath != "" {
		if err := persistRun(dbPath, cutover, result); err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
		log.WithField("db", dbPath).Info("persisted run")
	}
	return nil
}

func readInputs(log *logrus.Logger, dir string) (sweep.Inputs, error) {
	var in sweep.Inputs
	var err error

	if in.Events, err = csvio.ReadEvents(filepath.Join(dir, "loan_events.csv")); err != nil {
		return in, err
	}
	if in.Rates, err = csvio.ReadRates(filepath.Join(dir, "interest_rates.csv")); err != nil {
		return in, err
	}

	// Reported series are optional; a missing file just skips that report.
	interestPath := filepath.Join(dir, "reported_interest_added.csv")
	if in.ReportedInterest, err = csvio.ReadReportedInterest(interestPath); err != nil {
		if !os.IsNotExist(err) {
			return in, err
		}
		log.WithField("file", interestPath).Info("no reported interest file, skipping comparison")
	}
	balancesPath := filepath.Join(dir, "reported_balances.csv")
	if in.ReportedBalances, err = csvio.ReadReportedBalances(balancesPath); err != nil {
		if !os.IsNotExist(err) {
			return in, err
		}
		log.WithField("file", balancesPath).Info("no reported balances file, skipping comparison")
	}
	return in, nil
}

func persistRun(dbPath string, cutover int, result *sweep.Result) error {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	status := "complete"
	for _, out := range result.Outcomes {
		if out.Err != nil {
			status = "partial"
			break
		}
	}
	run := sqlite.Run{
		ID:          fmt.Sprintf("run-%d", time.Now().UnixNano()),
		CreatedAt:   time.Now().UTC(),
		CutoverYear: cutover,
		Status:      status,
	}
	return store.SaveRun(context.Background(), run, result)
}
