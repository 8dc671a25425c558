/*
Package sweep drives the assumption sweep: it enumerates scenarios, runs the
reallocation transform and the daily accrual engine for each one in isolation,
and hands the surviving results to the merge and reconciliation reporters.

PURPOSE:
  The sweep owns the result accumulator. The engine itself never appends to a
  shared table; each scenario returns an immutable result that is collected
  here exactly once.

ISOLATION:
  Scenarios share only the immutable input series. Each run reallocates a
  scenario-local copy of the events, so scenarios can and do execute
  concurrently (one goroutine per scenario).

FAILURE:
  A scenario failure (bad installment date, unfillable rate gap) aborts only
  that scenario. It is logged with its scenario identity, reported in the
  per-scenario status, and excluded from the merged output.
*/
package sweep

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/recon"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config is the static sweep configuration: which assumption sets to run and
// the engine policies shared by all of them.
type Config struct {
	// CutoverYear is the first financial year whose payments are never
	// reallocated.
	CutoverYear int

	// FinancialYear buckets events into financial years for reallocation.
	FinancialYear loan.FinancialYearRule

	// PayDays are the pay-day assumptions to sweep; each is paired with
	// reallocation enabled. The raw-events baseline is always included.
	PayDays []loan.PayDay

	// RateGap is the engine policy for days with no forward-fillable rate.
	RateGap loan.RateGapPolicy

	// Log receives per-scenario progress and failures. Defaults to the
	// standard logger when nil.
	Log *logrus.Logger
}

// DefaultConfig mirrors the historical assumption sweep: 2019 cutover,
// April-anchored financial years, and first/last pay-day assumptions.
func DefaultConfig() Config {
	return Config{
		CutoverYear:   2019,
		FinancialYear: loan.DefaultFinancialYearRule(),
		PayDays:       []loan.PayDay{loan.PayDayFirst, loan.PayDayLast},
	}
}

// Scenarios returns the configured scenario set in deterministic order.
func (c Config) Scenarios() []loan.Scenario {
	return loan.EnumerateScenarios(c.PayDays)
}

func (c Config) logger() *logrus.Logger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}

// =============================================================================
// INPUTS AND RESULTS
// =============================================================================

// Inputs are the immutable series a sweep consumes. Reported series are
// optional; an absent series simply skips that comparison report.
type Inputs struct {
	Events           []loan.Event
	Rates            []loan.RatePoint
	ReportedInterest []loan.ReportedPoint
	ReportedBalances []loan.ReportedPoint
}

// Outcome is one scenario's completion status.
type Outcome struct {
	Scenario loan.Scenario
	Rows     []loan.DayRow
	Err      error
}

// Result is the completed sweep: per-scenario outcomes, the merged wide
// ledger of successful scenarios, and the comparison reports.
type Result struct {
	Outcomes []Outcome
	Merged   *recon.MergedLedger
	Interest *recon.InterestReport
	Balances *recon.BalanceReport
}

// =============================================================================
// RUNNER
// =============================================================================

type Runner struct {
	Config Config
}

func NewRunner(cfg Config) *Runner { return &Runner{Config: cfg} }

// Run executes every configured scenario concurrently, merges the successful
// ones, and builds the reconciliation reports. An error is returned only when
// nothing can be produced: every scenario failed, the merge invariant was
// violated, or a supplied reported series could not be aligned at all.
func (r *Runner) Run(ctx context.Context, in Inputs) (*Result, error) {
	scenarios := r.Config.Scenarios()
	log := r.Config.logger()

	outcomes := make([]Outcome, len(scenarios))
	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Add(1)
		go func(i int, sc loan.Scenario) {
			defer wg.Done()
			rows, err := r.runScenario(sc, in)
			outcomes[i] = Outcome{Scenario: sc, Rows: rows, Err: err}
		}(i, sc)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var survivors []recon.ScenarioSeries
	for _, out := range outcomes {
		if out.Err != nil {
			entry := log.WithFields(logrus.Fields{
				"scenario": out.Scenario.Suffix(),
				"error":    out.Err,
			})
			// Assumption errors (undatable installment, rate gap) are an
			// expected outcome of sweeping; anything else is an engine fault.
			if loan.IsInputError(out.Err) {
				entry.Warn("scenario assumptions rejected; excluded from merged output")
			} else {
				entry.Error("scenario failed; excluded from merged output")
			}
			continue
		}
		log.WithField("scenario", out.Scenario.Suffix()).Info("scenario complete")
		survivors = append(survivors, recon.ScenarioSeries{Scenario: out.Scenario, Rows: out.Rows})
	}
	if len(survivors) == 0 {
		return &Result{Outcomes: outcomes}, firstError(outcomes)
	}

	merged, err := recon.Merge(survivors)
	if err != nil {
		return &Result{Outcomes: outcomes}, err
	}

	result := &Result{Outcomes: outcomes, Merged: merged}
	if len(in.ReportedInterest) > 0 {
		result.Interest, err = recon.CompareInterest(merged, in.ReportedInterest)
		if err != nil {
			return result, err
		}
	}
	if len(in.ReportedBalances) > 0 {
		result.Balances, err = recon.CompareBalances(merged, in.ReportedBalances)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// runScenario executes one assumption set against its own copy of the inputs.
func (r *Runner) runScenario(sc loan.Scenario, in Inputs) ([]loan.DayRow, error) {
	events := loan.CloneEvents(in.Events)
	if sc.ReallocateEvenly {
		var err error
		events, err = loan.Reallocate(events, loan.ReallocationConfig{
			CutoverYear: r.Config.CutoverYear,
			Rule:        r.Config.FinancialYear,
			PayDay:      sc.PayDay,
		})
		if err != nil {
			return nil, err
		}
	}
	return loan.Simulate(events, in.Rates, loan.AccrualConfig{RateGap: r.Config.RateGap})
}

func firstError(outcomes []Outcome) error {
	for _, out := range outcomes {
		if out.Err != nil {
			return out.Err
		}
	}
	return nil
}
