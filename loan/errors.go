/*
errors.go - Centralized error types for the simulation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Downstream packages (recon, sweep) raise and wrap these errors with
  additional context.

ERROR CATEGORIES:
  1. Engine errors - Bad installment dates, unfillable rate gaps
  2. Merge errors - Scenario-invariant columns disagreeing across scenarios
  3. Reconciliation errors - Reported series that cannot be aligned at all

Reconciliation VALUE differences are never errors: tolerance flags are the
intended output of the comparison reports.
*/
package loan

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDateConstruction is returned when a pay-day assumption names a
	// day-of-month that does not exist in the target month.
	ErrDateConstruction = errors.New("invalid installment date")

	// ErrMissingRate is returned when the rate series starts after the
	// earliest ledger day, leaving days with no forward-fillable rate.
	ErrMissingRate = errors.New("no forward-fillable rate")

	// ErrScenarioInvariant is returned when scenario-invariant columns
	// (dates, rates) disagree between scenario results during merge.
	ErrScenarioInvariant = errors.New("scenario-invariant columns disagree")

	// ErrReconciliationAlignment is returned when a reported series shares
	// no dates or months with the calculated ledger.
	ErrReconciliationAlignment = errors.New("reported series has no overlap with calculated ledger")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DateConstructionError identifies the installment that could not be dated.
type DateConstructionError struct {
	Year  int
	Month time.Month
	Day   int
}

func (e *DateConstructionError) Error() string {
	return fmt.Sprintf("invalid installment date: %04d-%02d has no day %d", e.Year, e.Month, e.Day)
}

func (e *DateConstructionError) Unwrap() error { return ErrDateConstruction }

// MissingRateError identifies the first day with no rate in force.
type MissingRateError struct {
	Date      time.Time
	FirstRate time.Time // earliest rate observation, zero if none
}

func (e *MissingRateError) Error() string {
	if e.FirstRate.IsZero() {
		return fmt.Sprintf("no rate in force on %s: rate series is empty", e.Date.Format("2006-01-02"))
	}
	return fmt.Sprintf("no rate in force on %s: rate series starts %s",
		e.Date.Format("2006-01-02"), e.FirstRate.Format("2006-01-02"))
}

func (e *MissingRateError) Unwrap() error { return ErrMissingRate }

// ScenarioInvariantViolation identifies where two scenario results diverged
// on a column that must be identical across scenarios.
type ScenarioInvariantViolation struct {
	Column string // "date" or "annual_interest_rate"
	Date   time.Time
	A, B   Scenario
}

func (e *ScenarioInvariantViolation) Error() string {
	return fmt.Sprintf("scenario-invariant column %q disagrees between %s and %s at %s",
		e.Column, e.A.Suffix(), e.B.Suffix(), e.Date.Format("2006-01-02"))
}

func (e *ScenarioInvariantViolation) Unwrap() error { return ErrScenarioInvariant }

// ReconciliationAlignmentError names the report that could not be aligned.
type ReconciliationAlignmentError struct {
	Report string // "interest" or "balance"
}

func (e *ReconciliationAlignmentError) Error() string {
	return fmt.Sprintf("%s reconciliation: %v", e.Report, ErrReconciliationAlignment)
}

func (e *ReconciliationAlignmentError) Unwrap() error { return ErrReconciliationAlignment }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInputError returns true if the error is due to invalid caller input
// rather than an engine defect.
func IsInputError(err error) bool {
	return errors.Is(err, ErrDateConstruction) || errors.Is(err, ErrMissingRate)
}
